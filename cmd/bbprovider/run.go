package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"bbprovider/internal/instance"
	"bbprovider/internal/logging"
	"bbprovider/internal/provider"
)

// runProvider connects and services one provider session. Only failures before
// the connection is established are returned; once connected the session
// outcome is logged and the command succeeds.
func runProvider(cmd *cobra.Command, ctx *commandContext, levelOverride string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.RequireSocket(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr(), levelOverride, uuid.NewString())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if cfg.Instance.SingleInstance {
		lock, err := instance.Acquire(cfg.LockPath())
		if errors.Is(err, instance.ErrAlreadyRunning) {
			logger.Info("another provider instance holds the lock; exiting",
				logging.String(logging.FieldEventType, "instance_locked"),
				logging.String("lock", cfg.LockPath()),
			)
			return nil
		}
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Warn("release instance lock", logging.Error(err))
			}
		}()
	}

	tracker := provider.NewTracker(logging.NewComponentLogger(logger, "tracker"))
	client, err := provider.Dial(signalCtx, cfg.Daemon.SocketPath, provider.Options{
		Name:              cfg.Provider.Name,
		Kind:              cfg.Provider.Kind,
		Priority:          cfg.Provider.Priority,
		HeartbeatInterval: cfg.HeartbeatInterval(),
		ReadTimeout:       cfg.ReadTimeout(),
		Handler:           tracker,
		Logger:            logger,
	})
	if err != nil {
		var connectErr *provider.ConnectError
		if !errors.As(err, &connectErr) {
			return err
		}
		wrapped := wrapDialError(connectErr.Err, cfg.Daemon.SocketPath)
		logging.ErrorWithContext(logger, "daemon connection failed", "connect_failed",
			logging.Error(connectErr.Err),
			logging.String(logging.FieldSocket, cfg.Daemon.SocketPath),
			logging.String(logging.FieldErrorHint, "start the bb-auth daemon or pass --socket"),
		)
		return wrapped
	}

	outcome := client.Run(signalCtx)
	logger.Debug("provider exiting",
		logging.String(logging.FieldEventType, "provider_exit"),
		logging.String("reason", string(outcome.Reason)),
		logging.String(logging.FieldProviderID, tracker.ProviderID()),
		logging.Bool("active", tracker.Active()),
		logging.Int("frames_dropped", outcome.FramesDropped),
	)
	return nil
}
