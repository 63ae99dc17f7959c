package provider

import (
	"context"
	"log/slog"
	"sort"

	"bbprovider/internal/logging"
	"bbprovider/internal/protocol"
)

// Handler receives each complete inbound line. Handlers run on the client's
// loop and must not block or write to the connection.
type Handler interface {
	HandleMessage(ctx context.Context, msg protocol.Inbound)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx context.Context, msg protocol.Inbound)

func (f HandlerFunc) HandleMessage(ctx context.Context, msg protocol.Inbound) {
	f(ctx, msg)
}

// Discard drops every message. It is the default handler.
var Discard Handler = HandlerFunc(func(context.Context, protocol.Inbound) {})

// Router dispatches messages by their "type". Messages with an unregistered or
// missing type go to the fallback.
type Router struct {
	routes   map[string]Handler
	fallback Handler
}

// NewRouter returns a router whose fallback logs unknown types at debug level
// and drops them.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Router{
		routes: make(map[string]Handler),
		fallback: HandlerFunc(func(ctx context.Context, msg protocol.Inbound) {
			logger.DebugContext(ctx, "ignoring daemon message",
				logging.String(logging.FieldEventType, "message_ignored"),
				logging.String(logging.FieldMessageType, msg.Type()),
				logging.Int("bytes", len(msg.Raw())),
			)
		}),
	}
}

// Handle registers h for msgType, replacing any previous handler.
func (r *Router) Handle(msgType string, h Handler) {
	if h == nil {
		delete(r.routes, msgType)
		return
	}
	r.routes[msgType] = h
}

// HandleFunc registers fn for msgType.
func (r *Router) HandleFunc(msgType string, fn func(context.Context, protocol.Inbound)) {
	r.Handle(msgType, HandlerFunc(fn))
}

// Fallback replaces the handler for unknown types. A nil handler discards.
func (r *Router) Fallback(h Handler) {
	if h == nil {
		h = Discard
	}
	r.fallback = h
}

func (r *Router) HandleMessage(ctx context.Context, msg protocol.Inbound) {
	if h, ok := r.routes[msg.Type()]; ok {
		h.HandleMessage(ctx, msg)
		return
	}
	r.fallback.HandleMessage(ctx, msg)
}

// Tracker follows the daemon's view of this provider: the assigned id, whether
// it currently owns the UI, and which sessions are open. It only observes and
// is not safe for use outside the client loop while Run is executing.
type Tracker struct {
	router     *Router
	logger     *slog.Logger
	providerID string
	active     bool
	sessions   map[string]string
	lastError  string
}

// NewTracker builds a Tracker with routes for every daemon message a provider
// receives. Unknown types fall through to the router's default fallback.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = logging.NewNop()
	}
	t := &Tracker{
		router:   NewRouter(logger),
		logger:   logger,
		sessions: make(map[string]string),
	}
	t.router.HandleFunc(protocol.TypeRegistered, t.onRegistered)
	t.router.HandleFunc(protocol.TypeSubscribed, t.onSubscribed)
	t.router.HandleFunc(protocol.TypeActive, t.onActive)
	t.router.HandleFunc(protocol.TypeSessionCreated, t.onSessionCreated)
	t.router.HandleFunc(protocol.TypeSessionUpdated, t.onSessionUpdated)
	t.router.HandleFunc(protocol.TypeSessionClosed, t.onSessionClosed)
	t.router.HandleFunc(protocol.TypeError, t.onError)
	t.router.HandleFunc(protocol.TypePong, func(context.Context, protocol.Inbound) {})
	return t
}

func (t *Tracker) HandleMessage(ctx context.Context, msg protocol.Inbound) {
	t.router.HandleMessage(ctx, msg)
}

// Router exposes the underlying router so callers can add routes or replace
// the fallback.
func (t *Tracker) Router() *Router { return t.router }

// ProviderID returns the id from ui.registered, or "" before registration.
func (t *Tracker) ProviderID() string { return t.providerID }

// Active reports whether the daemon last said this provider owns the UI.
func (t *Tracker) Active() bool { return t.active }

// LastError returns the message of the most recent daemon error.
func (t *Tracker) LastError() string { return t.lastError }

// OpenSessions returns the ids of sessions seen but not yet closed, sorted.
func (t *Tracker) OpenSessions() []string {
	ids := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t *Tracker) setActive(ctx context.Context, active bool) {
	if t.active == active {
		return
	}
	t.active = active
	t.logger.InfoContext(ctx, "provider active state changed",
		logging.String(logging.FieldEventType, "active_changed"),
		logging.String(logging.FieldProviderID, t.providerID),
		logging.Bool("active", active),
	)
}

func (t *Tracker) onRegistered(ctx context.Context, msg protocol.Inbound) {
	reg := msg.AsRegistered()
	t.providerID = reg.ID
	t.logger.InfoContext(ctx, "provider registered",
		logging.String(logging.FieldEventType, "registered"),
		logging.String(logging.FieldProviderID, reg.ID),
		logging.Bool("active", reg.Active),
	)
	t.setActive(ctx, reg.Active)
}

func (t *Tracker) onSubscribed(ctx context.Context, msg protocol.Inbound) {
	sub := msg.AsSubscribed()
	t.logger.DebugContext(ctx, "subscribed to session events",
		logging.String(logging.FieldEventType, "subscribed"),
	)
	if sub.HasActive {
		t.setActive(ctx, sub.Active)
	}
}

func (t *Tracker) onActive(ctx context.Context, msg protocol.Inbound) {
	change := msg.AsActiveChange()
	if !change.Active {
		t.setActive(ctx, false)
		return
	}
	t.setActive(ctx, change.ID == t.providerID)
}

func (t *Tracker) onSessionCreated(ctx context.Context, msg protocol.Inbound) {
	if !t.active {
		return
	}
	s := msg.AsSessionCreated()
	if s.ID == "" {
		return
	}
	t.sessions[s.ID] = s.Source
	t.logger.InfoContext(ctx, "session opened",
		logging.String(logging.FieldEventType, "session_created"),
		logging.String("auth_session", s.ID),
		logging.String("source", s.Source),
	)
}

func (t *Tracker) onSessionUpdated(ctx context.Context, msg protocol.Inbound) {
	if !t.active {
		return
	}
	u := msg.AsSessionUpdated()
	if _, ok := t.sessions[u.ID]; !ok {
		return
	}
	t.logger.DebugContext(ctx, "session updated",
		logging.String(logging.FieldEventType, "session_updated"),
		logging.String("auth_session", u.ID),
		logging.Bool("echo", u.Echo),
		logging.Bool("has_error", u.Error != ""),
	)
}

func (t *Tracker) onSessionClosed(ctx context.Context, msg protocol.Inbound) {
	c := msg.AsSessionClosed()
	if _, ok := t.sessions[c.ID]; !ok {
		return
	}
	delete(t.sessions, c.ID)
	t.logger.InfoContext(ctx, "session closed",
		logging.String(logging.FieldEventType, "session_closed"),
		logging.String("auth_session", c.ID),
		logging.String("result", c.Result),
	)
}

func (t *Tracker) onError(ctx context.Context, msg protocol.Inbound) {
	text := msg.ErrorMessage()
	t.lastError = text
	if text == protocol.NotActiveMessage {
		t.setActive(ctx, false)
	}
	logging.WarnWithContext(t.logger, "daemon reported error", "daemon_error",
		logging.String("daemon_message", text),
		logging.String(logging.FieldImpact, "daemon rejected a provider request"),
		logging.String(logging.FieldErrorHint, "check bb-auth daemon logs"),
	)
}
