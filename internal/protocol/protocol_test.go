package protocol_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/tidwall/gjson"
	"pgregory.net/rapid"

	"bbprovider/internal/protocol"
)

func TestEncodeProducesCompactTypeFirstFrames(t *testing.T) {
	cases := []struct {
		name string
		msg  protocol.Outbound
		want string
	}{
		{
			name: "register",
			msg:  protocol.NewRegister("provider-template", "custom", 20),
			want: `{"type":"ui.register","name":"provider-template","kind":"custom","priority":20}` + "\n",
		},
		{
			name: "subscribe",
			msg:  protocol.NewSubscribe(),
			want: `{"type":"subscribe"}` + "\n",
		},
		{
			name: "anonymous heartbeat",
			msg:  protocol.NewHeartbeat(""),
			want: `{"type":"ui.heartbeat"}` + "\n",
		},
		{
			name: "heartbeat with id",
			msg:  protocol.NewHeartbeat("provider-7"),
			want: `{"type":"ui.heartbeat","id":"provider-7"}` + "\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := protocol.Encode(tc.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("Encode = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEncodeRejectsNil(t *testing.T) {
	if _, err := protocol.Encode(nil); err == nil {
		t.Fatal("expected error for nil message")
	}
}

func TestEncodeRegisterIsOneLine(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[\p{L}\p{N} \t"\\/._-]{0,40}`).Draw(t, "name")
		kind := rapid.StringMatching(`[\p{L}\n\r]{0,20}`).Draw(t, "kind")
		priority := rapid.IntRange(-1000, 1000).Draw(t, "priority")

		frame, err := protocol.Encode(protocol.NewRegister(name, kind, priority))
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		if bytes.Count(frame, []byte{'\n'}) != 1 || frame[len(frame)-1] != '\n' {
			t.Fatalf("frame must end with exactly one newline: %q", frame)
		}
		if !bytes.HasPrefix(frame, []byte(`{"type":"ui.register"`)) {
			t.Fatalf("type must be the first key: %q", frame)
		}
		msg := protocol.NewInbound(frame[:len(frame)-1])
		if !msg.Valid() {
			t.Fatalf("frame is not valid JSON: %q", frame)
		}
		if msg.String("name") != name || msg.String("kind") != kind {
			t.Fatalf("identity did not round trip: %q", frame)
		}
		if got := gjson.GetBytes(msg.Raw(), "priority").Int(); got != int64(priority) {
			t.Fatalf("priority = %d, want %d", got, priority)
		}
	})
}

func TestLineBufferReassemblesArbitraryChunks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.StringMatching(`[a-z{"][a-z0-9{}":, ]{0,60}`), 0, 20).Draw(t, "lines")
		var stream []byte
		for _, line := range lines {
			stream = append(stream, line...)
			stream = append(stream, '\n')
		}

		var buf protocol.LineBuffer
		var got []string
		for len(stream) > 0 {
			n := rapid.IntRange(1, len(stream)).Draw(t, "chunk")
			for _, line := range buf.Write(stream[:n]) {
				got = append(got, string(line))
			}
			stream = stream[n:]
		}

		if buf.Buffered() != 0 {
			t.Fatalf("expected no pending bytes, got %d", buf.Buffered())
		}
		if len(got) != len(lines) {
			t.Fatalf("got %d lines, want %d", len(got), len(lines))
		}
		for i := range lines {
			if got[i] != lines[i] {
				t.Fatalf("line %d = %q, want %q", i, got[i], lines[i])
			}
		}
	})
}

func TestLineBufferSkipsBlankAndTrimsCR(t *testing.T) {
	var buf protocol.LineBuffer
	lines := buf.Write([]byte("\n  \n{\"type\":\"pong\"}\r\n{\"type\""))
	if len(lines) != 1 || string(lines[0]) != `{"type":"pong"}` {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if buf.Buffered() != len(`{"type"`) {
		t.Fatalf("expected partial frame buffered, got %d", buf.Buffered())
	}
	lines = buf.Write([]byte(":\"error\"}\n"))
	if len(lines) != 1 || string(lines[0]) != `{"type":"error"}` {
		t.Fatalf("unexpected completion: %q", lines)
	}
}

func TestLineBufferDropsOversizedFrames(t *testing.T) {
	var buf protocol.LineBuffer
	big := []byte(strings.Repeat("x", protocol.MaxMessageSize))

	if lines := buf.Write(big); len(lines) != 0 {
		t.Fatalf("expected no lines yet, got %d", len(lines))
	}
	if lines := buf.Write(big); len(lines) != 0 {
		t.Fatalf("expected oversized frame to be dropped, got %d lines", len(lines))
	}
	if buf.Dropped() != 1 {
		t.Fatalf("expected one dropped frame, got %d", buf.Dropped())
	}
	if buf.Buffered() != 0 {
		t.Fatalf("expected buffer released, got %d bytes", buf.Buffered())
	}

	lines := buf.Write([]byte("tail of big frame\n{\"type\":\"pong\"}\n"))
	if len(lines) != 1 || string(lines[0]) != `{"type":"pong"}` {
		t.Fatalf("expected recovery after oversized frame, got %q", lines)
	}

	single := append(bytes.Repeat([]byte("y"), protocol.MaxMessageSize+1), '\n')
	if lines := buf.Write(single); len(lines) != 0 {
		t.Fatalf("expected single-chunk oversized frame to be dropped, got %q", lines)
	}
	if buf.Dropped() != 2 {
		t.Fatalf("expected two dropped frames, got %d", buf.Dropped())
	}
}

func TestInboundViews(t *testing.T) {
	cases := []struct {
		name  string
		line  string
		check func(t *testing.T, m protocol.Inbound)
	}{
		{
			name: "registered",
			line: `{"type":"ui.registered","id":"p-3","active":true}`,
			check: func(t *testing.T, m protocol.Inbound) {
				if got := m.AsRegistered(); got.ID != "p-3" || !got.Active {
					t.Fatalf("unexpected registered view: %+v", got)
				}
			},
		},
		{
			name: "subscribed without active",
			line: `{"type":"subscribed"}`,
			check: func(t *testing.T, m protocol.Inbound) {
				if got := m.AsSubscribed(); got.HasActive {
					t.Fatalf("expected no active flag: %+v", got)
				}
			},
		},
		{
			name: "active change",
			line: `{"type":"ui.active","active":true,"id":"other"}`,
			check: func(t *testing.T, m protocol.Inbound) {
				if got := m.AsActiveChange(); !got.Active || got.ID != "other" {
					t.Fatalf("unexpected active view: %+v", got)
				}
			},
		},
		{
			name: "session created",
			line: `{"type":"session.created","id":"s1","source":"polkit","context":{"message":"Authenticate"}}`,
			check: func(t *testing.T, m protocol.Inbound) {
				got := m.AsSessionCreated()
				if got.ID != "s1" || got.Source != "polkit" || got.Message != "Authenticate" {
					t.Fatalf("unexpected session view: %+v", got)
				}
			},
		},
		{
			name: "session updated",
			line: `{"type":"session.updated","id":"s1","prompt":"Password:","echo":false,"info":"touch key"}`,
			check: func(t *testing.T, m protocol.Inbound) {
				got := m.AsSessionUpdated()
				if got.Prompt != "Password:" || got.Echo || got.Info != "touch key" {
					t.Fatalf("unexpected update view: %+v", got)
				}
			},
		},
		{
			name: "session closed",
			line: `{"type":"session.closed","id":"s1","result":"cancelled"}`,
			check: func(t *testing.T, m protocol.Inbound) {
				if got := m.AsSessionClosed(); got.Result != "cancelled" {
					t.Fatalf("unexpected closed view: %+v", got)
				}
			},
		},
		{
			name: "error default text",
			line: `{"type":"error"}`,
			check: func(t *testing.T, m protocol.Inbound) {
				if m.ErrorMessage() != "Error" {
					t.Fatalf("unexpected error text: %q", m.ErrorMessage())
				}
			},
		},
		{
			name: "garbage",
			line: `not json at all`,
			check: func(t *testing.T, m protocol.Inbound) {
				if m.Valid() || m.Type() != "" {
					t.Fatalf("expected invalid untyped message, type=%q", m.Type())
				}
			},
		},
		{
			name: "numeric type",
			line: `{"type":7}`,
			check: func(t *testing.T, m protocol.Inbound) {
				if m.Type() != "" {
					t.Fatalf("expected empty type, got %q", m.Type())
				}
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, protocol.NewInbound([]byte(tc.line)))
		})
	}
}
