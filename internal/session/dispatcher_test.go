package session

import (
	"context"
	"testing"
	"time"

	"github.com/erilali/jimclient/internal/event"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/erilali/jimclient/internal/message"
	"github.com/erilali/jimclient/internal/queue"
	"github.com/stretchr/testify/require"
)

var (
	recordTime = time.Date(2024, 5, 17, 9, 41, 7, 0, time.UTC)
	localTime  = time.Date(2024, 5, 17, 21, 3, 59, 0, time.UTC)
)

func stampMessages(t *testing.T) {
	t.Helper()
	prev := message.Now
	message.Now = func() time.Time { return recordTime }
	t.Cleanup(func() { message.Now = prev })
}

func newTestDispatcher(state AuthState) (*Dispatcher, chan event.Event) {
	events := make(chan event.Event, 16)
	d := NewDispatcher(queue.New[message.Message](0), events, logger.Nop())
	d.clock = func() time.Time { return localTime }
	d.state = state
	return d, events
}

func drain(events chan event.Event) []event.Event {
	var out []event.Event
	for {
		select {
		case e := <-events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func serverClock() string {
	return "[" + localTime.Local().Format(clockLayout) + "] @Server>"
}

func TestDispatcher_DropsInvalidRecords(t *testing.T) {
	stampMessages(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		record message.Message
	}{
		{"unknown type", message.Message{Type: "weather", Time: 1}},
		{"missing type", message.Message{Time: 1}},
		{"alert without text", message.NewAlert(message.OK, "")},
		{"alert with bad code", message.NewAlert(message.Code(42), "hi")},
		{"personal without sender", message.PersonalMessage("", "bob", "hi")},
		{"chat to a client", message.ChatMessage("alice", "bob", "hi")},
		{"quantity without count", message.Message{Type: message.TypeQuantity, Time: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, events := newTestDispatcher(Unauthenticated)
			d.Handle(ctx, tt.record)
			require.Empty(t, drain(events))
			require.Equal(t, Unauthenticated, d.State())
		})
	}
}

func TestDispatcher_OKAuthenticatesOnce(t *testing.T) {
	stampMessages(t)
	ctx := context.Background()
	d, events := newTestDispatcher(Unauthenticated)

	d.Handle(ctx, message.NewAlert(message.OK, "Welcome, alice!"))
	require.Equal(t, Authenticated, d.State())
	require.Equal(t, []event.Event{event.SessionEstablished{}}, drain(events))

	d.Handle(ctx, message.NewAlert(message.OK, "Welcome, alice!"))
	got := drain(events)
	require.NotContains(t, got, event.SessionEstablished{})
	require.Equal(t, Authenticated, d.State())
}

func TestDispatcher_UnauthenticatedIgnoresOtherSuccessCodes(t *testing.T) {
	stampMessages(t)
	d, events := newTestDispatcher(Unauthenticated)

	d.Handle(context.Background(), message.NewAlert(message.Created, "Contact 'bob' has been successfully added!"))
	d.Handle(context.Background(), message.NewAlert(message.BasicNotice, "Hello"))

	require.Empty(t, drain(events))
	require.Equal(t, Unauthenticated, d.State())
}

func TestDispatcher_AuthenticationFailures(t *testing.T) {
	stampMessages(t)

	t.Run("unauthorized", func(t *testing.T) {
		d, events := newTestDispatcher(Unauthenticated)
		d.Handle(context.Background(), message.NewError(message.Unauthorized, "Wrong password"))
		require.Equal(t, []event.Event{warnAuthFailed}, drain(events))
		require.Equal(t, Unauthenticated, d.State())
	})

	t.Run("other failure", func(t *testing.T) {
		d, events := newTestDispatcher(Unauthenticated)
		d.Handle(context.Background(), message.NewError(message.InternalServerError, "Boom"))
		require.Equal(t, []event.Event{warnUnknownError}, drain(events))
		require.Equal(t, Unauthenticated, d.State())
	})

	t.Run("error with success code is ignored", func(t *testing.T) {
		d, events := newTestDispatcher(Unauthenticated)
		d.Handle(context.Background(), message.NewError(message.OK, "odd"))
		require.Empty(t, drain(events))
	})
}

func TestDispatcher_AuthenticatedErrorIsLogged(t *testing.T) {
	stampMessages(t)
	d, events := newTestDispatcher(Authenticated)

	d.Handle(context.Background(), message.NewError(message.NotFound, "User 'zed' does not exist"))

	require.Equal(t, []event.Event{
		event.LogAppended{TimeLabel: serverClock(), Text: "Error 404: User 'zed' does not exist"},
	}, drain(events))
	require.Equal(t, Authenticated, d.State())
}

func TestDispatcher_ConfirmationGrammar(t *testing.T) {
	stampMessages(t)

	tests := []struct {
		text string
		want event.Event
	}{
		{"Message to 'bob' has been delivered!", event.SelfMessageConfirmed{Tab: "bob"}},
		{"Message to '#general' has been delivered!", event.SelfMessageConfirmed{Tab: "#general"}},
		{"You have joined '#general' chatroom!", event.ContactAdded{Name: "#general"}},
		{"You have left '#general' chatroom!", event.ContactRemoved{Name: "#general"}},
		{"Contact 'bob' has been successfully added!", event.ContactAdded{Name: "bob"}},
		{"Contact 'bob' has been successfully removed!", event.ContactRemoved{Name: "bob"}},
		{"You joined the party", warnUnparsed},
		{"You have joined 'general' chatroom!", warnUnparsed},
		{"Contact 'b' has been successfully added!", warnUnparsed},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			d, events := newTestDispatcher(Authenticated)
			d.Handle(context.Background(), message.NewAlert(message.OK, tt.text))
			require.Equal(t, []event.Event{
				event.LogAppended{TimeLabel: serverClock(), Text: "Alert 200: " + tt.text},
				tt.want,
			}, drain(events))
		})
	}
}

func TestDispatcher_ConversationRecords(t *testing.T) {
	stampMessages(t)
	label := func(sender string) string {
		return "[" + recordTime.Local().Format(dateLayout) + "] @" + sender + ">"
	}

	tests := []struct {
		name   string
		record message.Message
		want   event.Event
	}{
		{
			name:   "personal message opens sender tab",
			record: message.PersonalMessage("bob", "alice", "hi there"),
			want:   event.MessageAppended{Tab: "bob", TimeLabel: label("bob"), Text: "hi there"},
		},
		{
			name:   "chat message goes to room tab",
			record: message.ChatMessage("bob", "#general", "hello room"),
			want:   event.MessageAppended{Tab: "#general", TimeLabel: label("bob"), Text: "hello room"},
		},
		{
			name:   "join notice",
			record: message.JoinRoom("carol", "#general"),
			want:   event.MessageAppended{Tab: "#general", TimeLabel: label("Server"), Text: "carol joined #general chatroom."},
		},
		{
			name:   "leave notice",
			record: message.LeaveRoom("carol", "#general"),
			want:   event.MessageAppended{Tab: "#general", TimeLabel: label("Server"), Text: "carol left #general chatroom."},
		},
		{
			name:   "contact count",
			record: message.NewQuantity(0),
			want:   event.LogAppended{TimeLabel: serverClock(), Text: "Amount of contacts: 0"},
		},
		{
			name:   "contact entry",
			record: message.NewContact("#general"),
			want:   event.ContactAdded{Name: "#general"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, events := newTestDispatcher(Authenticated)
			d.Handle(context.Background(), tt.record)
			require.Equal(t, []event.Event{tt.want}, drain(events))
		})
	}
}

func TestDispatcher_IgnoresClientOnlyTypes(t *testing.T) {
	stampMessages(t)
	d, events := newTestDispatcher(Authenticated)

	d.Handle(context.Background(), message.Presence())
	d.Handle(context.Background(), message.GetContacts())

	require.Empty(t, drain(events))
}

func TestDispatcher_RunPreservesArrivalOrder(t *testing.T) {
	stampMessages(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	inbound := queue.New[message.Message](4)
	events := make(chan event.Event, 8)
	d := NewDispatcher(inbound, events, logger.Nop())

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	require.NoError(t, inbound.Push(ctx, message.NewAlert(message.OK, "Welcome")))
	require.NoError(t, inbound.Push(ctx, message.NewContact("bob")))
	require.NoError(t, inbound.Push(ctx, message.NewContact("#general")))

	require.Equal(t, event.SessionEstablished{}, <-events)
	require.Equal(t, event.ContactAdded{Name: "bob"}, <-events)
	require.Equal(t, event.ContactAdded{Name: "#general"}, <-events)

	inbound.Close()
	require.NoError(t, <-done)
}
