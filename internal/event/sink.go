//go:generate go run go.uber.org/mock/mockgen -source=sink.go -destination=../../mocks/mock_sink.go -package=mocks
package event

import "context"

// Sink is the callback set a user interface implements.
type Sink interface {
	SessionEstablished()
	AddContact(name string)
	RemoveContact(name string)
	AppendLog(timeLabel, text string)
	AppendMessage(tab, timeLabel, text string)
	ConfirmSelfMessage(tab string)
	ShowWarning(title, text string)
}

// Deliver invokes the one Sink callback matching e.
func Deliver(sink Sink, e Event) {
	switch e := e.(type) {
	case SessionEstablished:
		sink.SessionEstablished()
	case ContactAdded:
		sink.AddContact(e.Name)
	case ContactRemoved:
		sink.RemoveContact(e.Name)
	case LogAppended:
		sink.AppendLog(e.TimeLabel, e.Text)
	case MessageAppended:
		sink.AppendMessage(e.Tab, e.TimeLabel, e.Text)
	case SelfMessageConfirmed:
		sink.ConfirmSelfMessage(e.Tab)
	case Warning:
		sink.ShowWarning(e.Title, e.Text)
	}
}

// Pump delivers events to sink in order until the channel is closed or ctx is done.
// It returns nil when the channel is closed.
func Pump(ctx context.Context, events <-chan Event, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-events:
			if !ok {
				return nil
			}
			Deliver(sink, e)
		}
	}
}

// Fanout forwards every callback to each sink in order.
type Fanout []Sink

func (f Fanout) SessionEstablished() {
	for _, s := range f {
		s.SessionEstablished()
	}
}

func (f Fanout) AddContact(name string) {
	for _, s := range f {
		s.AddContact(name)
	}
}

func (f Fanout) RemoveContact(name string) {
	for _, s := range f {
		s.RemoveContact(name)
	}
}

func (f Fanout) AppendLog(timeLabel, text string) {
	for _, s := range f {
		s.AppendLog(timeLabel, text)
	}
}

func (f Fanout) AppendMessage(tab, timeLabel, text string) {
	for _, s := range f {
		s.AppendMessage(tab, timeLabel, text)
	}
}

func (f Fanout) ConfirmSelfMessage(tab string) {
	for _, s := range f {
		s.ConfirmSelfMessage(tab)
	}
}

func (f Fanout) ShowWarning(title, text string) {
	for _, s := range f {
		s.ShowWarning(title, text)
	}
}
