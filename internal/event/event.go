// Package event carries what the session layer has to tell the user interface.
//
// The session emits typed events on a single channel. The UI owns the one
// consumer loop (Pump) and receives them as calls on its Sink, on whatever
// goroutine it runs Pump from.
package event

// Event is one semantic notification for the UI. It is consumed exactly once.
type Event interface {
	event()
}

// SessionEstablished marks a successful authentication.
type SessionEstablished struct{}

type ContactAdded struct {
	Name string
}

type ContactRemoved struct {
	Name string
}

// LogAppended is a line for the log view.
type LogAppended struct {
	TimeLabel string
	Text      string
}

// MessageAppended is a line for the conversation named Tab (a contact or a room).
type MessageAppended struct {
	Tab       string
	TimeLabel string
	Text      string
}

// SelfMessageConfirmed tells the UI that the last message sent to Tab was delivered.
type SelfMessageConfirmed struct {
	Tab string
}

// Warning is a user-facing dialog.
type Warning struct {
	Title string
	Text  string
}

func (SessionEstablished) event()   {}
func (ContactAdded) event()         {}
func (ContactRemoved) event()       {}
func (LogAppended) event()          {}
func (MessageAppended) event()      {}
func (SelfMessageConfirmed) event() {}
func (Warning) event()              {}
