// internal/message/message.go
// Contains the JIM message record exchanged between the chat client and server.
package message

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Type is the wire type tag of a JIM message.
type Type string

const (
	TypeAuthenticate Type = "authenticate"
	TypeQuit         Type = "quit"
	TypePresence     Type = "presence"
	TypeGetContacts  Type = "get_contacts"
	TypeAddContact   Type = "add_contact"
	TypeDelContact   Type = "del_contact"
	TypeJoin         Type = "join"
	TypeLeave        Type = "leave"
	TypePersonal     Type = "personal_msg"
	TypeChat         Type = "chat_msg"
	TypeQuantity     Type = "quantity"
	TypeContact      Type = "contact"
	TypeAlert        Type = "alert"
	TypeError        Type = "error"
)

var actions = map[Type]string{
	TypeAuthenticate: "authenticate",
	TypeQuit:         "quit",
	TypePresence:     "presence",
	TypeGetContacts:  "get_contacts",
	TypeAddContact:   "add_contact",
	TypeDelContact:   "del_contact",
	TypeJoin:         "join",
	TypeLeave:        "leave",
	TypePersonal:     "msg",
	TypeChat:         "msg",
	TypeQuantity:     "quantity",
	TypeContact:      "contact_list",
	TypeAlert:        "response",
	TypeError:        "response",
}

// Action returns the human-readable action name mirrored next to the type tag.
func (t Type) Action() string {
	return actions[t]
}

// Now is the clock used to stamp new messages.
var Now = time.Now

// Message is a single JIM record. Producers build it once through the
// constructors below and hand it around by value; nothing mutates it afterwards.
type Message struct {
	Type     Type    `json:"type"`
	Action   string  `json:"action,omitempty"`
	Time     float64 `json:"time"`
	Login    string  `json:"login,omitempty"`
	Password string  `json:"password,omitempty"`
	Room     string  `json:"room,omitempty"`
	To       string  `json:"to,omitempty"`
	From     string  `json:"from,omitempty"`
	Message  string  `json:"message,omitempty"`
	Response Code    `json:"response,omitempty"`
	Alert    string  `json:"alert,omitempty"`
	Error    string  `json:"error,omitempty"`
	Quantity *int    `json:"quantity,omitempty"`
}

func newMessage(t Type) Message {
	return Message{
		Type:   t,
		Action: t.Action(),
		Time:   Timestamp(Now()),
	}
}

// Timestamp converts t to the float epoch seconds used on the wire.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// Timestamp returns the message time as a time.Time.
func (m Message) Timestamp() time.Time {
	sec, frac := math.Modf(m.Time)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// Count returns the quantity carried by a contact-count record.
func (m Message) Count() (int, bool) {
	if m.Quantity == nil {
		return 0, false
	}
	return *m.Quantity, true
}

// Serialize encodes the message for the outbound queue.
func (m Message) Serialize() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("serialize %s message: %w", m.Type, err)
	}
	return data, nil
}

// Decode parses one wire frame into a message record. It does not validate
// the record; see Validate.
func Decode(frame []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(frame, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return m, nil
}

func Authenticate(login, password string) Message {
	m := newMessage(TypeAuthenticate)
	m.Login = login
	m.Password = password
	return m
}

func Quit() Message {
	return newMessage(TypeQuit)
}

func Presence() Message {
	return newMessage(TypePresence)
}

func GetContacts() Message {
	return newMessage(TypeGetContacts)
}

func AddContact(login string) Message {
	m := newMessage(TypeAddContact)
	m.Login = login
	return m
}

func DelContact(login string) Message {
	m := newMessage(TypeDelContact)
	m.Login = login
	return m
}

// JoinRoom asks the server to add login to room. The server broadcasts the
// same type tag back to the other room members as a join notice.
func JoinRoom(login, room string) Message {
	m := newMessage(TypeJoin)
	m.Login = login
	m.Room = room
	return m
}

func LeaveRoom(login, room string) Message {
	m := newMessage(TypeLeave)
	m.Login = login
	m.Room = room
	return m
}

func PersonalMessage(from, to, text string) Message {
	m := newMessage(TypePersonal)
	m.From = from
	m.To = to
	m.Message = text
	return m
}

func ChatMessage(from, room, text string) Message {
	m := newMessage(TypeChat)
	m.From = from
	m.To = room
	m.Message = text
	return m
}

// NewAlert builds a server success response.
func NewAlert(code Code, text string) Message {
	m := newMessage(TypeAlert)
	m.Response = code
	m.Alert = text
	return m
}

// NewError builds a server failure response.
func NewError(code Code, text string) Message {
	m := newMessage(TypeError)
	m.Response = code
	m.Error = text
	return m
}

func NewQuantity(n int) Message {
	m := newMessage(TypeQuantity)
	m.Quantity = &n
	return m
}

func NewContact(login string) Message {
	m := newMessage(TypeContact)
	m.Login = login
	return m
}
