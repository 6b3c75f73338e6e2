package message

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnknownType   = errors.New("unknown message type")
	ErrInvalidRecord = errors.New("invalid message record")
	ErrMalformed     = errors.New("malformed message frame")
)

var (
	clientNameRe = regexp.MustCompile(`^[A-Za-z_\d]{3,32}$`)
	roomNameRe   = regexp.MustCompile(`^#[A-Za-z_\d]{3,31}$`)
)

// IsClientName checks a client login: 3-32 letters, digits or underscores.
func IsClientName(name string) bool {
	return clientNameRe.MatchString(name)
}

// IsRoomName checks a chatroom name: '#' followed by 3-31 letters, digits or underscores.
func IsRoomName(name string) bool {
	return roomNameRe.MatchString(name)
}

// IsName accepts either a client login or a chatroom name.
func IsName(name string) bool {
	return IsClientName(name) || IsRoomName(name)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("jimclient", func(fl validator.FieldLevel) bool {
		return IsClientName(fl.Field().String())
	})
	_ = v.RegisterValidation("jimroom", func(fl validator.FieldLevel) bool {
		return IsRoomName(fl.Field().String())
	})
	_ = v.RegisterValidation("jimname", func(fl validator.FieldLevel) bool {
		return IsName(fl.Field().String())
	})
	return v
}

type rule struct {
	field string
	value func(Message) any
	tag   string
}

var (
	timeRule     = rule{"time", func(m Message) any { return m.Time }, "gt=0"}
	loginRule    = rule{"login", func(m Message) any { return m.Login }, "required,jimclient"}
	roomRule     = rule{"room", func(m Message) any { return m.Room }, "required,jimroom"}
	fromRule     = rule{"from", func(m Message) any { return m.From }, "required,jimclient"}
	textRule     = rule{"message", func(m Message) any { return m.Message }, "required"}
	responseRule = rule{"response", func(m Message) any { return int(m.Response) }, "min=100,max=599"}
)

// schemas lists the structural checks per type tag. A tag missing from this
// table is unknown.
var schemas = map[Type][]rule{
	TypeAuthenticate: {
		{"login", func(m Message) any { return m.Login }, "required,max=32"},
		{"password", func(m Message) any { return m.Password }, "required,max=32"},
	},
	TypeQuit:        nil,
	TypePresence:    nil,
	TypeGetContacts: nil,
	TypeAddContact:  {loginRule},
	TypeDelContact:  {loginRule},
	TypeJoin:        {timeRule, loginRule, roomRule},
	TypeLeave:       {timeRule, loginRule, roomRule},
	TypePersonal: {
		timeRule, fromRule,
		{"to", func(m Message) any { return m.To }, "required,jimclient"},
		textRule,
	},
	TypeChat: {
		timeRule, fromRule,
		{"to", func(m Message) any { return m.To }, "required,jimroom"},
		textRule,
	},
	TypeQuantity: {
		{"quantity", func(m Message) any {
			if n, ok := m.Count(); ok {
				return n
			}
			return -1
		}, "min=0"},
	},
	TypeContact: {
		{"login", func(m Message) any { return m.Login }, "required,jimname"},
	},
	TypeAlert: {
		responseRule,
		{"alert", func(m Message) any { return m.Alert }, "required"},
	},
	TypeError: {
		responseRule,
		{"error", func(m Message) any { return m.Error }, "required"},
	},
}

// Known reports whether t is a recognized type tag.
func (t Type) Known() bool {
	_, ok := schemas[t]
	return ok
}

// Validate runs the structural schema check for the message's type tag.
func Validate(m Message) error {
	rules, ok := schemas[m.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
	for _, r := range rules {
		if err := validate.Var(r.value(m), r.tag); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrInvalidRecord, m.Type, r.field, err)
		}
	}
	return nil
}
