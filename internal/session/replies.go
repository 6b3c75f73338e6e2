package session

import (
	"regexp"

	"github.com/erilali/jimclient/internal/event"
)

const (
	namePattern = `#[A-Za-z_\d]{3,31}|[A-Za-z_\d]{3,32}`
	roomPattern = `#[A-Za-z_\d]{3,31}`
)

// replyPattern maps one server confirmation sentence to the event it stands for.
type replyPattern struct {
	name  string
	re    *regexp.Regexp
	event func(token string) event.Event
}

// replyPatterns is the confirmation grammar the server is expected to speak,
// tried in order. Rewording any sentence on the server side turns the
// confirmation into a parse warning on the client.
var replyPatterns = []replyPattern{
	{
		name:  "message_delivered",
		re:    regexp.MustCompile(`^Message to '(` + namePattern + `)' has been delivered!$`),
		event: func(name string) event.Event { return event.SelfMessageConfirmed{Tab: name} },
	},
	{
		name:  "room_joined",
		re:    regexp.MustCompile(`^You have joined '(` + roomPattern + `)' chatroom!$`),
		event: func(room string) event.Event { return event.ContactAdded{Name: room} },
	},
	{
		name:  "room_left",
		re:    regexp.MustCompile(`^You have left '(` + roomPattern + `)' chatroom!$`),
		event: func(room string) event.Event { return event.ContactRemoved{Name: room} },
	},
	{
		name:  "contact_added",
		re:    regexp.MustCompile(`^Contact '(` + namePattern + `)' has been successfully added!$`),
		event: func(name string) event.Event { return event.ContactAdded{Name: name} },
	},
	{
		name:  "contact_removed",
		re:    regexp.MustCompile(`^Contact '(` + namePattern + `)' has been successfully removed!$`),
		event: func(name string) event.Event { return event.ContactRemoved{Name: name} },
	},
}

// classifyReply recovers the structured event behind an alert text.
func classifyReply(text string) (event.Event, bool) {
	for _, p := range replyPatterns {
		if sub := p.re.FindStringSubmatch(text); sub != nil {
			return p.event(sub[1]), true
		}
	}
	return nil, false
}
