package session

import (
	"fmt"
	"time"
)

const (
	serverName = "Server"
	clientName = "Client"

	dateLayout  = "2006-01-02 15:04:05"
	clockLayout = "15:04:05"
)

// messageLabel prefixes a conversation line with the record's own time.
func messageLabel(at time.Time, sender string) string {
	return fmt.Sprintf("[%s] @%s>", at.Local().Format(dateLayout), sender)
}

// clockLabel prefixes a log line with the local wall clock.
func clockLabel(now time.Time, sender string) string {
	return fmt.Sprintf("[%s] @%s>", now.Local().Format(clockLayout), sender)
}
