// internal/archive/archive.go
// Persists conversation lines to NATS JetStream so a tab can reload its history.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erilali/jimclient/internal/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	streamName       = "TRANSCRIPTS"
	subjectPrefix    = "transcripts"
	logTab           = "log"
	streamRetention  = 7 * 24 * time.Hour
	connectTimeout   = 2 * time.Second
	historyFetchWait = 2 * time.Second
	maxHistory       = 200
	historyBatch     = 100
	flushTimeout     = 2 * time.Second
	consumerPrefix   = "HISTORY_"

	consumerIdleTimeout = time.Minute
)

var ErrNotConnected = errors.New("archive not connected")

// Entry is one archived transcript line.
type Entry struct {
	Session   string    `json:"session"`
	Tab       string    `json:"tab"`
	TimeLabel string    `json:"time_label"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

// Recorder publishes transcript lines. It implements event.Sink; callbacks
// other than AppendMessage and AppendLog are ignored.
type Recorder struct {
	session string
	nc      *nats.Conn
	js      nats.JetStreamContext
	log     *logger.Logger
}

// Open connects to NATS and makes sure the transcript stream exists.
func Open(url, session string, log *logger.Logger) (*Recorder, error) {
	log.Infof("Connecting to NATS at %s", url)
	nc, err := nats.Connect(url, nats.Name("jimclient"), nats.Timeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := nc.JetStream(nats.PublishAsyncErrHandler(func(_ nats.JetStream, msg *nats.Msg, err error) {
		log.Errorf("Failed to archive line on %s: %v", msg.Subject, err)
	}))
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	r := &Recorder{session: session, nc: nc, js: js, log: log}
	if err := r.ensureStream(); err != nil {
		nc.Close()
		return nil, err
	}
	log.Info("Transcript archive ready")
	return r, nil
}

func (r *Recorder) ensureStream() error {
	cfg := &nats.StreamConfig{
		Name:     streamName,
		Subjects: []string{subjectPrefix + ".>"},
		Storage:  nats.FileStorage,
		MaxAge:   streamRetention,
	}
	if _, err := r.js.StreamInfo(streamName); err != nil {
		if _, err := r.js.AddStream(cfg); err != nil {
			return fmt.Errorf("create stream %s: %w", streamName, err)
		}
		r.log.Infof("Created stream: %s", streamName)
		return nil
	}
	if _, err := r.js.UpdateStream(cfg); err != nil {
		return fmt.Errorf("update stream %s: %w", streamName, err)
	}
	return nil
}

// Subject maps a tab name to its transcript subject.
func Subject(tab string) string {
	token := strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, tab)
	if token == "" {
		token = "_"
	}
	return subjectPrefix + "." + token
}

func (r *Recorder) publish(tab, timeLabel, text string) {
	data, err := json.Marshal(Entry{
		Session:   r.session,
		Tab:       tab,
		TimeLabel: timeLabel,
		Text:      text,
		At:        time.Now(),
	})
	if err != nil {
		r.log.Errorf("Failed to marshal transcript entry: %v", err)
		return
	}
	if _, err := r.js.PublishAsync(Subject(tab), data, nats.MsgId(uuid.NewString())); err != nil {
		r.log.Errorf("Failed to archive line for %s: %v", tab, err)
	}
}

func (r *Recorder) AppendMessage(tab, timeLabel, text string) { r.publish(tab, timeLabel, text) }
func (r *Recorder) AppendLog(timeLabel, text string)          { r.publish(logTab, timeLabel, text) }
func (r *Recorder) SessionEstablished()                       {}
func (r *Recorder) AddContact(string)                         {}
func (r *Recorder) RemoveContact(string)                      {}
func (r *Recorder) ConfirmSelfMessage(string)                 {}
func (r *Recorder) ShowWarning(string, string)                {}

// History returns up to limit of the most recent lines archived for tab,
// oldest first. It reads the subject to its end in batches and keeps the tail.
func (r *Recorder) History(tab string, limit int) ([]Entry, error) {
	if !r.Connected() {
		return nil, ErrNotConnected
	}
	if limit <= 0 || limit > maxHistory {
		limit = maxHistory
	}

	subject := Subject(tab)
	consumerName := fmt.Sprintf("%s%d", consumerPrefix, time.Now().UnixNano())
	info, err := r.js.AddConsumer(streamName, &nats.ConsumerConfig{
		Durable:           consumerName,
		DeliverPolicy:     nats.DeliverAllPolicy,
		AckPolicy:         nats.AckExplicitPolicy,
		FilterSubject:     subject,
		MaxDeliver:        1,
		InactiveThreshold: consumerIdleTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create consumer for %s: %w", subject, err)
	}
	defer func() {
		if err := r.js.DeleteConsumer(streamName, consumerName); err != nil {
			r.log.Warnf("Error deleting consumer %s: %v", consumerName, err)
		}
	}()
	if info.NumPending == 0 {
		return []Entry{}, nil
	}

	sub, err := r.js.PullSubscribe(subject, consumerName, nats.Bind(streamName, consumerName))
	if err != nil {
		return nil, fmt.Errorf("subscribe to %s: %w", subject, err)
	}
	defer func() {
		if err := sub.Unsubscribe(); err != nil {
			r.log.Warnf("Error unsubscribing consumer %s: %v", consumerName, err)
		}
	}()

	entries := make([]Entry, 0, limit)
	for {
		msgs, err := sub.Fetch(historyBatch, nats.MaxWait(historyFetchWait))
		if errors.Is(err, nats.ErrTimeout) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", subject, err)
		}

		done := len(msgs) == 0
		for _, msg := range msgs {
			var e Entry
			if err := json.Unmarshal(msg.Data, &e); err != nil {
				r.log.Errorf("Error unmarshaling transcript entry: %v", err)
			} else {
				entries = lastN(append(entries, e), limit)
			}
			_ = msg.Ack()
			if meta, err := msg.Metadata(); err == nil && meta.NumPending == 0 {
				done = true
			}
		}
		if done {
			break
		}
	}
	return entries, nil
}

func lastN(entries []Entry, n int) []Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

// Connected reports whether the NATS connection is up.
func (r *Recorder) Connected() bool {
	return r != nil && r.nc != nil && r.nc.Status() == nats.CONNECTED
}

// Close waits briefly for pending publishes and closes the connection.
func (r *Recorder) Close() {
	if r == nil || r.nc == nil {
		return
	}
	select {
	case <-r.js.PublishAsyncComplete():
	case <-time.After(flushTimeout):
		r.log.Warn("Closing archive with unacknowledged lines")
	}
	r.nc.Close()
}
