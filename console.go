// console.go
// Terminal front end: reads commands with readline and renders session events.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/erilali/jimclient/internal/archive"
	"github.com/erilali/jimclient/internal/logger"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const (
	defaultHistory = 20
	selfLayout     = "2006-01-02 15:04:05"
)

var errQuit = errors.New("quit")

// chatSession is the part of *session.Session the console drives.
type chatSession interface {
	Login() string
	Authenticate(ctx context.Context, login, password string) error
	RequestContacts(ctx context.Context) error
	AddContact(ctx context.Context, name string) error
	RemoveContact(ctx context.Context, name string) error
	SendMessage(ctx context.Context, to, text string) error
	Presence(ctx context.Context) error
}

type historySource interface {
	History(tab string, limit int) ([]archive.Entry, error)
}

// console implements event.Sink for a terminal.
type console struct {
	ctx     context.Context
	out     io.Writer
	session chatSession
	history historySource
	log     *logger.Logger
	clock   func() time.Time

	mu       sync.Mutex
	contacts map[string]struct{}
	// pending holds sent texts per tab until the server confirms delivery.
	pending map[string][]string
}

func newConsole(ctx context.Context, out io.Writer, sess chatSession, log *logger.Logger) *console {
	return &console{
		ctx:      ctx,
		out:      out,
		session:  sess,
		log:      log,
		clock:    time.Now,
		contacts: make(map[string]struct{}),
		pending:  make(map[string][]string),
	}
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *console) SessionEstablished() {
	c.printf("%s", color.Green.Sprintf("Logged in as %s", c.session.Login()))
	if err := c.session.RequestContacts(c.ctx); err != nil {
		c.log.Warnf("Could not request contacts: %v", err)
	}
}

func (c *console) AddContact(name string) {
	c.mu.Lock()
	c.contacts[name] = struct{}{}
	c.mu.Unlock()
	c.printf("%s", color.Cyan.Sprintf("+ %s", name))
}

func (c *console) RemoveContact(name string) {
	c.mu.Lock()
	delete(c.contacts, name)
	delete(c.pending, name)
	c.mu.Unlock()
	c.printf("%s", color.Cyan.Sprintf("- %s", name))
}

func (c *console) AppendLog(timeLabel, text string) {
	c.printf("%s %s", color.Gray.Sprint(timeLabel), text)
}

func (c *console) AppendMessage(tab, timeLabel, text string) {
	c.printf("%s %s %s", color.Magenta.Sprintf("[%s]", tab), color.Gray.Sprint(timeLabel), text)
}

// ConfirmSelfMessage shows the oldest unconfirmed text sent to tab.
func (c *console) ConfirmSelfMessage(tab string) {
	c.mu.Lock()
	texts := c.pending[tab]
	if len(texts) == 0 {
		c.mu.Unlock()
		return
	}
	text := texts[0]
	c.pending[tab] = texts[1:]
	c.mu.Unlock()

	label := fmt.Sprintf("[%s] @%s>", c.clock().Format(selfLayout), c.session.Login())
	c.AppendMessage(tab, label, text)
}

func (c *console) ShowWarning(title, text string) {
	c.printf("%s %s", color.Red.Sprint(title), color.Yellow.Sprint(text))
}

func (c *console) Contacts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := lo.Keys(c.contacts)
	sort.Strings(names)
	return names
}

func (c *console) addPending(tab, text string) {
	c.mu.Lock()
	c.pending[tab] = append(c.pending[tab], text)
	c.mu.Unlock()
}

func (c *console) dropPending(tab string) {
	c.mu.Lock()
	if texts := c.pending[tab]; len(texts) > 0 {
		c.pending[tab] = texts[:len(texts)-1]
	}
	c.mu.Unlock()
}

// Loop reads commands until /quit, end of input or ctx is done.
func (c *console) Loop(rl *readline.Instance) {
	c.printf("%s", color.Bold.Sprint("Type /help for commands."))
	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}
		if err := c.Execute(line); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			c.printf("%s", color.Red.Sprint(err.Error()))
		}
	}
}

// Execute runs one input line.
func (c *console) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		return fmt.Errorf("unknown input %q, type /help", line)
	}

	cmd, rest, _ := strings.Cut(line, " ")
	args := strings.Fields(rest)
	switch cmd {
	case "/help":
		c.printHelp()
		return nil
	case "/quit":
		return errQuit
	case "/login":
		if len(args) != 2 {
			return errors.New("usage: /login <login> <password>")
		}
		return c.session.Authenticate(c.ctx, args[0], args[1])
	case "/add":
		if len(args) != 1 {
			return errors.New("usage: /add <name|#room>")
		}
		return c.session.AddContact(c.ctx, args[0])
	case "/remove":
		if len(args) != 1 {
			return errors.New("usage: /remove <name|#room>")
		}
		return c.session.RemoveContact(c.ctx, args[0])
	case "/msg":
		to, text, ok := strings.Cut(strings.TrimSpace(rest), " ")
		text = strings.TrimSpace(text)
		if !ok || text == "" {
			return errors.New("usage: /msg <name|#room> <text>")
		}
		c.addPending(to, text)
		if err := c.session.SendMessage(c.ctx, to, text); err != nil {
			c.dropPending(to)
			return err
		}
		return nil
	case "/contacts":
		c.printf("Contacts: %s", strings.Join(c.Contacts(), ", "))
		return c.session.RequestContacts(c.ctx)
	case "/presence":
		return c.session.Presence(c.ctx)
	case "/history":
		return c.showHistory(args)
	default:
		return fmt.Errorf("unknown command %s, type /help", cmd)
	}
}

func (c *console) showHistory(args []string) error {
	if c.history == nil {
		return errors.New("history is unavailable without a transcript archive")
	}
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: /history <name|#room> [count]")
	}
	limit := defaultHistory
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid count %q", args[1])
		}
		limit = n
	}

	entries, err := c.history.History(args[0], limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		c.printf("%s", color.Gray.Sprintf("No history for %s", args[0]))
		return nil
	}
	table := tablewriter.NewWriter(c.out)
	table.SetHeader([]string{"Time", "Text"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, e := range entries {
		table.Append([]string{e.TimeLabel, e.Text})
	}
	table.Render()
	return nil
}

func (c *console) printHelp() {
	c.printf(`Commands:
  /login <login> <password>   authenticate
  /add <name|#room>           add a contact or join a chatroom
  /remove <name|#room>        remove a contact or leave a chatroom
  /msg <name|#room> <text>    send a message
  /contacts                   list and refresh contacts
  /presence                   send a presence notice
  /history <name|#room> [n]   show archived lines
  /quit                       leave the chat`)
}
