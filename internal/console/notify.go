package console

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"invoicedesk/internal/logger"
)

// Level is the severity of a notification.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	}
	return "info"
}

// Notification is a transient, user-visible message.
type Notification struct {
	Level   Level
	Title   string
	Message string
	Err     error
	At      time.Time
}

// Notifier receives notifications. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

type multiNotifier []Notifier

func (m multiNotifier) Notify(n Notification) {
	for _, notifier := range m {
		notifier.Notify(n)
	}
}

// Notifiers fans a notification out to every non-nil notifier.
func Notifiers(notifiers ...Notifier) Notifier {
	var m multiNotifier
	for _, n := range notifiers {
		if n != nil {
			m = append(m, n)
		}
	}
	return m
}

// LogNotifier writes notifications to a zerolog logger.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier returns a notifier logging under the "notify" component.
func NewLogNotifier() LogNotifier {
	return LogNotifier{log: logger.WithComponent("notify")}
}

func (l LogNotifier) Notify(n Notification) {
	var event *zerolog.Event
	switch n.Level {
	case LevelError:
		event = l.log.Error().Err(n.Err)
	case LevelWarning:
		event = l.log.Warn()
	default:
		event = l.log.Info()
	}
	event.
		Str("level", n.Level.String()).
		Str("title", n.Title).
		Msg(n.Message)
}

// DefaultInboxSize bounds an Inbox created with size <= 0.
const DefaultInboxSize = 32

// Inbox buffers notifications until they are drained, dropping the oldest
// once full.
type Inbox struct {
	mu    sync.Mutex
	items []Notification
	size  int
}

// NewInbox returns an inbox holding at most size notifications.
func NewInbox(size int) *Inbox {
	if size <= 0 {
		size = DefaultInboxSize
	}
	return &Inbox{size: size}
}

func (b *Inbox) Notify(n Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.items) == b.size {
		b.items = b.items[1:]
	}
	b.items = append(b.items, n)
}

// Drain returns the buffered notifications, oldest first, and empties the
// inbox.
func (b *Inbox) Drain() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	items := b.items
	b.items = nil
	return items
}

// Len returns the number of buffered notifications.
func (b *Inbox) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
