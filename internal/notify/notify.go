// Package notify carries user-facing notifications from console operations to the page.
package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Level is the severity shown to the user.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is one message shown to the user.
type Notification struct {
	ID      uuid.UUID `json:"id"`
	Level   Level     `json:"level"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// New stamps a notification with a fresh id and the current time.
func New(level Level, title, message string) Notification {
	return Notification{
		ID:      uuid.New(),
		Level:   level,
		Title:   title,
		Message: message,
		Time:    time.Now(),
	}
}

// Sink receives notifications.
type Sink interface {
	Notify(n Notification)
}

// Collector gathers the notifications of a single request.
type Collector struct {
	mu    sync.Mutex
	items []Notification
}

// Notify implements Sink.
func (c *Collector) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = append(c.items, n)
}

// Items returns the collected notifications in arrival order. Never nil.
func (c *Collector) Items() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Notification, len(c.items))
	copy(out, c.items)

	return out
}

// Feed keeps the most recent notifications up to a fixed size.
type Feed struct {
	mu    sync.Mutex
	size  int
	items []Notification
}

// NewFeed returns a feed holding at most size notifications.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = 1
	}

	return &Feed{size: size}
}

// Notify implements Sink.
func (f *Feed) Notify(n Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append(f.items, n)
	if over := len(f.items) - f.size; over > 0 {
		f.items = append([]Notification(nil), f.items[over:]...)
	}
}

// Recent returns the newest notifications first.
func (f *Feed) Recent() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, len(f.items))
	for i, n := range f.items {
		out[len(f.items)-1-i] = n
	}

	return out
}
