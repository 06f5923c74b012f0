// Package stats keeps dashboard statistics fetched from the backend and pushed by its hubs.
package stats

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoADConsole/GoADConsole/internal/notify"
	"github.com/GoADConsole/GoADConsole/internal/realtime"
)

const defaultFeedSize = 50

// HubNotification is the payload of a ReceiveNotification event.
type HubNotification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notification converts the hub payload. Unknown types become info.
func (h HubNotification) Notification() notify.Notification {
	n := notify.New(notify.LevelInfo, h.Title, h.Message)

	if id, err := uuid.Parse(h.ID); err == nil {
		n.ID = id
	}

	if !h.Timestamp.IsZero() {
		n.Time = h.Timestamp
	}

	switch notify.Level(strings.ToLower(h.Type)) {
	case notify.LevelSuccess:
		n.Level = notify.LevelSuccess
	case notify.LevelWarning:
		n.Level = notify.LevelWarning
	case notify.LevelError:
		n.Level = notify.LevelError
	}

	return n
}

// Live holds the latest pushed statistics and the recent hub notifications.
type Live struct {
	mu     sync.RWMutex
	latest Snapshot
	feed   *notify.Feed
	now    func() time.Time
}

// NewLive returns an empty store keeping feedSize notifications.
func NewLive(feedSize int) *Live {
	if feedSize <= 0 {
		feedSize = defaultFeedSize
	}

	return &Live{feed: notify.NewFeed(feedSize), now: time.Now}
}

// Subscribe registers the stats and notification events on every hub.
func (l *Live) Subscribe(reg *realtime.Registry, hubs ...string) {
	for _, hub := range hubs {
		realtime.OnJSON(reg, hub, realtime.EventStatsUpdate, l.UpdateStats)
		realtime.OnJSON(reg, hub, realtime.EventNotification, l.Receive)
	}
}

// UpdateStats replaces the latest snapshot.
func (l *Live) UpdateStats(s DashboardStats) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.latest = Snapshot{Stats: s, ReceivedAt: l.now(), Live: true}
}

// Receive appends a hub notification to the feed.
func (l *Live) Receive(h HubNotification) {
	l.feed.Notify(h.Notification())
}

// Latest returns the last pushed snapshot. ok is false before the first push.
func (l *Live) Latest() (Snapshot, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.latest, !l.latest.ReceivedAt.IsZero()
}

// Notifications returns the recent hub notifications, newest first.
func (l *Live) Notifications() []notify.Notification {
	return l.feed.Recent()
}
