package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New(LevelWarning, "Bulk action", "2 users failed")
	b := New(LevelWarning, "Bulk action", "2 users failed")

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, LevelWarning, a.Level)
	assert.False(t, a.Time.IsZero())
}

func TestCollector(t *testing.T) {
	var c Collector
	assert.Empty(t, c.Items())
	assert.NotNil(t, c.Items())

	c.Notify(New(LevelInfo, "", "one"))
	c.Notify(New(LevelError, "", "two"))

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "one", items[0].Message)
	assert.Equal(t, "two", items[1].Message)
}

func TestFeedKeepsNewest(t *testing.T) {
	f := NewFeed(2)

	f.Notify(New(LevelInfo, "", "1"))
	f.Notify(New(LevelInfo, "", "2"))
	f.Notify(New(LevelInfo, "", "3"))

	recent := f.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].Message)
	assert.Equal(t, "2", recent[1].Message)
}
