package gateway

import (
	"testing"
	"time"

	"github.com/bizmatters/mindease/console/internal/orchestration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newClockedRegistry() (*Registry, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	r := NewRegistry()
	r.now = clock.now
	return r, clock
}

func TestRegistry_EvictIdle(t *testing.T) {
	r, clock := newClockedRegistry()
	gw := &MockGateway{}

	idle := orchestration.NewAssessmentSession(gw)
	active := orchestration.NewAssessmentSession(gw)
	chat := orchestration.NewChatSession(gw)
	r.AddAssessment(idle)
	r.AddAssessment(active)
	r.AddChat(chat)

	clock.advance(20 * time.Minute)
	_, ok := r.Assessment(active.ID())
	require.True(t, ok)

	clock.advance(15 * time.Minute)
	assessments, chats := r.EvictIdle(30*time.Minute, nil)

	assert.Equal(t, []string{idle.ID()}, assessments)
	assert.Equal(t, []string{chat.ID()}, chats)
	assert.False(t, r.Exists(idle.ID()))
	assert.False(t, r.Exists(chat.ID()))
	assert.True(t, r.Exists(active.ID()), "lookup refreshed last access")

	nAssessments, nChats := r.Counts()
	assert.Equal(t, 1, nAssessments)
	assert.Equal(t, 0, nChats)
}

func TestRegistry_EvictIdle_Keep(t *testing.T) {
	r, clock := newClockedRegistry()
	chat := orchestration.NewChatSession(&MockGateway{})
	r.AddChat(chat)

	clock.advance(time.Hour)
	_, chats := r.EvictIdle(30*time.Minute, func(id string) bool { return id == chat.ID() })
	assert.Empty(t, chats)

	// Kept sessions restart their idle window.
	clock.advance(20 * time.Minute)
	_, chats = r.EvictIdle(30*time.Minute, nil)
	assert.Empty(t, chats)

	clock.advance(10 * time.Minute)
	_, chats = r.EvictIdle(30*time.Minute, nil)
	assert.Equal(t, []string{chat.ID()}, chats)
}

func TestRegistry_EvictIdle_NothingIdle(t *testing.T) {
	r, clock := newClockedRegistry()
	r.AddAssessment(orchestration.NewAssessmentSession(&MockGateway{}))

	clock.advance(time.Minute)
	assessments, chats := r.EvictIdle(30*time.Minute, nil)
	assert.Empty(t, assessments)
	assert.Empty(t, chats)
}
