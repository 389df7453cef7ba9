package gateway

import (
	"sync"
	"time"

	"github.com/bizmatters/mindease/console/internal/orchestration"
)

type assessmentEntry struct {
	session  *orchestration.AssessmentSession
	lastSeen time.Time
}

type chatEntry struct {
	session  *orchestration.ChatSession
	lastSeen time.Time
}

// Registry holds the live session controllers of the console, one per page
// activation. Sessions share nothing with each other. Every lookup refreshes
// the session's last access time.
type Registry struct {
	mu          sync.Mutex
	now         func() time.Time
	assessments map[string]*assessmentEntry
	chats       map[string]*chatEntry
}

func NewRegistry() *Registry {
	return &Registry{
		now:         time.Now,
		assessments: make(map[string]*assessmentEntry),
		chats:       make(map[string]*chatEntry),
	}
}

func (r *Registry) AddAssessment(s *orchestration.AssessmentSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assessments[s.ID()] = &assessmentEntry{session: s, lastSeen: r.now()}
}

func (r *Registry) Assessment(id string) (*orchestration.AssessmentSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.assessments[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.session, true
}

// RemoveAssessment reports whether the session existed.
func (r *Registry) RemoveAssessment(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.assessments[id]
	delete(r.assessments, id)
	return ok
}

func (r *Registry) AddChat(s *orchestration.ChatSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats[s.ID()] = &chatEntry{session: s, lastSeen: r.now()}
}

func (r *Registry) Chat(id string) (*orchestration.ChatSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.chats[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.session, true
}

// RemoveChat reports whether the session existed.
func (r *Registry) RemoveChat(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.chats[id]
	delete(r.chats, id)
	return ok
}

// Exists reports whether id names a session of either kind.
func (r *Registry) Exists(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.assessments[id]; ok {
		e.lastSeen = r.now()
		return true
	}
	if e, ok := r.chats[id]; ok {
		e.lastSeen = r.now()
		return true
	}
	return false
}

// Counts returns the number of live assessment and chat sessions.
func (r *Registry) Counts() (assessments, chats int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.assessments), len(r.chats)
}

// EvictIdle removes every session untouched for at least ttl and returns
// the removed ids by kind. Sessions for which keep returns true are
// refreshed instead.
func (r *Registry) EvictIdle(ttl time.Duration, keep func(id string) bool) (assessments, chats []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for id, e := range r.assessments {
		if now.Sub(e.lastSeen) < ttl {
			continue
		}
		if keep != nil && keep(id) {
			e.lastSeen = now
			continue
		}
		delete(r.assessments, id)
		assessments = append(assessments, id)
	}
	for id, e := range r.chats {
		if now.Sub(e.lastSeen) < ttl {
			continue
		}
		if keep != nil && keep(id) {
			e.lastSeen = now
			continue
		}
		delete(r.chats, id)
		chats = append(chats, id)
	}
	return assessments, chats
}
