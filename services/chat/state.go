package chat

import (
	"strconv"
	"sync"
)

// State holds the active conversation. Only Select writes it.
type State struct {
	mu     sync.RWMutex
	active Conversation
	title  string
	gen    uint64
}

// NewState starts with no conversation on the private tab
func NewState() *State {
	return &State{active: Conversation{Kind: KindPrivate}}
}

// Active returns a snapshot of the active conversation
func (s *State) Active() Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Snapshot returns the active conversation with its selection generation.
// The generation changes on every Select, so callers can tell whether a
// response they waited for still belongs to what is on screen.
func (s *State) Snapshot() (Conversation, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active, s.gen
}

// Current reports whether gen is still the latest selection
func (s *State) Current(gen uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen == gen
}

// Select makes (id, kind) the active conversation and records its display title
func (s *State) Select(id ID, kind Kind, title string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = Conversation{ID: id, Kind: kind, Set: true}
	s.title = title
	s.gen++
	return s.gen
}

// Title is the chat header for the active conversation
func (s *State) Title() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.title
}

// UserMap caches user id -> display name from contact list responses.
// It is a fallback label source and may be stale or incomplete.
type UserMap struct {
	mu    sync.RWMutex
	names map[ID]string
}

func NewUserMap() *UserMap {
	return &UserMap{names: make(map[ID]string)}
}

// Put records names; empty names are skipped
func (m *UserMap) Put(id ID, name string) {
	if name == "" {
		return
	}
	m.mu.Lock()
	m.names[id] = name
	m.mu.Unlock()
}

func (m *UserMap) Lookup(id ID) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.names[id]
	return name, ok
}

func (m *UserMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.names)
}

// Placeholder is the label for a sender nobody has named
func Placeholder(id ID) string {
	return "用户" + strconv.FormatInt(int64(id), 10)
}

// ResolveName picks the explicit name, then the cached one, then the placeholder
func (m *UserMap) ResolveName(id ID, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if m != nil {
		if name, ok := m.Lookup(id); ok {
			return name
		}
	}
	return Placeholder(id)
}

// Normalize turns a wire message into a display record for the session user
func Normalize(msg WireMessage, session Session, users *UserMap) DisplayMessage {
	dir := DirectionReceived
	if msg.SenderID == session.UserID {
		dir = DirectionSent
	}
	return DisplayMessage{
		Direction:  dir,
		SenderID:   msg.SenderID,
		SenderName: users.ResolveName(msg.SenderID, msg.SenderName),
		Content:    msg.Content,
	}
}
