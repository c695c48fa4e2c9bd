package telegram

import (
	"sync"

	"github.com/Slastukhin/eco-friendly-bot/internal/domain"
)

// Flow identifies the active multi-step dialogue of a chat.
type Flow int

const (
	FlowNone Flow = iota
	FlowRegistration
	FlowEdit
	FlowUtilization
)

// Registration and utilization step names.
const (
	stepFIO      = "fio"
	stepAge      = "age"
	stepLocation = "location"
	stepPhoto    = "photo"
	stepWeight   = "weight"
)

// Session is the transient per-chat dialogue state: the active flow, its
// current step, the partial answers collected so far and the id of the last
// bot-authored prompt (so it can be replaced). At most one flow is active per
// chat; starting a new flow overwrites the whole session.
type Session struct {
	Flow Flow
	Step string

	// Registration answers.
	FIO      string
	Age      int
	Location string

	// Profile edit target.
	EditField domain.ProfileField

	// Utilization answers.
	CityID    int64
	PointID   int64
	WasteType *domain.WasteType

	// Last outbound prompt, deleted before the next one is sent.
	LastMsgID int
}

// Sessions is an in-memory session store keyed by chat id. Process-lifetime
// only: state is lost on restart, and handlers must treat missing expected
// fields as a signal to ask the user to restart the flow.
type Sessions struct {
	mu sync.RWMutex
	m  map[int64]Session
}

// NewSessions creates an empty session store.
func NewSessions() *Sessions {
	return &Sessions{m: make(map[int64]Session)}
}

// Get returns a copy of the chat's session.
func (s *Sessions) Get(chatID int64) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.m[chatID]
	return sess, ok
}

// Put replaces the chat's session.
func (s *Sessions) Put(chatID int64, sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[chatID] = sess
}

// Clear removes the chat's session entirely.
func (s *Sessions) Clear(chatID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, chatID)
}
