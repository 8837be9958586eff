package bot

import "sync"

// Action names for multi-step conversations.
const (
	actionAskTarget = "ask_target"
	actionDraw      = "draw"
	actionDrawPost  = "draw_post"
	actionSendMsg   = "send_msg"
)

// Next actions reachable from the ask-target step.
const (
	nextMembersAll = "members_all"
	nextDraw       = "draw"
)

// State is one user's position in a multi-step input conversation.
type State struct {
	Action     string
	NextAction string
	Step       int

	Channel      string
	WinnersCount int
	Token        string
}

// StateStore tracks per-user conversation state. It is an injectable service
// so tests can run isolated instances.
type StateStore struct {
	mu     sync.Mutex
	states map[int64]*State
}

func NewStateStore() *StateStore {
	return &StateStore{states: make(map[int64]*State)}
}

func (s *StateStore) Get(userID int64) (*State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	return st, ok
}

func (s *StateStore) Set(userID int64, st *State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[userID] = st
}

func (s *StateStore) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, userID)
}
