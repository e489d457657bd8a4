package state

import (
	"sync"

	"github.com/cbodonnell/cabinet/pkg/game/types"
	"github.com/cbodonnell/cabinet/pkg/scoreboard"
)

type InMemoryStateManager struct {
	lock     sync.RWMutex
	snapshot *types.Snapshot
}

func NewInMemoryStateManager() *InMemoryStateManager {
	return &InMemoryStateManager{
		snapshot: &types.Snapshot{
			State:      types.StateLoading,
			Score:      "0",
			Clock:      "00:00",
			Scoreboard: scoreboard.Rows(nil),
		},
	}
}

func (m *InMemoryStateManager) Get() *types.Snapshot {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.snapshot.Copy()
}

func (m *InMemoryStateManager) update(fn func(s *types.Snapshot)) {
	m.lock.Lock()
	defer m.lock.Unlock()
	fn(m.snapshot)
}

// SetGameState switches the displayed state. Leaving End hides the end
// screen and the name input.
func (m *InMemoryStateManager) SetGameState(state types.State) {
	m.update(func(s *types.Snapshot) {
		s.State = state
		if state != types.StateEnd {
			s.EndScreen = nil
			s.NameFocus = false
			s.NameInput = ""
		}
	})
}

func (m *InMemoryStateManager) SetScoreText(value string) {
	m.update(func(s *types.Snapshot) {
		s.Score = value
	})
}

func (m *InMemoryStateManager) SetClockText(mmss string) {
	m.update(func(s *types.Snapshot) {
		s.Clock = mmss
	})
}

func (m *InMemoryStateManager) RenderScoreboard(rows []scoreboard.Row) {
	rows = append([]scoreboard.Row(nil), rows...)
	m.update(func(s *types.Snapshot) {
		s.Scoreboard = rows
	})
}

func (m *InMemoryStateManager) ShowEndScreen(message string, score int, rank string) {
	m.update(func(s *types.Snapshot) {
		s.EndScreen = &types.EndScreen{
			Message: message,
			Score:   score,
			Rank:    rank,
		}
	})
}

func (m *InMemoryStateManager) FocusNameInput() {
	m.update(func(s *types.Snapshot) {
		s.NameFocus = true
	})
}

func (m *InMemoryStateManager) SetNameText(value string) {
	m.update(func(s *types.Snapshot) {
		s.NameInput = value
	})
}

func (m *InMemoryStateManager) SetTransport(description string) {
	m.update(func(s *types.Snapshot) {
		s.Transport = description
	})
}
