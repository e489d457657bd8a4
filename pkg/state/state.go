package state

import (
	"github.com/cbodonnell/cabinet/pkg/game/types"
	"github.com/cbodonnell/cabinet/pkg/scoreboard"
)

// StateManager is the UI model: the controller writes to it through the UI
// sink methods and readers on other goroutines take snapshots.
// Implementations must be thread-safe.
type StateManager interface {
	// Get returns a copy of the current snapshot.
	Get() *types.Snapshot

	SetGameState(state types.State)
	SetScoreText(value string)
	SetClockText(mmss string)
	RenderScoreboard(rows []scoreboard.Row)
	ShowEndScreen(message string, score int, rank string)
	FocusNameInput()
	SetNameText(value string)

	// SetTransport describes the current link for the operator.
	SetTransport(description string)
}
