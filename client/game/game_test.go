package game

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cbodonnell/cabinet/pkg/clock"
	"github.com/cbodonnell/cabinet/pkg/game/types"
	"github.com/cbodonnell/cabinet/pkg/loop"
	"github.com/cbodonnell/cabinet/pkg/repositories"
	"github.com/cbodonnell/cabinet/pkg/scoreboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type endScreen struct {
	message string
	score   int
	rank    string
}

type fakeUI struct {
	states     []types.State
	score      string
	clock      string
	rows       []scoreboard.Row
	endScreens []endScreen
	focused    int
	name       string
}

func (u *fakeUI) SetGameState(state types.State) { u.states = append(u.states, state) }
func (u *fakeUI) SetScoreText(value string) { u.score = value }
func (u *fakeUI) SetClockText(mmss string) { u.clock = mmss }
func (u *fakeUI) RenderScoreboard(rows []scoreboard.Row) { u.rows = rows }
func (u *fakeUI) FocusNameInput() { u.focused++ }
func (u *fakeUI) SetNameText(value string) { u.name = value }
func (u *fakeUI) ShowEndScreen(message string, score int, rank string) {
	u.endScreens = append(u.endScreens, endScreen{message: message, score: score, rank: rank})
}

func (u *fakeUI) lastState() types.State {
	if len(u.states) == 0 {
		return types.StateLoading
	}
	return u.states[len(u.states)-1]
}

type testHarness struct {
	controller *Controller
	ui         *fakeUI
	clock      *clock.Fake
	store      *scoreboard.Store
	repository repositories.Repository
}

var testStart = time.UnixMilli(1_700_000_000_000)

func newTestHarness(t *testing.T, entries ...scoreboard.Entry) *testHarness {
	t.Helper()
	ctx := context.Background()
	repository := repositories.NewMemoryRepository()
	store := scoreboard.NewStore(repository, "")
	for _, e := range entries {
		require.NoError(t, store.Append(ctx, e))
	}
	return newTestHarnessWithRepository(t, repository)
}

func newTestHarnessWithRepository(t *testing.T, repository repositories.Repository) *testHarness {
	t.Helper()
	ui := &fakeUI{}
	c := clock.NewFake(testStart)
	store := scoreboard.NewStore(repository, "")
	controller := NewController(NewControllerOptions{
		Executor: loop.Inline{},
		Clock:    c,
		UI:       ui,
		Store:    store,
		RandIntn: func(n int) int { return 1 },
	})
	controller.Start()
	return &testHarness{
		controller: controller,
		ui:         ui,
		clock:      c,
		store:      store,
		repository: repository,
	}
}

func (h *testHarness) feed(lines ...string) {
	for _, line := range lines {
		h.controller.HandleLine(line)
	}
}

// play drives a full run up to the moment the peer reports it finished.
func (h *testHarness) play(score int) {
	h.feed("gameState 1", "gameState 2", "gameState 3", fmt.Sprintf("score %d", score), "gameState -1")
}

func (h *testHarness) persisted(t *testing.T) []scoreboard.Entry {
	t.Helper()
	entries, err := h.store.Ranked(context.Background())
	require.NoError(t, err)
	return entries
}

func TestController_Start(t *testing.T) {
	h := newTestHarness(t, scoreboard.Entry{Name: "AAA", Score: 10, Timestamp: 1})

	assert.Equal(t, []types.State{types.StateLoading}, h.ui.states)
	assert.Equal(t, "0", h.ui.score)
	assert.Equal(t, "00:00", h.ui.clock)
	require.Len(t, h.ui.rows, scoreboard.TableSize)
	assert.Equal(t, "AAA", h.ui.rows[0].Name)
}

func TestController_IdempotentTransition(t *testing.T) {
	h := newTestHarness(t)
	h.feed("gameState 3", "score 50")
	statesBefore := len(h.ui.states)

	h.feed("gameState 3")

	assert.Equal(t, types.StatePlaying, h.controller.State())
	assert.Equal(t, 50, h.controller.LastScore())
	assert.Len(t, h.ui.states, statesBefore)
	assert.Empty(t, h.ui.endScreens)
	assert.False(t, h.controller.EndTimerPending())
}

func TestController_PlayingExitOverride(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "end", line: "gameState -1"},
		{name: "starting", line: "gameState 2"},
		{name: "idle", line: "gameState 1"},
		{name: "loading", line: "gameState 0"},
		{name: "legacy end", line: "gameState 4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHarness(t)
			h.feed("gameState 3", "score 10", tt.line)

			assert.Equal(t, types.StateEnd, h.controller.State())
			assert.Equal(t, types.StateEnd, h.ui.lastState())
			require.Len(t, h.ui.endScreens, 1)
			assert.Equal(t, 10, h.ui.endScreens[0].score)
			assert.True(t, h.controller.EndTimerPending())
			assert.Equal(t, 1, h.ui.focused)
		})
	}
}

func TestController_EndSuppressesIdle(t *testing.T) {
	h := newTestHarness(t)
	h.play(100)
	require.Equal(t, types.StateEnd, h.controller.State())

	h.feed("gameState 1")

	assert.Equal(t, types.StateEnd, h.controller.State())
	assert.Equal(t, types.StateEnd, h.ui.lastState())
	assert.True(t, h.controller.EndTimerPending(), "suppressed report keeps the countdown")

	h.clock.Advance(DefaultEndScreenTimeout)
	assert.Equal(t, types.StateIdle, h.controller.State())
}

func TestController_EndToStartingDiscardsRun(t *testing.T) {
	h := newTestHarness(t)
	h.play(100)

	h.feed("gameState 2")

	assert.Equal(t, types.StateStarting, h.controller.State())
	assert.False(t, h.controller.EndTimerPending())
	assert.Empty(t, h.persisted(t))
	for _, row := range h.ui.rows {
		assert.False(t, row.Provisional)
	}
	assert.True(t, IsNotAcceptingNames(h.controller.SubmitName("AAA")))
}

func TestController_EmptyTableHighScore(t *testing.T) {
	h := newTestHarness(t)
	h.play(100)

	require.Len(t, h.ui.endScreens, 1)
	assert.Equal(t, endScreen{message: NewHighScoreMessage, score: 100, rank: "1st"}, h.ui.endScreens[0])
	assert.Equal(t, scoreboard.Row{Rank: "1ST", Name: scoreboard.ProvisionalName, Score: "100", Provisional: true}, h.ui.rows[0])
	assert.Empty(t, h.persisted(t), "provisional entries are never persisted")

	require.NoError(t, h.controller.SubmitName("AAA"))

	entries := h.persisted(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "AAA", entries[0].Name)
	assert.Equal(t, 100, entries[0].Score)
	assert.Equal(t, types.StateIdle, h.controller.State())
	assert.False(t, h.controller.EndTimerPending())
	assert.Equal(t, scoreboard.Row{Rank: "1ST", Name: "AAA", Score: "100"}, h.ui.rows[0])
}

func TestController_TieRanksAfterOlderEntry(t *testing.T) {
	h := newTestHarness(t, scoreboard.Entry{Name: "BBB", Score: 200, Timestamp: testStart.UnixMilli() - 1000})
	h.play(200)

	require.Len(t, h.ui.endScreens, 1)
	assert.Equal(t, endScreen{message: Taunts[1], score: 200, rank: "2nd"}, h.ui.endScreens[0])
	assert.Equal(t, "BBB", h.ui.rows[0].Name)
	assert.True(t, h.ui.rows[1].Provisional)
}

func TestController_NameTruncation(t *testing.T) {
	h := newTestHarness(t)
	h.play(500)

	require.NoError(t, h.controller.SubmitName("Alexandra"))

	entries := h.persisted(t)
	require.Len(t, entries, 1)
	assert.Equal(t, scoreboard.Entry{Name: "Ale", Score: 500, Timestamp: testStart.UnixMilli()}, entries[0])
}

func TestController_ScoreAfterEndKeepsRankedRun(t *testing.T) {
	h := newTestHarness(t)
	h.play(100)
	h.feed("score 0")

	require.Len(t, h.ui.endScreens, 1)
	assert.Equal(t, 100, h.ui.endScreens[0].score)

	require.NoError(t, h.controller.SubmitName("AAA"))

	entries := h.persisted(t)
	require.Len(t, entries, 1)
	assert.Equal(t, scoreboard.Entry{Name: "AAA", Score: 100, Timestamp: testStart.UnixMilli()}, entries[0])
}

func TestController_TimerExpiryDiscardsRun(t *testing.T) {
	h := newTestHarness(t, scoreboard.Entry{Name: "BBB", Score: 50, Timestamp: 1})
	h.play(100)

	h.clock.Advance(DefaultEndScreenTimeout - time.Second)
	assert.Equal(t, types.StateEnd, h.controller.State())

	h.clock.Advance(time.Second)
	assert.Equal(t, types.StateIdle, h.controller.State())
	assert.Equal(t, types.StateIdle, h.ui.lastState())
	assert.Equal(t, []scoreboard.Entry{{Name: "BBB", Score: 50, Timestamp: 1}}, h.persisted(t))
	assert.Equal(t, "BBB", h.ui.rows[0].Name)
	assert.False(t, h.ui.rows[0].Provisional)
	assert.Equal(t, "---", h.ui.rows[1].Name)
}

func TestController_TypingExtendsEndScreen(t *testing.T) {
	h := newTestHarness(t)
	h.play(100)

	h.clock.Advance(20 * time.Second)
	assert.Equal(t, "AB", h.controller.TypeName("A-B!"))
	assert.Equal(t, "AB", h.ui.name)

	h.clock.Advance(20 * time.Second)
	assert.Equal(t, types.StateEnd, h.controller.State())

	h.clock.Advance(10 * time.Second)
	assert.Equal(t, types.StateIdle, h.controller.State())
	assert.Empty(t, h.controller.NameInput())
}

func TestController_TypeNameOutsideEnd(t *testing.T) {
	h := newTestHarness(t)
	h.feed("gameState 1")

	assert.Empty(t, h.controller.TypeName("ABC"))
	assert.False(t, h.controller.EndTimerPending())
}

func TestController_SubmitNameErrors(t *testing.T) {
	h := newTestHarness(t)

	err := h.controller.SubmitName("AAA")
	assert.True(t, IsNotAcceptingNames(err))

	h.play(100)
	err = h.controller.SubmitName("!!!")
	assert.True(t, IsEmptyName(err))
	assert.Equal(t, types.StateEnd, h.controller.State())
	assert.True(t, h.controller.EndTimerPending())
}

func TestController_MessagesWithBadNumbersAreIgnored(t *testing.T) {
	h := newTestHarness(t)
	h.feed("gameState 3", "score 40", "score abc", "time x", "gameState nope", "gameState 9", "mystery 1", "")

	assert.Equal(t, types.StatePlaying, h.controller.State())
	assert.Equal(t, 40, h.controller.LastScore())
	assert.Equal(t, "40", h.ui.score)
	assert.Equal(t, "00:00", h.ui.clock)
}

func TestController_Time(t *testing.T) {
	h := newTestHarness(t)
	h.feed("gameState 3", "time 65")
	assert.Equal(t, "01:05", h.ui.clock)
	assert.Equal(t, types.StatePlaying, h.controller.State())
}

func TestController_LastScoreDefaultsToZero(t *testing.T) {
	h := newTestHarness(t)
	h.play(300)
	require.NoError(t, h.controller.SubmitName("AAA"))

	h.feed("gameState 2", "gameState 3", "gameState -1")

	require.Len(t, h.ui.endScreens, 2)
	assert.Equal(t, 0, h.ui.endScreens[1].score)
	assert.Equal(t, "2nd", h.ui.endScreens[1].rank)
}

func TestController_Disconnected(t *testing.T) {
	h := newTestHarness(t)
	h.play(100)

	h.controller.Disconnected()

	assert.Equal(t, types.StateLoading, h.controller.State())
	assert.Equal(t, types.StateLoading, h.ui.lastState())
	assert.False(t, h.controller.EndTimerPending())
	assert.False(t, h.ui.rows[0].Provisional)

	count := len(h.ui.states)
	h.controller.Disconnected()
	assert.Len(t, h.ui.states, count, "already loading")
}

func TestController_EndWithoutRun(t *testing.T) {
	h := newTestHarness(t)
	h.feed("gameState 1", "gameState -1")

	assert.Equal(t, types.StateEnd, h.controller.State())
	assert.Empty(t, h.ui.endScreens)
	assert.True(t, IsNotAcceptingNames(h.controller.SubmitName("AAA")))

	h.clock.Advance(DefaultEndScreenTimeout)
	assert.Equal(t, types.StateIdle, h.controller.State())
}

type failingSetRepository struct {
	*repositories.MemoryRepository
}

func (failingSetRepository) Set(ctx context.Context, key string, value string) error {
	return errors.New("read-only filesystem")
}

func TestController_SubmitNameStorageFailure(t *testing.T) {
	h := newTestHarnessWithRepository(t, failingSetRepository{repositories.NewMemoryRepository()})
	h.play(100)

	err := h.controller.SubmitName("AAA")

	assert.Error(t, err)
	assert.Equal(t, types.StateIdle, h.controller.State())
}

func TestFormatClock(t *testing.T) {
	tests := map[int]string{
		0:    "00:00",
		5:    "00:05",
		60:   "01:00",
		599:  "09:59",
		5999: "99:59",
		-3:   "00:00",
	}
	for seconds, want := range tests {
		assert.Equal(t, want, FormatClock(seconds), "seconds=%d", seconds)
	}
}
