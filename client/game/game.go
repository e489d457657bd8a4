package game

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/cbodonnell/cabinet/pkg/clock"
	"github.com/cbodonnell/cabinet/pkg/game/types"
	"github.com/cbodonnell/cabinet/pkg/log"
	"github.com/cbodonnell/cabinet/pkg/loop"
	"github.com/cbodonnell/cabinet/pkg/messages"
	"github.com/cbodonnell/cabinet/pkg/scoreboard"
)

const (
	// DefaultEndScreenTimeout bounds how long the end screen waits for a name.
	DefaultEndScreenTimeout = 30 * time.Second
	// NewHighScoreMessage is shown when the run ranks first.
	NewHighScoreMessage = "NEW HIGH SCORE!"

	storeTimeout = 5 * time.Second
)

// Taunts are shown when the run does not rank first.
var Taunts = []string{
	"SO CLOSE. NOT REALLY.",
	"THE MACHINE REMEMBERS.",
	"TRY USING BOTH HANDS.",
	"INSERT MORE SKILL.",
	"WARM-UP ROUND, RIGHT?",
	"THE HIGH SCORE IS SAFE.",
}

// UI is the display the controller drives.
type UI interface {
	SetGameState(state types.State)
	SetScoreText(value string)
	SetClockText(mmss string)
	RenderScoreboard(rows []scoreboard.Row)
	ShowEndScreen(message string, score int, rank string)
	FocusNameInput()
	SetNameText(value string)
}

// Controller is the game state machine. It owns the visible game state and
// the session of the current run. Every method must be called from the
// executor's goroutine.
type Controller struct {
	clock      clock.Clock
	ui         UI
	store      *scoreboard.Store
	randIntn   func(n int) int
	taunts     []string
	endTimer   *loop.SingleShot
	endTimeout time.Duration
	logger     *log.Logger

	state       types.State
	lastScore   int
	lastElapsed int
	nameInput   string
	// pendingRun is set while a finished run waits on the end screen for a name
	pendingRun bool
	// pendingScore is the score that was ranked and shown for the pending run
	pendingScore int
}

type NewControllerOptions struct {
	Executor loop.Executor
	Clock    clock.Clock
	UI       UI
	Store    *scoreboard.Store
	// RandIntn picks the taunt index. Defaults to math/rand.
	RandIntn         func(n int) int
	Taunts           []string
	EndScreenTimeout time.Duration
}

func NewController(opts NewControllerOptions) *Controller {
	c := &Controller{
		clock:      opts.Clock,
		ui:         opts.UI,
		store:      opts.Store,
		randIntn:   opts.RandIntn,
		taunts:     opts.Taunts,
		endTimeout: opts.EndScreenTimeout,
		logger:     log.With("component", "game"),
		state:      types.StateLoading,
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.randIntn == nil {
		c.randIntn = rand.Intn
	}
	if len(c.taunts) == 0 {
		c.taunts = Taunts
	}
	if c.endTimeout <= 0 {
		c.endTimeout = DefaultEndScreenTimeout
	}
	c.endTimer = loop.NewSingleShot(c.clock, opts.Executor)
	return c
}

// Start pushes the initial view: loading, zeroed score and clock and the
// persisted scoreboard.
func (c *Controller) Start() {
	c.ui.SetGameState(c.state)
	c.ui.SetScoreText(strconv.Itoa(c.lastScore))
	c.ui.SetClockText(FormatClock(c.lastElapsed))
	c.renderPersisted()
}

func (c *Controller) State() types.State {
	return c.state
}

func (c *Controller) LastScore() int {
	return c.lastScore
}

func (c *Controller) NameInput() string {
	return c.nameInput
}

// EndTimerPending reports whether the end screen countdown is running.
func (c *Controller) EndTimerPending() bool {
	return c.endTimer.Pending()
}

// HandleLine decodes one protocol line and applies it.
func (c *Controller) HandleLine(line string) {
	msg := messages.Decode(line)
	switch msg.ID {
	case messages.MessageTypeGameState:
		n, ok := msg.Int()
		if !ok {
			c.logger.Debug("Ignoring non-numeric game state %q", msg.Value)
			return
		}
		s, ok := messages.PeerState(n)
		if !ok {
			c.logger.Debug("Ignoring unknown game state %d", n)
			return
		}
		c.applyGameState(s)
	case messages.MessageTypeScore:
		n, ok := msg.Int()
		if !ok {
			c.logger.Debug("Ignoring non-numeric score %q", msg.Value)
			return
		}
		c.lastScore = n
		c.ui.SetScoreText(strconv.Itoa(n))
	case messages.MessageTypeTime:
		n, ok := msg.Int()
		if !ok {
			c.logger.Debug("Ignoring non-numeric time %q", msg.Value)
			return
		}
		c.lastElapsed = n
		c.ui.SetClockText(FormatClock(n))
	default:
		c.logger.Trace("Ignoring message %q", msg.ID)
	}
}

// Disconnected forces the loading state while no transport is connected.
func (c *Controller) Disconnected() {
	c.endTimer.Cancel()
	if c.state == types.StateLoading {
		return
	}
	c.logger.Info("Connection lost in state %s", c.state)
	c.setState(types.StateLoading)
}

func (c *Controller) applyGameState(reported types.State) {
	if reported == c.state {
		return
	}

	// The peer returns to idle right after a run; the end screen stays up
	// until the countdown expires or a name is submitted.
	if c.state == types.StateEnd && reported == types.StateIdle {
		c.logger.Debug("Holding end screen while peer is idle")
		return
	}

	c.endTimer.Cancel()

	target := reported
	if c.state == types.StatePlaying && reported != types.StatePlaying {
		target = types.StateEnd
		c.endGame()
	} else if target == types.StateEnd {
		// entered without a run to rank; still bound the end screen
		c.endTimer.Arm(c.endTimeout, c.endTimerExpired)
	}

	c.logger.Debug("Game state %s -> %s (peer reported %s)", c.state, target, reported)
	c.setState(target)
}

// endGame ranks the finished run against the persisted table and shows
// the end screen.
func (c *Controller) endGame() {
	provisional := scoreboard.Entry{
		Name:        scoreboard.ProvisionalName,
		Score:       c.lastScore,
		Timestamp:   c.clock.Now().UnixMilli(),
		Provisional: true,
	}
	ranked := scoreboard.Rank(append(c.loadEntries(), provisional))
	rank := scoreboard.ProvisionalRank(ranked)

	message := NewHighScoreMessage
	if rank != 0 {
		message = c.taunts[c.randIntn(len(c.taunts))]
	}
	c.logger.Info("Game ended with score %d, rank %d", c.lastScore, rank+1)

	c.ui.ShowEndScreen(message, c.lastScore, scoreboard.Ordinal(rank+1))
	c.ui.RenderScoreboard(scoreboard.Rows(ranked))
	c.nameInput = ""
	c.ui.SetNameText(c.nameInput)
	c.ui.FocusNameInput()
	c.pendingRun = true
	c.pendingScore = c.lastScore
	c.endTimer.Arm(c.endTimeout, c.endTimerExpired)
}

func (c *Controller) endTimerExpired() {
	if c.state != types.StateEnd {
		return
	}
	c.logger.Info("End screen timed out, discarding score %d", c.pendingScore)
	c.setState(types.StateIdle)
}

// TypeName replaces the name being typed. Characters that may not appear in
// a name are dropped immediately and every keystroke restarts the end
// screen countdown. It returns the sanitized input.
func (c *Controller) TypeName(value string) string {
	if c.state != types.StateEnd {
		return ""
	}
	c.nameInput = scoreboard.SanitizeName(value)
	c.ui.SetNameText(c.nameInput)
	c.endTimer.Arm(c.endTimeout, c.endTimerExpired)
	return c.nameInput
}

// SubmitName records the finished run under name and returns to idle.
// Only the first scoreboard.MaxNameLength characters are kept.
func (c *Controller) SubmitName(name string) error {
	if c.state != types.StateEnd || !c.pendingRun {
		return &ErrNotAcceptingNames{State: c.state}
	}
	name = scoreboard.TruncateName(scoreboard.SanitizeName(name))
	if name == "" {
		return &ErrEmptyName{}
	}

	c.endTimer.Cancel()

	entry := scoreboard.Entry{
		Name:      name,
		Score:     c.pendingScore,
		Timestamp: c.clock.Now().UnixMilli(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	err := c.store.Append(ctx, entry)
	if err != nil {
		c.logger.Error("Failed to save score %d for %s: %v", entry.Score, entry.Name, err)
	} else {
		c.logger.Info("Saved score %d for %s", entry.Score, entry.Name)
	}

	c.setState(types.StateIdle)
	if err != nil {
		return fmt.Errorf("failed to save score: %w", err)
	}
	return nil
}

// setState is the only place the visible state changes.
func (c *Controller) setState(s types.State) {
	prev := c.state
	c.state = s

	if s != types.StateEnd {
		c.nameInput = ""
		c.pendingRun = false
		c.pendingScore = 0
	}
	if s == types.StateIdle || s == types.StateStarting {
		c.lastScore = 0
		c.lastElapsed = 0
		c.ui.SetScoreText(strconv.Itoa(c.lastScore))
		c.ui.SetClockText(FormatClock(c.lastElapsed))
	}

	c.ui.SetGameState(s)

	// drop the provisional row
	if prev == types.StateEnd && s != types.StateEnd {
		c.renderPersisted()
	}
}

func (c *Controller) loadEntries() []scoreboard.Entry {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	entries, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Error("Failed to load scores, showing an empty table: %v", err)
		return []scoreboard.Entry{}
	}
	return entries
}

func (c *Controller) renderPersisted() {
	c.ui.RenderScoreboard(scoreboard.Rows(scoreboard.Rank(c.loadEntries())))
}

// FormatClock formats elapsed seconds as zero-padded mm:ss.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
