package main

import (
	"math/rand"
	"time"

	"github.com/cbodonnell/cabinet/pkg/messages"
)

// step is one protocol line sent after a pause.
type step struct {
	After time.Duration
	Line  string
}

type scriptOptions struct {
	Tick     time.Duration
	Idle     time.Duration
	Starting time.Duration
	Play     time.Duration
	// MaxPoints is the most a single tick can score.
	MaxPoints int
}

// round scripts one game: idle, starting, playing with a score and time
// tick every Tick, then the end report. Every phase keeps emitting so the
// cabinet never sees the link go quiet.
func round(rng *rand.Rand, opts scriptOptions) []step {
	var steps []step
	emit := func(after time.Duration, id string, value int) {
		steps = append(steps, step{After: after, Line: messages.Encode(id, value)})
	}
	heartbeat := func(d time.Duration, state int) {
		for elapsed := time.Duration(0); elapsed < d; elapsed += opts.Tick {
			emit(opts.Tick, messages.MessageTypeGameState, state)
		}
	}

	emit(0, messages.MessageTypeGameState, messages.PeerStateIdle)
	heartbeat(opts.Idle, messages.PeerStateIdle)

	emit(0, messages.MessageTypeGameState, messages.PeerStateStarting)
	heartbeat(opts.Starting, messages.PeerStateStarting)

	emit(0, messages.MessageTypeGameState, messages.PeerStatePlaying)
	emit(0, messages.MessageTypeScore, 0)
	emit(0, messages.MessageTypeTime, 0)
	score := 0
	seconds := 0
	for elapsed := time.Duration(0); elapsed < opts.Play; elapsed += opts.Tick {
		if opts.MaxPoints > 0 {
			score += rng.Intn(opts.MaxPoints + 1)
		}
		seconds = int((elapsed + opts.Tick) / time.Second)
		emit(opts.Tick, messages.MessageTypeScore, score)
		emit(0, messages.MessageTypeTime, seconds)
	}

	emit(0, messages.MessageTypeGameState, messages.PeerStateEnd)
	return steps
}
