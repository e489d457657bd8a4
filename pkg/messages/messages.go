package messages

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/cbodonnell/cabinet/pkg/game/types"
)

// Message ids sent by the game controller.
const (
	MessageTypeGameState = "gameState"
	MessageTypeScore     = "score"
	MessageTypeTime      = "time"
)

// StateRequestProbe is written once when a serial link opens. Serial peers
// have no unsolicited hello, so the probe asks them to emit their state.
var StateRequestProbe = []byte{'?'}

// Peer-side game state numbering.
const (
	PeerStateLoading   = 0
	PeerStateIdle      = 1
	PeerStateStarting  = 2
	PeerStatePlaying   = 3
	PeerStateEnd       = -1
	peerStateEndLegacy = 4
)

// Message is one decoded protocol line.
type Message struct {
	ID    string
	Value string
}

// Decode splits a line on its first whitespace run. It never fails:
// empty or unknown ids are left for the consumer to ignore.
func Decode(line string) Message {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return Message{ID: line}
	}
	return Message{
		ID:    line[:i],
		Value: strings.TrimLeftFunc(line[i:], unicode.IsSpace),
	}
}

// Encode formats a protocol line without the trailing newline.
func Encode(id string, value int) string {
	return id + " " + strconv.Itoa(value)
}

// Int parses the value as a base-10 integer. ok is false when the value is
// not a number, in which case the field must be ignored.
func (m Message) Int() (n int, ok bool) {
	n, err := strconv.Atoi(m.Value)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PeerState maps the peer's numbering to a game state.
func PeerState(n int) (types.State, bool) {
	switch n {
	case PeerStateLoading:
		return types.StateLoading, true
	case PeerStateIdle:
		return types.StateIdle, true
	case PeerStateStarting:
		return types.StateStarting, true
	case PeerStatePlaying:
		return types.StatePlaying, true
	case PeerStateEnd, peerStateEndLegacy:
		return types.StateEnd, true
	default:
		return types.StateLoading, false
	}
}

// PeerValue is the inverse of PeerState.
func PeerValue(s types.State) int {
	switch s {
	case types.StateIdle:
		return PeerStateIdle
	case types.StateStarting:
		return PeerStateStarting
	case types.StatePlaying:
		return PeerStatePlaying
	case types.StateEnd:
		return PeerStateEnd
	default:
		return PeerStateLoading
	}
}
