package messages

import (
	"bytes"
	"testing"

	"github.com/cbodonnell/cabinet/pkg/game/types"
	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Message
	}{
		{name: "game state", line: "gameState 3", want: Message{ID: "gameState", Value: "3"}},
		{name: "negative value", line: "gameState -1", want: Message{ID: "gameState", Value: "-1"}},
		{name: "whitespace run", line: "score \t  1200", want: Message{ID: "score", Value: "1200"}},
		{name: "trailing newline", line: "time 42\r\n", want: Message{ID: "time", Value: "42"}},
		{name: "value keeps inner spaces", line: "banner hello there", want: Message{ID: "banner", Value: "hello there"}},
		{name: "id only", line: "ping", want: Message{ID: "ping"}},
		{name: "empty", line: "", want: Message{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decode(tt.line))
		})
	}
}

func TestMessage_Int(t *testing.T) {
	tests := []struct {
		value  string
		want   int
		wantOk bool
	}{
		{value: "100", want: 100, wantOk: true},
		{value: "-1", want: -1, wantOk: true},
		{value: "abc", wantOk: false},
		{value: "", wantOk: false},
		{value: "12abc", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := Message{ID: MessageTypeScore, Value: tt.value}.Int()
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPeerState(t *testing.T) {
	tests := []struct {
		value  int
		want   types.State
		wantOk bool
	}{
		{value: 0, want: types.StateLoading, wantOk: true},
		{value: 1, want: types.StateIdle, wantOk: true},
		{value: 2, want: types.StateStarting, wantOk: true},
		{value: 3, want: types.StatePlaying, wantOk: true},
		{value: -1, want: types.StateEnd, wantOk: true},
		{value: 4, want: types.StateEnd, wantOk: true},
		{value: 7, want: types.StateLoading, wantOk: false},
	}
	for _, tt := range tests {
		got, ok := PeerState(tt.value)
		assert.Equal(t, tt.wantOk, ok, "value %d", tt.value)
		assert.Equal(t, tt.want, got, "value %d", tt.value)
		if ok && tt.value != peerStateEndLegacy {
			assert.Equal(t, tt.value, PeerValue(got))
		}
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "gameState -1", Encode(MessageTypeGameState, PeerStateEnd))
	assert.Equal(t, Message{ID: "score", Value: "5"}, Decode(Encode(MessageTypeScore, 5)))
}

func TestLineBuffer_Feed(t *testing.T) {
	var b LineBuffer

	assert.Empty(t, b.Feed([]byte("game")))
	assert.Equal(t, "game", b.Pending())

	assert.Equal(t, []string{"gameState 3", "score 10"}, b.Feed([]byte("State 3\nscore 10\ntim")))
	assert.Equal(t, "tim", b.Pending())

	assert.Equal(t, []string{"time 5", ""}, b.Feed([]byte("e 5\r\n\n")))
	assert.Equal(t, "", b.Pending())
}

func TestLineBuffer_FeedDropsOverlongLine(t *testing.T) {
	var b LineBuffer
	long := bytes.Repeat([]byte{'x'}, MaxLineLength)

	assert.Empty(t, b.Feed(long))
	assert.Empty(t, b.Feed([]byte("yy")), "the fragment is dropped once it exceeds the limit")
	assert.Empty(t, b.Pending())
	assert.Empty(t, b.Feed(long), "the rest of the line is skipped")

	assert.Equal(t, []string{"score 5"}, b.Feed([]byte("tail\nscore 5\n")))
	assert.Empty(t, b.Pending())

	exact := append(append([]byte(nil), long...), '\r', '\n')
	assert.Equal(t, []string{string(long)}, b.Feed(exact), "a line at the limit is kept")
}
