package types

import "github.com/cbodonnell/cabinet/pkg/scoreboard"

// EndScreen is what the cabinet shows after a run.
type EndScreen struct {
	Message string `json:"message"`
	Score   int    `json:"score"`
	Rank    string `json:"rank"`
}

// Snapshot is a point-in-time copy of everything the UI displays.
type Snapshot struct {
	State      State            `json:"state"`
	Score      string           `json:"score"`
	Clock      string           `json:"clock"`
	EndScreen  *EndScreen       `json:"endScreen,omitempty"`
	NameInput  string           `json:"nameInput"`
	NameFocus  bool             `json:"nameFocus"`
	Scoreboard []scoreboard.Row `json:"scoreboard"`
	Transport  string           `json:"transport,omitempty"`
}

// Copy returns a deep copy of the snapshot.
func (s *Snapshot) Copy() *Snapshot {
	c := *s
	if s.EndScreen != nil {
		endScreen := *s.EndScreen
		c.EndScreen = &endScreen
	}
	c.Scoreboard = append([]scoreboard.Row(nil), s.Scoreboard...)
	return &c
}
