package scoreboard

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// TableSize is the number of rows the scoreboard always shows.
	TableSize = 20
	// MaxNameLength is the number of name characters that are kept.
	MaxNameLength = 3
	// ProvisionalName labels the row of a run whose name is not entered yet.
	ProvisionalName = "???"

	placeholderName  = "---"
	placeholderScore = "-"
)

// Entry is one score. Persisted entries are immutable; provisional entries
// only exist while ranking a run that has not been named.
type Entry struct {
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Timestamp   int64  `json:"timestamp"`
	Provisional bool   `json:"-"`
}

// Row is one rendered scoreboard line.
type Row struct {
	Rank        string `json:"rank"`
	Name        string `json:"name"`
	Score       string `json:"score"`
	Provisional bool   `json:"provisional,omitempty"`
}

// Less orders a before b: higher score first, older timestamp on ties.
func Less(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.Timestamp < b.Timestamp
}

// Rank returns a ranked copy of entries. Entries equal under Less keep
// their input order.
func Rank(entries []Entry) []Entry {
	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Less(ranked[i], ranked[j])
	})
	return ranked
}

// ProvisionalRank returns the 0-based index of the first provisional entry,
// or -1 if there is none.
func ProvisionalRank(ranked []Entry) int {
	for i, e := range ranked {
		if e.Provisional {
			return i
		}
	}
	return -1
}

// Ordinal formats n with its English ordinal suffix: 1st, 2nd, 3rd, 11th, 21st.
func Ordinal(n int) string {
	return strconv.Itoa(n) + ordinalSuffix(n)
}

func ordinalSuffix(n int) string {
	if n < 0 {
		n = -n
	}
	if lastTwo := n % 100; lastTwo >= 11 && lastTwo <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// Rows renders the top TableSize entries of an already ranked slice,
// padding with placeholder rows.
func Rows(ranked []Entry) []Row {
	rows := make([]Row, TableSize)
	for i := range rows {
		rows[i] = Row{
			Rank:  strings.ToUpper(Ordinal(i + 1)),
			Name:  placeholderName,
			Score: placeholderScore,
		}
		if i < len(ranked) {
			rows[i].Name = ranked[i].Name
			rows[i].Score = strconv.Itoa(ranked[i].Score)
			rows[i].Provisional = ranked[i].Provisional
		}
	}
	return rows
}

var nonNameChars = regexp.MustCompile(`[^A-Za-z0-9]`)

// SanitizeName strips every character that may not appear in a name.
func SanitizeName(name string) string {
	return nonNameChars.ReplaceAllString(name, "")
}

// TruncateName keeps the first MaxNameLength characters of name.
func TruncateName(name string) string {
	runes := []rune(name)
	if len(runes) > MaxNameLength {
		runes = runes[:MaxNameLength]
	}
	return string(runes)
}
