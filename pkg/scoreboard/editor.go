package scoreboard

// NameEditor holds the name being typed, restricted to what a scoreboard
// entry may carry.
type NameEditor struct {
	value []rune
}

func (e *NameEditor) Reset(value string) {
	e.value = []rune(TruncateName(SanitizeName(value)))
}

// Type appends typed runes, dropping anything not allowed in a name and
// anything past the maximum length. It reports whether the value changed.
func (e *NameEditor) Type(typed []rune) bool {
	if len(typed) == 0 {
		return false
	}
	before := string(e.value)
	e.Reset(before + string(typed))
	return string(e.value) != before
}

// Erase removes the last rune and reports whether there was one.
func (e *NameEditor) Erase() bool {
	if len(e.value) == 0 {
		return false
	}
	e.value = e.value[:len(e.value)-1]
	return true
}

func (e *NameEditor) String() string {
	return string(e.value)
}
