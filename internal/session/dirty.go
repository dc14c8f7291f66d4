package session

import "strings"

// Dirty marks which derived views need to be re-synchronized.
type Dirty uint8

// Dirty flags.
const (
	HeldKeysChanged Dirty = 1 << iota
	PatternChanged
	RepeatCountsChanged
	LogChanged
	PauseChanged
)

// AllViews is raised by a reset.
const AllViews = HeldKeysChanged | PatternChanged | RepeatCountsChanged | LogChanged

// Has reports whether every flag in f is set.
func (d Dirty) Has(f Dirty) bool {
	return d&f == f
}

// Empty reports whether no flag is set.
func (d Dirty) Empty() bool {
	return d == 0
}

func (d Dirty) String() string {
	if d == 0 {
		return "none"
	}
	names := []struct {
		flag Dirty
		name string
	}{
		{HeldKeysChanged, "held"},
		{PatternChanged, "pattern"},
		{RepeatCountsChanged, "repeats"},
		{LogChanged, "log"},
		{PauseChanged, "pause"},
	}
	parts := make([]string, 0, len(names))
	for _, n := range names {
		if d.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}
