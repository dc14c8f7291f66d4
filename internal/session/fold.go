package session

import (
	"unicode/utf8"

	"github.com/verte-zerg/keyviz/internal/model"
)

// OnKeyDown folds a key press. Auto-repeat arrives as a press with repeat
// set and never changes the held entry recorded by the first press.
func (s *Session) OnKeyDown(id model.KeyIdentity, repeat bool, ts float64) Dirty {
	if s.paused {
		return 0
	}
	var dirty Dirty
	if _, held := s.activeKeys[id.Code]; !held {
		s.activeKeys[id.Code] = model.HeldKey{Code: id.Code, Key: id.Key, PressedAt: ts}
		dirty |= HeldKeysChanged
	}

	s.appendLog(model.KeyDown, id, repeat, ts)
	dirty |= LogChanged

	if repeat {
		s.appendPattern(patternLabel(id))
		rec, ok := s.repeatCounts[id.Code]
		if !ok {
			rec = model.RepeatRecord{Code: id.Code}
		}
		rec.Key = id.Key
		rec.Count++
		s.repeatCounts[id.Code] = rec
		dirty |= PatternChanged | RepeatCountsChanged
	}
	return dirty
}

// OnKeyUp folds a key release. Releasing a code that is not held only logs.
func (s *Session) OnKeyUp(id model.KeyIdentity, ts float64) Dirty {
	if s.paused {
		return 0
	}
	s.appendLog(model.KeyUp, id, false, ts)
	dirty := LogChanged

	if _, held := s.activeKeys[id.Code]; held {
		delete(s.activeKeys, id.Code)
		dirty |= HeldKeysChanged
	}
	return dirty
}

func (s *Session) appendPattern(label string) {
	s.pattern = append(s.pattern, label)
	if len(s.pattern) > s.maxPatternLen {
		s.pattern = s.pattern[1:]
	}
}

func patternLabel(id model.KeyIdentity) string {
	if utf8.RuneCountInString(id.Key) == 1 {
		return id.Key
	}
	return id.Code
}
