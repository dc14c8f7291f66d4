package session

import "github.com/verte-zerg/keyviz/internal/model"

// Reset clears every derived view and restarts the origin at the clock's
// current reading. clearPause also resumes folding.
func (s *Session) Reset(clearPause bool) Dirty {
	s.origin = s.clock.Now()
	s.activeKeys = map[string]model.HeldKey{}
	s.repeatCounts = map[string]model.RepeatRecord{}
	s.pattern = nil
	s.log = nil
	s.lastEventTime = 0
	s.hasLastEvent = false

	dirty := AllViews
	if clearPause && s.paused {
		s.paused = false
		dirty |= PauseChanged
	}
	return dirty
}

// Clear is the user-initiated reset: it also resumes a paused session.
func (s *Session) Clear() Dirty {
	return s.Reset(true)
}

// SetPaused gates folding on or off. Pausing freezes the views as they are.
func (s *Session) SetPaused(paused bool) Dirty {
	if s.paused == paused {
		return 0
	}
	s.paused = paused
	return PauseChanged
}

// TogglePause flips the pause gate.
func (s *Session) TogglePause() Dirty {
	return s.SetPaused(!s.paused)
}
