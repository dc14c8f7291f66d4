package session

import (
	"math"

	"github.com/verte-zerg/keyviz/internal/model"
)

func (s *Session) appendLog(eventType model.EventType, id model.KeyIdentity, repeat bool, ts float64) {
	rec := model.LogRecord{
		TSeconds:  (ts - s.origin) / 1000.0,
		EventType: eventType,
		Key:       id.Key,
		Code:      id.Code,
		Repeat:    repeat,
	}
	if s.hasLastEvent {
		delta := int64(math.Round(ts - s.lastEventTime))
		rec.DeltaMs = &delta
	}
	s.log = append(s.log, rec)
	if over := len(s.log) - s.maxLogRows; over > 0 {
		s.log = s.log[over:]
	}
	s.lastEventTime = ts
	s.hasLastEvent = true
}
