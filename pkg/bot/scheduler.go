// File: pkg/bot/scheduler.go
package bot

import (
	"time"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// SessionScheduler decides whether trading is allowed at a given wall-clock
// time. In manual mode trading is always allowed; in auto mode only inside the
// configured morning and afternoon windows. All methods are pure over the
// supplied time, so tests can probe any instant.
type SessionScheduler struct {
	mode           string
	morningStart   utilities.ClockTime
	morningEnd     utilities.ClockTime
	afternoonStart utilities.ClockTime
	afternoonEnd   utilities.ClockTime
}

// NewSessionScheduler parses the configured window bounds. The config is
// expected to be validated already, so a parse error here means the caller
// skipped Validate.
func NewSessionScheduler(cfg utilities.TradingConfig) (*SessionScheduler, error) {
	morningStart, err := utilities.ParseClock(cfg.MorningStart)
	if err != nil {
		return nil, err
	}
	morningEnd, err := utilities.ParseClock(cfg.MorningEnd)
	if err != nil {
		return nil, err
	}
	afternoonStart, err := utilities.ParseClock(cfg.AfternoonStart)
	if err != nil {
		return nil, err
	}
	afternoonEnd, err := utilities.ParseClock(cfg.AfternoonEnd)
	if err != nil {
		return nil, err
	}
	return &SessionScheduler{
		mode:           cfg.OperationMode,
		morningStart:   morningStart,
		morningEnd:     morningEnd,
		afternoonStart: afternoonStart,
		afternoonEnd:   afternoonEnd,
	}, nil
}

// Allowed reports whether a trade may be placed at the given time.
func (s *SessionScheduler) Allowed(now time.Time) bool {
	return s.Session(now) != ""
}

// Session returns the session type active at the given time, or "" when
// trading is not allowed. Window bounds are half-open: the start minute is in,
// the end minute is out.
func (s *SessionScheduler) Session(now time.Time) utilities.SessionType {
	if s.mode == utilities.OperationModeManual {
		return utilities.SessionManual
	}
	minutes := now.Hour()*60 + now.Minute()
	if minutes >= s.morningStart.Minutes() && minutes < s.morningEnd.Minutes() {
		return utilities.SessionMorning
	}
	if minutes >= s.afternoonStart.Minutes() && minutes < s.afternoonEnd.Minutes() {
		return utilities.SessionAfternoon
	}
	return ""
}

// NextEligibleStart returns the earliest instant at or after now when trading
// becomes allowed. In manual mode, or already inside a window, that is now.
func (s *SessionScheduler) NextEligibleStart(now time.Time) time.Time {
	if s.Allowed(now) {
		return now
	}

	minutes := now.Hour()*60 + now.Minute()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if minutes < s.morningStart.Minutes() {
		return day.Add(time.Duration(s.morningStart.Minutes()) * time.Minute)
	}
	if minutes < s.afternoonStart.Minutes() {
		return day.Add(time.Duration(s.afternoonStart.Minutes()) * time.Minute)
	}
	// Past both windows: tomorrow's morning start.
	return day.AddDate(0, 0, 1).Add(time.Duration(s.morningStart.Minutes()) * time.Minute)
}
