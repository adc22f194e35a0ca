package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

func schedulerConfig(mode string) utilities.TradingConfig {
	cfg := utilities.DefaultTradingConfig()
	cfg.OperationMode = mode
	cfg.MorningStart = "10:00"
	cfg.MorningEnd = "12:00"
	cfg.AfternoonStart = "14:00"
	cfg.AfternoonEnd = "17:00"
	return cfg
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, time.UTC)
}

func TestSchedulerManualModeAlwaysAllows(t *testing.T) {
	s, err := NewSessionScheduler(schedulerConfig(utilities.OperationModeManual))
	require.NoError(t, err)

	assert.True(t, s.Allowed(at(3, 0)))
	assert.Equal(t, utilities.SessionManual, s.Session(at(23, 59)))
	assert.Equal(t, at(3, 0), s.NextEligibleStart(at(3, 0)))
}

func TestSchedulerAutoModeWindows(t *testing.T) {
	s, err := NewSessionScheduler(schedulerConfig(utilities.OperationModeAuto))
	require.NoError(t, err)

	tests := []struct {
		hour, minute int
		want         utilities.SessionType
	}{
		{9, 59, ""},
		{10, 0, utilities.SessionMorning},
		{11, 59, utilities.SessionMorning},
		{12, 0, ""},
		{13, 30, ""},
		{14, 0, utilities.SessionAfternoon},
		{16, 59, utilities.SessionAfternoon},
		{17, 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.Session(at(tt.hour, tt.minute)), "at %02d:%02d", tt.hour, tt.minute)
	}
}

func TestSchedulerNextEligibleStart(t *testing.T) {
	s, err := NewSessionScheduler(schedulerConfig(utilities.OperationModeAuto))
	require.NoError(t, err)

	// Before the morning window.
	assert.Equal(t, at(10, 0), s.NextEligibleStart(at(8, 0)))
	// Inside a window: now.
	assert.Equal(t, at(10, 30), s.NextEligibleStart(at(10, 30)))
	// Between windows.
	assert.Equal(t, at(14, 0), s.NextEligibleStart(at(12, 30)))
	// After both windows: tomorrow morning.
	next := s.NextEligibleStart(at(18, 0))
	assert.Equal(t, at(10, 0).AddDate(0, 0, 1), next)
}

func TestSchedulerRejectsBadWindow(t *testing.T) {
	cfg := schedulerConfig(utilities.OperationModeAuto)
	cfg.MorningStart = "25:00"
	_, err := NewSessionScheduler(cfg)
	assert.Error(t, err)
}
