// Package model defines shared data structures.
package model

import "time"

// Settings is the flat record of operator-tunable keyer settings.
//
// It is persisted as a single flat JSON object; the tags are the stable
// document keys.
type Settings struct {
	CLIMode             int `json:"cli_mode"`
	PTTBufferHoldActive int `json:"ptt_buffer_hold_active"`
	WPM                 int `json:"wpm"`
	HzSidetone          int `json:"hz_sidetone"`
	DahToDitRatio       int `json:"dah_to_dit_ratio"`
	WPMFarnsworth       int `json:"wpm_farnsworth"`
	MemoryRepeatTime    int `json:"memory_repeat_time"`
	WPMCommandMode      int `json:"wpm_command_mode"`
	LinkReceiveUDPPort  int `json:"link_receive_udp_port"`
	WPMPS2USBKeyboard   int `json:"wpm_ps2_usb_keyboard"`
	WPMCLI              int `json:"wpm_cli"`
	WPMWinkey           int `json:"wpm_winkey"`
	PaddleMode          int `json:"paddle_mode"`
	SidetoneVolume      int `json:"sidetone_volume"`

	// PotActivated is set once the potentiometer has been initialised.
	// It lives in memory only.
	PotActivated bool `json:"-"`
}

// Paddle modes.
const (
	PaddleNormal  = 1
	PaddleReverse = 2
)

// DefaultSettings returns the settings a freshly flashed keyer boots with.
func DefaultSettings() Settings {
	return Settings{
		CLIMode:             0,
		PTTBufferHoldActive: 0,
		WPM:                 20,
		HzSidetone:          600,
		DahToDitRatio:       300,
		WPMFarnsworth:       0,
		MemoryRepeatTime:    3000,
		WPMCommandMode:      20,
		LinkReceiveUDPPort:  8888,
		WPMPS2USBKeyboard:   20,
		WPMCLI:              20,
		WPMWinkey:           20,
		PaddleMode:          PaddleNormal,
		SidetoneVolume:      20,
	}
}

// DitMs returns the dit length in milliseconds for a keying speed (PARIS timing).
func DitMs(wpm int) int {
	if wpm <= 0 {
		return 0
	}
	return 1200 / wpm
}

// SessionRecord summarizes a keying session stored in the journal.
type SessionRecord struct {
	ID        int64
	StartedAt time.Time
	EndedAt   time.Time
	WPM       int
	Chars     int
	Text      string
}

// DurationMs returns the session length, zero while the session is open.
func (s SessionRecord) DurationMs() int64 {
	if s.EndedAt.IsZero() || s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt).Milliseconds()
}

// CommitRecord is one settings commit stored in the journal.
type CommitRecord struct {
	ID          int64
	CommittedAt time.Time
	Document    string
}

// JournalFilter narrows journal queries.
type JournalFilter struct {
	Since *time.Time
	Last  int
}

// CharCount is how often one character was keyed.
type CharCount struct {
	Char  string
	Count int
}
