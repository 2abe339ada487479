// Package settings persists the keyer settings record as a flat JSON
// document and tracks when the in-memory record needs saving.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/verte-zerg/cwkeyer/internal/model"
)

// FileName is the settings document name on the storage medium.
const FileName = "configuration.json"

// MaxDocumentBytes bounds the serialized document in both directions.
const MaxDocumentBytes = 4096

// ErrNotFound reports that no settings document exists yet.
var ErrNotFound = errors.New("settings: no settings file")

// ErrUnknownKey is returned by Apply for names outside the document.
var ErrUnknownKey = errors.New("settings: unknown key")

// ParseError reports a document that could not be read as a flat JSON object.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("settings: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// WriteError reports a failed save. The previous document, if any, is
// left in place.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("settings: write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

type field struct {
	key string
	ptr func(*model.Settings) *int
}

var fields = []field{
	{"cli_mode", func(s *model.Settings) *int { return &s.CLIMode }},
	{"ptt_buffer_hold_active", func(s *model.Settings) *int { return &s.PTTBufferHoldActive }},
	{"wpm", func(s *model.Settings) *int { return &s.WPM }},
	{"hz_sidetone", func(s *model.Settings) *int { return &s.HzSidetone }},
	{"dah_to_dit_ratio", func(s *model.Settings) *int { return &s.DahToDitRatio }},
	{"wpm_farnsworth", func(s *model.Settings) *int { return &s.WPMFarnsworth }},
	{"memory_repeat_time", func(s *model.Settings) *int { return &s.MemoryRepeatTime }},
	{"wpm_command_mode", func(s *model.Settings) *int { return &s.WPMCommandMode }},
	{"link_receive_udp_port", func(s *model.Settings) *int { return &s.LinkReceiveUDPPort }},
	{"wpm_ps2_usb_keyboard", func(s *model.Settings) *int { return &s.WPMPS2USBKeyboard }},
	{"wpm_cli", func(s *model.Settings) *int { return &s.WPMCLI }},
	{"wpm_winkey", func(s *model.Settings) *int { return &s.WPMWinkey }},
	{"paddle_mode", func(s *model.Settings) *int { return &s.PaddleMode }},
	{"sidetone_volume", func(s *model.Settings) *int { return &s.SidetoneVolume }},
}

// Keys returns the document keys in a stable order.
func Keys() []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.key
	}
	sort.Strings(out)
	return out
}

// Get returns the value stored under a document key.
func Get(s model.Settings, key string) (int, error) {
	for _, f := range fields {
		if f.key == key {
			return *f.ptr(&s), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Apply sets one field by its document key.
func Apply(s *model.Settings, key string, value int) error {
	for _, f := range fields {
		if f.key == key {
			*f.ptr(s) = value
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Load reads the document at path over the default settings.
func Load(path string) (model.Settings, error) {
	s := model.DefaultSettings()
	err := LoadInto(path, &s)
	return s, err
}

// LoadInto overlays the document at path onto s. Keys that are missing,
// unknown or of the wrong type leave the matching field untouched. On
// ErrNotFound or a ParseError s is not modified.
func LoadInto(path string, s *model.Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return &ParseError{Path: path, Err: err}
	}
	if err := Decode(data, s); err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// Decode overlays a JSON document onto s field by field.
func Decode(data []byte, s *model.Settings) error {
	if len(data) > MaxDocumentBytes {
		return fmt.Errorf("document is %d bytes, limit is %d", len(data), MaxDocumentBytes)
	}
	var doc map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if doc == nil {
		return errors.New("document is not an object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after the document")
	}
	next := *s
	for _, f := range fields {
		raw, ok := doc[f.key]
		if !ok {
			continue
		}
		if v, ok := decodeInt(raw); ok {
			*f.ptr(&next) = v
		}
	}
	*s = next
	return nil
}

// decodeInt accepts integers, booleans (as 0/1) and finite numbers, which
// are truncated toward zero.
func decodeInt(raw json.RawMessage) (int, bool) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	switch val := v.(type) {
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			if i > math.MaxInt32 || i < math.MinInt32 {
				return 0, false
			}
			return int(i), true
		}
		f, err := val.Float64()
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) || f > math.MaxInt32 || f < math.MinInt32 {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

// Marshal serializes every persisted field into one flat object.
func Marshal(s model.Settings) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDocumentBytes {
		return nil, fmt.Errorf("settings: document is %d bytes, limit is %d", len(data), MaxDocumentBytes)
	}
	return data, nil
}

// Save writes s to path atomically: a temp file in the same directory is
// synced and renamed over the old document.
func Save(path string, s model.Settings) error {
	data, err := Marshal(s)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := writeAtomic(path, data); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create settings dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "configuration-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp settings: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync settings: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close settings: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	return nil
}
