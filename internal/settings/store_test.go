package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/cwkeyer/internal/model"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	want := model.DefaultSettings()
	want.WPM = 27
	want.HzSidetone = 700
	want.PaddleMode = model.PaddleReverse
	want.SidetoneVolume = 5

	if err := Save(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestSaveWritesEveryKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := Save(path, model.DefaultSettings()); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("document is not json: %v", err)
	}
	if len(doc) != len(Keys()) {
		t.Fatalf("expected %d keys, got %d: %s", len(Keys()), len(doc), data)
	}
	for _, key := range Keys() {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing key %q in %s", key, data)
		}
	}
	if _, ok := doc["pot_activated"]; ok {
		t.Fatalf("pot activation must not be persisted")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	for i := 0; i < 3; i++ {
		if err := Save(path, model.DefaultSettings()); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != FileName {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected only %s, got %v", FileName, names)
	}
}

func TestLoadMissingFile(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got != model.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", got)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(`{"wpm": 30,`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := model.DefaultSettings()
	err := LoadInto(path, &s)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if s != model.DefaultSettings() {
		t.Fatalf("record changed on parse failure: %+v", s)
	}
}

func TestLoadRejectsNonObject(t *testing.T) {
	for _, doc := range []string{`null`, `[1,2]`, `42`} {
		s := model.DefaultSettings()
		if err := Decode([]byte(doc), &s); err == nil {
			t.Fatalf("expected error for %s", doc)
		}
	}
}

func TestLoadRejectsTrailingData(t *testing.T) {
	for _, doc := range []string{
		`{"wpm":25} {"wpm":99} garbage`,
		`{"wpm":25}}`,
		`{"wpm":25} x`,
	} {
		s := model.DefaultSettings()
		if err := Decode([]byte(doc), &s); err == nil {
			t.Fatalf("expected error for %s", doc)
		}
		if s != model.DefaultSettings() {
			t.Fatalf("record changed for %s: %+v", doc, s)
		}
	}
	s := model.DefaultSettings()
	if err := Decode([]byte("{\"wpm\":25}\n  \n"), &s); err != nil || s.WPM != 25 {
		t.Fatalf("trailing whitespace should be accepted, got wpm %d (%v)", s.WPM, err)
	}
}

func TestLoadRejectsOversizedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	doc := `{"wpm": 22, "pad": "` + strings.Repeat("x", MaxDocumentBytes) + `"}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := model.DefaultSettings()
	var perr *ParseError
	if err := LoadInto(path, &s); !errors.As(err, &perr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if s.WPM != model.DefaultSettings().WPM {
		t.Fatalf("oversized document was applied")
	}
}

func TestDecodeIsPermissive(t *testing.T) {
	s := model.DefaultSettings()
	doc := `{
		"wpm": 31,
		"hz_sidetone": "loud",
		"cli_mode": true,
		"sidetone_volume": 7.9,
		"dah_to_dit_ratio": null,
		"callsign": "N0CALL"
	}`
	if err := Decode([]byte(doc), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	def := model.DefaultSettings()
	if s.WPM != 31 {
		t.Fatalf("expected wpm 31, got %d", s.WPM)
	}
	if s.HzSidetone != def.HzSidetone {
		t.Fatalf("string value should be skipped, got %d", s.HzSidetone)
	}
	if s.CLIMode != 1 {
		t.Fatalf("expected true to map to 1, got %d", s.CLIMode)
	}
	if s.SidetoneVolume != 7 {
		t.Fatalf("expected float to truncate to 7, got %d", s.SidetoneVolume)
	}
	if s.DahToDitRatio != def.DahToDitRatio {
		t.Fatalf("null should be skipped, got %d", s.DahToDitRatio)
	}
	if s.PaddleMode != def.PaddleMode {
		t.Fatalf("missing key should keep default, got %d", s.PaddleMode)
	}
}

func TestApplyAndGet(t *testing.T) {
	s := model.DefaultSettings()
	if err := Apply(&s, "wpm_farnsworth", 12); err != nil {
		t.Fatalf("apply: %v", err)
	}
	v, err := Get(s, "wpm_farnsworth")
	if err != nil || v != 12 {
		t.Fatalf("expected 12, got %d (%v)", v, err)
	}
	if err := Apply(&s, "callsign", 1); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
	if _, err := Get(s, "callsign"); !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestSaveIntoUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	err := Save(filepath.Join(blocker, FileName), model.DefaultSettings())
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("expected WriteError, got %v", err)
	}
}
