package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/cwkeyer/internal/model"
	"github.com/verte-zerg/cwkeyer/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "cwkeyer.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		id, err := st.StartSession(ctx, start, 20+i)
		if err != nil {
			t.Fatalf("start session: %v", err)
		}
		if err := st.FinishSession(ctx, id, start.Add(30*time.Second), 20+i, "CQ DE K1ABC"); err != nil {
			t.Fatalf("finish session: %v", err)
		}
		ids = append(ids, id)
	}
	if err := st.RecordCommit(ctx, time.Unix(100, 0), []byte(`{"wpm":22}`)); err != nil {
		t.Fatalf("record commit: %v", err)
	}

	report, err := BuildReport(ctx, st, model.JournalFilter{Last: 2}, 5)
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].ID != ids[1] || report.Sessions[1].ID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	if len(report.Chars) == 0 || report.Chars[0].Char != "C" {
		t.Fatalf("expected C to lead the char counts, got %+v", report.Chars)
	}
	if len(report.Commits) != 1 {
		t.Fatalf("expected 1 commit, got %d", len(report.Commits))
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, 3, 5); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Sessions: 2", "Trend", "Characters", "Settings commits", `{"wpm":22}`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}
