package stats

import (
	"context"
	"io"

	"github.com/verte-zerg/cwkeyer/internal/model"
	"github.com/verte-zerg/cwkeyer/internal/store"
)

// Report contains precomputed data for journal rendering.
type Report struct {
	Sessions []model.SessionRecord
	Chars    []model.CharCount
	Commits  []model.CommitRecord
}

// BuildReport loads sessions, their character counts and recent commits.
func BuildReport(ctx context.Context, st *store.Store, filter model.JournalFilter, commits int) (Report, error) {
	sessions, err := st.ListSessions(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	chars, err := st.ListCharCounts(ctx, sessionIDs(sessions))
	if err != nil {
		return Report{}, err
	}
	var recent []model.CommitRecord
	if commits > 0 {
		recent, err = st.ListCommits(ctx, commits)
		if err != nil {
			return Report{}, err
		}
	}
	return Report{Sessions: sessions, Chars: chars, Commits: recent}, nil
}

// Render writes every section of the report.
func (r Report) Render(w io.Writer, window, topChars int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderSessionTable(w, r.Sessions); err != nil {
		return err
	}
	if err := RenderTrend(w, r.Sessions, window); err != nil {
		return err
	}
	if len(r.Sessions) > 0 {
		if err := RenderCharTable(w, r.Chars, topChars); err != nil {
			return err
		}
	}
	return RenderCommits(w, r.Commits)
}

// commitDocWidth keeps a settings document on one terminal line.
const commitDocWidth = 96

// RenderCommits lists settings commits, newest first.
func RenderCommits(w io.Writer, commits []model.CommitRecord) error {
	if len(commits) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(commits))
	for _, c := range commits {
		rows = append(rows, []string{c.CommittedAt.Local().Format("2006-01-02 15:04:05"), c.Document})
	}
	if _, err := io.WriteString(w, "Settings commits\n"); err != nil {
		return err
	}
	for _, line := range formatTable([]column{{title: "Committed"}, {title: "Document", max: commitDocWidth}}, rows) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}
	return nil
}

func sessionIDs(sessions []model.SessionRecord) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.ID
	}
	return ids
}
