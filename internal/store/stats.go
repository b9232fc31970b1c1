package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type ReasonCount struct {
	DismissReason string `json:"dismiss_reason"`
	Count         int    `json:"count"`
}

type MonthCount struct {
	Month   string `json:"month"`
	Total   int    `json:"total"`
	Applied int    `json:"applied"`
}

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

type RemoteCount struct {
	IsRemote bool `json:"is_remote"`
	Count    int  `json:"count"`
}

type Activity struct {
	ReviewedThisWeek int     `json:"reviewedThisWeek"`
	AppliedThisWeek  int     `json:"appliedThisWeek"`
	LastAppliedAt    *string `json:"lastAppliedAt"`
}

type Stats struct {
	StatusBreakdown  []StatusCount  `json:"statusBreakdown"`
	DismissBreakdown []ReasonCount  `json:"dismissBreakdown"`
	Timeline         []MonthCount   `json:"timeline"`
	Keywords         []KeywordCount `json:"keywords"`
	Activity         Activity       `json:"activity"`
	RemoteBreakdown  []RemoteCount  `json:"remoteBreakdown"`
}

// LoadStats aggregates triage progress. techKeywords are counted by content
// match and the topN most frequent non-zero ones are kept.
func LoadStats(ctx context.Context, db *sql.DB, techKeywords []string, topN int) (Stats, error) {
	s := Stats{
		StatusBreakdown:  []StatusCount{},
		DismissBreakdown: []ReasonCount{},
		Timeline:         []MonthCount{},
		Keywords:         []KeywordCount{},
		RemoteBreakdown:  []RemoteCount{},
	}

	if err := collect(ctx, db, `SELECT status, COUNT(*) AS n FROM posts GROUP BY status ORDER BY n DESC, status`,
		func(r *sql.Rows) error {
			var c StatusCount
			if err := r.Scan(&c.Status, &c.Count); err != nil {
				return err
			}
			s.StatusBreakdown = append(s.StatusBreakdown, c)
			return nil
		}); err != nil {
		return Stats{}, fmt.Errorf("status breakdown: %w", err)
	}

	if err := collect(ctx, db, `
SELECT dismiss_reason, COUNT(*) AS n FROM posts
WHERE status = 'dismissed' AND dismiss_reason IS NOT NULL
GROUP BY dismiss_reason ORDER BY n DESC, dismiss_reason`,
		func(r *sql.Rows) error {
			var c ReasonCount
			if err := r.Scan(&c.DismissReason, &c.Count); err != nil {
				return err
			}
			s.DismissBreakdown = append(s.DismissBreakdown, c)
			return nil
		}); err != nil {
		return Stats{}, fmt.Errorf("dismiss breakdown: %w", err)
	}

	if err := collect(ctx, db, `
SELECT t.month, COUNT(p.id),
       SUM(CASE WHEN p.status IN ('applied', 'in_progress') THEN 1 ELSE 0 END)
FROM posts p
JOIN threads t ON t.id = p.thread_id
GROUP BY t.month
ORDER BY t.month`,
		func(r *sql.Rows) error {
			var c MonthCount
			if err := r.Scan(&c.Month, &c.Total, &c.Applied); err != nil {
				return err
			}
			s.Timeline = append(s.Timeline, c)
			return nil
		}); err != nil {
		return Stats{}, fmt.Errorf("timeline: %w", err)
	}

	weekAgo := timestamp(timeNow().Add(-7 * 24 * time.Hour))
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE status != 'new' AND updated_at >= ?`, weekAgo,
	).Scan(&s.Activity.ReviewedThisWeek); err != nil {
		return Stats{}, fmt.Errorf("weekly reviewed: %w", err)
	}
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE status IN ('applied', 'in_progress') AND applied_at >= ?`, weekAgo,
	).Scan(&s.Activity.AppliedThisWeek); err != nil {
		return Stats{}, fmt.Errorf("weekly applied: %w", err)
	}
	if err := db.QueryRowContext(ctx,
		`SELECT MAX(applied_at) FROM posts WHERE applied_at IS NOT NULL`,
	).Scan(&s.Activity.LastAppliedAt); err != nil {
		return Stats{}, fmt.Errorf("last applied: %w", err)
	}

	if err := collect(ctx, db, `SELECT is_remote, COUNT(*) FROM posts WHERE status != 'new' GROUP BY is_remote ORDER BY is_remote`,
		func(r *sql.Rows) error {
			var c RemoteCount
			var remote int
			if err := r.Scan(&remote, &c.Count); err != nil {
				return err
			}
			c.IsRemote = remote != 0
			s.RemoteBreakdown = append(s.RemoteBreakdown, c)
			return nil
		}); err != nil {
		return Stats{}, fmt.Errorf("remote breakdown: %w", err)
	}

	for _, kw := range techKeywords {
		var n int
		if err := db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM posts WHERE content LIKE ? ESCAPE '\'`, likeArg(kw),
		).Scan(&n); err != nil {
			return Stats{}, fmt.Errorf("keyword %q: %w", kw, err)
		}
		if n > 0 {
			s.Keywords = append(s.Keywords, KeywordCount{Keyword: kw, Count: n})
		}
	}
	sort.SliceStable(s.Keywords, func(i, j int) bool { return s.Keywords[i].Count > s.Keywords[j].Count })
	if topN > 0 && len(s.Keywords) > topN {
		s.Keywords = s.Keywords[:topN]
	}

	return s, nil
}

func collect(ctx context.Context, db *sql.DB, query string, each func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := each(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
