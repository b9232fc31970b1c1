package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helrabelo/job-search/internal/domain"
)

type Post struct {
	ID            int64   `json:"id"`
	ThreadID      int64   `json:"thread_id"`
	Author        *string `json:"author"`
	Content       string  `json:"content"`
	Company       *string `json:"company"`
	IsRemote      bool    `json:"is_remote"`
	PostedAt      string  `json:"posted_at"`
	Status        string  `json:"status"`
	Notes         *string `json:"notes"`
	AppliedAt     *string `json:"applied_at"`
	DismissReason *string `json:"dismiss_reason"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
	Month         string  `json:"month"`
	ThreadTitle   string  `json:"thread_title"`
}

type PostFilter struct {
	Status   string // "" or "all" means any
	Remote   bool
	ThreadID int64
	Search   string
	Keywords []string // any of them in content
	Page     int
	Limit    int
}

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

func (f *PostFilter) normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
}

const postColumns = `
p.id, p.thread_id, p.author, p.content, p.company, p.is_remote, p.posted_at,
p.status, p.notes, p.applied_at, p.dismiss_reason, p.created_at, p.updated_at,
t.month, t.title`

func scanPost(sc interface{ Scan(...any) error }) (Post, error) {
	var p Post
	var remote int
	err := sc.Scan(
		&p.ID, &p.ThreadID, &p.Author, &p.Content, &p.Company, &remote, &p.PostedAt,
		&p.Status, &p.Notes, &p.AppliedAt, &p.DismissReason, &p.CreatedAt, &p.UpdatedAt,
		&p.Month, &p.ThreadTitle,
	)
	p.IsRemote = remote != 0
	return p, err
}

// likeArg escapes LIKE wildcards so user input matches literally.
func likeArg(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// ListPosts returns one page of posts and the total number matching f.
func ListPosts(ctx context.Context, db *sql.DB, f PostFilter) ([]Post, int, error) {
	f.normalize()

	var conds []string
	var args []any

	if f.Status != "" && f.Status != "all" {
		conds = append(conds, "p.status = ?")
		args = append(args, f.Status)
	}
	if f.Remote {
		conds = append(conds, "p.is_remote = 1")
	}
	if f.ThreadID != 0 {
		conds = append(conds, "p.thread_id = ?")
		args = append(args, f.ThreadID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		conds = append(conds, `(p.content LIKE ? ESCAPE '\' OR p.company LIKE ? ESCAPE '\')`)
		args = append(args, likeArg(s), likeArg(s))
	}
	if len(f.Keywords) > 0 {
		kw := make([]string, len(f.Keywords))
		for i, k := range f.Keywords {
			kw[i] = `p.content LIKE ? ESCAPE '\'`
			args = append(args, likeArg(k))
		}
		conds = append(conds, "("+strings.Join(kw, " OR ")+")")
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	order := statusOrder() + ", p.posted_at DESC"
	if f.Status == string(domain.StatusApplied) {
		order = "p.applied_at DESC, p.posted_at DESC"
	}

	query := fmt.Sprintf(`
SELECT %s
FROM posts p
JOIN threads t ON t.id = p.thread_id
%s
ORDER BY %s, p.id DESC
LIMIT ? OFFSET ?;`, postColumns, where, order)

	rows, err := db.QueryContext(ctx, query, append(args, f.Limit, (f.Page-1)*f.Limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	out := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func statusOrder() string {
	var b strings.Builder
	b.WriteString("CASE p.status")
	for i, st := range domain.Statuses {
		fmt.Fprintf(&b, " WHEN '%s' THEN %d", st, i)
	}
	fmt.Fprintf(&b, " ELSE %d END", len(domain.Statuses))
	return b.String()
}

func GetPost(ctx context.Context, db *sql.DB, id int64) (Post, error) {
	row := db.QueryRowContext(ctx, `SELECT `+postColumns+`
FROM posts p
JOIN threads t ON t.id = p.thread_id
WHERE p.id = ?`, id)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	return p, err
}

// PostUpdate holds the triage fields to change; nil fields are kept.
// The Clear flags set the column to NULL and win over a value.
type PostUpdate struct {
	Status         *domain.PostStatus
	Notes          *string
	AppliedAt      *time.Time
	ClearNotes     bool
	ClearAppliedAt bool
}

// UpdatePost applies u to one post and returns the result. updated_at is
// always bumped.
func UpdatePost(ctx context.Context, db *sql.DB, id int64, u PostUpdate) (Post, error) {
	sets := []string{"updated_at = ?"}
	args := []any{timestamp(timeNow())}

	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	switch {
	case u.ClearNotes:
		sets = append(sets, "notes = NULL")
	case u.Notes != nil:
		sets = append(sets, "notes = ?")
		args = append(args, *u.Notes)
	}
	switch {
	case u.ClearAppliedAt:
		sets = append(sets, "applied_at = NULL")
	case u.AppliedAt != nil:
		sets = append(sets, "applied_at = ?")
		args = append(args, timestamp(*u.AppliedAt))
	}
	args = append(args, id)

	res, err := db.ExecContext(ctx, `UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return Post{}, fmt.Errorf("update post %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Post{}, ErrNotFound
	}
	return GetPost(ctx, db, id)
}

type BulkUpdate struct {
	IDs           []int64
	Status        *domain.PostStatus
	DismissReason *string
}

// BulkUpdatePosts applies the same change to many posts and returns how
// many rows changed.
func BulkUpdatePosts(ctx context.Context, db *sql.DB, u BulkUpdate) (int, error) {
	if len(u.IDs) == 0 {
		return 0, nil
	}

	sets := []string{"updated_at = ?"}
	args := []any{timestamp(timeNow())}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	if u.DismissReason != nil {
		sets = append(sets, "dismiss_reason = ?")
		args = append(args, *u.DismissReason)
	}

	ph := make([]string, len(u.IDs))
	for i, id := range u.IDs {
		ph[i] = "?"
		args = append(args, id)
	}

	res, err := db.ExecContext(ctx,
		`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id IN (`+strings.Join(ph, ", ")+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("bulk update: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

type ThreadSummary struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Month     string `json:"month"`
	PostedAt  string `json:"posted_at"`
	FetchedAt string `json:"fetched_at"`
	PostCount int    `json:"post_count"`
}

// ListThreads returns every thread with its posting count, newest first.
func ListThreads(ctx context.Context, db *sql.DB) ([]ThreadSummary, error) {
	rows, err := db.QueryContext(ctx, `
SELECT t.id, t.title, t.month, t.posted_at, t.fetched_at, COUNT(p.id)
FROM threads t
LEFT JOIN posts p ON p.thread_id = t.id
GROUP BY t.id
ORDER BY t.posted_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ThreadSummary{}
	for rows.Next() {
		var t ThreadSummary
		if err := rows.Scan(&t.ID, &t.Title, &t.Month, &t.PostedAt, &t.FetchedAt, &t.PostCount); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
