package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

type Keyword struct {
	ID        int64  `json:"id"`
	Keyword   string `json:"keyword"`
	CreatedAt string `json:"created_at"`
}

func ListKeywords(ctx context.Context, db *sql.DB) ([]Keyword, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, keyword, created_at FROM profile_keywords ORDER BY keyword`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Keyword{}
	for rows.Next() {
		var k Keyword
		if err := rows.Scan(&k.ID, &k.Keyword, &k.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// KeywordTerms is ListKeywords reduced to the terms.
func KeywordTerms(ctx context.Context, db *sql.DB) ([]string, error) {
	kws, err := ListKeywords(ctx, db)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(kws))
	for i, k := range kws {
		out[i] = k.Keyword
	}
	return out, nil
}

// AddKeyword stores a trimmed keyword. Keywords are unique ignoring case.
func AddKeyword(ctx context.Context, db *sql.DB, keyword string) (Keyword, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return Keyword{}, fmt.Errorf("keyword is empty")
	}

	res, err := db.ExecContext(ctx, `
INSERT INTO profile_keywords (keyword, created_at) VALUES (?, ?)
ON CONFLICT DO NOTHING;`, keyword, timestamp(timeNow()))
	if err != nil {
		return Keyword{}, fmt.Errorf("add keyword: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Keyword{}, ErrDuplicateKeyword
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Keyword{}, err
	}

	var k Keyword
	err = db.QueryRowContext(ctx, `SELECT id, keyword, created_at FROM profile_keywords WHERE id = ?`, id).
		Scan(&k.ID, &k.Keyword, &k.CreatedAt)
	return k, err
}

func DeleteKeyword(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM profile_keywords WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
