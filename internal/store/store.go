// Package store persists visitor metrics and contact submissions in SQLite.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Submission statuses.
const (
	StatusSent    = "sent"
	StatusFailed  = "failed"
	StatusInvalid = "invalid"
)

// Visit is one tracked page view. IPs are stored hashed only.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	At        time.Time `json:"timestamp"`
}

// Submission is one contact form attempt. Message bodies are not stored.
type Submission struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	SentVia   string    `json:"sent_via"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Stats summarises the admin dashboard numbers.
type Stats struct {
	TotalVisitors     int64        `json:"total_visitors"`
	UniqueVisitors    int64        `json:"unique_visitors"`
	VisitorsToday     int64        `json:"visitors_today"`
	VisitorsThisWeek  int64        `json:"visitors_this_week"`
	TotalSubmissions  int64        `json:"total_submissions"`
	FailedSubmissions int64        `json:"failed_submissions"`
	TopPaths          []PathCount  `json:"top_paths"`
	RecentVisitors    []Visit      `json:"recent_visitors"`
	RecentSubmissions []Submission `json:"recent_submissions"`
}

// PathCount is a page and its view count.
type PathCount struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" opens a private in-memory database.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordVisit inserts one page view.
func (s *Store) RecordVisit(ctx context.Context, v Visit) error {
	if v.At.IsZero() {
		v.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, visited_at) VALUES (?, ?, ?, ?)`,
		v.HashedIP, v.UserAgent, v.Path, toMillis(v.At))
	if err != nil {
		return fmt.Errorf("record visit: %w", err)
	}
	return nil
}

// PurgeVisitsBefore deletes visits older than cutoff and returns the count.
func (s *Store) PurgeVisitsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE visited_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("purge visits: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// RecordSubmission logs one contact attempt.
func (s *Store) RecordSubmission(ctx context.Context, sub Submission) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO contact_submissions (id, name, email, subject, sent_via, status, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.Name, sub.Email, sub.Subject, sub.SentVia, sub.Status, sub.Error, toMillis(sub.CreatedAt))
	if err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// RecentVisitors returns the latest visits, newest first.
func (s *Store) RecentVisitors(ctx context.Context, limit int) ([]Visit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, hashed_ip, user_agent, path, visited_at
		 FROM visitors ORDER BY visited_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query visitors: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var at int64
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &at); err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		v.At = fromMillis(at)
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// RecentSubmissions returns the latest contact attempts, newest first.
func (s *Store) RecentSubmissions(ctx context.Context, limit int) ([]Submission, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, subject, sent_via, status, error, created_at
		 FROM contact_submissions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var subs []Submission
	for rows.Next() {
		var sub Submission
		var at int64
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Email, &sub.Subject, &sub.SentVia, &sub.Status, &sub.Error, &at); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		sub.CreatedAt = fromMillis(at)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Stats gathers dashboard numbers relative to now.
func (s *Store) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}
	now = now.UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.Add(-7 * 24 * time.Hour)

	counts := []struct {
		query string
		args  []any
		dst   *int64
	}{
		{`SELECT COUNT(*) FROM visitors`, nil, &stats.TotalVisitors},
		{`SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil, &stats.UniqueVisitors},
		{`SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{toMillis(dayStart)}, &stats.VisitorsToday},
		{`SELECT COUNT(*) FROM visitors WHERE visited_at >= ?`, []any{toMillis(weekAgo)}, &stats.VisitorsThisWeek},
		{`SELECT COUNT(*) FROM contact_submissions`, nil, &stats.TotalSubmissions},
		{`SELECT COUNT(*) FROM contact_submissions WHERE status = ?`, []any{StatusFailed}, &stats.FailedSubmissions},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, COUNT(*) AS views FROM visitors
		 GROUP BY path ORDER BY views DESC, path ASC LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("stats: top paths: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var pc PathCount
		if err := rows.Scan(&pc.Path, &pc.Views); err != nil {
			return nil, fmt.Errorf("stats: scan path: %w", err)
		}
		stats.TopPaths = append(stats.TopPaths, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.RecentVisitors, err = s.RecentVisitors(ctx, 50); err != nil {
		return nil, err
	}
	if stats.RecentSubmissions, err = s.RecentSubmissions(ctx, 20); err != nil {
		return nil, err
	}
	return stats, nil
}
