// Package storage persists site profiles and crawl sessions to SQLite.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/crawler"
	"github.com/pagelore/pagelore/internal/profile"

	// SQLite database driver (CGO-free)
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements profile.Store and session persistence on a
// single SQLite database file.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath and
// initializes the schema.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection prevents lock conflicts
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	storage := &SQLiteStorage{db: db}

	if err := storage.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

func (s *SQLiteStorage) initSchema() error {
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
		"PRAGMA busy_timeout = 30000", // 30 second timeout for locks
	}

	for _, pragma := range pragmas {
		if _, err := s.db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute pragma %s: %w", pragma, err)
		}
	}

	if _, err := s.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

const profileColumns = `id, domain, pattern, main_content_selector,
	title_selector, comments_selector, extraction_mode, confidence,
	use_count, success_rate, created_at, last_used, notes`

// Insert stores a new profile row. Existing rows for the same domain are
// kept; retrieval resolves the best version.
func (s *SQLiteStorage) Insert(p *profile.SiteProfile) error {
	_, err := s.db.Exec(`
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Domain, nullable(p.Pattern), nullable(p.MainContentSelector),
		nullable(p.TitleSelector), nullable(p.CommentsSelector),
		p.ExtractionMode, p.Confidence, p.UseCount, p.SuccessRate,
		p.CreatedAt, p.LastUsed, nullable(p.Notes))
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetByID returns one profile by its ID.
func (s *SQLiteStorage) GetByID(id string) (*profile.SiteProfile, error) {
	row := s.db.QueryRow(`
		SELECT `+profileColumns+` FROM profiles WHERE id = ?
	`, id)
	return scanProfile(row)
}

// GetByDomain returns the best profile for a domain: highest confidence,
// then most recently used.
func (s *SQLiteStorage) GetByDomain(domain string) (*profile.SiteProfile, error) {
	row := s.db.QueryRow(`
		SELECT `+profileColumns+` FROM profiles
		WHERE domain = ?
		ORDER BY confidence DESC, last_used DESC
		LIMIT 1
	`, domain)
	return scanProfile(row)
}

// GetAll returns every profile ordered by confidence, then recency.
func (s *SQLiteStorage) GetAll() ([]*profile.SiteProfile, error) {
	rows, err := s.db.Query(`
		SELECT ` + profileColumns + ` FROM profiles
		ORDER BY confidence DESC, last_used DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanProfiles(rows)
}

// GetByMode returns the profiles using a given extraction mode.
func (s *SQLiteStorage) GetByMode(mode string) ([]*profile.SiteProfile, error) {
	rows, err := s.db.Query(`
		SELECT `+profileColumns+` FROM profiles
		WHERE extraction_mode = ?
		ORDER BY confidence DESC, last_used DESC
	`, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles by mode: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanProfiles(rows)
}

// UpdateUsage applies one feedback observation to a stored profile.
func (s *SQLiteStorage) UpdateUsage(id string, success bool) error {
	p, err := s.GetByID(id)
	if err != nil {
		return err
	}

	p.ApplyFeedback(success)

	result, err := s.db.Exec(`
		UPDATE profiles
		SET use_count = ?, success_rate = ?, last_used = ?
		WHERE id = ?
	`, p.UseCount, p.SuccessRate, p.LastUsed, id)
	if err != nil {
		return fmt.Errorf("failed to update profile usage: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

// Delete removes one profile, reporting profile.ErrNotFound for an
// unknown ID.
func (s *SQLiteStorage) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return profile.ErrNotFound
	}
	return nil
}

// ClearAll removes every profile.
func (s *SQLiteStorage) ClearAll() error {
	if _, err := s.db.Exec(`DELETE FROM profiles`); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	return nil
}

// Stats aggregates counts and averages over the profile table.
func (s *SQLiteStorage) Stats() (*profile.Stats, error) {
	stats := &profile.Stats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(use_count), 0),
		       COALESCE(AVG(confidence), 0),
		       COALESCE(AVG(success_rate), 0)
		FROM profiles
	`).Scan(&stats.TotalProfiles, &stats.TotalUses, &stats.AvgConfidence, &stats.AvgSuccessRate)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate profile stats: %w", err)
	}
	return stats, nil
}

// SaveSession persists a finished crawl session and its crawl tree.
func (s *SQLiteStorage) SaveSession(result *crawler.DeepScrapeResult) error {
	configJSON, err := json.Marshal(result.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal session config: %w", err)
	}
	pagesJSON, err := json.Marshal(result.PageResults)
	if err != nil {
		return fmt.Errorf("failed to marshal page results: %w", err)
	}
	domainsJSON, err := json.Marshal(result.DomainsVisited)
	if err != nil {
		return fmt.Errorf("failed to marshal domains: %w", err)
	}
	errorsJSON, err := json.Marshal(result.Errors)
	if err != nil {
		return fmt.Errorf("failed to marshal errors: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, start_time, end_time, status,
			total_pages_crawled, total_links_discovered, total_links_filtered,
			config_json, page_results_json, domains_json, errors_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, result.SessionID, result.StartTime, result.EndTime, string(result.Status),
		result.TotalPagesCrawled, result.TotalLinksDiscovered,
		result.TotalLinksFiltered, string(configJSON), string(pagesJSON),
		string(domainsJSON), string(errorsJSON))
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO crawl_nodes (session_id, url, depth, parent, children_json, scraped, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare node insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, node := range result.CrawlTree {
		childrenJSON, err := json.Marshal(node.Children)
		if err != nil {
			return fmt.Errorf("failed to marshal children of %s: %w", node.URL, err)
		}
		if _, err := stmt.Exec(result.SessionID, node.URL, node.Depth,
			nullable(node.Parent), string(childrenJSON), node.Scraped,
			nullable(node.Error)); err != nil {
			return fmt.Errorf("failed to insert crawl node %s: %w", node.URL, err)
		}
	}

	return tx.Commit()
}

// SessionSummary is a listing row for stored sessions.
type SessionSummary struct {
	SessionID            string              `json:"sessionId"`
	StartTime            time.Time           `json:"startTime"`
	EndTime              time.Time           `json:"endTime"`
	Status               crawler.CrawlStatus `json:"status"`
	TotalPagesCrawled    int                 `json:"totalPagesCrawled"`
	TotalLinksDiscovered int                 `json:"totalLinksDiscovered"`
	TotalLinksFiltered   int                 `json:"totalLinksFiltered"`
}

// ErrSessionNotFound is returned when no stored session matches the ID.
var ErrSessionNotFound = errors.New("session not found")

// ListSessions returns summaries of all stored sessions, newest first.
func (s *SQLiteStorage) ListSessions() ([]*SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, start_time, end_time, status,
		       total_pages_crawled, total_links_discovered, total_links_filtered
		FROM sessions
		ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var status string
		if err := rows.Scan(&sum.SessionID, &sum.StartTime, &sum.EndTime,
			&status, &sum.TotalPagesCrawled, &sum.TotalLinksDiscovered,
			&sum.TotalLinksFiltered); err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sum.Status = crawler.CrawlStatus(status)
		out = append(out, &sum)
	}
	return out, rows.Err()
}

// GetSession reconstructs a full crawl session, including its crawl tree.
func (s *SQLiteStorage) GetSession(sessionID string) (*crawler.DeepScrapeResult, error) {
	var result crawler.DeepScrapeResult
	var status, configJSON, pagesJSON, domainsJSON, errorsJSON string

	err := s.db.QueryRow(`
		SELECT id, start_time, end_time, status,
		       total_pages_crawled, total_links_discovered, total_links_filtered,
		       config_json, page_results_json, domains_json, errors_json
		FROM sessions WHERE id = ?
	`, sessionID).Scan(&result.SessionID, &result.StartTime, &result.EndTime,
		&status, &result.TotalPagesCrawled, &result.TotalLinksDiscovered,
		&result.TotalLinksFiltered, &configJSON, &pagesJSON, &domainsJSON,
		&errorsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	result.Status = crawler.CrawlStatus(status)
	result.Config = &config.CrawlConfig{}
	if err := json.Unmarshal([]byte(configJSON), result.Config); err != nil {
		return nil, fmt.Errorf("failed to decode session config: %w", err)
	}
	if err := json.Unmarshal([]byte(pagesJSON), &result.PageResults); err != nil {
		return nil, fmt.Errorf("failed to decode page results: %w", err)
	}
	if err := json.Unmarshal([]byte(domainsJSON), &result.DomainsVisited); err != nil {
		return nil, fmt.Errorf("failed to decode domains: %w", err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &result.Errors); err != nil {
		return nil, fmt.Errorf("failed to decode errors: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT url, depth, parent, children_json, scraped, error
		FROM crawl_nodes WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl nodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var node crawler.CrawlNode
		var parent, nodeErr sql.NullString
		var childrenJSON string
		if err := rows.Scan(&node.URL, &node.Depth, &parent, &childrenJSON,
			&node.Scraped, &nodeErr); err != nil {
			return nil, fmt.Errorf("failed to scan crawl node: %w", err)
		}
		node.Parent = parent.String
		node.Error = nodeErr.String
		if err := json.Unmarshal([]byte(childrenJSON), &node.Children); err != nil {
			return nil, fmt.Errorf("failed to decode node children: %w", err)
		}
		result.CrawlTree = append(result.CrawlTree, node)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &result, nil
}

// DeleteSession removes one session and, via cascade, its crawl nodes.
func (s *SQLiteStorage) DeleteSession(sessionID string) error {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteSessions removes every stored session.
func (s *SQLiteStorage) DeleteSessions() error {
	if _, err := s.db.Exec(`DELETE FROM sessions`); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*profile.SiteProfile, error) {
	var p profile.SiteProfile
	var pattern, mainSel, titleSel, commentsSel, notes sql.NullString

	err := row.Scan(&p.ID, &p.Domain, &pattern, &mainSel, &titleSel,
		&commentsSel, &p.ExtractionMode, &p.Confidence, &p.UseCount,
		&p.SuccessRate, &p.CreatedAt, &p.LastUsed, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}

	p.Pattern = pattern.String
	p.MainContentSelector = mainSel.String
	p.TitleSelector = titleSel.String
	p.CommentsSelector = commentsSel.String
	p.Notes = notes.String
	return &p, nil
}

func scanProfiles(rows *sql.Rows) ([]*profile.SiteProfile, error) {
	var out []*profile.SiteProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
