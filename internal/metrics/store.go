package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// timestampLayout keeps stored timestamps sortable and readable by SQLite's date().
const timestampLayout = "2006-01-02 15:04:05"

// CallMetric records the outcome of a single backend call.
type CallMetric struct {
	Endpoint   string
	StatusCode int // 0 when the request never got a response
	Success    bool
	LatencyMS  int64
	Timestamp  time.Time
}

// Store handles persistence of call metrics to SQLite.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record saves a metric to the database.
func (s *Store) Record(m CallMetric) error {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	success := 0
	if m.Success {
		success = 1
	}

	_, err := s.db.ExecContext(context.Background(),
		`INSERT INTO api_calls (endpoint, status_code, success, latency_ms, timestamp) VALUES (?, ?, ?, ?, ?)`,
		m.Endpoint, m.StatusCode, success, m.LatencyMS, ts.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert call metric: %w", err)
	}
	return nil
}

// DailyUsage represents call totals for a single day.
type DailyUsage struct {
	Date         string
	Calls        int
	Failures     int
	AvgLatencyMS int64
}

// GetDailyUsage retrieves usage for the last N days, newest first.
func (s *Store) GetDailyUsage(days int) ([]DailyUsage, error) {
	since := time.Now().AddDate(0, 0, -days).UTC().Format(timestampLayout)
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT date(timestamp) AS day,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(latency_ms), 0)
		FROM api_calls
		WHERE timestamp >= ?
		GROUP BY day
		ORDER BY day DESC`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily usage: %w", err)
	}
	defer rows.Close()

	var results []DailyUsage
	for rows.Next() {
		var (
			u   DailyUsage
			day sql.NullString
			avg float64
		)
		if err := rows.Scan(&day, &u.Calls, &u.Failures, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan daily usage: %w", err)
		}
		u.Date = "Unknown"
		if day.Valid {
			u.Date = day.String
		}
		u.AvgLatencyMS = int64(avg)
		results = append(results, u)
	}
	return results, rows.Err()
}

// EndpointUsage summarizes calls per endpoint.
type EndpointUsage struct {
	Endpoint     string
	Calls        int
	Failures     int
	AvgLatencyMS int64
}

// GetEndpointUsage retrieves per-endpoint totals for the last N days.
func (s *Store) GetEndpointUsage(days int) ([]EndpointUsage, error) {
	since := time.Now().AddDate(0, 0, -days).UTC().Format(timestampLayout)
	rows, err := s.db.QueryContext(context.Background(), `
		SELECT endpoint,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END), 0),
		       COALESCE(AVG(latency_ms), 0)
		FROM api_calls
		WHERE timestamp >= ?
		GROUP BY endpoint
		ORDER BY endpoint`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query endpoint usage: %w", err)
	}
	defer rows.Close()

	var results []EndpointUsage
	for rows.Next() {
		var (
			u   EndpointUsage
			avg float64
		)
		if err := rows.Scan(&u.Endpoint, &u.Calls, &u.Failures, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan endpoint usage: %w", err)
		}
		u.AvgLatencyMS = int64(avg)
		results = append(results, u)
	}
	return results, rows.Err()
}

// Cleanup removes records older than the specified number of days and
// returns how many were deleted.
func (s *Store) Cleanup(olderThanDays int) (int64, error) {
	threshold := time.Now().AddDate(0, 0, -olderThanDays).UTC().Format(timestampLayout)
	res, err := s.db.ExecContext(context.Background(), `DELETE FROM api_calls WHERE timestamp < ?`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up call metrics: %w", err)
	}
	return res.RowsAffected()
}
