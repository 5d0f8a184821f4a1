// Package history stores historical flight records and answers the
// "typical duration for this route" question used to prefill a search.
package history

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/yash/flightprice/internal/features"
	"github.com/yash/flightprice/internal/metrics"
)

// DefaultDurationMins is suggested when no record matches a route.
const DefaultDurationMins = 130

const schemaSQL = `
CREATE TABLE IF NOT EXISTS flights (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	airline          TEXT NOT NULL DEFAULT '',
	flight           TEXT NOT NULL DEFAULT '',
	source_city      TEXT NOT NULL,
	departure_time   TEXT NOT NULL DEFAULT '',
	stops            TEXT NOT NULL,
	arrival_time     TEXT NOT NULL DEFAULT '',
	destination_city TEXT NOT NULL,
	class            TEXT NOT NULL DEFAULT '',
	duration         REAL NOT NULL,
	days_left        INTEGER NOT NULL DEFAULT 0,
	price            REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_flights_route ON flights (source_city, destination_city, stops);
`

// Record is one historical flight. Duration is in hours, as in the dataset.
type Record struct {
	Airline         string
	Flight          string
	SourceCity      string
	DepartureTime   string
	Stops           string
	ArrivalTime     string
	DestinationCity string
	Class           string
	Duration        float64
	DaysLeft        int
	Price           float64
}

// Suggestion is a suggested duration for a route.
type Suggestion struct {
	DurationMins int
	Samples      int
	Fallback     bool
}

// Store is a sqlite-backed record store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a store. Use ":memory:" for a throwaway store.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create history schema: %w", err)
	}

	s := &Store{db: db}
	if n, err := s.Count(ctx); err == nil {
		metrics.HistoryRecords.Set(float64(n))
	}
	return s, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM flights`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

const insertSQL = `INSERT INTO flights
	(airline, flight, source_city, departure_time, stops, arrival_time,
	 destination_city, class, duration, days_left, price)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Insert stores records in one transaction.
func (s *Store) Insert(ctx context.Context, records []Record) error {
	return s.inTx(ctx, func(stmt *sql.Stmt) error {
		for _, r := range records {
			if err := insertRecord(ctx, stmt, r); err != nil {
				return err
			}
		}
		return nil
	})
}

// inTx runs fn with a prepared insert statement inside one transaction.
// Any error rolls back every row fn inserted.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Stmt) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	if err := fn(stmt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	if n, err := s.Count(ctx); err == nil {
		metrics.HistoryRecords.Set(float64(n))
	}
	return nil
}

func insertRecord(ctx context.Context, stmt *sql.Stmt, r Record) error {
	if _, err := stmt.ExecContext(ctx, r.Airline, r.Flight, r.SourceCity, r.DepartureTime,
		r.Stops, r.ArrivalTime, r.DestinationCity, r.Class, r.Duration, r.DaysLeft, r.Price); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// CSV import
// ---------------------------------------------------------------------------

// ImportCSV loads a dataset with a header row. Header names are trimmed; an
// unnamed leading index column and unknown columns are ignored. The
// source_city, destination_city, stops and duration columns are required.
// The import is atomic: on any error no row of the file is stored.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h != "" {
			col[h] = i
		}
	}
	for _, req := range []string{"source_city", "destination_city", "stops", "duration"} {
		if _, ok := col[req]; !ok {
			return 0, fmt.Errorf("csv missing column %q", req)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	total := 0
	err = s.inTx(ctx, func(stmt *sql.Stmt) error {
		line := 1
		for {
			row, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			line++
			if err != nil {
				return fmt.Errorf("csv line %d: %w", line, err)
			}

			rec := Record{
				Airline:         field(row, "airline"),
				Flight:          field(row, "flight"),
				SourceCity:      field(row, "source_city"),
				DepartureTime:   field(row, "departure_time"),
				Stops:           field(row, "stops"),
				ArrivalTime:     field(row, "arrival_time"),
				DestinationCity: field(row, "destination_city"),
				Class:           field(row, "class"),
			}
			if rec.Duration, err = strconv.ParseFloat(field(row, "duration"), 64); err != nil {
				return fmt.Errorf("csv line %d: duration: %w", line, err)
			}
			if v := field(row, "days_left"); v != "" {
				if rec.DaysLeft, err = strconv.Atoi(v); err != nil {
					return fmt.Errorf("csv line %d: days_left: %w", line, err)
				}
			}
			if v := field(row, "price"); v != "" {
				if rec.Price, err = strconv.ParseFloat(v, 64); err != nil {
					return fmt.Errorf("csv line %d: price: %w", line, err)
				}
			}

			if err := insertRecord(ctx, stmt, rec); err != nil {
				return fmt.Errorf("csv line %d: %w", line, err)
			}
			total++
		}
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ---------------------------------------------------------------------------
// Duration suggestion
// ---------------------------------------------------------------------------

// StopLabel maps a stop count to the dataset's stop label.
func StopLabel(stops int) string {
	switch stops {
	case 0:
		return "zero"
	case 1:
		return "one"
	default:
		return "two_or_more"
	}
}

// SuggestDuration returns the median recorded duration, in whole minutes,
// for the route and stop count, or DefaultDurationMins when nothing matches.
func (s *Store) SuggestDuration(ctx context.Context, src, dst features.City, stops int) (Suggestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT duration FROM flights WHERE source_city = ? AND destination_city = ? AND stops = ?`,
		src.String(), dst.String(), StopLabel(stops))
	if err != nil {
		return Suggestion{}, fmt.Errorf("query durations: %w", err)
	}
	defer rows.Close()

	var durations []float64
	for rows.Next() {
		var d float64
		if err := rows.Scan(&d); err != nil {
			return Suggestion{}, fmt.Errorf("scan duration: %w", err)
		}
		durations = append(durations, d)
	}
	if err := rows.Err(); err != nil {
		return Suggestion{}, fmt.Errorf("read durations: %w", err)
	}

	metrics.DurationSuggestions.Inc()
	if len(durations) == 0 {
		metrics.DurationFallbacks.Inc()
		return Suggestion{DurationMins: DefaultDurationMins, Fallback: true}, nil
	}
	return Suggestion{
		DurationMins: int(median(durations) * 60),
		Samples:      len(durations),
	}, nil
}

// median sorts in place and averages the two middle values for even counts.
func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}
