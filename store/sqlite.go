package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

const defaultSQLitePath = "arbscan.db"

// SQLiteSink appends rows to the route_results table
type SQLiteSink struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteSink opens or creates the database at path
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	if path == "" {
		path = defaultSQLitePath
	}

	dsn := path
	if !strings.HasPrefix(path, "file:") {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// single writer connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	sink := &SQLiteSink{db: db}
	if err := sink.init(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return sink, nil
}

func (s *SQLiteSink) init() error {
	const createTable = `
CREATE TABLE IF NOT EXISTS route_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	route TEXT NOT NULL,
	trade_size TEXT NOT NULL,
	legs TEXT NOT NULL,
	input TEXT NOT NULL,
	output TEXT NOT NULL,
	raw_profit TEXT NOT NULL,
	bps TEXT NOT NULL,
	gas_cost TEXT NOT NULL,
	flash_fee TEXT NOT NULL,
	net_profit TEXT NOT NULL,
	note TEXT NOT NULL
);`

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(createTable)
	return err
}

// WriteRow inserts one row
func (s *SQLiteSink) WriteRow(ctx context.Context, row Row) error {
	const insertStmt = `
INSERT INTO route_results (timestamp, route, trade_size, legs, input, output, raw_profit, bps, gas_cost, flash_fee, net_profit, note)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, insertStmt,
		row.Timestamp, row.Route, row.TradeSize, row.Legs, row.Input, row.Output,
		row.RawProfit, row.Bps, row.GasCost, row.FlashFee, row.NetProfit, row.Note)
	if err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

// Rows returns every stored row in insertion order
func (s *SQLiteSink) Rows(ctx context.Context) ([]Row, error) {
	const selectStmt = `
SELECT timestamp, route, trade_size, legs, input, output, raw_profit, bps, gas_cost, flash_fee, net_profit, note
FROM route_results
ORDER BY id;
`

	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, selectStmt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Timestamp, &r.Route, &r.TradeSize, &r.Legs, &r.Input, &r.Output,
			&r.RawProfit, &r.Bps, &r.GasCost, &r.FlashFee, &r.NetProfit, &r.Note); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the database
func (s *SQLiteSink) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
