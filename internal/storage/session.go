package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"spendview/internal/catalog"
	"spendview/internal/core"
	"spendview/internal/log"
	"spendview/internal/metrics"
)

// Session is one live connection owned by a single render pass.
type Session struct {
	db           *sql.DB
	dialect      catalog.Dialect
	queryTimeout time.Duration
	logger       *log.Logger

	closeOnce sync.Once
	closeErr  error
}

// Run executes one catalog entry and materializes the full result set.
// Column names come from the result metadata, not from the entry.
func (s *Session) Run(ctx context.Context, entry catalog.Entry) (core.ResultTable, error) {
	if s.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.queryTimeout)
		defer cancel()
	}

	start := time.Now()
	table, err := s.run(ctx, entry)
	metrics.QueryDuration(entry.Slug, time.Since(start))
	if err != nil {
		return core.ResultTable{}, &QueryError{Label: entry.Label, Err: err}
	}

	s.logger.DebugContext(ctx, "Query executed",
		log.FieldQueryLabel, entry.Label,
		log.FieldRows, table.Len(),
		log.FieldDuration, time.Since(start).Milliseconds())

	return table, nil
}

func (s *Session) run(ctx context.Context, entry catalog.Entry) (core.ResultTable, error) {
	// SQLite is opened with mode=ro; the server databases get a read-only transaction.
	if s.dialect == catalog.SQLite {
		rows, err := s.db.QueryContext(ctx, entry.SQL)
		if err != nil {
			return core.ResultTable{}, err
		}
		return readTable(rows)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return core.ResultTable{}, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, entry.SQL)
	if err != nil {
		return core.ResultTable{}, err
	}
	return readTable(rows)
}

func readTable(rows *sql.Rows) (core.ResultTable, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return core.ResultTable{}, fmt.Errorf("read columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return core.ResultTable{}, fmt.Errorf("read column types: %w", err)
	}
	dbTypes := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		dbTypes[i] = ct.DatabaseTypeName()
	}

	values := make([]any, len(columns))
	valuePtrs := make([]any, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	table := core.ResultTable{Columns: columns, Rows: []core.Row{}}
	for rows.Next() {
		if err := rows.Scan(valuePtrs...); err != nil {
			return core.ResultTable{}, fmt.Errorf("scan row: %w", err)
		}
		row := make(core.Row, len(values))
		for i, v := range values {
			row[i] = normalize(v, dbTypes[i])
		}
		table.Rows = append(table.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return core.ResultTable{}, fmt.Errorf("read rows: %w", err)
	}

	return table, nil
}

// Close releases the connection. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.db.Close()
	})
	return s.closeErr
}
