package signalfeed

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// DuckDBSource reads a signal file from disk through DuckDB.
// Parquet and CSV files are supported; every column is read back as text.
type DuckDBSource struct {
	path   string
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewDuckDBSource creates a source for a .csv or .parquet file.
func NewDuckDBSource(path string, log *logger.Logger) (*DuckDBSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".parquet":
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported signal file type %q: expected .csv or .parquet", filepath.Ext(path))
	}

	return &DuckDBSource{
		path:   path,
		logger: log,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// tableFunction returns the DuckDB table function reading the file.
func (s *DuckDBSource) tableFunction() string {
	quoted := strings.ReplaceAll(s.path, "'", "''")

	if strings.EqualFold(filepath.Ext(s.path), ".parquet") {
		return fmt.Sprintf("read_parquet('%s')", quoted)
	}

	return fmt.Sprintf("read_csv('%s', header = true, all_varchar = true)", quoted)
}

// Rows implements Source.
func (s *DuckDBSource) Rows(ctx context.Context) ([]RawRow, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalSourceFailed, "failed to open DuckDB", err)
	}
	defer db.Close()

	// timestamptz values are rendered with a +00 offset
	if _, err := db.ExecContext(ctx, "SET TimeZone = 'UTC'"); err != nil {
		s.logger.Debug("Failed to pin DuckDB time zone", zap.Error(err))
	}

	columns, err := s.columns(ctx, db)
	if err != nil {
		return nil, err
	}

	if err := requireColumns(columns); err != nil {
		return nil, err
	}

	query, args, err := s.sq.
		Select(
			fmt.Sprintf(`CAST("%s" AS VARCHAR)`, ColumnTimestamp),
			fmt.Sprintf(`CAST("%s" AS VARCHAR)`, ColumnSignal),
		).
		From(s.tableFunction()).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build signal query", err)
	}

	s.logger.Debug("Reading signal file", zap.String("path", s.path), zap.String("query", query))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query signal file", err)
	}
	defer rows.Close()

	var result []RawRow

	for rows.Next() {
		var timestamp, signal sql.NullString
		if err := rows.Scan(&timestamp, &signal); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan signal row", err)
		}

		result = append(result, RawRow{Timestamp: timestamp.String, Signal: signal.String})
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read signal rows", err)
	}

	return result, nil
}

func (s *DuckDBSource) columns(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+s.tableFunction()+" LIMIT 0")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalSourceFailed, "failed to open signal file", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSignalSourceFailed, "failed to read signal file columns", err)
	}

	return columns, nil
}
