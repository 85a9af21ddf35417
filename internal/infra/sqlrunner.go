package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SQLExecutor is what repositories and the credential store need to run
// marker-tagged SQL.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// DefaultSlowQuery is the duration above which a statement is logged at Warn.
const DefaultSlowQuery = 500 * time.Millisecond

var markerRegexp = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var (
	errEmptyQuery    = errors.New("empty query")
	errMissingMarker = errors.New("sql marker missing or invalid")
)

// SQLRunner strips the --sql marker from each statement, runs it on the
// pool and logs it under that marker. An empty result is not logged as an
// error because the worker polls an often empty queue.
type SQLRunner struct {
	db        SQLExecutor
	logger    zerolog.Logger
	slowQuery time.Duration
	now       func() time.Time
}

func NewSQLRunner(pool *pgxpool.Pool, logger zerolog.Logger) *SQLRunner {
	return newSQLRunner(pool, logger)
}

func newSQLRunner(db SQLExecutor, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{db: db, logger: logger, slowQuery: DefaultSlowQuery, now: time.Now}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := r.now()
	tag, err := r.db.Exec(ctx, trimmed, args...)
	r.finish(marker, "exec", start, err).Int64("rows", tag.RowsAffected()).Msg("sql exec")
	return tag, err
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return errorRow{err: err}
	}
	return loggingRow{row: r.db.QueryRow(ctx, trimmed, args...), runner: r, marker: marker, start: r.now()}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return nil, err
	}
	start := r.now()
	rows, err := r.db.Query(ctx, trimmed, args...)
	if err != nil {
		r.finish(marker, "query", start, err).Msg("sql query")
		return nil, err
	}
	return &loggingRows{Rows: rows, runner: r, marker: marker, start: start}, nil
}

// finish picks the level for a completed statement: Error for failures,
// Warn when slow, Debug otherwise.
func (r *SQLRunner) finish(marker, op string, start time.Time, err error) *zerolog.Event {
	elapsed := r.now().Sub(start)
	var evt *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, pgx.ErrNoRows):
		evt = r.logger.Error().Err(err)
	case elapsed >= r.slowQuery:
		evt = r.logger.Warn().Bool("slow", true)
	default:
		evt = r.logger.Debug()
	}
	return evt.Str("sql", marker).Str("op", op).Dur("elapsed", elapsed).Bool("no_rows", errors.Is(err, pgx.ErrNoRows))
}

type loggingRow struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

func (l loggingRow) Scan(dest ...any) error {
	err := l.row.Scan(dest...)
	l.runner.finish(l.marker, "query_row", l.start, err).Msg("sql query_row")
	return err
}

type loggingRows struct {
	pgx.Rows
	runner *SQLRunner
	marker string
	start  time.Time
	count  int
}

func (l *loggingRows) Next() bool {
	ok := l.Rows.Next()
	if ok {
		l.count++
	}
	return ok
}

func (l *loggingRows) Close() {
	l.Rows.Close()
	l.runner.finish(l.marker, "query", l.start, l.Rows.Err()).Int("rows", l.count).Msg("sql query")
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(dest ...any) error {
	return e.err
}

// extractMarker splits a statement into its marker uuid and the SQL body.
func extractMarker(query string) (string, string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", "", errEmptyQuery
	}
	markerLine, body, _ := strings.Cut(trimmed, "\n")
	markerLine = strings.TrimSpace(markerLine)
	if !markerRegexp.MatchString(markerLine) {
		return "", "", errMissingMarker
	}
	return strings.TrimPrefix(markerLine, "--sql "), body, nil
}

var _ SQLExecutor = (*SQLRunner)(nil)
