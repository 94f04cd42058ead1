package history

import (
	"context"
	"database/sql"
	"time"
)

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

type Repository interface {
	CreateExport(ctx context.Context, e *Export) error
	GetExport(ctx context.Context, id string) (*Export, error)
	ListExports(ctx context.Context, limit int) ([]*Export, error)
	FinishExport(ctx context.Context, id, status, outputPath, errorMsg string, finishedAt time.Time) error

	TouchSource(ctx context.Context, s *RecentSource) error
	ListRecentSources(ctx context.Context, limit int) ([]*RecentSource, error)
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateExport(ctx context.Context, e *Export) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO exports (id, source_name, source_path, segment_count, muted, status, output_path, error, created_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.SourceName, e.SourcePath, e.SegmentCount, boolToInt(e.Muted), e.Status,
		nullString(e.OutputPath), nullString(e.Error), e.CreatedAt.UTC().Format(timeLayout), nullTime(e.FinishedAt))
	return err
}

func (r *SQLiteRepository) GetExport(ctx context.Context, id string) (*Export, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, source_name, source_path, segment_count, muted, status, output_path, error, created_at, finished_at
		FROM exports WHERE id = ?
	`, id)
	e, err := scanExport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *SQLiteRepository) ListExports(ctx context.Context, limit int) ([]*Export, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_name, source_path, segment_count, muted, status, output_path, error, created_at, finished_at
		FROM exports ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exports []*Export
	for rows.Next() {
		e, err := scanExport(rows)
		if err != nil {
			return nil, err
		}
		exports = append(exports, e)
	}
	return exports, rows.Err()
}

func (r *SQLiteRepository) FinishExport(ctx context.Context, id, status, outputPath, errorMsg string, finishedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE exports SET status = ?, output_path = ?, error = ?, finished_at = ? WHERE id = ?
	`, status, nullString(outputPath), nullString(errorMsg), finishedAt.UTC().Format(timeLayout), id)
	return err
}

func (r *SQLiteRepository) TouchSource(ctx context.Context, s *RecentSource) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recent_sources (path, name, size, opened_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET name = excluded.name, size = excluded.size, opened_at = excluded.opened_at
	`, s.Path, s.Name, s.Size, s.OpenedAt.UTC().Format(timeLayout))
	return err
}

func (r *SQLiteRepository) ListRecentSources(ctx context.Context, limit int) ([]*RecentSource, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT path, name, size, opened_at FROM recent_sources ORDER BY opened_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []*RecentSource
	for rows.Next() {
		var s RecentSource
		var openedAt string
		if err := rows.Scan(&s.Path, &s.Name, &s.Size, &openedAt); err != nil {
			return nil, err
		}
		s.OpenedAt, _ = time.Parse(time.RFC3339Nano, openedAt)
		sources = append(sources, &s)
	}
	return sources, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanExport(row scanner) (*Export, error) {
	var e Export
	var muted int
	var outputPath, errorMsg, finishedAt sql.NullString
	var createdAt string

	if err := row.Scan(&e.ID, &e.SourceName, &e.SourcePath, &e.SegmentCount, &muted, &e.Status,
		&outputPath, &errorMsg, &createdAt, &finishedAt); err != nil {
		return nil, err
	}

	e.Muted = muted == 1
	e.OutputPath = outputPath.String
	e.Error = errorMsg.String
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if finishedAt.Valid {
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt.String)
	}
	return &e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeLayout), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
