package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"imagemath/internal/models"
	"imagemath/pkg/stats"
)

// PostgresConfig holds connection details for PostgreSQL
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ConnString returns the connection URL for c.
func (c PostgresConfig) ConnString() string {
	s := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", c.User, c.Password, c.Host, c.Port, c.DBName)
	if c.SSLMode != "" {
		s += "?sslmode=" + c.SSLMode
	}
	return s
}

// FrameMatch is a stored frame returned by SearchSimilarFrames.
type FrameMatch struct {
	SeriesUID   string
	Description string
	FrameIndex  int
	Similarity  float64
}

// PostgresAssembler exports series into PostgreSQL. Each frame is stored with
// its raw samples, its summary statistics and an intensity histogram kept as
// a pgvector column for similarity search.
type PostgresAssembler struct {
	pool   *pgxpool.Pool
	bins   int
	logger *slog.Logger
}

// NewPostgresAssembler connects to the database described by config.
// The schema must exist, see InitSchema.
func NewPostgresAssembler(ctx context.Context, config PostgresConfig, bins int, logger *slog.Logger) (*PostgresAssembler, error) {
	pool, err := pgxpool.New(ctx, config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PostgresAssembler{pool: pool, bins: bins, logger: logger}, nil
}

// Close closes the database connection
func (s *PostgresAssembler) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Assemble stores series and all its frames in a single transaction.
func (s *PostgresAssembler) Assemble(ctx context.Context, series *models.Series, description string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var seriesID int
	err = tx.QueryRow(ctx,
		`INSERT INTO series
        (uid, description, element_type, width, height, frame_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`,
		series.UID, description, series.ElementType.String(),
		series.Width, series.Height, series.FrameCount(), time.Now()).Scan(&seriesID)
	if err != nil {
		return fmt.Errorf("failed to store series: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range series.Frames {
		f := &series.Frames[i]
		sum := stats.Summarize(f)
		batch.Queue(
			`INSERT INTO frames
            (series_id, frame_index, acquisition_time, mean, std_dev, min_value, max_value, pixels, signature)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			seriesID, f.Index, f.Time, sum.Mean, sum.StdDev, sum.Min, sum.Max,
			EncodeFrame(f, series.ElementType), pgvector.NewVector(stats.Signature(f, s.bins)))
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to store frame %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to store frames: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit series: %w", err)
	}

	s.logger.Info("Series stored in database", "uid", series.UID, "id", seriesID, "frames", series.FrameCount())
	return nil
}

// SearchSimilarFrames finds the stored frames whose intensity distribution is
// closest to f.
func (s *PostgresAssembler) SearchSimilarFrames(ctx context.Context, f *models.Frame, limit int) ([]FrameMatch, error) {
	query := pgvector.NewVector(stats.Signature(f, s.bins))

	rows, err := s.pool.Query(ctx,
		`SELECT se.uid, se.description, fr.frame_index,
        1 - (fr.signature <=> $1) AS similarity
        FROM frames fr
        JOIN series se ON fr.series_id = se.id
        ORDER BY fr.signature <=> $1
        LIMIT $2`,
		query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search similar frames: %w", err)
	}
	defer rows.Close()

	var results []FrameMatch
	for rows.Next() {
		var m FrameMatch
		if err := rows.Scan(&m.SeriesUID, &m.Description, &m.FrameIndex, &m.Similarity); err != nil {
			return nil, fmt.Errorf("failed to scan search results: %w", err)
		}
		results = append(results, m)
	}

	return results, rows.Err()
}

// InitSchema creates the database schema if it doesn't exist
func InitSchema(ctx context.Context, config PostgresConfig, bins int) error {
	conn, err := pgx.Connect(ctx, config.ConnString())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	_, err = conn.Exec(ctx, fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS series (
            id SERIAL PRIMARY KEY,
            uid VARCHAR(64) NOT NULL UNIQUE,
            description TEXT NOT NULL,
            element_type VARCHAR(16) NOT NULL,
            width INTEGER NOT NULL,
            height INTEGER NOT NULL,
            frame_count INTEGER NOT NULL,
            created_at TIMESTAMPTZ NOT NULL
        );

        CREATE TABLE IF NOT EXISTS frames (
            id SERIAL PRIMARY KEY,
            series_id INTEGER REFERENCES series(id) ON DELETE CASCADE,
            frame_index INTEGER NOT NULL,
            acquisition_time DOUBLE PRECISION NOT NULL,
            mean DOUBLE PRECISION NOT NULL,
            std_dev DOUBLE PRECISION NOT NULL,
            min_value DOUBLE PRECISION NOT NULL,
            max_value DOUBLE PRECISION NOT NULL,
            pixels BYTEA NOT NULL,
            signature vector(%d),
            UNIQUE(series_id, frame_index)
        );

        CREATE INDEX IF NOT EXISTS idx_frames_series_id ON frames(series_id);
    `, bins))
	if err != nil {
		return fmt.Errorf("failed to create database schema: %w", err)
	}

	return nil
}
