package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/growly/resume-bot/internal/types"
)

// SaveAnalysis stores an analysis with its job positions and bumps the
// user's analysis count, all in one transaction. The user row is created if
// it does not exist yet.
func (db *DB) SaveAnalysis(ctx context.Context, input *AnalysisCreateInput) (uuid.UUID, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO users (user_id, username, cv_count, last_activity)
		 VALUES ($1, $2, 1, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET
		     username = COALESCE(EXCLUDED.username, users.username),
		     cv_count = users.cv_count + 1,
		     last_activity = NOW()`,
		input.UserID, nullIfEmpty(input.Username),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to update user %d: %w", input.UserID, err)
	}

	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO cv_data (user_id, username, file_id, analyzed_data, model)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		input.UserID, nullIfEmpty(input.Username), input.FileID, input.AnalyzedData, input.Model,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save analysis: %w", err)
	}

	if err := saveJobPositions(ctx, tx, id, input.JobPositions); err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}

// saveJobPositions upserts position names and links them to an analysis.
// Duplicate and blank names are skipped; order of first appearance is kept.
func saveJobPositions(ctx context.Context, tx pgx.Tx, analysisID uuid.UUID, positions []string) error {
	names := uniquePositions(positions)
	if len(names) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, name := range names {
		batch.Queue(
			`WITH pos AS (
			     INSERT INTO job_positions (position_name) VALUES ($2)
			     ON CONFLICT (position_name) DO UPDATE SET position_name = EXCLUDED.position_name
			     RETURNING position_id
			 )
			 INSERT INTO cv_job_positions (cv_id, position_id, job_position, ordinal)
			 SELECT $1, position_id, $2, $3 FROM pos
			 ON CONFLICT DO NOTHING`,
			analysisID, name, i+1,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, name := range names {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to save job position %q: %w", name, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to save job positions: %w", err)
	}
	return nil
}

func uniquePositions(positions []string) []string {
	seen := make(map[string]struct{}, len(positions))
	names := make([]string, 0, len(positions))
	for _, p := range positions {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// RecordAnalysis stores a finished pipeline result for the requesting user.
func (db *DB) RecordAnalysis(ctx context.Context, req *types.AnalysisRequest, result *types.AnalysisResult) (uuid.UUID, error) {
	return db.SaveAnalysis(ctx, &AnalysisCreateInput{
		UserID:       req.UserID,
		Username:     req.Username,
		FileID:       req.FileID,
		AnalyzedData: result.RawText,
		Model:        result.Model,
		JobPositions: result.JobPositions,
	})
}

// GetAnalysis retrieves an analysis by ID
func (db *DB) GetAnalysis(ctx context.Context, id uuid.UUID) (*Analysis, error) {
	var a Analysis
	var rating *int16
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, username, file_id, analyzed_data, model, rating, created_at, rated_at
		 FROM cv_data WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.UserID, &a.Username, &a.FileID, &a.AnalyzedData, &a.Model, &rating, &a.CreatedAt, &a.RatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get analysis %s: %w", id, err)
	}
	if rating != nil {
		r := types.Rating(*rating)
		a.Rating = &r
	}
	return &a, nil
}

// GetJobPositions returns the job positions linked to an analysis in the
// order they were extracted.
func (db *DB) GetJobPositions(ctx context.Context, analysisID uuid.UUID) ([]string, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT job_position FROM cv_job_positions WHERE cv_id = $1 ORDER BY ordinal`,
		analysisID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get job positions: %w", err)
	}

	positions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan job positions: %w", err)
	}
	return positions, nil
}

// UpdateRating sets the user's rating for an analysis.
func (db *DB) UpdateRating(ctx context.Context, analysisID uuid.UUID, rating types.Rating) error {
	if !rating.Valid() {
		return fmt.Errorf("invalid rating %d", rating)
	}

	tag, err := db.pool.Exec(ctx,
		`UPDATE cv_data SET rating = $1, rated_at = NOW() WHERE id = $2`,
		int16(rating), analysisID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// FindAnalysesByJobPosition lists recent analyses that suggested the given
// job position.
func (db *DB) FindAnalysesByJobPosition(ctx context.Context, position string, limit int) ([]AnalysisMatch, error) {
	if limit <= 0 {
		limit = 5
	}

	rows, err := db.pool.Query(ctx,
		`SELECT c.id, c.analyzed_data, COUNT(DISTINCT cjp.position_id) AS match_count, c.created_at
		 FROM cv_data c
		 JOIN cv_job_positions cjp ON c.id = cjp.cv_id
		 JOIN job_positions jp ON cjp.position_id = jp.position_id
		 WHERE jp.position_name = $1
		 GROUP BY c.id
		 ORDER BY match_count DESC, c.created_at DESC
		 LIMIT $2`,
		strings.TrimSpace(position), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find analyses by job position: %w", err)
	}
	defer rows.Close()

	var matches []AnalysisMatch
	for rows.Next() {
		var m AnalysisMatch
		if err := rows.Scan(&m.ID, &m.AnalyzedData, &m.MatchCount, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan analysis match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// GetQualityMetrics aggregates every submitted rating.
func (db *DB) GetQualityMetrics(ctx context.Context) (types.QualityMetrics, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT rating, COUNT(*) FROM cv_data WHERE rating IS NOT NULL GROUP BY rating`,
	)
	if err != nil {
		return types.QualityMetrics{}, fmt.Errorf("failed to query ratings: %w", err)
	}
	defer rows.Close()

	counts := make(map[types.Rating]int)
	for rows.Next() {
		var rating int16
		var count int64
		if err := rows.Scan(&rating, &count); err != nil {
			return types.QualityMetrics{}, fmt.Errorf("failed to scan rating count: %w", err)
		}
		counts[types.Rating(rating)] = int(count)
	}
	if err := rows.Err(); err != nil {
		return types.QualityMetrics{}, fmt.Errorf("failed to read ratings: %w", err)
	}

	return types.QualityMetricsFromCounts(counts), nil
}
