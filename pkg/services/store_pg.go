package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quranlabs/tadabbur/pkg/models"
)

// PGStore is the Postgres-backed discovery store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore wraps a shared pgx pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// Save inserts the discovery and returns its generated UUID.
func (s *PGStore) Save(ctx context.Context, d models.Discovery) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO discoveries
			(title_ar, description_ar, category, discipline, verse_keys,
			 confidence_tier, confidence_score, verification_status, discovery_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		d.TitleAr, d.DescriptionAr, d.Category, nullable(d.Discipline), d.VerseKeys,
		string(d.ConfidenceTier), d.ConfidenceScore, d.VerificationStatus, d.Source,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save discovery: %w", err)
	}
	return id, nil
}

// List returns discoveries newest first, optionally filtered by tier.
func (s *PGStore) List(ctx context.Context, tier string, limit int) ([]models.Discovery, error) {
	sql := `
		SELECT id, title_ar, description_ar, category, COALESCE(discipline, ''),
		       verse_keys, confidence_tier, confidence_score,
		       verification_status, discovery_source, created_at
		FROM discoveries`
	args := []any{}
	if tier != "" {
		sql += ` WHERE confidence_tier = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, tier, limit)
	} else {
		sql += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list discoveries: %w", err)
	}
	defer rows.Close()

	var out []models.Discovery
	for rows.Next() {
		var d models.Discovery
		var tierStr string
		if err := rows.Scan(&d.ID, &d.TitleAr, &d.DescriptionAr, &d.Category, &d.Discipline,
			&d.VerseKeys, &tierStr, &d.ConfidenceScore,
			&d.VerificationStatus, &d.Source, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan discovery: %w", err)
		}
		d.ConfidenceTier = models.Tier(tierStr)
		out = append(out, d)
	}
	return out, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
