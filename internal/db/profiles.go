package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// CreateProfile inserts a candidate profile. Profiles are normally created by
// another service; this exists for seeding and tests.
func (db *DB) CreateProfile(ctx context.Context, p *Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := db.pool.QueryRow(ctx,
		`INSERT INTO candidate_profiles (id, user_id, target_role, highest_education, years_experience)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.TargetRole, p.HighestEducation, p.YearsExperience,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// GetProfile retrieves a profile by ID. Returns nil if not found.
func (db *DB) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	err := db.pool.QueryRow(ctx,
		`SELECT id, user_id, target_role, highest_education, years_experience,
		        current_score_id, created_at, updated_at
		 FROM candidate_profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.UserID, &p.TargetRole, &p.HighestEducation, &p.YearsExperience,
		&p.CurrentAssessmentID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}
