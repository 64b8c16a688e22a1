package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetAssessment retrieves an assessment without its children. Returns nil if not found.
func (db *DB) GetAssessment(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	var a Assessment
	var insights []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, profile_id, total_score, completion_time, insights, created_at, updated_at
		 FROM assessments WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.ProfileID, &a.TotalScore, &a.CompletionTime, &insights, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment: %w", err)
	}
	a.Insights = unmarshalNullable(insights)
	return &a, nil
}

// GetAssessmentDetail loads an assessment with its components and feedback in
// stored order. Returns nil if not found.
func (db *DB) GetAssessmentDetail(ctx context.Context, id uuid.UUID) (*AssessmentDetail, error) {
	a, err := db.GetAssessment(ctx, id)
	if err != nil || a == nil {
		return nil, err
	}

	components, err := db.listComponents(ctx, id)
	if err != nil {
		return nil, err
	}
	feedback, err := db.listFeedback(ctx, id)
	if err != nil {
		return nil, err
	}

	return &AssessmentDetail{
		Assessment:      *a,
		Components:      components,
		FeedbackEntries: feedback,
	}, nil
}

func (db *DB) listComponents(ctx context.Context, assessmentID uuid.UUID) ([]ScoreComponent, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, assessment_id, position, name, weight, score, details
		 FROM score_components WHERE assessment_id = $1
		 ORDER BY position`,
		assessmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list score components: %w", err)
	}
	defer rows.Close()

	components := []ScoreComponent{}
	for rows.Next() {
		var c ScoreComponent
		var details []byte
		if err := rows.Scan(&c.ID, &c.AssessmentID, &c.Position, &c.Name, &c.Weight, &c.Score, &details); err != nil {
			return nil, fmt.Errorf("failed to scan score component: %w", err)
		}
		c.Details = unmarshalNullable(details)
		components = append(components, c)
	}
	return components, rows.Err()
}

func (db *DB) listFeedback(ctx context.Context, assessmentID uuid.UUID) ([]Feedback, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, assessment_id, position, category, message, action_items, created_at
		 FROM feedback_entries WHERE assessment_id = $1
		 ORDER BY position`,
		assessmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	entries := []Feedback{}
	for rows.Next() {
		var f Feedback
		if err := rows.Scan(&f.ID, &f.AssessmentID, &f.Position, &f.Category, &f.Message, &f.ActionItems, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		entries = append(entries, f)
	}
	return entries, rows.Err()
}

// ListAssessments returns a profile's assessments, newest first, without children.
func (db *DB) ListAssessments(ctx context.Context, profileID uuid.UUID) ([]Assessment, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, profile_id, total_score, completion_time, insights, created_at, updated_at
		 FROM assessments WHERE profile_id = $1
		 ORDER BY created_at DESC, id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	assessments := []Assessment{}
	for rows.Next() {
		var a Assessment
		var insights []byte
		if err := rows.Scan(&a.ID, &a.ProfileID, &a.TotalScore, &a.CompletionTime, &insights, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		a.Insights = unmarshalNullable(insights)
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

// DeleteAssessment removes an assessment and its components and feedback in
// one transaction, clearing the owning profile's pointer if it referenced it.
func (db *DB) DeleteAssessment(ctx context.Context, id uuid.UUID) error {
	uow := db.NewUnitOfWork()
	if err := uow.StageAssessmentDeletion(id); err != nil {
		return err
	}
	return uow.Commit(ctx)
}
