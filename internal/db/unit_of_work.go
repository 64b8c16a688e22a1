package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrUnitOfWorkClosed is returned when staging or committing after Commit or Rollback.
var ErrUnitOfWorkClosed = errors.New("unit of work already closed")

// UnitOfWork collects writes in memory and applies them in one transaction.
// Nothing touches the database until Commit.
type UnitOfWork interface {
	StageAssessment(a *Assessment) error
	StageComponents(components []ScoreComponent) error
	StageFeedback(entries []Feedback) error
	StageArtifact(a *IntegrationArtifact) error
	StageCurrentAssessment(profileID, assessmentID uuid.UUID) error
	StageAssessmentDeletion(assessmentID uuid.UUID) error
	Commit(ctx context.Context) error
	Rollback()
}

// pointerUpdate is a staged change of a profile's current assessment.
type pointerUpdate struct {
	profileID    uuid.UUID
	assessmentID uuid.UUID
}

// staging implements the in-memory half of UnitOfWork.
type staging struct {
	assessments []Assessment
	components  []ScoreComponent
	feedback    []Feedback
	artifacts   []IntegrationArtifact
	pointers    []pointerUpdate
	deletions   []uuid.UUID
	closed      bool
}

func (s *staging) StageAssessment(a *Assessment) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.TotalScore < 0 || a.TotalScore > 100 {
		return fmt.Errorf("total score out of range: %v", a.TotalScore)
	}
	s.assessments = append(s.assessments, *a)
	return nil
}

func (s *staging) StageComponents(components []ScoreComponent) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	for i := range components {
		c := components[i]
		if c.AssessmentID == uuid.Nil {
			return fmt.Errorf("score component %q has no assessment", c.Name)
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
			components[i].ID = c.ID
		}
		if c.Weight < 0 || c.Score < 0 || c.Score > 100 {
			return fmt.Errorf("score component %q out of range: weight=%v score=%v", c.Name, c.Weight, c.Score)
		}
		s.components = append(s.components, c)
	}
	return nil
}

func (s *staging) StageFeedback(entries []Feedback) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	for i := range entries {
		f := entries[i]
		if f.AssessmentID == uuid.Nil {
			return fmt.Errorf("feedback %q has no assessment", f.Category)
		}
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
			entries[i].ID = f.ID
		}
		s.feedback = append(s.feedback, f)
	}
	return nil
}

func (s *staging) StageArtifact(a *IntegrationArtifact) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	if a.ProfileID == uuid.Nil {
		return fmt.Errorf("artifact %q has no profile", a.Source)
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	s.artifacts = append(s.artifacts, *a)
	return nil
}

func (s *staging) StageCurrentAssessment(profileID, assessmentID uuid.UUID) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	s.pointers = append(s.pointers, pointerUpdate{profileID: profileID, assessmentID: assessmentID})
	return nil
}

func (s *staging) StageAssessmentDeletion(assessmentID uuid.UUID) error {
	if s.closed {
		return ErrUnitOfWorkClosed
	}
	s.deletions = append(s.deletions, assessmentID)
	return nil
}

func (s *staging) Rollback() {
	s.closed = true
	s.assessments = nil
	s.components = nil
	s.feedback = nil
	s.artifacts = nil
	s.pointers = nil
	s.deletions = nil
}

// pgUnitOfWork commits staged writes through a pgx transaction.
type pgUnitOfWork struct {
	staging
	db  *DB
	now func() time.Time
}

// NewUnitOfWork starts an empty unit of work. It is not safe for concurrent use.
func (db *DB) NewUnitOfWork() UnitOfWork {
	return &pgUnitOfWork{db: db, now: time.Now}
}

// Commit writes everything staged in a single transaction. Profiles touched
// by a pointer update are locked first. On any error the transaction is
// rolled back and nothing is written.
func (u *pgUnitOfWork) Commit(ctx context.Context) error {
	if u.closed {
		return ErrUnitOfWorkClosed
	}
	defer u.Rollback()

	// A cancelled caller must not produce a partial write.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit aborted: %w", err)
	}

	tx, err := u.db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	for _, p := range u.pointers {
		if err := lockProfile(ctx, tx, p.profileID); err != nil {
			return err
		}
	}

	if err := u.writeAssessments(ctx, tx); err != nil {
		return err
	}
	if err := u.writeArtifacts(ctx, tx); err != nil {
		return err
	}
	for _, p := range u.pointers {
		if err := updatePointer(ctx, tx, p); err != nil {
			return err
		}
	}
	for _, id := range u.deletions {
		if err := deleteAssessment(ctx, tx, id); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (u *pgUnitOfWork) writeAssessments(ctx context.Context, tx pgx.Tx) error {
	now := u.now()
	batch := &pgx.Batch{}

	for _, a := range u.assessments {
		insights, err := marshalNullable(a.Insights)
		if err != nil {
			return fmt.Errorf("failed to marshal insights: %w", err)
		}
		batch.Queue(
			`INSERT INTO assessments (id, profile_id, total_score, completion_time, insights, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
			a.ID, a.ProfileID, a.TotalScore, a.CompletionTime, insights, now,
		)
	}

	for _, c := range u.components {
		details, err := marshalNullable(c.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal component details: %w", err)
		}
		batch.Queue(
			`INSERT INTO score_components (id, assessment_id, position, name, weight, score, details)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			c.ID, c.AssessmentID, c.Position, c.Name, c.Weight, c.Score, details,
		)
	}

	for _, f := range u.feedback {
		batch.Queue(
			`INSERT INTO feedback_entries (id, assessment_id, position, category, message, action_items, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
			f.ID, f.AssessmentID, f.Position, f.Category, f.Message, f.ActionItems, now,
		)
	}

	return sendBatch(ctx, tx, batch, "assessment")
}

func (u *pgUnitOfWork) writeArtifacts(ctx context.Context, tx pgx.Tx) error {
	if len(u.artifacts) == 0 {
		return nil
	}
	now := u.now()
	batch := &pgx.Batch{}
	for _, a := range u.artifacts {
		payload := a.Payload
		if len(payload) == 0 {
			payload = json.RawMessage("{}")
		}
		batch.Queue(
			`INSERT INTO integration_artifacts (id, profile_id, source, payload, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)`,
			a.ID, a.ProfileID, a.Source, []byte(payload), now,
		)
	}
	return sendBatch(ctx, tx, batch, "artifact")
}

func sendBatch(ctx context.Context, tx pgx.Tx, batch *pgx.Batch, what string) error {
	if batch.Len() == 0 {
		return nil
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to write %s rows: %w", what, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", what, err)
	}
	return nil
}

func lockProfile(ctx context.Context, tx pgx.Tx, profileID uuid.UUID) error {
	var id uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT id FROM candidate_profiles WHERE id = $1 FOR UPDATE`,
		profileID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("profile not found: %s", profileID)
		}
		return fmt.Errorf("failed to lock profile: %w", err)
	}
	return nil
}

// updatePointer only points a profile at one of its own assessments.
func updatePointer(ctx context.Context, tx pgx.Tx, p pointerUpdate) error {
	result, err := tx.Exec(ctx,
		`UPDATE candidate_profiles SET current_score_id = $2, updated_at = NOW()
		 WHERE id = $1
		   AND EXISTS (SELECT 1 FROM assessments WHERE id = $2 AND profile_id = $1)`,
		p.profileID, p.assessmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update current assessment: %w", err)
	}
	if result.RowsAffected() != 1 {
		return fmt.Errorf("assessment %s does not belong to profile %s", p.assessmentID, p.profileID)
	}
	return nil
}

// deleteAssessment removes an assessment and everything it owns, and clears
// any profile pointer that referenced it.
func deleteAssessment(ctx context.Context, tx pgx.Tx, assessmentID uuid.UUID) error {
	if _, err := tx.Exec(ctx,
		`UPDATE candidate_profiles SET current_score_id = NULL, updated_at = NOW() WHERE current_score_id = $1`,
		assessmentID,
	); err != nil {
		return fmt.Errorf("failed to clear current assessment: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM feedback_entries WHERE assessment_id = $1`, assessmentID); err != nil {
		return fmt.Errorf("failed to delete feedback: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM score_components WHERE assessment_id = $1`, assessmentID); err != nil {
		return fmt.Errorf("failed to delete score components: %w", err)
	}
	result, err := tx.Exec(ctx, `DELETE FROM assessments WHERE id = $1`, assessmentID)
	if err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("assessment not found: %s", assessmentID)
	}
	return nil
}
