// Package evaluation coordinates one assessment: scoring, feedback,
// integration collectors and a single transactional commit.
package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/career-metric/internal/collectors"
	"github.com/jonathan/career-metric/internal/db"
	"github.com/jonathan/career-metric/internal/scoring"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the engine needs.
type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*db.Profile, error)
	GetAssessmentDetail(ctx context.Context, id uuid.UUID) (*db.AssessmentDetail, error)
	NewUnitOfWork() db.UnitOfWork
}

// Config holds the engine's collaborators. Zero fields get defaults.
type Config struct {
	Weights  scoring.Weights
	Resume   collectors.Collector[string]
	GitHub   collectors.Collector[string]
	LinkedIn collectors.Collector[map[string]any]
	CP       collectors.Collector[[]int]
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Result is a committed assessment plus the per-request collector summaries.
// Summaries are either an artifact or {"error": "..."}.
type Result struct {
	db.AssessmentDetail
	ResumeFeatures  any `json:"resume_features,omitempty"`
	GitHubSummary   any `json:"github_summary,omitempty"`
	LinkedInSummary any `json:"linkedin_summary,omitempty"`
	CPSummary       any `json:"cp_summary,omitempty"`
}

// Engine evaluates candidate profiles. It is safe for concurrent use; each
// call to Evaluate owns its own unit of work.
type Engine struct {
	store     Store
	weights   scoring.Weights
	resume    collectors.Collector[string]
	github    collectors.Collector[string]
	linkedin  collectors.Collector[map[string]any]
	cp        collectors.Collector[[]int]
	now       func() time.Time
	log       *zap.Logger
	validator *validator.Validate
}

// New creates an Engine backed by store.
func New(store Store, cfg Config) *Engine {
	e := &Engine{
		store:     store,
		weights:   cfg.Weights,
		resume:    cfg.Resume,
		github:    cfg.GitHub,
		linkedin:  cfg.LinkedIn,
		cp:        cfg.CP,
		now:       cfg.Clock,
		log:       cfg.Logger,
		validator: newValidator(),
	}
	if e.weights == (scoring.Weights{}) {
		e.weights = scoring.DefaultWeights()
	}
	if e.resume == nil {
		e.resume = collectors.NewResumeCollector()
	}
	if e.github == nil {
		e.github = collectors.NewGitHubCollector(collectors.GitHubOptions{})
	}
	if e.linkedin == nil {
		e.linkedin = collectors.NewLinkedInCollector()
	}
	if e.cp == nil {
		e.cp = collectors.NewCPCollector()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// run is the state of a single Evaluate call.
type run struct {
	state State
	log   *zap.Logger
}

func (r *run) enter(s State) {
	r.log.Debug("evaluation state", zap.String("from", string(r.state)), zap.String("to", string(s)))
	r.state = s
}

// abort moves the run to the aborted state and returns err.
func (r *run) abort(err error) error {
	r.log.Debug("evaluation aborted", zap.String("state", string(r.state)), zap.Error(err))
	r.state = StateAborted
	return err
}

// Evaluate scores the request for the caller's profile and commits the
// assessment, its components and feedback, successful integration artifacts
// and the profile's current-assessment pointer in one transaction.
//
// Collector failures never fail the evaluation. The returned error is
// *ValidationError, *NotFoundError or *PersistenceError.
func (e *Engine) Evaluate(ctx context.Context, userID, profileID uuid.UUID, req Request) (*Result, error) {
	assessmentID := uuid.New()
	r := &run{log: e.log.With(zap.String("assessment_id", assessmentID.String()), zap.String("profile_id", profileID.String()))}
	r.enter(StateValidating)

	if err := validateRequest(e.validator, &req); err != nil {
		return nil, r.abort(err)
	}
	profile, err := e.store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, r.abort(&PersistenceError{Op: "load profile", Cause: err})
	}
	if !profile.OwnedBy(userID) {
		return nil, r.abort(&NotFoundError{Resource: "profile", ID: profileID.String()})
	}

	// Collectors run alongside scoring and are joined before artifacts are staged.
	outcomes, wait, stop := e.startCollectors(ctx, r.log, req)

	r.enter(StateScoring)
	components := scoring.BuildComponents(req.Inputs(), e.weights)
	total := scoring.ComputeWeightedScore(components)

	r.enter(StatePersistingAssessment)
	uow := e.store.NewUnitOfWork()
	committed := false
	defer func() {
		if !committed {
			uow.Rollback()
		}
	}()

	completed := e.now().UTC()
	assessment := &db.Assessment{
		ID:             assessmentID,
		ProfileID:      profile.ID,
		TotalScore:     total,
		CompletionTime: &completed,
		Insights:       map[string]any{"inputs": inputsSnapshot(req.Inputs())},
	}
	if err := uow.StageAssessment(assessment); err != nil {
		stop()
		return nil, r.abort(&PersistenceError{Op: "stage assessment", Cause: err})
	}
	if err := uow.StageComponents(toScoreComponents(assessmentID, components)); err != nil {
		stop()
		return nil, r.abort(&PersistenceError{Op: "stage score components", Cause: err})
	}

	r.enter(StateGeneratingFeedback)
	if err := uow.StageFeedback(toFeedback(assessmentID, scoring.GenerateFeedback(components))); err != nil {
		stop()
		return nil, r.abort(&PersistenceError{Op: "stage feedback", Cause: err})
	}

	r.enter(StateCollectingIntegrations)
	wait()

	r.enter(StatePersistingArtifacts)
	result := &Result{}
	for _, src := range collectors.Sources() {
		outcome, ok := outcomes[src]
		if !ok {
			continue
		}
		setSummary(result, outcome)
		if !outcome.OK() {
			r.log.Warn("collector failed",
				zap.String("source", string(src)),
				zap.Error(outcome.Err))
			continue
		}
		payload, err := json.Marshal(outcome.Payload)
		if err != nil {
			return nil, r.abort(&PersistenceError{Op: "encode " + string(src) + " artifact", Cause: err})
		}
		if err := uow.StageArtifact(&db.IntegrationArtifact{
			ProfileID: profile.ID,
			Source:    string(src),
			Payload:   payload,
		}); err != nil {
			return nil, r.abort(&PersistenceError{Op: "stage " + string(src) + " artifact", Cause: err})
		}
	}

	r.enter(StateUpdatingProfilePointer)
	if err := uow.StageCurrentAssessment(profile.ID, assessmentID); err != nil {
		return nil, r.abort(&PersistenceError{Op: "stage profile pointer", Cause: err})
	}

	r.enter(StateCommitting)
	if err := ctx.Err(); err != nil {
		return nil, r.abort(&PersistenceError{Op: "commit assessment", Cause: err})
	}
	if err := uow.Commit(ctx); err != nil {
		return nil, r.abort(&PersistenceError{Op: "commit assessment", Cause: err})
	}
	committed = true

	r.enter(StateAssemblingResponse)
	detail, err := e.store.GetAssessmentDetail(ctx, assessmentID)
	if err != nil {
		return nil, r.abort(fmt.Errorf("assessment %s committed but could not be reloaded: %w", assessmentID, err))
	}
	if detail == nil {
		return nil, r.abort(fmt.Errorf("assessment %s committed but not found on reload", assessmentID))
	}
	result.AssessmentDetail = *detail

	r.enter(StateCommitted)
	r.log.Info("assessment committed", zap.Float64("total_score", total))
	return result, nil
}

// startCollectors launches one goroutine per present optional input. The
// returned wait function blocks until all of them finish; the map is only
// safe to read after wait returns. stop cancels the collectors and then
// waits, for runs that abort before the outcomes are needed.
func (e *Engine) startCollectors(ctx context.Context, log *zap.Logger, req Request) (outcomes map[collectors.Source]collectors.Outcome, wait, stop func()) {
	cctx, cancel := context.WithCancel(ctx)
	g, gCtx := errgroup.WithContext(cctx)
	outcomes = make(map[collectors.Source]collectors.Outcome, len(collectors.Sources()))
	var mu sync.Mutex

	record := func(o collectors.Outcome) {
		mu.Lock()
		outcomes[o.Source] = o
		mu.Unlock()
	}

	// Goroutines always return nil so a failing source never cancels the others.
	if req.hasResume() {
		html := *req.ResumeHTML
		g.Go(func() error {
			record(collectors.Run(gCtx, e.resume, html))
			return nil
		})
	}
	if req.hasGitHub() {
		username := *req.GitHubUsername
		g.Go(func() error {
			record(collectors.Run(gCtx, e.github, username))
			return nil
		})
	}
	if req.hasLinkedIn() {
		data := req.LinkedInData
		g.Go(func() error {
			record(collectors.Run(gCtx, e.linkedin, data))
			return nil
		})
	}
	if req.hasCP() {
		ratings := req.CPRatings
		g.Go(func() error {
			record(collectors.Run(gCtx, e.cp, ratings))
			return nil
		})
	}

	var once sync.Once
	wait = func() {
		once.Do(func() {
			_ = g.Wait()
			cancel()
			log.Debug("collectors joined", zap.Int("count", len(outcomes)))
		})
	}
	stop = func() {
		cancel()
		wait()
	}
	return outcomes, wait, stop
}

func setSummary(result *Result, o collectors.Outcome) {
	switch o.Source {
	case collectors.SourceResume:
		result.ResumeFeatures = o.Summary()
	case collectors.SourceGitHub:
		result.GitHubSummary = o.Summary()
	case collectors.SourceLinkedIn:
		result.LinkedInSummary = o.Summary()
	case collectors.SourceCP:
		result.CPSummary = o.Summary()
	}
}

func inputsSnapshot(in scoring.Inputs) map[string]any {
	out := make(map[string]any, len(scoring.Categories()))
	for _, c := range scoring.Categories() {
		out[string(c)] = in.For(c)
	}
	return out
}

func toScoreComponents(assessmentID uuid.UUID, components []scoring.Component) []db.ScoreComponent {
	out := make([]db.ScoreComponent, 0, len(components))
	for i, c := range components {
		out = append(out, db.ScoreComponent{
			AssessmentID: assessmentID,
			Name:         c.Name,
			Weight:       c.Weight,
			Score:        c.Score,
			Details:      c.Details,
			Position:     i,
		})
	}
	return out
}

func toFeedback(assessmentID uuid.UUID, entries []scoring.Feedback) []db.Feedback {
	out := make([]db.Feedback, 0, len(entries))
	for i, f := range entries {
		action := f.ActionItems
		out = append(out, db.Feedback{
			AssessmentID: assessmentID,
			Category:     f.Category,
			Message:      f.Message,
			ActionItems:  &action,
			Position:     i,
		})
	}
	return out
}
