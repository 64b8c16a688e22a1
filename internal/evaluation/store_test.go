package evaluation

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/career-metric/internal/db"
)

// memStore is an in-memory Store used by the engine tests.
type memStore struct {
	mu          sync.Mutex
	profiles    map[uuid.UUID]db.Profile
	assessments map[uuid.UUID]db.Assessment
	components  map[uuid.UUID][]db.ScoreComponent
	feedback    map[uuid.UUID][]db.Feedback
	artifacts   []db.IntegrationArtifact
	stageErr    error
	commitErr   error
	commits     int
}

func newMemStore() *memStore {
	return &memStore{
		profiles:    make(map[uuid.UUID]db.Profile),
		assessments: make(map[uuid.UUID]db.Assessment),
		components:  make(map[uuid.UUID][]db.ScoreComponent),
		feedback:    make(map[uuid.UUID][]db.Feedback),
	}
}

func (s *memStore) addProfile(userID uuid.UUID) db.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := db.Profile{ID: uuid.New(), UserID: userID, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	s.profiles[p.ID] = p
	return p
}

func (s *memStore) GetProfile(_ context.Context, id uuid.UUID) (*db.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memStore) GetAssessmentDetail(_ context.Context, id uuid.UUID) (*db.AssessmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assessments[id]
	if !ok {
		return nil, nil
	}
	components := append([]db.ScoreComponent{}, s.components[id]...)
	sort.Slice(components, func(i, j int) bool { return components[i].Position < components[j].Position })
	feedback := append([]db.Feedback{}, s.feedback[id]...)
	sort.Slice(feedback, func(i, j int) bool { return feedback[i].Position < feedback[j].Position })
	return &db.AssessmentDetail{Assessment: a, Components: components, FeedbackEntries: feedback}, nil
}

func (s *memStore) NewUnitOfWork() db.UnitOfWork {
	return &memUnitOfWork{store: s}
}

func (s *memStore) assessmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.assessments)
}

func (s *memStore) artifactSources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []string{}
	for _, a := range s.artifacts {
		out = append(out, a.Source)
	}
	return out
}

type memUnitOfWork struct {
	store       *memStore
	assessments []db.Assessment
	components  []db.ScoreComponent
	feedback    []db.Feedback
	artifacts   []db.IntegrationArtifact
	pointers    [][2]uuid.UUID
	closed      bool
}

func (u *memUnitOfWork) StageAssessment(a *db.Assessment) error {
	if u.closed {
		return db.ErrUnitOfWorkClosed
	}
	if u.store.stageErr != nil {
		return u.store.stageErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	u.assessments = append(u.assessments, *a)
	return nil
}

func (u *memUnitOfWork) StageComponents(components []db.ScoreComponent) error {
	if u.closed {
		return db.ErrUnitOfWorkClosed
	}
	for _, c := range components {
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		u.components = append(u.components, c)
	}
	return nil
}

func (u *memUnitOfWork) StageFeedback(entries []db.Feedback) error {
	if u.closed {
		return db.ErrUnitOfWorkClosed
	}
	for _, f := range entries {
		if f.ID == uuid.Nil {
			f.ID = uuid.New()
		}
		u.feedback = append(u.feedback, f)
	}
	return nil
}

func (u *memUnitOfWork) StageArtifact(a *db.IntegrationArtifact) error {
	if u.closed {
		return db.ErrUnitOfWorkClosed
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	u.artifacts = append(u.artifacts, *a)
	return nil
}

func (u *memUnitOfWork) StageCurrentAssessment(profileID, assessmentID uuid.UUID) error {
	if u.closed {
		return db.ErrUnitOfWorkClosed
	}
	u.pointers = append(u.pointers, [2]uuid.UUID{profileID, assessmentID})
	return nil
}

func (u *memUnitOfWork) StageAssessmentDeletion(uuid.UUID) error {
	return errors.New("not supported")
}

func (u *memUnitOfWork) Commit(ctx context.Context) error {
	if u.closed {
		return db.ErrUnitOfWorkClosed
	}
	defer u.Rollback()
	if err := ctx.Err(); err != nil {
		return err
	}

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.commitErr != nil {
		return s.commitErr
	}

	now := time.Now()
	for _, a := range u.assessments {
		a.CreatedAt, a.UpdatedAt = now, now
		s.assessments[a.ID] = a
	}
	for _, c := range u.components {
		s.components[c.AssessmentID] = append(s.components[c.AssessmentID], c)
	}
	for _, f := range u.feedback {
		f.CreatedAt = now
		s.feedback[f.AssessmentID] = append(s.feedback[f.AssessmentID], f)
	}
	for _, a := range u.artifacts {
		a.CreatedAt, a.UpdatedAt = now, now
		s.artifacts = append(s.artifacts, a)
	}
	for _, p := range u.pointers {
		profile := s.profiles[p[0]]
		id := p[1]
		profile.CurrentAssessmentID = &id
		s.profiles[p[0]] = profile
	}
	s.commits++
	return nil
}

func (u *memUnitOfWork) Rollback() {
	u.closed = true
}
