package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/repositories"
)

// UnreadableDocumentMessage is stored on candidates whose CV could not be read.
const UnreadableDocumentMessage = "could not read this document"

type ScreeningService interface {
	CandidateProcessor
}

type screeningService struct {
	candidateRepo repositories.CandidateRepository
	jobRepo       repositories.JobRepository
	storage       StorageService
	screener      *Screener
	index         CandidateIndex
	categorizer   Categorizer
	events        EventPublisher
	log           *zap.Logger
}

// NewScreeningService builds the processor the worker runs for queued
// candidates. index and categorizer may be nil when their features are
// disabled.
func NewScreeningService(
	candidateRepo repositories.CandidateRepository,
	jobRepo repositories.JobRepository,
	storage StorageService,
	screener *Screener,
	index CandidateIndex,
	categorizer Categorizer,
	events EventPublisher,
	log *zap.Logger,
) ScreeningService {
	if events == nil {
		events = NewNopPublisher()
	}
	return &screeningService{
		candidateRepo: candidateRepo,
		jobRepo:       jobRepo,
		storage:       storage,
		screener:      screener,
		index:         index,
		categorizer:   categorizer,
		events:        events,
		log:           logger.WithFields(log, zap.String("component", "screening")),
	}
}

// ProcessCandidate implements CandidateProcessor.
func (s *screeningService) ProcessCandidate(ctx context.Context, candidateID uuid.UUID) error {
	log := s.log.With(zap.String(logger.FieldCandidateID, candidateID.String()))

	if err := s.candidateRepo.UpdateStatus(candidateID, models.StatusProcessing); err != nil {
		return err
	}

	candidate, err := s.candidateRepo.FindByID(candidateID)
	if err != nil {
		return s.fail(ctx, candidateID, uuid.Nil, "candidate lookup failed", err)
	}
	log = log.With(zap.String(logger.FieldJobID, candidate.JobID.String()))

	job, err := s.jobRepo.FindByID(candidate.JobID)
	if err != nil {
		return s.fail(ctx, candidateID, candidate.JobID, "job lookup failed", err)
	}

	data, err := s.storage.ReadFile(candidate.FilePath)
	if err != nil {
		return s.fail(ctx, candidateID, candidate.JobID, "stored file unavailable", err)
	}

	doc := Document{
		Filename: candidate.OriginalFileName,
		MIMEType: candidate.MIMEType,
		Data:     data,
	}

	result, err := s.screener.Screen(ctx, doc, job.Requirements())
	if err != nil {
		msg := "screening failed"
		if errors.Is(err, ErrExtractionFailed) {
			msg = UnreadableDocumentMessage
		}
		return s.fail(ctx, candidateID, candidate.JobID, msg, err)
	}

	document := FormatCandidateDocument(result.Candidate, result.Text)

	score := result.Match.Score
	decision := result.Match.Decision
	update := &repositories.CandidateUpdateData{
		Name:             result.Candidate.Name,
		Email:            result.Candidate.Email,
		Phone:            result.Candidate.Phone,
		Links:            result.Candidate.Links,
		Skills:           result.Candidate.Skills,
		ExtractionMethod: string(result.Method),
		MatchScore:       score,
		Decision:         decision,
		MissingSkills:    result.Match.MissingMandatory,
	}
	if s.categorizer != nil {
		category, err := s.categorizer.CategorizeCV(ctx, document)
		if err != nil {
			log.Warn("failed to categorize candidate", zap.Error(err))
		} else {
			update.Category = category
		}
	}
	if err := s.candidateRepo.UpdateResult(candidateID, update); err != nil {
		return err
	}

	log.Info("candidate screened",
		zap.String(logger.FieldMethod, string(result.Method)),
		zap.Float64("score", score),
		zap.String("decision", string(decision)))

	if s.index != nil {
		if err := s.index.IndexCandidate(ctx, candidate.JobID, candidateID, document); err != nil {
			log.Warn("failed to index candidate", zap.Error(err))
		}
	}

	s.publish(ctx, ScreeningEvent{
		Type:        EventCandidateScreened,
		CandidateID: candidateID.String(),
		JobID:       candidate.JobID.String(),
		Status:      string(models.StatusCompleted),
		Score:       &score,
		Decision:    &decision,
		OccurredAt:  time.Now().UTC(),
	})

	return nil
}

// fail records msg on the candidate, announces the failure and returns the
// underlying error for the worker log. The stored message never carries
// internal error details.
func (s *screeningService) fail(ctx context.Context, candidateID, jobID uuid.UUID, msg string, cause error) error {
	if err := s.candidateRepo.UpdateError(candidateID, msg); err != nil {
		s.log.Error("failed to record candidate error",
			zap.String(logger.FieldCandidateID, candidateID.String()),
			zap.Error(err))
	}

	event := ScreeningEvent{
		Type:        EventCandidateFailed,
		CandidateID: candidateID.String(),
		Status:      string(models.StatusFailed),
		Error:       msg,
		OccurredAt:  time.Now().UTC(),
	}
	if jobID != uuid.Nil {
		event.JobID = jobID.String()
	}
	s.publish(ctx, event)

	return fmt.Errorf("%s: %w", msg, cause)
}

func (s *screeningService) publish(ctx context.Context, event ScreeningEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("failed to publish event",
			zap.String("event", event.Type),
			zap.String(logger.FieldCandidateID, event.CandidateID),
			zap.Error(err))
	}
}
