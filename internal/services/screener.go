package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
)

// ExtractionOutcome is what the extraction chain produced for one document.
type ExtractionOutcome struct {
	Candidate models.ExtractedCandidate
	Method    models.ExtractionMethod
	// Text is the recovered text layer; empty when the vision model was used.
	Text string
}

type Screening struct {
	ExtractionOutcome
	Match models.MatchResult
}

// Screener runs text extraction, the optional vision fallback, field
// extraction and scoring for a single document. It holds no per-call state
// and is safe for concurrent use.
type Screener struct {
	text   TextExtractor
	vision VisionExtractor
	fields *FieldExtractor
	scorer *MatchScorer
	log    *zap.Logger
}

// NewScreener wires the chain. vision may be nil, in which case unreadable
// documents fail with ErrExtractionFailed.
func NewScreener(text TextExtractor, vision VisionExtractor, fields *FieldExtractor, scorer *MatchScorer, log *zap.Logger) *Screener {
	return &Screener{
		text:   text,
		vision: vision,
		fields: fields,
		scorer: scorer,
		log:    logger.WithFields(log),
	}
}

type ScreenerOptions struct {
	Readability     ReadabilityOptions
	NameScanLines   int
	AcceptThreshold float64
	// SkillsFile replaces the embedded dictionary when set.
	SkillsFile string
}

// BuildScreener assembles the default text extractors, skill dictionary and
// scorer around an optional vision extractor.
func BuildScreener(opts ScreenerOptions, vision VisionExtractor, log *zap.Logger) (*Screener, error) {
	dict, err := LoadSkillDictionary(opts.SkillsFile)
	if err != nil {
		return nil, err
	}

	return NewScreener(
		NewDocumentTextExtractor(opts.Readability),
		vision,
		NewFieldExtractor(dict, FieldExtractorOptions{NameScanLines: opts.NameScanLines}),
		NewMatchScorer(opts.AcceptThreshold),
		log,
	), nil
}

func (s *Screener) VisionEnabled() bool {
	return s.vision != nil
}

// Extract tries the text layer first and falls back to the vision model at
// most once. Errors from either step are returned unchanged; both satisfy
// errors.Is(err, ErrExtractionFailed) when the document is unreadable.
func (s *Screener) Extract(ctx context.Context, doc Document) (*ExtractionOutcome, error) {
	log := s.log.With(zap.String(logger.FieldFilename, doc.Filename))

	text, err := s.text.Extract(ctx, doc)
	if err == nil {
		log.Debug("text layer extracted", zap.Int("chars", len(text)))
		return &ExtractionOutcome{
			Candidate: s.fields.Extract(text),
			Method:    models.MethodTextLayer,
			Text:      text,
		}, nil
	}

	if !errors.Is(err, ErrExtractionFailed) || s.vision == nil {
		return nil, err
	}

	log.Info("text layer unreadable, falling back to vision model", zap.Error(err))

	result, visionErr := s.vision.ExtractDocument(ctx, doc)
	if visionErr != nil {
		return nil, fmt.Errorf("vision fallback after %v: %w", err, visionErr)
	}

	return &ExtractionOutcome{
		Candidate: s.fields.Normalize(*result),
		Method:    models.MethodVision,
	}, nil
}

func (s *Screener) Score(skills []string, reqs models.JobRequirements) models.MatchResult {
	return s.scorer.Score(skills, reqs)
}

// Screen extracts the document and scores it against reqs.
func (s *Screener) Screen(ctx context.Context, doc Document, reqs models.JobRequirements) (*Screening, error) {
	outcome, err := s.Extract(ctx, doc)
	if err != nil {
		return nil, err
	}

	return &Screening{
		ExtractionOutcome: *outcome,
		Match:             s.scorer.Score(outcome.Candidate.Skills, reqs),
	}, nil
}
