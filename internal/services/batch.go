package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
)

const listSeparator = "; "

// ReportRow is one line of the batch CSV report.
type ReportRow struct {
	File             string  `csv:"file"`
	Name             string  `csv:"name"`
	Email            string  `csv:"email"`
	Phone            string  `csv:"phone"`
	Links            string  `csv:"links"`
	Skills           string  `csv:"skills"`
	Method           string  `csv:"method"`
	Score            float64 `csv:"score"`
	Decision         string  `csv:"decision"`
	MissingMandatory string  `csv:"missing_mandatory"`
	MatchedPreferred string  `csv:"matched_preferred"`
	Error            string  `csv:"error"`
}

type BatchScreener struct {
	screener    *Screener
	concurrency int
	log         *zap.Logger
}

func NewBatchScreener(screener *Screener, concurrency int, log *zap.Logger) *BatchScreener {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &BatchScreener{
		screener:    screener,
		concurrency: concurrency,
		log:         logger.WithFields(log, zap.String("component", "batch")),
	}
}

// Run screens every document in source. A failing document yields a row with
// Error set and never stops the batch. When ctx is cancelled no further
// documents are started; rows for them carry the cancellation and ctx.Err()
// is returned alongside the rows.
func (b *BatchScreener) Run(ctx context.Context, source DocumentSource, reqs models.JobRequirements) ([]ReportRow, error) {
	keys, err := source.List(ctx)
	if err != nil {
		return nil, err
	}

	b.log.Info("batch started", zap.Int("documents", len(keys)), zap.Int("concurrency", b.concurrency))

	rows := make([]ReportRow, len(keys))
	for i, key := range keys {
		rows[i] = ReportRow{File: key, Error: "not processed"}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, key := range keys {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rows[i] = b.screenOne(gctx, source, key, reqs)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		b.log.Warn("batch cancelled", zap.Error(err))
		return rows, err
	}

	b.log.Info("batch finished", zap.Int("documents", len(rows)))
	return rows, nil
}

func (b *BatchScreener) screenOne(ctx context.Context, source DocumentSource, key string, reqs models.JobRequirements) ReportRow {
	row := ReportRow{File: key}
	log := b.log.With(zap.String(logger.FieldFilename, key))

	doc, err := source.Fetch(ctx, key)
	if err != nil {
		log.Warn("failed to fetch document", zap.Error(err))
		row.Error = err.Error()
		return row
	}

	result, err := b.screener.Screen(ctx, doc, reqs)
	if err != nil {
		log.Info("document not screened", zap.Error(err))
		row.Error = err.Error()
		if errors.Is(err, ErrExtractionFailed) {
			row.Error = fmt.Sprintf("%s: %v", UnreadableDocumentMessage, err)
		}
		return row
	}

	row.Name = result.Candidate.Name
	row.Email = result.Candidate.Email
	row.Phone = result.Candidate.Phone
	row.Links = strings.Join(result.Candidate.Links, listSeparator)
	row.Skills = strings.Join(result.Candidate.Skills, listSeparator)
	row.Method = string(result.Method)
	row.Score = result.Match.Score
	row.Decision = string(result.Match.Decision)
	row.MissingMandatory = strings.Join(result.Match.MissingMandatory, listSeparator)
	row.MatchedPreferred = strings.Join(result.Match.MatchedPreferred, listSeparator)
	return row
}

// WriteReport writes rows as CSV with a header line.
func WriteReport(w io.Writer, rows []ReportRow) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("failed to write csv report: %w", err)
	}
	return nil
}
