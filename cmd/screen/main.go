package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/cv-screener/internal/config"
	"alfredoptarigan/cv-screener/internal/logger"
	"alfredoptarigan/cv-screener/internal/models"
	"alfredoptarigan/cv-screener/internal/services"
)

const app = "screen"

type options struct {
	dir         string
	s3Bucket    string
	s3Prefix    string
	mandatory   string
	preferred   string
	concurrency int
	vision      bool
	out         string
	json        bool
	debug       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   app,
		Short: "Screen a folder or S3 prefix of CVs against a set of required skills",
		Long: `screen extracts contact details and skills from every CV in a local directory
or an S3 prefix, scores each one against the given mandatory and preferred skills
and writes a CSV report. Documents that cannot be read are reported with an error
and do not stop the batch.`,
		SilenceUsage: true,
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.validate()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "local directory with CV files")
	cmd.Flags().StringVar(&opts.s3Bucket, "s3-bucket", "", "S3 bucket with CV files")
	cmd.Flags().StringVar(&opts.s3Prefix, "s3-prefix", "", "key prefix inside --s3-bucket")
	cmd.Flags().StringVarP(&opts.mandatory, "mandatory", "m", "", "comma-separated mandatory skills")
	cmd.Flags().StringVarP(&opts.preferred, "preferred", "p", "", "comma-separated preferred skills")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 4, "documents screened in parallel")
	cmd.Flags().BoolVar(&opts.vision, "vision", false, "fall back to the Gemini vision model for unreadable documents (needs GEMINI_API_KEY)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "CSV report path (default stdout)")
	cmd.Flags().BoolVarP(&opts.json, "json", "j", false, "json format for logging")
	cmd.Flags().BoolVarP(&opts.debug, "debug", "d", false, "verbose/debug output")

	return cmd
}

func (o *options) validate() error {
	switch {
	case o.dir == "" && o.s3Bucket == "":
		return errors.New("one of --dir or --s3-bucket is required")
	case o.dir != "" && o.s3Bucket != "":
		return errors.New("--dir and --s3-bucket are mutually exclusive")
	case o.concurrency <= 0:
		return fmt.Errorf("--concurrency must be positive, got %d", o.concurrency)
	}
	return nil
}

func (o *options) requirements() models.JobRequirements {
	return models.JobRequirements{
		MandatorySkills: models.SplitSkills(o.mandatory),
		PreferredSkills: models.SplitSkills(o.preferred),
	}
}

func run(ctx context.Context, opts *options, stdout io.Writer) error {
	log, err := logger.New(opts.json, opts.debug)
	if err != nil {
		return fmt.Errorf("creating a logger: %w", err)
	}
	defer log.Sync()

	cfg := config.Load()

	var vision services.VisionExtractor
	if opts.vision {
		gemini, err := services.NewGeminiService(ctx, services.GeminiOptions{
			APIKey:      cfg.Gemini.APIKey,
			Model:       cfg.Gemini.Model,
			EmbedModel:  cfg.Gemini.EmbedModel,
			MinInterval: cfg.Gemini.VisionMinInterval,
		}, log)
		if err != nil {
			return err
		}
		vision = gemini
	}

	screener, err := services.BuildScreener(services.ScreenerOptions{
		Readability: services.ReadabilityOptions{
			MinTextLength: cfg.Extraction.MinTextLength,
			MinAlnumRatio: cfg.Extraction.MinAlnumRatio,
		},
		NameScanLines:   cfg.Extraction.NameScanLines,
		AcceptThreshold: cfg.Scoring.AcceptThreshold,
		SkillsFile:      cfg.Extraction.SkillsFile,
	}, vision, log)
	if err != nil {
		return err
	}

	source, err := newSource(ctx, opts, cfg)
	if err != nil {
		return err
	}

	rows, runErr := services.NewBatchScreener(screener, opts.concurrency, log).Run(ctx, source, opts.requirements())
	if rows == nil {
		return runErr
	}

	out := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := services.WriteReport(out, rows); err != nil {
		return err
	}

	log.Info("report written", zap.Int("rows", len(rows)), zap.String("out", opts.out))
	return runErr
}

func newSource(ctx context.Context, opts *options, cfg *config.Config) (services.DocumentSource, error) {
	if opts.dir != "" {
		return services.NewLocalSource(opts.dir), nil
	}

	return services.NewS3Source(ctx, services.S3SourceOptions{
		Bucket:          opts.s3Bucket,
		Prefix:          opts.s3Prefix,
		Endpoint:        cfg.S3.Endpoint,
		Region:          cfg.S3.Region,
		AccessKeyID:     cfg.S3.AccessKeyID,
		SecretAccessKey: cfg.S3.SecretAccessKey,
	})
}
