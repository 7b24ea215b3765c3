package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"therapy-notes/pkg/aggregator"
	"therapy-notes/pkg/api"
	"therapy-notes/pkg/attribution"
	"therapy-notes/pkg/config"
	"therapy-notes/pkg/llm"
	"therapy-notes/pkg/logger"
	"therapy-notes/pkg/pipeline"
	"therapy-notes/pkg/quality"
	"therapy-notes/pkg/segmenter"
	"therapy-notes/pkg/storage"
	"therapy-notes/pkg/summarizer"
	"therapy-notes/pkg/transcript"
	"therapy-notes/pkg/turns"
)

const usage = `usage:
  notes serve
  notes run [-in transcript.txt] [-out final_therapy_note.html]`

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve()
	case "run":
		err = run(args)
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Fatal().Err(err).Str("command", cmd).Msg("Command failed")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Setup(cfg.LogLevel, cfg.IsDevelopment())
	return cfg, nil
}

// newProcessor builds every stage around one shared service client.
func newProcessor(cfg *config.Config) (*pipeline.Processor, error) {
	gen, err := llm.NewOpenAI(cfg.LLM)
	if err != nil {
		return nil, err
	}

	splitter, err := segmenter.New(cfg.Pipeline.ChunkSize, cfg.Pipeline.ChunkOverlap)
	if err != nil {
		return nil, err
	}
	sentences, err := turns.NewSplitter()
	if err != nil {
		return nil, err
	}

	return &pipeline.Processor{
		Splitter: splitter,
		Attributor: attribution.New(gen, sentences, attribution.Options{
			Model:            cfg.LLM.AttributionModel,
			LabelMaxTokens:   cfg.LLM.LabelMaxTokens,
			RelabelMaxTokens: cfg.LLM.RelabelMaxTokens,
		}),
		Summarizer: summarizer.New(gen, summarizer.Options{
			Model:            cfg.LLM.SummaryModel,
			SummaryMaxTokens: cfg.LLM.SummaryMaxTokens,
			RefineMaxTokens:  cfg.LLM.RefineMaxTokens,
		}),
		Evaluator: quality.NewEvaluator(gen, quality.Options{
			Model:     cfg.LLM.EvaluationModel,
			MaxTokens: cfg.LLM.EvaluateMaxTokens,
		}),
		Composer: aggregator.New(gen, aggregator.Options{
			AggregateModel:     cfg.LLM.AggregateModel,
			MergeModel:         cfg.LLM.MergeModel,
			AggregateMaxTokens: cfg.LLM.AggregateMaxTokens,
			MergeMaxTokens:     cfg.LLM.MergeMaxTokens,
		}),
		AcceptScore: cfg.Pipeline.AcceptScore,
		Concurrency: cfg.Pipeline.SegmentConcurrency,
	}, nil
}

// run processes one transcript file and writes the HTML note. The output file
// is only touched when the whole run succeeds.
func run(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	in := fs.String("in", "transcript.txt", "transcript file to read")
	out := fs.String("out", "final_therapy_note.html", "HTML note to write")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	text, err := transcript.Load(*in)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Pipeline.ProcessingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pipeline.ProcessingTimeout)
		defer cancel()
	}

	logger.Info().Str("in", *in).Int("size", len(text)).Msg("Run: processing transcript")
	res, err := processor.Run(ctx, text)
	if err != nil {
		return err
	}

	for _, r := range res.Reports {
		event := logger.Info().Int("segment", r.SegmentIndex).Int("score", r.InitialScore)
		if r.RefinedScore != nil {
			event = event.Int("new_score", *r.RefinedScore).Bool("accepted", r.Accepted)
		}
		event.Msg("Run: segment scored")
	}

	if err := os.WriteFile(*out, []byte(res.HTML), 0644); err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}

	logger.Info().
		Int("segments", len(res.Segments)).
		Float64("mean_score", res.MeanScore).
		Str("out", *out).
		Msg("Run: note written")
	return nil
}

func serve() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	processor, err := newProcessor(cfg)
	if err != nil {
		return err
	}

	memStore := storage.NewMemoryStore()
	diskStore, err := storage.NewDiskStore(cfg.StoragePath)
	if err != nil {
		return err
	}
	defer diskStore.Close()

	manager := pipeline.NewManager(cfg.Pipeline, processor, memStore, diskStore)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		return fmt.Errorf("failed to start pipeline: %w", err)
	}
	defer manager.Stop()

	handlers := api.NewHandlers(manager, memStore, diskStore)

	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      api.NewRouter(handlers),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("Server exited")
	return nil
}
