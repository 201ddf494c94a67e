package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"trackboard/blobstore"
	"trackboard/config"
	"trackboard/internal/logging"
	"trackboard/storage"
	"trackboard/summarizer"
	"trackboard/timelog"
	"trackboard/transcript"
)

const userAgent = "trackboard/1.0"

// app bundles the collaborators every command builds from the loaded config.
// Suggester and Transcripts stay nil when no model API key is configured.
type app struct {
	cfg         *config.Config
	logger      *slog.Logger
	store       storage.Store
	files       *blobstore.Store
	timeLogs    *timelog.Service
	suggester   *summarizer.Client
	transcripts *transcript.Service
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return nil, err
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	store, err := storage.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}

	files, err := blobstore.NewOS(cfg.Files.Dir, cfg.PublicBaseURL())
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		files:    files,
		timeLogs: timelog.NewService(store, timelog.WithLogger(logger)),
	}

	if !cfg.LLM.Enabled() {
		logger.Debug("llm disabled, summarize and sync are unavailable")
		return a, nil
	}
	completer, err := summarizer.NewAnthropic(cfg.LLM)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.suggester = summarizer.New(completer)

	fetcher, err := transcript.NewFetcher(transcript.FetcherConfig{
		AllowedPrefixes: cfg.Transcript.AllowedPrefixes,
		Timeout:         cfg.Transcript.Timeout,
		UserAgent:       userAgent,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.transcripts = transcript.NewService(fetcher, a.suggester, a.timeLogs, logger)
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) requireModel() error {
	if a.suggester == nil {
		return errors.New("no language model configured: set llm.api_key or TRACKBOARD_LLM_API_KEY")
	}
	return nil
}

// deleteProject removes the project rows and then its files. Leftover files
// are reported but do not fail the deletion.
func (a *app) deleteProject(ctx context.Context, projectID string) error {
	if err := a.store.DeleteProject(ctx, projectID); err != nil {
		return err
	}
	if err := a.files.DeleteProject(ctx, projectID); err != nil {
		a.logger.WarnContext(ctx, "remove project files failed", slog.String("project_id", projectID), slog.Any("error", err))
	}
	return nil
}
