package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iamsmart/masterclass/internal/app"
	"github.com/iamsmart/masterclass/internal/engine"
	"github.com/iamsmart/masterclass/internal/llm"
	"github.com/iamsmart/masterclass/internal/remote"
	"github.com/iamsmart/masterclass/internal/tutor"
)

// runApp opens the store, starts the engine for the learner, and launches
// the TUI.
func runApp(cmd *cobra.Command) error {
	ctx := cmd.Context()
	logger := newLogger()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if r, _ := cmd.Flags().GetString("remote"); r != "" {
		cfg.RemoteURL = strings.TrimSuffix(r, "/")
	}
	if noHints, _ := cmd.Flags().GetBool("no-hints"); noHints {
		cfg.Hints = false
	}

	content, err := loadContent(cfg)
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}

	// The local store is opened even with a remote profile store: it keeps
	// the progress journal and LLM request events.
	st, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	eventRepo := st.EventRepo()

	var profiles engine.ProfileStore = st.ProfileRepo()
	if cfg.RemoteURL != "" {
		var client *remote.Client
		if cfg.RemoteToken != "" {
			client = remote.New(cfg.RemoteURL, cfg.RemoteToken)
		} else if client, err = remote.Login(ctx, cfg.RemoteURL, cfg.UserID); err != nil {
			var se *remote.StatusError
			if errors.As(err, &se) && se.Code == http.StatusForbidden {
				return fmt.Errorf("connect to %s: learner login is disabled; set MASTERCLASS_REMOTE_TOKEN to a token issued by an admin", cfg.RemoteURL)
			}
			return fmt.Errorf("connect to %s: %w", cfg.RemoteURL, err)
		}
		profiles = client
	}

	events := &engine.Recorder{}
	eng, err := engine.New(content, content, profiles, events,
		engine.WithJournal(eventRepo),
		engine.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	if err := eng.Start(ctx, cfg.UserID); err != nil {
		return fmt.Errorf("load progress for %s: %w", cfg.UserID, err)
	}

	var provider llm.Provider
	if cfg.Hints {
		provider, err = llm.NewFromEnv(ctx, eventRepo, logger)
		if err != nil {
			fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
			fmt.Fprintln(os.Stderr, "Tutor hints will be unavailable.")
		}
	}

	skip, _ := cmd.Flags().GetBool("no-splash")
	return app.Run(app.Options{
		Engine:     eng,
		Events:     events,
		Content:    content,
		Tutor:      tutor.New(provider),
		SkipSplash: skip,
	})
}
