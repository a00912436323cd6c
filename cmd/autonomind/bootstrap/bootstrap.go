// Package bootstrap wires the shared pieces every autonomind subcommand
// needs: config, logger, transport client, history store, and the session
// container built on top of them.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/autonomind/autonomind-go/chat"
	"github.com/autonomind/autonomind-go/client"
	"github.com/autonomind/autonomind-go/pkg/logger"
	"github.com/autonomind/autonomind-go/store"
)

// Flags are the connection flags shared by subcommands.
type Flags struct {
	API     string
	Config  string
	History string
	Lang    string
	Debug   bool
}

// Register binds the shared flags on cmd.
func (f *Flags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.API, "api", "", "Backend base URL (overrides config and "+chat.EnvBaseURL+")")
	cmd.Flags().StringVarP(&f.Config, "config", "c", "", "Path to TOML config file")
	cmd.Flags().StringVar(&f.History, "history", "", "Path to the conversation cache (SQLite)")
	cmd.Flags().StringVar(&f.Lang, "lang", "", "Locale code for replies")
	cmd.Flags().BoolVar(&f.Debug, "debug", false, "Enable debug logging")
}

// Runtime is everything a subcommand runs against.
type Runtime struct {
	Session *chat.Session
	Logger  *zap.Logger
	store   store.Store
}

// Close releases the runtime's resources.
func (r *Runtime) Close() error {
	r.Logger.Sync() //nolint:errcheck // stderr sync failure is unactionable
	return r.store.Close()
}

// Build resolves configuration and constructs the session runtime, restoring
// any persisted conversation.
func Build(ctx context.Context, f Flags, opts ...chat.Option) (*Runtime, error) {
	cfg, err := chat.LoadConfig(f.Config)
	if err != nil {
		return nil, err
	}

	log := logger.New(f.Debug || cfg.Debug)

	baseURL := cfg.ResolveBaseURL(f.API)
	log.Debug("resolved backend", zap.String("base_url", baseURL))

	historyPath, err := cfg.ResolveHistoryPath(f.History)
	if err != nil {
		return nil, err
	}
	st, err := store.NewSQLite(historyPath)
	if err != nil {
		return nil, fmt.Errorf("open conversation cache: %w", err)
	}

	lang := cfg.Language
	if f.Lang != "" {
		lang = f.Lang
	}

	opts = append([]chat.Option{
		chat.WithLogger(log),
		chat.WithLanguage(lang),
	}, opts...)

	session, err := chat.New(ctx, client.New(baseURL, log), st, opts...)
	if err != nil {
		st.Close()
		return nil, err
	}

	return &Runtime{Session: session, Logger: log, store: st}, nil
}
