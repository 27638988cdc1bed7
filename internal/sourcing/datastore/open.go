package datastore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/build-flow-labs/vendorscore/internal/sourcing/config"
)

// Open builds the source selected by cfg.Kind.
func Open(ctx context.Context, cfg config.SourceConfig, logger *slog.Logger) (Source, error) {
	switch cfg.Kind {
	case config.SourceFile:
		return NewFileSource(cfg.File.Path, logger), nil
	case config.SourceNotion:
		n := cfg.Notion
		client := NewClient(n.Token,
			WithBaseURL(n.BaseURL),
			WithVersion(n.Version),
			WithMinInterval(n.MinInterval),
			WithMaxRetries(n.MaxRetries),
			WithTimeout(n.Timeout),
			WithClientLogger(logger),
		)
		return NewNotionSource(client, n.VendorsDatabase, n.PartsDatabase, n.Concurrency, logger), nil
	case config.SourceGitHub:
		g := cfg.GitHub
		return NewGitHubSource(ctx, GitHubOptions{
			Owner:   g.Owner,
			Repo:    g.Repo,
			Ref:     g.Ref,
			Path:    g.Path,
			Token:   g.Token,
			BaseURL: g.BaseURL,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}
