package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

// GitHubSource reads a dataset file from a GitHub repository.
type GitHubSource struct {
	client *github.Client
	owner  string
	repo   string
	ref    string
	path   string
	logger *slog.Logger
}

// GitHubOptions locate the dataset file.
type GitHubOptions struct {
	Owner   string
	Repo    string
	Ref     string // branch, tag or SHA; empty means the default branch
	Path    string
	Token   string // optional for public repositories
	BaseURL string // GitHub Enterprise or test server
}

// NewGitHubSource creates a source. An empty token gives an unauthenticated
// client.
func NewGitHubSource(ctx context.Context, opts GitHubOptions, logger *slog.Logger) (*GitHubSource, error) {
	var hc *http.Client
	if opts.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token})
		hc = oauth2.NewClient(ctx, ts)
	}
	client := github.NewClient(hc)

	if opts.BaseURL != "" {
		base := opts.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("parsing GitHub base URL: %w", err)
		}
		client.BaseURL = u
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &GitHubSource{
		client: client,
		owner:  opts.Owner,
		repo:   opts.Repo,
		ref:    opts.Ref,
		path:   opts.Path,
		logger: logger,
	}, nil
}

func (s *GitHubSource) Name() string { return "github" }

func (s *GitHubSource) Fetch(ctx context.Context) (*Dataset, error) {
	op := fmt.Sprintf("get %s/%s/%s", s.owner, s.repo, s.path)

	var getOpts *github.RepositoryContentGetOptions
	if s.ref != "" {
		getOpts = &github.RepositoryContentGetOptions{Ref: s.ref}
	}
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, s.path, getOpts)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		return nil, &SourceError{Source: s.Name(), Op: op, Status: status, Err: err}
	}
	if file == nil {
		return nil, &SourceError{Source: s.Name(), Op: op, Err: fmt.Errorf("%s is a directory", s.path)}
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Op: op, Err: fmt.Errorf("decoding content: %w", err)}
	}
	ds, err := DecodeDataset([]byte(content), FormatForPath(s.path))
	if err != nil {
		return nil, &SourceError{Source: s.Name(), Op: op, Err: err}
	}
	if n := ds.clean(); n > 0 {
		s.logger.Warn("dropped records without identifiers", "count", n)
	}
	s.logger.Info("fetched dataset", "source", s.Name(), "repo", s.owner+"/"+s.repo, "ref", s.ref, "vendors", len(ds.Vendors), "parts", len(ds.Parts))
	return ds, nil
}
