package analysis

import (
	"context"

	"github.com/mattjoyce/xihi/internal/ghapp"
)

//go:generate mockgen -destination=mocks/mock_analysis.go -package=mocks github.com/mattjoyce/xihi/internal/analysis Connector,RepoClient

// RepoClient is the subset of the GitHub API the analysis needs.
type RepoClient interface {
	GetContent(ctx context.Context, owner, repo, path, ref string) (string, error)
	CreateCommitComment(ctx context.Context, owner, repo, sha, body string) (string, error)
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (string, error)
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) (ghapp.FileChanges, error)
}

// Connector yields a freshly authenticated RepoClient per event.
type Connector interface {
	Connect(ctx context.Context) (RepoClient, error)
}

// ConnectorFunc adapts a function to a Connector.
type ConnectorFunc func(ctx context.Context) (RepoClient, error)

// Connect calls f(ctx).
func (f ConnectorFunc) Connect(ctx context.Context) (RepoClient, error) {
	return f(ctx)
}
