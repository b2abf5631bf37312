package ghapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v68/github"
)

var (
	// ErrNotFound reports a file that does not exist at the requested ref.
	ErrNotFound = errors.New("not found")

	// ErrUnknownEncoding reports file content in an encoding other than base64.
	ErrUnknownEncoding = errors.New("unknown content encoding")
)

// FileChanges buckets changed file paths by status.
type FileChanges struct {
	Added    []string
	Modified []string
	Removed  []string
}

// Client is an installation-authenticated GitHub API client.
type Client struct {
	gh *gh.Client
}

// GetContent returns the text of path at ref.
func (c *Client) GetContent(ctx context.Context, owner, repo, path, ref string) (string, error) {
	file, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &gh.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%s/%s:%s@%s: %w", owner, repo, path, ref, ErrNotFound)
		}
		return "", fmt.Errorf("get %q from %s/%s#%s: %w", path, owner, repo, ref, err)
	}
	if file == nil {
		return "", fmt.Errorf("get %q from %s/%s#%s: path is a directory", path, owner, repo, ref)
	}

	if enc := file.GetEncoding(); enc != "base64" {
		return "", fmt.Errorf("get %q from %s/%s#%s: %w %q", path, owner, repo, ref, ErrUnknownEncoding, enc)
	}

	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("decode %q: %w", path, err)
	}
	return content, nil
}

// CreateCommitComment comments on a commit and returns the comment URL.
func (c *Client) CreateCommitComment(ctx context.Context, owner, repo, sha, body string) (string, error) {
	comment, _, err := c.gh.Repositories.CreateComment(ctx, owner, repo, sha, &gh.RepositoryComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return "", fmt.Errorf("comment on %s/%s@%s: %w", owner, repo, sha, err)
	}
	return comment.GetHTMLURL(), nil
}

// CreateIssueComment comments on an issue or pull request and returns the comment URL.
func (c *Client) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) (string, error) {
	comment, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{
		Body: gh.Ptr(body),
	})
	if err != nil {
		return "", fmt.Errorf("comment on %s/%s#%d: %w", owner, repo, number, err)
	}
	return comment.GetHTMLURL(), nil
}

// ListPullRequestFiles lists every changed file in a pull request.
// Statuses other than added, modified and removed are skipped.
func (c *Client) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) (FileChanges, error) {
	var changes FileChanges
	opts := &gh.ListOptions{PerPage: 100}

	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return FileChanges{}, fmt.Errorf("list files of %s/%s#%d: %w", owner, repo, number, err)
		}

		for _, f := range files {
			switch f.GetStatus() {
			case "added":
				changes.Added = append(changes.Added, f.GetFilename())
			case "modified":
				changes.Modified = append(changes.Modified, f.GetFilename())
			case "removed":
				changes.Removed = append(changes.Removed, f.GetFilename())
			}
		}

		if resp.NextPage == 0 {
			return changes, nil
		}
		opts.Page = resp.NextPage
	}
}

func parseBaseURL(raw string) (*url.URL, error) {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid github api url %q: %w", raw, err)
	}
	return u, nil
}
