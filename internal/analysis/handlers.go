package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	gh "github.com/google/go-github/v68/github"

	"github.com/mattjoyce/xihi/internal/events"
	"github.com/mattjoyce/xihi/internal/ghapp"
)

const (
	EventPush        = "push"
	EventPullRequest = "pull_request"
)

// Handlers turns push and pull_request deliveries into analysis comments.
type Handlers struct {
	connector Connector
	analyzer  *Analyzer
	logger    *slog.Logger
}

// NewHandlers creates the push and pull_request subscribers.
func NewHandlers(connector Connector, analyzer *Analyzer, logger *slog.Logger) *Handlers {
	return &Handlers{connector: connector, analyzer: analyzer, logger: logger}
}

// Register subscribes the handlers on b.
func (h *Handlers) Register(b *events.Builder) *events.Builder {
	return b.
		Subscribe(EventPush, "protocol-analysis", events.SubscriberFunc(h.HandlePush)).
		Subscribe(EventPullRequest, "protocol-analysis", events.SubscriberFunc(h.HandlePullRequest))
}

// HandlePush analyzes every commit of a push concurrently and comments on
// each commit with noteworthy changes. A failing commit does not stop the
// others; all failures are returned joined.
func (h *Handlers) HandlePush(ctx context.Context, ev events.Event) error {
	var push gh.PushEvent
	if err := ev.Decode(&push); err != nil {
		return err
	}

	owner, repo := ownerLogin(push.GetRepo().GetOwner()), push.GetRepo().GetName()
	logger := h.logger.With("event", ev.Name, "delivery_id", ev.DeliveryID, "repo", owner+"/"+repo)

	if len(push.Commits) == 0 {
		logger.Debug("push without commits")
		return nil
	}

	client, err := h.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect to github: %w", err)
	}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, commit := range push.Commits {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sha := commit.GetID()
			files := ghapp.FileChanges{Added: commit.Added, Modified: commit.Modified, Removed: commit.Removed}
			if err := h.commentOnCommit(ctx, client, owner, repo, sha, files, logger); err != nil {
				logger.Warn("commit analysis failed", "sha", sha, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("commit %s: %w", sha, err))
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

func (h *Handlers) commentOnCommit(ctx context.Context, client RepoClient, owner, repo, sha string, files ghapp.FileChanges, logger *slog.Logger) error {
	report, err := h.analyzer.Analyze(ctx, client, owner, repo, sha, files)
	if err != nil {
		return err
	}
	if !report.Noteworthy() {
		logger.Debug("nothing noteworthy", "sha", sha)
		return nil
	}

	url, err := client.CreateCommitComment(ctx, owner, repo, sha, report.Render(false))
	if err != nil {
		return err
	}
	logger.Info("created commit comment", "sha", sha, "url", url)
	return nil
}

// HandlePullRequest analyzes the head of an opened or synchronized pull
// request. Other actions are ignored.
func (h *Handlers) HandlePullRequest(ctx context.Context, ev events.Event) error {
	var pr gh.PullRequestEvent
	if err := ev.Decode(&pr); err != nil {
		return err
	}

	owner, repo := ownerLogin(pr.GetRepo().GetOwner()), pr.GetRepo().GetName()
	number := pr.GetNumber()
	if number == 0 {
		number = pr.GetPullRequest().GetNumber()
	}
	logger := h.logger.With("event", ev.Name, "delivery_id", ev.DeliveryID, "repo", owner+"/"+repo, "pr", number)

	switch pr.GetAction() {
	case "opened", "synchronize":
	default:
		logger.Debug("ignoring pull request action", "action", pr.GetAction())
		return nil
	}

	client, err := h.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect to github: %w", err)
	}

	files, err := client.ListPullRequestFiles(ctx, owner, repo, number)
	if err != nil {
		return err
	}

	sha := pr.GetPullRequest().GetHead().GetSHA()
	report, err := h.analyzer.Analyze(ctx, client, owner, repo, sha, files)
	if err != nil {
		return err
	}
	if !report.Noteworthy() {
		logger.Debug("nothing noteworthy", "sha", sha)
		return nil
	}

	url, err := client.CreateIssueComment(ctx, owner, repo, number, report.Render(true))
	if err != nil {
		return err
	}
	logger.Info("created pull request comment", "sha", sha, "url", url)
	return nil
}

// ownerLogin falls back to the name field older push payloads carry.
func ownerLogin(u *gh.User) string {
	if login := u.GetLogin(); login != "" {
		return login
	}
	return u.GetName()
}
