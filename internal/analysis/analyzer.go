// Package analysis reviews changes to versioned protocol definition files
// and reports them as commit or pull-request comments.
//
// Definitions live under a directory (protocol/ by default) and are named
// <name>.<version>.def. Adding version N of a definition is diffed against
// version N-1 at the same ref.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/xihi/internal/ghapp"
)

var defNamePattern = regexp.MustCompile(`^([^.]+)\.(\d+)\.def$`)

// Report collects what changed in the definitions of one ref.
type Report struct {
	NewDefs    []string
	Modified   []string
	Removed    []string
	NoPrevious []string
	Unknown    []string
	Diffs      []DefinitionDiff
}

// DefinitionDiff is the unified diff from Version-1 to Version of Name.
type DefinitionDiff struct {
	Name    string
	Version int
	Diff    string
}

type definition struct {
	name    string
	version int
}

// Analyzer builds Reports for refs.
type Analyzer struct {
	dir          string
	contextLines int
	logger       *slog.Logger
}

// NewAnalyzer creates an Analyzer for definitions under dir.
func NewAnalyzer(dir string, contextLines int, logger *slog.Logger) *Analyzer {
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	return &Analyzer{dir: dir, contextLines: contextLines, logger: logger}
}

// Analyze inspects the changed files of ref. Fetching fails the whole
// report: a partial report would misstate the change.
func (a *Analyzer) Analyze(ctx context.Context, client RepoClient, owner, repo, ref string, files ghapp.FileChanges) (*Report, error) {
	report := &Report{
		Modified: a.relative(files.Modified),
		Removed:  a.relative(files.Removed),
	}

	var updated []definition
	for _, file := range a.relative(files.Added) {
		m := defNamePattern.FindStringSubmatch(file)
		if m == nil {
			report.Unknown = append(report.Unknown, file)
			continue
		}
		version, err := strconv.Atoi(m[2])
		if err != nil {
			report.Unknown = append(report.Unknown, file)
			continue
		}
		if version == 1 {
			report.NewDefs = append(report.NewDefs, file)
			continue
		}
		updated = append(updated, definition{name: m[1], version: version})
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, def := range updated {
		g.Go(func() error {
			oldFile := a.path(def.name, def.version-1)
			newFile := a.path(def.name, def.version)

			oldData, err := client.GetContent(gctx, owner, repo, oldFile, ref)
			if errors.Is(err, ghapp.ErrNotFound) {
				mu.Lock()
				report.NoPrevious = append(report.NoPrevious, strings.TrimPrefix(newFile, a.dir))
				mu.Unlock()
				return nil
			}
			if err != nil {
				return fmt.Errorf("get old version contents: %w", err)
			}

			newData, err := client.GetContent(gctx, owner, repo, newFile, ref)
			if err != nil {
				return fmt.Errorf("get new version contents: %w", err)
			}

			diff, err := unifiedDiff("a/"+oldFile, "b/"+newFile, oldData, newData, a.contextLines)
			if err != nil {
				return fmt.Errorf("diff %s: %w", newFile, err)
			}

			mu.Lock()
			report.Diffs = append(report.Diffs, DefinitionDiff{Name: def.name, Version: def.version, Diff: diff})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("analyze %s/%s@%s: %w", owner, repo, ref, err)
	}

	return report, nil
}

// relative keeps files under the definition dir, stripped of the prefix.
func (a *Analyzer) relative(files []string) []string {
	var out []string
	for _, f := range files {
		if strings.HasPrefix(f, a.dir) {
			out = append(out, strings.TrimPrefix(f, a.dir))
		}
	}
	return out
}

func (a *Analyzer) path(name string, version int) string {
	return fmt.Sprintf("%s%s.%d.def", a.dir, name, version)
}

func unifiedDiff(fromFile, toFile, a, b string, contextLines int) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(a),
		B:        splitLines(b),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  contextLines,
	})
}

// noNewlineMarker follows a final line that lacks its newline, as in
// diff(1) output.
const noNewlineMarker = "\\ No newline at end of file\n"

// splitLines splits s keeping line endings. A final line without a newline
// carries the marker, so it differs from the same line with one.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n" + noNewlineMarker
	}
	return lines
}

// Noteworthy reports whether the report deserves a comment.
func (r *Report) Noteworthy() bool {
	return len(r.NoPrevious) > 0 || len(r.Unknown) > 0 || len(r.Diffs) > 0
}

// Render formats the report as a Markdown comment. forPR switches the
// heading wording from a single commit to a pull request.
func (r *Report) Render(forPR bool) string {
	var summary []string
	if len(r.NewDefs) > 0 {
		summary = append(summary, makeList("Added new definition:", r.NewDefs))
	}
	if len(r.Modified) > 0 {
		summary = append(summary, makeList("Modified existing version:", r.Modified))
	}
	if len(r.Removed) > 0 {
		summary = append(summary, makeList("Removed:", r.Removed))
	}

	var warnings []string
	if len(r.NoPrevious) > 0 {
		warnings = append(warnings, makeList("Previous version not found:", r.NoPrevious))
	}
	if len(r.Unknown) > 0 {
		warnings = append(warnings, makeList("Invalid filename format:", r.Unknown))
	}

	diffs := append([]DefinitionDiff(nil), r.Diffs...)
	sort.SliceStable(diffs, func(i, j int) bool {
		if diffs[i].Name != diffs[j].Name {
			return diffs[i].Name < diffs[j].Name
		}
		return diffs[i].Version < diffs[j].Version
	})

	heading := "Version analysis for protocol definitions in this commit:"
	if forPR {
		heading = "Version analysis for protocol definitions from applying this PR:"
	}

	body := []string{heading}
	if len(summary) > 0 {
		body = append(body, "## Summary")
		body = append(body, summary...)
	}
	if len(warnings) > 0 {
		body = append(body, "## Warnings")
		body = append(body, warnings...)
	}
	if len(diffs) > 0 {
		body = append(body, "## Diffs")
		for _, d := range diffs {
			body = append(body, fmt.Sprintf("### `%s` %d => %d\n```diff\n%s```", d.Name, d.Version-1, d.Version, d.Diff))
		}
	}

	return strings.Join(body, "\n\n")
}

func makeList(header string, files []string) string {
	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	lines := []string{header}
	for _, f := range sorted {
		lines = append(lines, "- `"+f+"`")
	}
	return strings.Join(lines, "\n")
}
