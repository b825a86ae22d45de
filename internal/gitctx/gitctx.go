// Package gitctx captures best-effort git provenance for new entries: the
// repository, branch, commit, author, and detected project type of the
// directory an entry is added from. Every lookup degrades to an empty field
// on failure; nothing here returns an error to callers.
package gitctx

import (
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// Context is the provenance attached to an entry at creation time. All
// fields are optional.
type Context struct {
	Repo        string `json:"repo,omitempty"`
	Branch      string `json:"branch,omitempty"`
	CommitSHA   string `json:"commit_sha,omitempty"`
	Author      string `json:"author,omitempty"`
	ProjectType string `json:"project_type,omitempty"`
}

// shortSHALen truncates commit SHAs for display and storage.
const shortSHALen = 7

// remoteRepoRe extracts "owner/name" from https and ssh remote URLs.
var remoteRepoRe = regexp.MustCompile(`[/:]([^/:]+/[^/]+?)(?:\.git)?/?$`)

// Current returns the git context of the given directory. Fields that
// cannot be determined are left empty.
func Current(dir string) Context {
	var ctx Context

	if remote := runGit(dir, "remote", "get-url", "origin"); remote != "" {
		ctx.Repo = ParseRepoFromRemote(remote)
	}
	ctx.Branch = runGit(dir, "branch", "--show-current")
	if sha := runGit(dir, "rev-parse", "HEAD"); len(sha) >= shortSHALen {
		ctx.CommitSHA = sha[:shortSHALen]
	}
	ctx.Author = runGit(dir, "config", "user.name")
	ctx.ProjectType = DetectProjectType(dir)

	return ctx
}

// ParseRepoFromRemote extracts the owner/name repository slug from a git
// remote URL, or returns empty if the URL has no recognizable slug.
func ParseRepoFromRemote(remote string) string {
	m := remoteRepoRe.FindStringSubmatch(strings.TrimSpace(remote))
	if m == nil {
		return ""
	}
	return m[1]
}

// DetectProjectType inspects well-known manifest files to classify the
// project, returning empty when none match.
func DetectProjectType(dir string) string {
	markers := []struct {
		file string
		typ  string
	}{
		{"go.mod", "go"},
		{"package.json", "node"},
		{"Cargo.toml", "rust"},
		{"pyproject.toml", "python"},
		{"composer.json", "php"},
	}

	for _, m := range markers {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err == nil {
			return m.typ
		}
	}
	return ""
}

// runGit runs a git subcommand in dir and returns its trimmed stdout, or
// empty on any failure.
func runGit(dir string, args ...string) string {
	cmd := exec.Command("git", append([]string{"-C", dir}, args...)...)
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
