// Package gitdiff resolves the diff a precommit check operates on, either
// from an explicit caller-supplied diff or from the staged changes of the
// working repository.
package gitdiff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/AmirShayegh/codex-claude-bridge/internal/review"
)

// NoStagedChangesMessage is the message carried by the empty-staged-diff
// sentinel. The precommit tool surface turns it into a non-error response;
// the CLI reports it as a regular error.
const NoStagedChangesMessage = "No staged changes found"

// ErrNoStagedChanges is the sentinel for an empty staged diff. It sits
// outside the CODE taxonomy: real git failures stay GIT_ERROR, while this
// value renders with the NO_STAGED_CHANGES prefix and is matched with
// errors.Is rather than by message.
var ErrNoStagedChanges = fmt.Errorf(
	"NO_STAGED_CHANGES: %s", NoStagedChangesMessage,
)

// IsNoStagedChanges reports whether err is the empty-staged-diff sentinel.
func IsNoStagedChanges(err error) bool {
	return errors.Is(err, ErrNoStagedChanges)
}

// Request carries the resolver inputs. AutoDiff defaults to true.
type Request struct {
	// Diff is an explicit diff. When non-nil it wins, even when empty.
	Diff *string

	// AutoDiff enables reading the staged diff from git when no explicit
	// diff is given.
	AutoDiff bool
}

// Resolver produces the diff for a precommit check.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (string, error)
}

// GitResolver resolves diffs by invoking the git binary in dir.
type GitResolver struct {
	// Dir is the repository directory; empty means the working
	// directory.
	Dir string
}

// Resolve implements Resolver. An explicit diff is used verbatim; otherwise
// the staged diff is read via git. An empty diff from either source is the
// NO_STAGED_CHANGES sentinel.
func (r *GitResolver) Resolve(ctx context.Context,
	req Request) (string, error) {

	if req.Diff != nil {
		if strings.TrimSpace(*req.Diff) == "" {
			return "", ErrNoStagedChanges
		}
		return *req.Diff, nil
	}

	if !req.AutoDiff {
		return "", review.E(review.CodeGitError,
			"auto_diff disabled and no diff provided")
	}

	cmd := exec.CommandContext(ctx, "git", "diff", "--cached")
	cmd.Dir = r.Dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", review.E(review.CodeGitError,
			"git diff --cached failed: %s", msg)
	}

	diff := string(out)
	if strings.TrimSpace(diff) == "" {
		return "", ErrNoStagedChanges
	}

	return diff, nil
}

// A compile-time assertion that GitResolver implements Resolver.
var _ Resolver = (*GitResolver)(nil)
