// Package vcs extracts a short source revision from the kernel tree
// for build reports and the history ledger.
package vcs

import (
	"fmt"

	git "github.com/go-git/go-git/v5"
)

// Describe returns "abc1234 (branch)" for the tree's HEAD, or just
// the short hash when HEAD is detached. Trees that are not git
// repositories degrade to an empty string; revision info is garnish,
// never a failure.
func Describe(dir string) string {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}

	ref, err := repo.Head()
	if err != nil {
		return ""
	}

	short := ref.Hash().String()[:7]
	if ref.Name().IsBranch() {
		return fmt.Sprintf("%s (%s)", short, ref.Name().Short())
	}
	return short
}
