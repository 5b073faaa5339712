// Package navigation tracks where a user is while drilling into scan results.
//
// A State is an immutable snapshot: every transition rescans from disk and
// returns a new State, leaving the previous one valid. A Session serialises
// transitions for a single UI.
package navigation

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/idelchi/dirdive/internal/dirstat"
)

var (
	// ErrNotInResults is returned when an entry is not part of the current results.
	ErrNotInResults = errors.New("entry is not in the current results")
	// ErrAtRoot is returned when moving back or up from the scan root.
	ErrAtRoot = errors.New("already at the scan root")
)

// State is a snapshot of a navigation session.
type State struct {
	// Root is the directory the session started from.
	Root string
	// Current is the directory whose subdirectories are in Result.
	Current string
	// Result holds the scan of Current.
	Result dirstat.Result
	// Selected is the highlighted entry, if any.
	Selected *dirstat.Entry
}

// AtRoot reports whether the current directory is the scan root.
func (s State) AtRoot() bool {
	return s.Current == s.Root
}

// Select returns a copy of s with entry highlighted. No I/O is performed.
func (s State) Select(entry dirstat.Entry) (State, error) {
	if !s.Result.Contains(entry) {
		return State{}, ErrNotInResults
	}

	s.Selected = &entry

	return s, nil
}

// Breadcrumbs returns the path elements from Root down to Current.
func (s State) Breadcrumbs() []string {
	crumbs := []string{s.Root}

	rel, err := filepath.Rel(s.Root, s.Current)
	if err != nil || rel == "." {
		return crumbs
	}

	path := s.Root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		path = filepath.Join(path, part)
		crumbs = append(crumbs, path)
	}

	return crumbs
}

// within reports whether path is root or below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
