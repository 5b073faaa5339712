package navigation

import (
	"context"
	"path/filepath"

	"github.com/idelchi/dirdive/internal/dirstat"
)

// Scanner measures the subdirectories of a directory.
type Scanner interface {
	Scan(ctx context.Context, dir string) (dirstat.Result, error)
}

// Navigator performs state transitions. It holds no state of its own.
type Navigator struct {
	scanner Scanner
}

// NewNavigator creates a Navigator backed by scanner.
func NewNavigator(scanner Scanner) Navigator {
	return Navigator{scanner: scanner}
}

// Start scans root and returns a fresh state positioned at it.
func (n Navigator) Start(ctx context.Context, root string) (State, error) {
	result, err := n.scanner.Scan(ctx, root)
	if err != nil {
		return State{}, err
	}

	return State{Root: result.Path, Current: result.Path, Result: result}, nil
}

// DrillInto makes entry the current directory. The root is unchanged.
func (n Navigator) DrillInto(ctx context.Context, s State, entry dirstat.Entry) (State, error) {
	if !s.Result.Contains(entry) {
		return State{}, ErrNotInResults
	}

	return n.visit(ctx, s, entry.Path)
}

// BackToRoot rescans the root and makes it current again.
func (n Navigator) BackToRoot(ctx context.Context, s State) (State, error) {
	if s.AtRoot() {
		return State{}, ErrAtRoot
	}

	return n.visit(ctx, s, s.Root)
}

// Up moves to the parent of the current directory, never above the root.
func (n Navigator) Up(ctx context.Context, s State) (State, error) {
	if s.AtRoot() {
		return State{}, ErrAtRoot
	}

	parent := filepath.Dir(s.Current)
	if !within(s.Root, parent) {
		parent = s.Root
	}

	return n.visit(ctx, s, parent)
}

// Refresh rescans the current directory.
func (n Navigator) Refresh(ctx context.Context, s State) (State, error) {
	return n.visit(ctx, s, s.Current)
}

func (n Navigator) visit(ctx context.Context, s State, dir string) (State, error) {
	result, err := n.scanner.Scan(ctx, dir)
	if err != nil {
		return State{}, err
	}

	return State{Root: s.Root, Current: dir, Result: result}, nil
}
