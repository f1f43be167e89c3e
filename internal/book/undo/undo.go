// Package undo implements a snapshot-based undo/redo stack. Each recorded
// step pairs a user-facing description ("add transaction") with the state
// captured before the change, so undoing is a plain state swap.
package undo

// Stack holds undoable steps up to a fixed limit; the oldest steps fall off
// first. The zero value is not usable, construct with NewStack.
type Stack[T any] struct {
	limit  int
	past   []step[T]
	future []step[T]
}

type step[T any] struct {
	desc  string
	state T
}

// NewStack returns a stack keeping at most limit undo steps.
func NewStack[T any](limit int) *Stack[T] {
	if limit < 1 {
		limit = 1
	}
	return &Stack[T]{limit: limit}
}

// Push records the state captured before a change described by desc. Any
// redoable steps are discarded.
func (s *Stack[T]) Push(desc string, state T) {
	s.past = append(s.past, step[T]{desc: desc, state: state})
	if len(s.past) > s.limit {
		copy(s.past, s.past[1:])
		s.past = s.past[:s.limit]
	}
	s.future = nil
}

// Undo trades current for the most recent recorded state and returns it
// together with the undone step's description.
func (s *Stack[T]) Undo(current T) (T, string, bool) {
	if len(s.past) == 0 {
		var zero T
		return zero, "", false
	}
	top := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, step[T]{desc: top.desc, state: current})
	return top.state, top.desc, true
}

// Redo reverses the latest Undo.
func (s *Stack[T]) Redo(current T) (T, string, bool) {
	if len(s.future) == 0 {
		var zero T
		return zero, "", false
	}
	top := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, step[T]{desc: top.desc, state: current})
	return top.state, top.desc, true
}

// CanUndo reports whether at least one step can be undone.
func (s *Stack[T]) CanUndo() bool { return len(s.past) > 0 }

// CanRedo reports whether at least one undone step can be reapplied.
func (s *Stack[T]) CanRedo() bool { return len(s.future) > 0 }

// UndoDescription returns the description of the step Undo would revert.
func (s *Stack[T]) UndoDescription() string {
	if len(s.past) == 0 {
		return ""
	}
	return s.past[len(s.past)-1].desc
}

// RedoDescription returns the description of the step Redo would reapply.
func (s *Stack[T]) RedoDescription() string {
	if len(s.future) == 0 {
		return ""
	}
	return s.future[len(s.future)-1].desc
}

// Clear drops all recorded steps.
func (s *Stack[T]) Clear() {
	s.past = nil
	s.future = nil
}
