package cset

// Stack is a simple LIFO stack. The zero value is an empty, ready to use
// stack; Of may also be set directly as a literal initializer, as ictiobus's
// parser drivers do for seeding a stack with a starting symbol.
type Stack[T any] struct {
	Of []T
}

// Push puts v on top of the stack.
func (s *Stack[T]) Push(v T) {
	s.Of = append(s.Of, v)
}

// Pop removes and returns the top of the stack. Panics if the stack is empty;
// callers are expected to check Len() first, the way ictiobus's parser loops
// do.
func (s *Stack[T]) Pop() T {
	top := s.Of[len(s.Of)-1]
	s.Of = s.Of[:len(s.Of)-1]
	return top
}

// Peek returns the top of the stack without removing it.
func (s *Stack[T]) Peek() T {
	return s.Of[len(s.Of)-1]
}

// PeekAt returns the element at depth i below the top (0 is the top).
func (s *Stack[T]) PeekAt(i int) T {
	return s.Of[len(s.Of)-1-i]
}

// Len returns the number of elements on the stack.
func (s *Stack[T]) Len() int {
	return len(s.Of)
}

// Empty returns whether the stack has no elements.
func (s *Stack[T]) Empty() bool {
	return len(s.Of) == 0
}
