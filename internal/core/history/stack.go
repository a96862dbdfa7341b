package history

// Stack is a LIFO with a fixed capacity. Pushing onto a full stack evicts
// the oldest element.
type Stack[T any] struct {
	items []T
	limit int
}

// NewStack creates a stack holding at most limit items. A non-positive
// limit means unbounded.
func NewStack[T any](limit int) *Stack[T] {
	return &Stack[T]{limit: limit}
}

// Push adds v on top, dropping the bottom element if the stack is full.
func (s *Stack[T]) Push(v T) {
	s.items = append(s.items, v)
	if s.limit > 0 && len(s.items) > s.limit {
		copy(s.items, s.items[1:])
		var zero T
		s.items[len(s.items)-1] = zero
		s.items = s.items[:len(s.items)-1]
	}
}

// Pop removes and returns the top element.
func (s *Stack[T]) Pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	v := s.items[len(s.items)-1]
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	return v, true
}

// Peek returns the top element without removing it.
func (s *Stack[T]) Peek() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// Bottom returns the oldest element.
func (s *Stack[T]) Bottom() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[0], true
}

func (s *Stack[T]) Len() int { return len(s.items) }

func (s *Stack[T]) Clear() {
	clear(s.items)
	s.items = s.items[:0]
}
