package util

// Stack is a LIFO of screens or any other values; the zero value is empty and ready to use.
type Stack[T any] struct {
	items []T
}

func (s *Stack[T]) Push(item T) {
	s.items = append(s.items, item)
}

// Pop removes the top item. An empty stack yields the zero value.
func (s *Stack[T]) Pop() T {
	item := s.Peek()
	if n := len(s.items); n > 0 {
		s.items = s.items[:n-1]
	}
	return item
}

// Peek returns the top item without removing it.
func (s *Stack[T]) Peek() (item T) {
	if n := len(s.items); n > 0 {
		item = s.items[n-1]
	}
	return
}

func (s *Stack[T]) Len() int {
	return len(s.items)
}
