package planner

// arena стек фиксированной ёмкости с адресацией по индексу и единственной
// операцией усечения
type arena[T any] struct {
	items []T
}

func newArena[T any](capacity int) arena[T] {
	return arena[T]{items: make([]T, 0, capacity)}
}

func (a *arena[T]) len() int { return len(a.items) }

func (a *arena[T]) push(v T) *T {
	if len(a.items) == cap(a.items) {
		panic("planner: переполнение стека")
	}
	a.items = append(a.items, v)
	return &a.items[len(a.items)-1]
}

func (a *arena[T]) at(i int) *T { return &a.items[i] }

func (a *arena[T]) top() *T { return &a.items[len(a.items)-1] }

func (a *arena[T]) truncate(n int) {
	if n > len(a.items) {
		panic("planner: усечение стека вверх")
	}
	a.items = a.items[:n]
}
