package ring

// Buffer is a fixed-capacity append-only ring buffer.
// When full, appending evicts the oldest element. Not safe for concurrent
// use; callers hold their own locks.
type Buffer[T any] struct {
	items []T
	head  int
	size  int
}

func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Append adds an element, evicting the oldest when at capacity.
func (b *Buffer[T]) Append(item T) {
	tail := (b.head + b.size) % len(b.items)
	b.items[tail] = item
	if b.size < len(b.items) {
		b.size++
	} else {
		b.head = (b.head + 1) % len(b.items)
	}
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int {
	return b.size
}

// Cap returns the fixed capacity.
func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

// Oldest returns up to limit elements, oldest first. limit <= 0 returns all.
func (b *Buffer[T]) Oldest(limit int) []T {
	if limit <= 0 || limit > b.size {
		limit = b.size
	}
	out := make([]T, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, b.items[(b.head+i)%len(b.items)])
	}
	return out
}

// Newest returns up to limit elements, newest first. limit <= 0 returns all.
func (b *Buffer[T]) Newest(limit int) []T {
	if limit <= 0 || limit > b.size {
		limit = b.size
	}
	out := make([]T, 0, limit)
	for i := 0; i < limit; i++ {
		out = append(out, b.items[(b.head+b.size-1-i+len(b.items))%len(b.items)])
	}
	return out
}

// Do calls fn for each element, oldest first.
func (b *Buffer[T]) Do(fn func(T)) {
	for i := 0; i < b.size; i++ {
		fn(b.items[(b.head+i)%len(b.items)])
	}
}
