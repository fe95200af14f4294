package services

// SampleEvenly returns at most k items spread evenly across items,
// always starting with the first. Order is preserved.
// When k >= len(items) every item is returned.
func SampleEvenly[T any](items []T, k int) []T {
	n := len(items)
	if k <= 0 || n == 0 {
		return nil
	}
	if k >= n {
		out := make([]T, n)
		copy(out, items)
		return out
	}

	out := make([]T, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, items[i*n/k])
	}
	return out
}
