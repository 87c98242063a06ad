package utilities

func Map[T any, U any](arr []T, fn func(T) U) []U {
	mapped := make([]U, len(arr))
	for i, x := range arr {
		mapped[i] = fn(x)
	}

	return mapped
}

// Dedupe returns the distinct elements of arr, keeping first occurrences.
func Dedupe[T comparable](arr []T) []T {
	seen := make(map[T]struct{}, len(arr))
	out := make([]T, 0, len(arr))
	for _, x := range arr {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
