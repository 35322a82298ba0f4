package utils

// NormalizeIdentifier converts the name of an identifier (graph, node or tensor name) to a valid one:
// only letters, digits, and underscores are allowed.
//
// Invalid characters are replaced with underscores.
// If the name starts with a digit, it is prefixed with an underscore.
func NormalizeIdentifier(name string) string {
	if name == "" {
		return ""
	}
	result := make([]rune, 0, len(name)+1)
	if name[0] >= '0' && name[0] <= '9' {
		result = append(result, '_')
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			result = append(result, r)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}

// Integer is the constraint used by the small arithmetic helpers below.
type Integer interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

// CeilDiv returns ceil(a/b) for non-negative a and positive b.
func CeilDiv[T Integer](a, b T) T {
	return (a + b - 1) / b
}

// RoundUp rounds a up to the next multiple of b.
func RoundUp[T Integer](a, b T) T {
	return CeilDiv(a, b) * b
}

// Product returns the product of all values, 1 for an empty list.
func Product[T Integer](values ...T) T {
	p := T(1)
	for _, v := range values {
		p *= v
	}
	return p
}
