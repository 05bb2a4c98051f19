package tensor

import "fmt"

// Shape represents tensor dimensions in row-major order.
type Shape []int

// NumElements returns the total number of elements for this shape.
// The empty shape has one element (a scalar).
func (s Shape) NumElements() int {
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Rank returns the number of dimensions.
func (s Shape) Rank() int {
	return len(s)
}

// Equal reports whether two shapes have identical dimensions.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the shape.
func (s Shape) Clone() Shape {
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// String returns a human-readable shape like "[2 3 4]".
func (s Shape) String() string {
	return fmt.Sprintf("%v", []int(s))
}
