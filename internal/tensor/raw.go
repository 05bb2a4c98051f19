// Package tensor provides the flat float32 tensor type the trainer is built
// on.
//
// RawTensor is deliberately minimal: a contiguous row-major float32 buffer
// plus a shape. It carries no dtype dispatch, no device tag and no gradient
// slot. Gradients live in the autodiff tape's result map, keyed by the
// *RawTensor identity of each graph leaf, so pointer identity of a RawTensor
// is meaningful: cloning produces a new graph node.
package tensor

import "fmt"

// RawTensor is a contiguous row-major float32 buffer with a shape.
type RawTensor struct {
	data  []float32
	shape Shape
}

// NewRaw allocates a zero-filled tensor with the given shape.
func NewRaw(shape Shape) *RawTensor {
	return &RawTensor{
		data:  make([]float32, shape.NumElements()),
		shape: shape.Clone(),
	}
}

// Data returns the underlying buffer. Mutations are visible to every holder
// of this tensor.
func (t *RawTensor) Data() []float32 {
	return t.data
}

// Shape returns the tensor's shape. Callers must not mutate it.
func (t *RawTensor) Shape() Shape {
	return t.shape
}

// NumElements returns the total number of elements.
func (t *RawTensor) NumElements() int {
	return len(t.data)
}

// Rank returns the number of dimensions.
func (t *RawTensor) Rank() int {
	return len(t.shape)
}

// Clone returns a deep copy with a distinct buffer and graph identity.
func (t *RawTensor) Clone() *RawTensor {
	out := NewRaw(t.shape)
	copy(out.data, t.data)
	return out
}

// CopyFrom overwrites this tensor's buffer with the contents of src.
// Shapes must match.
func (t *RawTensor) CopyFrom(src *RawTensor) {
	if !t.shape.Equal(src.shape) {
		panic(fmt.Sprintf("tensor: CopyFrom shape mismatch %v vs %v", t.shape, src.shape))
	}
	copy(t.data, src.data)
}

// Fill sets every element to v.
func (t *RawTensor) Fill(v float32) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Item returns the single element of a one-element tensor.
func (t *RawTensor) Item() float32 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor: Item on tensor with %d elements", len(t.data)))
	}
	return t.data[0]
}

// SetItem overwrites the single element of a one-element tensor.
func (t *RawTensor) SetItem(v float32) {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("tensor: SetItem on tensor with %d elements", len(t.data)))
	}
	t.data[0] = v
}

// WithShape returns a view sharing this tensor's buffer under a new shape
// with the same number of elements. The view is a fresh tensor identity:
// nothing on the tape connects it to the original, so it must not sit
// between recorded operations that need gradient flow.
func (t *RawTensor) WithShape(shape Shape) *RawTensor {
	if shape.NumElements() != len(t.data) {
		panic(fmt.Sprintf("tensor: WithShape %v incompatible with %d elements", shape, len(t.data)))
	}
	return &RawTensor{data: t.data, shape: shape.Clone()}
}
