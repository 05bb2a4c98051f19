package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros returns a zero-filled tensor with the given shape.
func Zeros(shape Shape) *RawTensor {
	return NewRaw(shape)
}

// Ones returns a tensor filled with 1.
func Ones(shape Shape) *RawTensor {
	t := NewRaw(shape)
	t.Fill(1)
	return t
}

// Full returns a tensor filled with v.
func Full(shape Shape, v float32) *RawTensor {
	t := NewRaw(shape)
	t.Fill(v)
	return t
}

// Scalar returns a one-element tensor holding v.
func Scalar(v float32) *RawTensor {
	t := NewRaw(Shape{1})
	t.data[0] = v
	return t
}

// FromSlice copies data into a new tensor with the given shape.
func FromSlice(data []float32, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("tensor: shape %v requires %d elements, got %d", shape, shape.NumElements(), len(data))
	}
	t := NewRaw(shape)
	copy(t.data, data)
	return t, nil
}

// Randn fills a new tensor with samples from N(0, std^2) using rng.
func Randn(shape Shape, std float64, rng *rand.Rand) *RawTensor {
	t := NewRaw(shape)
	for i := range t.data {
		t.data[i] = float32(rng.NormFloat64() * std)
	}
	return t
}
