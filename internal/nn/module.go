// Package nn implements the neural network layers and the compact GPT
// language model the trainer optimizes.
package nn

import (
	"fmt"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Module is anything with trainable parameters that can round-trip its
// state through a checkpoint.
type Module interface {
	// Parameters returns all trainable parameters in a stable order.
	Parameters() []*Parameter

	// StateDict returns a name -> tensor snapshot of the parameters.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies matching tensors into the parameters.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}

// stateDictOf builds a state dict from a parameter list.
func stateDictOf(params []*Parameter) map[string]*tensor.RawTensor {
	out := make(map[string]*tensor.RawTensor, len(params))
	for _, p := range params {
		out[p.Name()] = p.Tensor()
	}
	return out
}

// loadStateDictInto copies stateDict tensors into params by name.
// Every parameter must be present with a matching shape.
func loadStateDictInto(params []*Parameter, stateDict map[string]*tensor.RawTensor) error {
	for _, p := range params {
		src, ok := stateDict[p.Name()]
		if !ok {
			return fmt.Errorf("nn: state dict missing parameter %q", p.Name())
		}
		if !src.Shape().Equal(p.Tensor().Shape()) {
			return fmt.Errorf("nn: parameter %q shape %v does not match checkpoint shape %v",
				p.Name(), p.Tensor().Shape(), src.Shape())
		}
		p.Tensor().CopyFrom(src)
	}
	return nil
}
