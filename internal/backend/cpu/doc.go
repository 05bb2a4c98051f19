// Package cpu implements the compute kernels behind the autodiff engine.
//
// Every kernel is a pure function over flat float32 slices: forward kernels
// allocate and return fresh buffers, backward kernels take the upstream
// gradient and return input gradients. Shape bookkeeping stays in the ops
// layer; kernels only see dimensions.
package cpu
