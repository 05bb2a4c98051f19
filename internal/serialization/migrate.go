package serialization

import (
	"strings"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// StripKeyPrefix returns a state dict with the given prefix removed from
// every key that carries it. Checkpoints exported by graph-compiling
// frameworks prefix parameter names with a wrapper module name; stripping
// it at load time lets those files resume cleanly.
func StripKeyPrefix(dict map[string]*tensor.RawTensor, prefix string) map[string]*tensor.RawTensor {
	if prefix == "" {
		return dict
	}
	out := make(map[string]*tensor.RawTensor, len(dict))
	for name, raw := range dict {
		out[strings.TrimPrefix(name, prefix)] = raw
	}
	return out
}
