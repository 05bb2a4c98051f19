// Package serialization implements the .mada checkpoint container: a
// 64-byte fixed header, a JSON metadata header, and a 64-byte-aligned
// float32 tensor blob with a SHA-256 checksum over the data section.
package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "MADA"
	FormatVersion   = 1
	FixedHeaderSize = 64   // magic, version, flags, sizes, checksum
	HeaderAlignment = 64   // tensor data alignment
	ChecksumSize    = 32   // SHA-256
	ChecksumOffset  = 0x20 // checksum position in the fixed header
)

// Header is the JSON metadata section of a checkpoint file.
type Header struct {
	FormatVersion int          `json:"format_version"`
	CreatedAt     time.Time    `json:"created_at"`
	Arch          ArchMeta     `json:"arch"`
	Train         TrainMeta    `json:"train"`
	Tensors       []TensorMeta `json:"tensors"`
}

// ArchMeta pins the model architecture. Resume requires an exact match
// on every field except Dropout.
type ArchMeta struct {
	NLayer    int     `json:"n_layer"`
	NHead     int     `json:"n_head"`
	NEmbd     int     `json:"n_embd"`
	BlockSize int     `json:"block_size"`
	Bias      bool    `json:"bias"`
	VocabSize int     `json:"vocab_size"`
	Dropout   float64 `json:"dropout"`
}

// Matches reports whether two architectures agree on the fields that
// must survive a resume. Dropout is advisory.
func (a ArchMeta) Matches(b ArchMeta) bool {
	return a.NLayer == b.NLayer &&
		a.NHead == b.NHead &&
		a.NEmbd == b.NEmbd &&
		a.BlockSize == b.BlockSize &&
		a.Bias == b.Bias &&
		a.VocabSize == b.VocabSize
}

// TrainMeta captures the training state alongside the tensors.
type TrainMeta struct {
	Iter          int                `json:"iter"`
	BestValLoss   float64            `json:"best_val_loss"`
	Mode          string             `json:"mode"`
	OptimizerStep int                `json:"optimizer_step"`
	Hyperparams   map[string]float32 `json:"hyperparams"`    // clamped values by name
	MetaBuffers   map[string]float32 `json:"meta_buffers"`   // meta-SGD momentum by name
	RunMeta       map[string]string  `json:"run_meta,omitempty"`
}

// TensorMeta describes one tensor in the data section. All tensors are
// float32; DType is recorded for forward compatibility.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`
}

const dtypeFloat32 = "float32"
