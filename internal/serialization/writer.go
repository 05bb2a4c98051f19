package serialization

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Write serializes the tensors and header metadata to w. Tensors are
// written in sorted name order so identical state always produces an
// identical file.
func Write(w io.Writer, tensors map[string]*tensor.RawTensor, header Header) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header.FormatVersion = FormatVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	header.Tensors = make([]TensorMeta, 0, len(names))

	var offset int64
	for _, name := range names {
		raw := tensors[name]
		size := int64(raw.NumElements()) * 4
		header.Tensors = append(header.Tensors, TensorMeta{
			Name:   name,
			DType:  dtypeFloat32,
			Shape:  []int(raw.Shape()),
			Offset: offset,
			Size:   size,
		})
		offset += size
	}

	blob := make([]byte, 0, offset)
	for _, name := range names {
		blob = appendFloat32s(blob, tensors[name].Data())
	}
	checksum := sha256.Sum256(blob)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("marshal header: %w", err)
	}

	fixed := make([]byte, FixedHeaderSize)
	copy(fixed[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixed[4:8], uint32(FormatVersion))
	// bytes 8..16 reserved
	binary.LittleEndian.PutUint64(fixed[16:24], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixed[24:32], uint64(len(blob)))
	copy(fixed[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := w.Write(fixed); err != nil {
		return fmt.Errorf("write fixed header: %w", err)
	}
	if _, err := w.Write(headerJSON); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	pos := int64(FixedHeaderSize) + int64(len(headerJSON))
	if pad := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; pad > 0 {
		if _, err := w.Write(make([]byte, pad)); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}
	if _, err := w.Write(blob); err != nil {
		return fmt.Errorf("write tensor data: %w", err)
	}
	return nil
}

// WriteFile atomically writes a checkpoint: the content goes to a
// temporary file in the target directory, which is renamed over the
// destination only after a successful sync. A crash mid-write never
// corrupts an existing checkpoint.
func WriteFile(path string, tensors map[string]*tensor.RawTensor, header Header) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp checkpoint: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := Write(tmp, tensors, header); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close checkpoint: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename checkpoint into place: %w", err)
	}
	return nil
}

func appendFloat32s(dst []byte, src []float32) []byte {
	var buf [4]byte
	for _, v := range src {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		dst = append(dst, buf[:]...)
	}
	return dst
}
