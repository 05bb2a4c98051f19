package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/Shyamsaitejamandibi/mada/internal/tensor"
)

// Read parses a checkpoint from r, verifying the magic bytes, version,
// and SHA-256 checksum of the tensor data.
func Read(r io.Reader) (Header, map[string]*tensor.RawTensor, error) {
	var header Header

	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return header, nil, fmt.Errorf("read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return header, nil, ErrBadMagic
	}
	if v := binary.LittleEndian.Uint32(fixed[4:8]); v != FormatVersion {
		return header, nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	var checksum [ChecksumSize]byte
	copy(checksum[:], fixed[ChecksumOffset:ChecksumOffset+ChecksumSize])

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return header, nil, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return header, nil, fmt.Errorf("parse header: %w", err)
	}

	pos := int64(FixedHeaderSize) + int64(headerSize)
	if pad := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; pad > 0 {
		if _, err := io.CopyN(io.Discard, r, pad); err != nil {
			return header, nil, fmt.Errorf("skip padding: %w", err)
		}
	}

	blob := make([]byte, dataSize)
	if _, err := io.ReadFull(r, blob); err != nil {
		return header, nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if sum := sha256.Sum256(blob); !bytes.Equal(sum[:], checksum[:]) {
		return header, nil, ErrChecksumMismatch
	}

	tensors := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		if meta.DType != dtypeFloat32 {
			return header, nil, fmt.Errorf("serialization: tensor %q has unsupported dtype %q", meta.Name, meta.DType)
		}
		end := meta.Offset + meta.Size
		if meta.Offset < 0 || end > int64(len(blob)) {
			return header, nil, fmt.Errorf("serialization: tensor %q extends past data section", meta.Name)
		}
		data := decodeFloat32s(blob[meta.Offset:end])
		raw, err := tensor.FromSlice(data, tensor.Shape(meta.Shape))
		if err != nil {
			return header, nil, fmt.Errorf("serialization: tensor %q: %w", meta.Name, err)
		}
		tensors[meta.Name] = raw
	}
	return header, tensors, nil
}

// ReadFile reads a checkpoint from disk.
func ReadFile(path string) (Header, map[string]*tensor.RawTensor, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("open checkpoint: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func decodeFloat32s(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
