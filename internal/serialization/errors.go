package serialization

import "errors"

var (
	// ErrBadMagic means the file does not start with the MADA magic bytes.
	ErrBadMagic = errors.New("serialization: not a checkpoint file")
	// ErrUnsupportedVersion means the format version is unknown.
	ErrUnsupportedVersion = errors.New("serialization: unsupported format version")
	// ErrChecksumMismatch means the tensor data failed checksum verification.
	ErrChecksumMismatch = errors.New("serialization: tensor data checksum mismatch")
	// ErrTruncated means the file ended before the declared data size.
	ErrTruncated = errors.New("serialization: truncated checkpoint file")
)
