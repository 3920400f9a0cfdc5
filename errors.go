package packbit

import (
	"errors"

	"github.com/packbit-io/packbit/internal/huffman"
)

// Common sentinel errors for the packbit package.
var (
	// ErrEmptyInput is returned when there is nothing to compress.
	ErrEmptyInput = huffman.ErrEmptyInput

	// ErrUnknownSymbol is returned when encoding meets a byte that was not
	// present when the code book was built.
	ErrUnknownSymbol = huffman.ErrUnknownSymbol

	// ErrCorruptStream is returned when a container or bit stream cannot
	// be decoded.
	ErrCorruptStream = huffman.ErrCorruptStream

	// ErrCodeTooLong is returned when a frequency distribution produces a
	// code longer than the 64-bit decode register.
	ErrCodeTooLong = huffman.ErrCodeTooLong

	// ErrInvalidLengths is returned when a container carries a code length
	// table that cannot describe a prefix-free code.
	ErrInvalidLengths = huffman.ErrInvalidLengths

	// ErrArchiveNotFound is returned when a requested archive key does not
	// exist in the backend or catalog.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrChecksumMismatch is returned when an unpacked archive fails its
	// integrity check.
	ErrChecksumMismatch = errors.New("archive checksum mismatch")

	// ErrClosed is returned when operations are attempted on a closed
	// archiver or catalog.
	ErrClosed = errors.New("archiver is closed")

	// ErrDestinationExists is returned by the file helpers when the output
	// path already exists.
	ErrDestinationExists = errors.New("destination file already exists")
)
