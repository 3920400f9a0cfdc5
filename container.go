package packbit

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/packbit-io/packbit/internal/bits"
	"github.com/packbit-io/packbit/internal/huffman"
)

// AlphabetSize is the symbol domain of the compressor: the byte range.
const AlphabetSize = huffman.AlphabetSize

// ContainerHeaderSize is the fixed prefix of the container format: the
// original byte count as a little-endian uint64 followed by one code
// length byte per symbol value.
const ContainerHeaderSize = 8 + AlphabetSize

// CompressTo compresses data into the container format:
//
//	offset 0   original byte count, little-endian uint64
//	offset 8   code length per byte value 0-255 (0 = absent)
//	offset 264 canonical-Huffman bit payload, zero-padded to a byte
//
// Empty input returns ErrEmptyInput.
func CompressTo(w io.Writer, data []byte) error {
	lengths, err := huffman.BuildLengths(huffman.CountBytes(data))
	if err != nil {
		return err
	}
	book, err := huffman.NewCodeBook(lengths)
	if err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(data))); err != nil {
		return err
	}
	if _, err := w.Write(lengths[:]); err != nil {
		return err
	}

	bw := bits.NewWriter(w)
	if err := huffman.NewEncoder(book).EncodeBytes(data, bw); err != nil {
		return err
	}
	return bw.Flush()
}

// maxPrealloc caps how much output buffer DecompressFrom reserves up
// front. The count field is untrusted wire data; beyond this the buffer
// grows as the decode actually produces bytes.
const maxPrealloc = 1 << 20

// DecompressFrom reads one container from r and returns the original bytes.
func DecompressFrom(r io.Reader) ([]byte, error) {
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	var lengths huffman.LengthTable
	if _, err := io.ReadFull(r, lengths[:]); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}

	book, err := huffman.NewCodeBook(&lengths)
	if err != nil {
		return nil, err
	}

	alloc := count
	if alloc > maxPrealloc {
		alloc = maxPrealloc
	}
	out := bytes.NewBuffer(make([]byte, 0, alloc))
	if err := huffman.NewDecoder(book).DecodeN(bits.NewReader(r), out, count); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Compress compresses data into a self-describing container.
func Compress(data []byte) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, ContainerHeaderSize+len(data)/2))
	if err := CompressTo(buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	return DecompressFrom(bytes.NewReader(data))
}

// CompressFile compresses src into a new container file at dst. It
// refuses to overwrite an existing destination.
func CompressFile(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return ErrDestinationExists
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(out)
	if err := CompressTo(bw, data); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := bw.Flush(); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return err
	}
	return nil
}

// DecompressFile restores the original bytes of a container file at src
// into a new file at dst. It refuses to overwrite an existing destination.
func DecompressFile(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return ErrDestinationExists
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	data, err := DecompressFrom(bufio.NewReader(in))
	if err != nil {
		return fmt.Errorf("decompress %s: %w", src, err)
	}
	return os.WriteFile(dst, data, 0o644)
}
