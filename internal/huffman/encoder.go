package huffman

import (
	"io"

	"github.com/packbit-io/packbit/internal/bits"
)

// Encoder encodes a byte stream into canonical Huffman codes. It is
// immutable after construction and safe for concurrent use; each Encode
// call owns its bit writer exclusively.
type Encoder struct {
	book *CodeBook
}

// NewEncoder builds an encoder for the given code book.
func NewEncoder(cb *CodeBook) *Encoder {
	return &Encoder{book: cb}
}

// Encode writes the code for every byte read from r to bw, returning the
// number of input bytes consumed. The caller flushes bw. A byte with no
// assigned code yields ErrUnknownSymbol: the code book was built from
// different input.
func (e *Encoder) Encode(r io.Reader, bw *bits.Writer) (uint64, error) {
	var total uint64
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			c := e.book.codes[b]
			if c.width == 0 {
				return total, ErrUnknownSymbol
			}
			if werr := bw.WriteBits(c.value, int(c.width)); werr != nil {
				return total, werr
			}
			total++
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// EncodeBytes encodes a byte slice to bw.
func (e *Encoder) EncodeBytes(data []byte, bw *bits.Writer) error {
	for _, b := range data {
		c := e.book.codes[b]
		if c.width == 0 {
			return ErrUnknownSymbol
		}
		if err := bw.WriteBits(c.value, int(c.width)); err != nil {
			return err
		}
	}
	return nil
}
