package huffman

import (
	"io"

	"github.com/packbit-io/packbit/internal/bits"
)

// Decoder decodes canonical Huffman bit streams back into bytes. It never
// materializes a tree: codes are resolved with a 64-bit lookahead
// register and a single range lookup per symbol.
//
// A Decoder is immutable after construction and safe for concurrent use;
// each Decode call owns its bit reader exclusively.
type Decoder struct {
	lookup *Lookup
}

// NewDecoder builds a decoder for the given code book.
func NewDecoder(cb *CodeBook) *Decoder {
	return &Decoder{lookup: NewLookup(cb)}
}

// Decode reads symbols until the bit stream is exhausted, writing each
// decoded byte to w. It returns the number of bytes decoded. Trailing
// padding bits that happen to form complete codes decode as extra
// symbols; use DecodeN when the expected output length is known.
func (d *Decoder) Decode(br *bits.Reader, w io.Writer) (uint64, error) {
	return d.decode(br, w, -1)
}

// DecodeN decodes exactly count symbols and stops, ignoring any trailing
// padding bits. It returns ErrCorruptStream if the stream ends before
// count symbols have been produced. Register lookahead may leave br up
// to 64 bits past the final code, so br cannot carry a second stream.
func (d *Decoder) DecodeN(br *bits.Reader, w io.Writer, count uint64) error {
	n, err := d.decode(br, w, int64(count))
	if err != nil {
		return err
	}
	if n != count {
		return ErrCorruptStream
	}
	return nil
}

func (d *Decoder) decode(br *bits.Reader, w io.Writer, limit int64) (uint64, error) {
	var (
		reg     uint64 // lookahead register, filled MSB-first
		valid   uint   // number of meaningful top bits in reg
		written uint64
		eof     bool
		buf     [1]byte
	)

	for {
		if limit >= 0 && written == uint64(limit) {
			return written, nil
		}

		for !eof && valid < 64 {
			bit, err := br.ReadBit()
			if err == io.EOF {
				eof = true
				break
			}
			if err != nil {
				return written, err
			}
			if bit != 0 {
				reg |= 1 << (63 - valid)
			}
			valid++
		}

		if valid == 0 {
			return written, nil
		}

		entry, ok := d.lookup.find(reg)
		if !ok {
			return written, ErrCorruptStream
		}
		width := uint(entry.width)
		if width > valid {
			return written, ErrCorruptStream
		}
		index := (reg - entry.key) >> (64 - width)
		if index >= uint64(len(entry.symbols)) {
			return written, ErrCorruptStream
		}

		buf[0] = entry.symbols[index]
		if _, err := w.Write(buf[:]); err != nil {
			return written, err
		}
		written++

		// The top width bits are consumed; shift the remaining valid
		// bits to the top of the register.
		reg <<= width
		valid -= width
	}
}
