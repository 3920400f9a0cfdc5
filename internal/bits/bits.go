// Package bits provides bit-level I/O utilities for compression codecs.
//
// Both Reader and Writer work MSB-first: the most significant bit of each
// byte is the first bit consumed or produced.
package bits

import "io"

// msbMask selects the most significant bit of a byte.
const msbMask = 1 << 7

// Reader reads individual bits from an underlying byte stream.
type Reader struct {
	r    io.Reader
	buf  [1]byte
	curr byte
	mask byte
}

// NewReader creates a new bit reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadBit reads a single bit. It returns io.EOF when the underlying
// stream is exhausted exactly at a byte boundary.
func (r *Reader) ReadBit() (uint8, error) {
	if r.mask == 0 {
		if err := r.fill(); err != nil {
			return 0, err
		}
	}

	var bit uint8
	if r.curr&r.mask != 0 {
		bit = 1
	}
	r.mask >>= 1
	return bit, nil
}

// ReadBits reads width bits into the low bits of a value, first bit most
// significant. Exhaustion mid-value is reported as io.ErrUnexpectedEOF.
func (r *Reader) ReadBits(width int) (uint64, error) {
	var out uint64
	for i := 0; i < width; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			if err == io.EOF && i > 0 {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}
		out = (out << 1) | uint64(bit)
	}
	return out, nil
}

func (r *Reader) fill() error {
	for {
		n, err := r.r.Read(r.buf[:])
		if n > 0 {
			r.curr = r.buf[0]
			r.mask = msbMask
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Writer writes individual bits to an underlying byte stream.
//
// A full byte is written to the sink lazily, just before the first bit of
// the next byte arrives. Call Flush (or Close) when done: it pads any
// partial byte with low-order zero bits and writes it. Dropping a Writer
// without flushing loses the final partial byte.
type Writer struct {
	w    io.Writer
	buf  [1]byte
	curr byte
	mask byte
}

// NewWriter creates a new bit writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w, mask: msbMask}
}

// WriteBit writes a single bit. Any nonzero bit value is written as 1.
func (w *Writer) WriteBit(bit uint8) error {
	if w.mask == 0 {
		if err := w.flushByte(); err != nil {
			return err
		}
	}

	if bit != 0 {
		w.curr |= w.mask
	}
	w.mask >>= 1
	return nil
}

// WriteBits writes the low width bits of value, most significant first.
func (w *Writer) WriteBits(value uint64, width int) error {
	for i := width - 1; i >= 0; i-- {
		if err := w.WriteBit(uint8((value >> uint(i)) & 1)); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes any buffered bits, padding the final byte with zeros.
// It is idempotent: a second call without intervening writes is a no-op.
func (w *Writer) Flush() error {
	if w.mask == msbMask {
		return nil
	}
	return w.flushByte()
}

// Close flushes the writer. The underlying sink is not closed.
func (w *Writer) Close() error {
	return w.Flush()
}

func (w *Writer) flushByte() error {
	w.buf[0] = w.curr
	if _, err := w.w.Write(w.buf[:]); err != nil {
		return err
	}
	w.curr = 0
	w.mask = msbMask
	return nil
}
