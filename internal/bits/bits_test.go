package bits

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestReaderEmpty(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	if _, err := r.ReadBit(); err != io.EOF {
		t.Fatalf("ReadBit on empty stream: got %v, want io.EOF", err)
	}
	// EOF is sticky.
	if _, err := r.ReadBit(); err != io.EOF {
		t.Fatalf("second ReadBit: got %v, want io.EOF", err)
	}
}

func TestReaderMSBFirst(t *testing.T) {
	// 243 = 11110011, 98 = 01100010
	r := NewReader(bytes.NewReader([]byte{243, 98}))
	want := []uint8{1, 1, 1, 1, 0, 0, 1, 1, 0, 1, 1, 0, 0, 0, 1, 0}
	for i, w := range want {
		bit, err := r.ReadBit()
		if err != nil {
			t.Fatalf("bit %d: unexpected error %v", i, err)
		}
		if bit != w {
			t.Errorf("bit %d: got %d, want %d", i, bit, w)
		}
	}
	if _, err := r.ReadBit(); err != io.EOF {
		t.Fatalf("after last bit: got %v, want io.EOF", err)
	}
}

func TestWriterFullBytes(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, bit := range []uint8{1, 1, 1, 1, 0, 0, 1, 1, 0, 1, 1, 0, 0, 0, 1, 0} {
		if err := w.WriteBit(bit); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := buf.Bytes(); !bytes.Equal(got, []byte{243, 98}) {
		t.Fatalf("got %v, want [243 98]", got)
	}
}

func TestWriterPartialBytePadding(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	// 11110011 01100 -> second byte padded to 01100000 = 96
	for _, bit := range []uint8{1, 1, 1, 1, 0, 0, 1, 1, 0, 1, 1, 0, 0} {
		if err := w.WriteBit(bit); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := buf.Bytes(); !bytes.Equal(got, []byte{243, 96}) {
		t.Fatalf("got %v, want [243 96]", got)
	}
}

func TestFlushIdempotent(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.WriteBit(1); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 1 {
		t.Fatalf("flush wrote the partial byte %d times", buf.Len())
	}
}

func TestFlushEmptyWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("flush of empty writer wrote %d bytes", buf.Len())
	}
}

func TestWriteBitsRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		values []uint64
		widths []int
	}{
		{
			name:   "single bit",
			values: []uint64{1},
			widths: []int{1},
		},
		{
			name:   "one byte",
			values: []uint64{0b11010110},
			widths: []int{8},
		},
		{
			name:   "64 bits",
			values: []uint64{0xDEADBEEFCAFEBABE},
			widths: []int{64},
		},
		{
			name:   "mixed widths",
			values: []uint64{0b101, 0b11, 0b1111, 0},
			widths: []int{3, 2, 4, 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewWriter(&buf)
			for i, v := range tt.values {
				if err := w.WriteBits(v, tt.widths[i]); err != nil {
					t.Fatalf("WriteBits failed: %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatal(err)
			}

			r := NewReader(&buf)
			for i, want := range tt.values {
				got, err := r.ReadBits(tt.widths[i])
				if err != nil {
					t.Fatalf("ReadBits failed: %v", err)
				}
				if got != want {
					t.Errorf("value %d: got %d, want %d", i, got, want)
				}
			}
		})
	}
}

func TestReadBitsTruncated(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xFF}))
	if _, err := r.ReadBits(12); err != io.ErrUnexpectedEOF {
		t.Fatalf("got %v, want io.ErrUnexpectedEOF", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("sink failed")
}

func TestFlushSurfacesSinkError(t *testing.T) {
	w := NewWriter(failingWriter{})
	if err := w.WriteBit(1); err != nil {
		t.Fatalf("WriteBit buffered, should not touch sink: %v", err)
	}
	if err := w.Flush(); err == nil {
		t.Fatal("Flush should surface the sink error")
	}
}
