package huffman

import (
	"bytes"
	"errors"
	"testing"

	"github.com/packbit-io/packbit/internal/bits"
)

func buildCodec(t *testing.T, data []byte) (*Encoder, *Decoder) {
	t.Helper()
	lengths, err := BuildLengths(CountBytes(data))
	if err != nil {
		t.Fatal(err)
	}
	cb, err := NewCodeBook(lengths)
	if err != nil {
		t.Fatal(err)
	}
	return NewEncoder(cb), NewDecoder(cb)
}

func TestEncodeConcretePayload(t *testing.T) {
	// Codes: c=0, a=10, b=11. Encoding "cabc" yields 0 10 11 0, padded to
	// 01011000 = 0x58.
	data := []byte("cabc")
	enc, _ := buildCodec(t, data)

	var buf bytes.Buffer
	bw := bits.NewWriter(&buf)
	if err := enc.EncodeBytes(data, bw); err != nil {
		t.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}
	if got := buf.Bytes(); !bytes.Equal(got, []byte{0x58}) {
		t.Fatalf("payload = %#v, want [0x58]", got)
	}
}

func TestDecodeNRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"concrete", []byte("cabc")},
		{"text", []byte("a small sample string")},
		{"single symbol", bytes.Repeat([]byte{'z'}, 100)},
		{"two symbols", []byte("ababababab")},
		{"all byte values", func() []byte {
			b := make([]byte, 512)
			for i := range b {
				b[i] = byte(i)
			}
			return b
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, dec := buildCodec(t, tt.data)

			var packed bytes.Buffer
			bw := bits.NewWriter(&packed)
			if err := enc.EncodeBytes(tt.data, bw); err != nil {
				t.Fatal(err)
			}
			if err := bw.Flush(); err != nil {
				t.Fatal(err)
			}

			var out bytes.Buffer
			br := bits.NewReader(&packed)
			if err := dec.DecodeN(br, &out, uint64(len(tt.data))); err != nil {
				t.Fatal(err)
			}
			if !bytes.Equal(out.Bytes(), tt.data) {
				t.Fatalf("round trip mismatch: got %q, want %q", out.Bytes(), tt.data)
			}
		})
	}
}

func TestDecodeUnbounded(t *testing.T) {
	// 16 symbols at 2 bits each fill exactly 4 bytes, so there is no
	// padding and the unbounded decode reproduces the input exactly.
	data := []byte("abcdabcdabcdabcd")
	enc, dec := buildCodec(t, data)

	var packed bytes.Buffer
	bw := bits.NewWriter(&packed)
	if err := enc.EncodeBytes(data, bw); err != nil {
		t.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}
	if packed.Len() != 4 {
		t.Fatalf("payload is %d bytes, want 4", packed.Len())
	}

	var out bytes.Buffer
	n, err := dec.Decode(bits.NewReader(&packed), &out)
	if err != nil {
		t.Fatal(err)
	}
	if n != uint64(len(data)) {
		t.Fatalf("decoded %d symbols, want %d", n, len(data))
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatalf("got %q, want %q", out.Bytes(), data)
	}
}

func TestDecodeNTruncatedStream(t *testing.T) {
	data := []byte("a small sample string")
	enc, dec := buildCodec(t, data)

	var packed bytes.Buffer
	bw := bits.NewWriter(&packed)
	if err := enc.EncodeBytes(data, bw); err != nil {
		t.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}

	truncated := packed.Bytes()[:packed.Len()/2]
	var out bytes.Buffer
	err := dec.DecodeN(bits.NewReader(bytes.NewReader(truncated)), &out, uint64(len(data)))
	if err != ErrCorruptStream {
		t.Fatalf("got %v, want ErrCorruptStream", err)
	}
}

func TestDecodeEmptyStream(t *testing.T) {
	_, dec := buildCodec(t, []byte("abc"))
	var out bytes.Buffer
	n, err := dec.Decode(bits.NewReader(bytes.NewReader(nil)), &out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 || out.Len() != 0 {
		t.Fatalf("empty stream decoded %d symbols", n)
	}
}

func TestDecodeNCountPastStream(t *testing.T) {
	// Asking for more symbols than the stream holds must fail rather than
	// decode padding as data.
	data := []byte("aabbccdd")
	enc, dec := buildCodec(t, data)

	var packed bytes.Buffer
	bw := bits.NewWriter(&packed)
	if err := enc.EncodeBytes(data, bw); err != nil {
		t.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := dec.DecodeN(bits.NewReader(&packed), &out, uint64(len(data))+5)
	if err != ErrCorruptStream {
		t.Fatalf("got %v, want ErrCorruptStream", err)
	}
}

type poisonedReader struct{}

func (poisonedReader) Read([]byte) (int, error) {
	return 0, errors.New("reader must not be touched")
}

func TestDecodeNZeroCountReadsNothing(t *testing.T) {
	_, dec := buildCodec(t, []byte("abc"))
	var out bytes.Buffer
	if err := dec.DecodeN(bits.NewReader(poisonedReader{}), &out, 0); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("zero-count decode produced %d bytes", out.Len())
	}
}

func TestEncodeUnknownSymbol(t *testing.T) {
	enc, _ := buildCodec(t, []byte("aabb"))
	var buf bytes.Buffer
	bw := bits.NewWriter(&buf)
	if err := enc.EncodeBytes([]byte("abz"), bw); err != ErrUnknownSymbol {
		t.Fatalf("got %v, want ErrUnknownSymbol", err)
	}
}

func TestEncodeReaderStream(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox "), 500)
	enc, dec := buildCodec(t, data)

	var packed bytes.Buffer
	bw := bits.NewWriter(&packed)
	n, err := enc.Encode(bytes.NewReader(data), bw)
	if err != nil {
		t.Fatal(err)
	}
	if n != uint64(len(data)) {
		t.Fatalf("encoded %d bytes, want %d", n, len(data))
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}
	if packed.Len() >= len(data) {
		t.Fatalf("skewed input did not compress: %d >= %d", packed.Len(), len(data))
	}

	var out bytes.Buffer
	if err := dec.DecodeN(bits.NewReader(&packed), &out, n); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), data) {
		t.Fatal("round trip mismatch")
	}
}
