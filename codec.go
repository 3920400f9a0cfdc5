package packbit

import (
	"fmt"
	"math"

	"github.com/golang/snappy"
)

// CodecType identifies a whole-buffer compression codec.
type CodecType byte

const (
	// CodecNone stores bytes unmodified.
	CodecNone CodecType = iota
	// CodecHuffman uses the canonical Huffman container.
	CodecHuffman
	// CodecSnappy uses Snappy block compression.
	CodecSnappy

	// CodecAuto is a selection policy, not a wire codec: the packer picks
	// the best codec per buffer. It never appears in an archive envelope.
	CodecAuto CodecType = 0xFF
)

func (c CodecType) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecHuffman:
		return "huffman"
	case CodecSnappy:
		return "snappy"
	case CodecAuto:
		return "auto"
	default:
		return "unknown"
	}
}

// ParseCodec maps a config string to a codec type.
func ParseCodec(name string) (CodecType, error) {
	switch name {
	case "", "auto":
		return CodecAuto, nil
	case "huffman":
		return CodecHuffman, nil
	case "snappy":
		return CodecSnappy, nil
	case "none", "store":
		return CodecNone, nil
	}
	return 0, fmt.Errorf("unknown codec %q", name)
}

// Codec compresses and decompresses whole buffers.
type Codec interface {
	Type() CodecType
	Encode(data []byte) ([]byte, error)
	Decode(data []byte) ([]byte, error)
}

type huffmanCodec struct{}

func (huffmanCodec) Type() CodecType { return CodecHuffman }

func (huffmanCodec) Encode(data []byte) ([]byte, error) { return Compress(data) }

func (huffmanCodec) Decode(data []byte) ([]byte, error) { return Decompress(data) }

type snappyCodec struct{}

func (snappyCodec) Type() CodecType { return CodecSnappy }

func (snappyCodec) Encode(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCodec) Decode(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

type rawCodec struct{}

func (rawCodec) Type() CodecType { return CodecNone }

func (rawCodec) Encode(data []byte) ([]byte, error) { return data, nil }

func (rawCodec) Decode(data []byte) ([]byte, error) { return data, nil }

// codecFor returns the codec implementation for a wire codec type.
func codecFor(t CodecType) (Codec, error) {
	switch t {
	case CodecHuffman:
		return huffmanCodec{}, nil
	case CodecSnappy:
		return snappyCodec{}, nil
	case CodecNone:
		return rawCodec{}, nil
	}
	return nil, fmt.Errorf("unknown codec id %d", t)
}

// byteEntropy estimates the Shannon entropy of data in bits per byte.
// High-entropy buffers (already compressed, encrypted, random) are not
// worth running through the Huffman coder.
func byteEntropy(data []byte) float64 {
	if len(data) == 0 {
		return 0
	}
	var freq [256]int
	for _, b := range data {
		freq[b]++
	}
	var entropy float64
	n := float64(len(data))
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// incompressibleEntropy is the bits-per-byte threshold above which the
// auto policy skips Huffman and goes straight to snappy.
const incompressibleEntropy = 7.5

// selectCodec implements the auto policy: try the entropy-appropriate
// codec first and fall back to storing raw bytes when compression does
// not meet the configured minimum ratio.
func selectCodec(data []byte, minRatio float64) (CodecType, []byte, error) {
	if len(data) == 0 {
		return CodecNone, data, nil
	}
	if minRatio <= 0 {
		minRatio = 1.0
	}

	candidates := []CodecType{CodecHuffman, CodecSnappy}
	if byteEntropy(data) >= incompressibleEntropy {
		candidates = []CodecType{CodecSnappy}
	}

	for _, t := range candidates {
		c, err := codecFor(t)
		if err != nil {
			return 0, nil, err
		}
		out, err := c.Encode(data)
		if err != nil {
			return 0, nil, err
		}
		if float64(len(data)) >= minRatio*float64(len(out)) {
			return t, out, nil
		}
	}
	return CodecNone, data, nil
}
