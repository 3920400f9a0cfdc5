// Package huffman implements canonical Huffman coding over the byte
// alphabet: tree construction from frequency counts, canonical code
// assignment from code lengths, and register-based streaming decode.
package huffman

import (
	"container/heap"
	"errors"
	"io"
)

const (
	// AlphabetSize is the number of distinct symbols (the full byte range).
	AlphabetSize = 256

	// MaxCodeLen is the widest representable code. The decoder resolves
	// codes with a 64-bit lookahead register, so longer codes are rejected
	// at code book construction.
	MaxCodeLen = 64
)

// Sentinel errors for the huffman package.
var (
	// ErrEmptyInput is returned when a frequency table has no nonzero entry.
	ErrEmptyInput = errors.New("huffman: empty input")

	// ErrUnknownSymbol is returned when encoding meets a byte absent from
	// the code book.
	ErrUnknownSymbol = errors.New("huffman: symbol not in code book")

	// ErrCorruptStream is returned when a bit stream cannot be resolved
	// against the code book, or a bounded decode yields the wrong count.
	ErrCorruptStream = errors.New("huffman: corrupt stream")

	// ErrCodeTooLong is returned when a code length exceeds MaxCodeLen.
	ErrCodeTooLong = errors.New("huffman: code length exceeds 64 bits")

	// ErrInvalidLengths is returned when a code length table violates the
	// Kraft inequality and cannot describe a prefix-free code.
	ErrInvalidLengths = errors.New("huffman: invalid code length table")
)

// FreqTable counts occurrences per byte value.
type FreqTable [AlphabetSize]uint64

// CountBytes builds a frequency table from a byte slice.
func CountBytes(data []byte) *FreqTable {
	var ft FreqTable
	for _, b := range data {
		ft[b]++
	}
	return &ft
}

// Count builds a frequency table from a reader, returning the table and
// the total number of bytes read.
func Count(r io.Reader) (*FreqTable, uint64, error) {
	var ft FreqTable
	var total uint64
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			ft[b]++
		}
		total += uint64(n)
		if err == io.EOF {
			return &ft, total, nil
		}
		if err != nil {
			return nil, 0, err
		}
	}
}

// LengthTable maps each byte value to its code length in bits.
// A length of zero means the symbol is absent.
type LengthTable [AlphabetSize]uint8

// node is a tree node in the construction arena. Leaves carry a symbol;
// internal nodes carry the combined frequency of their two children.
// Child links are arena indexes, -1 for none.
type node struct {
	freq   uint64
	symbol byte
	left   int32
	right  int32
}

func (n *node) leaf() bool { return n.left < 0 && n.right < 0 }

// nodeHeap orders arena indexes so the smallest node pops first:
// by frequency, then symbol (internal nodes carry symbol 0), then
// insertion order. The full ordering makes construction deterministic.
type nodeHeap struct {
	arena *[]node
	items []int32
}

func (h *nodeHeap) Len() int { return len(h.items) }

func (h *nodeHeap) Less(i, j int) bool {
	a, b := &(*h.arena)[h.items[i]], &(*h.arena)[h.items[j]]
	if a.freq != b.freq {
		return a.freq < b.freq
	}
	if a.symbol != b.symbol {
		return a.symbol < b.symbol
	}
	return h.items[i] < h.items[j]
}

func (h *nodeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *nodeHeap) Push(x any) { h.items = append(h.items, x.(int32)) }

func (h *nodeHeap) Pop() any {
	old := h.items
	n := len(old)
	x := old[n-1]
	h.items = old[:n-1]
	return x
}

// BuildLengths constructs a Huffman tree from the frequency table and
// extracts per-symbol code lengths by breadth-first depth counting. The
// tree itself is a construction aid and is not retained.
//
// An input with a single distinct symbol would yield a root-only tree and
// a code length of zero, which the canonical scheme cannot represent;
// that symbol is assigned length 1 instead.
func BuildLengths(ft *FreqTable) (*LengthTable, error) {
	arena := make([]node, 0, 2*AlphabetSize)
	for sym, freq := range ft {
		if freq != 0 {
			arena = append(arena, node{freq: freq, symbol: byte(sym), left: -1, right: -1})
		}
	}
	if len(arena) == 0 {
		return nil, ErrEmptyInput
	}

	h := &nodeHeap{arena: &arena, items: make([]int32, len(arena))}
	for i := range h.items {
		h.items[i] = int32(i)
	}
	heap.Init(h)

	for h.Len() > 1 {
		first := heap.Pop(h).(int32)
		second := heap.Pop(h).(int32)
		arena = append(arena, node{
			freq:  arena[first].freq + arena[second].freq,
			left:  second,
			right: first,
		})
		heap.Push(h, int32(len(arena)-1))
	}
	root := h.items[0]

	var lengths LengthTable
	type visit struct {
		idx   int32
		depth uint8
	}
	queue := []visit{{root, 0}}
	leaves := 0
	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		n := &arena[v.idx]
		if n.leaf() {
			lengths[n.symbol] = v.depth
			leaves++
			continue
		}
		queue = append(queue, visit{n.left, v.depth + 1}, visit{n.right, v.depth + 1})
	}

	if leaves == 1 {
		lengths[arena[root].symbol] = 1
	}
	return &lengths, nil
}
