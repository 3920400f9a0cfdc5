package huffman

import (
	"math"
	"sort"
)

// codeBits is a single canonical code: the low width bits of value,
// most significant bit first on the wire.
type codeBits struct {
	value uint64
	width uint8
}

// CodeBook maps symbols to canonical bit patterns. It is built from code
// lengths alone, independent of the shape of the tree that produced them,
// and is immutable once constructed.
type CodeBook struct {
	codes [AlphabetSize]codeBits
	count int
}

// NewCodeBook assigns canonical codes to all symbols with nonzero length.
//
// Entries are walked in (length, symbol) order with a running code value:
// each symbol receives the current value in length bits, then the value is
// incremented and left-shifted by the length difference to the next entry.
// Codes of equal length are therefore consecutive and ordered by symbol.
func NewCodeBook(lengths *LengthTable) (*CodeBook, error) {
	type entry struct {
		symbol byte
		width  uint8
	}
	entries := make([]entry, 0, AlphabetSize)
	for sym, width := range lengths {
		if width == 0 {
			continue
		}
		if width > MaxCodeLen {
			return nil, ErrCodeTooLong
		}
		entries = append(entries, entry{byte(sym), width})
	}
	if len(entries) == 0 {
		return nil, ErrEmptyInput
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].width != entries[j].width {
			return entries[i].width < entries[j].width
		}
		return entries[i].symbol < entries[j].symbol
	})

	cb := &CodeBook{count: len(entries)}
	var code uint64
	for i, e := range entries {
		if e.width < 64 && code >= 1<<e.width {
			// The running code no longer fits in its width: the length
			// table oversubscribes the code space.
			return nil, ErrInvalidLengths
		}
		cb.codes[e.symbol] = codeBits{value: code, width: e.width}
		if i+1 < len(entries) {
			// The increment-and-shift must not wrap: a wrapped running
			// code would silently reuse value 0 for a width-64 entry,
			// which the width guard above cannot see.
			next := code + 1
			shift := uint(entries[i+1].width - e.width)
			if next == 0 || (shift > 0 && next > math.MaxUint64>>shift) {
				return nil, ErrInvalidLengths
			}
			code = next << shift
		}
	}
	return cb, nil
}

// Code returns the bit pattern for a symbol. ok is false when the symbol
// has no assigned code.
func (cb *CodeBook) Code(symbol byte) (value uint64, width uint8, ok bool) {
	c := cb.codes[symbol]
	return c.value, c.width, c.width != 0
}

// Len returns the number of symbols with assigned codes.
func (cb *CodeBook) Len() int { return cb.count }

// Lengths returns the code length table describing this book.
func (cb *CodeBook) Lengths() *LengthTable {
	var lengths LengthTable
	for sym := range cb.codes {
		lengths[sym] = cb.codes[sym].width
	}
	return &lengths
}

// lookupEntry covers one distinct code length: key is the smallest code
// of that length left-justified in a 64-bit register, symbols are the
// symbols of that length in ascending order (equivalently, in code order).
type lookupEntry struct {
	key     uint64
	width   uint8
	symbols []byte
}

// Lookup resolves left-justified register values to symbols with a single
// ordered search. Canonical assignment plus the prefix-free property
// partition the 64-bit value space into one contiguous band per symbol,
// so the largest key not exceeding the register always identifies the
// code present in its top bits, whatever the lookahead bits below hold.
type Lookup struct {
	entries []lookupEntry
}

// NewLookup derives the decode lookup structure from a code book.
func NewLookup(cb *CodeBook) *Lookup {
	byWidth := make(map[uint8]int)
	lk := &Lookup{}
	for sym := 0; sym < AlphabetSize; sym++ {
		c := cb.codes[sym]
		if c.width == 0 {
			continue
		}
		i, ok := byWidth[c.width]
		if !ok {
			i = len(lk.entries)
			byWidth[c.width] = i
			lk.entries = append(lk.entries, lookupEntry{
				// Ascending symbol order means the first code seen per
				// width is the minimum for that width.
				key:   c.value << (64 - uint(c.width)),
				width: c.width,
			})
		}
		lk.entries[i].symbols = append(lk.entries[i].symbols, byte(sym))
	}
	sort.Slice(lk.entries, func(i, j int) bool {
		return lk.entries[i].key < lk.entries[j].key
	})
	return lk
}

// find returns the entry with the largest key not exceeding reg.
func (lk *Lookup) find(reg uint64) (*lookupEntry, bool) {
	i := sort.Search(len(lk.entries), func(i int) bool {
		return lk.entries[i].key > reg
	})
	if i == 0 {
		return nil, false
	}
	return &lk.entries[i-1], true
}
