// Package packbit is an embeddable canonical-Huffman archive engine.
//
// The core compresses arbitrary byte streams with a canonical Huffman
// code: symbol frequencies drive an optimal prefix code, the code is
// serialized as per-symbol code lengths rather than an explicit tree,
// and decoding resolves codes with a single range lookup per symbol
// instead of a bit-by-bit tree descent.
//
// Compress and Decompress operate on the self-describing container
// format (original size, code lengths, bit payload). Above that sits the
// archive layer: codec selection (huffman, snappy or store), optional
// AES-GCM encryption, pluggable storage backends (memory, filesystem,
// S3), a SQLite catalog of stored archives, and an optional HTTP service
// with a websocket compression stream.
//
// Basic usage:
//
//	packed, err := packbit.Compress(data)
//	...
//	restored, err := packbit.Decompress(packed)
//
// Or with the archive facade:
//
//	a, err := packbit.Open(packbit.DefaultConfig())
//	...
//	info, err := a.Store(ctx, "logs/2026-08-26", data)
package packbit
