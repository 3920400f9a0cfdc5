package packbit

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Archive envelope layout:
//
//	offset 0   magic "PBK1"
//	offset 4   format version (1)
//	offset 5   codec id
//	offset 6   flags
//	offset 7   CRC-32 (IEEE) of the original bytes, little-endian
//	offset 11  original byte count, little-endian uint64
//	offset 19  key derivation salt (32 bytes, only when flagSalted)
//	then       codec payload, encrypted when flagEncrypted
var archiveMagic = [4]byte{'P', 'B', 'K', '1'}

const (
	archiveVersion = 1

	flagEncrypted = 0x01
	flagSalted    = 0x02

	archiveHeaderSize = 4 + 1 + 1 + 1 + 4 + 8
)

// Packer turns raw buffers into archive envelopes and back. It applies
// the configured codec policy and optional encryption. A Packer is
// immutable after construction and safe for concurrent use.
type Packer struct {
	codec    CodecType
	minRatio float64
	encCfg   EncryptionConfig
	enc      *Encryptor
}

// NewPacker creates a packer. codec may be CodecAuto to select per
// buffer; minRatio is the minimum original/compressed ratio before the
// auto policy falls back to storing raw bytes.
func NewPacker(codec CodecType, minRatio float64, encCfg EncryptionConfig) (*Packer, error) {
	enc, err := NewEncryptor(encCfg)
	if err != nil {
		return nil, err
	}
	return &Packer{codec: codec, minRatio: minRatio, encCfg: encCfg, enc: enc}, nil
}

// Pack builds an archive envelope for data and reports the codec used.
func (p *Packer) Pack(data []byte) ([]byte, CodecType, error) {
	var (
		codec   CodecType
		payload []byte
		err     error
	)
	if p.codec == CodecAuto {
		codec, payload, err = selectCodec(data, p.minRatio)
	} else {
		var c Codec
		codec = p.codec
		if c, err = codecFor(codec); err == nil {
			payload, err = c.Encode(data)
		}
	}
	if err != nil {
		return nil, 0, err
	}

	var flags byte
	salt := []byte(nil)
	if p.enc != nil {
		flags |= flagEncrypted
		if s := p.enc.Salt(); len(s) == EncryptionSaltSize {
			flags |= flagSalted
			salt = s
		}
		if payload, err = p.enc.Encrypt(payload); err != nil {
			return nil, 0, err
		}
	}

	out := make([]byte, 0, archiveHeaderSize+len(salt)+len(payload))
	out = append(out, archiveMagic[:]...)
	out = append(out, archiveVersion, byte(codec), flags)
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(data))
	out = binary.LittleEndian.AppendUint64(out, uint64(len(data)))
	out = append(out, salt...)
	out = append(out, payload...)
	return out, codec, nil
}

// Unpack restores the original bytes from an archive envelope, verifying
// the stored checksum.
func (p *Packer) Unpack(packed []byte) ([]byte, error) {
	if len(packed) < archiveHeaderSize || [4]byte(packed[:4]) != archiveMagic {
		return nil, fmt.Errorf("%w: bad archive magic", ErrCorruptStream)
	}
	if packed[4] != archiveVersion {
		return nil, fmt.Errorf("%w: unsupported archive version %d", ErrCorruptStream, packed[4])
	}
	codec := CodecType(packed[5])
	flags := packed[6]
	sum := binary.LittleEndian.Uint32(packed[7:11])
	origSize := binary.LittleEndian.Uint64(packed[11:19])

	payload := packed[archiveHeaderSize:]
	var salt []byte
	if flags&flagSalted != 0 {
		if len(payload) < EncryptionSaltSize {
			return nil, fmt.Errorf("%w: truncated salt", ErrCorruptStream)
		}
		salt = payload[:EncryptionSaltSize]
		payload = payload[EncryptionSaltSize:]
	}

	if flags&flagEncrypted != 0 {
		enc := p.enc
		if len(salt) > 0 && p.encCfg.KeyPassword != "" {
			var err error
			if enc, err = NewEncryptorWithSalt(p.encCfg.KeyPassword, salt); err != nil {
				return nil, err
			}
		}
		if enc == nil {
			return nil, fmt.Errorf("archive is encrypted but no key is configured")
		}
		var err error
		if payload, err = enc.Decrypt(payload); err != nil {
			return nil, fmt.Errorf("decrypt archive: %w", err)
		}
	}

	c, err := codecFor(codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptStream, err)
	}
	data, err := c.Decode(payload)
	if err != nil {
		return nil, err
	}

	if uint64(len(data)) != origSize || crc32.ChecksumIEEE(data) != sum {
		return nil, ErrChecksumMismatch
	}
	return data, nil
}

// ReadArchiveHeader reports the codec, flags and original size of an
// archive envelope without unpacking it.
func ReadArchiveHeader(packed []byte) (codec CodecType, encrypted bool, originalSize uint64, err error) {
	if len(packed) < archiveHeaderSize || [4]byte(packed[:4]) != archiveMagic {
		return 0, false, 0, fmt.Errorf("%w: bad archive magic", ErrCorruptStream)
	}
	return CodecType(packed[5]), packed[6]&flagEncrypted != 0,
		binary.LittleEndian.Uint64(packed[11:19]), nil
}
