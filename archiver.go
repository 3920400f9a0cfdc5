package packbit

import (
	"context"
	"fmt"
	"hash/crc32"
	"sync"
	"sync/atomic"
	"time"
)

// Stats holds cumulative archiver counters.
type Stats struct {
	ArchivesStored uint64  `json:"archives_stored"`
	ArchivesLoaded uint64  `json:"archives_loaded"`
	BytesIn        uint64  `json:"bytes_in"`
	BytesStored    uint64  `json:"bytes_stored"`
	Ratio          float64 `json:"ratio"`
}

type statCounters struct {
	archivesStored atomic.Uint64
	archivesLoaded atomic.Uint64
	bytesIn        atomic.Uint64
	bytesStored    atomic.Uint64
}

// Archiver is the facade combining codec selection, encryption, storage
// and the catalog. It is safe for concurrent use.
type Archiver struct {
	packer  *Packer
	backend StorageBackend
	catalog *Catalog
	server  *httpServer
	stats   statCounters

	mu     sync.RWMutex
	closed bool
}

// Open builds an archiver from a configuration.
func Open(cfg Config) (*Archiver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	codec, err := ParseCodec(cfg.Codec)
	if err != nil {
		return nil, err
	}
	var encCfg EncryptionConfig
	if cfg.Encryption != nil {
		encCfg = *cfg.Encryption
	}
	packer, err := NewPacker(codec, cfg.MinCompressionRatio, encCfg)
	if err != nil {
		return nil, err
	}

	backend := cfg.Backend
	if backend == nil {
		switch cfg.Storage.Type {
		case "", "memory":
			backend = NewMemoryBackend()
		case "file":
			if backend, err = NewFileBackend(cfg.Storage.Dir); err != nil {
				return nil, err
			}
		case "s3":
			s3cfg := *cfg.Storage.S3
			if s3cfg.MaxRetries <= 0 {
				s3cfg.MaxRetries = cfg.Retry.MaxAttempts
			}
			if backend, err = NewS3Backend(s3cfg); err != nil {
				return nil, err
			}
		}
	}

	a := &Archiver{packer: packer, backend: backend}

	if cfg.Catalog != nil && cfg.Catalog.Enabled {
		if a.catalog, err = OpenCatalog(*cfg.Catalog); err != nil {
			backend.Close()
			return nil, err
		}
	}

	if cfg.HTTP != nil && cfg.HTTP.Enabled {
		if a.server, err = startHTTPServer(a, *cfg.HTTP); err != nil {
			a.closeResources()
			return nil, err
		}
	}
	return a, nil
}

// Store packs data and writes it to the backend under key.
func (a *Archiver) Store(ctx context.Context, key string, data []byte) (ArchiveInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ArchiveInfo{}, ErrClosed
	}

	packed, codec, err := a.packer.Pack(data)
	if err != nil {
		return ArchiveInfo{}, err
	}
	if err := a.backend.Write(ctx, key, packed); err != nil {
		return ArchiveInfo{}, fmt.Errorf("write archive %s: %w", key, err)
	}

	info := ArchiveInfo{
		Key:          key,
		Codec:        codec,
		CodecName:    codec.String(),
		OriginalSize: uint64(len(data)),
		StoredSize:   uint64(len(packed)),
		Checksum:     crc32.ChecksumIEEE(data),
		Encrypted:    a.packer.enc != nil,
		CreatedAt:    time.Now().UTC(),
	}
	if a.catalog != nil {
		if err := a.catalog.Put(ctx, info); err != nil {
			return ArchiveInfo{}, fmt.Errorf("catalog archive %s: %w", key, err)
		}
	}

	a.stats.archivesStored.Add(1)
	a.stats.bytesIn.Add(info.OriginalSize)
	a.stats.bytesStored.Add(info.StoredSize)
	return info, nil
}

// Load reads and unpacks the archive stored under key.
func (a *Archiver) Load(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrClosed
	}

	packed, err := a.backend.Read(ctx, key)
	if err != nil {
		return nil, err
	}
	data, err := a.packer.Unpack(packed)
	if err != nil {
		return nil, fmt.Errorf("unpack archive %s: %w", key, err)
	}
	a.stats.archivesLoaded.Add(1)
	return data, nil
}

// Delete removes an archive from the backend and the catalog.
func (a *Archiver) Delete(ctx context.Context, key string) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}

	if err := a.backend.Delete(ctx, key); err != nil {
		return err
	}
	if a.catalog != nil {
		return a.catalog.Delete(ctx, key)
	}
	return nil
}

// List returns archive keys with the given prefix.
func (a *Archiver) List(ctx context.Context, prefix string) ([]string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil, ErrClosed
	}
	return a.backend.List(ctx, prefix)
}

// Info returns catalog metadata for a stored archive. Without a catalog
// it falls back to the archive header in the backend.
func (a *Archiver) Info(ctx context.Context, key string) (ArchiveInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ArchiveInfo{}, ErrClosed
	}

	if a.catalog != nil {
		return a.catalog.Get(ctx, key)
	}
	packed, err := a.backend.Read(ctx, key)
	if err != nil {
		return ArchiveInfo{}, err
	}
	codec, encrypted, origSize, err := ReadArchiveHeader(packed)
	if err != nil {
		return ArchiveInfo{}, err
	}
	return ArchiveInfo{
		Key:          key,
		Codec:        codec,
		CodecName:    codec.String(),
		OriginalSize: origSize,
		StoredSize:   uint64(len(packed)),
		Encrypted:    encrypted,
	}, nil
}

// Stats returns a snapshot of the cumulative counters.
func (a *Archiver) Stats() Stats {
	s := Stats{
		ArchivesStored: a.stats.archivesStored.Load(),
		ArchivesLoaded: a.stats.archivesLoaded.Load(),
		BytesIn:        a.stats.bytesIn.Load(),
		BytesStored:    a.stats.bytesStored.Load(),
	}
	if s.BytesStored > 0 {
		s.Ratio = float64(s.BytesIn) / float64(s.BytesStored)
	}
	return s
}

// Pack compresses a buffer into a standalone archive envelope without
// storing it.
func (a *Archiver) Pack(data []byte) ([]byte, error) {
	packed, _, err := a.packer.Pack(data)
	return packed, err
}

// Unpack restores a standalone archive envelope.
func (a *Archiver) Unpack(packed []byte) ([]byte, error) {
	return a.packer.Unpack(packed)
}

// ServerAddr returns the HTTP listen address, empty when no server runs.
func (a *Archiver) ServerAddr() string {
	if a.server == nil {
		return ""
	}
	return a.server.Addr()
}

// Close shuts down the HTTP server, catalog and backend.
func (a *Archiver) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	return a.closeResources()
}

func (a *Archiver) closeResources() error {
	var firstErr error
	if a.server != nil {
		if err := a.server.Close(); err != nil {
			firstErr = err
		}
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
