package packbit

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/packbit-io/packbit/internal/testutil"
)

func openTestArchiver(t *testing.T, mutate func(*Config)) *Archiver {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := Open(cfg)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestArchiverStoreLoad(t *testing.T) {
	a := openTestArchiver(t, nil)
	ctx := context.Background()
	data := testutil.SkewedBytes(t, 16*1024, 23)

	info, err := a.Store(ctx, "logs/app.pbk", data)
	if err != nil {
		t.Fatal(err)
	}
	if info.Key != "logs/app.pbk" || info.OriginalSize != uint64(len(data)) {
		t.Fatalf("info = %+v", info)
	}
	if info.Codec == CodecAuto {
		t.Fatal("stored info must carry the resolved wire codec")
	}
	if info.StoredSize >= info.OriginalSize {
		t.Fatalf("skewed input did not compress: stored %d >= original %d",
			info.StoredSize, info.OriginalSize)
	}

	got, err := a.Load(ctx, "logs/app.pbk")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertBytesEqual(t, got, data)
}

func TestArchiverLoadMissing(t *testing.T) {
	a := openTestArchiver(t, nil)
	if _, err := a.Load(context.Background(), "missing"); !errors.Is(err, ErrArchiveNotFound) {
		t.Fatalf("got %v, want ErrArchiveNotFound", err)
	}
}

func TestArchiverDelete(t *testing.T) {
	a := openTestArchiver(t, nil)
	ctx := context.Background()

	if _, err := a.Store(ctx, "k", []byte("payload")); err != nil {
		t.Fatal(err)
	}
	if err := a.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Load(ctx, "k"); !errors.Is(err, ErrArchiveNotFound) {
		t.Fatalf("got %v, want ErrArchiveNotFound", err)
	}
}

func TestArchiverList(t *testing.T) {
	a := openTestArchiver(t, nil)
	ctx := context.Background()

	for _, key := range []string{"logs/a", "logs/b", "images/c"} {
		if _, err := a.Store(ctx, key, []byte("payload")); err != nil {
			t.Fatal(err)
		}
	}
	keys, err := a.List(ctx, "logs/")
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 {
		t.Fatalf("List(logs/) = %v", keys)
	}
}

func TestArchiverStats(t *testing.T) {
	a := openTestArchiver(t, nil)
	ctx := context.Background()
	data := testutil.SkewedBytes(t, 8*1024, 29)

	if _, err := a.Store(ctx, "a", data); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Store(ctx, "b", data); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Load(ctx, "a"); err != nil {
		t.Fatal(err)
	}

	s := a.Stats()
	if s.ArchivesStored != 2 || s.ArchivesLoaded != 1 {
		t.Fatalf("stats = %+v", s)
	}
	if s.BytesIn != 2*uint64(len(data)) {
		t.Fatalf("bytes_in = %d, want %d", s.BytesIn, 2*len(data))
	}
	if s.Ratio <= 1 {
		t.Fatalf("ratio = %v, want > 1 for compressible input", s.Ratio)
	}
}

func TestArchiverInfoWithoutCatalog(t *testing.T) {
	a := openTestArchiver(t, nil)
	ctx := context.Background()
	data := testutil.SkewedBytes(t, 4*1024, 31)

	if _, err := a.Store(ctx, "k", data); err != nil {
		t.Fatal(err)
	}
	info, err := a.Info(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if info.OriginalSize != uint64(len(data)) || info.Encrypted {
		t.Fatalf("info = %+v", info)
	}
}

func TestArchiverWithCatalog(t *testing.T) {
	a := openTestArchiver(t, func(cfg *Config) {
		cfg.Catalog = &CatalogConfig{Enabled: true, Path: testutil.TempCatalogPath(t)}
	})
	ctx := context.Background()
	data := testutil.SkewedBytes(t, 4*1024, 37)

	stored, err := a.Store(ctx, "k", data)
	if err != nil {
		t.Fatal(err)
	}
	info, err := a.Info(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if info.Checksum != stored.Checksum || info.Codec != stored.Codec {
		t.Fatalf("catalog info %+v does not match stored info %+v", info, stored)
	}

	if err := a.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Info(ctx, "k"); !errors.Is(err, ErrArchiveNotFound) {
		t.Fatalf("got %v, want ErrArchiveNotFound", err)
	}
}

func TestArchiverFileBackend(t *testing.T) {
	a := openTestArchiver(t, func(cfg *Config) {
		cfg.Storage = StorageConfig{Type: "file", Dir: t.TempDir()}
	})
	ctx := context.Background()
	data := []byte("a small sample string")

	if _, err := a.Store(ctx, "k", data); err != nil {
		t.Fatal(err)
	}
	got, err := a.Load(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertBytesEqual(t, got, data)
}

func TestArchiverEncrypted(t *testing.T) {
	backend := NewMemoryBackend()
	a := openTestArchiver(t, func(cfg *Config) {
		cfg.Backend = backend
		cfg.Encryption = &EncryptionConfig{
			Enabled: true,
			Key:     bytes.Repeat([]byte{9}, EncryptionKeySize),
		}
	})
	ctx := context.Background()
	data := testutil.SkewedBytes(t, 4*1024, 41)

	info, err := a.Store(ctx, "k", data)
	if err != nil {
		t.Fatal(err)
	}
	if !info.Encrypted {
		t.Fatal("info must report encryption")
	}

	raw, err := backend.Read(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, data[:64]) {
		t.Fatal("backend holds plaintext")
	}

	got, err := a.Load(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertBytesEqual(t, got, data)
}

func TestArchiverPackUnpack(t *testing.T) {
	a := openTestArchiver(t, nil)
	data := testutil.SkewedBytes(t, 4*1024, 43)

	packed, err := a.Pack(data)
	if err != nil {
		t.Fatal(err)
	}
	got, err := a.Unpack(packed)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertBytesEqual(t, got, data)
}

func TestArchiverClosed(t *testing.T) {
	a := openTestArchiver(t, nil)
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}
	if err := a.Close(); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if _, err := a.Store(ctx, "k", []byte("x")); err != ErrClosed {
		t.Fatalf("Store: got %v, want ErrClosed", err)
	}
	if _, err := a.Load(ctx, "k"); err != ErrClosed {
		t.Fatalf("Load: got %v, want ErrClosed", err)
	}
	if err := a.Delete(ctx, "k"); err != ErrClosed {
		t.Fatalf("Delete: got %v, want ErrClosed", err)
	}
	if _, err := a.List(ctx, ""); err != ErrClosed {
		t.Fatalf("List: got %v, want ErrClosed", err)
	}
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Codec = "lzma"
	if _, err := Open(cfg); err == nil {
		t.Fatal("bad codec accepted")
	}
}

func TestArchiverServerAddrWithoutServer(t *testing.T) {
	a := openTestArchiver(t, nil)
	if addr := a.ServerAddr(); addr != "" {
		t.Fatalf("ServerAddr = %q, want empty", addr)
	}
}
