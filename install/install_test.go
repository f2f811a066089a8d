package install

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/peerdialog/iox"
	"github.com/justapithecus/peerdialog/metrics"
	"github.com/justapithecus/peerdialog/types"
)

func sharedFactory(store lode.Store) lode.StoreFactory {
	return func() (lode.Store, error) { return store, nil }
}

// countingStore counts Get calls on top of a memory store.
type countingStore struct {
	lode.Store
	gets int
}

func (s *countingStore) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	s.gets++
	return s.Store.Get(ctx, path)
}

func seed(t *testing.T, store lode.Store, key string, data []byte) string {
	t.Helper()
	if err := store.Put(t.Context(), key, bytes.NewReader(data)); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
	return checksum(data)
}

func testManifest(t *testing.T, store lode.Store) *Manifest {
	t.Helper()
	peer := []byte("#!/bin/sh\necho EXIT\n")
	lib := []byte("runtime library")
	return &Manifest{
		Version: "1.2.3",
		Assets: []Asset{
			{Name: PeerName, Source: "bin/linux/peer", SHA256: seed(t, store, "bin/linux/peer", peer), OS: "linux", Executable: true},
			{Name: "libui.so", SHA256: seed(t, store, "libui.so", lib), OS: "linux", Arch: "amd64"},
			{Name: "other.dll", SHA256: seed(t, store, "other.dll", []byte("win")), OS: "windows"},
		},
	}
}

func TestParseManifest(t *testing.T) {
	sum := strings.Repeat("ab", 32)
	input := fmt.Sprintf(`
version: "0.3.0"
assets:
  - name: peerdialog-peer
    sha256: %s
    os: linux
    executable: true
  - name: peerdialog-peer.exe
    source: win/peer.exe
    sha256: %s
    os: windows
`, sum, strings.ToUpper(sum))

	m, err := ParseManifest(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if m.Version != "0.3.0" || len(m.Assets) != 2 {
		t.Fatalf("manifest = %+v", m)
	}
	if !m.Assets[0].Executable || m.Assets[0].SourceKey() != "peerdialog-peer" {
		t.Errorf("asset 0 = %+v", m.Assets[0])
	}
	if m.Assets[1].SourceKey() != "win/peer.exe" {
		t.Errorf("asset 1 source = %q", m.Assets[1].SourceKey())
	}
	if got := m.ForPlatform("linux", "arm64"); len(got) != 1 || got[0].Name != "peerdialog-peer" {
		t.Errorf("ForPlatform(linux) = %+v", got)
	}
}

func TestParseManifest_Invalid(t *testing.T) {
	sum := strings.Repeat("0", 64)
	tests := map[string]string{
		"empty":         "",
		"no assets":     "version: x\n",
		"missing name":  "assets:\n  - sha256: " + sum + "\n",
		"path name":     "assets:\n  - name: a/b\n    sha256: " + sum + "\n",
		"short sha":     "assets:\n  - name: a\n    sha256: abc\n",
		"non-hex sha":   "assets:\n  - name: a\n    sha256: " + strings.Repeat("z", 64) + "\n",
		"unknown field": "assets:\n  - name: a\n    sha256: " + sum + "\n    color: red\n",
		"duplicate":     "assets:\n  - name: a\n    sha256: " + sum + "\n  - name: a\n    sha256: " + sum + "\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseManifest(strings.NewReader(input)); err == nil {
				t.Error("ParseManifest succeeded, want error")
			}
		})
	}
}

func TestManifest_ChecksumStable(t *testing.T) {
	a := &Manifest{Assets: []Asset{
		{Name: "x", SHA256: strings.Repeat("a", 64)},
		{Name: "y", SHA256: strings.Repeat("b", 64)},
	}}
	b := &Manifest{Assets: []Asset{a.Assets[1], a.Assets[0]}}
	if a.Checksum("linux", "amd64") != b.Checksum("linux", "amd64") {
		t.Error("checksum depends on asset order")
	}
	c := &Manifest{Assets: []Asset{{Name: "x", SHA256: strings.Repeat("c", 64)}}}
	if a.Checksum("linux", "amd64") == c.Checksum("linux", "amd64") {
		t.Error("different assets share a checksum")
	}
}

func TestInstaller_EnsureExtractsOnce(t *testing.T) {
	store := &countingStore{Store: lode.NewMemory()}
	m := testManifest(t, store)
	c := metrics.NewCollector("test", "none")
	inst := NewInstaller(m, sharedFactory(store),
		WithCacheDir(t.TempDir()), WithPlatform("linux", "amd64"), WithMetrics(c))
	t.Cleanup(func() { iox.DiscardErr(inst.Cleanup) })

	paths, err := inst.Ensure(t.Context())
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v, want peer and libui.so", paths)
	}

	peer, ok := paths.Get(PeerName)
	if !ok {
		t.Fatal("peer path missing")
	}
	if filepath.Dir(peer) != inst.Dir() {
		t.Errorf("peer installed at %q, want under %q", peer, inst.Dir())
	}
	if !strings.HasPrefix(filepath.Base(inst.Dir()), "peerdialog-1.2.3-") {
		t.Errorf("install dir = %q", inst.Dir())
	}
	info, err := os.Stat(peer)
	if err != nil {
		t.Fatalf("stat peer: %v", err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("peer mode = %v, want executable", info.Mode())
	}
	lib, _ := paths.Get("libui.so")
	if info, _ := os.Stat(lib); info.Mode().Perm()&0o111 != 0 {
		t.Errorf("libui.so mode = %v, want non-executable", info.Mode())
	}

	again, err := inst.Ensure(t.Context())
	if err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if again[PeerName] != peer {
		t.Errorf("second Ensure returned %q", again[PeerName])
	}
	if store.gets != 2 {
		t.Errorf("store Get calls = %d, want 2 (one per asset, cached afterwards)", store.gets)
	}
	if s := c.Snapshot(); s.InstallSuccess != 1 {
		t.Errorf("InstallSuccess = %d, want 1", s.InstallSuccess)
	}
}

func TestInstaller_ReusesExtractedFiles(t *testing.T) {
	store := &countingStore{Store: lode.NewMemory()}
	m := testManifest(t, store)
	cache := t.TempDir()

	first := NewInstaller(m, sharedFactory(store), WithCacheDir(cache), WithPlatform("linux", "amd64"))
	if _, err := first.Ensure(t.Context()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	// Forget the in-process cache but keep the files on disk.
	installMu.Lock()
	delete(installed, first.Dir())
	installMu.Unlock()
	store.gets = 0

	second := NewInstaller(m, sharedFactory(store), WithCacheDir(cache), WithPlatform("linux", "amd64"))
	if _, err := second.Ensure(t.Context()); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if store.gets != 0 {
		t.Errorf("store Get calls = %d, want 0 for verified files", store.gets)
	}
	_ = second.Cleanup()
}

func TestInstaller_ChecksumMismatch(t *testing.T) {
	store := lode.NewMemory()
	m := testManifest(t, store)
	m.Assets[0].SHA256 = strings.Repeat("f", 64)

	c := metrics.NewCollector("test", "none")
	inst := NewInstaller(m, sharedFactory(store), WithCacheDir(t.TempDir()), WithPlatform("linux", "amd64"), WithMetrics(c))
	_, err := inst.Ensure(t.Context())
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Ensure error = %v, want ErrChecksumMismatch", err)
	}
	if !errors.Is(err, types.ErrInstallationFailed) {
		t.Errorf("error should match types.ErrInstallationFailed")
	}
	var aErr *AssetError
	if !errors.As(err, &aErr) || aErr.Asset != PeerName || aErr.Op != "verify" {
		t.Errorf("AssetError = %+v", aErr)
	}
	if _, statErr := os.Stat(filepath.Join(inst.Dir(), PeerName)); !os.IsNotExist(statErr) {
		t.Error("mismatched asset was written to disk")
	}
	if s := c.Snapshot(); s.InstallFailure != 1 {
		t.Errorf("InstallFailure = %d, want 1", s.InstallFailure)
	}
}

func TestInstaller_MissingAsset(t *testing.T) {
	store := lode.NewMemory()
	m := &Manifest{Version: "x", Assets: []Asset{{Name: PeerName, SHA256: strings.Repeat("a", 64)}}}
	inst := NewInstaller(m, sharedFactory(store), WithCacheDir(t.TempDir()))

	_, err := inst.Ensure(t.Context())
	if !errors.Is(err, types.ErrInstallationFailed) {
		t.Fatalf("Ensure error = %v, want ErrInstallationFailed", err)
	}
}

func TestInstaller_NoAssetsForPlatform(t *testing.T) {
	store := lode.NewMemory()
	m := testManifest(t, store)
	inst := NewInstaller(m, sharedFactory(store), WithCacheDir(t.TempDir()), WithPlatform("plan9", "386"))

	_, err := inst.Ensure(t.Context())
	if !errors.Is(err, ErrAssetMissing) {
		t.Errorf("Ensure error = %v, want ErrAssetMissing", err)
	}
}

func TestInstaller_FactoryFailure(t *testing.T) {
	m := &Manifest{Version: "x", Assets: []Asset{{Name: PeerName, SHA256: strings.Repeat("a", 64)}}}
	factory := func() (lode.Store, error) { return nil, errors.New("dial tcp 10.0.0.1:443: connection refused") }
	inst := NewInstaller(m, factory, WithCacheDir(t.TempDir()))

	_, err := inst.Ensure(t.Context())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Ensure error = %v, want ErrUnavailable", err)
	}
}

func TestClassifyStoreError(t *testing.T) {
	tests := []struct {
		msg  string
		want error
	}{
		{"open /x: no such file or directory", ErrAssetMissing},
		{"NoSuchKey: The specified key does not exist", ErrAssetMissing},
		{"AccessDenied: 403", ErrAccessDenied},
		{"open /x: permission denied", ErrAccessDenied},
		{"context deadline exceeded", ErrUnavailable},
		{"SlowDown", ErrUnavailable},
	}
	for _, tt := range tests {
		if got := classifyStoreError(errors.New(tt.msg)); got != tt.want {
			t.Errorf("classifyStoreError(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}
}
