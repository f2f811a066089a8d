package install

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/peerdialog/iox"
	"github.com/justapithecus/peerdialog/types"
)

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func notFound(string) (string, error) { return "", errors.New("not found") }

func TestResolver_ConfiguredPath(t *testing.T) {
	dir := t.TempDir()
	peer := filepath.Join(dir, "custom-peer")
	writeExecutable(t, peer)

	r := &Resolver{Path: peer}
	got, err := r.Resolve(t.Context())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != peer {
		t.Errorf("Resolve() = %q, want %q", got, peer)
	}

	r = &Resolver{Path: filepath.Join(dir, "missing")}
	if _, err := r.Resolve(t.Context()); !errors.Is(err, types.ErrInstallationFailed) {
		t.Errorf("missing configured path error = %v, want ErrInstallationFailed", err)
	}
}

func TestResolver_ConfiguredPathNotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("execute bit not meaningful on windows")
	}
	peer := filepath.Join(t.TempDir(), "peer")
	if err := os.WriteFile(peer, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := (&Resolver{Path: peer}).Resolve(t.Context())
	if !errors.Is(err, ErrNoPeer) {
		t.Errorf("Resolve error = %v, want ErrNoPeer", err)
	}
}

func TestResolver_InstalledAsset(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("asset name gains .exe on windows")
	}
	store := lode.NewMemory()
	data := []byte("peer binary")
	m := &Manifest{Version: "r", Assets: []Asset{{Name: "fake-peer", SHA256: seed(t, store, "fake-peer", data), Executable: true}}}
	inst := NewInstaller(m, sharedFactory(store), WithCacheDir(t.TempDir()))
	t.Cleanup(func() { iox.DiscardErr(inst.Cleanup) })

	r := &Resolver{Installer: inst, Name: "fake-peer", lookPath: notFound}
	got, err := r.Resolve(t.Context())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !strings.HasPrefix(got, inst.Dir()) {
		t.Errorf("Resolve() = %q, want under %q", got, inst.Dir())
	}
}

func TestResolver_Sibling(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sibling name gains .exe on windows")
	}
	dir := t.TempDir()
	writeExecutable(t, filepath.Join(dir, PeerName))

	r := &Resolver{
		executable: func() (string, error) { return filepath.Join(dir, "peerdialog"), nil },
		lookPath:   notFound,
	}
	got, err := r.Resolve(t.Context())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if got != filepath.Join(dir, PeerName) {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestResolver_PathLookup(t *testing.T) {
	r := &Resolver{
		executable: func() (string, error) { return "", errors.New("unknown") },
		lookPath: func(name string) (string, error) {
			return "/usr/local/bin/" + name, nil
		},
	}
	got, err := r.Resolve(t.Context())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if !strings.HasPrefix(got, "/usr/local/bin/"+PeerName) {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestResolver_NotFound(t *testing.T) {
	r := &Resolver{
		executable: func() (string, error) { return filepath.Join(t.TempDir(), "self"), nil },
		lookPath:   notFound,
	}
	_, err := r.Resolve(t.Context())
	if !errors.Is(err, ErrNoPeer) || !errors.Is(err, types.ErrInstallationFailed) {
		t.Errorf("Resolve error = %v, want ErrNoPeer and ErrInstallationFailed", err)
	}
}
