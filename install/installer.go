package install

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/justapithecus/lode/lode"

	"github.com/justapithecus/peerdialog/iox"
	"github.com/justapithecus/peerdialog/log"
	"github.com/justapithecus/peerdialog/metrics"
)

// Paths maps asset names to their installed locations.
type Paths map[string]string

// Get returns the installed path of name.
func (p Paths) Get(name string) (string, bool) {
	path, ok := p[name]
	return path, ok
}

// installMu serializes every installation in the process. It is held only
// while extracting, never during a dialog.
var installMu sync.Mutex

// installed caches successful installs by cache directory.
var installed = map[string]Paths{}

// Installer extracts manifest assets from a store into a cache directory.
type Installer struct {
	manifest *Manifest
	factory  lode.StoreFactory
	cacheDir string
	goos     string
	goarch   string
	logger   *log.Logger
	metrics  *metrics.Collector
}

// Option configures an Installer.
type Option func(*Installer)

// WithCacheDir overrides the base cache directory (default os.UserCacheDir,
// falling back to os.TempDir).
func WithCacheDir(dir string) Option {
	return func(i *Installer) { i.cacheDir = dir }
}

// WithPlatform overrides the target platform (default runtime.GOOS/GOARCH).
func WithPlatform(goos, goarch string) Option {
	return func(i *Installer) {
		i.goos = goos
		i.goarch = goarch
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Installer) { i.logger = l }
}

// WithMetrics sets the metrics collector.
func WithMetrics(c *metrics.Collector) Option {
	return func(i *Installer) { i.metrics = c }
}

// NewInstaller creates an installer for m fetching from factory.
func NewInstaller(m *Manifest, factory lode.StoreFactory, opts ...Option) *Installer {
	i := &Installer{
		manifest: m,
		factory:  factory,
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		logger:   log.Nop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.cacheDir == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			i.cacheDir = dir
		} else {
			i.cacheDir = os.TempDir()
		}
	}
	return i
}

// Dir returns the checksum-keyed install directory. Multiple asset
// versions coexist side by side.
func (i *Installer) Dir() string {
	version := i.manifest.Version
	if version == "" {
		version = "dev"
	}
	name := fmt.Sprintf("peerdialog-%s-%s", version, i.manifest.Checksum(i.goos, i.goarch)[:16])
	return filepath.Join(i.cacheDir, name)
}

// Ensure installs the platform's assets if needed and returns their paths.
// Successful installs are cached for the process lifetime; a failed
// install is retried on the next call.
func (i *Installer) Ensure(ctx context.Context) (Paths, error) {
	dir := i.Dir()

	installMu.Lock()
	defer installMu.Unlock()

	if paths, ok := installed[dir]; ok {
		return paths, nil
	}

	paths, err := i.extract(ctx, dir)
	if err != nil {
		i.metrics.IncInstallFailure()
		i.logger.Warn("asset installation failed", map[string]any{
			"dir":   dir,
			"error": err.Error(),
		})
		return nil, err
	}

	i.metrics.IncInstallSuccess()
	i.logger.Info("assets installed", map[string]any{
		"dir":    dir,
		"assets": len(paths),
	})
	installed[dir] = paths
	return paths, nil
}

func (i *Installer) extract(ctx context.Context, dir string) (Paths, error) {
	assets := i.manifest.ForPlatform(i.goos, i.goarch)
	if len(assets) == 0 {
		return nil, newAssetError(ErrAssetMissing, "resolve", "",
			fmt.Errorf("no assets for %s/%s", i.goos, i.goarch))
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newAssetError(ErrAccessDenied, "write", "", fmt.Errorf("failed to create install directory: %w", err))
	}

	var store lode.Store
	paths := make(Paths, len(assets))
	for _, a := range assets {
		target := filepath.Join(dir, a.Name)

		// Already extracted by an earlier process.
		if ok, _ := fileMatches(target, a.SHA256); ok {
			if err := ensureMode(target, a.Executable); err != nil {
				return nil, newAssetError(ErrAccessDenied, "write", a.Name, err)
			}
			paths[a.Name] = target
			continue
		}

		if store == nil {
			s, err := i.factory()
			if err != nil {
				return nil, newAssetError(classifyStoreError(err), "fetch", a.Name, err)
			}
			store = s
		}

		data, err := fetch(ctx, store, a.SourceKey())
		if err != nil {
			return nil, newAssetError(classifyStoreError(err), "fetch", a.Name, err)
		}
		if got := checksum(data); !strings.EqualFold(got, a.SHA256) {
			return nil, newAssetError(ErrChecksumMismatch, "verify", a.Name,
				fmt.Errorf("got %s, want %s", got, strings.ToLower(a.SHA256)))
		}
		if err := writeAtomic(target, data, a.Executable); err != nil {
			return nil, newAssetError(ErrAccessDenied, "write", a.Name, err)
		}
		paths[a.Name] = target
	}
	return paths, nil
}

func fetch(ctx context.Context, store lode.Store, key string) ([]byte, error) {
	rc, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(rc)
	return io.ReadAll(rc)
}

func checksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func fileMatches(path, want string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(checksum(data), want), nil
}

func fileMode(executable bool) os.FileMode {
	if executable {
		return 0o755
	}
	return 0o644
}

func ensureMode(path string, executable bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if want := fileMode(executable); info.Mode().Perm() != want {
		return os.Chmod(path, want)
	}
	return nil
}

// writeAtomic writes data next to path and renames it into place so a
// concurrent process never observes a partial file.
func writeAtomic(path string, data []byte, executable bool) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, fileMode(executable)); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Cleanup removes the install directory and forgets the cached install.
// Safe to call multiple times or if installation never happened.
func (i *Installer) Cleanup() error {
	dir := i.Dir()

	installMu.Lock()
	defer installMu.Unlock()

	delete(installed, dir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove install directory: %w", err)
	}
	return nil
}
