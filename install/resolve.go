package install

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// PeerName is the base name of the peer executable.
const PeerName = "peerdialog-peer"

// Resolver finds the peer executable.
//
// Lookup order: the configured path, the installed manifest asset, a
// sibling of the running executable, then $PATH.
type Resolver struct {
	// Path is an explicit peer location. When set, it must exist.
	Path string
	// Installer provides the peer as a manifest asset. Optional.
	Installer *Installer
	// Name overrides PeerName for the sibling, asset, and $PATH lookups.
	Name string

	// executable and lookPath are replaced in tests.
	executable func() (string, error)
	lookPath   func(string) (string, error)
}

func (r *Resolver) name() string {
	name := r.Name
	if name == "" {
		name = PeerName
	}
	if runtime.GOOS == "windows" && filepath.Ext(name) == "" {
		name += ".exe"
	}
	return name
}

// Resolve returns the peer path. Every failure matches
// types.ErrInstallationFailed.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	if r.Path != "" {
		if err := checkExecutable(r.Path); err != nil {
			return "", newAssetError(ErrNoPeer, "resolve", r.Path, err)
		}
		return r.Path, nil
	}

	name := r.name()
	if r.Installer != nil {
		paths, err := r.Installer.Ensure(ctx)
		if err != nil {
			return "", err
		}
		if p, ok := paths.Get(name); ok {
			return p, nil
		}
	}

	executable := r.executable
	if executable == nil {
		executable = os.Executable
	}
	if self, err := executable(); err == nil {
		sibling := filepath.Join(filepath.Dir(self), name)
		if checkExecutable(sibling) == nil {
			return sibling, nil
		}
	}

	lookPath := r.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	if p, err := lookPath(name); err == nil {
		return p, nil
	}

	return "", newAssetError(ErrNoPeer, "resolve", name,
		fmt.Errorf("%s not installed, not beside the executable, and not on PATH", name))
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return errors.New("is a directory")
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return errors.New("not executable")
	}
	return nil
}
