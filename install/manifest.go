// Package install locates and extracts the peer program and its
// platform-specific runtime assets.
//
// Assets are described by a checksum manifest and fetched from a lode store
// (local filesystem, S3, or memory) into a stable, checksum-keyed cache
// directory. Extraction happens at most once per manifest per process.
package install

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/justapithecus/peerdialog/iox"
)

// Manifest lists the assets required to run the peer.
type Manifest struct {
	// Version labels the asset set; it is part of the cache directory name.
	Version string  `yaml:"version"`
	Assets  []Asset `yaml:"assets"`
}

// Asset is one file to install.
type Asset struct {
	// Name is the installed file name, unique per platform.
	Name string `yaml:"name"`
	// Source is the key inside the asset store. Defaults to Name.
	Source string `yaml:"source,omitempty"`
	// SHA256 is the lowercase hex digest of the file contents.
	SHA256 string `yaml:"sha256"`
	// OS and Arch restrict the asset to one platform. Empty matches all.
	OS   string `yaml:"os,omitempty"`
	Arch string `yaml:"arch,omitempty"`
	// Executable marks files that need the execute bit.
	Executable bool `yaml:"executable,omitempty"`
}

// SourceKey returns the store key for the asset.
func (a Asset) SourceKey() string {
	if a.Source != "" {
		return a.Source
	}
	return a.Name
}

// Matches reports whether the asset applies to goos/goarch.
func (a Asset) Matches(goos, goarch string) bool {
	return (a.OS == "" || a.OS == goos) && (a.Arch == "" || a.Arch == goarch)
}

// ParseManifest decodes a YAML manifest and validates it.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty manifest")
		}
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifest reads and parses a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer iox.DiscardClose(f)
	return ParseManifest(f)
}

// Validate checks names and checksums.
func (m *Manifest) Validate() error {
	if len(m.Assets) == 0 {
		return fmt.Errorf("manifest lists no assets")
	}
	seen := make(map[string]bool)
	for i, a := range m.Assets {
		if a.Name == "" {
			return fmt.Errorf("asset %d: name is required", i)
		}
		if strings.ContainsAny(a.Name, `/\`) || a.Name == "." || a.Name == ".." {
			return fmt.Errorf("asset %q: name must be a plain file name", a.Name)
		}
		if len(a.SHA256) != sha256.Size*2 {
			return fmt.Errorf("asset %q: sha256 must be %d hex characters", a.Name, sha256.Size*2)
		}
		if _, err := hex.DecodeString(a.SHA256); err != nil {
			return fmt.Errorf("asset %q: sha256 is not hex: %w", a.Name, err)
		}
		key := a.Name + "/" + a.OS + "/" + a.Arch
		if seen[key] {
			return fmt.Errorf("asset %q: duplicate entry for %s/%s", a.Name, a.OS, a.Arch)
		}
		seen[key] = true
	}
	return nil
}

// ForPlatform returns the assets that apply to goos/goarch.
func (m *Manifest) ForPlatform(goos, goarch string) []Asset {
	var out []Asset
	for _, a := range m.Assets {
		if a.Matches(goos, goarch) {
			out = append(out, a)
		}
	}
	return out
}

// Current returns the assets for the running platform.
func (m *Manifest) Current() []Asset {
	return m.ForPlatform(runtime.GOOS, runtime.GOARCH)
}

// Checksum derives a stable digest over the platform's asset checksums.
// Two manifests with the same assets share a cache directory.
func (m *Manifest) Checksum(goos, goarch string) string {
	assets := m.ForPlatform(goos, goarch)
	lines := make([]string, 0, len(assets))
	for _, a := range assets {
		lines = append(lines, a.Name+"="+strings.ToLower(a.SHA256))
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}
