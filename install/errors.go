package install

import (
	"errors"
	"fmt"
	"strings"

	"github.com/justapithecus/peerdialog/types"
)

// Sentinel errors for installation failure classification.
// Every AssetError also matches types.ErrInstallationFailed.
var (
	// ErrAssetMissing indicates the asset is absent from the store.
	ErrAssetMissing = errors.New("asset missing")
	// ErrChecksumMismatch indicates fetched contents do not match the manifest.
	ErrChecksumMismatch = errors.New("checksum mismatch")
	// ErrAccessDenied indicates a permission or credential failure.
	ErrAccessDenied = errors.New("access denied")
	// ErrUnavailable indicates a network, timeout, or throttling failure.
	ErrUnavailable = errors.New("asset store unavailable")
	// ErrNoPeer indicates no peer executable could be resolved.
	ErrNoPeer = errors.New("peer executable not found")
)

// AssetError wraps an installation failure with its classification.
type AssetError struct {
	// Kind is the sentinel error for classification (e.g., ErrAssetMissing).
	Kind error
	// Op is the failing step: "fetch", "verify", "write", "resolve".
	Op string
	// Asset is the asset name involved, if any.
	Asset string
	Err   error
}

func (e *AssetError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Asset != "" {
		b.WriteString(" ")
		b.WriteString(e.Asset)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *AssetError) Unwrap() error {
	return e.Err
}

// Is matches the classification sentinel and types.ErrInstallationFailed.
func (e *AssetError) Is(target error) bool {
	return target == types.ErrInstallationFailed || errors.Is(e.Kind, target)
}

func newAssetError(kind error, op, asset string, err error) *AssetError {
	return &AssetError{Kind: kind, Op: op, Asset: asset, Err: err}
}

// classifyStoreError maps a store failure onto a sentinel, by type first
// and then by message pattern.
func classifyStoreError(err error) error {
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return ErrUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "no such file", "does not exist", "not found", "nosuchkey", "404"):
		return ErrAssetMissing
	case containsAny(msg, "permission denied", "accessdenied", "forbidden", "403",
		"credentials", "invalidaccesskeyid", "expiredtoken", "401"):
		return ErrAccessDenied
	case containsAny(msg, "timeout", "timed out", "deadline exceeded", "slowdown", "429",
		"connection refused", "no route to host", "dial tcp"):
		return ErrUnavailable
	default:
		return errors.New("storage error")
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
