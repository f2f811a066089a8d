package filter

import (
	"path/filepath"
	"testing"
)

func TestRepairCandidates(t *testing.T) {
	tests := []struct {
		path string
		ext  string
		want []string
	}{
		{"foo", "png", []string{"foo.png"}},
		{"foo.", "png", []string{"foo..png"}},
		{".config", "png", []string{".config.png"}},
		{filepath.Join("tmp", ".config"), "png", []string{filepath.Join("tmp", ".config.png")}},
		{".config.bak", "png", []string{".config.png", ".config.bak.png"}},
		{"foo.bar", "png", []string{"foo.png", "foo.bar.png"}},
		{"foo.bar", ".png", []string{"foo.png", "foo.bar.png"}},
		{filepath.Join("dir.d", "foo"), "png", []string{filepath.Join("dir.d", "foo.png")}},
		{filepath.Join("dir", "a.b.c"), "txt", []string{filepath.Join("dir", "a.b.txt"), filepath.Join("dir", "a.b.c.txt")}},
	}
	for _, tt := range tests {
		got := RepairCandidates(tt.path, tt.ext)
		if len(got) != len(tt.want) {
			t.Errorf("RepairCandidates(%q, %q) = %v, want %v", tt.path, tt.ext, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("RepairCandidates(%q, %q)[%d] = %q, want %q", tt.path, tt.ext, i, got[i], tt.want[i])
			}
		}
	}
}

func TestRepairExtension_NoDot(t *testing.T) {
	called := false
	got, ok := RepairExtension("foo", "png", func([]string) (int, bool) {
		called = true
		return 0, true
	})
	if !ok || got != "foo.png" {
		t.Errorf("RepairExtension(foo) = %q, %v, want foo.png, true", got, ok)
	}
	if called {
		t.Error("chooser consulted for a single candidate")
	}
}

func TestRepairExtension_TwoCandidates(t *testing.T) {
	var offered []string
	choose := func(idx int, ok bool) Chooser {
		return func(c []string) (int, bool) {
			offered = c
			return idx, ok
		}
	}

	got, ok := RepairExtension("foo.bar", "png", choose(0, true))
	if !ok || got != "foo.png" {
		t.Errorf("replace = %q, %v", got, ok)
	}
	if len(offered) != 2 || offered[0] != "foo.png" || offered[1] != "foo.bar.png" {
		t.Errorf("offered = %v", offered)
	}

	got, ok = RepairExtension("foo.bar", "png", choose(1, true))
	if !ok || got != "foo.bar.png" {
		t.Errorf("double = %q, %v", got, ok)
	}

	if got, ok := RepairExtension("foo.bar", "png", choose(0, false)); ok {
		t.Errorf("cancel = %q, %v, want absent", got, ok)
	}
	if got, ok := RepairExtension("foo.bar", "png", choose(5, true)); ok {
		t.Errorf("out of range = %q, %v, want absent", got, ok)
	}
	if got, ok := RepairExtension("foo.bar", "png", nil); ok {
		t.Errorf("nil chooser = %q, %v, want absent", got, ok)
	}
}

func TestRepairExtension_EmptyExtension(t *testing.T) {
	got, ok := RepairExtension("foo", "", nil)
	if !ok || got != "foo" {
		t.Errorf("RepairExtension(foo, \"\") = %q, %v", got, ok)
	}
}

func TestRepairExtension_DotfileMatchesFilter(t *testing.T) {
	f := MustNew("Images", "png")
	for _, name := range []string{".config", "photo."} {
		got, ok := RepairExtension(filepath.Join("tmp", name), "png", func([]string) (int, bool) {
			t.Errorf("chooser consulted for %q", name)
			return 0, false
		})
		if !ok {
			t.Errorf("RepairExtension(%q) declined", name)
			continue
		}
		if !f.MatchesName(filepath.Base(got)) {
			t.Errorf("repaired name %q does not match %s", got, f.Description())
		}
	}
}
