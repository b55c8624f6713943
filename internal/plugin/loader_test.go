package plugin

import (
	"path/filepath"
	"reflect"
	"testing"
)

func acceptSO(ext string) bool {
	return ext == ".so"
}

func TestNewLoader(t *testing.T) {
	l := NewLoader(acceptSO)

	dirs := l.Dirs()
	if len(dirs) != 1 || filepath.Base(dirs[0]) != DefaultDirName {
		t.Errorf("Dirs() = %v, want the default plugin dir", dirs)
	}
}

func TestDefaultPluginDir(t *testing.T) {
	dir := DefaultPluginDir()
	if filepath.Base(dir) != DefaultDirName {
		t.Errorf("DefaultPluginDir() = %q, want base %q", dir, DefaultDirName)
	}
}

func TestLoaderDiscover(t *testing.T) {
	dir1, dir2 := t.TempDir(), t.TempDir()
	touch(t, dir1, "z.so", "a.so", "readme.md", "so")
	touch(t, filepath.Join(dir1, "sub.so"), "inner.so")
	touch(t, dir2, "m.so")

	l := NewLoader(acceptSO,
		WithDirs(dir1, filepath.Join(t.TempDir(), "missing"), dir2),
		WithLibraries("/opt/extra/x.so", "/opt/extra/x.dll"),
	)

	want := []Candidate{
		{Path: filepath.Join(dir1, "a.so"), Name: "a.so"},
		{Path: filepath.Join(dir1, "z.so"), Name: "z.so"},
		{Path: filepath.Join(dir2, "m.so"), Name: "m.so"},
		{Path: "/opt/extra/x.so", Name: "x.so"},
	}
	if got := l.Discover(); !reflect.DeepEqual(got, want) {
		t.Errorf("Discover() = %v, want %v", got, want)
	}
}

func TestLoaderDiscoverEmpty(t *testing.T) {
	l := NewLoader(acceptSO, WithDirs())
	if got := l.Discover(); len(got) != 0 {
		t.Errorf("Discover() = %v, want nothing", got)
	}
}

func TestFileExt(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a.so", ".so"},
		{"A.DLL", ".dll"},
		{"lib.v2.dylib", ".dylib"},
		{"so", ""},
		{"dir/x.lua", ".lua"},
	}

	for _, tt := range tests {
		if got := fileExt(tt.name); got != tt.want {
			t.Errorf("fileExt(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestNormalizeExt(t *testing.T) {
	tests := []struct {
		ext  string
		want string
	}{
		{".so", ".so"},
		{"SO", ".so"},
		{".Lua", ".lua"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeExt(tt.ext); got != tt.want {
			t.Errorf("normalizeExt(%q) = %q, want %q", tt.ext, got, tt.want)
		}
	}
}
