package footprint

import (
	"os"
	"path/filepath"
	"testing"
)

type pathStore string

func (p pathStore) FootprintPath() string { return string(p) }

func TestFirstLoadIsClean(t *testing.T) {
	path := pathStore(filepath.Join(t.TempDir(), "pkg", "ApplicationFootPrint.bytes"))
	g := New(path, "build-1", nil)
	if err := g.Load("pkg"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.IsDirty() {
		t.Fatal("IsDirty = true after first load")
	}
	data, err := os.ReadFile(string(path))
	if err != nil {
		t.Fatalf("footprint not persisted: %v", err)
	}
	if string(data) != "build-1" {
		t.Fatalf("persisted footprint = %q, want build-1", data)
	}
}

func TestDirtyUntilCoverage(t *testing.T) {
	path := pathStore(filepath.Join(t.TempDir(), "ApplicationFootPrint.bytes"))

	old := New(path, "build-1", nil)
	if err := old.Load("pkg"); err != nil {
		t.Fatal(err)
	}

	g := New(path, "build-2", nil)
	if err := g.Load("pkg"); err != nil {
		t.Fatal(err)
	}
	if !g.IsDirty() {
		t.Fatal("IsDirty = false after build change")
	}
	if g.Value() != "build-1" {
		t.Fatalf("Value = %q, want build-1", g.Value())
	}

	if err := g.Coverage("pkg"); err != nil {
		t.Fatal(err)
	}
	if g.IsDirty() {
		t.Fatal("IsDirty = true after Coverage")
	}

	reloaded := New(path, "build-2", nil)
	if err := reloaded.Load("pkg"); err != nil {
		t.Fatal(err)
	}
	if reloaded.IsDirty() {
		t.Fatal("IsDirty = true after reload of covered footprint")
	}
}

func TestCoverageByOtherBuildMakesDirty(t *testing.T) {
	path := pathStore(filepath.Join(t.TempDir(), "ApplicationFootPrint.bytes"))
	g := New(path, "build-1", nil)
	if err := g.Load("pkg"); err != nil {
		t.Fatal(err)
	}

	if err := New(path, "build-2", nil).Coverage("pkg"); err != nil {
		t.Fatal(err)
	}
	if err := g.Load("pkg"); err != nil {
		t.Fatal(err)
	}
	if !g.IsDirty() {
		t.Fatal("IsDirty = false after another build covered the footprint")
	}
	if err := g.Coverage("pkg"); err != nil {
		t.Fatal(err)
	}
	if g.IsDirty() {
		t.Fatal("IsDirty = true after matching Coverage")
	}
}

func TestDefaultBuildIDNotEmpty(t *testing.T) {
	if DefaultBuildID() == "" {
		t.Fatal("DefaultBuildID is empty")
	}
}
