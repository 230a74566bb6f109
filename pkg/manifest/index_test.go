package manifest

import (
	"errors"
	"strings"
	"testing"
)

func chainManifest() *Manifest {
	return &Manifest{
		PackageName:     "Chain",
		OutputNameStyle: NameStyleHashName,
		BundleList: []Bundle{
			{BundleName: "a.bundle", FileHash: "aa", DependIDs: []int32{1}},
			{BundleName: "b.bundle", FileHash: "bb", DependIDs: []int32{2}},
			{BundleName: "c.bundle", FileHash: "cc", Tags: []string{"base"}},
		},
		AssetList: []Asset{
			{AssetPath: "assets/ui/button.png", BundleID: 0},
		},
	}
}

func TestIndexDependencies(t *testing.T) {
	idx, err := NewIndex(chainManifest())
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	a, _ := idx.BundleByName("a.bundle")
	deps := idx.Dependencies(a)
	var names []string
	for _, d := range deps {
		names = append(names, d.BundleName)
	}
	if got := strings.Join(names, ","); got != "b.bundle,c.bundle" {
		t.Fatalf("Dependencies = %s, want b.bundle,c.bundle", got)
	}

	if b, ok := idx.BundleByFileName("cc"); !ok || b.BundleName != "c.bundle" {
		t.Fatalf("BundleByFileName(cc) = %+v, %v", b, ok)
	}
	if got := idx.BundlesWithTags("base"); len(got) != 1 || got[0].BundleName != "c.bundle" {
		t.Fatalf("BundlesWithTags(base) = %+v", got)
	}
}

func TestIndexRejectsInvalidBundleIndex(t *testing.T) {
	m := chainManifest()
	m.BundleList[2].DependIDs = []int32{3}
	if _, err := NewIndex(m); !errors.Is(err, ErrInvalidBundleIndex) {
		t.Fatalf("NewIndex error = %v, want ErrInvalidBundleIndex", err)
	}

	m = chainManifest()
	m.AssetList[0].BundleID = -1
	if _, err := NewIndex(m); !errors.Is(err, ErrInvalidBundleIndex) {
		t.Fatalf("NewIndex error = %v, want ErrInvalidBundleIndex", err)
	}
}

func TestIndexRejectsDependencyCycle(t *testing.T) {
	m := chainManifest()
	m.BundleList[2].DependIDs = []int32{0}
	_, err := NewIndex(m)
	if !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("NewIndex error = %v, want ErrDependencyCycle", err)
	}
	if !strings.Contains(err.Error(), "a.bundle -> b.bundle -> c.bundle -> a.bundle") {
		t.Fatalf("cycle message = %q", err.Error())
	}
}

func TestIndexRejectsSelfDependency(t *testing.T) {
	m := chainManifest()
	m.BundleList[2].DependIDs = []int32{2}
	if _, err := NewIndex(m); !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("NewIndex error = %v, want ErrDependencyCycle", err)
	}
}

func TestIndexRejectsDuplicateFileName(t *testing.T) {
	m := chainManifest()
	m.BundleList[1].FileHash = "aa"
	if _, err := NewIndex(m); !errors.Is(err, ErrDuplicateBundle) {
		t.Fatalf("NewIndex error = %v, want ErrDuplicateBundle", err)
	}
}

func TestIndexAssetByLocation(t *testing.T) {
	m := chainManifest()
	m.LocationToLower = true
	idx, err := NewIndex(m)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	a, ok := idx.AssetByLocation("Assets/UI/Button.png")
	if !ok {
		t.Fatal("AssetByLocation did not lower-case the location")
	}
	if b := idx.BundleOf(a); b.BundleName != "a.bundle" {
		t.Fatalf("BundleOf = %s, want a.bundle", b.BundleName)
	}

	m = chainManifest()
	m.EnableAddressable = true
	m.AssetList[0].Address = "button"
	idx, err = NewIndex(m)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if _, ok := idx.AssetByLocation("button"); !ok {
		t.Fatal("AssetByLocation did not resolve the address")
	}
}

func TestIndexRejectsDuplicateBundleName(t *testing.T) {
	m := chainManifest()
	m.BundleList[1].BundleName = "a.bundle"
	_, err := NewIndex(m)
	if !errors.Is(err, ErrDuplicateBundle) {
		t.Fatalf("NewIndex error = %v, want ErrDuplicateBundle", err)
	}
	if !strings.Contains(err.Error(), `bundle name "a.bundle"`) {
		t.Fatalf("NewIndex error = %v, want it to name the bundle", err)
	}
}

func TestIndexRejectsDuplicateAddress(t *testing.T) {
	m := chainManifest()
	m.EnableAddressable = true
	m.AssetList = []Asset{
		{Address: "button", AssetPath: "assets/ui/button.png", BundleID: 0},
		{Address: "button", AssetPath: "assets/ui/button_pressed.png", BundleID: 0},
	}
	_, err := NewIndex(m)
	if !errors.Is(err, ErrDuplicateAddress) {
		t.Fatalf("NewIndex error = %v, want ErrDuplicateAddress", err)
	}
	if errors.Is(err, ErrDuplicateAssetPath) {
		t.Fatalf("address clash reported as a path clash: %v", err)
	}

	m.EnableAddressable = false
	if _, err := NewIndex(m); err != nil {
		t.Fatalf("NewIndex without addressing: %v", err)
	}
}
