package manifest

import (
	"strings"
)

// Index is the read-only lookup view over a decoded Manifest. It is built
// once, after which neither the index nor the manifest it wraps is mutated,
// so it can be shared between goroutines without locking.
type Index struct {
	manifest *Manifest

	bundlesByName   map[string]int
	bundlesByFile   map[string]int
	assetsByPath    map[string]int
	assetsByAddress map[string]int
}

// NewIndex validates m and builds its lookup tables. It resolves each
// bundle's FileName in place, so it must run before m is shared.
func NewIndex(m *Manifest) (*Index, error) {
	if m.EnableAddressable && m.LocationToLower {
		return nil, &ContentError{Kind: ErrAddressableLowercase}
	}

	bundleCount := len(m.BundleList)
	idx := &Index{
		manifest:      m,
		bundlesByName: make(map[string]int, bundleCount),
		bundlesByFile: make(map[string]int, bundleCount),
		assetsByPath:  make(map[string]int, len(m.AssetList)),
	}

	for i := range m.BundleList {
		b := &m.BundleList[i]
		if err := resolveBundleFileName(m.OutputNameStyle, b); err != nil {
			return nil, err
		}
		if _, ok := idx.bundlesByName[b.BundleName]; ok {
			return nil, contentf(ErrDuplicateBundle, "bundle name %q", b.BundleName)
		}
		if _, ok := idx.bundlesByFile[b.FileName]; ok {
			return nil, contentf(ErrDuplicateBundle, "file name %q", b.FileName)
		}
		idx.bundlesByName[b.BundleName] = i
		idx.bundlesByFile[b.FileName] = i

		for _, dep := range b.DependIDs {
			if dep < 0 || int(dep) >= bundleCount {
				return nil, contentf(ErrInvalidBundleIndex, "bundle %q depends on %d (have %d bundles)", b.BundleName, dep, bundleCount)
			}
		}
	}

	if m.EnableAddressable {
		idx.assetsByAddress = make(map[string]int, len(m.AssetList))
	}
	for i := range m.AssetList {
		a := &m.AssetList[i]
		if _, ok := idx.assetsByPath[a.AssetPath]; ok {
			return nil, contentf(ErrDuplicateAssetPath, "%s", a.AssetPath)
		}
		if a.BundleID < 0 || int(a.BundleID) >= bundleCount {
			return nil, contentf(ErrInvalidBundleIndex, "asset %q references bundle %d (have %d bundles)", a.AssetPath, a.BundleID, bundleCount)
		}
		idx.assetsByPath[a.AssetPath] = i
		if idx.assetsByAddress != nil && a.Address != "" {
			if _, ok := idx.assetsByAddress[a.Address]; ok {
				return nil, contentf(ErrDuplicateAddress, "%q", a.Address)
			}
			idx.assetsByAddress[a.Address] = i
		}
	}

	if cycle := idx.findCycle(); cycle != nil {
		return nil, contentf(ErrDependencyCycle, "%s", strings.Join(cycle, " -> "))
	}
	return idx, nil
}

// Manifest returns the indexed manifest. Callers must treat it as read-only.
func (x *Index) Manifest() *Manifest {
	return x.manifest
}

// BundleByName looks a bundle up by its logical name.
func (x *Index) BundleByName(name string) (*Bundle, bool) {
	i, ok := x.bundlesByName[name]
	if !ok {
		return nil, false
	}
	return &x.manifest.BundleList[i], true
}

// BundleByFileName looks a bundle up by its resolved file name.
func (x *Index) BundleByFileName(fileName string) (*Bundle, bool) {
	i, ok := x.bundlesByFile[fileName]
	if !ok {
		return nil, false
	}
	return &x.manifest.BundleList[i], true
}

// AssetByPath looks an asset up by its canonical path.
func (x *Index) AssetByPath(assetPath string) (*Asset, bool) {
	i, ok := x.assetsByPath[assetPath]
	if !ok {
		return nil, false
	}
	return &x.manifest.AssetList[i], true
}

// AssetByLocation resolves a caller-facing location: an address when the
// manifest is addressable, otherwise an asset path (lower-cased first when
// the manifest was built with LocationToLower).
func (x *Index) AssetByLocation(location string) (*Asset, bool) {
	if x.assetsByAddress != nil {
		if i, ok := x.assetsByAddress[location]; ok {
			return &x.manifest.AssetList[i], true
		}
	}
	if x.manifest.LocationToLower {
		location = strings.ToLower(location)
	}
	return x.AssetByPath(location)
}

// BundleOf returns the bundle that owns a.
func (x *Index) BundleOf(a *Asset) *Bundle {
	return &x.manifest.BundleList[a.BundleID]
}

// Dependencies returns every bundle b transitively depends on, in
// depth-first discovery order, excluding b itself.
func (x *Index) Dependencies(b *Bundle) []*Bundle {
	seen := make(map[int32]bool)
	var out []*Bundle
	var walk func(ids []int32)
	walk = func(ids []int32) {
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			dep := &x.manifest.BundleList[id]
			out = append(out, dep)
			walk(dep.DependIDs)
		}
	}
	if i, ok := x.bundlesByName[b.BundleName]; ok {
		seen[int32(i)] = true
	}
	walk(b.DependIDs)
	return out
}

// BundlesWithTags returns bundles carrying any of tags, in list order.
func (x *Index) BundlesWithTags(tags ...string) []*Bundle {
	var out []*Bundle
	for i := range x.manifest.BundleList {
		if x.manifest.BundleList[i].HasTag(tags...) {
			out = append(out, &x.manifest.BundleList[i])
		}
	}
	return out
}

// findCycle runs a DFS over bundle indices in list order and returns the
// bundle names of the first cycle found, closed on its starting bundle.
func (x *Index) findCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	bundles := x.manifest.BundleList
	color := make([]int, len(bundles))
	parent := make([]int, len(bundles))
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		color[u] = gray
		for _, d := range bundles[u].DependIDs {
			v := int(d)
			switch color[v] {
			case white:
				parent[v] = u
				if dfs(v) {
					return true
				}
			case gray:
				// Back edge u -> v: walk parents from u up to v.
				cycle = append(cycle, v)
				for cur := u; cur != -1 && cur != v; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, v)
				return true
			}
		}
		color[u] = black
		return false
	}

	for i := range bundles {
		if color[i] == white && dfs(i) {
			break
		}
	}
	if len(cycle) == 0 {
		return nil
	}

	out := make([]string, len(cycle))
	for i := range cycle {
		out[i] = bundles[cycle[len(cycle)-1-i]].BundleName
	}
	return out
}
