package manifest

import (
	"fmt"
)

// Encode serializes m to the binary manifest format. The output is
// deterministic: equal manifests encode to identical bytes. m.FileVersion is
// ignored and FormatVersion is always written. Derived fields (FileName) are
// not serialized.
func Encode(m *Manifest) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("encode manifest: nil manifest")
	}
	if m.EnableAddressable && m.LocationToLower {
		return nil, fmt.Errorf("encode manifest: %w", &ContentError{Kind: ErrAddressableLowercase})
	}

	w := newBufferWriter(64 + 64*len(m.AssetList) + 96*len(m.BundleList))
	w.writeUint32(Signature)
	w.writeString(FormatVersion)

	w.writeBool(m.EnableAddressable)
	w.writeBool(m.LocationToLower)
	w.writeBool(m.IncludeAssetGUID)
	w.writeInt32(int32(m.OutputNameStyle))
	w.writeString(m.BuildPipeline)
	w.writeString(m.PackageName)
	w.writeString(m.PackageVersion)

	w.writeInt32(int32(len(m.AssetList)))
	for i := range m.AssetList {
		a := &m.AssetList[i]
		w.writeString(a.Address)
		w.writeString(a.AssetPath)
		w.writeString(a.AssetGUID)
		w.writeStringArray(a.AssetTags)
		w.writeInt32(a.BundleID)
	}

	w.writeInt32(int32(len(m.BundleList)))
	for i := range m.BundleList {
		b := &m.BundleList[i]
		w.writeString(b.BundleName)
		w.writeUint32(b.UnityCRC)
		w.writeString(b.FileHash)
		w.writeString(b.FileCRC)
		w.writeInt64(b.FileSize)
		w.writeBool(b.Encrypted)
		w.writeStringArray(b.Tags)
		w.writeInt32Array(b.DependIDs)
	}

	if w.err != nil {
		return nil, fmt.Errorf("encode manifest %q: %w", m.PackageName, w.err)
	}
	return w.buf, nil
}

// Decode parses a binary manifest in one pass and returns it with its
// lookup index. On error neither value is returned.
func Decode(data []byte) (*Manifest, *Index, error) {
	d := NewDecoder(data)
	if _, err := d.Step(0); err != nil {
		return nil, nil, err
	}
	m, idx := d.Result()
	return m, idx, nil
}

// DecodeIndex is Decode for callers that only need the index; the manifest
// is available through Index.Manifest.
func DecodeIndex(data []byte) (*Index, error) {
	_, idx, err := Decode(data)
	return idx, err
}
