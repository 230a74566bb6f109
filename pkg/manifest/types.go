package manifest

// FormatVersion is the manifest file format this codec reads and writes.
// It is independent from PackageVersion and is matched exactly on decode.
const FormatVersion = "1.5.2"

// Signature is the leading u32 of every binary manifest ("YOO" in the low
// three bytes, little-endian).
const Signature uint32 = 0x00594F4F

// NameStyle selects how a bundle's published file name is derived. Values are
// part of the wire format and the file naming contract.
type NameStyle int32

const (
	NameStyleHashName           NameStyle = 0
	NameStyleBundleName         NameStyle = 1
	NameStyleBundleNameHashName NameStyle = 2
)

func (s NameStyle) String() string {
	switch s {
	case NameStyleHashName:
		return "hash"
	case NameStyleBundleName:
		return "bundle"
	case NameStyleBundleNameHashName:
		return "bundle_hash"
	default:
		return "unknown"
	}
}

// Manifest describes one package version: its assets, the bundles that
// carry them and the policy flags the build was produced with.
type Manifest struct {
	FileVersion       string    `json:"file_version" yaml:"file_version"`
	EnableAddressable bool      `json:"enable_addressable" yaml:"enable_addressable"`
	LocationToLower   bool      `json:"location_to_lower" yaml:"location_to_lower"`
	IncludeAssetGUID  bool      `json:"include_asset_guid" yaml:"include_asset_guid"`
	OutputNameStyle   NameStyle `json:"output_name_style" yaml:"output_name_style"`
	BuildPipeline     string    `json:"build_pipeline" yaml:"build_pipeline"`
	PackageName       string    `json:"package_name" yaml:"package_name"`
	PackageVersion    string    `json:"package_version" yaml:"package_version"`

	AssetList  []Asset  `json:"assets" yaml:"assets"`
	BundleList []Bundle `json:"bundles" yaml:"bundles"`
}

// Asset is one addressable content item owned by exactly one bundle.
type Asset struct {
	Address   string   `json:"address,omitempty" yaml:"address,omitempty"`
	AssetPath string   `json:"asset_path" yaml:"asset_path"`
	AssetGUID string   `json:"asset_guid,omitempty" yaml:"asset_guid,omitempty"`
	AssetTags []string `json:"asset_tags,omitempty" yaml:"asset_tags,omitempty"`
	BundleID  int32    `json:"bundle_id" yaml:"bundle_id"` // index into Manifest.BundleList
}

// HasTag reports whether the asset carries tag.
func (a *Asset) HasTag(tag string) bool {
	for _, t := range a.AssetTags {
		if t == tag {
			return true
		}
	}
	return false
}

// Bundle is one deliverable content unit.
type Bundle struct {
	BundleName string   `json:"bundle_name" yaml:"bundle_name"`
	UnityCRC   uint32   `json:"unity_crc" yaml:"unity_crc"`
	FileHash   string   `json:"file_hash" yaml:"file_hash"`
	FileCRC    string   `json:"file_crc" yaml:"file_crc"`
	FileSize   int64    `json:"file_size" yaml:"file_size"`
	Encrypted  bool     `json:"encrypted,omitempty" yaml:"encrypted,omitempty"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	DependIDs  []int32  `json:"depend_ids,omitempty" yaml:"depend_ids,omitempty"` // indices into Manifest.BundleList

	// FileName is the published file name, resolved from the owning
	// manifest's OutputNameStyle. Not serialized.
	FileName string `json:"-" yaml:"-"`
}

// HasTag reports whether the bundle carries any of tags.
func (b *Bundle) HasTag(tags ...string) bool {
	for _, want := range tags {
		for _, t := range b.Tags {
			if t == want {
				return true
			}
		}
	}
	return false
}
