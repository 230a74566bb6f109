package manifest

const (
	minAssetRecordSize  = 2 + 2 + 2 + 2 + 4
	minBundleRecordSize = 2 + 4 + 2 + 2 + 8 + 1 + 2 + 2
)

type decodePhase int

const (
	phaseHeader decodePhase = iota
	phaseAssets
	phaseBundles
	phaseIndex
	phaseDone
)

// Decoder decodes a binary manifest in bounded steps so that very large
// manifests can be decoded across several polls. The input slice is never
// modified. A Decoder is not safe for concurrent use.
type Decoder struct {
	r     *bufferReader
	phase decodePhase

	manifest    *Manifest
	assetCount  int
	bundleCount int
	index       *Index
	err         error
}

// NewDecoder returns a Decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{r: newBufferReader(data)}
}

// Step decodes at most budget asset or bundle records (budget <= 0 means no
// limit). It reports done once the manifest is fully decoded and indexed or
// an error occurred; the error is also retained for Err.
func (d *Decoder) Step(budget int) (bool, error) {
	if d.phase == phaseDone {
		return true, d.err
	}
	if budget <= 0 {
		budget = int(^uint(0) >> 1)
	}

	for budget > 0 && d.phase != phaseDone {
		switch d.phase {
		case phaseHeader:
			d.readHeader()
		case phaseAssets:
			budget -= d.readAssets(budget)
		case phaseBundles:
			budget -= d.readBundles(budget)
		case phaseIndex:
			d.buildIndex()
			budget--
		}
		if d.r.err != nil && d.err == nil {
			d.fail(d.r.err)
		}
	}
	return d.phase == phaseDone, d.err
}

// Progress reports the fraction of records decoded so far in [0, 1].
func (d *Decoder) Progress() float64 {
	switch d.phase {
	case phaseHeader:
		return 0
	case phaseDone:
		return 1
	}
	total := d.assetCount + d.bundleCount
	if total == 0 {
		return 0.99
	}
	read := len(d.manifest.AssetList) + len(d.manifest.BundleList)
	// Keep the last percent for index construction.
	return 0.99 * float64(read) / float64(total)
}

// Err returns the decode error, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Result returns the decoded manifest and its index. Both are nil until the
// decoder finished without error, so a failed decode never exposes a
// partial manifest.
func (d *Decoder) Result() (*Manifest, *Index) {
	if d.phase != phaseDone || d.err != nil {
		return nil, nil
	}
	return d.manifest, d.index
}

func (d *Decoder) fail(err error) {
	d.err = err
	d.phase = phaseDone
	d.manifest = nil
	d.index = nil
}

func (d *Decoder) readHeader() {
	r := d.r
	if sig := r.readUint32(); r.err == nil && sig != Signature {
		d.fail(&FormatError{Kind: ErrBadSignature})
		return
	}
	fileVersion := r.readString()
	if r.err != nil {
		return
	}
	if fileVersion != FormatVersion {
		d.fail(&FormatError{Kind: ErrIncompatibleVersion, Found: fileVersion, Expected: FormatVersion})
		return
	}

	m := &Manifest{FileVersion: fileVersion}
	m.EnableAddressable = r.readBool()
	m.LocationToLower = r.readBool()
	m.IncludeAssetGUID = r.readBool()
	m.OutputNameStyle = NameStyle(r.readInt32())
	m.BuildPipeline = r.readString()
	m.PackageName = r.readString()
	m.PackageVersion = r.readString()
	if r.err != nil {
		return
	}
	if m.EnableAddressable && m.LocationToLower {
		d.fail(&ContentError{Kind: ErrAddressableLowercase})
		return
	}

	d.assetCount = r.readCount(minAssetRecordSize)
	if r.err != nil {
		return
	}
	m.AssetList = make([]Asset, 0, d.assetCount)
	d.manifest = m
	d.phase = phaseAssets
}

func (d *Decoder) readAssets(budget int) int {
	r := d.r
	m := d.manifest
	n := 0
	for n < budget && len(m.AssetList) < d.assetCount {
		a := Asset{
			Address:   r.readString(),
			AssetPath: r.readString(),
			AssetGUID: r.readString(),
			AssetTags: r.readStringArray(),
			BundleID:  r.readInt32(),
		}
		if r.err != nil {
			return n + 1
		}
		m.AssetList = append(m.AssetList, a)
		n++
	}
	if len(m.AssetList) == d.assetCount {
		d.bundleCount = r.readCount(minBundleRecordSize)
		if r.err == nil {
			m.BundleList = make([]Bundle, 0, d.bundleCount)
			d.phase = phaseBundles
		}
	}
	return n
}

func (d *Decoder) readBundles(budget int) int {
	r := d.r
	m := d.manifest
	n := 0
	for n < budget && len(m.BundleList) < d.bundleCount {
		b := Bundle{
			BundleName: r.readString(),
			UnityCRC:   r.readUint32(),
			FileHash:   r.readString(),
			FileCRC:    r.readString(),
			FileSize:   r.readInt64(),
			Encrypted:  r.readBool(),
			Tags:       r.readStringArray(),
			DependIDs:  r.readInt32Array(),
		}
		if r.err != nil {
			return n + 1
		}
		m.BundleList = append(m.BundleList, b)
		n++
	}
	if len(m.BundleList) == d.bundleCount {
		d.phase = phaseIndex
	}
	return n
}

func (d *Decoder) buildIndex() {
	idx, err := NewIndex(d.manifest)
	if err != nil {
		d.fail(err)
		return
	}
	d.index = idx
	d.phase = phaseDone
}
