package manifest

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FileExtension returns the extension of bundleName including the dot, or
// "" when it has none.
func FileExtension(bundleName string) string {
	return filepath.Ext(bundleName)
}

// ResolveFileName derives the published file name of a bundle. The mapping
// for each style is a stable contract with already published content.
//
// NameStyleBundleName is accepted but collides under content-hash caching
// when two versions ship the same bundle name.
func ResolveFileName(style NameStyle, bundleName, ext, fileHash string) (string, error) {
	switch style {
	case NameStyleHashName:
		return fileHash + ext, nil
	case NameStyleBundleName:
		return bundleName, nil
	case NameStyleBundleNameHashName:
		stem := bundleName
		if i := strings.LastIndexByte(bundleName, '.'); i >= 0 {
			stem = bundleName[:i]
		}
		return stem + "_" + fileHash + ext, nil
	default:
		return "", fmt.Errorf("%w: %d", ErrNameStyleNotImplemented, int32(style))
	}
}

// resolveBundleFileName fills b.FileName from the owning manifest's style.
func resolveBundleFileName(style NameStyle, b *Bundle) error {
	name, err := ResolveFileName(style, b.BundleName, FileExtension(b.BundleName), b.FileHash)
	if err != nil {
		return fmt.Errorf("bundle %q: %w", b.BundleName, err)
	}
	b.FileName = name
	return nil
}
