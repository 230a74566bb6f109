package manifest

import (
	"errors"
	"testing"
)

func TestResolveFileName(t *testing.T) {
	tests := []struct {
		name  string
		style NameStyle
		in    string
		ext   string
		hash  string
		want  string
	}{
		{name: "hash name", style: NameStyleHashName, in: "abc.bundle", ext: ".bundle", hash: "h123", want: "h123.bundle"},
		{name: "bundle name", style: NameStyleBundleName, in: "abc.bundle", ext: ".bundle", hash: "h123", want: "abc.bundle"},
		{name: "bundle and hash", style: NameStyleBundleNameHashName, in: "abc.bundle", ext: ".bundle", hash: "h123", want: "abc_h123.bundle"},
		{name: "bundle and hash nested dots", style: NameStyleBundleNameHashName, in: "ui/main.v2.bundle", ext: ".bundle", hash: "ff", want: "ui/main.v2_ff.bundle"},
		{name: "bundle and hash no extension", style: NameStyleBundleNameHashName, in: "raw", ext: "", hash: "ff", want: "raw_ff"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ResolveFileName(tc.style, tc.in, tc.ext, tc.hash)
			if err != nil {
				t.Fatalf("ResolveFileName: %v", err)
			}
			if got != tc.want {
				t.Fatalf("ResolveFileName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveFileNameUnknownStyle(t *testing.T) {
	_, err := ResolveFileName(NameStyle(9), "abc.bundle", ".bundle", "h")
	if !errors.Is(err, ErrNameStyleNotImplemented) {
		t.Fatalf("error = %v, want ErrNameStyleNotImplemented", err)
	}
}

func TestFileExtension(t *testing.T) {
	if got := FileExtension("abc.bundle"); got != ".bundle" {
		t.Fatalf("FileExtension = %q, want .bundle", got)
	}
	if got := FileExtension("noext"); got != "" {
		t.Fatalf("FileExtension = %q, want empty", got)
	}
}
