package manifest

import (
	"errors"
	"fmt"
)

// Format errors mean the payload cannot be trusted at all.
var (
	ErrBadSignature        = errors.New("invalid manifest signature")
	ErrIncompatibleVersion = errors.New("incompatible manifest format version")
	ErrTruncated           = errors.New("truncated manifest")
	ErrInvalidString       = errors.New("manifest string is not valid UTF-8")
)

// Content errors mean the payload parsed but describes a malformed build.
var (
	ErrAddressableLowercase = errors.New("addressable manifests cannot use lower-case locations")
	ErrDuplicateAssetPath   = errors.New("duplicate asset path")
	ErrDuplicateAddress     = errors.New("duplicate asset address")
	ErrDuplicateBundle      = errors.New("duplicate bundle")
	ErrInvalidBundleIndex   = errors.New("invalid bundle index")
	ErrDependencyCycle      = errors.New("bundle dependency cycle")
)

// ErrNameStyleNotImplemented is returned for a NameStyle outside the
// published set.
var ErrNameStyleNotImplemented = errors.New("name style not implemented")

// FormatError reports a signature, format version or framing failure.
type FormatError struct {
	Kind     error
	Found    string
	Expected string
	Offset   int
}

func (e *FormatError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Found != "" || e.Expected != "":
		return fmt.Sprintf("%s: %s != %s", e.Kind.Error(), e.Found, e.Expected)
	case e.Offset > 0:
		return fmt.Sprintf("%s at offset %d", e.Kind.Error(), e.Offset)
	default:
		return e.Kind.Error()
	}
}

func (e *FormatError) Unwrap() error { return e.Kind }

// ContentError reports a structurally valid manifest whose content breaks an
// invariant.
type ContentError struct {
	Kind error
	Msg  string
}

func (e *ContentError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *ContentError) Unwrap() error { return e.Kind }

func contentf(kind error, format string, args ...any) error {
	return &ContentError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsFormatError reports whether err is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsContentError reports whether err is a ContentError.
func IsContentError(err error) bool {
	var ce *ContentError
	return errors.As(err, &ce)
}
