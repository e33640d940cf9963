package metalink

import "errors"

var (
	ErrInvalidParameter = errors.New("invalid parameter")

	// Parse errors. The first one hit during a parse is the one reported.
	ErrMissingFileAttr    = errors.New("file element is missing the \"name\" attribute")
	ErrInvalidFileName    = errors.New("file name does not match the expected repo file")
	ErrMissingFileSize    = errors.New("file size is missing")
	ErrMissingHashAttr    = errors.New("hash element is missing the \"type\" attribute")
	ErrMissingHashContent = errors.New("hash element has no digest content")
	ErrBadURLPreference   = errors.New("url preference must be in range 0-100")

	// Verification errors. Both mean the download should be retried.
	ErrNoUsableHash     = errors.New("no supported hash found in metalink")
	ErrChecksumMismatch = errors.New("checksum validation failed")

	// Digest engine errors.
	ErrUnsupportedDigest = errors.New("unsupported message digest")
	ErrDigestForbidden   = errors.New("digest not allowed in FIPS mode")
)
