package metalink

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"
	"sync"
)

const digestChunkSize = 32 * 1024

const fipsModeFile = "/proc/sys/crypto/fips_enabled"

var (
	fipsOnce    sync.Once
	fipsEnabled bool
)

func fipsModeEnabled() bool {
	fipsOnce.Do(func() {
		data, err := os.ReadFile(fipsModeFile)
		if err != nil {
			return
		}
		fipsEnabled = strings.TrimSpace(string(data)) == "1"
	})
	return fipsEnabled
}

// newDigest asks the crypto engine for a streaming hash. This is a separate
// namespace from the alias registry: the registry decides what a metalink
// type name means, the engine decides what it can compute.
func newDigest(kind HashKind) (hash.Hash, error) {
	if kind == HashMD5 && fipsModeEnabled() {
		// MD5 is not approved in FIPS mode. Report it as its own error so
		// the caller can explain why the digest could not be computed
		// instead of showing a generic checksum failure.
		return nil, fmt.Errorf("%w: md5", ErrDigestForbidden)
	}
	switch kind {
	case HashMD5:
		return md5.New(), nil
	case HashSHA1:
		return sha1.New(), nil
	case HashSHA256:
		return sha256.New(), nil
	case HashSHA512:
		return sha512.New(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDigest, kind)
	}
}

// DigestFile streams the file at path through the named digest and returns
// the raw digest bytes.
func DigestFile(path string, kind HashKind) ([]byte, error) {
	if path == "" {
		return nil, ErrInvalidParameter
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h, err := newDigest(kind)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, digestChunkSize)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return h.Sum(nil), nil
}
