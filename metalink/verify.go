package metalink

import (
	"bytes"
	"fmt"
)

// VerifyFileDigest checks the file at path against the strongest digest the
// descriptor declares.
//
// Selection is two pass. The first pass finds the best (highest ranked)
// supported hash kind among all declarations; if none resolves, the
// descriptor is unusable. The second pass tries every declaration of the
// best kind in document order: a candidate with malformed hex is skipped, a
// digest mismatch moves on to the next candidate, and the first
// byte-for-byte match succeeds immediately. Only I/O and digest engine
// failures abort early. If every best-rank candidate is skipped or
// mismatches, the result is ErrChecksumMismatch.
//
// Weaker declarations are never used as a fallback once a stronger rank has
// been selected, even when every best-rank candidate turns out to be
// malformed.
func VerifyFileDigest(path string, ml *Metalink) error {
	if path == "" || ml == nil {
		return ErrInvalidParameter
	}

	best := HashKind(-1)
	for _, h := range ml.Hashes {
		kind, ok := ResolveHashKind(h.Type)
		if !ok {
			continue
		}
		if kind > best {
			best = kind
		}
	}
	if best < 0 {
		return fmt.Errorf("%w: %s", ErrNoUsableHash, path)
	}

	for _, h := range ml.Hashes {
		kind, ok := ResolveHashKind(h.Type)
		if !ok || kind != best {
			continue
		}
		if !isValidHex(h.Value, kind.Size()) {
			// A mistyped digest published by one mirror should not sink
			// the whole verification; try the next candidate.
			continue
		}

		want, err := decodeHex(h.Value)
		if err != nil {
			return err
		}
		got, err := DigestFile(path, kind)
		if err != nil {
			return err
		}
		if bytes.Equal(got, want) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrChecksumMismatch, path)
}
