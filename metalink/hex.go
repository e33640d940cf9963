package metalink

import (
	"encoding/hex"
	"fmt"
)

// isValidHex reports whether s is a well formed hex digest of exactly
// byteLen raw bytes: every character an ASCII hex digit and len(s) equal to
// 2*byteLen.
func isValidHex(s string, byteLen int) bool {
	if s == "" || byteLen <= 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return false
		}
	}
	return len(s) == 2*byteLen
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// decodeHex converts a hex digest to raw bytes. Odd length or non-hex input
// is rejected, never truncated; callers validate with isValidHex first.
func decodeHex(s string) ([]byte, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return raw, nil
}
