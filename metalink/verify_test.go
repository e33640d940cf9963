package metalink

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repomd.xml")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestDigestFile(t *testing.T) {
	content := []byte("repository metadata payload")
	path := writeTempFile(t, content)

	got, err := DigestFile(path, HashSHA256)
	require.NoError(t, err)

	want := sha256.Sum256(content)
	require.Equal(t, want[:], got)

	got, err = DigestFile(path, HashSHA512)
	require.NoError(t, err)
	want512 := sha512.Sum512(content)
	require.Equal(t, want512[:], got)
}

func TestDigestFileErrors(t *testing.T) {
	_, err := DigestFile("", HashSHA256)
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = DigestFile(filepath.Join(t.TempDir(), "missing"), HashSHA256)
	require.ErrorIs(t, err, fs.ErrNotExist)

	path := writeTempFile(t, []byte("x"))
	_, err = DigestFile(path, HashKind(42))
	require.ErrorIs(t, err, ErrUnsupportedDigest)
}

func TestVerifyFileDigestMatch(t *testing.T) {
	content := []byte("repository metadata payload")
	path := writeTempFile(t, content)
	sum := sha256.Sum256(content)

	ml := &Metalink{Hashes: []Hash{
		{Type: "sha256", Value: hex.EncodeToString(sum[:])},
	}}
	require.NoError(t, VerifyFileDigest(path, ml))
}

func TestVerifyFileDigestBadCandidateFirst(t *testing.T) {
	// two best-rank candidates, corrupt digest first: the good one must
	// still win
	content := []byte("repository metadata payload")
	path := writeTempFile(t, content)
	sum := sha256.Sum256(content)

	ml := &Metalink{Hashes: []Hash{
		{Type: "sha256", Value: strings.Repeat("0", 64)},
		{Type: "sha-256", Value: hex.EncodeToString(sum[:])},
	}}
	require.NoError(t, VerifyFileDigest(path, ml))
}

func TestVerifyFileDigestNoWeakerFallback(t *testing.T) {
	// the only best-rank entry has malformed hex; the weaker but valid
	// sha1 entry must never be used once sha256 was selected
	content := []byte("repository metadata payload")
	path := writeTempFile(t, content)
	sum1 := sha1.Sum(content)

	ml := &Metalink{Hashes: []Hash{
		{Type: "sha1", Value: hex.EncodeToString(sum1[:])},
		{Type: "sha256", Value: "not-hex-at-all"},
	}}
	err := VerifyFileDigest(path, ml)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestVerifyFileDigestNoUsableHash(t *testing.T) {
	path := writeTempFile(t, []byte("x"))

	err := VerifyFileDigest(path, &Metalink{})
	require.ErrorIs(t, err, ErrNoUsableHash)

	// unsupported types only is just as unusable
	ml := &Metalink{Hashes: []Hash{
		{Type: "whirlpool", Value: "beef"},
		{Type: "crc32", Value: "01020304"},
	}}
	err = VerifyFileDigest(path, ml)
	require.ErrorIs(t, err, ErrNoUsableHash)
}

func TestVerifyFileDigestMismatch(t *testing.T) {
	path := writeTempFile(t, []byte("actual content"))

	ml := &Metalink{Hashes: []Hash{
		{Type: "sha256", Value: strings.Repeat("ab", 32)},
	}}
	err := VerifyFileDigest(path, ml)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestVerifyFileDigestIOErrorAborts(t *testing.T) {
	ml := &Metalink{Hashes: []Hash{
		{Type: "sha256", Value: strings.Repeat("ab", 32)},
	}}
	err := VerifyFileDigest(filepath.Join(t.TempDir(), "missing"), ml)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrChecksumMismatch)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestParseAndVerifyEndToEnd(t *testing.T) {
	content := []byte("pkg payload bytes")
	dir := t.TempDir()
	path := filepath.Join(dir, "pkg.rpm")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	sum := sha256.Sum256(content)
	doc := fmt.Sprintf(`<?xml version="1.0"?>
<metalink>
 <files>
  <file name="pkg.rpm">
   <size>%d</size>
   <verification>
    <hash type="sha256">%s</hash>
   </verification>
   <resources>
    <url preference="50">https://mirror.example.com/pkg.rpm</url>
   </resources>
  </file>
 </files>
</metalink>`, len(content), hex.EncodeToString(sum[:]))

	ml, err := Parse([]byte(doc), "pkg.rpm")
	require.NoError(t, err)
	require.Equal(t, int64(len(content)), ml.Size)
	require.NoError(t, VerifyFileDigest(path, ml))

	// corrupt the local file and the same descriptor must reject it
	require.NoError(t, os.WriteFile(path, []byte("corrupted"), 0o644))
	err = VerifyFileDigest(path, ml)
	require.ErrorIs(t, err, ErrChecksumMismatch)
}
