package metalink

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var validDoc = strings.Replace(`<?xml version="1.0" encoding="utf-8"?>
<metalink version="3.0" xmlns="http://www.metalinker.org/">
 <files>
  <file name="repomd.xml">
   <size>1024</size>
   <verification>
    <hash type="sha-256">SHA256HEX</hash>
    <hash type="whirlpool">beef</hash>
   </verification>
   <resources>
    <url protocol="https" type="https" location="US" preference="100">https://mirror1.example.com/repodata/repomd.xml</url>
    <url preference="50">https://mirror2.example.com/repodata/repomd.xml</url>
   </resources>
  </file>
 </files>
</metalink>
`, "SHA256HEX", strings.Repeat("a", 64), 1)

func TestParseValidDocument(t *testing.T) {
	ml, err := Parse([]byte(validDoc), "repomd.xml")
	require.NoError(t, err)

	require.Equal(t, "repomd.xml", ml.Filename)
	require.Equal(t, int64(1024), ml.Size)

	// document order, unknown hash types retained
	require.Len(t, ml.Hashes, 2)
	require.Equal(t, Hash{Type: "sha-256", Value: strings.Repeat("a", 64)}, ml.Hashes[0])
	require.Equal(t, Hash{Type: "whirlpool", Value: "beef"}, ml.Hashes[1])

	require.Len(t, ml.URLs, 2)
	require.Equal(t, URL{
		Protocol:   "https",
		Type:       "https",
		Location:   "US",
		Preference: 100,
		URL:        "https://mirror1.example.com/repodata/repomd.xml",
	}, ml.URLs[0])
	require.Equal(t, 50, ml.URLs[1].Preference)
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(nil, "repomd.xml")
	require.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Parse([]byte(validDoc), "")
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestParseMissingFileName(t *testing.T) {
	doc := `<metalink>
 <file>
 </file>
</metalink>`
	_, err := Parse([]byte(doc), "repomd.xml")
	require.ErrorIs(t, err, ErrMissingFileAttr)
}

func TestParseFileNameMismatch(t *testing.T) {
	_, err := Parse([]byte(validDoc), "other.xml")
	require.ErrorIs(t, err, ErrInvalidFileName)
}

func TestParseSizeErrors(t *testing.T) {
	doc := `<metalink>
 <file name="repomd.xml">
  <size>12ab</size>
 </file>
</metalink>`
	_, err := Parse([]byte(doc), "repomd.xml")
	require.ErrorIs(t, err, ErrInvalidParameter)

	doc = `<metalink>
 <file name="repomd.xml">
  <size> </size>
 </file>
</metalink>`
	_, err = Parse([]byte(doc), "repomd.xml")
	require.ErrorIs(t, err, ErrMissingFileSize)
}

func TestParseHashErrors(t *testing.T) {
	doc := `<metalink>
 <file name="repomd.xml">
  <hash>deadbeef</hash>
 </file>
</metalink>`
	_, err := Parse([]byte(doc), "repomd.xml")
	require.ErrorIs(t, err, ErrMissingHashAttr)

	doc = `<metalink>
 <file name="repomd.xml">
  <hash type="sha256">  </hash>
 </file>
</metalink>`
	_, err = Parse([]byte(doc), "repomd.xml")
	require.ErrorIs(t, err, ErrMissingHashContent)
}

func TestParseURLPreferenceRange(t *testing.T) {
	parseWithPreference := func(pref string) error {
		doc := `<metalink>
 <file name="repomd.xml">
  <url preference="` + pref + `">https://mirror.example.com/</url>
 </file>
</metalink>`
		_, err := Parse([]byte(doc), "repomd.xml")
		return err
	}

	require.NoError(t, parseWithPreference("0"))
	require.NoError(t, parseWithPreference("100"))

	require.ErrorIs(t, parseWithPreference("-1"), ErrBadURLPreference)
	require.ErrorIs(t, parseWithPreference("101"), ErrBadURLPreference)
	require.ErrorIs(t, parseWithPreference("abc"), ErrInvalidParameter)
}

func TestParseURLLengthGate(t *testing.T) {
	doc := `<metalink>
 <file name="repomd.xml">
  <url>abcd</url>
  <url>abcde</url>
 </file>
</metalink>`
	ml, err := Parse([]byte(doc), "repomd.xml")
	require.NoError(t, err)

	// 4 bytes is noise and dropped silently, 5 bytes is kept
	require.Len(t, ml.URLs, 1)
	require.Equal(t, "abcde", ml.URLs[0].URL)
}

func TestParseFirstErrorWins(t *testing.T) {
	// bad preference comes before the missing hash type; the first error
	// must be the one reported, and the model must not grow afterwards
	doc := `<metalink>
 <file name="repomd.xml">
  <url preference="101">https://mirror.example.com/</url>
  <hash>deadbeef</hash>
  <url preference="50">https://mirror2.example.com/</url>
 </file>
</metalink>`
	_, err := Parse([]byte(doc), "repomd.xml")
	require.ErrorIs(t, err, ErrBadURLPreference)
}

func TestParseMalformedXML(t *testing.T) {
	_, err := Parse([]byte(`<metalink><file name="repomd.xml">`), "repomd.xml")
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed")
}

func TestParseTokenizerErrorPrecedence(t *testing.T) {
	// a semantic error latches first, then the document turns out to be
	// truncated; the tokenizer error wins because it means the document
	// itself is broken
	doc := `<metalink>
 <file name="wrong.xml">
 </file>
 <unclosed>`
	_, err := Parse([]byte(doc), "repomd.xml")
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidFileName)
	require.Contains(t, err.Error(), "malformed")
}

func TestSortedURLs(t *testing.T) {
	ml := &Metalink{URLs: []URL{
		{URL: "low", Preference: 10},
		{URL: "first-high", Preference: 90},
		{URL: "second-high", Preference: 90},
		{URL: "top", Preference: 100},
	}}

	sorted := ml.SortedURLs()
	require.Equal(t, "top", sorted[0].URL)
	// stable: equal preferences keep document order
	require.Equal(t, "first-high", sorted[1].URL)
	require.Equal(t, "second-high", sorted[2].URL)
	require.Equal(t, "low", sorted[3].URL)

	// the model itself is untouched
	require.Equal(t, "low", ml.URLs[0].URL)
}
