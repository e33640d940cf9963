// Package metalink parses repository metalink descriptors and verifies a
// downloaded file against the strongest digest they declare.
//
// A metalink document describes a single downloadable file, typically
// repodata/repomd.xml, through a set of mirror URLs and a set of checksums
// published at different strengths. Parsing builds the Metalink model;
// VerifyFileDigest picks the strongest supported checksum and compares it
// with the digest of the local file.
package metalink

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
)

// minURLLength filters degenerate mirror entries: url content this short
// cannot name a real mirror and is dropped without error.
const minURLLength = 4

// Hash is one declared checksum. Type is the raw attribute text; a type the
// registry does not recognize is retained but never selected as best.
type Hash struct {
	Type  string
	Value string
}

// URL is one declared mirror.
type URL struct {
	Protocol   string
	Type       string
	Location   string
	Preference int
	URL        string
}

// Metalink is the parsed descriptor for a single file. Hashes and URLs keep
// document order. The model is built once by Parse and read-only afterward.
type Metalink struct {
	Filename string
	Size     int64
	Hashes   []Hash
	URLs     []URL
}

// SortedURLs returns the mirror URLs ordered by descending preference,
// document order breaking ties.
func (m *Metalink) SortedURLs() []URL {
	urls := make([]URL, len(m.URLs))
	copy(urls, m.URLs)
	sort.SliceStable(urls, func(i, j int) bool {
		return urls[i].Preference > urls[j].Preference
	})
	return urls
}

// Parse parses a whole metalink document and validates that its file
// element names expectedFilename.
//
// The document is tokenized in one pass over the in-memory buffer; there is
// no incremental parse. Semantic errors latch on the first failure, and
// malformed XML reported by the tokenizer outranks any latched semantic
// error.
func Parse(data []byte, expectedFilename string) (*Metalink, error) {
	if len(data) == 0 || expectedFilename == "" {
		return nil, ErrInvalidParameter
	}

	p := newParser(expectedFilename)
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed metalink document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			p.onStart(t)
		case xml.CharData:
			p.onCharData(t)
		case xml.EndElement:
			p.onEnd(t)
		}
	}

	if p.err != nil {
		return nil, p.err
	}
	return p.ml, nil
}

// ParseFile reads and parses a metalink descriptor from disk.
func ParseFile(path, expectedFilename string) (*Metalink, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metalink %s: %w", path, err)
	}
	return Parse(data, expectedFilename)
}
