package metalink

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
)

// Element and attribute names of the metalink grammar. Matching is case
// sensitive.
const (
	tagFile = "file"
	tagSize = "size"
	tagHash = "hash"
	tagURL  = "url"

	attrName       = "name"
	attrProtocol   = "protocol"
	attrType       = "type"
	attrLocation   = "location"
	attrPreference = "preference"
)

// parser consumes tokenizer events and fills in the model. The first error
// reported by any handler latches; every later event is a no-op, so the
// model never mutates past a failure and the first error is the one the
// caller sees.
//
// Attribute values are only borrowed for the duration of the event that
// carries them; anything the model needs is copied into it immediately.
type parser struct {
	ml       *Metalink
	expected string

	current string     // open element name, "" when idle
	attrs   []xml.Attr // attributes of the open element
	err     error
}

func newParser(expectedFilename string) *parser {
	return &parser{
		ml:       &Metalink{},
		expected: expectedFilename,
	}
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// onStart records the open element. Attribute handling is deferred until
// character data arrives so that content and attributes of an element are
// processed together.
func (p *parser) onStart(el xml.StartElement) {
	if p.err != nil {
		return
	}
	p.current = el.Name.Local
	p.attrs = el.Attr
}

// onCharData dispatches on the currently open element. Elements outside the
// grammar are ignored.
func (p *parser) onCharData(text xml.CharData) {
	if p.err != nil {
		return
	}
	switch p.current {
	case tagFile:
		p.parseFileElement()
	case tagSize:
		p.parseSizeElement(string(text))
	case tagHash:
		p.parseHashElement(string(text))
	case tagURL:
		p.parseURLElement(string(text))
	}
}

// onEnd returns the machine to idle; character data between a closing tag
// and the next opening tag is not attributed to any element.
func (p *parser) onEnd(xml.EndElement) {
	if p.err != nil {
		return
	}
	p.current = ""
	p.attrs = nil
}

func (p *parser) attr(name string) (string, bool) {
	for _, a := range p.attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (p *parser) parseFileElement() {
	name, ok := p.attr(attrName)
	if !ok {
		p.fail(ErrMissingFileAttr)
		return
	}
	if name != p.expected {
		p.fail(fmt.Errorf("%w: %q", ErrInvalidFileName, name))
		return
	}
	p.ml.Filename = name
}

func (p *parser) parseSizeElement(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		p.fail(ErrMissingFileSize)
		return
	}
	size, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		p.fail(fmt.Errorf("%w: invalid size %q", ErrInvalidParameter, text))
		return
	}
	p.ml.Size = size
}

func (p *parser) parseHashElement(text string) {
	typ, ok := p.attr(attrType)
	if !ok {
		p.fail(ErrMissingHashAttr)
		return
	}
	value := strings.TrimSpace(text)
	if value == "" {
		p.fail(ErrMissingHashContent)
		return
	}
	p.ml.Hashes = append(p.ml.Hashes, Hash{Type: typ, Value: value})
}

func (p *parser) parseURLElement(text string) {
	// Noise filter: entries too short to name a mirror are dropped before
	// any attribute validation, without error.
	value := strings.TrimSpace(text)
	if len(value) <= minURLLength {
		return
	}

	u := URL{URL: value}
	u.Protocol, _ = p.attr(attrProtocol)
	u.Type, _ = p.attr(attrType)
	u.Location, _ = p.attr(attrLocation)

	if pref, ok := p.attr(attrPreference); ok {
		n, err := strconv.Atoi(pref)
		if err != nil {
			p.fail(fmt.Errorf("%w: invalid preference %q", ErrInvalidParameter, pref))
			return
		}
		if n < 0 || n > 100 {
			p.fail(fmt.Errorf("%w: got %d", ErrBadURLPreference, n))
			return
		}
		u.Preference = n
	}

	p.ml.URLs = append(p.ml.URLs, u)
}
