package utils

import (
	"compress/gzip"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/xml"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/shivania2/tdnf/types"
)

const etcPrefix = "/etc"

// HostEtcJoin joins path elements, remapping a leading /etc to $HOST_ETC
// when running in a container that mounts the host filesystem elsewhere.
func HostEtcJoin(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}

	first := parts[0]
	hostEtc := os.Getenv("HOST_ETC")
	if hostEtc == "" || !strings.HasPrefix(first, etcPrefix) {
		return filepath.Join(parts...)
	}

	first = strings.TrimPrefix(first, etcPrefix)
	newParts := make([]string, len(parts)+1)
	newParts[0] = hostEtc
	newParts[1] = first
	if len(parts) > 1 {
		copy(newParts[2:], parts[1:])
	}
	return filepath.Join(newParts...)
}

func URLJoinPath(base string, elem ...string) (string, error) {
	return url.JoinPath(base, elem...)
}

// Fetch downloads rawURL and returns the body, transparently decompressing
// gzipped payloads.
func Fetch(rawURL string) ([]byte, error) {
	resp, err := http.Get(rawURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status for %s: %s", rawURL, resp.Status)
	}

	var reader io.Reader = resp.Body
	if strings.HasSuffix(rawURL, ".gz") {
		gzipReader, err := gzip.NewReader(reader)
		if err != nil {
			return nil, err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	return io.ReadAll(reader)
}

// GetAndUnmarshalXML downloads an XML document, optionally verifying its
// checksum before decoding.
func GetAndUnmarshalXML[T any](url string, checksum *types.Checksum) (*T, error) {
	content, err := Fetch(url)
	if err != nil {
		return nil, err
	}

	if checksum != nil {
		if err := VerifyChecksum(content, checksum); err != nil {
			return nil, err
		}
	}

	var res T
	if err := xml.Unmarshal(content, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyChecksum checks in-memory content against a repomd checksum entry.
func VerifyChecksum(content []byte, checksum *types.Checksum) error {
	var hasher hash.Hash
	switch checksum.Type {
	case "sha1":
		hasher = sha1.New()
	case "sha256":
		hasher = sha256.New()
	case "sha512":
		hasher = sha512.New()
	default:
		return fmt.Errorf("unsupported checksum type: %s", checksum.Type)
	}

	hasher.Write(content)
	if fmt.Sprintf("%x", hasher.Sum(nil)) != checksum.Hash {
		return errors.New("failed checksum")
	}

	return nil
}
