package metalink

import (
	"sort"
	"sync"
)

// HashKind identifies a supported digest algorithm. Kinds are ordered by
// strength: a higher value wins best-hash selection.
type HashKind int

const (
	HashMD5 HashKind = iota
	HashSHA1
	HashSHA256
	HashSHA512
	hashKindCount
)

var hashKindNames = [hashKindCount]string{
	HashMD5:    "md5",
	HashSHA1:   "sha1",
	HashSHA256: "sha256",
	HashSHA512: "sha512",
}

var hashKindSizes = [hashKindCount]int{
	HashMD5:    16,
	HashSHA1:   20,
	HashSHA256: 32,
	HashSHA512: 64,
}

func (k HashKind) String() string {
	if k < 0 || k >= hashKindCount {
		return "unknown"
	}
	return hashKindNames[k]
}

// Size returns the raw digest length in bytes.
func (k HashKind) Size() int {
	if k < 0 || k >= hashKindCount {
		return 0
	}
	return hashKindSizes[k]
}

type hashAlias struct {
	name string
	kind HashKind
}

// Spelling variants seen in metalink documents. Lookup is exact: variants
// are enumerated rather than normalized.
var hashAliases = []hashAlias{
	{"md5", HashMD5},
	{"sha1", HashSHA1},
	{"sha-1", HashSHA1},
	{"sha256", HashSHA256},
	{"sha-256", HashSHA256},
	{"sha512", HashSHA512},
	{"sha-512", HashSHA512},
}

var sortAliasesOnce sync.Once

// ResolveHashKind maps a metalink hash type name to its kind. Unknown names
// are not an error: metalink files may carry resource types we do not
// support yet, and those entries are simply never selected for
// verification.
func ResolveHashKind(name string) (HashKind, bool) {
	if name == "" {
		return 0, false
	}

	sortAliasesOnce.Do(func() {
		sort.Slice(hashAliases, func(i, j int) bool {
			return hashAliases[i].name < hashAliases[j].name
		})
	})

	i := sort.Search(len(hashAliases), func(i int) bool {
		return hashAliases[i].name >= name
	})
	if i < len(hashAliases) && hashAliases[i].name == name {
		return hashAliases[i].kind, true
	}
	return 0, false
}
