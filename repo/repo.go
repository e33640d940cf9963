// Package repo loads DNF-style .repo definitions and fetches repository
// metadata and packages, validating repomd.xml through the repo's metalink
// descriptor when one is configured.
package repo

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/openpgp"
	"gopkg.in/ini.v1"

	"github.com/sassoftware/go-rpmutils"
	"github.com/shivania2/tdnf/internal/utils"
	"github.com/shivania2/tdnf/metalink"
	"github.com/shivania2/tdnf/types"
)

// RepoMDFilename is the well-known name of the repository metadata index;
// metalink descriptors must declare exactly this file.
const RepoMDFilename = "repomd.xml"

type Repo struct {
	SectionName string
	Name        string
	BaseURL     string
	MirrorList  string
	Metalink    string
	Enabled     bool
	GpgCheck    bool
	GpgKey      string

	// CacheDir receives downloaded metadata; defaults to the system temp
	// directory when empty.
	CacheDir string

	logger *zap.Logger
}

// ReadFromDir loads every *.repo file under repoDir, expanding DNF
// variables ($releasever, $basearch, ...) in URLs and names.
func ReadFromDir(repoDir string, varsReplacer *strings.Replacer, logger *zap.Logger) ([]Repo, error) {
	repoFiles, err := filepath.Glob(utils.HostEtcJoin(repoDir, "*.repo"))
	if err != nil {
		return nil, err
	}

	repos := make([]Repo, 0)
	for _, repoFile := range repoFiles {
		cfg, err := ini.Load(repoFile)
		if err != nil {
			return nil, err
		}

		for _, section := range cfg.Sections() {
			if section.Name() == "DEFAULT" {
				continue
			}

			repo := Repo{}
			repo.SectionName = section.Name()
			repo.Name = varsReplacer.Replace(section.Key("name").String())
			repo.BaseURL = varsReplacer.Replace(section.Key("baseurl").String())
			repo.MirrorList = varsReplacer.Replace(section.Key("mirrorlist").String())
			repo.Metalink = varsReplacer.Replace(section.Key("metalink").String())
			repo.Enabled, _ = section.Key("enabled").Bool()
			repo.GpgCheck, _ = section.Key("gpgcheck").Bool()
			repo.GpgKey = varsReplacer.Replace(section.Key("gpgkey").String())
			repo.logger = logger

			repos = append(repos, repo)
		}
	}
	return repos, nil
}

func (r *Repo) log() *zap.Logger {
	if r.logger == nil {
		return zap.NewNop()
	}
	return r.logger
}

type PkgMatchFunc = func(*types.Package) bool

// FetchPackage downloads the first package accepted by pkgMatcher,
// verifying its RPM signature against the repo GPG key when gpgcheck is on.
func (r *Repo) FetchPackage(pkgMatcher PkgMatchFunc) (*types.Package, []byte, error) {
	repoMd, err := r.FetchRepoMD()
	if err != nil {
		return nil, nil, err
	}

	pkgs, err := r.FetchPackagesLists(repoMd)
	if err != nil {
		return nil, nil, err
	}

	fetchURL, err := r.FetchURL()
	if err != nil {
		return nil, nil, err
	}

	var entityList openpgp.EntityList
	if r.GpgCheck {
		entityList, err = r.readKeyRing()
		if err != nil {
			return nil, nil, err
		}
	}

	for _, pkg := range pkgs {
		if !pkgMatcher(pkg) {
			continue
		}

		pkgURL, err := utils.URLJoinPath(fetchURL, pkg.Location.Href)
		if err != nil {
			return nil, nil, err
		}

		pkgRpm, err := utils.Fetch(pkgURL)
		if err != nil {
			return nil, nil, err
		}

		if r.GpgCheck {
			rpmReader := bytes.NewReader(pkgRpm)
			if _, _, err := rpmutils.Verify(rpmReader, entityList); err != nil {
				return nil, nil, err
			}
		}

		return pkg, pkgRpm, nil
	}

	// no error, but no package found either
	return nil, nil, nil
}

func (r *Repo) readKeyRing() (openpgp.EntityList, error) {
	gpgKeyURL, err := url.Parse(r.GpgKey)
	if err != nil {
		return nil, err
	}
	if gpgKeyURL.Scheme != "file" {
		return nil, fmt.Errorf("only file scheme is supported for gpg key: %s", r.GpgKey)
	}

	publicKeyFile, err := os.Open(utils.HostEtcJoin(gpgKeyURL.Path))
	if err != nil {
		return nil, err
	}
	defer publicKeyFile.Close()

	return openpgp.ReadArmoredKeyRing(publicKeyFile)
}

// FetchRepoMD downloads repodata/repomd.xml. When the repo declares a
// metalink, the descriptor is fetched and parsed first, repomd.xml is
// pulled from the best mirror into the cache, and its digest is verified
// against the strongest checksum the descriptor offers before decoding.
func (r *Repo) FetchRepoMD() (*types.Repomd, error) {
	if r.Metalink != "" {
		return r.fetchRepoMDFromMetalink()
	}

	fetchURL, err := r.FetchURL()
	if err != nil {
		return nil, err
	}

	repoMDURL, err := utils.URLJoinPath(fetchURL, "repodata", RepoMDFilename)
	if err != nil {
		return nil, err
	}

	return utils.GetAndUnmarshalXML[types.Repomd](repoMDURL, nil)
}

func (r *Repo) fetchRepoMDFromMetalink() (*types.Repomd, error) {
	data, err := utils.Fetch(r.Metalink)
	if err != nil {
		return nil, err
	}

	ml, err := metalink.Parse(data, RepoMDFilename)
	if err != nil {
		return nil, fmt.Errorf("repo %s: %w", r.SectionName, err)
	}

	repoMDPath, err := r.downloadRepoMD(ml)
	if err != nil {
		return nil, err
	}

	if err := metalink.VerifyFileDigest(repoMDPath, ml); err != nil {
		r.log().Error("repomd.xml failed metalink validation",
			zap.String("repo", r.SectionName),
			zap.Error(err))
		return nil, err
	}
	r.log().Debug("repomd.xml validated against metalink",
		zap.String("repo", r.SectionName),
		zap.Int("mirrors", len(ml.URLs)),
		zap.Int("hashes", len(ml.Hashes)))

	content, err := os.ReadFile(repoMDPath)
	if err != nil {
		return nil, err
	}

	var repoMd types.Repomd
	if err := xml.Unmarshal(content, &repoMd); err != nil {
		return nil, err
	}
	return &repoMd, nil
}

// downloadRepoMD tries the descriptor mirrors in preference order until one
// serves repomd.xml, storing it under the cache dir. The winning mirror
// also fixes the repo base URL for subsequent metadata and package fetches.
func (r *Repo) downloadRepoMD(ml *metalink.Metalink) (string, error) {
	cacheDir := r.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(os.TempDir(), "tdnf-"+strings.Trim(r.SectionName, "\""))
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(cacheDir, RepoMDFilename)

	var lastErr error
	for _, u := range ml.SortedURLs() {
		content, err := utils.Fetch(u.URL)
		if err != nil {
			r.log().Warn("mirror failed",
				zap.String("repo", r.SectionName),
				zap.String("url", u.URL),
				zap.Error(err))
			lastErr = err
			continue
		}

		if err := os.WriteFile(dest, content, 0o644); err != nil {
			return "", err
		}

		if base := strings.TrimSuffix(u.URL, "repodata/"+RepoMDFilename); base != u.URL {
			r.BaseURL = base
		}
		return dest, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("metalink for repo %s lists no usable mirror", r.SectionName)
	}
	return "", lastErr
}

// FetchURL resolves the base URL: an explicit baseurl wins, then the mirror
// fixed by a previous metalink download, then the first usable mirrorlist
// entry.
func (r *Repo) FetchURL() (string, error) {
	if r.BaseURL != "" || r.MirrorList == "" {
		return r.BaseURL, nil
	}

	resp, err := http.Get(r.MirrorList)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status: %s", resp.Status)
	}

	mirrors := make([]string, 0)
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mirrors = append(mirrors, line)
	}
	if err := sc.Err(); err != nil {
		return "", err
	}

	if len(mirrors) == 0 {
		return "", fmt.Errorf("no mirror available")
	}

	r.BaseURL = mirrors[0]
	return r.BaseURL, nil
}

// FetchPackagesLists downloads the primary package lists referenced by
// repomd, verifying each against its declared open-checksum.
func (r *Repo) FetchPackagesLists(repoMd *types.Repomd) ([]*types.Package, error) {
	fetchURL, err := r.FetchURL()
	if err != nil {
		return nil, err
	}

	allPackages := make([]*types.Package, 0)

	for _, d := range repoMd.Data {
		if d.Type != "primary" {
			continue
		}

		primaryURL, err := utils.URLJoinPath(fetchURL, d.Location.Href)
		if err != nil {
			return nil, err
		}

		metadata, err := utils.GetAndUnmarshalXML[types.Metadata](primaryURL, &d.OpenChecksum)
		if err != nil {
			return nil, err
		}

		allPackages = append(allPackages, metadata.Packages...)
	}

	return allPackages, nil
}
