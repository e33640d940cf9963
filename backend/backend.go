// Package backend aggregates the configured repositories and the DNF
// variable environment they are resolved against.
package backend

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/shivania2/tdnf/internal/utils"
	"github.com/shivania2/tdnf/repo"
	"github.com/shivania2/tdnf/types"
)

type Backend struct {
	Repositories []repo.Repo
	VarsReplacer *strings.Replacer

	logger *zap.Logger
}

func NewBackend(reposDir string, varsDir []string, builtinVariables map[string]string, logger *zap.Logger) (*Backend, error) {
	varMaps := []map[string]string{builtinVariables}
	for _, varDir := range varsDir {
		if varDir == "" {
			continue
		}

		vars, err := readVars(varDir)
		if err != nil {
			continue
		}

		if len(vars) != 0 {
			varMaps = append(varMaps, vars)
		}
	}

	varsReplacer := buildVarsReplacer(varMaps...)

	repos, err := repo.ReadFromDir(reposDir, varsReplacer, logger)
	if err != nil {
		return nil, err
	}

	return &Backend{
		Repositories: repos,
		VarsReplacer: varsReplacer,
		logger:       logger,
	}, nil
}

func (b *Backend) log() *zap.Logger {
	if b.logger == nil {
		return zap.NewNop()
	}
	return b.logger
}

func (b *Backend) AppendRepository(r repo.Repo) {
	b.Repositories = append(b.Repositories, r)
}

// Refresh fetches and validates metadata for every enabled repository,
// collecting per-repo failures instead of stopping at the first one.
func (b *Backend) Refresh() error {
	var mErr error

	for i := range b.Repositories {
		repository := &b.Repositories[i]
		if !repository.Enabled {
			continue
		}

		if _, err := repository.FetchRepoMD(); err != nil {
			mErr = multierror.Append(mErr, fmt.Errorf("repo %s: %w", repository.SectionName, err))
			continue
		}
		b.log().Info("repository metadata validated", zap.String("repo", repository.SectionName))
	}

	return mErr
}

// FetchPackage tries the enabled repositories in order and returns the
// first match.
func (b *Backend) FetchPackage(matcher repo.PkgMatchFunc) (*types.Package, []byte, error) {
	var mErr error

	for i := range b.Repositories {
		repository := &b.Repositories[i]
		if !repository.Enabled {
			continue
		}

		p, content, err := repository.FetchPackage(matcher)
		if err != nil {
			mErr = multierror.Append(mErr, err)
			continue
		}
		return p, content, nil
	}

	if mErr == nil {
		return nil, nil, errors.New("no repository available")
	}
	return nil, nil, mErr
}

func readVars(varsDir string) (map[string]string, error) {
	varsFile, err := os.ReadDir(utils.HostEtcJoin(varsDir))
	if err != nil {
		return nil, err
	}

	vars := make(map[string]string)
	for _, f := range varsFile {
		if f.IsDir() {
			continue
		}

		varName := f.Name()
		value, err := os.ReadFile(utils.HostEtcJoin(varsDir, varName))
		if err != nil {
			return nil, err
		}

		vars[varName] = strings.TrimSpace(string(value))
	}
	return vars, nil
}

func buildVarsReplacer(varMaps ...map[string]string) *strings.Replacer {
	count := 0
	for _, varMap := range varMaps {
		count += len(varMap)
	}

	pairs := make([]string, 0, count*2)
	for _, varMap := range varMaps {
		for name, value := range varMap {
			pairs = append(pairs, "$"+name, value)
		}
	}

	return strings.NewReplacer(pairs...)
}
