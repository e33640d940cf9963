package main

import (
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/shivania2/tdnf/backend"
	"github.com/shivania2/tdnf/metalink"
)

func main() {
	var repoPath, varsPaths, metalinkPath, verifyFile string

	flag.StringVar(&repoPath, "repos", "/etc/yum.repos.d/", "path to repos")
	flag.StringVar(&varsPaths, "vars", "/etc/dnf/vars/,/etc/yum/vars/", "paths to variables")
	flag.StringVar(&metalinkPath, "metalink", "", "local metalink descriptor to verify against")
	flag.StringVar(&verifyFile, "file", "", "downloaded file to verify (requires -metalink)")

	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if metalinkPath != "" {
		if verifyFile == "" {
			logger.Fatal("-metalink requires -file")
		}

		ml, err := metalink.ParseFile(metalinkPath, filepath.Base(verifyFile))
		if err != nil {
			logger.Fatal("metalink parse failed", zap.Error(err))
		}
		if err := metalink.VerifyFileDigest(verifyFile, ml); err != nil {
			logger.Fatal("metalink validation failed", zap.Error(err))
		}

		fmt.Println("SUCCESS")
		return
	}

	builtinVars, err := backend.ComputeBuiltinVariables()
	if err != nil {
		logger.Fatal("builtin variables", zap.Error(err))
	}

	b, err := backend.NewBackend(repoPath, strings.Split(varsPaths, ","), builtinVars, logger)
	if err != nil {
		logger.Fatal("backend init", zap.Error(err))
	}

	if err := b.Refresh(); err != nil {
		logger.Fatal("refresh failed", zap.Error(err))
	}

	fmt.Println("SUCCESS")
}
