//go:build linux

package backend

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	rpmdb "github.com/knqyf263/go-rpmdb/pkg"
	"github.com/shirou/gopsutil/v3/host"

	"github.com/shivania2/tdnf/internal/utils"
)

// ComputeBuiltinVariables resolves the DNF builtin variables ($arch,
// $basearch, $releasever) from the running system.
func ComputeBuiltinVariables() (map[string]string, error) {
	arch, baseArch, err := computeArch()
	if err != nil {
		return nil, err
	}

	releaseVersion, err := releaseVersion()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"arch":       arch,
		"basearch":   baseArch,
		"releasever": releaseVersion,
	}, nil
}

// releaseVersion prefers the system-release package version from the RPM
// database, falling back to VERSION_ID from os-release.
func releaseVersion() (string, error) {
	if ver, err := releaseVersionFromRpmDB(); err == nil && ver != "" {
		return ver, nil
	}
	return releaseVersionFromOSRelease()
}

func releaseVersionFromRpmDB() (string, error) {
	db, err := rpmdb.Open("/var/lib/rpm/rpmdb.sqlite")
	if err != nil {
		return "", err
	}

	pkgList, err := db.ListPackages()
	if err != nil {
		return "", err
	}

	for _, pkg := range pkgList {
		if strings.HasPrefix(pkg.Name, "system-release") {
			return pkg.Version, nil
		}
	}
	return "", nil
}

func releaseVersionFromOSRelease() (string, error) {
	osReleasePath := utils.HostEtcJoin("/etc/os-release")
	f, err := os.Open(osReleasePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	liner := bufio.NewScanner(f)
	for liner.Scan() {
		line := liner.Text()
		if value, found := strings.CutPrefix(line, "VERSION_ID="); found {
			return strings.Trim(value, "\""), nil
		}
	}
	if err := liner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("VERSION_ID entry not found in %s", osReleasePath)
}

var baseArchMapping = invertMap(map[string][]string{
	"aarch64": {"aarch64"},
	"alpha": {"alpha", "alphaev4", "alphaev45", "alphaev5", "alphaev56",
		"alphaev6", "alphaev67", "alphaev68", "alphaev7", "alphapca56"},
	"arm":         {"armv5tejl", "armv5tel", "armv5tl", "armv6l", "armv7l", "armv8l"},
	"armhfp":      {"armv6hl", "armv7hl", "armv7hnl", "armv8hl"},
	"i386":        {"i386", "athlon", "geode", "i386", "i486", "i586", "i686"},
	"ia64":        {"ia64"},
	"mips":        {"mips"},
	"mipsel":      {"mipsel"},
	"mips64":      {"mips64"},
	"mips64el":    {"mips64el"},
	"loongarch64": {"loongarch64"},
	"noarch":      {"noarch"},
	"ppc":         {"ppc"},
	"ppc64":       {"ppc64", "ppc64iseries", "ppc64p7", "ppc64pseries"},
	"ppc64le":     {"ppc64le"},
	"riscv32":     {"riscv32"},
	"riscv64":     {"riscv64"},
	"riscv128":    {"riscv128"},
	"s390":        {"s390"},
	"s390x":       {"s390x"},
	"sh3":         {"sh3"},
	"sh4":         {"sh4", "sh4a"},
	"sparc": {"sparc", "sparc64", "sparc64v", "sparcv8", "sparcv9",
		"sparcv9v"},
	"x86_64": {"x86_64", "amd64", "ia32e"},
})

func invertMap(direct map[string][]string) map[string]string {
	res := make(map[string]string)
	for k, v := range direct {
		for _, subv := range v {
			res[subv] = k
		}
	}
	return res
}

func computeArch() (string, string, error) {
	arch, err := host.KernelArch()
	if err != nil {
		return "", "", err
	}

	baseArch, ok := baseArchMapping[arch]
	if !ok {
		return "", "", fmt.Errorf("no basearch for %s", arch)
	}

	return arch, baseArch, nil
}
