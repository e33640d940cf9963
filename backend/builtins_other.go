//go:build !linux

package backend

func ComputeBuiltinVariables() (map[string]string, error) {
	return map[string]string{
		"arch":       "x86_64",
		"basearch":   "x86_64",
		"releasever": "5.0",
	}, nil
}
