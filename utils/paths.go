package utils

import (
	"os"
	"path/filepath"
)

// GetAbsolute resolves p against the working directory at call time.
// Paths that cannot be resolved are returned cleaned but unchanged.
func GetAbsolute(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	wd, err := os.Getwd()
	if err != nil {
		return filepath.Clean(p)
	}
	return filepath.Join(wd, p)
}
