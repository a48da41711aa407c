package render

import (
	"os"
	"path/filepath"
	"strings"
)

const makefileContent = "# SLAC PCDS Makefile for building templated IOC instances\n" +
	"IOC_CFG  += $(wildcard *.cfg)\n" +
	"include /reg/g/pcds/controls/macro/RULES_EXPAND\n"

// EnsureMakefile writes the standard templated-IOC Makefile into the
// given directory unless one already exists. First writer wins: an
// existing Makefile is never regenerated. The directory must exist.
// Returns true when a new file was written.
func EnsureMakefile(dir string) (bool, error) {
	dir = strings.TrimRight(dir, "/")
	path := filepath.Join(dir, "Makefile")

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}

	if err := os.WriteFile(path, []byte(makefileContent), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
