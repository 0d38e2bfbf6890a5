package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/case-analyzer/constants"
)

// DefaultExts are the formats the extraction chain can read.
func DefaultExts() map[string]struct{} {
	return map[string]struct{}{"pdf": {}, "txt": {}}
}

// ExtSet builds an extension set from user input like ".PDF, txt".
func ExtSet(exts []string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, e := range exts {
		if e = constants.NormalizeExt(e); e != "" {
			out[e] = struct{}{}
		}
	}
	if len(out) == 0 {
		return DefaultExts()
	}
	return out
}

func allowed(path string, exts map[string]struct{}) bool {
	_, ok := exts[constants.NormalizeExt(filepath.Ext(path))]
	return ok
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}
