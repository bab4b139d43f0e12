package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/muaazl/product-matcher/internal/fileio"
)

const (
	DefaultPattern = "**/*.{xlsx,xls,csv}"

	// суффикс наших выходных файлов; при повторном запуске по той же папке их не трогаем
	outputSuffix = "_matched"
)

// Discover returns input files under root matching pattern, sorted.
// root may also be a single file, which is returned as is when its type is supported.
func Discover(root, pattern string) ([]string, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		if !fileio.Supported(root) {
			return nil, fmt.Errorf("%s: %w", root, fileio.ErrUnsupported)
		}
		return []string{root}, nil
	}

	if pattern == "" {
		pattern = DefaultPattern
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("bad pattern %q", pattern)
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", root, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if skip(m) {
			continue
		}
		out = append(out, filepath.Join(root, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

func skip(rel string) bool {
	base := filepath.Base(rel)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".") { // lock-файлы Excel, скрытые
		return true
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasSuffix(stem, outputSuffix) || !fileio.Supported(base)
}
