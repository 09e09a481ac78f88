package verification

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

var importPattern = regexp.MustCompile(`(?m)^\s*import\s+(?:[^;]*?\s+from\s+)?["']([^"']+)["']`)

// libraryRoots are searched, in order, for non-relative imports
var libraryRoots = []string{"", "node_modules", "lib"}

// maxSources bounds how many files are collected for one contract
const maxSources = 500

// collectSources reads the entry source file and every file it transitively
// imports. Keys are the source unit names the compiler saw, after remapping.
func collectSources(projectRoot, entry string, remappings []remapping) (map[string]string, error) {
	sources := make(map[string]string)
	queue := []string{path.Clean(entry)}

	for len(queue) > 0 {
		unit := queue[0]
		queue = queue[1:]
		if _, seen := sources[unit]; seen {
			continue
		}
		if len(sources) >= maxSources {
			return nil, fmt.Errorf("more than %d imported sources", maxSources)
		}

		content, err := readUnit(projectRoot, unit)
		if err != nil {
			if unit == path.Clean(entry) {
				return nil, fmt.Errorf("cannot read source %s: %w", unit, err)
			}
			return nil, fmt.Errorf("cannot resolve import %s: %w", unit, err)
		}
		sources[unit] = content

		for _, m := range importPattern.FindAllStringSubmatch(content, -1) {
			imported := m[1]
			if strings.HasPrefix(imported, "./") || strings.HasPrefix(imported, "../") {
				imported = path.Join(path.Dir(unit), imported)
			}
			queue = append(queue, path.Clean(remap(remappings, unit, imported)))
		}
	}
	return sources, nil
}

func readUnit(projectRoot, unit string) (string, error) {
	var lastErr error
	for _, root := range libraryRoots {
		data, err := os.ReadFile(filepath.Join(projectRoot, root, filepath.FromSlash(unit)))
		if err == nil {
			return string(data), nil
		}
		lastErr = err
	}
	return "", lastErr
}
