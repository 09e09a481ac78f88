package verification

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// remapping is one solc import remapping, [context:]prefix=target
type remapping struct {
	context string
	prefix  string
	target  string
}

// parseRemappings skips entries without a prefix or a target
func parseRemappings(entries []string) []remapping {
	var out []remapping
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		lhs, target, ok := strings.Cut(entry, "=")
		if !ok || target == "" {
			continue
		}
		var context string
		if c, p, found := strings.Cut(lhs, ":"); found {
			context, lhs = c, p
		}
		if lhs == "" {
			continue
		}
		out = append(out, remapping{context: context, prefix: lhs, target: target})
	}
	return out
}

// remap rewrites an import the way solc does: among remappings whose context
// prefixes the importing unit, the longest context wins, then the longest prefix.
func remap(remappings []remapping, importer, imported string) string {
	best := -1
	for i, r := range remappings {
		if !strings.HasPrefix(importer, r.context) || !strings.HasPrefix(imported, r.prefix) {
			continue
		}
		if best < 0 ||
			len(r.context) > len(remappings[best].context) ||
			(len(r.context) == len(remappings[best].context) && len(r.prefix) > len(remappings[best].prefix)) {
			best = i
		}
	}
	if best < 0 {
		return imported
	}
	return remappings[best].target + strings.TrimPrefix(imported, remappings[best].prefix)
}

// foundryConfig is the part of foundry.toml that affects import resolution
type foundryConfig struct {
	Profile map[string]struct {
		Remappings []string `toml:"remappings"`
	} `toml:"profile"`
}

// projectRemappings reads the default profile remappings of foundry.toml
// followed by remappings.txt. Missing files contribute nothing.
func projectRemappings(projectRoot string, log *slog.Logger) []string {
	var entries []string

	var foundry foundryConfig
	if _, err := toml.DecodeFile(filepath.Join(projectRoot, "foundry.toml"), &foundry); err == nil {
		entries = append(entries, foundry.Profile["default"].Remappings...)
	} else if !errors.Is(err, fs.ErrNotExist) {
		log.Debug("foundry.toml not readable", "error", err)
	}

	if data, err := os.ReadFile(filepath.Join(projectRoot, "remappings.txt")); err == nil {
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			entries = append(entries, line)
		}
	}
	return entries
}
