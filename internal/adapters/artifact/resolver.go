package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// artifactDirs are the build output directories searched for contract names,
// Hardhat first then Foundry
var artifactDirs = []string{"artifacts", "out"}

// Picker lets the operator choose between artifacts sharing a contract name
type Picker interface {
	PickArtifact(ctx context.Context, ref string, candidates []string) (string, error)
}

// Resolver turns an artifact path or a bare contract name into an artifact file
type Resolver struct {
	projectRoot    string
	nonInteractive bool
	picker         Picker
	log            *slog.Logger
}

// NewResolver creates a new artifact resolver
func NewResolver(cfg *config.RuntimeConfig, picker Picker, log *slog.Logger) *Resolver {
	return &Resolver{
		projectRoot:    cfg.ProjectRoot,
		nonInteractive: cfg.NonInteractive,
		picker:         picker,
		log:            log.With("component", "artifact-resolver"),
	}
}

// Resolve accepts a path (absolute or relative to the project root), a
// qualified name like contracts/Foo.sol:Foo, or a bare contract name
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: empty artifact reference", domain.ErrArtifactNotFound)
	}

	if strings.Contains(ref, ":") && !filepath.IsAbs(ref) {
		name, err := models.ParseQualifiedName(ref)
		if err != nil {
			return "", err
		}
		ref = usecase.DefaultArtifactPath(name)
	}

	if isPathRef(ref) {
		return r.resolvePath(ref)
	}
	return r.resolveName(ctx, ref)
}

func isPathRef(ref string) bool {
	return strings.HasSuffix(ref, ".json") || strings.ContainsAny(ref, `/\`)
}

func (r *Resolver) resolvePath(ref string) (string, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.projectRoot, filepath.FromSlash(ref))
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s (did you compile the contracts?)", domain.ErrArtifactNotFound, ref)
		}
		return "", fmt.Errorf("%w: %s: %v", domain.ErrArtifactNotFound, ref, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrArtifactNotFound, ref)
	}
	return path, nil
}

func (r *Resolver) resolveName(ctx context.Context, name string) (string, error) {
	candidates, err := r.scan()
	if err != nil {
		return "", err
	}

	matches := lo.Filter(candidates, func(c string, _ int) bool {
		return contractNameOf(c) == name
	})
	r.log.Debug("resolved contract name", "name", name, "candidates", len(candidates), "matches", len(matches))

	switch len(matches) {
	case 0:
		hint := ""
		if suggestions := suggest(name, candidates); len(suggestions) > 0 {
			hint = fmt.Sprintf(" (did you mean %s?)", strings.Join(suggestions, ", "))
		}
		return "", fmt.Errorf("%w: no artifact for contract %q%s", domain.ErrArtifactNotFound, name, hint)
	case 1:
		return filepath.Join(r.projectRoot, matches[0]), nil
	}

	if r.nonInteractive || r.picker == nil {
		return "", &domain.AmbiguousArtifactErr{Reference: name, Candidates: matches}
	}
	picked, err := r.picker.PickArtifact(ctx, name, matches)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.projectRoot, picked), nil
}

// scan lists deployable artifact files relative to the project root
func (r *Resolver) scan() ([]string, error) {
	var found []string
	for _, dir := range artifactDirs {
		root := filepath.Join(r.projectRoot, dir)
		if _, err := os.Stat(root); err != nil {
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == "build-info" {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".json" || strings.HasSuffix(path, ".dbg.json") {
				return nil
			}
			rel, err := filepath.Rel(r.projectRoot, path)
			if err != nil {
				return err
			}
			found = append(found, filepath.ToSlash(rel))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
		}
	}
	sort.Strings(found)
	return found, nil
}

func contractNameOf(artifactPath string) string {
	return strings.TrimSuffix(filepath.Base(artifactPath), ".json")
}

// suggest returns up to three contract names close to name
func suggest(name string, candidates []string) []string {
	names := lo.Uniq(lo.Map(candidates, func(c string, _ int) string {
		return contractNameOf(c)
	}))
	matches := fuzzy.Find(name, names)
	suggestions := make([]string, 0, 3)
	for _, m := range matches {
		if len(suggestions) == 3 {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return suggestions
}

var _ usecase.ArtifactResolver = (*Resolver)(nil)
