package interactive

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/sahilm/fuzzy"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// PromptAdapter handles confirmations and selections on the terminal
type PromptAdapter struct {
	nonInteractive bool
	assumeYes      bool
}

// NewPromptAdapter creates a new prompt adapter
func NewPromptAdapter(cfg *config.RuntimeConfig) *PromptAdapter {
	return &PromptAdapter{
		nonInteractive: cfg.NonInteractive,
		assumeYes:      cfg.AssumeYes,
	}
}

// Confirm asks a yes/no question. Without a terminal it answers yes.
func (p *PromptAdapter) Confirm(ctx context.Context, label string) (bool, error) {
	if p.nonInteractive || p.assumeYes {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PickArtifact lets the operator choose between artifacts sharing a contract name
func (p *PromptAdapter) PickArtifact(ctx context.Context, ref string, candidates []string) (string, error) {
	if p.nonInteractive {
		return "", fmt.Errorf("interactive selection not available in non-interactive mode")
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no artifacts provided for selection")
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	options := formatArtifactOptions(candidates)

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ . | cyan }}",
		Inactive: "  {{ . | faint }}",
		Selected: "✓ {{ . | green }}",
		Help:     color.New(color.FgYellow).Sprint("Use arrow keys to navigate, Enter to select"),
	}

	promptSelect := promptui.Select{
		Label:             fmt.Sprintf("Multiple artifacts named %s, select one", ref),
		Items:             options,
		Templates:         templates,
		Size:              10,
		StartInSearchMode: true,
		Searcher:          createFuzzySearchFunc(candidates),
	}

	index, _, err := promptSelect.Run()
	if err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return candidates[index], nil
}

// formatArtifactOptions renders "Name (out/Name.sol)" for each artifact path
func formatArtifactOptions(candidates []string) []string {
	options := make([]string, len(candidates))
	for i, candidate := range candidates {
		name := strings.TrimSuffix(path.Base(candidate), ".json")
		dir := path.Dir(candidate)
		options[i] = fmt.Sprintf("%s (%s)",
			color.New(color.FgWhite, color.Bold).Sprint(name),
			color.New(color.FgBlue).Sprint(dir))
	}
	return options
}

// createFuzzySearchFunc creates a fuzzy search function for promptui
func createFuzzySearchFunc(items []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return true
		}

		input = strings.ToLower(input)
		item := strings.ToLower(items[index])
		if strings.Contains(item, input) {
			return true
		}

		return len(fuzzy.Find(input, []string{item})) > 0
	}
}

var _ usecase.Prompter = (*PromptAdapter)(nil)
