package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/domain/models"
	"github.com/trebuchet-org/sling/internal/usecase"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var (
	labelStyle    = color.New(color.Faint)
	addressStyle  = color.New(color.FgYellow, color.Bold)
	verifiedStyle = color.New(color.FgGreen)
	failedStyle   = color.New(color.FgRed)
	skippedStyle  = color.New(color.FgWhite, color.Faint)
)

// Report is the machine-readable summary of a run
type Report struct {
	Contract     string                      `json:"contract" yaml:"contract"`
	Artifact     string                      `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Deployment   *models.DeploymentResult    `json:"deployment" yaml:"deployment"`
	Verification *models.VerificationReceipt `json:"verification,omitempty" yaml:"verification,omitempty"`
}

// DeployRenderer renders deployment and verification results
type DeployRenderer struct {
	out    io.Writer
	format config.OutputFormat
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer, format config.OutputFormat) *DeployRenderer {
	if format == "" {
		format = config.OutputText
	}
	return &DeployRenderer{out: out, format: format}
}

// RenderDeploy renders the outcome of a deploy run. A nil outcome renders nothing.
func (r *DeployRenderer) RenderDeploy(outcome *usecase.DeployOutcome) error {
	if outcome == nil || outcome.Deployment == nil {
		return nil
	}
	report := &Report{
		Contract:     outcome.Deployment.ContractName,
		Deployment:   outcome.Deployment,
		Verification: outcome.Verification,
	}
	if outcome.Artifact != nil {
		report.Contract = outcome.Artifact.DisplayName()
		report.Artifact = outcome.Artifact.Path
	}
	return r.Render(report)
}

// RenderVerify renders the outcome of a standalone verification
func (r *DeployRenderer) RenderVerify(outcome *usecase.VerifyOutcome) error {
	if outcome == nil || outcome.Deployment == nil {
		return nil
	}
	report := &Report{
		Contract:     outcome.Deployment.ContractName,
		Deployment:   outcome.Deployment,
		Verification: outcome.Verification,
	}
	if outcome.Verification != nil && outcome.Verification.QualifiedName != "" {
		report.Contract = outcome.Verification.QualifiedName
	}
	return r.Render(report)
}

// Render writes the report in the configured output format
func (r *DeployRenderer) Render(report *Report) error {
	switch r.format {
	case config.OutputJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case config.OutputYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return r.renderText(report)
	}
}

func (r *DeployRenderer) renderText(report *Report) error {
	d := report.Deployment
	fmt.Fprintf(r.out, "Contract deployed at address: %s\n", addressStyle.Sprint(d.ContractAddress.Hex()))

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false

	t.AppendRow(table.Row{labelStyle.Sprint("Contract"), report.Contract})
	if report.Artifact != "" {
		t.AppendRow(table.Row{labelStyle.Sprint("Artifact"), report.Artifact})
	}
	t.AppendRow(table.Row{labelStyle.Sprint("Transaction"), d.TransactionHash.Hex()})
	if d.Deployer != (common.Address{}) {
		t.AppendRow(table.Row{labelStyle.Sprint("Deployer"), d.Deployer.Hex()})
	}
	t.AppendRow(table.Row{labelStyle.Sprint("Chain"), d.ChainID})
	t.AppendRow(table.Row{labelStyle.Sprint("Block"), d.BlockNumber})
	if d.GasUsed > 0 {
		t.AppendRow(table.Row{labelStyle.Sprint("Gas used"), d.GasUsed})
	}
	if v := report.Verification; v != nil {
		t.AppendRow(table.Row{labelStyle.Sprint("Verification"), verificationSummary(v)})
	}
	t.Render()

	if v := report.Verification; v != nil {
		if warning := verificationWarning(v); warning != "" {
			fmt.Fprintln(r.out, warning)
		}
	}
	return nil
}

// verificationSummary renders e.g. "Verified https://..." or "Rejected: bytecode mismatch"
func verificationSummary(v *models.VerificationReceipt) string {
	title := cases.Title(language.English).String(strings.ToLower(string(v.Status)))

	switch v.Status {
	case models.VerificationStatusVerified:
		if v.URL != "" {
			return verifiedStyle.Sprint("✓ "+title) + " " + v.URL
		}
		return verifiedStyle.Sprint("✓ " + title)
	case models.VerificationStatusSkipped:
		return skippedStyle.Sprint("⊘ " + title)
	default:
		if v.Reason != "" {
			return failedStyle.Sprintf("✗ %s: %s", title, v.Reason)
		}
		return failedStyle.Sprint("✗ " + title)
	}
}
