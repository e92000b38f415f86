// Package modelscmder provides the models command for browsing the model
// catalog.
package modelscmder

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/catalog"
	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/config"
)

type modelsCommander struct {
	provider   string
	capability string
	pricing    string
	jsonOut    bool

	out io.Writer
}

const modelsLongDesc string = `List the models relay can route to, with their capabilities and the
price per million tokens.

Pass a model id to show one model in detail. Prices come from the built-in
catalog, with overrides from --pricing or catalog.pricing_path applied.

Examples:
  relay models
  relay models --provider anthropic
  relay models --capability vision
  relay models anthropic.claude-3-5-sonnet-20241022-v2:0
  relay models --json`

const modelsShortDesc string = "List available models"

func NewModelsCmd() *cobra.Command {
	cmder := &modelsCommander{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "models [model-id]",
		Short: modelsShortDesc,
		Long:  modelsLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("pricing") {
				return nil
			}
			configDir, _ := cmd.Flags().GetString("config-dir")
			pricing, err := PricingPath(configDir)
			if err != nil {
				return err
			}
			cmder.pricing = pricing
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			c, err := catalog.DefaultWithPricing(cmder.pricing)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				return cmder.describe(c, args[0])
			}
			return cmder.list(c)
		},
	}

	cmd.Flags().StringVarP(&cmder.provider, "provider", "p", "", "Only show models from this provider")
	cmd.Flags().StringVarP(&cmder.capability, "capability", "c", "", "Only show models with this capability")
	cmd.Flags().StringVar(&cmder.pricing, "pricing", "", "TOML pricing overrides file")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print JSON instead of a table")

	return cmd
}

func (c *modelsCommander) list(cat *catalog.Catalog) error {
	models := filter(cat, c.provider, c.capability)

	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	if len(models) == 0 {
		fmt.Fprintf(c.out, "\n  %s No models match.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(c.out, "  Providers: %s\n\n", strings.Join(cat.Providers(), ", "))
		return nil
	}

	rows := make([][]string, 0, len(models))
	for _, m := range models {
		in, out := "-", "-"
		if m.Pricing != nil {
			in = formatPrice(m.Pricing.InputPerMillion)
			out = formatPrice(m.Pricing.OutputPerMillion)
		}
		rows = append(rows, []string{
			cliui.NameStyle.Render(m.ID),
			m.Provider,
			strings.Join(m.Capabilities, ","),
			in,
			out,
		})
	}

	fmt.Fprintln(c.out)
	cliui.Table(c.out, []string{"MODEL", "PROVIDER", "CAPABILITIES", "INPUT $/M", "OUTPUT $/M"}, rows, 48)
	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.DimStyle.Render(fmt.Sprintf("%d models", len(models))))
	return nil
}

func (c *modelsCommander) describe(cat *catalog.Catalog, id string) error {
	m, ok := cat.ByID(id)
	if !ok {
		return fmt.Errorf("unknown model %q", id)
	}

	if c.jsonOut {
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", m.Name)
	fmt.Fprintf(&sb, "`%s`\n\n", m.ID)
	if m.Description != "" {
		sb.WriteString(m.Description + "\n\n")
	}
	fmt.Fprintf(&sb, "- **Provider:** %s\n", m.Provider)
	fmt.Fprintf(&sb, "- **Family:** %s\n", m.Family)
	fmt.Fprintf(&sb, "- **Capabilities:** %s\n", strings.Join(m.Capabilities, ", "))
	if m.Pricing != nil {
		fmt.Fprintf(&sb, "- **Input:** %s per million tokens\n", formatPrice(m.Pricing.InputPerMillion))
		fmt.Fprintf(&sb, "- **Output:** %s per million tokens\n", formatPrice(m.Pricing.OutputPerMillion))
	} else {
		sb.WriteString("- **Pricing:** not listed\n")
	}

	rendered, err := cliui.RenderMarkdown(sb.String())
	if err != nil {
		rendered = sb.String()
	}
	fmt.Fprint(c.out, rendered)
	return nil
}

func filter(cat *catalog.Catalog, provider, capability string) []catalog.Model {
	models := cat.All()
	if provider != "" {
		models = slices.DeleteFunc(models, func(m catalog.Model) bool {
			return !strings.EqualFold(m.Provider, provider)
		})
	}
	if capability != "" {
		models = slices.DeleteFunc(models, func(m catalog.Model) bool {
			return !m.HasCapability(strings.ToLower(capability))
		})
	}
	return models
}

func formatPrice(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

// PricingPath reads catalog.pricing_path from the resolved configuration.
func PricingPath(configDir string) (string, error) {
	v, err := config.InitViper(configDir)
	if err != nil {
		return "", fmt.Errorf("loading config: %w", err)
	}
	return config.FromViper(v).Catalog.PricingPath, nil
}
