// Package costcmder provides the cost command for estimating the price of a
// call before making it.
package costcmder

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	modelscmder "github.com/papercomputeco/relay/cmd/relay/models"
	"github.com/papercomputeco/relay/pkg/catalog"
	"github.com/papercomputeco/relay/pkg/cliui"
)

type costCommander struct {
	inputTokens  int
	outputTokens int
	text         string
	file         string
	pricing      string
	jsonOut      bool

	in  io.Reader
	out io.Writer
}

const costLongDesc string = `Estimate the USD cost of a call to a model.

Token counts can be given directly, or approximated from text at four
characters per token. Text comes from --text, --file, or stdin ("-").

Examples:
  relay cost anthropic.claude-3-5-sonnet-20241022-v2:0 --input 1000 --output 500
  relay cost gpt-4o --text "Summarize this paragraph" --output 200
  cat prompt.txt | relay cost meta.llama3-8b-instruct-v1:0 --file -`

const costShortDesc string = "Estimate the cost of a call"

func NewCostCmd() *cobra.Command {
	cmder := &costCommander{
		in:  os.Stdin,
		out: os.Stdout,
	}

	cmd := &cobra.Command{
		Use:   "cost <model-id>",
		Short: costShortDesc,
		Long:  costLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("pricing") {
				return nil
			}
			configDir, _ := cmd.Flags().GetString("config-dir")
			pricing, err := modelscmder.PricingPath(configDir)
			if err != nil {
				return err
			}
			cmder.pricing = pricing
			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			return cmder.run(args[0])
		},
	}

	cmd.Flags().IntVarP(&cmder.inputTokens, "input", "i", 0, "Input token count")
	cmd.Flags().IntVarP(&cmder.outputTokens, "output", "o", 0, "Output token count")
	cmd.Flags().StringVar(&cmder.text, "text", "", "Prompt text to count input tokens from")
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "File to count input tokens from (- for stdin)")
	cmd.Flags().StringVar(&cmder.pricing, "pricing", "", "TOML pricing overrides file")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print JSON")
	cmd.MarkFlagsMutuallyExclusive("input", "text", "file")

	return cmd
}

func (c *costCommander) run(modelID string) error {
	if c.inputTokens < 0 || c.outputTokens < 0 {
		return errors.New("token counts cannot be negative")
	}

	cat, err := catalog.DefaultWithPricing(c.pricing)
	if err != nil {
		return err
	}

	m, ok := cat.ByID(modelID)
	if !ok {
		return fmt.Errorf("unknown model %q", modelID)
	}

	input := c.inputTokens
	text, err := c.readText()
	if err != nil {
		return err
	}
	if text != "" {
		input = catalog.CountTokens(text)
	}

	est := cat.EstimateCost(m.ID, input, c.outputTokens)

	if c.jsonOut {
		return json.NewEncoder(c.out).Encode(struct {
			Model        string               `json:"model"`
			InputTokens  int                  `json:"inputTokens"`
			OutputTokens int                  `json:"outputTokens"`
			Cost         catalog.CostEstimate `json:"cost"`
		}{m.ID, input, c.outputTokens, est})
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n", cliui.NameStyle.Render(m.Name), cliui.DimStyle.Render(m.ID))
	if m.Pricing == nil {
		fmt.Fprintf(c.out, "  %s No pricing listed for this model; cost is reported as zero.\n\n", cliui.WarnStyle.Render("!"))
	}
	fmt.Fprintf(c.out, "  Input:   %8d tokens  $%s\n", input, est.InputCost.StringFixed(6))
	fmt.Fprintf(c.out, "  Output:  %8d tokens  $%s\n", c.outputTokens, est.OutputCost.StringFixed(6))
	fmt.Fprintf(c.out, "  %s                  $%s\n\n", cliui.HeaderStyle.Render("Total:"), est.TotalCost.StringFixed(6))
	return nil
}

func (c *costCommander) readText() (string, error) {
	switch c.file {
	case "":
		return c.text, nil
	case "-":
		data, err := io.ReadAll(c.in)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	default:
		data, err := os.ReadFile(c.file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", c.file, err)
		}
		return string(data), nil
	}
}
