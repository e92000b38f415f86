// Package usagecmder provides the usage command for reporting token usage and
// spend recorded by a relay server.
package usagecmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/client"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/storage"
)

type usageCommander struct {
	target  string
	from    string
	to      string
	jsonOut bool

	out io.Writer
}

const usageLongDesc string = `Report token usage and spend recorded by a running relay server.

--from and --to accept a date (2006-01-02) or an RFC 3339 timestamp. A
date-only --to includes the whole day.

Examples:
  relay usage
  relay usage --from 2024-06-01 --to 2024-06-30
  relay usage --json`

const usageShortDesc string = "Report token usage and spend"

func NewUsageCmd() *cobra.Command {
	cmder := &usageCommander{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "usage",
		Short: usageShortDesc,
		Long:  usageLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("target") {
				return nil
			}
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			cmder.target = config.FromViper(v).Client.Target
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return cmder.run(ctx)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.target, "target", "t", defaults.Client.Target, "Relay server URL")
	cmd.Flags().StringVar(&cmder.from, "from", "", "Start of the range")
	cmd.Flags().StringVar(&cmder.to, "to", "", "End of the range")
	cmd.Flags().BoolVar(&cmder.jsonOut, "json", false, "Print the raw JSON summary")

	return cmd
}

func (c *usageCommander) run(ctx context.Context) error {
	cl, err := client.New(c.target)
	if err != nil {
		return err
	}

	data, err := cl.UsageSummary(ctx, c.from, c.to)
	if err != nil {
		return err
	}

	if c.jsonOut {
		_, err := fmt.Fprintln(c.out, string(data))
		return err
	}

	var s storage.UsageSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parsing usage summary: %w", err)
	}

	fmt.Fprintf(c.out, "\n  %s\n\n", cliui.HeaderStyle.Render("Usage"))
	fmt.Fprintf(c.out, "  %s %d\n", cliui.KeyStyle.Render("Calls:        "), s.Records)
	fmt.Fprintf(c.out, "  %s %d\n", cliui.KeyStyle.Render("Input tokens: "), s.InputTokens)
	fmt.Fprintf(c.out, "  %s %d\n", cliui.KeyStyle.Render("Output tokens:"), s.OutputTokens)
	fmt.Fprintf(c.out, "  %s %s\n\n", cliui.KeyStyle.Render("Total cost:   "), cliui.ValueStyle.Render("$"+s.TotalCost.StringFixed(6)))

	if len(s.ByModel) == 0 {
		return nil
	}

	models := make([]string, 0, len(s.ByModel))
	for m := range s.ByModel {
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool {
		return s.ByModel[models[i]].GreaterThan(s.ByModel[models[j]])
	})

	rows := make([][]string, 0, len(models))
	for _, m := range models {
		rows = append(rows, []string{m, "$" + s.ByModel[m].StringFixed(6)})
	}
	cliui.Table(c.out, []string{"MODEL", "COST"}, rows, 60)
	fmt.Fprintln(c.out)
	return nil
}
