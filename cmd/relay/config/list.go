package configcmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/config"
)

const listLongDesc string = `List every configuration key with its current value.

Values come from config.toml in the .relay/ directory, falling back to
defaults. --json prints a key to value object instead of a table.

Examples:
  relay config list
  relay config list --json`

func newListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, jsonOut)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print values as a JSON object")

	return cmd
}

func runList(out io.Writer, configDir string, jsonOut bool) error {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	keys := config.ValidConfigKeys()
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		if values[key], err = cfger.GetConfigValue(key); err != nil {
			return err
		}
	}

	if jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}

	printTarget(out, cfger)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		v := values[key]
		if v == "" {
			v = cliui.DimStyle.Render("<not set>")
		}
		rows = append(rows, []string{key, v})
	}
	cliui.Table(out, []string{"KEY", "VALUE"}, rows, 60)
	fmt.Fprintln(out)
	return nil
}
