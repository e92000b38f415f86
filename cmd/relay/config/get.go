package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/config"
)

const getLongDesc string = `Get a configuration value.

Reads the value for the given key from config.toml in the .relay/ directory.
Unset keys show their default. --raw prints only the value, for scripts.

Examples:
  relay config get server.listen
  relay config get bedrock.region --raw`

func newGetCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd.OutOrStdout(), args[0], configDir, raw)
		},
		ValidArgsFunction: completeKeys,
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the value")

	return cmd
}

func runGet(out io.Writer, key, configDir string, raw bool) error {
	if err := validateKey(key); err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	value, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}

	if raw {
		_, err := fmt.Fprintln(out, value)
		return err
	}

	printTarget(out, cfger)

	shown := cliui.ValueStyle.Render(value)
	if value == "" {
		shown = cliui.DimStyle.Render("<not set>")
	}
	fmt.Fprintf(out, "  %s  %s\n\n", cliui.KeyStyle.Render(key), shown)
	return nil
}

// printTarget names the config file in use, or notes that defaults apply.
func printTarget(out io.Writer, cfger *config.Configer) {
	target := cfger.GetTarget()
	if target == "" {
		fmt.Fprintf(out, "\n  %s\n\n", cliui.DimStyle.Render("No config file found. Using defaults."))
		return
	}
	fmt.Fprintf(out, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(target))
}
