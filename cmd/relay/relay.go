// Package relaycmder is the root relay command.
package relaycmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/relay/cmd/relay/auth"
	chatcmder "github.com/papercomputeco/relay/cmd/relay/chat"
	configcmder "github.com/papercomputeco/relay/cmd/relay/config"
	costcmder "github.com/papercomputeco/relay/cmd/relay/cost"
	historycmder "github.com/papercomputeco/relay/cmd/relay/history"
	initcmder "github.com/papercomputeco/relay/cmd/relay/init"
	modelscmder "github.com/papercomputeco/relay/cmd/relay/models"
	servecmder "github.com/papercomputeco/relay/cmd/relay/serve"
	usagecmder "github.com/papercomputeco/relay/cmd/relay/usage"
	versioncmder "github.com/papercomputeco/relay/cmd/version"
	"github.com/papercomputeco/relay/pkg/cliui"
)

const relayLongDesc string = `Relay is a gateway for foundation model chat.

It fronts Bedrock, Anthropic, and OpenAI behind one API, streams replies,
records conversations and token spend, and can be driven from the CLI.

Run the server and talk to it:
  relay serve          Run the relay server
  relay chat           Chat through a running server
  relay models         List the model catalog
  relay cost           Estimate the cost of a call
  relay history        Browse stored conversations
  relay usage          Report recorded token usage`

const relayShortDesc string = "Relay - model gateway"

func NewRelayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "relay",
		Short:         relayShortDesc,
		Long:          relayLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			cliui.ConfigureColor()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .relay/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(modelscmder.NewModelsCmd())
	cmd.AddCommand(costcmder.NewCostCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(usagecmder.NewUsageCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
