// Package historycmder provides the history command for browsing, exporting,
// and deleting conversations stored by a relay server.
package historycmder

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/client"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/utils"
)

type historyCommander struct {
	target string
	format string
	output string

	out io.Writer
}

const historyLongDesc string = `Browse conversations stored by a running relay server.

Without a subcommand, lists conversations, most recently updated first.
A query argument searches titles and message text.

Examples:
  relay history
  relay history "trip to lisbon"
  relay history show 3f2a...
  relay history export 3f2a... --format markdown -o trip.md
  relay history delete 3f2a...`

const historyShortDesc string = "Browse stored conversations"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{out: os.Stdout}

	cmd := &cobra.Command{
		Use:   "history [query]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
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
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			return cmder.list(contextOf(cmd), query)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.PersistentFlags().StringVarP(&cmder.target, "target", "t", defaults.Client.Target, "Relay server URL")

	show := &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Render a conversation as markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.show(contextOf(cmd), args[0])
		},
	}

	export := &cobra.Command{
		Use:   "export <conversation-id>",
		Short: "Export a conversation as json, markdown, or txt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.export(contextOf(cmd), args[0])
		},
	}
	export.Flags().StringVarP(&cmder.format, "format", "f", "json", "Export format (json, markdown, txt)")
	export.Flags().StringVarP(&cmder.output, "output", "o", "", "Write to a file instead of stdout")

	del := &cobra.Command{
		Use:   "delete <conversation-id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.delete(contextOf(cmd), args[0])
		},
	}

	cmd.AddCommand(show, export, del)
	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (c *historyCommander) list(ctx context.Context, query string) error {
	cl, err := client.New(c.target)
	if err != nil {
		return err
	}

	convs, err := cl.ListConversations(ctx, query)
	if err != nil {
		return err
	}

	if len(convs) == 0 {
		fmt.Fprintf(c.out, "\n  %s No conversations found.\n\n", cliui.DimStyle.Render("●"))
		return nil
	}

	rows := make([][]string, 0, len(convs))
	for _, conv := range convs {
		rows = append(rows, []string{
			cliui.NameStyle.Render(utils.Truncate(conv.ID, 12)),
			conv.Title,
			conv.Model,
			strconv.Itoa(len(conv.Messages)),
			conv.UpdatedAt.Local().Format("2006-01-02 15:04"),
		})
	}

	fmt.Fprintln(c.out)
	cliui.Table(c.out, []string{"ID", "TITLE", "MODEL", "MESSAGES", "UPDATED"}, rows, 40)
	fmt.Fprintln(c.out)
	return nil
}

func (c *historyCommander) show(ctx context.Context, id string) error {
	cl, err := client.New(c.target)
	if err != nil {
		return err
	}

	md, err := cl.ExportConversation(ctx, id, "markdown")
	if err != nil {
		return err
	}

	rendered, err := cliui.RenderMarkdown(string(md))
	if err != nil {
		rendered = string(md)
	}
	fmt.Fprint(c.out, rendered)
	return nil
}

func (c *historyCommander) export(ctx context.Context, id string) error {
	cl, err := client.New(c.target)
	if err != nil {
		return err
	}

	data, err := cl.ExportConversation(ctx, id, c.format)
	if err != nil {
		return err
	}

	if c.output == "" {
		_, err = c.out.Write(data)
		return err
	}

	if err := os.WriteFile(c.output, data, 0o644); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Fprintf(c.out, "  %s Exported %s to %s\n", cliui.SuccessMark, cliui.NameStyle.Render(id), c.output)
	return nil
}

func (c *historyCommander) delete(ctx context.Context, id string) error {
	cl, err := client.New(c.target)
	if err != nil {
		return err
	}

	if err := cl.DeleteConversation(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "  %s Deleted %s\n", cliui.SuccessMark, cliui.NameStyle.Render(id))
	return nil
}
