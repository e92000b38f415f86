// Package chatcmder provides the chat command for interactive chat through a
// running relay server.
package chatcmder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/client"
	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/dotdir"
	"github.com/papercomputeco/relay/pkg/llm"
	"github.com/papercomputeco/relay/pkg/logger"
	"github.com/papercomputeco/relay/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	target    string
	model     string
	provider  string
	system    string
	configDir string
	fresh     bool
	markdown  bool
	debug     bool

	in  io.Reader
	out io.Writer

	client *client.Client
	logger *slog.Logger
}

const chatLongDesc string = `Start an interactive chat session through a running relay server.

Each reply is streamed as it is generated. Turns are recorded server-side
under a conversation id kept in .relay/session.json, so re-running
"relay chat" resumes the same conversation. Use --new to start over.

Type /exit or press Ctrl+D to quit. /new starts a fresh conversation
without leaving the session.

Examples:
  relay chat
  relay chat --model meta.llama3-8b-instruct-v1:0
  relay chat --model gpt-4o --provider openai --new
  relay chat --markdown --target http://localhost:9000`

const chatShortDesc string = "Interactive chat through the relay server"

var chatFlags = config.FlagSet{
	config.FlagTarget: {Name: "target", Shorthand: "t", ViperKey: "client.target", Description: "Relay server URL"},
	config.FlagModel:  {Name: "model", Shorthand: "m", ViperKey: "server.default_model", Description: "Model id to chat with"},
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{
		in:  os.Stdin,
		out: os.Stdout,
	}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, chatFlags, []string{config.FlagTarget, config.FlagModel})

			cfg := config.FromViper(v)
			cmder.target = cfg.Client.Target
			cmder.model = cfg.Server.DefaultModel
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			modelChanged := cmd.Flags().Changed("model")
			return cmder.run(cmd.Context(), modelChanged)
		},
	}

	config.AddStringFlag(cmd, chatFlags, config.FlagTarget, &cmder.target)
	config.AddStringFlag(cmd, chatFlags, config.FlagModel, &cmder.model)
	cmd.Flags().StringVarP(&cmder.provider, "provider", "p", "", "Transport to route through (bedrock, bedrock-signed, anthropic, openai)")
	cmd.Flags().StringVar(&cmder.system, "system", "", "System prompt for every turn")
	cmd.Flags().BoolVar(&cmder.fresh, "new", false, "Start a new conversation instead of resuming")
	cmd.Flags().BoolVar(&cmder.markdown, "markdown", false, "Render each reply as markdown once it completes")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, modelChanged bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.logger = logger.New(logger.WithDebug(c.debug), logger.WithPretty(true), logger.WithWriter(os.Stderr))

	var err error
	c.client, err = client.New(c.target)
	if err != nil {
		return err
	}

	ddm := dotdir.NewManager()
	session, messages, err := c.resume(ctx, ddm, modelChanged)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s %s\n\n",
		cliui.NameStyle.Render("Model:"),
		cliui.DimStyle.Render(c.model),
	)
	fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))

	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, userPrompt)
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(c.out)
			return nil
		case "/new":
			session, err = c.newSession(ddm)
			if err != nil {
				return err
			}
			messages = nil
			continue
		}

		messages = append(messages, llm.NewTextMessage(llm.RoleUser, input))

		reply, err := c.send(ctx, session.ConversationID, messages)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  %s %v\n", cliui.FailMark, err)
			// Drop the failed prompt so it can be retried.
			messages = messages[:len(messages)-1]
			continue
		}

		messages = append(messages, llm.NewTextMessage(llm.RoleAssistant, reply))
		fmt.Fprint(c.out, "\n\n")
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(c.out)
	return nil
}

// resume loads the saved session and its history from the server. A missing
// or unknown conversation starts a new session.
func (c *chatCommander) resume(ctx context.Context, ddm *dotdir.Manager, modelChanged bool) (*dotdir.SessionState, []llm.Message, error) {
	fmt.Fprintln(c.out)

	if c.fresh {
		s, err := c.newSession(ddm)
		return s, nil, err
	}

	session, err := ddm.LoadSession(c.configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading session: %w", err)
	}
	if session == nil {
		s, err := c.newSession(ddm)
		return s, nil, err
	}

	conv, err := c.client.GetConversation(ctx, session.ConversationID)
	switch {
	case errors.Is(err, client.ErrNotFound):
		// Nothing was recorded under the saved id yet.
		conv = nil
	case err != nil:
		return nil, nil, err
	}

	if !modelChanged && session.Model != "" {
		c.model = session.Model
	}

	var messages []llm.Message
	if conv != nil {
		messages = conv.Messages
	}

	fmt.Fprintf(c.out, "  %s Resuming %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(utils.Truncate(session.ConversationID, 16)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(messages))),
	)
	return session, messages, nil
}

func (c *chatCommander) newSession(ddm *dotdir.Manager) (*dotdir.SessionState, error) {
	session := &dotdir.SessionState{
		ConversationID: uuid.NewString(),
		Model:          c.model,
	}
	if err := ddm.SaveSession(session, c.configDir); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	fmt.Fprintf(c.out, "  %s New conversation %s\n",
		cliui.DimStyle.Render("●"),
		cliui.DimStyle.Render(utils.Truncate(session.ConversationID, 16)),
	)
	return session, nil
}

// send issues one turn and prints the reply. Markdown mode waits for the full
// reply and renders it; otherwise text is streamed as it arrives.
func (c *chatCommander) send(ctx context.Context, conversationID string, messages []llm.Message) (string, error) {
	req := client.ChatRequest{
		Messages:       messages,
		Model:          c.model,
		Provider:       c.provider,
		System:         c.system,
		ConversationID: conversationID,
	}

	c.logger.Debug("sending chat request",
		"target", c.target,
		"model", c.model,
		"message_count", len(messages),
	)

	if !c.markdown {
		fmt.Fprint(c.out, assistantPrompt)
		return c.client.ChatStream(ctx, req, c.out)
	}

	reply, err := c.client.Chat(ctx, req)
	if err != nil {
		return "", err
	}

	rendered, err := cliui.RenderMarkdown(reply)
	if err != nil {
		c.logger.Debug("markdown render failed", "error", err)
		rendered = reply
	}
	fmt.Fprint(c.out, assistantPrompt+"\n"+strings.TrimRight(rendered, "\n"))
	return reply, nil
}
