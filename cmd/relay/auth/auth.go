// Package authcmder provides the auth command for storing vendor credentials.
package authcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/relay/pkg/cliui"
	"github.com/papercomputeco/relay/pkg/credentials"
)

const authLongDesc string = `Store credentials for the vendors relay routes to.

Credentials are stored in credentials.toml in the .relay/ directory and read
by "relay serve" at startup. Environment variables with the usual names
(ANTHROPIC_API_KEY, OPENAI_API_KEY, AWS_ACCESS_KEY_ID, ...) take precedence
over stored values.

For aws, relay prompts for an access key id, a secret access key, and an
optional session token. Without stored or environment keys the Bedrock
transport falls back to the default AWS credential chain.

Supported providers: anthropic, aws, openai

Examples:
  relay auth anthropic              Prompt for an Anthropic API key
  relay auth aws                    Prompt for an AWS key pair
  relay auth --list                 List stored credentials
  relay auth --remove openai        Remove stored OpenAI credentials
  echo $KEY | relay auth openai     Pipe an API key from stdin`

const authShortDesc string = "Store vendor credentials"

func NewAuthCmd() *cobra.Command {
	var listFlag bool
	var removeFlag string

	cmd := &cobra.Command{
		Use:   "auth [provider]",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			out := cmd.OutOrStdout()

			switch {
			case listFlag:
				return runList(out, configDir)
			case removeFlag != "":
				return runRemove(out, removeFlag, configDir)
			default:
				if len(args) == 0 {
					return fmt.Errorf("provider argument required\n\nSupported providers: %s",
						strings.Join(credentials.SupportedProviders(), ", "))
				}
				return runAuth(newPrompter(cmd.InOrStdin(), out), args[0], configDir)
			}
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return credentials.SupportedProviders(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	cmd.Flags().BoolVar(&listFlag, "list", false, "List stored credentials")
	cmd.Flags().StringVar(&removeFlag, "remove", "", "Remove stored credentials for a provider")

	return cmd
}

func runAuth(p *prompter, provider, configDir string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	if !credentials.IsSupportedProvider(provider) {
		return fmt.Errorf("unsupported provider: %q\n\nSupported providers: %s",
			provider, strings.Join(credentials.SupportedProviders(), ", "))
	}

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if provider == credentials.ProviderAWS {
		return runAuthAWS(p, mgr)
	}

	envVar := credentials.EnvVarForProvider(provider)
	apiKey, err := p.secret(fmt.Sprintf("Enter API key for %s (%s): ", provider, envVar))
	if err != nil {
		return err
	}
	if apiKey == "" {
		return errors.New("API key cannot be empty")
	}

	if err := mgr.SetKey(provider, apiKey); err != nil {
		return err
	}

	fmt.Fprintf(p.out, "\n  %s Stored %s credentials %s\n\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(provider),
		cliui.DimStyle.Render("(overridden by "+envVar+" when set)"),
	)
	return nil
}

func runAuthAWS(p *prompter, mgr *credentials.Manager) error {
	keyID, err := p.line("AWS access key id: ")
	if err != nil {
		return err
	}
	secret, err := p.secret("AWS secret access key: ")
	if err != nil {
		return err
	}
	token, err := p.optionalSecret("AWS session token (optional): ")
	if err != nil {
		return err
	}

	if err := mgr.SetAWS(credentials.AWS{
		AccessKeyID:     keyID,
		SecretAccessKey: secret,
		SessionToken:    token,
	}); err != nil {
		return err
	}

	fmt.Fprintf(p.out, "\n  %s Stored %s credentials\n", cliui.SuccessMark, cliui.NameStyle.Render(credentials.ProviderAWS))
	if strings.HasPrefix(keyID, "ASIA") && token == "" {
		fmt.Fprintf(p.out, "  %s Temporary keys (ASIA...) need a session token.\n", cliui.WarnStyle.Render("!"))
	}
	fmt.Fprintln(p.out)
	return nil
}

func runList(out io.Writer, configDir string) error {
	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	providers, err := mgr.ListProviders()
	if err != nil {
		return err
	}

	if len(providers) == 0 {
		fmt.Fprintf(out, "\n  %s No stored credentials.\n", cliui.DimStyle.Render("●"))
		fmt.Fprintf(out, "  Use 'relay auth <provider>' to store credentials.\n")
		fmt.Fprintf(out, "  Supported providers: %s\n\n", strings.Join(credentials.SupportedProviders(), ", "))
		return nil
	}

	fmt.Fprintf(out, "\n  %s\n\n", cliui.HeaderStyle.Render("Stored credentials"))
	for _, p := range providers {
		if envVar := credentials.EnvVarForProvider(p); envVar != "" {
			fmt.Fprintf(out, "  %s  %s  %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(p),
				cliui.DimStyle.Render("→ "+envVar),
			)
		} else {
			fmt.Fprintf(out, "  %s  %s\n", cliui.SuccessMark, cliui.NameStyle.Render(p))
		}
	}
	fmt.Fprintln(out)

	return nil
}

func runRemove(out io.Writer, provider, configDir string) error {
	provider = strings.ToLower(strings.TrimSpace(provider))

	mgr, err := credentials.NewManager(configDir)
	if err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}

	if err := mgr.RemoveKey(provider); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s Removed %s credentials.\n\n", cliui.SuccessMark, cliui.NameStyle.Render(provider))
	return nil
}

// prompter reads answers from a terminal with hidden input for secrets, or
// one answer per line from piped input.
type prompter struct {
	out     io.Writer
	tty     *os.File
	scanner *bufio.Scanner
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{out: out}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
		return p
	}
	p.scanner = bufio.NewScanner(in)
	return p
}

func (p *prompter) line(prompt string) (string, error) {
	if p.tty != nil {
		fmt.Fprint(p.out, prompt)
	}
	return p.next(true)
}

func (p *prompter) secret(prompt string) (string, error) {
	return p.readSecret(prompt, true)
}

func (p *prompter) optionalSecret(prompt string) (string, error) {
	return p.readSecret(prompt, false)
}

func (p *prompter) readSecret(prompt string, required bool) (string, error) {
	if p.tty == nil {
		return p.next(required)
	}

	fmt.Fprint(p.out, prompt)
	b, err := term.ReadPassword(int(p.tty.Fd()))
	fmt.Fprintln(p.out) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// next returns the next input line. Terminal line input is read through a
// scanner created on first use.
func (p *prompter) next(required bool) (string, error) {
	if p.scanner == nil {
		p.scanner = bufio.NewScanner(p.tty)
	}

	if p.scanner.Scan() {
		return strings.TrimSpace(p.scanner.Text()), nil
	}
	if err := p.scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if required {
		return "", errors.New("no input received on stdin")
	}
	return "", nil
}
