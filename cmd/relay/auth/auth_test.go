package authcmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/relay/cmd/relay/auth"
	"github.com/papercomputeco/relay/pkg/credentials"
)

var _ = Describe("Auth Command", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	newCmd := func(stdin string, args ...string) *cobra.Command {
		cmd := authcmder.NewAuthCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .relay/ config directory")
		cmd.SetOut(out)
		cmd.SetIn(bytes.NewBufferString(stdin))
		cmd.SetArgs(append(args, "--config-dir", tmpDir))
		return cmd
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
	})

	Describe("NewAuthCmd", func() {
		It("creates a command with expected properties", func() {
			cmd := authcmder.NewAuthCmd()
			Expect(cmd.Use).To(Equal("auth [provider]"))
			Expect(cmd.Short).NotTo(BeEmpty())
			Expect(cmd.Flags().Lookup("list")).NotTo(BeNil())
			Expect(cmd.Flags().Lookup("remove")).NotTo(BeNil())
		})
	})

	Describe("storing API keys", func() {
		It("stores a piped key", func() {
			Expect(newCmd("sk-ant-test\n", "anthropic").Execute()).To(Succeed())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			key, err := mgr.GetKey("anthropic")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(Equal("sk-ant-test"))
			Expect(out.String()).To(ContainSubstring("ANTHROPIC_API_KEY"))
		})

		It("rejects an empty key", func() {
			err := newCmd("\n", "openai").Execute()
			Expect(err).To(MatchError(ContainSubstring("cannot be empty")))
		})

		It("fails without input", func() {
			err := newCmd("", "openai").Execute()
			Expect(err).To(MatchError(ContainSubstring("no input")))
		})
	})

	Describe("storing AWS keys", func() {
		It("stores a key pair and session token", func() {
			Expect(newCmd("AKIAEXAMPLE\nsecret\ntoken\n", "aws").Execute()).To(Succeed())

			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			creds, err := mgr.Load()
			Expect(err).NotTo(HaveOccurred())
			Expect(creds.Providers["aws"]).To(Equal(credentials.ProviderCredential{
				AccessKeyID:     "AKIAEXAMPLE",
				SecretAccessKey: "secret",
				SessionToken:    "token",
			}))
		})

		It("treats the session token as optional", func() {
			Expect(newCmd("AKIAEXAMPLE\nsecret\n", "aws").Execute()).To(Succeed())
		})

		It("warns about temporary keys without a token", func() {
			Expect(newCmd("ASIAEXAMPLE\nsecret\n", "aws").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("session token"))
		})

		It("requires the secret", func() {
			err := newCmd("AKIAEXAMPLE\n\n", "aws").Execute()
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("--list flag", func() {
		It("shows no credentials when none stored", func() {
			Expect(newCmd("", "--list").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("No stored credentials"))
		})

		It("lists stored credentials", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

			Expect(newCmd("", "--list").Execute()).To(Succeed())
			Expect(out.String()).To(ContainSubstring("openai"))
			Expect(out.String()).To(ContainSubstring("OPENAI_API_KEY"))
		})
	})

	Describe("--remove flag", func() {
		It("removes stored credentials", func() {
			mgr, err := credentials.NewManager(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(mgr.SetKey("openai", "sk-test")).To(Succeed())

			Expect(newCmd("", "--remove", "openai").Execute()).To(Succeed())

			key, err := mgr.GetKey("openai")
			Expect(err).NotTo(HaveOccurred())
			Expect(key).To(BeEmpty())
		})
	})

	Describe("provider argument validation", func() {
		It("returns error when no provider given", func() {
			err := newCmd("").Execute()
			Expect(err).To(MatchError(ContainSubstring("provider argument required")))
		})

		It("returns error for unsupported provider", func() {
			err := newCmd("sk-test\n", "ollama").Execute()
			Expect(err).To(MatchError(ContainSubstring("unsupported provider")))
		})
	})

	Describe("shell completion", func() {
		It("provides provider name completions", func() {
			cmd := authcmder.NewAuthCmd()
			completions, directive := cmd.ValidArgsFunction(cmd, []string{}, "")
			Expect(completions).To(ConsistOf("anthropic", "aws", "openai"))
			Expect(directive).To(Equal(cobra.ShellCompDirectiveNoFileComp))
		})

		It("provides no completions after first arg", func() {
			cmd := authcmder.NewAuthCmd()
			completions, _ := cmd.ValidArgsFunction(cmd, []string{"openai"}, "")
			Expect(completions).To(BeNil())
		})
	})
})
