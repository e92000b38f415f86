package servecmder

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/papercomputeco/relay/pkg/config"
	"github.com/papercomputeco/relay/pkg/logger"
)

func newTestServeCmd() *cobra.Command {
	cmd := NewServeCmd()
	cmd.PersistentFlags().BoolP("debug", "d", false, "")
	cmd.PersistentFlags().String("config-dir", "", "")
	return cmd
}

var _ = Describe("serve command", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("registers the server flags", func() {
		cmd := newTestServeCmd()
		for _, name := range []string{"listen", "model", "storage", "sqlite", "region", "bedrock-transport", "publisher", "pricing", "workers", "mcp", "log-file", "env-file"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), name)
		}
	})

	Describe("resolveConfig", func() {
		It("layers flags over config.toml", func() {
			Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`
[server]
listen = ":7000"
default_model = "gpt-4o"

[storage]
driver = "memory"
`), 0o600)).To(Succeed())

			cmd := newTestServeCmd()
			Expect(cmd.ParseFlags([]string{"--listen", ":9100"})).To(Succeed())

			cmder := &ServeCommander{configDir: dir}
			cfg, err := cmder.resolveConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.Listen).To(Equal(":9100"))
			Expect(cfg.Server.DefaultModel).To(Equal("gpt-4o"))
			Expect(cfg.Storage.Driver).To(Equal("memory"))
		})

		It("loads the env file before reading RELAY_ variables", func() {
			envFile := filepath.Join(dir, "relay.env")
			Expect(os.WriteFile(envFile, []byte("RELAY_SERVER_STREAM_FORMAT=sse\n"), 0o600)).To(Succeed())
			DeferCleanup(os.Unsetenv, "RELAY_SERVER_STREAM_FORMAT")

			cmder := &ServeCommander{configDir: dir, envFile: envFile}
			cfg, err := cmder.resolveConfig(newTestServeCmd())
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.StreamFormat).To(Equal("sse"))
		})

		It("ignores a missing env file", func() {
			cmder := &ServeCommander{configDir: dir, envFile: filepath.Join(dir, "absent.env")}
			_, err := cmder.resolveConfig(newTestServeCmd())
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("newLogger", func() {
		It("rejects an unknown level", func() {
			_, _, err := (&ServeCommander{logLevel: "chatty"}).newLogger()
			Expect(err).To(MatchError(ContainSubstring("invalid log level")))
		})

		It("mirrors records into a JSON log file", func() {
			path := filepath.Join(dir, "relay.log")
			log, closeLog, err := (&ServeCommander{logFile: path, logLevel: "warn"}).newLogger()
			Expect(err).NotTo(HaveOccurred())

			log.Info("not written")
			log.Warn("transport unavailable", "transport", "openai")
			closeLog()

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).NotTo(ContainSubstring("not written"))
			Expect(gjson.GetBytes(data, "transport").String()).To(Equal("openai"))
			Expect(gjson.GetBytes(data, "source").Exists()).To(BeTrue())
		})
	})

	Describe("initializeApp", func() {
		It("assembles the server with in-memory storage", func() {
			cfg := config.NewDefaultConfig()
			cfg.Storage.Driver = "memory"
			cfg.Server.Listen = "127.0.0.1:0"

			a, cleanup, err := initializeApp(context.Background(), cfg, ConfigDir(dir), logger.Nop())
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(cleanup)

			Expect(a.Server).NotTo(BeNil())
			Expect(a.Catalog.All()).NotTo(BeEmpty())
			Expect(a.Driver).NotTo(BeNil())
			Expect(a.Publisher).NotTo(BeNil())
			Expect(a.Server.Close()).To(Succeed())
		})

		It("fails when postgres has no DSN", func() {
			cfg := config.NewDefaultConfig()
			cfg.Storage.Driver = "postgres"

			_, _, err := initializeApp(context.Background(), cfg, ConfigDir(dir), logger.Nop())
			Expect(err).To(MatchError(ContainSubstring("postgres_dsn is required")))
		})
	})

	It("splits broker lists", func() {
		Expect(splitList(" a:9092, ,b:9092 ")).To(Equal([]string{"a:9092", "b:9092"}))
		Expect(splitList("")).To(BeEmpty())
	})
})
