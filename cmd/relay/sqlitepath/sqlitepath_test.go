package sqlitepath_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/cmd/relay/sqlitepath"
)

var _ = Describe("ResolveSQLitePath", func() {
	var (
		homeDir string
		cwd     string
	)

	BeforeEach(func() {
		homeDir = GinkgoT().TempDir()
		cwd = GinkgoT().TempDir()

		GinkgoT().Setenv("HOME", homeDir)
		GinkgoT().Setenv("XDG_DATA_HOME", "")

		orig, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(cwd)).To(Succeed())
		DeferCleanup(func() {
			Expect(os.Chdir(orig)).To(Succeed())
		})
	})

	It("returns the override unchanged", func() {
		path, err := sqlitepath.ResolveSQLitePath("/tmp/custom.db", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("prefers an existing local database", func() {
		Expect(os.MkdirAll(".relay", 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(".relay", "relay.db"), nil, 0o600)).To(Succeed())

		path, err := sqlitepath.ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(".relay", "relay.db")))
	})

	It("finds an existing database in the home directory", func() {
		home := filepath.Join(homeDir, ".relay")
		Expect(os.MkdirAll(home, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(home, "relay.db"), nil, 0o600)).To(Succeed())

		path, err := sqlitepath.ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(home, "relay.db")))
	})

	It("defaults to relay.db in a newly created home .relay directory", func() {
		path, err := sqlitepath.ResolveSQLitePath("", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(homeDir, ".relay", "relay.db")))
		Expect(filepath.Join(homeDir, ".relay")).To(BeADirectory())
	})

	It("places the database in the config dir override", func() {
		dir := filepath.Join(cwd, "custom")

		path, err := sqlitepath.ResolveSQLitePath("", dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, "relay.db")))
		Expect(dir).To(BeADirectory())
	})
})
