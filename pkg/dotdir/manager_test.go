package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/relay/pkg/dotdir"
)

// sandbox points HOME at home, clears RELAY_CONFIG_DIR, and chdirs into cwd
// for the rest of the test.
func sandbox(home, cwd string) {
	GinkgoT().Setenv("HOME", home)
	GinkgoT().Setenv(dotdir.EnvDir, "")

	orig, err := os.Getwd()
	Expect(err).NotTo(HaveOccurred())
	Expect(os.Chdir(cwd)).To(Succeed())
	DeferCleanup(os.Chdir, orig)
}

var _ = Describe("Manager", func() {
	var (
		root, home, work string
		m                *dotdir.Manager
	)

	BeforeEach(func() {
		var err error
		// Resolve symlinks so results compare equal to filepath.Abs output
		// on systems where the temp dir is a link.
		root, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())

		home = filepath.Join(root, "home")
		work = filepath.Join(root, "work")
		Expect(os.MkdirAll(home, 0o755)).To(Succeed())
		Expect(os.MkdirAll(work, 0o755)).To(Succeed())

		sandbox(home, work)
		m = dotdir.NewManager()
	})

	Describe("Target", func() {
		It("creates and returns an override directory", func() {
			dir := filepath.Join(root, "custom", "relay")
			got, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(dir))
			Expect(dir).To(BeADirectory())
		})

		It("prefers the override over a local .relay", func() {
			Expect(os.Mkdir(filepath.Join(work, dotdir.DirName), 0o755)).To(Succeed())

			dir := filepath.Join(root, "override")
			Expect(m.Target(dir)).To(Equal(dir))
		})

		It("uses RELAY_CONFIG_DIR when no override is given", func() {
			dir := filepath.Join(root, "from-env")
			GinkgoT().Setenv(dotdir.EnvDir, dir)
			Expect(os.Mkdir(filepath.Join(work, dotdir.DirName), 0o755)).To(Succeed())

			Expect(m.Target("")).To(Equal(dir))
			Expect(dir).To(BeADirectory())
		})

		It("finds ./.relay before ~/.relay", func() {
			local := filepath.Join(work, dotdir.DirName)
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			Expect(os.Mkdir(filepath.Join(home, dotdir.DirName), 0o755)).To(Succeed())

			Expect(m.Target("")).To(Equal(local))
		})

		It("falls back to ~/.relay", func() {
			global := filepath.Join(home, dotdir.DirName)
			Expect(os.Mkdir(global, 0o755)).To(Succeed())

			Expect(m.Target("")).To(Equal(global))
		})

		It("skips a .relay that is a regular file", func() {
			Expect(os.WriteFile(filepath.Join(work, dotdir.DirName), nil, 0o644)).To(Succeed())
			Expect(m.Target("")).To(BeEmpty())
		})

		It("returns empty when nothing exists", func() {
			Expect(m.Target("")).To(BeEmpty())
		})
	})

	Describe("Ensure", func() {
		It("creates ~/.relay when nothing resolves", func() {
			got, err := m.Ensure("")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(filepath.Join(home, dotdir.DirName)))
			Expect(got).To(BeADirectory())
		})

		It("returns an existing local directory untouched", func() {
			local := filepath.Join(work, dotdir.DirName)
			Expect(os.Mkdir(local, 0o755)).To(Succeed())

			Expect(m.Ensure("")).To(Equal(local))
			Expect(filepath.Join(home, dotdir.DirName)).NotTo(BeAnExistingFile())
		})
	})
})
