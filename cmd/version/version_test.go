package versioncmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/tidwall/gjson"

	versioncmder "github.com/papercomputeco/relay/cmd/version"
)

var _ = Describe("version command", func() {
	run := func(args ...string) string {
		out := &bytes.Buffer{}
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(out)
		cmd.SetArgs(args)
		Expect(cmd.Execute()).To(Succeed())
		return out.String()
	}

	It("prints build information", func() {
		out := run()
		Expect(out).To(ContainSubstring("Version: dev"))
		Expect(out).To(ContainSubstring("Sha: HEAD"))
	})

	It("prints JSON with --json", func() {
		out := run("--json")
		Expect(gjson.Get(out, "version").String()).To(Equal("dev"))
		Expect(gjson.Get(out, "goVersion").String()).To(HavePrefix("go"))
	})
})
