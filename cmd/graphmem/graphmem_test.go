package graphmemcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	graphmemcmder "github.com/graphmemco/graphmem/cmd/graphmem"
)

var _ = Describe("NewGraphmemCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := graphmemcmder.NewGraphmemCmd()
		Expect(cmd.Use).To(Equal("graphmem"))
	})

	It("has serve, config, init, and version subcommands", func() {
		cmd := graphmemcmder.NewGraphmemCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("serve", "config", "init", "version"))
	})

	It("has a persistent debug flag", func() {
		cmd := graphmemcmder.NewGraphmemCmd()
		f := cmd.PersistentFlags().Lookup("debug")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("d"))
		Expect(f.DefValue).To(Equal("false"))
	})

	It("has a persistent config-dir flag", func() {
		cmd := graphmemcmder.NewGraphmemCmd()
		f := cmd.PersistentFlags().Lookup("config-dir")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})
