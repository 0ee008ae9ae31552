package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/graphmemco/graphmem/cmd/graphmem/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
	})

	It("registers all serve flags with registry defaults", func() {
		cmd := servecmder.NewServeCmd()

		listen := cmd.Flags().Lookup("listen")
		Expect(listen).NotTo(BeNil())
		Expect(listen.DefValue).To(Equal(":8000"))
		Expect(listen.Shorthand).To(Equal("l"))

		limit := cmd.Flags().Lookup("semaphore-limit")
		Expect(limit).NotTo(BeNil())
		Expect(limit.DefValue).To(Equal("10"))

		db := cmd.Flags().Lookup("database-provider")
		Expect(db).NotTo(BeNil())
		Expect(db.DefValue).To(Equal("memory"))

		events := cmd.Flags().Lookup("events-provider")
		Expect(events).NotTo(BeNil())
		Expect(events.DefValue).To(Equal("nop"))

		vs := cmd.Flags().Lookup("vector-store-provider")
		Expect(vs).NotTo(BeNil())
		Expect(vs.DefValue).To(Equal("none"))
	})

	It("registers embedding flags from the default config", func() {
		cmd := servecmder.NewServeCmd()

		prov := cmd.Flags().Lookup("embedding-provider")
		Expect(prov).NotTo(BeNil())
		Expect(prov.DefValue).To(Equal("ollama"))

		dims := cmd.Flags().Lookup("embedding-dimensions")
		Expect(dims).NotTo(BeNil())
		Expect(dims.DefValue).To(Equal("768"))
	})

	It("has no subcommands", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Commands()).To(BeEmpty())
	})
})
