package provider_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/graphmemco/graphmem/pkg/graph"
	"github.com/graphmemco/graphmem/pkg/llm/provider"
)

var _ = Describe("New", func() {
	It("creates an anthropic client when a key is present", func() {
		client, err := provider.New(provider.Config{
			Type:   provider.Anthropic,
			APIKey: "sk-ant-test",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Name()).To(Equal("anthropic"))
	})

	It("creates an openai client when a key is present", func() {
		client, err := provider.New(provider.Config{
			Type:   provider.OpenAI,
			APIKey: "sk-test",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Name()).To(Equal("openai"))
	})

	It("creates an ollama client without a credential", func() {
		client, err := provider.New(provider.Config{
			Type: provider.Ollama,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(client.Name()).To(Equal("ollama"))
	})

	It("rejects anthropic without a key", func() {
		_, err := provider.New(provider.Config{Type: provider.Anthropic})
		Expect(err).To(MatchError(graph.ErrMissingCredential))
	})

	It("rejects openai without a key", func() {
		_, err := provider.New(provider.Config{Type: provider.OpenAI})
		Expect(err).To(MatchError(graph.ErrMissingCredential))
	})

	It("rejects unknown provider types", func() {
		_, err := provider.New(provider.Config{Type: "palm"})
		Expect(err).To(MatchError(graph.ErrUnsupportedProvider))
		Expect(err.Error()).To(ContainSubstring("palm"))
	})
})

var _ = Describe("SupportedProviders", func() {
	It("lists every provider the factory accepts", func() {
		Expect(provider.SupportedProviders()).To(ConsistOf("anthropic", "openai", "ollama"))
	})
})
