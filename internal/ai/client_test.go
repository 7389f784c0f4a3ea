package ai

import (
	"testing"

	"leadly/config"
)

func TestNewClientBuildsProvidersFromGivenConfig(t *testing.T) {
	cfg := config.Config{
		AIProviders: []config.AIProvider{
			{
				Type:   config.AIProviderTypeAPI,
				Name:   "openai",
				Model:  "gpt-4o-mini",
				APIKey: "sk-test",
			},
		},
	}

	c := NewClient(cfg)
	if !c.Available() {
		t.Fatal("expected the configured API provider to be available")
	}
	if got := c.Provider(); got != "openai/gpt-4o-mini" {
		t.Fatalf("Provider() = %q, want openai/gpt-4o-mini", got)
	}
}

func TestNewClientSkipsAPIProvidersWithoutKey(t *testing.T) {
	cfg := config.Config{
		AIProviders: []config.AIProvider{
			{Type: config.AIProviderTypeAPI, Name: "openai", Model: "gpt-4o-mini"},
		},
	}

	for _, p := range NewClient(cfg).providers {
		if p.apiClient != nil {
			t.Fatal("keyless API provider should not be initialized")
		}
	}
}
