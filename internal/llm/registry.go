package llm

import (
	"context"
	"os"

	"unified-thinking/internal/apperrors"
	"unified-thinking/internal/config"
)

// Registry resolves the configured primary provider for a call, falling
// back to the secondary provider named by LLM_FALLBACK_PROVIDER (or the
// providers.yaml default) when the primary's API key is absent or the
// primary call itself fails. This mirrors the two-provider routing the
// reference agent framework does in its provider router, generalized to
// whichever providers are present in providers.yaml.
type Registry struct {
	cfg     *config.ProvidersConfig
	clients map[string]Client
}

// NewRegistry builds a Client for every provider entry whose API key
// environment variable is set. Entries missing their key are skipped, not
// errored, so a deployment can run with only one provider configured.
func NewRegistry(cfg *config.ProvidersConfig) (*Registry, error) {
	reg := &Registry{cfg: cfg, clients: make(map[string]Client, len(cfg.Providers))}

	for _, entry := range cfg.Providers {
		apiKey := os.Getenv(entry.APIKeyEnv)
		if apiKey == "" {
			continue
		}
		reg.clients[entry.Name] = newClientFor(entry, apiKey)
	}

	return reg, nil
}

func newClientFor(entry config.ProviderEntry, apiKey string) Client {
	switch entry.Kind {
	case "openai":
		return NewOpenAIClient(entry.Name, apiKey, entry.Model)
	default:
		return NewAnthropicClient(entry.Name, apiKey, entry.Model)
	}
}

// Complete routes a request to the primary provider, falling back to the
// configured fallback provider on any error (including the primary having
// no available client). MaxTokens is clamped to the resolved provider's
// configured budget for kind before the call is dispatched.
func (r *Registry) Complete(ctx context.Context, kind CallKind, req Request) (Response, error) {
	if !r.cfg.Enabled {
		return Response{}, apperrors.ProviderUnavailable{Provider: r.cfg.Primary, Err: errProvidersDisabled}
	}

	order := []string{r.cfg.Primary, r.cfg.FallbackName()}
	var lastErr error

	for _, name := range order {
		if name == "" {
			continue
		}
		client, ok := r.clients[name]
		if !ok {
			lastErr = apperrors.ProviderUnavailable{Provider: name, Err: errNoAPIKey}
			continue
		}
		entry, _ := r.cfg.EntryFor(name)
		bound := req
		bound.MaxTokens = clampTokens(req.MaxTokens, kind, entry)

		resp, err := client.Complete(ctx, bound)
		if err != nil {
			lastErr = apperrors.ProviderUnavailable{Provider: name, Err: err}
			continue
		}
		return resp, nil
	}

	if lastErr == nil {
		lastErr = apperrors.ProviderUnavailable{Provider: r.cfg.Primary, Err: errNoAPIKey}
	}
	return Response{}, lastErr
}

func clampTokens(requested int, kind CallKind, entry config.ProviderEntry) int {
	budget := entry.MaxSynthesizeTokens
	if kind == CallKindClassify {
		budget = entry.MaxClassifyTokens
	}
	if budget <= 0 {
		return requested
	}
	if requested <= 0 || requested > budget {
		return budget
	}
	return requested
}

// Available reports whether any provider has a usable client, so callers
// can short-circuit to keyword-based fallbacks (see config.IntentsConfig)
// instead of dispatching a call guaranteed to fail.
func (r *Registry) Available() bool {
	return r.cfg.Enabled && len(r.clients) > 0
}
