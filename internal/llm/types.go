// Package llm provides a provider-agnostic chat completion client with
// primary/fallback routing across Anthropic and OpenAI, driven by
// providers.yaml.
package llm

// Message is a single turn in a chat completion request.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Request is a provider-agnostic chat completion call. MaxTokens is set by
// the caller per call kind (classification calls need far fewer tokens than
// synthesis calls) and is clamped to the provider's configured budget for
// that kind by the Registry before the call is dispatched.
type Request struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Response is the provider-agnostic completion result.
type Response struct {
	Text         string
	Provider     string
	Model        string
	InputTokens  int
	OutputTokens int
}

// CallKind selects which per-provider token budget applies to a request.
type CallKind string

const (
	CallKindClassify  CallKind = "classify"
	CallKindSynthesize CallKind = "synthesize"
)
