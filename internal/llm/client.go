package llm

import "context"

// Client is a single LLM provider, bound to one model. Registry holds one
// Client per configured provider entry and routes calls between them.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}
