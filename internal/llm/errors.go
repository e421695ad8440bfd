package llm

import "errors"

var (
	errProvidersDisabled = errors.New("llm providers disabled in configuration")
	errNoAPIKey          = errors.New("no API key configured for provider")
)
