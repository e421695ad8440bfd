// Package apperrors defines the error taxonomy shared across the retrieval
// pipeline, the critic, and the prompt optimizer.
package apperrors

import "fmt"

// ConfigurationError indicates a malformed or missing configuration value.
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error (%s): %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ProviderUnavailable indicates an LLM or embedding provider could not be
// reached or returned a non-recoverable error.
type ProviderUnavailable struct {
	Provider string
	Err      error
}

func (e *ProviderUnavailable) Error() string {
	return fmt.Sprintf("provider %q unavailable: %v", e.Provider, e.Err)
}

func (e *ProviderUnavailable) Unwrap() error { return e.Err }

// RetrievalError indicates the graph or vector retrieval step failed.
type RetrievalError struct {
	Stage string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed at %s: %v", e.Stage, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// SynthesisError indicates answer synthesis failed.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string { return fmt.Sprintf("synthesis failed: %v", e.Err) }
func (e *SynthesisError) Unwrap() error { return e.Err }

// EvaluationError indicates the critic could not score a pipeline run.
type EvaluationError struct {
	Criterion string
	Err       error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluation failed for %s: %v", e.Criterion, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// RegistryInvariantError indicates the prompt registry's invariants were
// about to be violated (single active version, missing parent, duplicate
// content hash). Unlike every other error in this taxonomy, callers are
// expected to abort the surrounding operation rather than degrade it into
// a context-level error string.
type RegistryInvariantError struct {
	Agent string
	Msg   string
}

func (e *RegistryInvariantError) Error() string {
	return fmt.Sprintf("registry invariant violated for agent %q: %s", e.Agent, e.Msg)
}

// ValidationError indicates a malformed request at the HTTP boundary.
// Callers map this to a 4xx response.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Msg)
}
