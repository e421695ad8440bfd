package config

import (
	"fmt"
	"path/filepath"
	"sync"
)

// AppContext aggregates every YAML-derived configuration object the rest
// of the application needs, loaded once at startup and handed down
// explicitly through constructors rather than read from package-level
// globals. It replaces the module-level singleton pattern of the system
// this was modeled on with one long-lived value threaded through the call
// graph.
type AppContext struct {
	Config          *Config
	Providers       *ProvidersConfig
	Intents         *IntentsConfig
	CypherTemplates *CypherTemplatesConfig
	Criteria        *CriteriaConfig

	mu sync.RWMutex
}

// NewAppContext loads every YAML config file under cfg.Paths.ConfigDir and
// returns the assembled context. Each file is required; a missing or
// malformed file aborts startup rather than degrading silently.
func NewAppContext(cfg *Config) (*AppContext, error) {
	dir := cfg.Paths.ConfigDir

	providers, err := LoadProviders(filepath.Join(dir, "providers.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load providers.yaml: %w", err)
	}

	intents, err := LoadIntents(filepath.Join(dir, "intents.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load intents.yaml: %w", err)
	}

	templates, err := LoadCypherTemplates(filepath.Join(dir, "cypher_templates.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load cypher_templates.yaml: %w", err)
	}

	criteria, err := LoadCriteria(filepath.Join(dir, "evaluation_criteria.yaml"))
	if err != nil {
		return nil, fmt.Errorf("load evaluation_criteria.yaml: %w", err)
	}

	return &AppContext{
		Config:          cfg,
		Providers:       providers,
		Intents:         intents,
		CypherTemplates: templates,
		Criteria:        criteria,
	}, nil
}

// ReloadIntents re-reads intents.yaml in place, the escape hatch a
// force_reload request uses to pick up an edited entity catalog without a
// process restart.
func (a *AppContext) ReloadIntents() error {
	dir := a.Config.Paths.ConfigDir
	intents, err := LoadIntents(filepath.Join(dir, "intents.yaml"))
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.Intents = intents
	a.mu.Unlock()
	return nil
}

// CurrentIntents returns the active intents config under a read lock, safe
// to call while a reload is racing.
func (a *AppContext) CurrentIntents() *IntentsConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.Intents
}
