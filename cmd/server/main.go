// Package main provides the entry point for the knowledge graph question
// answering service.
//
// The server loads its YAML configuration, wires the knowledge graph
// (Neo4j plus a chromem-go vector store), the LLM provider registry, the
// five-stage retrieval pipeline, the evaluation critic, and the prompt
// optimizer, then serves the HTTP API described by internal/server/httpapi
// until it receives an interrupt or terminate signal.
//
// Environment variables:
//   - See internal/config for the full list (KGQA_*, NEO4J_*, VOYAGE_API_KEY,
//     TAVILY_API_KEY, and the provider API key env vars named in
//     config/providers.yaml).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"unified-thinking/internal/config"
	"unified-thinking/internal/critic"
	"unified-thinking/internal/embeddings"
	"unified-thinking/internal/knowledge"
	"unified-thinking/internal/llm"
	"unified-thinking/internal/optimizer"
	"unified-thinking/internal/pipeline"
	"unified-thinking/internal/server/httpapi"
	"unified-thinking/internal/websearch"
)

func main() {
	if os.Getenv("DEBUG") == "true" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		log.Println("Starting knowledge graph QA server in debug mode...")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Loaded configuration: environment=%s", cfg.Server.Environment)

	appCtx, err := config.NewAppContext(cfg)
	if err != nil {
		log.Fatalf("Failed to load app context: %v", err)
	}
	log.Println("Loaded providers.yaml, intents.yaml, cypher_templates.yaml, evaluation_criteria.yaml")

	kg, err := newKnowledgeGraph(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize knowledge graph: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kg.Close(ctx); err != nil {
			log.Printf("Warning: failed to close knowledge graph: %v", err)
		}
	}()
	log.Println("Initialized knowledge graph (Neo4j + chromem-go)")

	llmRegistry, err := llm.NewRegistry(appCtx.Providers)
	if err != nil {
		log.Fatalf("Failed to initialize LLM registry: %v", err)
	}
	log.Printf("Initialized LLM registry (available=%v)", llmRegistry.Available())

	promptRegistry := optimizer.NewRegistry(kg, cfg.Paths.PromptsDir)
	prompts := llm.NewPromptResolver(promptRegistry)

	webClient := websearch.NewClient(os.Getenv("TAVILY_API_KEY"))
	log.Printf("Web search available=%v", webClient.Available())

	pl := pipeline.New(pipeline.Config{
		AppCtx:      appCtx,
		KG:          kg,
		LLMRegistry: llmRegistry,
		Prompts:     prompts,
		WebSearch:   webClient,
	})
	log.Println("Assembled retrieval pipeline: intent, plan, retrieve, expand, synthesize")

	evaluator := critic.NewEvaluator(appCtx, llmRegistry, prompts, kg)

	analyzer := optimizer.NewFailureAnalyzer(kg, llmRegistry, cfg.Critic.MinCompositeScore, 2)
	generator := optimizer.NewVariantGenerator(promptRegistry, llmRegistry, prompts)
	testQueriesPath := os.Getenv("KGQA_TEST_QUERIES_PATH")
	if testQueriesPath == "" {
		testQueriesPath = "config/test_queries.yaml"
	}
	testRunner := optimizer.NewTestRunner(pl, prompts, evaluator, testQueriesPath)

	srv := httpapi.NewServer(cfg.Server.HTTPAddr, &httpapi.Deps{
		AppCtx:      appCtx,
		KG:          kg,
		Pipeline:    pl,
		Evaluator:   evaluator,
		Analyzer:    analyzer,
		Generator:   generator,
		Runner:      testRunner,
		Prompts:     promptRegistry,
		LLMRegistry: llmRegistry,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfg.Server.HTTPAddr)
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-sigCh:
		log.Printf("Received %s, shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Warning: graceful shutdown failed: %v", err)
		}
	}
}

// newKnowledgeGraph wires Neo4j connection settings from the environment
// (knowledge.DefaultConfig) together with a persistent chromem-go vector
// store and whichever embedder has credentials available: Voyage AI when
// VOYAGE_API_KEY is set, otherwise a deterministic mock embedder so the
// service still starts (with degraded semantic search) in dev/test
// environments.
func newKnowledgeGraph(cfg *config.Config) (*knowledge.KnowledgeGraph, error) {
	var embedder embeddings.Embedder
	if apiKey := os.Getenv("VOYAGE_API_KEY"); apiKey != "" {
		embedder = embeddings.NewVoyageEmbedder(apiKey, "voyage-3")
	} else {
		log.Println("VOYAGE_API_KEY not set, falling back to mock embedder")
		embedder = embeddings.NewMockEmbedder(1024)
	}

	kg, err := knowledge.NewKnowledgeGraph(knowledge.KnowledgeGraphConfig{
		Neo4jConfig: knowledge.DefaultConfig(),
		VectorConfig: knowledge.VectorStoreConfig{
			PersistPath: cfg.Vector.PersistPath,
			Embedder:    embedder,
		},
	})
	if err != nil {
		return nil, err
	}

	if apiKey := os.Getenv("VOYAGE_API_KEY"); apiKey != "" {
		kg.SetReranker(embeddings.NewVoyageReranker(apiKey, "rerank-2"))
	}

	return kg, nil
}
