package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stellasia/neo4j-genai-go/internal/config"
	"github.com/stellasia/neo4j-genai-go/internal/graph"
	neo4jgraph "github.com/stellasia/neo4j-genai-go/internal/graph/neo4j"
	"github.com/stellasia/neo4j-genai-go/internal/index"
	"github.com/stellasia/neo4j-genai-go/internal/kgbuilder"
	"github.com/stellasia/neo4j-genai-go/internal/llm"
	"github.com/stellasia/neo4j-genai-go/internal/llm/openai"
	"github.com/stellasia/neo4j-genai-go/internal/observability"
	"github.com/stellasia/neo4j-genai-go/internal/pipeline"
	"github.com/stellasia/neo4j-genai-go/internal/retriever"
	"github.com/stellasia/neo4j-genai-go/internal/vector"
	"github.com/stellasia/neo4j-genai-go/internal/vector/qdrant"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "genai",
		Short: "Neo4j GenAI toolkit: index management, KG construction and retrieval",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/genai.yaml", "Config file path")

	// index commands
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Manage Neo4j vector and fulltext indexes",
	}

	var (
		idxName       string
		idxLabel      string
		idxProperty   string
		idxProperties []string
		idxDimensions int
		idxSimilarity string
	)

	createVectorCmd := &cobra.Command{
		Use:   "create-vector",
		Short: "Create a vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExecutor(configPath, func(ctx context.Context, exec graph.Executor) error {
				err := index.CreateVectorIndex(ctx, exec, idxName, idxLabel, idxProperty,
					idxDimensions, index.SimilarityFunction(idxSimilarity))
				if err != nil {
					return err
				}
				fmt.Printf("Vector index %s created\n", idxName)
				return nil
			})
		},
	}
	createVectorCmd.Flags().StringVar(&idxName, "name", "", "Index name")
	createVectorCmd.Flags().StringVar(&idxLabel, "label", "", "Node label")
	createVectorCmd.Flags().StringVar(&idxProperty, "property", "", "Embedding property")
	createVectorCmd.Flags().IntVar(&idxDimensions, "dimensions", 1536, "Vector dimensions")
	createVectorCmd.Flags().StringVar(&idxSimilarity, "similarity", "cosine", "Similarity function (cosine or euclidean)")
	_ = createVectorCmd.MarkFlagRequired("name")
	_ = createVectorCmd.MarkFlagRequired("label")
	_ = createVectorCmd.MarkFlagRequired("property")

	createFulltextCmd := &cobra.Command{
		Use:   "create-fulltext",
		Short: "Create a fulltext index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExecutor(configPath, func(ctx context.Context, exec graph.Executor) error {
				if err := index.CreateFulltextIndex(ctx, exec, idxName, idxLabel, idxProperties); err != nil {
					return err
				}
				fmt.Printf("Fulltext index %s created\n", idxName)
				return nil
			})
		},
	}
	createFulltextCmd.Flags().StringVar(&idxName, "name", "", "Index name")
	createFulltextCmd.Flags().StringVar(&idxLabel, "label", "", "Node label")
	createFulltextCmd.Flags().StringSliceVar(&idxProperties, "properties", nil, "Indexed properties")
	_ = createFulltextCmd.MarkFlagRequired("name")
	_ = createFulltextCmd.MarkFlagRequired("label")
	_ = createFulltextCmd.MarkFlagRequired("properties")

	dropCmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop an index if it exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExecutor(configPath, func(ctx context.Context, exec graph.Executor) error {
				if err := index.DropIndexIfExists(ctx, exec, idxName); err != nil {
					return err
				}
				fmt.Printf("Index %s dropped (if it existed)\n", idxName)
				return nil
			})
		},
	}
	dropCmd.Flags().StringVar(&idxName, "name", "", "Index name")
	_ = dropCmd.MarkFlagRequired("name")

	indexCmd.AddCommand(createVectorCmd, createFulltextCmd, dropCmd)

	// vector commands
	vectorCmd := &cobra.Command{
		Use:   "vector",
		Short: "Vector property upserts and external store indexing",
	}

	var (
		upsertNodeID   int64
		upsertProperty string
		upsertVector   string
	)
	upsertCmd := &cobra.Command{
		Use:   "upsert",
		Short: "Set a node's embedding property",
		RunE: func(cmd *cobra.Command, args []string) error {
			vec, err := parseVector(upsertVector)
			if err != nil {
				return err
			}
			return withExecutor(configPath, func(ctx context.Context, exec graph.Executor) error {
				if err := index.UpsertVector(ctx, exec, upsertNodeID, upsertProperty, vec); err != nil {
					return err
				}
				fmt.Printf("Vector set on node %d\n", upsertNodeID)
				return nil
			})
		},
	}
	upsertCmd.Flags().Int64Var(&upsertNodeID, "id", 0, "Node id")
	upsertCmd.Flags().StringVar(&upsertProperty, "property", "embedding", "Embedding property name")
	upsertCmd.Flags().StringVar(&upsertVector, "vector", "", "Comma-separated vector values")
	_ = upsertCmd.MarkFlagRequired("vector")

	var indexTextsFile string
	indexTextsCmd := &cobra.Command{
		Use:   "index-texts",
		Short: "Embed texts (one per line) into the external vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			if provider == nil {
				return fmt.Errorf("an LLM provider with embedding support is required")
			}

			data, err := os.ReadFile(indexTextsFile)
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			var texts []string
			for _, line := range strings.Split(string(data), "\n") {
				if line = strings.TrimSpace(line); line != "" {
					texts = append(texts, line)
				}
			}

			ctx := context.Background()
			repo, err := qdrant.New(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
			if err != nil {
				return err
			}
			defer repo.Close()

			embedder := vector.NewEmbedder(provider, repo)
			if err := embedder.IndexTexts(ctx, texts, nil); err != nil {
				return err
			}
			fmt.Printf("Indexed %d texts into %s\n", len(texts), cfg.Vector.Collection)
			return nil
		},
	}
	indexTextsCmd.Flags().StringVar(&indexTextsFile, "input", "", "Path to text file, one chunk per line")
	_ = indexTextsCmd.MarkFlagRequired("input")

	vectorCmd.AddCommand(upsertCmd, indexTextsCmd)

	// kg commands
	kgCmd := &cobra.Command{
		Use:   "kg",
		Short: "Knowledge graph construction",
	}

	var (
		kgText    string
		kgInput   string
		kgSchema  string
		kgPersist bool
	)
	kgBuildCmd := &cobra.Command{
		Use:   "build",
		Short: "Run the KG construction pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKGBuild(configPath, kgText, kgInput, kgSchema, kgPersist)
		},
	}
	kgBuildCmd.Flags().StringVar(&kgText, "text", "", "Input text")
	kgBuildCmd.Flags().StringVar(&kgInput, "input", "", "Input text file (alternative to --text)")
	kgBuildCmd.Flags().StringVar(&kgSchema, "schema", "", "Schema description, e.g. \"Person OWNS House\"")
	kgBuildCmd.Flags().BoolVar(&kgPersist, "persist", false, "Write entities and relations to Neo4j")

	kgCmd.AddCommand(kgBuildCmd)

	// search commands
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Query vector and fulltext indexes",
	}

	var (
		searchIndex string
		searchQuery string
		searchTopK  int
	)
	searchVectorCmd := &cobra.Command{
		Use:   "vector",
		Short: "Similarity search against a vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			return withExecutor(configPath, func(ctx context.Context, exec graph.Executor) error {
				r := retriever.NewVectorRetriever(exec, searchIndex, provider)
				results, err := r.Search(ctx, searchQuery, searchTopK)
				if err != nil {
					return err
				}
				return printResults(results)
			})
		},
	}
	searchFulltextCmd := &cobra.Command{
		Use:   "fulltext",
		Short: "Fulltext search against a fulltext index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withExecutor(configPath, func(ctx context.Context, exec graph.Executor) error {
				r := retriever.NewFulltextRetriever(exec, searchIndex)
				results, err := r.Search(ctx, searchQuery, searchTopK)
				if err != nil {
					return err
				}
				return printResults(results)
			})
		},
	}
	searchExternalCmd := &cobra.Command{
		Use:   "external",
		Short: "Similarity search against the external vector store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			provider, err := buildProvider(cfg)
			if err != nil {
				return err
			}
			if provider == nil {
				return fmt.Errorf("an LLM provider with embedding support is required")
			}

			ctx := context.Background()
			repo, err := qdrant.New(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
			if err != nil {
				return err
			}
			defer repo.Close()

			r := retriever.NewExternalRetriever(repo, provider)
			results, err := r.Search(ctx, searchQuery, searchTopK)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}
	for _, c := range []*cobra.Command{searchVectorCmd, searchFulltextCmd, searchExternalCmd} {
		c.Flags().StringVar(&searchIndex, "index", "", "Index name")
		c.Flags().StringVar(&searchQuery, "query", "", "Query text")
		c.Flags().IntVar(&searchTopK, "top-k", 5, "Number of results")
		_ = c.MarkFlagRequired("query")
	}
	_ = searchVectorCmd.MarkFlagRequired("index")
	_ = searchFulltextCmd.MarkFlagRequired("index")

	searchCmd.AddCommand(searchVectorCmd, searchFulltextCmd, searchExternalCmd)

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List available LLM providers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available LLM providers:")
			fmt.Println()
			for name, url := range llm.KnownProviders {
				fmt.Printf("  %-10s %s\n", name, url)
			}
			fmt.Println("  custom     (set base_url to any OpenAI-compatible endpoint)")
			fmt.Println("  none       (run without LLM, stub extraction only)")
			fmt.Println()
			fmt.Println("Configure in genai.yaml or via environment:")
			fmt.Println("  NEO4J_GENAI_LLM_PROVIDER=openai")
			fmt.Println("  NEO4J_GENAI_LLM_API_KEY=sk-...")
			fmt.Println("  NEO4J_GENAI_LLM_MODEL=gpt-4o-mini")
		},
	}

	rootCmd.AddCommand(indexCmd, vectorCmd, kgCmd, searchCmd, providersCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// withExecutor loads config, initializes tracing, connects to Neo4j and runs
// fn with the executor.
func withExecutor(configPath string, fn func(context.Context, graph.Executor) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "neo4j-genai",
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		SampleRate:   cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer tp.Shutdown(ctx)

	exec, err := neo4jgraph.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
	if err != nil {
		return err
	}
	defer exec.Close(ctx)

	return fn(ctx, exec)
}

func runKGBuild(configPath, text, inputPath, schema string, persist bool) error {
	if text == "" && inputPath == "" {
		return fmt.Errorf("either --text or --input is required")
	}
	if text == "" {
		data, err := os.ReadFile(inputPath)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		text = string(data)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	if provider == nil {
		fmt.Println("Running without LLM (stub extraction)")
	} else {
		fmt.Printf("Using LLM provider: %s\n", provider.Name())
	}

	ctx := context.Background()

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "neo4j-genai",
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		SampleRate:   cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer tp.Shutdown(ctx)

	var writer pipeline.Component
	if persist {
		exec, err := neo4jgraph.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password, cfg.Graph.Database)
		if err != nil {
			return err
		}
		defer exec.Close(ctx)
		writer = &kgbuilder.GraphWriter{Exec: exec}
	}

	p, err := kgbuilder.BuildPipeline(provider, writer)
	if err != nil {
		return err
	}

	outputs, err := p.Run(ctx, map[string]pipeline.Record{
		kgbuilder.ComponentChunker: {kgbuilder.FieldText: text},
		kgbuilder.ComponentSchema:  {kgbuilder.FieldSchema: schema},
	})
	if err != nil {
		return err
	}

	result := outputs[kgbuilder.ComponentWriter]
	entities, _ := result[kgbuilder.FieldEntities].([]kgbuilder.Entity)
	relations, _ := result[kgbuilder.FieldRelations].([]kgbuilder.Entity)
	fmt.Printf("Status: %v\n", result[kgbuilder.FieldStatus])
	fmt.Printf("Entities: %d, Relations: %d\n", len(entities), len(relations))

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func parseVector(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	vec := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parsing vector component %q: %w", p, err)
		}
		vec = append(vec, v)
	}
	return vec, nil
}

func printResults(results []retriever.Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// buildProvider creates the LLM provider via the factory. A nil provider
// (config "none" or empty) is valid for stub extraction and fulltext search.
func buildProvider(cfg *config.Config) (llm.Provider, error) {
	factory := llm.NewFactory()
	factory.Register("openai", func(c llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(c.APIKey, c.Model, c.BaseURL, c.EmbedModel), nil
	})
	// All OpenAI-compatible providers
	for _, p := range []struct{ name, url string }{
		{"groq", llm.KnownProviders["groq"]},
		{"ollama", llm.KnownProviders["ollama"]},
		{"together", llm.KnownProviders["together"]},
		{"deepseek", llm.KnownProviders["deepseek"]},
		{"custom", ""},
	} {
		p := p
		factory.Register(p.name, func(c llm.ProviderConfig) (llm.Provider, error) {
			base := c.BaseURL
			if base == "" {
				base = p.url
			}
			return openai.New(c.APIKey, c.Model, base, c.EmbedModel), nil
		})
	}

	return factory.Create(llm.ProviderConfig{
		Provider:   cfg.LLM.Provider,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		BaseURL:    cfg.LLM.BaseURL,
		EmbedModel: cfg.LLM.EmbedModel,
	})
}
