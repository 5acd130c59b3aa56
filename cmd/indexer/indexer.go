package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"trip-planner-rag/internal/app"
	"trip-planner-rag/internal/config"
	"trip-planner-rag/internal/index"
	"trip-planner-rag/internal/logger"
	"trip-planner-rag/internal/models"
)

var (
	log *logrus.Logger

	cfgFile       string
	kbDir         string
	indexLocation string
	chunkSize     int
	chunkOverlap  int
	maxConcurrent int
)

var cmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build the trip planner vector index from the knowledge base folder",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd)
	},
	SilenceUsage: true,
}

func init() {
	cmd.Flags().StringVar(&cfgFile, "config", "", "config file (default config.yaml)")
	cmd.Flags().StringVar(&kbDir, "kb", "", "knowledge base folder")
	cmd.Flags().StringVar(&indexLocation, "index", "", "index file path or postgres:// URL")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "character size for text chunks")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 0, "character overlap between chunks")
	cmd.Flags().IntVar(&maxConcurrent, "max-concurrent", 0, "maximum concurrent embedding requests")
}

func main() {
	log = logger.GetLogger()

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("kb") {
		cfg.KnowledgeBase.Dir = kbDir
	}
	if flags.Changed("index") {
		cfg.Index.Location = indexLocation
	}
	if flags.Changed("chunk-size") {
		cfg.Chunk.Size = chunkSize
	}
	if flags.Changed("chunk-overlap") {
		cfg.Chunk.Overlap = chunkOverlap
	}
	if flags.Changed("max-concurrent") {
		cfg.Embedding.MaxConcurrent = maxConcurrent
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := logger.SetLogLevel(cfg.Log.Level); err != nil {
		return err
	}
	if err := logger.SetLogFile(cfg.Log.File); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infof("Knowledge base: %s", cfg.KnowledgeBase.Dir)
	log.Infof("Index location: %s", cfg.Index.Location)
	log.Infof("Embedding: %s/%s, max concurrent requests: %d", cfg.Embedding.Provider, cfg.Embedding.Model, cfg.Embedding.MaxConcurrent)

	embedder, err := app.NewEmbedder(cfg)
	if err != nil {
		return err
	}

	builder, closeStore, err := app.NewBuilder(ctx, cfg, embedder, log)
	if err != nil {
		return err
	}
	defer closeStore()

	exists, err := builder.Store.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		log.Infof("Vector store already exists at %s, skipping creation", cfg.Index.Location)
		return nil
	}

	startTime := time.Now()
	idx, chunks, err := app.BuildFromFolder(ctx, cfg, builder, log)
	if errors.Is(err, index.ErrNoChunks) {
		log.Error("No documents were loaded. The vector store was not created.")
		return err
	}
	if err != nil {
		return err
	}

	log.Infof("Completed indexing of %d chunks in %v", idx.Len(), time.Since(startTime).Round(time.Millisecond))
	printChunkStatistics(chunks)

	return nil
}

// printChunkStatistics prints statistics about the indexed chunks
func printChunkStatistics(chunks []models.Chunk) {
	if len(chunks) == 0 {
		return
	}

	var totalLength int
	sourceMap := make(map[string]int)
	for _, chunk := range chunks {
		totalLength += utf8.RuneCountInString(chunk.Text)
		sourceMap[chunk.Source]++
	}

	sources := make([]string, 0, len(sourceMap))
	for source := range sourceMap {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	log.Printf("Chunk Statistics:")
	log.Printf("  Total chunks: %d", len(chunks))
	log.Printf("  Average chunk length: %.1f characters", float64(totalLength)/float64(len(chunks)))
	log.Printf("  Number of documents: %d", len(sources))

	log.Println("  Document breakdown:")
	for _, source := range sources {
		log.Printf("    %s: %d chunks", source, sourceMap[source])
	}
}
