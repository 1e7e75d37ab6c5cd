package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"podcast-insights-go/internal/config"
	"podcast-insights-go/internal/graph"
	"podcast-insights-go/internal/graph/source"
	"podcast-insights-go/internal/graph/visnet"
	"podcast-insights-go/internal/logger"
)

type graphFlags struct {
	input  string
	format string
	output string
}

func newGraphCommand(ctx *commandContext) *cobra.Command {
	var flags graphFlags
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render extracted knowledge-graph documents as an interactive HTML page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if flags.input != "" {
				cfg.Graph.Input = flags.input
			}
			if flags.format != "" {
				cfg.Graph.Format = strings.ToLower(strings.TrimSpace(flags.format))
			}
			if flags.output != "" {
				cfg.Graph.Output = flags.output
			}
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return runGraph(runCtx, cfg, ctx.logger(cfg), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Graph documents file (.json or .xlsx)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Source format: auto, json, xlsx or neo4j")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "HTML file to write")
	return cmd
}

// openSource returns the configured loader and a close func for it.
func openSource(ctx context.Context, cfg *config.Config, log *logger.Logger) (source.Loader, func(), error) {
	format, err := source.ParseFormat(cfg.Graph.Format)
	if err != nil {
		return nil, nil, err
	}
	if format != source.FormatNeo4j {
		l, err := source.FileLoader(format, cfg.Graph.Input)
		return l, func() {}, err
	}
	nc := source.Neo4jConfigFromEnv(source.Neo4jConfig{
		URI:      cfg.Neo4j.URI,
		User:     cfg.Neo4j.User,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
		Timeout:  time.Duration(cfg.Neo4j.TimeoutSeconds) * time.Second,
		MaxPool:  cfg.Neo4j.MaxPoolSize,
		Limit:    cfg.Neo4j.Limit,
	})
	client, err := source.NewNeo4j(ctx, nc, log)
	if err != nil {
		return nil, nil, err
	}
	return client, func() { _ = client.Close(context.Background()) }, nil
}

func runGraph(ctx context.Context, cfg *config.Config, log *logger.Logger, out io.Writer) error {
	log = log.With("graph_input", cfg.Graph.Input).With("graph_format", cfg.Graph.Format)

	loader, closeSource, err := openSource(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open graph source: %w", err)
	}
	defer closeSource()

	docs, err := loader.Load(ctx)
	if err != nil {
		log.WithError(err).Error("error loading graph documents")
		return fmt.Errorf("load graph documents: %w", err)
	}

	art, err := graph.Visualize(docs, visnet.New(visnet.DefaultOptions()), cfg.Graph.Output, log)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderGraphTable(art))
	return nil
}

func renderGraphTable(art graph.Artifact) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendRows([]table.Row{
		{"output", art.Path},
		{"nodes", art.Nodes},
		{"edges", art.Edges},
		{"dropped relationships", art.Stats.Dropped},
		{"skipped items", art.Skipped},
	})
	if top := art.Stats.TopTypes(3); len(top) > 0 {
		tw.AppendRow(table.Row{"top node types", strings.Join(top, ", ")})
	}
	return tw.Render()
}
