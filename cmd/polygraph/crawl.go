package main

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"polygraph/internal/pipeline"
	"polygraph/pkg/export"
	"polygraph/pkg/graph"
	"polygraph/pkg/logger"
)

var crawlFlags struct {
	seeds      []string
	categories []string
	modes      []string
	depth      int
	maxNodes   int
	maxEdges   int
	rate       float64
	cachePath  string
	officials  bool
	outDir     string
	resume     bool
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl relations outward from seed entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := pipeline.Crawl(cmd.Context(), pipeline.CrawlOptions{
			Seeds:             crawlFlags.seeds,
			Categories:        crawlFlags.categories,
			Modes:             crawlFlags.modes,
			MaxDepth:          crawlFlags.depth,
			MaxNodes:          crawlFlags.maxNodes,
			MaxEdges:          crawlFlags.maxEdges,
			RequestsPerSecond: crawlFlags.rate,
			CachePath:         crawlFlags.cachePath,
			Officials:         crawlFlags.officials,
		})
		if err != nil {
			return err
		}

		g := result.Graph
		if crawlFlags.resume {
			prior, err := loadPrior(crawlFlags.outDir)
			if err != nil {
				return err
			}
			if prior != nil {
				if err := prior.Merge(g); err != nil {
					return err
				}
				g = prior
				logger.Info("Merged crawl into existing snapshot",
					"nodes", g.NodeCount(), "edges", g.EdgeCount())
			}
		}

		if _, err := export.Export(g, crawlFlags.outDir); err != nil {
			return err
		}
		result.Stats.Log()
		return export.ExportStats(result.Stats, crawlFlags.outDir)
	},
}

// loadPrior reads the previous snapshot from the output directory, if one
// exists there.
func loadPrior(dir string) (*graph.Graph, error) {
	if _, err := os.Stat(filepath.Join(dir, export.NodesFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return export.Load(dir)
}

func init() {
	flags := crawlCmd.Flags()
	flags.StringArrayVar(&crawlFlags.seeds, "seed", nil, "seed entity id or display name (repeatable)")
	flags.StringArrayVar(&crawlFlags.categories, "category", nil, "seed category title (repeatable)")
	flags.StringSliceVar(&crawlFlags.modes, "modes", nil, "relation categories to follow (family,political,security,corporate)")
	flags.IntVar(&crawlFlags.depth, "depth", 2, "maximum expansion depth")
	flags.IntVar(&crawlFlags.maxNodes, "max-nodes", 0, "stop expanding once the graph holds this many nodes (0 = unlimited)")
	flags.IntVar(&crawlFlags.maxEdges, "max-edges", 0, "stop expanding once the graph holds this many edges (0 = unlimited)")
	flags.Float64Var(&crawlFlags.rate, "rate", 0, "outbound requests per second (0 = default)")
	flags.StringVar(&crawlFlags.cachePath, "cache", "", "sqlite response cache file")
	flags.BoolVar(&crawlFlags.officials, "officials", true, "reconcile against the official government roster")
	flags.StringVar(&crawlFlags.outDir, "out", "out", "output directory for the snapshot artifacts")
	flags.BoolVar(&crawlFlags.resume, "resume", false, "merge into the snapshot already present in the output directory")
	rootCmd.AddCommand(crawlCmd)
}
