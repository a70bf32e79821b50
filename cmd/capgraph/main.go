package main

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Casys-AI/capgraph/internal/datasource"
	"github.com/Casys-AI/capgraph/pkg/config"
	"github.com/Casys-AI/capgraph/pkg/debug"
	"github.com/Casys-AI/capgraph/pkg/engine"
	"github.com/Casys-AI/capgraph/pkg/export"
	"github.com/Casys-AI/capgraph/pkg/hull"
	"github.com/Casys-AI/capgraph/pkg/layout"
	"github.com/Casys-AI/capgraph/pkg/metrics"
	"github.com/Casys-AI/capgraph/pkg/version"
	"github.com/Casys-AI/capgraph/pkg/watcher"
)

func main() {
	input := flag.String("input", "", "Snapshot file or directory to load (JSON or SQLite)")
	out := flag.String("out", "capgraph.svg", "Output path (extension dropped when multiple formats)")
	format := flag.String("format", "", "Export formats, comma-separated: svg, png, json")
	tension := flag.Float64("tension", -1, "Edge bundling tension (0-1, -1 = config default)")
	search := flag.String("search", "", "Fuzzy-search capabilities and tools, print ranked matches")
	neighbors := flag.String("neighbors", "", "Print the neighborhood of a node ID")
	depth := flag.Int("depth", 0, "Neighborhood expansion depth in hops (0 = config default)")
	watch := flag.Bool("watch", false, "Re-export whenever the input file changes")
	check := flag.Bool("check", false, "Cross-check all discovered snapshot sources for consistency")
	cpuProfile := flag.String("profile", "", "Write CPU profile to file")
	timings := flag.Bool("timings", false, "Print per-stage timing stats after the run")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *help {
		fmt.Println("Usage: capgraph [options]")
		fmt.Println("\nA layout engine for capability/tool hypergraph dashboards.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("capgraph %s\n", version.Version)
		os.Exit(0)
	}

	// CPU profiling support
	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}

	inputPath := *input
	if inputPath == "" {
		inputPath = cfg.Input
	}
	if inputPath == "" {
		inputPath = "."
	}

	if *tension < 0 {
		*tension = cfg.Layout.Tension
	}
	if *depth <= 0 {
		*depth = cfg.Neighborhood.DefaultDepth
	}
	if cfg.Neighborhood.MaxDepth > 0 && *depth > cfg.Neighborhood.MaxDepth {
		*depth = cfg.Neighborhood.MaxDepth
	}

	if *check {
		if err := runCheck(inputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	gen, err := loadGeneration(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *timings {
		defer reportTimings()
	}

	if *search != "" {
		runSearch(gen, *search)
		return
	}

	if *neighbors != "" {
		runNeighbors(gen, *neighbors, *depth)
		return
	}

	formats := exportFormats(*format, *out, cfg)
	opts := layoutOptions(cfg)

	if err := runExport(gen, inputPath, *out, formats, opts, *tension); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *watch {
		debounce := time.Duration(cfg.Watcher.DebounceMs) * time.Millisecond
		watchAndExport(inputPath, *out, formats, opts, *tension, debounce)
	}
}

// loadGeneration loads the snapshot and builds a derived generation from it.
func loadGeneration(inputPath string) (*engine.Generation, error) {
	snap, err := datasource.LoadSnapshot(inputPath)
	if err != nil {
		return nil, err
	}
	debug.Log("loaded %d nodes, %d edges from %s", len(snap.Nodes), len(snap.Edges), inputPath)
	return engine.NewGeneration(snap), nil
}

// runCheck compares every valid snapshot source in the input directory
// pairwise and prints the inconsistencies.
func runCheck(inputPath string) error {
	dir := inputPath
	if info, err := os.Stat(inputPath); err == nil && !info.IsDir() {
		dir = filepath.Dir(inputPath)
	}

	sources, err := datasource.DiscoverSources(datasource.DiscoveryOptions{
		Dir:                    dir,
		ValidateAfterDiscovery: true,
	})
	if err != nil {
		return err
	}
	if len(sources) < 2 {
		fmt.Println("Nothing to compare: fewer than two valid sources.")
		return nil
	}

	diffs, err := datasource.CheckAllSourcesConsistent(sources, datasource.DefaultDiffOptions())
	if err != nil {
		return err
	}
	if len(diffs) == 0 {
		fmt.Printf("All %d sources are consistent.\n", len(sources))
		return nil
	}
	for _, d := range diffs {
		fmt.Println(d.Summary())
	}
	return fmt.Errorf("%d inconsistent source pair(s)", len(diffs))
}

func runSearch(gen *engine.Generation, query string) {
	matches := gen.Search(query)
	if len(matches) == 0 {
		fmt.Println("No matches.")
		return
	}
	for _, m := range matches {
		fmt.Printf("%.2f  %s\n", m.Score, m.ID)
	}
}

func runNeighbors(gen *engine.Generation, id string, depth int) {
	result := gen.Neighborhood(id, depth)
	ids := result.NodeIDs()
	if len(ids) == 0 {
		fmt.Printf("No neighbors within %d hops of %s.\n", depth, id)
		return
	}
	for _, nid := range ids {
		fmt.Println(nid)
	}
}

// exportFormats resolves the requested formats, falling back to the output
// extension and then the configured default.
func exportFormats(format, out string, cfg config.Config) []string {
	if format == "" {
		if ext := strings.TrimPrefix(filepath.Ext(out), "."); ext != "" {
			format = ext
		} else {
			format = cfg.Export.Format
		}
	}
	var formats []string
	for _, f := range strings.Split(format, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

func layoutOptions(cfg config.Config) layout.Options {
	opts := layout.Options{
		Width:            cfg.Layout.Width,
		Height:           cfg.Layout.Height,
		InnerRadiusRatio: cfg.Layout.InnerRadiusRatio,
		OuterRadiusRatio: cfg.Layout.OuterRadiusRatio,
	}
	return opts
}

// runExport renders the radial layout in each requested format, in parallel.
func runExport(gen *engine.Generation, inputPath, out string, formats []string, opts layout.Options, tension float64) error {
	l := gen.RadialLayout(opts, tension)
	outlines := gen.ClusterOutlines(l, hull.DefaultPadding, true)
	hash := inputHash(inputPath)

	base := strings.TrimSuffix(out, filepath.Ext(out))

	var g errgroup.Group
	for _, f := range formats {
		path := out
		if len(formats) > 1 || !strings.EqualFold(strings.TrimPrefix(filepath.Ext(out), "."), f) {
			path = base + "." + f
		}
		f, path := f, path
		g.Go(func() error {
			return export.SaveRadialSnapshot(export.RadialSnapshotOptions{
				Path:     path,
				Format:   f,
				Layout:   l,
				Outlines: outlines,
				DataHash: hash,
			})
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, f := range formats {
		path := out
		if len(formats) > 1 || !strings.EqualFold(strings.TrimPrefix(filepath.Ext(out), "."), f) {
			path = base + "." + f
		}
		fmt.Printf("Wrote %s\n", path)
	}
	return nil
}

// watchAndExport blocks, re-exporting on every change to the input until
// interrupted.
func watchAndExport(inputPath, out string, formats []string, opts layout.Options, tension float64, debounce time.Duration) {
	w, err := watcher.NewWatcher(inputPath, watcher.WithDebounceDuration(debounce))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := w.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer w.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", inputPath)
	for {
		select {
		case <-w.Changed():
			gen, err := loadGeneration(inputPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Reload failed: %v\n", err)
				continue
			}
			if err := runExport(gen, inputPath, out, formats, opts, tension); err != nil {
				fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
			}
		case <-sig:
			return
		}
	}
}

// reportTimings prints the accumulated per-stage timing stats to stderr.
func reportTimings() {
	stats := metrics.AllTimingStats()
	if len(stats) == 0 {
		return
	}
	fmt.Fprintln(os.Stderr, "Stage timings:")
	for _, s := range stats {
		fmt.Fprintf(os.Stderr, "  %-18s n=%-4d total=%.1fms avg=%.2fms max=%.2fms\n",
			s.Name, s.Count, s.TotalMs, s.AvgMs, s.MaxMs)
	}
}

// inputHash fingerprints the input file for provenance in exports.
func inputHash(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum[:8])
}
