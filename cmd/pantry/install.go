package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	flag "github.com/spf13/pflag"

	"github.com/home-lang/pantry-sub012/pkg/checkpoint"
	"github.com/home-lang/pantry-sub012/pkg/depsfile"
	"github.com/home-lang/pantry-sub012/pkg/envlayout"
	"github.com/home-lang/pantry-sub012/pkg/installer"
	"github.com/home-lang/pantry-sub012/pkg/lifecycle"
	"github.com/home-lang/pantry-sub012/pkg/local"
	"github.com/home-lang/pantry-sub012/pkg/lockfile"
	"github.com/home-lang/pantry-sub012/pkg/metrics"
	"github.com/home-lang/pantry-sub012/pkg/orchestrator"
	"github.com/home-lang/pantry-sub012/pkg/resolver"
	"github.com/home-lang/pantry-sub012/pkg/workspace"
)

// runInstall parses `pantry install`'s flags, locates the project root
// (§4.10 Init: "the directory of the nearest deps file or cwd if none"),
// wires every collaborator, and runs the Orchestrator.
func runInstall(args []string) error {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	global := fs.BoolP("global", "g", false, "operate against the user-global environment")
	force := fs.BoolP("force", "f", false, "bypass the fast path and the Skip Oracle")
	dev := fs.Bool("dev", false, "include devDependencies")
	production := fs.Bool("production", false, "install only normal dependencies")
	peer := fs.Bool("peer", false, "include peerDependencies")
	ignoreScripts := fs.Bool("ignore-scripts", false, "skip every lifecycle script")
	offline := fs.Bool("offline", false, "install only from the local download cache")
	filterExpr := fs.String("filter", "", "comma-separated include/exclude patterns")
	since := fs.String("since", "", "in a workspace, install only members changed since this git ref")
	_ = fs.String("linker", "", "reserved for a future alternate linking strategy")
	metricsAddr := fs.String("metrics-addr", "", "address to serve Prometheus /metrics on")
	verbose := fs.BoolP("verbose", "v", false, "log resolution and lifecycle detail to stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logLevel := slog.LevelWarn
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	projectDir, depsPath, df, err := loadProject(cwd)
	if err != nil {
		return err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}

	hashSource := projectDir
	if depsPath != "" {
		hashSource = depsPath
	}
	layout := envlayout.New(projectDir, hashSource, homeDir)
	if *global {
		layout.PantryDir = layout.UserEnvDir
		layout.BinDir = layout.UserBinDir
	}

	var m *metrics.Metrics
	if *metricsAddr != "" {
		m = metrics.New()
		m.ServeHTTP(*metricsAddr, func(err error) {
			logger.Warn("metrics server stopped", "err", err)
		})
	}

	cpStore, err := checkpoint.Open(projectDir)
	if err != nil {
		return err
	}
	defer cpStore.Close()

	gate := lifecycle.New(df.TrustedDependencies, logger)
	materializer := local.New(filepath.Join(homeDir, ".pantry", "links"), logger)

	npmClient := newNPMRegistry()
	s3Client := newS3Catalog()
	res := resolver.New(builtinRegistry{}, s3Client, npmClient)

	cache := newDiskCache(filepath.Join(homeDir, ".pantry", "cache"))
	inst := &installer.Installer{
		Cache:     cache,
		Extractor: tarGzExtractor{},
		Gate:      gate,
		Offline:   *offline,
	}

	o := &orchestrator.Orchestrator{
		ProjectDir:   projectDir,
		Layout:       layout,
		DepsFile:     df,
		Resolver:     res,
		Installer:    inst,
		Gate:         gate,
		Materializer: materializer,
		Checkpoint:   cpStore,
		LockStore:    lockfile.Store{},
		Metrics:      m,
		Logger:       logger,
		ShowProgress: !*verbose,
	}

	opts := orchestrator.Options{
		Force:           *force,
		Offline:         *offline,
		IncludeDev:      *dev && !*production,
		IncludePeer:     *peer && !*production,
		Filter:          workspace.ParseFilter(*filterExpr),
		IgnoreScripts:   *ignoreScripts,
		ChangedSinceRef: *since,
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		// Cancelling ctx aborts the in-flight registry requests, downloads
		// and lifecycle scripts that were given it. Run does not stop early:
		// it still goes through the remaining tasks and returns a summary,
		// and successes already recorded in the checkpoint are skipped on
		// the next run.
		cancel()
	}()
	defer signal.Stop(sigCh)

	start := time.Now()
	summary, err := o.Run(ctx, opts)
	if err != nil {
		return err
	}
	printSummary(summary, time.Since(start))
	return nil
}

// loadProject walks up from startDir to find the nearest deps file,
// returning the project root, the deps file path (empty if none, per §3's
// deps-hash fallback), and a parsed DepsFile (an empty one if no file was
// found and no config loader match was configured, since ConfigMissing's
// handling belongs to the external config loader named out of scope by
// spec.md §1).
func loadProject(startDir string) (projectDir, depsPath string, df *depsfile.DepsFile, err error) {
	dir := startDir
	for {
		if path, ok := depsfile.Locate(dir); ok {
			loaded, err := depsfile.Load(path)
			if err != nil {
				return "", "", nil, err
			}
			return dir, path, loaded, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return startDir, "", &depsfile.DepsFile{}, nil
}

func printSummary(s *orchestrator.Summary, elapsed time.Duration) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	if s.UpToDate {
		word := "packages"
		if s.SkippedCount == 1 {
			word = "package"
		}
		green.Printf("up to date %d %s", s.SkippedCount, word)
		fmt.Printf(" (%dms)\n", s.ElapsedMS)
		return
	}

	if s.Installed > 0 {
		green.Printf("%d installed", s.Installed)
		fmt.Print(" ")
	}
	if s.Failed > 0 {
		red.Printf("%d failed", s.Failed)
		fmt.Println()
		for _, f := range s.Failures {
			red.Printf("  %s\n", f)
		}
	} else {
		fmt.Println()
	}
	fmt.Printf("done in %dms\n", elapsed.Milliseconds())
}
