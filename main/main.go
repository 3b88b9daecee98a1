// Command wdbx inspects, checks and rewrites WDBC, WDB2, WDB5 and WDB6 table files.
//
//	wdbx [flags] info|dump|check|resave file...
//
// Field definitions are YAML files in the definitions directory. Settings are read from
// wdbx.toml in the working directory when present; flags override them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ryogrid/wdbx/catalog"
	"github.com/ryogrid/wdbx/common"
	"github.com/ryogrid/wdbx/wdbx"
)

func main() {
	if err := mainImpl(os.Args[1:], os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "wdbx: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("wdbx", flag.ContinueOnError)
	configPath := fs.String("config", defaultConfigFile, "Configuration file (TOML)")
	defs := fs.String("defs", "", "Directory of field definition files")
	build := fs.Uint("build", 0, "Client build the files belong to; 0 uses the build in the header")
	logLevel := fs.String("log-level", "", "Log level (trace, debug, info, warn, error)")
	outDir := fs.String("out", "", "Output directory for resave")
	parallel := fs.Int("j", 0, "Number of files processed at once")
	dupStrings := fs.String("dup-strings", "", "String interning on save (auto, allow, deny)")
	noCopy := fs.Bool("no-copy", false, "Write every row in full instead of using the copy block")
	debug := fs.Bool("debug", false, "Detect latch misuse and dump stacks on failed assertions")
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	cfg, err := loadConfig(*configPath, set["config"])
	if err != nil {
		return err
	}
	if set["defs"] {
		cfg.Definitions = *defs
	}
	if set["build"] {
		cfg.Build = uint32(*build)
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevel
	}
	if set["out"] {
		cfg.OutputDir = *outDir
	}
	if set["j"] {
		cfg.Parallelism = *parallel
	}
	if set["dup-strings"] {
		cfg.DuplicateStrings = *dupStrings
	}
	if set["no-copy"] {
		cfg.NoCopyCompaction = *noCopy
	}
	if set["debug"] {
		cfg.Debug = *debug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	kinds, level, _ := parseLogLevel(cfg.LogLevel)
	common.LogLevelSetting = kinds
	common.SetLogger(common.NewLogger(os.Stderr, level))
	common.SetDebug(cfg.Debug)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: wdbx [flags] info|dump|check|resave file...")
	}
	cmd, paths := fs.Arg(0), fs.Args()[1:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cat *catalog.Catalog
	if cmd == "info" {
		cat = catalog.NewCatalog()
	} else if cat, err = catalog.LoadCatalog(cfg.Definitions); err != nil {
		return err
	}
	wi := wdbx.NewWdbxInstance(cat)
	defer wi.Shutdown()
	ws := wdbx.NewWorkspace(wi)
	ws.SetParallelism(cfg.Parallelism)
	opts, _ := cfg.SaveOptions()
	ws.SetSaveOptions(opts)

	switch cmd {
	case "info":
		return runInfo(ws, stdout, paths)
	case "dump":
		return runDump(ws, stdout, paths, cfg.Build)
	case "check":
		return runCheck(ctx, ws, stdout, paths, cfg.Build)
	case "resave":
		return runResave(ctx, ws, stdout, paths, cfg.Build, cfg.OutputDir)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
