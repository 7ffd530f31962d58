package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/tinyrange/jsc/internal/build"
	"github.com/tinyrange/jsc/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "jsc: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Project file (default: ./"+config.Filename+" if present)")
	outDir := flag.String("out-dir", "", "Output directory for generated sources and build files")
	target := flag.String("target", "", "Build target (node-lib, node-program, standalone)")
	nodeVersion := flag.String("node-version", "", "Node.js version passed to node-gyp as --target")
	emitOnly := flag.Bool("emit-only", false, "Write C++ sources and manifests without running the toolchain")
	initProject := flag.Bool("init", false, "Write a "+config.Filename+" for the given entry files and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] [entry.js ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Compile JavaScript to C++ against the V8 embedding API.\n\n")
		fmt.Fprintf(os.Stderr, "Examples:\n")
		fmt.Fprintf(os.Stderr, "  %s -target node-program main.js\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -target standalone -emit-only hello.js\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -config project/jsc.yaml\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	p, err := loadProject(*configPath, flag.Args())
	if err != nil {
		return err
	}

	if *target != "" {
		t, err := config.ParseTarget(*target)
		if err != nil {
			return err
		}
		p.Target = t
	}
	if *outDir != "" {
		p.OutDir = *outDir
	}
	if *nodeVersion != "" {
		p.Node.Version = *nodeVersion
	}
	p.Normalize()

	if len(p.Modules) == 0 {
		flag.Usage()
		return fmt.Errorf("entry file or %s required", config.Filename)
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if *initProject {
		if _, err := os.Stat(config.Filename); err == nil {
			return fmt.Errorf("%s already exists", config.Filename)
		}
		if err := config.Write(config.Filename, p); err != nil {
			return err
		}
		slog.Info("Wrote project file", "path", config.Filename, "modules", len(p.Modules))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	out, err := build.Run(ctx, p, build.Options{EmitOnly: *emitOnly})
	if err != nil {
		return err
	}

	for _, path := range out.Sources {
		slog.Info("Generated", "source", path)
	}
	for _, path := range out.Artifacts {
		slog.Info("Built", "artifact", path)
	}
	return nil
}

// loadProject reads the project file, or builds one from the entry files
// given on the command line. Entry files replace the file's module list.
func loadProject(path string, entries []string) (config.Project, error) {
	if path == "" {
		if _, err := os.Stat(config.Filename); err == nil {
			path = config.Filename
		} else if !errors.Is(err, os.ErrNotExist) {
			return config.Project{}, fmt.Errorf("stat %s: %w", config.Filename, err)
		}
	}
	if path == "" {
		return config.New(config.TargetNodeProgram, entries...), nil
	}

	p, err := config.Load(path)
	if err != nil {
		return config.Project{}, err
	}
	slog.Debug("Loaded project file", "path", path, "target", p.Target)

	if len(entries) > 0 {
		p.Modules = nil
		for _, e := range entries {
			p.Modules = append(p.Modules, config.Module{Entry: e})
		}
	}
	return p, nil
}
