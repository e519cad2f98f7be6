package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"discogen/internal/codegen"
	"discogen/internal/discovery"
	"discogen/internal/logging"
	"discogen/internal/verify"
)

const defaultDirectoryURL = "https://www.googleapis.com/discovery/v1/apis"

func main() {
	specPath := flag.String("spec", "", "Path to a Discovery document file")
	specURL := flag.String("url", "", "URL of a Discovery document")
	directoryURL := flag.String("directory-url", defaultDirectoryURL, "Discovery directory URL for api:version lookups")
	selfURL := flag.String("self-url", "", "Canonical source URL embedded in the output header")
	outPath := flag.String("out", "", "Output file (default: stdout)")
	check := flag.Bool("check", false, "Verify the generated module transpiles and parses")
	force := flag.Bool("force", false, "Allow dumping the module to an interactive terminal")
	timeout := flag.Duration("timeout", 15*time.Second, "Fetch timeout")
	logFormat := flag.String("log-format", "text", "Log output format: text, json")
	logLevel := flag.String("log-level", "warn", "Log level: debug, info, warn, error")
	flag.Parse()

	logger := logging.ForComponent(logging.Setup(*logFormat, *logLevel), "cli")
	ctx := context.Background()

	raw, source, err := loadDocument(ctx, *specPath, *specURL, *directoryURL, flag.Arg(0), *timeout)
	if err != nil {
		slog.Error("load document", "error", err)
		os.Exit(1)
	}

	if !discovery.LooksLikeDiscovery(raw) {
		logger.Warn("input does not declare a discovery# kind; continuing", "source", source)
	}

	doc, err := discovery.ParseDocument(raw)
	if err != nil {
		slog.Error("parse document", "error", err)
		os.Exit(1)
	}

	self := *selfURL
	if self == "" {
		self = source
	}

	gen, err := codegen.New(doc, self)
	if err != nil {
		slog.Error("prepare generator", "error", err)
		os.Exit(1)
	}
	module, err := gen.Generate()
	if err != nil {
		slog.Error("generate", "error", err)
		os.Exit(1)
	}

	if *check {
		if err := verify.Module(module); err != nil {
			slog.Error("verify", "error", err)
			os.Exit(1)
		}
		logger.Info("module verified", "class", gen.PrimaryClassName(), "bytes", len(module))
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(module), 0o644); err != nil {
			slog.Error("write output", "error", err)
			os.Exit(1)
		}
		logger.Info("module written", "path", *outPath, "bytes", len(module))
		return
	}

	if term.IsTerminal(int(os.Stdout.Fd())) && !*force {
		fmt.Fprintf(os.Stderr, "generated %s (%d bytes); refusing to dump to a terminal — use -out or -force\n",
			gen.PrimaryClassName(), len(module))
		os.Exit(2)
	}
	fmt.Print(module)
}

// loadDocument reads the Discovery document from a file, a URL, or the
// directory (positional api:version argument), in that priority order.
// It returns the raw bytes and the document's source URL (empty for
// files).
func loadDocument(ctx context.Context, specPath, specURL, directoryURL, arg string, timeout time.Duration) ([]byte, string, error) {
	switch {
	case specPath != "":
		raw, err := os.ReadFile(specPath)
		if err != nil {
			return nil, "", fmt.Errorf("read file: %w", err)
		}
		return raw, "", nil
	case specURL != "":
		raw, err := discovery.NewFetcher(timeout).Fetch(ctx, specURL)
		if err != nil {
			return nil, "", err
		}
		return raw, specURL, nil
	case arg != "":
		api, version, ok := cutVersion(arg)
		if !ok {
			return nil, "", fmt.Errorf("expected api:version, got %q", arg)
		}
		item, err := discovery.NewDirectory(directoryURL, timeout).Resolve(ctx, api, version)
		if err != nil {
			return nil, "", err
		}
		raw, err := discovery.NewFetcher(timeout).Fetch(ctx, item.DiscoveryRestURL)
		if err != nil {
			return nil, "", err
		}
		return raw, item.DiscoveryRestURL, nil
	default:
		return nil, "", fmt.Errorf("one of -spec, -url, or an api:version argument is required")
	}
}

func cutVersion(arg string) (api, version string, ok bool) {
	for i := len(arg) - 1; i >= 0; i-- {
		if arg[i] == ':' {
			return arg[:i], arg[i+1:], arg[:i] != "" && arg[i+1:] != ""
		}
	}
	return "", "", false
}
