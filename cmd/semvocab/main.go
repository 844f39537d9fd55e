// Package main implements the semvocab command-line tool: a thin JSON-emitting
// surface over the vocabulary registry and collision resolver.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/c360/semvocab/errors"
	"github.com/c360/semvocab/fetch"
	"github.com/c360/semvocab/pkg/retry"
	"github.com/c360/semvocab/rdf"
	"github.com/c360/semvocab/vocab"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "semvocab"
)

func main() {
	if err := run(); err != nil {
		slog.Error("command failed", "error", err, "kind", errorKind(err))
		os.Exit(1)
	}
}

func run() error {
	cfg := parseFlags()

	if cfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	if err := validateFlags(cfg); err != nil {
		return err
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	fetchOpts := []fetch.HTTPOption{
		fetch.WithTimeout(cfg.FetchTimeout),
		fetch.WithLogger(logger),
	}
	if cfg.Retries > 0 {
		// Fast backoff: this is an interactive tool, not a daemon.
		retryCfg := retry.Quick()
		retryCfg.MaxAttempts = cfg.Retries + 1
		fetchOpts = append(fetchOpts, fetch.WithRetry(retryCfg))
	}

	registryOpts := []vocab.RegistryOption{
		vocab.WithLogger(logger),
		vocab.WithFetcher(fetch.NewHTTP(fetchOpts...)),
		vocab.WithTurtleParser(rdf.NewDirectiveParser()),
	}
	if cfg.BundlePath != "" {
		registryOpts = append(registryOpts, vocab.WithBundleFile(cfg.BundlePath))
	}

	registry, err := vocab.NewRegistry(registryOpts...)
	if err != nil {
		return err
	}

	resolver, err := vocab.NewResolver(registry, vocab.WithResolverLogger(logger))
	if err != nil {
		return err
	}

	args := flag.Args()
	if len(args) == 0 {
		printDetailedHelp()
		return fmt.Errorf("no command given")
	}

	ctx := context.Background()

	switch args[0] {
	case "list":
		return emit(registry.Prefixes())

	case "show":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s show <identifier>", appName)
		}
		entry, err := registry.Resolve(args[1])
		if err != nil {
			return err
		}
		return emit(entry)

	case "context":
		if len(args) != 2 {
			return fmt.Errorf("usage: %s context <prefix>", appName)
		}
		return emitContext(ctx, registry, args[1])

	case "resolve":
		if len(args) != 3 {
			return fmt.Errorf("usage: %s resolve <a> <b>", appName)
		}
		plan, err := resolver.Choose(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		return emit(struct {
			A    string     `json:"a"`
			B    string     `json:"b"`
			Plan vocab.Plan `json:"plan"`
		}{A: args[1], B: args[2], Plan: plan})

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func emitContext(ctx context.Context, registry *vocab.Registry, prefix string) error {
	entry, err := registry.Get(prefix)
	if err != nil {
		return err
	}

	payload, err := registry.ContextPayload(ctx, prefix)
	if err != nil {
		return err
	}
	hash, _ := registry.ContextHash(prefix)

	return emit(struct {
		Prefix  string         `json:"prefix"`
		Version string         `json:"version"`
		SHA256  string         `json:"sha256"`
		Context map[string]any `json:"context"`
	}{
		Prefix:  entry.Prefix,
		Version: entry.Versions.Current,
		SHA256:  hash,
		Context: payload,
	})
}

func emit(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// errorKind renders the taxonomy so the four failure kinds stay
// distinguishable at the command line.
func errorKind(err error) string {
	switch {
	case errors.IsNotFound(err):
		return "unknown vocabulary"
	case errors.IsInvalidSource(err):
		return "bad source configuration"
	case errors.IsCapabilityUnavailable(err):
		return "missing optional dependency"
	case errors.IsRetrieval(err):
		return "network problem"
	default:
		return "error"
	}
}
