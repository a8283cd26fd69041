// Command flowspec converts captured HTTP traffic into an OpenAPI 3.0
// specification. It reads a mitmproxy dump or HAR archive, keeps the
// flows under the given base URL, infers schemas from the observed
// requests and responses, and writes the merged document as YAML.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/usestring/flowspec/internal/apispec"
	"github.com/usestring/flowspec/internal/capture"
	"github.com/usestring/flowspec/internal/config"
	"github.com/usestring/flowspec/internal/logging"
)

type cliOptions struct {
	selectExpr     string
	format         string
	strictRequired bool
	workers        int
	logLevel       string
	logFile        string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "flowspec <capture> <output> <baseurl>",
		Short: "Generate an OpenAPI spec from captured HTTP traffic",
		Long: `flowspec reads recorded HTTP exchanges (a mitmproxy dump or a HAR
archive), keeps the flows whose URL starts with the given base URL, and
infers an OpenAPI 3.0 specification from the observed traffic.

The base URL is host plus optional path prefix, without a scheme, for
example "api.example.com/v1". Pass "-" as the output to write to stdout.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg, opts, args[0], args[1], args[2])
		},
	}

	cmd.Flags().StringVar(&opts.selectExpr, "select", "", "jq expression to filter flows before assembly")
	cmd.Flags().StringVar(&opts.format, "format", "auto", "capture format: auto, har, mitm")
	cmd.Flags().BoolVar(&opts.strictRequired, "strict-required", false, "mark object keys required only when present in every sample")
	cmd.Flags().IntVar(&opts.workers, "workers", cfg.BuildWorkers, "concurrent path-item builders")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	cmd.Flags().StringVar(&opts.logFile, "log-file", cfg.LogFile, "log file path (default stderr)")

	return cmd
}

func run(ctx context.Context, cfg *config.Config, opts *cliOptions, captureFile, outFile, base string) error {
	logOpts := logging.FromConfig(cfg)
	logOpts.Level = opts.logLevel
	logOpts.FilePath = opts.logFile
	cleanup, err := logging.Setup(logOpts)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer cleanup()

	format, err := capture.ParseFormat(opts.format)
	if err != nil {
		return err
	}

	flows, err := capture.ReadFile(captureFile, format)
	if err != nil {
		return fmt.Errorf("reading capture %s: %w", captureFile, err)
	}
	slog.Info("capture loaded", "file", captureFile, "flows", len(flows))

	if opts.selectExpr != "" {
		selector, err := capture.NewSelector(opts.selectExpr)
		if err != nil {
			return err
		}
		kept, err := selector.Filter(flows)
		if err != nil {
			return fmt.Errorf("applying selector: %w", err)
		}
		slog.Info("selector applied", "kept", len(kept), "dropped", len(flows)-len(kept))
		flows = kept
	}

	assembler, err := apispec.NewAssembler(base, apispec.AssemblerOptions{
		Workers:           opts.workers,
		TemplateCacheSize: cfg.TemplateCacheSize,
		StrictRequired:    opts.strictRequired,
	})
	if err != nil {
		return err
	}

	doc, report, err := assembler.Assemble(ctx, flows)
	if err != nil {
		return err
	}
	for _, prefix := range report.OutOfScope {
		slog.Warn("skipped flows outside base URL", "prefix", prefix)
	}

	if err := writeDocument(doc, outFile); err != nil {
		return fmt.Errorf("writing %s: %w", outFile, err)
	}
	slog.Info("specification written", "file", outFile, "paths", len(doc.Paths))
	return nil
}

func writeDocument(doc *apispec.Document, outFile string) error {
	out := os.Stdout
	if outFile != "-" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
