package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"excel2web/internal/config"
	"excel2web/internal/telemetry"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(NewMain().Run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// Main wires config, logging and the kong command tree.
type Main struct{}

func NewMain() *Main {
	return &Main{}
}

// CLI is the command tree.
type CLI struct {
	Run    RunCmd    `cmd:"" help:"Fill prices for a column of an .xlsx workbook."`
	Index  IndexCmd  `cmd:"" help:"Build the local master-data index and print its size."`
	Lookup LookupCmd `cmd:"" help:"Resolve a single drug name or code."`
	Export ExportCmd `cmd:"" help:"Export a journaled run to .xlsx."`
}

// App is bound into every command's Run method.
type App struct {
	Ctx    context.Context
	Cfg    config.Config
	Log    *slog.Logger
	Stdout io.Writer
}

func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("excel2web"),
		kong.Description("Fetch yakka price text for drug names in Excel."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command provided")
	}
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	shutdown, err := telemetry.Setup(cfg.TraceStdout, stderr)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	app := &App{
		Ctx:    ctx,
		Cfg:    cfg,
		Log:    slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})),
		Stdout: stdout,
	}
	return kctx.Run(app)
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
