package main

import (
	"fmt"
	"strings"
	"time"

	"excel2web/internal"
	"excel2web/internal/catalog"
	"excel2web/internal/pipeline"
	"excel2web/internal/storage"
	"excel2web/internal/util"
	"excel2web/internal/yakka"
)

type RunCmd struct {
	Input  string `required:"" type:"existingfile" help:"Input .xlsx file."`
	Output string `required:"" help:"Output .xlsx file."`
	Sheet  string `default:"0" help:"Sheet name or 0-based index."`
	Column int    `default:"0" help:"0-based column holding drug names or codes (0 => column A)."`
	Mode   string `default:"name" enum:"name,code" help:"Lookup by name (local, then web) or by code (local only)."`
	RagDir string `name:"rag-dir" help:"Directory of master-data .xlsx files (default RAG_DIR)."`
}

func (c *RunCmd) Run(app *App) error {
	mode, _ := internal.ParseQueryMode(c.Mode)
	resolver, err := newResolver(app, mode, c.RagDir)
	if err != nil {
		return err
	}

	summary, results, err := pipeline.ProcessWorkbook(app.Ctx, c.Input, c.Output, pipeline.WorkbookOptions{Sheet: c.Sheet, Column: c.Column}, resolver)
	if err != nil {
		return err
	}

	if app.Cfg.JournalEnabled && strings.TrimSpace(app.Cfg.DBPath) != "" {
		if err := journalRun(app, summary, results); err != nil {
			app.Log.Warn("journal write failed", "run_id", summary.RunID, "error", err)
		}
	}

	fmt.Fprintf(app.Stdout, "run done id=%s rows=%d local=%d remote=%d not_found=%d error=%d output=%s\n",
		summary.RunID, summary.Rows,
		summary.Counts[internal.SourceLocal], summary.Counts[internal.SourceRemote],
		summary.Counts[internal.SourceNotFound], summary.Counts[internal.SourceError],
		summary.Output)
	return nil
}

type IndexCmd struct {
	RagDir string `name:"rag-dir" help:"Directory of master-data .xlsx files (default RAG_DIR)."`
}

func (c *IndexCmd) Run(app *App) error {
	start := time.Now()
	idx, stats, err := buildIndex(app, c.RagDir)
	if err != nil {
		return err
	}
	names, codes := idx.Len()

	previous := "never"
	if app.Cfg.JournalEnabled && strings.TrimSpace(app.Cfg.DBPath) != "" {
		last, err := recordIndexBuild(app)
		if err != nil {
			app.Log.Warn("journal write failed", "key", lastBuildKey, "error", err)
		} else if last != nil {
			previous = *last
		}
	}

	fmt.Fprintf(app.Stdout, "index built names=%d codes=%d files=%d used=%d skipped=%d duplicates=%d took=%s previous=%s\n",
		names, codes, stats.FilesScanned, stats.FilesUsed, stats.FilesSkipped, stats.Duplicates,
		time.Since(start).Round(time.Millisecond), previous)
	return nil
}

const lastBuildKey = "index.last_build"

// recordIndexBuild stamps the build time and returns the previous stamp.
func recordIndexBuild(app *App) (*string, error) {
	db, err := storage.Open(app.Cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	last, err := db.GetMetadata(lastBuildKey)
	if err != nil {
		return nil, err
	}
	if err := db.SetMetadata(lastBuildKey, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}
	return last, nil
}

type LookupCmd struct {
	Value  string `arg:"" help:"Drug name or code."`
	Mode   string `default:"name" enum:"name,code" help:"Lookup by name or by code."`
	RagDir string `name:"rag-dir" help:"Directory of master-data .xlsx files (default RAG_DIR)."`
}

func (c *LookupCmd) Run(app *App) error {
	mode, _ := internal.ParseQueryMode(c.Mode)
	resolver, err := newResolver(app, mode, c.RagDir)
	if err != nil {
		return err
	}
	res := resolver.ResolveQuery(app.Ctx, internal.PriceQuery{Value: c.Value, Mode: mode})
	fmt.Fprintf(app.Stdout, "%s\t%s\t%s\t%s\n", res.Query, res.PriceText, res.Source, res.OriginURL)
	return nil
}

type ExportCmd struct {
	RunID string `name:"run-id" help:"Run id to export (default: latest run)."`
	Out   string `required:"" help:"Output .xlsx path."`
}

func (c *ExportCmd) Run(app *App) error {
	if err := app.Cfg.Require("DB_PATH", app.Cfg.DBPath); err != nil {
		return err
	}
	db, err := storage.Open(app.Cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	runID := strings.TrimSpace(c.RunID)
	if runID == "" {
		if runID, err = db.LatestRunID(); err != nil {
			return err
		}
		if runID == "" {
			return fmt.Errorf("no runs in journal %s", app.Cfg.DBPath)
		}
	}
	if _, err := db.MustRun(runID); err != nil {
		return err
	}

	rows, err := db.GetExportRows(runID)
	if err != nil {
		return err
	}
	if err := pipeline.ExportResultsToXLSX(rows, c.Out); err != nil {
		return err
	}
	fmt.Fprintf(app.Stdout, "exported %d rows of run %s to %s\n", len(rows), runID, c.Out)
	return nil
}

func buildIndex(app *App, ragDir string) (*catalog.Index, catalog.IndexStats, error) {
	if strings.TrimSpace(ragDir) == "" {
		ragDir = app.Cfg.RagDir
	}
	idx, stats, err := catalog.BuildIndex(ragDir, catalog.IndexOptions{
		Sheet:       app.Cfg.RagSheet,
		NameColumn:  app.Cfg.RagNameColumn,
		PriceColumn: app.Cfg.RagPriceColumn,
		CodeColumn:  app.Cfg.RagCodeColumn,
		Normalize:   util.NameNormalizer(app.Cfg.NormalizeFoldWidth),
		Logger:      app.Log,
	})
	if err != nil {
		return nil, stats, err
	}
	names, codes := idx.Len()
	app.Log.Info("local index ready", "dir", ragDir, "names", names, "codes", codes, "files", stats.FilesUsed)
	return idx, stats, nil
}

func newResolver(app *App, mode internal.QueryMode, ragDir string) (*pipeline.Resolver, error) {
	idx, _, err := buildIndex(app, ragDir)
	if err != nil {
		return nil, err
	}

	var remote pipeline.Remote
	if mode == internal.ModeName {
		remote = yakka.NewClient(app.Cfg, app.Log)
	}
	return pipeline.NewResolver(mode, idx, remote, pipeline.ResolverOptions{
		CodeHeaderLabel:  app.Cfg.RagCodeColumn,
		PriceHeaderLabel: app.Cfg.RagPriceColumn,
		Logger:           app.Log,
	})
}

func journalRun(app *App, summary internal.RunSummary, results []internal.PriceResult) error {
	db, err := storage.Open(app.Cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveRun(summary, pipeline.ToExportRows(results))
}
