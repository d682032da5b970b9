// Command magellan is the CLI entry point for the code-intelligence
// indexer: a thin urfave/cli/v2 app (grounded on cmd/lci/main.go's
// App+Commands shape) that wires the library packages together and
// never implements indexing logic itself.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/magellan/internal/config"
	"github.com/standardbeagle/magellan/internal/diagnostics"
	magerrors "github.com/standardbeagle/magellan/internal/errors"
	"github.com/standardbeagle/magellan/internal/filter"
	"github.com/standardbeagle/magellan/internal/graph"
	"github.com/standardbeagle/magellan/internal/graph/kvstore"
	"github.com/standardbeagle/magellan/internal/graph/sqlbackend"
	"github.com/standardbeagle/magellan/internal/model"
	"github.com/standardbeagle/magellan/internal/pathvalidate"
	"github.com/standardbeagle/magellan/internal/pipeline"
	"github.com/standardbeagle/magellan/internal/query"
	"github.com/standardbeagle/magellan/internal/reconcile"
	"github.com/standardbeagle/magellan/internal/response"
	"github.com/standardbeagle/magellan/internal/scan"
	"github.com/standardbeagle/magellan/internal/span"
	"github.com/standardbeagle/magellan/internal/validate"
	"github.com/standardbeagle/magellan/internal/watch"
)

// toolVersion is reported on every ExecutionRecord; bumped alongside
// response.SchemaVersion when the two need to move together.
const toolVersion = "0.1.0"

// beginExecution opens an ExecutionRecord for the run and returns the
// execution_id plus a finish func the caller defers.
func beginExecution(sess *session, dbPath string) (string, func(outcome model.ExecutionOutcome, counters model.Counters)) {
	execID := span.NewExecutionID()
	rec := model.ExecutionRecord{
		ExecutionID: execID,
		ToolVersion: toolVersion,
		Args:        os.Args,
		Root:        sess.root,
		DBPath:      dbPath,
		StartedAt:   time.Now(),
		Outcome:     model.OutcomeRunning,
	}
	if err := sess.g.Backend().StartExecution(rec); err != nil {
		sess.diag.Emitf(diagnostics.StageReconcile, "", "failed to record execution start: %v", err)
	}
	return execID, func(outcome model.ExecutionOutcome, counters model.Counters) {
		if err := sess.g.Backend().FinishExecution(execID, time.Now(), outcome, counters); err != nil {
			sess.diag.Emitf(diagnostics.StageReconcile, "", "failed to record execution finish: %v", err)
		}
	}
}

// session bundles everything a command needs once config has been
// loaded and the backend opened: the graph facade, the path validator,
// the filter, and a diagnostics stream shared by every component so
// stderr carries one coherent log.
type session struct {
	cfg       *config.Config
	root      string
	g         *graph.Graph
	validator *pathvalidate.Validator
	filter    *filter.Filter
	diag      *diagnostics.Stream
}

func (s *session) Close() error {
	if s.g != nil {
		return s.g.Close()
	}
	return nil
}

func openSession(c *cli.Context) (*session, error) {
	root := c.String("root")
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		root = cwd
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if includes := c.StringSlice("include"); len(includes) > 0 {
		cfg.Include = includes
	}
	if excludes := c.StringSlice("exclude"); len(excludes) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludes...)
	}

	diag := diagnostics.NewStderr()

	dbPath := cfg.Backend.Path
	if dbPath != "" && !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(cfg.Project.Root, dbPath)
	}

	preEnv := validate.Env{Root: cfg.Project.Root}
	if cfg.Backend.Kind == config.BackendSQLite {
		preEnv.DBPath = dbPath
	}
	preReport := validate.PreRunValidate(preEnv)
	if !preReport.OK() {
		return nil, preReport.Errors[0]
	}

	f, err := filter.New(filter.Config{
		DBPath:           dbPath,
		RespectGitignore: cfg.Index.RespectGitignore,
		Root:             cfg.Project.Root,
		Include:          cfg.Include,
		Exclude:          cfg.Exclude,
	})
	if err != nil {
		return nil, err
	}

	var backend graph.Backend
	switch cfg.Backend.Kind {
	case config.BackendKV:
		backend = kvstore.New()
	default:
		if dbPath != "" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return nil, err
			}
		}
		store, err := sqlbackend.Open(dbPath)
		if err != nil {
			return nil, magerrors.NewIOError(magerrors.CodeDBOpen, "failed to open backend at "+dbPath, err)
		}
		backend = store
	}

	g, err := graph.Open(backend, diag)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:       cfg,
		root:      cfg.Project.Root,
		g:         g,
		validator: pathvalidate.New(cfg.Project.Root),
		filter:    f,
		diag:      diag,
	}, nil
}

func writeEnvelope(execID string, data interface{}) error {
	return response.Write(os.Stdout, response.New(execID, data, false))
}

func writeError(err error) error {
	_ = response.Write(os.Stdout, response.FromError(span.NewExecutionID(), err))
	return cli.Exit("", 1)
}

func scanCommand(c *cli.Context) error {
	sess, err := openSession(c)
	if err != nil {
		return writeError(err)
	}
	defer sess.Close()

	execID, finish := beginExecution(sess, sess.cfg.Backend.Path)

	s := scan.New(sess.root, sess.filter, sess.validator, sess.diag)
	r := reconcile.New(sess.validator, sess.g, sess.diag)

	type fileResult struct {
		Path    string `json:"path"`
		Outcome string `json:"outcome"`
	}
	var results []fileResult
	err = pipeline.ScanInitial(r, s, func(processed, total int, path string, outcome reconcile.Outcome) {
		results = append(results, fileResult{Path: path, Outcome: string(outcome)})
	})
	if err != nil {
		finish(model.OutcomeError, model.Counters{})
		return writeError(err)
	}

	counts, err := sess.g.CountByKind()
	if err != nil {
		finish(model.OutcomeError, model.Counters{})
		return writeError(err)
	}

	finish(model.OutcomeOK, model.Counters{
		Files:      counts.Files,
		Symbols:    counts.Symbols,
		References: counts.References,
		Calls:      counts.Calls,
	})

	return writeEnvelope(execID, map[string]interface{}{
		"files":  results,
		"counts": counts,
	})
}

func watchCommand(c *cli.Context) error {
	sess, err := openSession(c)
	if err != nil {
		return writeError(err)
	}
	defer sess.Close()

	execID, finish := beginExecution(sess, sess.cfg.Backend.Path)

	// An initial scan establishes the baseline the watcher's deltas build on.
	s := scan.New(sess.root, sess.filter, sess.validator, sess.diag)
	r := reconcile.New(sess.validator, sess.g, sess.diag)
	if err := pipeline.ScanInitial(r, s, nil); err != nil {
		finish(model.OutcomeError, model.Counters{})
		return writeError(err)
	}

	debounce := time.Duration(sess.cfg.Watch.DebounceMs) * time.Millisecond
	w, err := watch.New(sess.root, sess.filter, debounce, sess.diag)
	if err != nil {
		finish(model.OutcomeError, model.Counters{})
		return writeError(err)
	}
	if err := w.Start(); err != nil {
		finish(model.OutcomeError, model.Counters{})
		return writeError(err)
	}
	defer w.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- pipeline.RunWatch(r, w, sess.diag, 0, func(_, _ int, path string, outcome reconcile.Outcome) {
			sess.diag.Emitf(diagnostics.StageReconcile, path, "watch: %s", outcome)
		})
	}()

	finalCounts := func() model.Counters {
		counts, err := sess.g.CountByKind()
		if err != nil {
			return model.Counters{}
		}
		return model.Counters{Files: counts.Files, Symbols: counts.Symbols, References: counts.References, Calls: counts.Calls}
	}

	select {
	case <-ctx.Done():
		w.Stop()
		finish(model.OutcomeOK, finalCounts())
		return writeEnvelope(execID, map[string]interface{}{"status": "stopped"})
	case err := <-done:
		if err != nil {
			finish(model.OutcomeError, finalCounts())
			return writeError(err)
		}
		finish(model.OutcomeOK, finalCounts())
		return writeEnvelope(execID, map[string]interface{}{"status": "stopped"})
	}
}

func queryCommand(c *cli.Context) error {
	sess, err := openSession(c)
	if err != nil {
		return writeError(err)
	}
	defer sess.Close()

	surface := query.New(sess.g)
	sub := c.Args().First()
	execID := span.NewExecutionID()

	switch sub {
	case "symbols":
		path := c.Args().Get(1)
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(sess.root, path)
		}
		matches, err := surface.SymbolsInFile(abs)
		if err != nil {
			return writeError(err)
		}
		return writeEnvelope(execID, matches)
	case "symbol":
		fqn := c.Args().Get(1)
		m, err := surface.SymbolByFQN(fqn)
		if err != nil {
			return writeError(err)
		}
		return writeEnvelope(execID, m)
	case "refs":
		symbolID := c.Args().Get(1)
		matches, err := surface.ReferencesTo(symbolID)
		if err != nil {
			return writeError(err)
		}
		return writeEnvelope(execID, matches)
	case "callers":
		symbolID := c.Args().Get(1)
		matches, err := surface.CallersOf(symbolID)
		if err != nil {
			return writeError(err)
		}
		return writeEnvelope(execID, matches)
	case "callees":
		symbolID := c.Args().Get(1)
		matches, err := surface.CalleesOf(symbolID)
		if err != nil {
			return writeError(err)
		}
		return writeEnvelope(execID, matches)
	case "ast":
		path := c.Args().Get(1)
		abs := path
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(sess.root, path)
		}
		nodes, err := surface.AstForFile(abs)
		if err != nil {
			return writeError(err)
		}
		return writeEnvelope(execID, nodes)
	default:
		return writeError(magerrors.NewQueryError(magerrors.CodeUnknownSymbol,
			"unknown query subcommand "+sub, nil).
			WithRemediation("one of: symbols, symbol, refs, callers, callees, ast"))
	}
}

func validateCommand(c *cli.Context) error {
	sess, err := openSession(c)
	if err != nil {
		return writeError(err)
	}
	defer sess.Close()

	execID := span.NewExecutionID()
	report, err := validate.ValidateGraph(sess.g)
	if err != nil {
		return writeError(err)
	}
	if !report.OK() {
		return writeEnvelope(execID, map[string]interface{}{
			"ok":     false,
			"errors": report.Errors,
		})
	}
	return writeEnvelope(execID, map[string]interface{}{"ok": true, "errors": []string{}})
}

func main() {
	app := &cli.App{
		Name:  "magellan",
		Usage: "Deterministic code-intelligence indexer and query surface",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root to index (defaults to the current directory)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Include only files matching these glob patterns",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Additional glob patterns to exclude",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "scan",
				Usage:  "Run a one-shot initial scan and build the graph",
				Action: scanCommand,
			},
			{
				Name:   "watch",
				Usage:  "Scan once, then watch the tree and reconcile changes until interrupted",
				Action: watchCommand,
			},
			{
				Name:      "query",
				Usage:     "Query the graph",
				ArgsUsage: "<symbols|symbol|refs|callers|callees|ast> <arg>",
				Action:    queryCommand,
			},
			{
				Name:   "validate",
				Usage:  "Run the post-run orphan-fact validator against the current graph",
				Action: validateCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
