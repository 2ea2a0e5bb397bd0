package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"csvload/internal/config"
	"csvload/internal/datasource"
	"csvload/internal/datasource/file"
	"csvload/internal/datasource/httpds"
	"csvload/internal/ddl"
	"csvload/internal/deadletter"
	"csvload/internal/loader"
	"csvload/internal/metrics"
	"csvload/internal/metrics/datadog"
	"csvload/internal/metrics/prompush"
	"csvload/internal/probe"
	"csvload/internal/storage"

	"golang.org/x/sync/errgroup"
)

// result is the JSON line printed per input file.
type result struct {
	File    string              `json:"file"`
	Summary *deadletter.Summary `json:"summary,omitempty"`
	Plan    *loader.Plan        `json:"plan,omitempty"`
	Profile *probe.Profile      `json:"profile,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// run executes one invocation. failed reports that at least one file did
// not load; err is reserved for usage and setup problems.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (failed bool, err error) {
	fs := flag.NewFlagSet("csvload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: csvload [flags] file.csv|URL [file2.csv ...]\n\nflags:\n")
		fs.PrintDefaults()
	}

	var (
		cfgPath     = fs.String("config", "", "JSON or YAML config file")
		analyzeOnly = fs.Bool("analyze-only", false, "print the structural profile of each file and exit")
		validate    = fs.Bool("validate", false, "validate the configuration and exit")
	)
	fs.String("table", "", "target table name (default: derived from the file name)")
	fs.Int("chunk-size", loader.DefaultChunkSize, "rows per batch")
	fs.Int("sample-size", probe.DefaultSampleRows, "rows sampled for type inference")
	fs.String("if-exists", "fail", "policy when the table exists: fail, replace or append")
	fs.String("primary-key", "", "primary key column; a generated id key is added when it is not found")
	fs.String("index", "", "comma-separated columns to index")
	fs.String("encoding", "", "input encoding (default: detected)")
	fs.String("delimiter", "", `field delimiter, e.g. ";" or "\t" (default: detected)`)
	fs.Bool("no-header", false, "the first line is data; columns are named column_1..column_N")
	fs.String("dead-letter-dir", deadletter.DefaultDir, "directory for dead-letter CSV files")
	fs.String("db-kind", "", "database backend: "+strings.Join(storage.ListKinds(), ", "))
	fs.String("dsn", "", "database connection string")
	fs.Bool("dry-run", false, "analyze and print the DDL without touching the database")
	fs.Int("parallel", 1, "files loaded concurrently")
	fs.String("metrics-backend", "", "metrics backend: none, prometheus or datadog")
	fs.String("pushgateway-url", "", "Prometheus Pushgateway base URL")
	fs.String("datadog-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125")
	fs.Bool("v", false, "enable verbose logs")

	if err := fs.Parse(args); err != nil {
		return false, err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return false, err
	}
	if err := applyFlags(&cfg, fs); err != nil {
		return false, err
	}
	if cfg.Runtime.Verbose {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		return false, errors.New("configuration is invalid")
	}
	if *validate {
		fmt.Fprintln(stderr, "configuration is valid")
		return false, nil
	}

	files := fs.Args()
	if len(files) == 0 {
		fs.Usage()
		return false, errors.New("no input files")
	}
	if cfg.Table.Name != "" && len(files) > 1 {
		return false, errors.New("-table cannot be combined with several input files")
	}

	out := newPrinter(stdout)
	if *analyzeOnly {
		for _, f := range files {
			p, err := probe.AnalyzeSource(ctx, sourceFor(f), cfg.ProbeOptions())
			r := result{File: f}
			if err != nil {
				r.Error = err.Error()
				failed = true
			} else {
				r.Profile = &p
			}
			out.print(r)
		}
		return failed, nil
	}

	flush, err := setupMetrics(cfg.Metrics)
	if err != nil {
		return false, err
	}
	defer flush()

	opt, err := loaderOptions(cfg)
	if err != nil {
		return false, err
	}

	results := make([]result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(cfg.Runtime.Parallel, 1))
	for i, f := range files {
		g.Go(func() error {
			results[i] = loadFile(gctx, cfg, opt, f)
			out.print(results[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Error != "" || (r.Summary != nil && r.Summary.Status == deadletter.StatusFailed) {
			failed = true
		}
	}
	return failed, nil
}

// loadFile runs one Loader with its own executor.
func loadFile(ctx context.Context, cfg config.Config, opt loader.Options, path string) result {
	r := result{File: path}

	var exec storage.Executor
	if !opt.DryRun {
		var err error
		exec, err = storage.Open(ctx, cfg.StorageConfig())
		if err != nil {
			r.Error = err.Error()
			return r
		}
		defer exec.Close()
	}

	l := loader.New(exec, opt)
	sum, err := l.RunSource(ctx, sourceFor(path))
	r.Summary = &sum
	if err != nil {
		r.Error = err.Error()
	}
	if opt.DryRun {
		plan := l.Plan()
		r.Plan = &plan
	}
	return r
}

// sourceFor maps a command-line argument to a source: http(s) URLs are
// fetched, anything else is a local path.
func sourceFor(arg string) datasource.Source {
	if httpds.IsURL(arg) {
		return httpds.NewRemote(remoteClient, arg)
	}
	return file.NewLocal(arg)
}

var remoteClient = httpds.NewClient(httpds.Config{MaxRetries: 3})

func loaderOptions(cfg config.Config) (loader.Options, error) {
	inf, err := cfg.InferenceOptions()
	if err != nil {
		return loader.Options{}, err
	}
	policy, ok := loader.ParsePolicy(cfg.Table.IfExists)
	if !ok {
		return loader.Options{}, fmt.Errorf("unknown if_exists policy %q", cfg.Table.IfExists)
	}
	d, err := ddl.Lookup(cfg.Database.Kind)
	if err != nil {
		return loader.Options{}, err
	}
	so := cfg.SchemaOptions("")
	return loader.Options{
		Table:         so.Table,
		IfExists:      policy,
		PrimaryKey:    so.PrimaryKey,
		Indexes:       so.Indexes,
		ChunkSize:     cfg.Runtime.ChunkSize,
		SampleSize:    cfg.CSV.SampleSize,
		Probe:         cfg.ProbeOptions(),
		Inference:     inf,
		DeadLetterDir: cfg.DeadLetter.Dir,
		DryRun:        cfg.Runtime.DryRun,
		Dialect:       d,
		Verbose:       cfg.Runtime.Verbose,
	}, nil
}

// applyFlags copies explicitly set flags over cfg, so flags win over the
// config file and the environment.
func applyFlags(cfg *config.Config, fs *flag.FlagSet) error {
	str := func(dst *string) func(string) error {
		return func(v string) error { *dst = v; return nil }
	}
	num := func(dst *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		}
	}
	boolean := func(dst *bool) func(string) error {
		return func(v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return err
			}
			*dst = b
			return nil
		}
	}
	setters := map[string]func(string) error{
		"table":           str(&cfg.Table.Name),
		"chunk-size":      num(&cfg.Runtime.ChunkSize),
		"sample-size":     num(&cfg.CSV.SampleSize),
		"if-exists":       str(&cfg.Table.IfExists),
		"primary-key":     str(&cfg.Table.PrimaryKey),
		"encoding":        str(&cfg.CSV.Encoding),
		"delimiter":       str(&cfg.CSV.Delimiter),
		"no-header":       boolean(&cfg.CSV.NoHeader),
		"dead-letter-dir": str(&cfg.DeadLetter.Dir),
		"db-kind":         str(&cfg.Database.Kind),
		"dsn":             str(&cfg.Database.DSN),
		"dry-run":         boolean(&cfg.Runtime.DryRun),
		"parallel":        num(&cfg.Runtime.Parallel),
		"metrics-backend": str(&cfg.Metrics.Backend),
		"pushgateway-url": str(&cfg.Metrics.PushgatewayURL),
		"datadog-addr":    str(&cfg.Metrics.DatadogAddr),
		"v":               boolean(&cfg.Runtime.Verbose),
		"index": func(v string) error {
			cfg.Table.Indexes = cfg.Table.Indexes[:0]
			for _, c := range strings.Split(v, ",") {
				if c = strings.TrimSpace(c); c != "" {
					cfg.Table.Indexes = append(cfg.Table.Indexes, c)
				}
			}
			return nil
		},
	}

	var errs []error
	fs.Visit(func(f *flag.Flag) {
		set, ok := setters[f.Name]
		if !ok {
			return
		}
		if err := set(f.Value.String()); err != nil {
			errs = append(errs, fmt.Errorf("flag -%s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// setupMetrics installs the configured backend and returns its flush.
func setupMetrics(m config.Metrics) (func(), error) {
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "", "none":
		return func() {}, nil
	case "prometheus":
		b, err = prompush.NewBackend(m.Job, m.PushgatewayURL)
	case "datadog":
		b, err = datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, Namespace: m.Namespace, GlobalTags: m.Tags})
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", m.Backend)
	}
	if err != nil {
		return nil, err
	}
	metrics.SetBackend(b)
	log.Printf("metrics: backend=%s", m.Backend)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}, nil
}

// printer serialises JSON results from concurrent loads.
type printer struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newPrinter(w io.Writer) *printer {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return &printer{enc: enc}
}

func (p *printer) print(r result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.enc.Encode(r); err != nil {
		log.Printf("csvload: write result: %v", err)
	}
}
