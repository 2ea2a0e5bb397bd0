// Package loader drives one CSV file into one SQL table.
//
// A run walks ANALYZE → INFER_SCHEMA → ENSURE_TABLE → STREAM_LOAD →
// FINALIZE. Any fatal error moves the run to FAILED, which it never leaves;
// FINALIZE's bookkeeping (closing the dead-letter file, stamping the end
// time, reporting the summary) still runs. Batches are loaded strictly in
// order. Each is first tried as one all-or-nothing bulk insert and, when
// that fails, retried row by row so a single bad row costs only itself.
package loader

import (
	"context"
	"fmt"
	"log"
	"time"

	"csvload/internal/datasource"
	"csvload/internal/datasource/file"
	"csvload/internal/ddl"
	"csvload/internal/deadletter"
	"csvload/internal/etlerr"
	"csvload/internal/inference"
	"csvload/internal/metrics"
	"csvload/internal/probe"
	"csvload/internal/schema"
	"csvload/internal/storage"

	"github.com/google/uuid"
)

// DefaultChunkSize is the number of rows per batch.
const DefaultChunkSize = 10000

// Options configure a run. The zero value loads with defaults under
// PolicyFail into a table named after the file.
type Options struct {
	// Table overrides the table name derived from the file name.
	Table      string
	IfExists   Policy
	PrimaryKey string
	Indexes    []string

	ChunkSize  int
	SampleSize int

	Probe     probe.Options
	Inference inference.Options

	DeadLetterDir string

	// DryRun stops after INFER_SCHEMA; the database is never touched.
	DryRun bool
	// Dialect renders DDL when there is no executor (dry runs). It
	// defaults to MySQL.
	Dialect *ddl.Dialect

	// RunID labels logs and the summary; a random UUID when empty.
	RunID string
	// Verbose logs a progress line per batch.
	Verbose bool
}

func (o Options) withDefaults() Options {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.SampleSize <= 0 {
		o.SampleSize = probe.DefaultSampleRows
	}
	if o.IfExists == "" {
		o.IfExists = PolicyFail
	}
	if o.RunID == "" {
		o.RunID = uuid.NewString()
	}
	return o
}

// Plan is the outcome of ANALYZE and INFER_SCHEMA.
type Plan struct {
	Profile probe.Profile          `json:"profile"`
	Columns []schema.ColumnProfile `json:"columns"`
	Schema  schema.TableSchema     `json:"schema"`
	DDL     []string               `json:"ddl"`
	Dialect string                 `json:"dialect"`
}

// Loader runs a single load. It is not safe for concurrent use and a Loader
// runs at most once; use one Loader per file.
type Loader struct {
	exec storage.Executor
	opt  Options

	state State
	src   datasource.Source
	plan  Plan
	conv  converter
	stats *deadletter.Stats
	queue *deadletter.Queue
}

// New returns a Loader writing through exec. exec may be nil for dry runs.
func New(exec storage.Executor, opt Options) *Loader {
	return &Loader{exec: exec, opt: opt.withDefaults()}
}

// State reports the current state.
func (l *Loader) State() State { return l.state }

// RunID reports the identifier of the run.
func (l *Loader) RunID() string { return l.opt.RunID }

// Plan returns what ANALYZE and INFER_SCHEMA produced. It is empty before
// INFER_SCHEMA completes.
func (l *Loader) Plan() Plan {
	p := l.plan
	p.Profile = p.Profile.Clone()
	p.Columns = append([]schema.ColumnProfile(nil), p.Columns...)
	p.DDL = append([]string(nil), p.DDL...)
	return p
}

func (l *Loader) dialect() *ddl.Dialect {
	if l.exec != nil {
		return l.exec.Dialect()
	}
	if l.opt.Dialect != nil {
		return l.opt.Dialect
	}
	return ddl.MySQL
}

// Run loads the file at path.
func (l *Loader) Run(ctx context.Context, path string) (deadletter.Summary, error) {
	return l.RunSource(ctx, file.NewLocal(path))
}

// RunSource loads src. The Summary is returned in every case; err is the
// fatal error that moved the run to FAILED, if any.
func (l *Loader) RunSource(ctx context.Context, src datasource.Source) (sum deadletter.Summary, err error) {
	if l.state != StateIdle {
		return deadletter.Summary{}, fmt.Errorf("loader: run already started (state %s)", l.state)
	}
	if l.exec == nil && !l.opt.DryRun {
		return deadletter.Summary{}, etlerr.New(etlerr.KindConfig, "no executor configured", nil)
	}
	l.src = src
	l.stats = deadletter.NewStats()
	log.Printf("loader: run=%s source=%s start", l.opt.RunID, src.BaseName())

	defer func() { sum = l.finalize() }()

	steps := []struct {
		state State
		fn    func(context.Context) error
	}{
		{StateAnalyze, l.analyze},
		{StateInferSchema, l.inferSchema},
		{StateEnsureTable, l.ensureTable},
		{StateStreamLoad, l.streamLoad},
	}
	for _, s := range steps {
		if l.opt.DryRun && s.state == StateEnsureTable {
			log.Printf("loader: run=%s dry run, %d statement(s) planned", l.opt.RunID, len(l.plan.DDL))
			break
		}
		if err = l.step(ctx, s.state, s.fn); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// step enters state, runs fn and records its outcome. A failure moves the
// run to FAILED.
func (l *Loader) step(ctx context.Context, state State, fn func(context.Context) error) error {
	l.state = state
	start := time.Now()
	err := fn(ctx)
	d := time.Since(start)
	metrics.RecordStep(l.tableLabel(), state.String(), err, d)
	if err != nil {
		l.state = StateFailed
		l.stats.Fail(err)
		log.Printf("loader: run=%s state=%s failed after %s: %v", l.opt.RunID, state, d.Truncate(time.Millisecond), err)
		return err
	}
	log.Printf("loader: run=%s state=%s done in %s", l.opt.RunID, state, d.Truncate(time.Millisecond))
	return nil
}

func (l *Loader) tableLabel() string {
	if l.plan.Schema.Name != "" {
		return l.plan.Schema.Name
	}
	return schema.TableNameFromFile(l.src.BaseName())
}

func (l *Loader) analyze(ctx context.Context) error {
	p, err := probe.AnalyzeSource(ctx, l.src, l.opt.Probe)
	if err != nil {
		return err
	}
	l.plan.Profile = p
	return nil
}

func (l *Loader) inferSchema(ctx context.Context) error {
	sample, err := probe.ReadSourceSample(ctx, l.src, l.plan.Profile, l.opt.SampleSize)
	if err != nil {
		return err
	}
	cols, err := inference.InferWith(sample, l.opt.Inference)
	if err != nil {
		return err
	}

	table := l.opt.Table
	if table == "" {
		table = schema.TableNameFromFile(l.src.BaseName())
	}
	ts, err := schema.Compile(cols, schema.Options{
		Table:      table,
		PrimaryKey: l.opt.PrimaryKey,
		Indexes:    l.opt.Indexes,
	})
	if err != nil {
		return etlerr.Wrap(etlerr.KindSchema, err, "compile table schema", map[string]any{"table": table})
	}

	d := l.dialect()
	stmts, err := d.CreateTable(ts)
	if err != nil {
		return etlerr.Wrap(etlerr.KindSchema, err, "render table DDL", map[string]any{"table": ts.Name, "dialect": d.Name()})
	}

	l.plan.Columns = cols
	l.plan.Schema = ts
	l.plan.DDL = stmts
	l.plan.Dialect = d.Name()
	l.conv = newConverter(ts)
	return nil
}

func (l *Loader) ensureTable(ctx context.Context) error {
	table := l.plan.Schema.Name
	details := map[string]any{"table": table, "if_exists": string(l.opt.IfExists)}

	exists, err := l.exec.TableExists(ctx, table)
	if err != nil {
		return etlerr.Wrap(etlerr.KindTable, err, "check table existence", details)
	}

	switch l.opt.IfExists {
	case PolicyFail:
		if exists {
			return etlerr.New(etlerr.KindTableExists, "table already exists", details)
		}
	case PolicyReplace:
		if exists {
			if _, err := l.exec.Exec(ctx, l.exec.Dialect().DropTable(table)); err != nil {
				return etlerr.Wrap(etlerr.KindTable, err, "drop existing table", details)
			}
			log.Printf("loader: run=%s dropped existing table %s", l.opt.RunID, table)
			exists = false
		}
	case PolicyAppend:
		if exists {
			log.Printf("loader: run=%s appending to existing table %s", l.opt.RunID, table)
			return nil
		}
	default:
		return etlerr.New(etlerr.KindConfig, "unknown if_exists policy", details)
	}

	for _, stmt := range l.plan.DDL {
		if _, err := l.exec.Exec(ctx, stmt); err != nil {
			return etlerr.Wrap(etlerr.KindTable, err, "create table", details).With("statement", stmt)
		}
	}
	log.Printf("loader: run=%s created table %s (%d statement(s))", l.opt.RunID, table, len(l.plan.DDL))
	return nil
}

// finalize closes the dead-letter queue and reports the run. It runs after
// every run, successful or not.
func (l *Loader) finalize() deadletter.Summary {
	failed := l.state == StateFailed
	if !failed {
		l.state = StateFinalize
	}
	start := time.Now()

	var closeErr error
	if l.queue != nil {
		closeErr = l.queue.Close()
		if closeErr != nil {
			log.Printf("loader: run=%s close dead-letter file: %v", l.opt.RunID, closeErr)
		}
	}
	l.stats.Complete()

	sum := l.stats.Summary()
	sum.RunID = l.opt.RunID
	sum.Source = l.src.BaseName()
	sum.Table = l.plan.Schema.Name
	if l.queue != nil {
		sum.DeadLetterPath = l.queue.Path()
	}

	table := l.tableLabel()
	metrics.RecordRow(table, "loaded", int64(sum.SuccessfulRows))
	metrics.RecordRow(table, "failed", int64(sum.FailedRows))
	if l.queue != nil {
		var n int
		for _, c := range l.queue.ErrorCounts() {
			n += c
		}
		metrics.RecordRow(table, "dead_lettered", int64(n))
	}
	metrics.RecordStep(table, StateFinalize.String(), closeErr, time.Since(start))

	log.Printf("loader: run=%s table=%s status=%s %s", l.opt.RunID, sum.Table, sum.Status, sum.Describe())
	return sum
}
