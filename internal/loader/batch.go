package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"csvload/internal/deadletter"
	"csvload/internal/etlerr"
	"csvload/internal/metrics"
	"csvload/internal/probe"
	"csvload/internal/storage"
)

// streamLoad reads the whole file and loads it in batches of ChunkSize rows.
// The context is checked between batches; batches already committed stay.
func (l *Loader) streamLoad(ctx context.Context) error {
	rows, err := probe.OpenSourceRows(ctx, l.src, l.plan.Profile)
	if err != nil {
		return err
	}
	defer rows.Close()

	l.queue = deadletter.NewQueue(l.opt.DeadLetterDir, l.src.BaseName(), l.plan.Profile.ColumnNames)

	var (
		batch     = make([]probe.Row, 0, l.opt.ChunkSize)
		seq       int
		start     = time.Now()
		lastFlush = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		seq++
		loaded, mode, err := l.loadBatch(ctx, seq, batch)
		if err != nil {
			return err
		}
		metrics.RecordBatches(l.plan.Schema.Name, mode, 1)

		now := time.Now()
		since := now.Sub(lastFlush)
		rps := float64(0)
		if since > 0 {
			rps = float64(len(batch)) / since.Seconds()
		}
		if l.opt.Verbose || mode == "row" {
			log.Printf("loader: batch #%d mode=%s rows=%d loaded=%d lines=%d-%d rps=%.0f total_loaded=%d elapsed=%s",
				seq, mode, len(batch), loaded, batch[0].Line, batch[len(batch)-1].Line, rps,
				l.stats.SuccessfulRows, now.Sub(start).Truncate(time.Millisecond))
		}
		lastFlush = now
		batch = batch[:0]
		return nil
	}

	for {
		if len(batch) == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("loader: stopped after %d batch(es): %w", seq, err)
			}
		}

		row, err := rows.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return etlerr.Wrap(etlerr.KindFileUnreadable, err, "read source rows", map[string]any{"source": l.src.BaseName()})
		}

		if row.Err != nil {
			perr := etlerr.Wrap(etlerr.KindRowParse, row.Err, "malformed row", map[string]any{
				"row_index": row.Index,
				"line":      row.Line,
			})
			if err := l.reject(row, perr); err != nil {
				return err
			}
			continue
		}

		batch = append(batch, row)
		if len(batch) >= l.opt.ChunkSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	log.Printf("loader: input drained batches=%d loaded=%d failed=%d", seq, l.stats.SuccessfulRows, l.stats.FailedRows)
	return nil
}

// loadBatch stores one batch, in bulk when possible and row by row
// otherwise. The returned error is fatal to the run; row failures are
// recorded and dead-lettered instead.
func (l *Loader) loadBatch(ctx context.Context, seq int, batch []probe.Row) (int, string, error) {
	tpl := storage.InsertTemplate{Table: l.plan.Schema.Name, Columns: l.plan.Schema.ColumnNames()}

	values, err := l.conv.batch(batch)
	if err == nil {
		err = l.exec.ExecBatch(ctx, tpl, values)
	}
	if err == nil {
		l.stats.RecordSuccess(len(batch))
		l.stats.RecordBatch(len(batch))
		return len(batch), "bulk", nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, "bulk", fmt.Errorf("loader: batch #%d: %w", seq, ctxErr)
	}

	bulkErr := etlerr.Wrap(etlerr.KindBulkInsert, err, "bulk insert failed", map[string]any{
		"batch":      seq,
		"rows":       len(batch),
		"first_line": batch[0].Line,
		"last_line":  batch[len(batch)-1].Line,
	})
	l.stats.Note(bulkErr)
	log.Printf("loader: batch #%d bulk insert failed, retrying row by row: %v", seq, err)

	loaded, err := l.loadRows(ctx, tpl, batch, bulkErr)
	if err != nil {
		return loaded, "row", err
	}
	l.stats.RecordBatch(loaded)
	return loaded, "row", nil
}

// loadRows inserts batch one row at a time inside one transaction, which
// commits when at least one row was stored. On engines whose transactions
// abort on a failed statement every insert runs under a savepoint.
func (l *Loader) loadRows(ctx context.Context, tpl storage.InsertTemplate, batch []probe.Row, bulkErr *etlerr.Error) (int, error) {
	d := l.exec.Dialect()
	insert := d.Insert(tpl.Table, tpl.Columns, 1)

	tx, err := l.exec.Begin(ctx)
	if err != nil {
		for _, r := range batch {
			if err := l.rejectInsert(r, fmt.Errorf("begin transaction: %w", err), bulkErr); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}

	stored := make([]probe.Row, 0, len(batch))
	for _, r := range batch {
		err := l.insertRow(ctx, tx, insert, r)
		if err != nil {
			if err := l.rejectInsert(r, err, bulkErr); err != nil {
				_ = tx.Rollback()
				return 0, err
			}
			continue
		}
		stored = append(stored, r)
	}

	if len(stored) == 0 {
		if err := tx.Rollback(); err != nil {
			log.Printf("loader: rollback empty row batch: %v", err)
		}
		return 0, nil
	}
	if err := tx.Commit(); err != nil {
		for _, r := range stored {
			if err := l.rejectInsert(r, fmt.Errorf("commit: %w", err), bulkErr); err != nil {
				return 0, err
			}
		}
		return 0, nil
	}
	l.stats.RecordSuccess(len(stored))
	return len(stored), nil
}

func (l *Loader) insertRow(ctx context.Context, tx storage.Tx, insert string, r probe.Row) error {
	args, err := l.conv.row(r.Fields)
	if err != nil {
		return err
	}
	d := l.exec.Dialect()
	if d.Savepoint() == "" {
		_, err = tx.Exec(ctx, insert, args...)
		return err
	}

	if _, err := tx.Exec(ctx, d.Savepoint()); err != nil {
		return fmt.Errorf("savepoint: %w", err)
	}
	if _, err := tx.Exec(ctx, insert, args...); err != nil {
		if _, rbErr := tx.Exec(ctx, d.RollbackTo()); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback to savepoint: %w", rbErr))
		}
		return err
	}
	if rel := d.Release(); rel != "" {
		if _, err := tx.Exec(ctx, rel); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
	}
	return nil
}

// rejectInsert records a row that failed in row mode.
func (l *Loader) rejectInsert(r probe.Row, cause error, bulkErr *etlerr.Error) error {
	e := etlerr.Wrap(etlerr.KindRowInsert, cause, "row insert failed", map[string]any{
		"row_index":   r.Index,
		"line":        r.Line,
		"batch_error": bulkErr.Text(),
	})
	return l.reject(r, e)
}

// reject counts r as failed and writes it to the dead-letter file. Only a
// dead-letter write failure is returned; it is fatal since failed rows
// would otherwise be lost silently.
func (l *Loader) reject(r probe.Row, err *etlerr.Error) error {
	l.stats.RecordFailure(1, err)
	if werr := l.queue.RecordBatchFailure(r.Index, r.Fields, err); werr != nil {
		return fmt.Errorf("loader: dead-letter row %d: %w", r.Index, werr)
	}
	return nil
}
