// Package ingest holds the concurrency helpers shared by the crawler and the
// SQLite exporter.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/japaniel/talkwords/pkg/db"
	"github.com/japaniel/talkwords/pkg/dictionary"
	"github.com/japaniel/talkwords/pkg/report"
)

// Run describes one crawl whose report is exported as a single source.
type Run struct {
	Language string
	Title    string
	URL      string
	Meta     string
}

// Exporter writes report rows into the words database.
type Exporter struct {
	DB *sql.DB
	// Dict adds JMdict definitions to Japanese words. nil skips them.
	Dict      *dictionary.Index
	BatchSize int
	Workers   int
	Logger    *slog.Logger
	// OnProgress is called after each batch is handed to the writer.
	OnProgress func(current, total int)

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewExporter creates an Exporter with default batching.
func NewExporter(conn *sql.DB, dict *dictionary.Index) *Exporter {
	return &Exporter{
		DB:        conn,
		Dict:      dict,
		BatchSize: 50,
		Workers:   2,
	}
}

func (e *Exporter) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Export stores every row and links it to the run's source, returning the
// number of words written.
func (e *Exporter) Export(ctx context.Context, run Run, rows []report.Row) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	website := ""
	if u, err := url.Parse(run.URL); err == nil {
		website = u.Host
	}
	sourceID, err := db.CreateOrGetSource(e.DB, "conference", run.Title, "", website, run.URL, run.Meta)
	if err != nil {
		return 0, fmt.Errorf("create source: %w", err)
	}

	words, err := e.prepare(ctx, run.Language, rows)
	if err != nil {
		return 0, err
	}

	bw := NewBatchWriter(ctx, e.DB, e.BatchSize, 100*time.Millisecond)
	bw.Logger = e.Logger
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			_ = bw.Close()
			return bw.Committed(), err
		}
		w, rec, example := words[i], row.Record, row.Sentence
		if example == "" && len(rec.Sentences) > 0 {
			example = rec.Sentences[0]
		}
		err := bw.Submit(func(_ context.Context, tx *sql.Tx) error {
			wordID, err := db.CreateOrGetWord(tx, w)
			if err != nil {
				return fmt.Errorf("persist word %s: %w", w.Word, err)
			}
			if err := db.LinkWordToSource(tx, wordID, sourceID, example, rec.Sentences, rec.Count); err != nil {
				return fmt.Errorf("link word %s: %w", w.Word, err)
			}
			return nil
		})
		if err != nil {
			_ = bw.Close()
			return bw.Committed(), err
		}
		if e.OnProgress != nil && (i+1)%e.BatchSize == 0 {
			e.OnProgress(i+1, len(rows))
		}
	}
	if err := bw.Close(); err != nil {
		return bw.Committed(), fmt.Errorf("flush export: %w", err)
	}
	if e.OnProgress != nil {
		e.OnProgress(len(rows), len(rows))
	}
	e.logger().Info("exported words", "source_id", sourceID, "words", bw.Committed())
	return bw.Committed(), nil
}

// prepare builds the word rows, looking up dictionary definitions on the worker pool.
func (e *Exporter) prepare(ctx context.Context, language string, rows []report.Row) ([]db.Word, error) {
	words := make([]db.Word, len(rows))
	for i, row := range rows {
		rec := row.Record
		words[i] = db.Word{
			Word:          rec.Word,
			Lemma:         rec.Lemma,
			Language:      language,
			Pronunciation: rec.Transliteration,
			PartOfSpeech:  rec.POS,
			Translation:   row.Translation,
		}
	}
	if e.Dict == nil || language != "jpn" {
		return words, nil
	}

	var wp WorkerPoolInterface
	if e.PoolFactory != nil {
		wp = e.PoolFactory(e.Workers, e.Workers*2)
	} else {
		wp = NewWorkerPool(e.Workers, e.Workers*2)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(ctx)

	var (
		mu       sync.Mutex
		firstErr error
	)
	for i := range words {
		idx := i
		job := func(ctx context.Context) error {
			defs, err := e.Dict.DefinitionsJSON(words[idx].Word, words[idx].Lemma, "")
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return err
			}
			words[idx].Definitions = defs
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			wp.Close()
			if errors.Is(err, ctx.Err()) {
				return nil, err
			}
			return nil, fmt.Errorf("submit lookup: %w", err)
		}
	}
	wp.Close()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		e.logger().Warn("dictionary lookup failed", "error", firstErr)
	}
	return words, nil
}
