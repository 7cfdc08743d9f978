// Package report sorts aggregated words and renders them as a delimited table.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/japaniel/talkwords/pkg/aggregate"
	"github.com/japaniel/talkwords/pkg/config"
	"github.com/japaniel/talkwords/pkg/translate"
)

// Column headers in their fixed output order.
const (
	ColCount           = "WORD COUNT"
	ColWord            = "WORD"
	ColTransliteration = "TRANSLITERATION"
	ColLemma           = "LEMMA"
	ColTranslation     = "TRANSLATION"
	ColPOS             = "POS"
	ColSentence        = "EXAMPLE SENTENCE"
)

// Columns returns the enabled headers for f.
func Columns(f config.Features) []string {
	var cols []string
	if !f.HideCount {
		cols = append(cols, ColCount)
	}
	cols = append(cols, ColWord)
	if f.Transliteration {
		cols = append(cols, ColTransliteration)
	}
	if f.Lemma {
		cols = append(cols, ColLemma)
	}
	if f.Translation {
		cols = append(cols, ColTranslation)
	}
	if f.POS {
		cols = append(cols, ColPOS)
	}
	if f.Sentence {
		cols = append(cols, ColSentence)
	}
	return cols
}

// NewRand returns the generator used to pick example sentences.
// A zero seed draws one from the clock, so output differs between runs.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sort orders records by descending count. Equal counts keep discovery order.
func Sort(records []*aggregate.WordRecord) []*aggregate.WordRecord {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b *aggregate.WordRecord) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return a.Order - b.Order
	})
	return out
}

// Options configures a Renderer.
type Options struct {
	Features     config.Features
	TranslateMin int
	TranslateMax int
	// Translator is consulted only when Features.Translation is set.
	Translator translate.Translator
	Rand       *rand.Rand
	Logger     *slog.Logger
}

// Row is one rendered word.
type Row struct {
	Record      *aggregate.WordRecord
	Translation string
	Sentence    string
}

// Cells returns the row's values for cols.
func (r Row) Cells(cols []string) []string {
	cells := make([]string, 0, len(cols))
	for _, c := range cols {
		var v string
		switch c {
		case ColCount:
			v = strconv.Itoa(r.Record.Count)
		case ColWord:
			v = r.Record.Word
		case ColTransliteration:
			v = r.Record.Transliteration
		case ColLemma:
			v = r.Record.Lemma
		case ColTranslation:
			v = r.Translation
		case ColPOS:
			v = r.Record.POS
		case ColSentence:
			v = r.Sentence
		}
		cells = append(cells, v)
	}
	return cells
}

// Renderer turns a word table into report rows.
type Renderer struct {
	opts    Options
	records []*aggregate.WordRecord
}

func New(records []*aggregate.WordRecord, opts Options) *Renderer {
	if opts.Rand == nil {
		opts.Rand = NewRand(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Renderer{opts: opts, records: Sort(records)}
}

func (r *Renderer) Columns() []string { return Columns(r.opts.Features) }

func (r *Renderer) translates(count int) bool {
	return r.opts.Features.Translation && r.opts.Translator != nil &&
		count >= r.opts.TranslateMin && count <= r.opts.TranslateMax
}

// Rows computes the report rows in output order. Translations are requested
// lazily, one word at a time, for counts inside the configured bounds.
func (r *Renderer) Rows(ctx context.Context) ([]Row, error) {
	rows := make([]Row, 0, len(r.records))
	for _, rec := range r.records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := Row{Record: rec}
		if r.translates(rec.Count) {
			tr, err := r.opts.Translator.Translate(ctx, rec.Word)
			switch {
			case err == nil:
				row.Translation = tr
			case errors.Is(err, context.Canceled):
				return nil, err
			case !errors.Is(err, translate.ErrNoTranslation):
				r.opts.Logger.Debug("translation failed", "word", rec.Word, "error", err)
			}
		}
		if r.opts.Features.Sentence && len(rec.Sentences) > 0 {
			row.Sentence = rec.Sentences[r.opts.Rand.IntN(len(rec.Sentences))]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

var cellReplacer = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// WriteTSV writes a header line and one tab-separated line per row.
func WriteTSV(w io.Writer, cols []string, rows []Row) error {
	if _, err := io.WriteString(w, strings.Join(cols, "\t")+"\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		cells := row.Cells(cols)
		for i, c := range cells {
			cells[i] = cellReplacer.Replace(c)
		}
		if _, err := io.WriteString(w, strings.Join(cells, "\t")+"\n"); err != nil {
			return fmt.Errorf("write row %q: %w", row.Record.Word, err)
		}
	}
	return nil
}

// WriteTable renders rows as a box-drawn table for terminals.
func WriteTable(w io.Writer, cols []string, rows []Row) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, len(cols))
	for i, c := range cols {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range rows {
		cells := row.Cells(cols)
		tr := make(table.Row, len(cells))
		for i, c := range cells {
			tr[i] = c
		}
		t.AppendRow(tr)
	}
	if _, err := io.WriteString(w, t.Render()+"\n"); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}

// Write renders rows in the named format ("tsv" or "table").
func Write(w io.Writer, format string, cols []string, rows []Row) error {
	switch format {
	case "", "tsv":
		return WriteTSV(w, cols, rows)
	case "table":
		return WriteTable(w, cols, rows)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
