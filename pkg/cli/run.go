package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/japaniel/talkwords/pkg/aggregate"
	"github.com/japaniel/talkwords/pkg/analyzer"
	"github.com/japaniel/talkwords/pkg/config"
	"github.com/japaniel/talkwords/pkg/crawl"
	"github.com/japaniel/talkwords/pkg/db"
	"github.com/japaniel/talkwords/pkg/dictionary"
	"github.com/japaniel/talkwords/pkg/ingest"
	"github.com/japaniel/talkwords/pkg/lemma"
	"github.com/japaniel/talkwords/pkg/report"
	"github.com/japaniel/talkwords/pkg/translate"
	"github.com/japaniel/talkwords/pkg/translit"
)

// translationCacheSize bounds the in-memory translation LRU.
const translationCacheSize = 4096

// Pipeline runs one crawl from fetch to report.
type Pipeline struct {
	Config config.RunConfig
	Logger *slog.Logger
	Stdout io.Writer

	// Translator replaces the provider named by Config.Translator when set.
	Translator translate.Translator
	// DictPath is where the JMdict file is kept. Empty means next to the cache.
	DictPath string
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Run crawls, aggregates and writes the report, then exports it when a
// database is configured.
func (p *Pipeline) Run(ctx context.Context) error {
	cfg := p.Config
	log := p.logger()

	if err := p.preflight(); err != nil {
		return err
	}
	// The output file is created before crawling so a bad path fails fast.
	var outFile *os.File
	if !cfg.StdoutOutput() {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return &ConfigError{fmt.Errorf("create output: %w", err)}
		}
		outFile = f
		defer func() {
			if outFile != nil {
				outFile.Close()
				os.Remove(cfg.Output)
			}
		}()
	}

	an, err := analyzer.New(cfg.Language, cfg.POS)
	if err != nil {
		return fmt.Errorf("create analyzer: %w", err)
	}
	var lem lemma.Lemmatizer = lemma.None{}
	if cfg.Lemma {
		if lem, err = lemma.New(cfg.Language.Code); err != nil {
			log.Warn("lemmatizer unavailable, lemma column will be empty", "language", cfg.Language.Code, "error", err)
			lem = lemma.None{}
		}
	}

	var cache *db.Cache
	if cfg.Cache {
		conn, err := db.Open(cfg.CachePath)
		if err != nil {
			return fmt.Errorf("open cache: %w", err)
		}
		defer conn.Close()
		cache = db.NewCache(conn)
		log.Debug("cache enabled", "path", cfg.CachePath)
	}

	var dict *dictionary.Index
	if p.needsDictionary() {
		if dict, err = p.loadDictionary(ctx); err != nil {
			if cfg.Translation && cfg.Translator == "jmdict" {
				return err
			}
			log.Warn("continuing without dictionary definitions", "error", err)
		}
	}

	tr, err := p.translator(ctx, cache, dict)
	if err != nil {
		return err
	}

	agg := aggregate.New(an, aggregate.Options{
		Language:        cfg.Language,
		Lemma:           cfg.Lemma,
		Lemmatizer:      lem,
		Transliteration: cfg.Transliteration,
		Transliterator:  translit.Unidecode{},
		POS:             cfg.POS,
		Logger:          log,
	})

	fetchOpts := []crawl.FetcherOption{crawl.WithLogger(log)}
	if cache != nil {
		fetchOpts = append(fetchOpts, crawl.WithPageCache(cache))
	}
	crawler := crawl.New(crawl.NewFetcher(cfg.Retries, fetchOpts...), cfg, log)

	start := time.Now()
	stats, err := crawler.Run(ctx, cfg.Conferences(), func(t crawl.Talk) error {
		agg.AddParagraphs(t.URL, t.Paragraphs)
		return nil
	})
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}
	as := agg.Stats()
	log.Info("crawl finished",
		"talks", stats.Talks, "failed_talks", stats.FailedTalks,
		"failed_conferences", stats.FailedListings,
		"paragraphs", as.Paragraphs, "skipped_paragraphs", as.Skipped,
		"words", agg.Len(), "elapsed", time.Since(start).Round(time.Millisecond))

	r := report.New(agg.Records(), report.Options{
		Features:     cfg.Features,
		TranslateMin: cfg.TranslateMin,
		TranslateMax: cfg.TranslateMax,
		Translator:   tr,
		Rand:         report.NewRand(cfg.Seed),
		Logger:       log,
	})
	rows, err := r.Rows(ctx)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}
	if outFile != nil {
		f := outFile
		outFile = nil
		if err := report.Write(f, cfg.Format, r.Columns(), rows); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close output: %w", err)
		}
		log.Info("report written", "path", cfg.Output, "rows", len(rows))
	} else {
		out := p.Stdout
		if out == nil {
			out = os.Stdout
		}
		if err := report.Write(out, cfg.Format, r.Columns(), rows); err != nil {
			return err
		}
	}

	if cfg.DBPath != "" {
		if err := p.export(ctx, dict, rows); err != nil {
			return err
		}
	}
	return nil
}

// preflight rejects translator settings that could only fail once the crawl
// or the dictionary download has started.
func (p *Pipeline) preflight() error {
	cfg := p.Config
	if !cfg.Translation || p.Translator != nil {
		return nil
	}
	switch cfg.Translator {
	case "openai":
		if GetOpenAIKey() == "" {
			return &ConfigError{fmt.Errorf("translator openai needs OPENAI_API_KEY")}
		}
	case "gemini":
		if GetGeminiKey() == "" {
			return &ConfigError{fmt.Errorf("translator gemini needs GEMINI_API_KEY or GOOGLE_API_KEY")}
		}
	}
	return nil
}

func (p *Pipeline) export(ctx context.Context, dict *dictionary.Index, rows []report.Row) error {
	cfg := p.Config
	conn, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open export db: %w", err)
	}
	defer conn.Close()

	ex := ingest.NewExporter(conn, dict)
	ex.Logger = p.logger()
	ex.Workers = cfg.Workers
	_, err = ex.Export(ctx, exportRun(cfg), rows)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// exportRun names the export source after the language and conferences.
func exportRun(cfg config.RunConfig) ingest.Run {
	confs := cfg.Conferences()
	names := make([]string, 0, len(confs))
	for _, c := range confs {
		names = append(names, c.String())
	}
	return ingest.Run{
		Language: cfg.Language.Code,
		Title:    fmt.Sprintf("%s %s", cfg.Language.Code, strings.Join(names, ",")),
		URL:      crawl.ListingURL(cfg.BaseURL, confs[0].Year, confs[0].Month, cfg.Language.Code),
		Meta:     fmt.Sprintf(`{"conferences":%d}`, len(confs)),
	}
}

func (p *Pipeline) needsDictionary() bool {
	cfg := p.Config
	if cfg.Language.Code != "jpn" {
		return false
	}
	return (cfg.Translation && cfg.Translator == "jmdict" && p.Translator == nil) || cfg.DBPath != ""
}

func (p *Pipeline) loadDictionary(ctx context.Context) (*dictionary.Index, error) {
	path := p.DictPath
	if path == "" {
		path = filepath.Join(filepath.Dir(config.DefaultCachePath()), dictionary.DefaultDictFileName)
	}
	if err := dictionary.EnsureDictionary(ctx, path); err != nil {
		return nil, fmt.Errorf("ensure dictionary: %w", err)
	}
	start := time.Now()
	entries, err := dictionary.LoadJMdictSimplified(path)
	if err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	idx := dictionary.NewIndex(entries)
	p.logger().Info("dictionary loaded", "entries", idx.Len(), "elapsed", time.Since(start).Round(time.Millisecond))
	return idx, nil
}

// translator builds the provider chain: memory and disk cache in front of a
// circuit breaker in front of the provider.
func (p *Pipeline) translator(ctx context.Context, cache *db.Cache, dict *dictionary.Index) (translate.Translator, error) {
	cfg := p.Config
	if !cfg.Translation {
		return nil, nil
	}

	provider := p.Translator
	if provider == nil {
		switch cfg.Translator {
		case "openai":
			provider = translate.NewOpenAI(GetOpenAIKey(), cfg.Language.Name, cfg.TargetLanguage)
		case "gemini":
			g, err := translate.NewGemini(ctx, GetGeminiKey(), "", cfg.Language.Name, cfg.TargetLanguage)
			if err != nil {
				return nil, &ConfigError{err}
			}
			provider = g
		case "jmdict":
			if dict == nil {
				return nil, fmt.Errorf("jmdict translator: dictionary not loaded")
			}
			provider = translate.NewJMdict(dict)
		default:
			return nil, nil
		}
	}

	guarded := translate.NewGuarded(provider, translate.DefaultBreakerSettings(cfg.Translator))
	opts := []translate.CacheOption{translate.WithLogger(p.logger())}
	if cache != nil {
		opts = append(opts, translate.WithStore(cache))
	}
	cached, err := translate.NewCached(guarded, translationCacheSize, cfg.Language.Code, cfg.TargetLanguage, opts...)
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// Run resolves the flags and executes the pipeline, writing the report to stdout
// unless an output file is configured.
func Run(ctx context.Context, flags *Flags, stdout, stderr io.Writer) error {
	cfg, err := flags.RunConfig(time.Now())
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	p := &Pipeline{Config: cfg, Logger: logger, Stdout: stdout}
	return p.Run(ctx)
}
