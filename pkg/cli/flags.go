package cli

import (
	"fmt"
	"time"

	"github.com/japaniel/talkwords/pkg/config"
)

// Flags holds all command-line flag values
type Flags struct {
	CfgFile string

	// Selection
	Language string
	Year     string
	Month    string
	Output   string
	Format   string

	// Columns
	IncludeLemma           bool
	IncludeTransliteration bool
	TranslateMin           int
	TranslateMax           int
	HideCount              bool
	ShowPOS                bool
	ShowSentence           bool

	// Translation
	Translator     string
	TargetLanguage string

	// Storage
	Cache     bool
	CachePath string
	DBPath    string

	// Crawl
	BaseURL string
	Retries int
	Workers int
	Seed    uint64

	Verbose bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Language:       "eng",
		Format:         "tsv",
		Translator:     "openai",
		TargetLanguage: "English",
		BaseURL:        config.DefaultBaseURL,
		Retries:        3,
		Workers:        1,
	}
}

// ConfigError marks invalid user input. The command exits with status 2 for it.
type ConfigError struct{ Err error }

func (e *ConfigError) Error() string { return e.Err.Error() }
func (e *ConfigError) Unwrap() error { return e.Err }

// RunConfig resolves and validates the flags relative to now.
func (f *Flags) RunConfig(now time.Time) (config.RunConfig, error) {
	lang, err := config.LookupLanguage(f.Language)
	if err != nil {
		return config.RunConfig{}, &ConfigError{err}
	}
	years, months, err := config.Resolve(f.Year, f.Month, now)
	if err != nil {
		return config.RunConfig{}, &ConfigError{err}
	}

	cachePath := f.CachePath
	if f.Cache && cachePath == "" {
		cachePath = config.DefaultCachePath()
	}
	cfg := config.RunConfig{
		Language: lang,
		Years:    years,
		Months:   months,
		Output:   f.Output,
		Features: config.Features{
			Lemma:           f.IncludeLemma,
			Transliteration: f.IncludeTransliteration,
			Translation:     f.TranslateMax > 0 && f.Translator != "none",
			POS:             f.ShowPOS,
			Sentence:        f.ShowSentence,
			HideCount:       f.HideCount,
		},
		TranslateMin:   f.TranslateMin,
		TranslateMax:   f.TranslateMax,
		Translator:     f.Translator,
		TargetLanguage: f.TargetLanguage,
		Cache:          f.Cache,
		CachePath:      cachePath,
		DBPath:         f.DBPath,
		Verbose:        f.Verbose,
		Seed:           f.Seed,
		Workers:        f.Workers,
		Retries:        f.Retries,
		Format:         f.Format,
		BaseURL:        f.BaseURL,
	}
	if err := cfg.Validate(); err != nil {
		return config.RunConfig{}, &ConfigError{fmt.Errorf("invalid configuration: %w", err)}
	}
	return cfg, nil
}
