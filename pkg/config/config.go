package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// FirstConferenceYear is the earliest year the archive carries talk transcripts for.
const FirstConferenceYear = 1971

// DefaultBaseURL is the archive host.
const DefaultBaseURL = "https://www.churchofjesuschrist.org"

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrInvalidYear         = errors.New("invalid year")
	ErrInvalidMonth        = errors.New("invalid month")
)

// Language describes an archive language.
type Language struct {
	// Code is the archive's lang= query value (e.g. "eng").
	Code string
	// Tag is used for case folding.
	Tag  language.Tag
	Name string
}

var languages = []Language{
	{Code: "eng", Tag: language.English, Name: "English"},
	{Code: "spa", Tag: language.Spanish, Name: "Spanish"},
	{Code: "por", Tag: language.Portuguese, Name: "Portuguese"},
	{Code: "fra", Tag: language.French, Name: "French"},
	{Code: "deu", Tag: language.German, Name: "German"},
	{Code: "ita", Tag: language.Italian, Name: "Italian"},
	{Code: "rus", Tag: language.Russian, Name: "Russian"},
	{Code: "ukr", Tag: language.Ukrainian, Name: "Ukrainian"},
	{Code: "jpn", Tag: language.Japanese, Name: "Japanese"},
	{Code: "kor", Tag: language.Korean, Name: "Korean"},
	{Code: "zho", Tag: language.Chinese, Name: "Chinese"},
}

// Languages returns the supported archive languages.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// LookupLanguage resolves an archive language code.
func LookupLanguage(code string) (Language, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range languages {
		if l.Code == code {
			return l, nil
		}
	}
	return Language{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// Features toggles the optional report columns and enrichment steps.
type Features struct {
	Lemma           bool
	Transliteration bool
	Translation     bool
	POS             bool
	Sentence        bool
	HideCount       bool
}

// RunConfig is the validated configuration of a single run.
type RunConfig struct {
	Language Language
	Years    []int
	Months   []string
	// Output is a file path; "" or "-" means standard output.
	Output string

	Features
	TranslateMin int
	TranslateMax int

	Translator     string
	TargetLanguage string

	Cache     bool
	CachePath string
	DBPath    string

	Verbose bool
	Seed    uint64
	Workers int
	Retries int
	Format  string
	BaseURL string
}

// Conference is one (year, month) pair to crawl.
type Conference struct {
	Year  int
	Month string
}

func (c Conference) String() string { return fmt.Sprintf("%d/%s", c.Year, c.Month) }

// Conferences expands Years x Months in crawl order.
func (c RunConfig) Conferences() []Conference {
	var out []Conference
	for _, y := range c.Years {
		for _, m := range c.Months {
			out = append(out, Conference{Year: y, Month: m})
		}
	}
	return out
}

// StdoutOutput reports whether the report goes to standard output.
func (c RunConfig) StdoutOutput() bool {
	return c.Output == "" || c.Output == "-"
}

// TranslateCount reports whether a word seen count times is within the translation bounds.
func (c RunConfig) TranslateCount(count int) bool {
	return c.Translation && count >= c.TranslateMin && count <= c.TranslateMax
}

var translators = map[string]bool{"none": true, "openai": true, "gemini": true, "jmdict": true}

// Validate checks cross-field constraints.
func (c RunConfig) Validate() error {
	if c.Language.Code == "" {
		return fmt.Errorf("%w: none specified", ErrUnsupportedLanguage)
	}
	if len(c.Years) == 0 {
		return fmt.Errorf("%w: none specified", ErrInvalidYear)
	}
	if len(c.Months) == 0 {
		return fmt.Errorf("%w: none specified", ErrInvalidMonth)
	}
	if c.TranslateMin < 0 || c.TranslateMax < 0 {
		return fmt.Errorf("translate bounds must be non-negative")
	}
	if c.Translation && c.TranslateMin > c.TranslateMax {
		return fmt.Errorf("translate-min (%d) exceeds translate-max (%d)", c.TranslateMin, c.TranslateMax)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries must be non-negative, got %d", c.Retries)
	}
	switch c.Format {
	case "tsv", "table":
	default:
		return fmt.Errorf("unknown output format %q (want tsv or table)", c.Format)
	}
	if !translators[c.Translator] {
		return fmt.Errorf("unknown translator %q", c.Translator)
	}
	if c.Translator == "jmdict" && c.Language.Code != "jpn" {
		return fmt.Errorf("the jmdict translator only supports jpn, not %s", c.Language.Code)
	}
	if c.Cache && c.CachePath == "" {
		return fmt.Errorf("cache enabled without a cache path")
	}
	return nil
}

// DefaultConference returns the most recent conference relative to now.
// Conferences are held in early April and early October.
func DefaultConference(now time.Time) Conference {
	m := now.Month()
	switch {
	case m >= time.May && m <= time.September:
		return Conference{Year: now.Year(), Month: "04"}
	case m >= time.October:
		return Conference{Year: now.Year(), Month: "10"}
	default:
		return Conference{Year: now.Year() - 1, Month: "10"}
	}
}

// Resolve turns the raw year and month arguments into sorted year and month lists.
// With neither given, the most recent conference is used.
func Resolve(yearSpec, monthSpec string, now time.Time) ([]int, []string, error) {
	yearSpec = strings.TrimSpace(yearSpec)
	monthSpec = strings.TrimSpace(monthSpec)
	def := DefaultConference(now)

	var years []int
	if yearSpec == "" {
		if monthSpec == "" {
			years = []int{def.Year}
		} else {
			years = []int{now.Year()}
		}
	} else {
		var err error
		if years, err = ParseYears(yearSpec, now); err != nil {
			return nil, nil, err
		}
	}

	var months []string
	if monthSpec == "" {
		months = []string{def.Month}
	} else {
		var err error
		if months, err = ParseMonths(monthSpec); err != nil {
			return nil, nil, err
		}
	}
	return years, months, nil
}

// ParseYears accepts "2020", "2018-2020" or "2018,2020,2022" (ranges allowed inside lists).
func ParseYears(spec string, now time.Time) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return []int{now.Year()}, nil
	}
	seen := make(map[int]bool)
	var years []int
	add := func(y int) error {
		if y < FirstConferenceYear || y > now.Year() {
			return fmt.Errorf("%w: %d is outside %d-%d", ErrInvalidYear, y, FirstConferenceYear, now.Year())
		}
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
		return nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty element in %q", ErrInvalidYear, spec)
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			from, err := parseYear(lo)
			if err != nil {
				return nil, err
			}
			to, err := parseYear(hi)
			if err != nil {
				return nil, err
			}
			if from > to {
				return nil, fmt.Errorf("%w: range %q is reversed", ErrInvalidYear, part)
			}
			for y := from; y <= to; y++ {
				if err := add(y); err != nil {
					return nil, err
				}
			}
			continue
		}
		y, err := parseYear(part)
		if err != nil {
			return nil, err
		}
		if err := add(y); err != nil {
			return nil, err
		}
	}
	sort.Ints(years)
	return years, nil
}

func parseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) != 4 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	y, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidYear, s)
	}
	return y, nil
}

// ParseMonths accepts 04, 4, april, 10, october, both, or a comma list of those.
// The result is ordered April first.
func ParseMonths(spec string) ([]string, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("%w: none specified", ErrInvalidMonth)
	}
	var april, october bool
	for _, part := range strings.Split(spec, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "04", "4", "apr", "april":
			april = true
		case "10", "oct", "october":
			october = true
		case "both", "all":
			april, october = true, true
		default:
			return nil, fmt.Errorf("%w: %q (conferences are held in 04 and 10)", ErrInvalidMonth, part)
		}
	}
	var months []string
	if april {
		months = append(months, "04")
	}
	if october {
		months = append(months, "10")
	}
	return months, nil
}

// DefaultCachePath is the SQLite cache location used when --cache is set without --cache-path.
func DefaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "talkwords", "cache.db")
	}
	return "talkwords-cache.db"
}
