package cli

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/japaniel/talkwords/pkg/config"
)

var now = time.Date(2024, time.November, 2, 0, 0, 0, 0, time.UTC)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Language", flags.Language, "eng"},
		{"Format", flags.Format, "tsv"},
		{"Translator", flags.Translator, "openai"},
		{"TargetLanguage", flags.TargetLanguage, "English"},
		{"BaseURL", flags.BaseURL, config.DefaultBaseURL},
		{"Retries", flags.Retries, 3},
		{"Workers", flags.Workers, 1},
		{"TranslateMax", flags.TranslateMax, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestRunConfigDefaults(t *testing.T) {
	cfg, err := NewFlags().RunConfig(now)
	if err != nil {
		t.Fatalf("RunConfig failed: %v", err)
	}
	if cfg.Language.Code != "eng" {
		t.Errorf("language = %q, want eng", cfg.Language.Code)
	}
	if !reflect.DeepEqual(cfg.Years, []int{2024}) || !reflect.DeepEqual(cfg.Months, []string{"10"}) {
		t.Errorf("default conference = %v %v, want [2024] [10]", cfg.Years, cfg.Months)
	}
	if cfg.Translation {
		t.Error("translation should be off while translate-max is 0")
	}
	if !cfg.StdoutOutput() {
		t.Error("report should default to stdout")
	}
}

func TestRunConfigTranslationSwitch(t *testing.T) {
	flags := NewFlags()
	flags.TranslateMin, flags.TranslateMax = 2, 5
	cfg, err := flags.RunConfig(now)
	if err != nil {
		t.Fatalf("RunConfig failed: %v", err)
	}
	if !cfg.Translation {
		t.Error("translation should be on when translate-max > 0")
	}

	flags.Translator = "none"
	cfg, err = flags.RunConfig(now)
	if err != nil {
		t.Fatalf("RunConfig failed: %v", err)
	}
	if cfg.Translation {
		t.Error("translator none must disable translation")
	}
}

func TestRunConfigCachePath(t *testing.T) {
	flags := NewFlags()
	flags.Cache = true
	cfg, err := flags.RunConfig(now)
	if err != nil {
		t.Fatalf("RunConfig failed: %v", err)
	}
	if cfg.CachePath != config.DefaultCachePath() {
		t.Errorf("cache path = %q, want %q", cfg.CachePath, config.DefaultCachePath())
	}
}

func TestRunConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *Flags)
		target error
	}{
		{"unknown language", func(f *Flags) { f.Language = "xxx" }, config.ErrUnsupportedLanguage},
		{"future year", func(f *Flags) { f.Year = "2030" }, config.ErrInvalidYear},
		{"bad month", func(f *Flags) { f.Month = "07" }, config.ErrInvalidMonth},
		{"reversed bounds", func(f *Flags) { f.TranslateMin, f.TranslateMax = 9, 3 }, nil},
		{"bad format", func(f *Flags) { f.Format = "xml" }, nil},
		{"jmdict outside japanese", func(f *Flags) { f.Translator = "jmdict" }, nil},
		{"no workers", func(f *Flags) { f.Workers = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := NewFlags()
			tt.modify(flags)
			_, err := flags.RunConfig(now)
			if err == nil {
				t.Fatal("expected an error")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("error %v is not a ConfigError", err)
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("error %v does not wrap %v", err, tt.target)
			}
		})
	}
}
