package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// CreateRootCommand creates and configures the root cobra command. Values from
// the config file and TALKWORDS_* environment variables fill in every flag not
// given on the command line.
func CreateRootCommand(flags *Flags) *cobra.Command {
	v := viper.New()
	rootCmd := &cobra.Command{
		Use:   "talkwords",
		Short: "Word statistics for general conference talks",
		Long: `talkwords crawls the general conference archive for one language and a set
of conferences, counts every word in the talks and writes a tab-separated
report sorted by frequency.

Examples:
  talkwords -l spa -y 2019 -m both -o words.tsv
  talkwords -l jpn -y 2018-2020 --include-transliteration --show-pos
  talkwords -l eng --translate-min 3 --translate-max 10 --target-language Spanish`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := InitConfig(v, flags.CfgFile); err != nil {
				return &ConfigError{err}
			}
			if err := applyConfig(cmd, v); err != nil {
				return &ConfigError{err}
			}
			return nil
		},
	}
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ConfigError{err}
	})

	setupFlags(rootCmd, flags)
	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.talkwords.yaml)")

	f := cmd.Flags()
	f.StringVarP(&flags.Language, "language", "l", flags.Language, "Archive language code (eng, spa, por, fra, deu, ita, rus, ukr, jpn, kor, zho)")
	f.StringVarP(&flags.Year, "year", "y", "", "Year, range (2018-2020) or list (2018,2020); default is the latest conference")
	f.StringVarP(&flags.Month, "month", "m", "", "Conference month: 04, 10 or both")
	f.StringVarP(&flags.Output, "output", "o", "", "Output file (default stdout)")
	f.StringVar(&flags.Format, "format", flags.Format, "Output format: tsv or table")

	f.BoolVar(&flags.IncludeLemma, "include-lemma", false, "Add the LEMMA column")
	f.BoolVar(&flags.IncludeTransliteration, "include-transliteration", false, "Add the TRANSLITERATION column")
	f.IntVar(&flags.TranslateMin, "translate-min", 0, "Translate words seen at least this many times")
	f.IntVar(&flags.TranslateMax, "translate-max", 0, "Translate words seen at most this many times (0 disables translation)")
	f.BoolVar(&flags.HideCount, "hide-count", false, "Drop the WORD COUNT column")
	f.BoolVar(&flags.ShowPOS, "show-pos", false, "Add the POS column")
	f.BoolVar(&flags.ShowSentence, "show-sentence", false, "Add a random EXAMPLE SENTENCE column")

	f.StringVar(&flags.Translator, "translator", flags.Translator, "Translation provider: openai, gemini, jmdict or none")
	f.StringVar(&flags.TargetLanguage, "target-language", flags.TargetLanguage, "Language to translate into")

	f.BoolVar(&flags.Cache, "cache", false, "Cache pages and translations in SQLite")
	f.StringVar(&flags.CachePath, "cache-path", "", "Cache database path (default in the user cache dir)")
	f.StringVar(&flags.DBPath, "db", "", "Also export the words into this SQLite database")

	f.StringVar(&flags.BaseURL, "base-url", flags.BaseURL, "Archive base URL")
	f.IntVar(&flags.Retries, "retries", flags.Retries, "Retries for transient fetch failures")
	f.IntVar(&flags.Workers, "workers", flags.Workers, "Concurrent talk downloads")
	f.Uint64Var(&flags.Seed, "seed", 0, "Seed for example sentence selection (0 picks a random seed)")

	f.BoolVarP(&flags.Verbose, "verbose", "v", false, "Debug logging")
}

// applyConfig copies config file and environment values onto flags that were
// not set on the command line.
func applyConfig(cmd *cobra.Command, v *viper.Viper) error {
	var errs []error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "config" || f.Name == "help" || !v.IsSet(f.Name) {
			return
		}
		if err := cmd.Flags().Set(f.Name, v.GetString(f.Name)); err != nil {
			errs = append(errs, fmt.Errorf("config value for %s: %w", f.Name, err))
		}
	})
	return errors.Join(errs...)
}

// InitConfig initializes viper configuration and loads a .env file if present.
func InitConfig(v *viper.Viper, cfgFile string) error {
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".talkwords")
	}

	// Environment variables
	v.SetEnvPrefix("TALKWORDS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// GetOpenAIKey retrieves the OpenAI API key from the environment.
func GetOpenAIKey() string {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("TALKWORDS_OPENAI_KEY")
}

// GetGeminiKey retrieves the Gemini API key from the environment.
func GetGeminiKey() string {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "TALKWORDS_GEMINI_KEY"} {
		if key := os.Getenv(name); key != "" {
			return key
		}
	}
	return ""
}
