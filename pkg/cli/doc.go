// Package cli provides the talkwords command: flag parsing, configuration
// file and environment overrides, and assembly of the crawl, aggregate and
// report pipeline. It uses cobra and viper.
package cli
