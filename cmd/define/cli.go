package main

import "time"

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Words    []string      `arg:"" optional:"" help:"Words to look up. Reads words from stdin when omitted."`
	BaseURL  string        `name:"base-url" env:"DICTIONARY_BASE_URL" default:"${base_url}" help:"Definition service base URL"`
	Timeout  time.Duration `env:"DICTIONARY_TIMEOUT" default:"0s" help:"Per-lookup timeout, 0 waits indefinitely"`
	Theme    string        `enum:"light,dark" default:"dark" help:"Background of rendered definitions (light or dark)"`
	Ordering string        `enum:"completion,initiation" env:"SEARCH_ORDERING" default:"completion" help:"Which overlapping search decides the result"`
	LogLevel string        `name:"log-level" default:"warn" help:"Log level written to stderr"`
}

const (
	themeCommand = ":theme"
	quitCommand  = ":quit"
	prompt       = "> "
)
