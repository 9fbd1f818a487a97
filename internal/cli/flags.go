package cli

import (
	"errors"
	"flag"
	"io"
)

// AutoClearFlags are the flags of the autoclear command
type AutoClearFlags struct {
	Account    string
	Target     string
	DryRun     bool
	ConfigPath string
	Verbose    bool
}

// ParseAutoClearFlags parses autoclear flags from args (without the program name)
func ParseAutoClearFlags(args []string, output io.Writer) (AutoClearFlags, error) {
	var flags AutoClearFlags
	fs := flag.NewFlagSet("autoclear", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&flags.Account, "account", "", "Account ID to reconcile (required)")
	fs.StringVar(&flags.Target, "target", "", "Statement ending balance, e.g. -869.30 (required)")
	fs.BoolVar(&flags.DryRun, "dry-run", false, "Report the splits that would clear without clearing them")
	fs.StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to config file")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")

	if err := fs.Parse(args); err != nil {
		return flags, err
	}
	if flags.Account == "" {
		return flags, errors.New("-account is required")
	}
	if flags.Target == "" {
		return flags, errors.New("-target is required")
	}
	return flags, nil
}

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	Port       int
	ConfigPath string
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
// A zero Port means the configured port is used.
func ParseServeFlags(args []string, output io.Writer) (ServeFlags, error) {
	var flags ServeFlags
	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&flags.Port, "port", 0, "Port to listen on (default from config)")
	fs.StringVar(&flags.ConfigPath, "config", "config.yaml", "Path to config file")
	fs.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	err := fs.Parse(args)
	return flags, err
}
