// Command base32url encodes decimal integers as base32url strings and back.
//
// Usage:
//
//	base32url [-length N] [-split N] [-checksum] [-v] encode|decode|normalize|valid [INPUT...]
//
// Without INPUT arguments, inputs are read from stdin, one per line. Results
// are written to stdout, one per line. Defaults for the flags can be given in
// BASE32URL_OPTIONS (for example "length=8,split=4,checksum") and
// BASE32URL_VERBOSE.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/paraglidehq/base32url/internal/cli"
)

func main() {
	cfg, err := cli.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		exitf("parse flags: %v", err)
	}
	logger, err := cli.NewLogger(cfg.Verbose)
	if err != nil {
		exitf("create logger: %v", err)
	}
	defer logger.Sync()

	if err := cli.Run(cfg, os.Stdin, os.Stdout, logger); err != nil {
		logger.Sync()
		exitf("%s: %v", cfg.Command, err)
	}
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
