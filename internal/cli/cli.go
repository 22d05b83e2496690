// Package cli implements the base32url command.
package cli

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"

	"github.com/paraglidehq/base32url"
)

// Commands lists the accepted subcommands.
var Commands = []string{"encode", "decode", "normalize", "valid"}

// ErrFailed is returned by Run when at least one input could not be processed.
var ErrFailed = errors.New("some inputs failed")

// Config holds the parsed command line.
type Config struct {
	Command string
	Options base32url.Options
	Verbose bool
	// Inputs are processed in order. When empty, Run reads one input per line.
	Inputs []string
}

type envConfig struct {
	Options string `env:"BASE32URL_OPTIONS"`
	Verbose bool   `env:"BASE32URL_VERBOSE"`
}

// ParseConfig reads defaults from the environment, then parses flags and the
// subcommand from args. Flags override the environment.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	opts, err := base32url.ParseOptions(ec.Options)
	if err != nil {
		return Config{}, fmt.Errorf("parse BASE32URL_OPTIONS: %w", err)
	}

	cfg := Config{Options: opts, Verbose: ec.Verbose}
	fs.IntVar(&cfg.Options.Length, "length", cfg.Options.Length, "minimum encoded length, hyphens excluded")
	fs.IntVar(&cfg.Options.Split, "split", cfg.Options.Split, "insert a hyphen every n characters")
	fs.BoolVar(&cfg.Options.Checksum, "checksum", cfg.Options.Checksum, "append or verify two check digits")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "log every input")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, fmt.Errorf("missing command, want one of %s", strings.Join(Commands, ", "))
	}
	cfg.Command, cfg.Inputs = rest[0], rest[1:]
	if !isCommand(cfg.Command) {
		return Config{}, fmt.Errorf("unknown command %q, want one of %s", cfg.Command, strings.Join(Commands, ", "))
	}
	if cfg.Options.Length < 0 || cfg.Options.Split < 0 {
		return Config{}, base32url.ErrInvalidOptions
	}
	return cfg, nil
}

func isCommand(name string) bool {
	for _, c := range Commands {
		if c == name {
			return true
		}
	}
	return false
}

// NewLogger returns a console logger writing to stderr. Verbose enables debug
// output.
func NewLogger(verbose bool) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.DisableStacktrace = true
	return zc.Build()
}

// Run applies cfg.Command to every input and writes one result per line to
// out. Inputs that fail are logged and skipped; Run then returns ErrFailed.
func Run(cfg Config, in io.Reader, out io.Writer, logger *zap.Logger) error {
	if out == nil {
		return errors.New("output is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("command", cfg.Command), zap.Stringer("options", cfg.Options))

	next, err := inputs(cfg.Inputs, in)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	failed := 0
	for {
		input, ok, err := next()
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		if !ok {
			break
		}
		result, err := apply(cfg, input)
		if err != nil {
			failed++
			logger.Warn("input failed", zap.String("input", input), zap.Error(err))
			continue
		}
		logger.Debug("input done", zap.String("input", input), zap.String("result", result))
		if _, err := fmt.Fprintln(w, result); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d", ErrFailed, failed)
	}
	return nil
}

func apply(cfg Config, input string) (string, error) {
	switch cfg.Command {
	case "encode":
		n, ok := new(big.Int).SetString(input, 10)
		if !ok {
			return "", fmt.Errorf("not a decimal integer: %q", input)
		}
		return base32url.Encode(n, cfg.Options)
	case "decode":
		n, err := base32url.Parse(input, cfg.Options)
		if err != nil {
			return "", err
		}
		return n.String(), nil
	case "normalize":
		return base32url.Normalize(input, cfg.Options), nil
	case "valid":
		return strconv.FormatBool(base32url.Valid(input, cfg.Options)), nil
	default:
		return "", fmt.Errorf("unknown command %q", cfg.Command)
	}
}

// inputs yields args, or the non-blank lines of in when args is empty.
func inputs(args []string, in io.Reader) (func() (string, bool, error), error) {
	if len(args) > 0 {
		i := 0
		return func() (string, bool, error) {
			if i == len(args) {
				return "", false, nil
			}
			i++
			return args[i-1], true, nil
		}, nil
	}
	if in == nil {
		return nil, errors.New("no inputs")
	}
	sc := bufio.NewScanner(in)
	return func() (string, bool, error) {
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				return line, true, nil
			}
		}
		return "", false, sc.Err()
	}, nil
}
