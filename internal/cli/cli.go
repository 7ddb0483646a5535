// Package cli holds the pieces every command shares: flag parsing with
// long and short names, the stderr logger, and the mapping from errors
// to exit codes.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"bwestbro.com/gausswrangler/internal/status"
)

// LogLevelEnv overrides the default log level when set
const LogLevelEnv = "GAUSSW_LOG_LEVEL"

// NewLogger returns a text logger writing to w. The time attribute is
// dropped so that tool output is reproducible.
func NewLogger(w io.Writer, levelStr string) *slog.Logger {
	if levelStr == "" {
		levelStr = os.Getenv(LogLevelEnv)
	}
	var level slog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// NewFlagSet returns a FlagSet that reports errors instead of exiting
// and writes usage to w. desc is printed above the flag defaults.
func NewFlagSet(name, usage, desc string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	fs.Usage = func() {
		fmt.Fprintf(w, "usage: %s %s\n\n%s\n\noptions:\n", name, usage, desc)
		fs.PrintDefaults()
	}
	return fs
}

// String defines a string flag under both a short and a long name
func String(fs *flag.FlagSet, p *string, short, long, value, usage string) {
	fs.StringVar(p, short, value, usage)
	if long != "" {
		fs.StringVar(p, long, value, "same as -"+short)
	}
}

// Bool defines a bool flag under both a short and a long name
func Bool(fs *flag.FlagSet, p *bool, short, long string, value bool, usage string) {
	fs.BoolVar(p, short, value, usage)
	if long != "" {
		fs.BoolVar(p, long, value, "same as -"+short)
	}
}

// Int defines an int flag under both a short and a long name
func Int(fs *flag.FlagSet, p *int, short, long string, value int, usage string) {
	fs.IntVar(p, short, value, usage)
	if long != "" {
		fs.IntVar(p, long, value, "same as -"+short)
	}
}

// Parse parses args with fs, allowing flags to follow positional
// arguments. help is true when -h or --help was given.
func Parse(fs *flag.FlagSet, args []string) (pos []string, help bool, err error) {
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, true, nil
			}
			return nil, false, status.Errorf(status.Input, "%v", err)
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, false, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// Exit logs err, if any, and returns the matching exit code
func Exit(logger *slog.Logger, err error) int {
	if err == nil {
		return status.GoodRet
	}
	k, _ := status.KindOf(err)
	logger.Error(k.String(), "err", err.Error())
	return status.Code(err)
}
