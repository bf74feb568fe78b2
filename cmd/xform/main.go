// xform applies the xform buffer transformations to files and pipes.
//
// Usage:
//
//	xform <command> [flags] [file]
//
// Input is read from file, or stdin when no file (or "-") is given. Output
// goes to stdout unless -o names a file. Run "xform help" for the command list.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/TheusHen/xform/xform"
	"github.com/TheusHen/xform/xform/config"
)

type command struct {
	summary string
	run     func(e *env, args []string) error
}

var commands = map[string]command{
	"compress":   {"wrap input in a compressed container", runCompress},
	"decompress": {"unwrap a compressed container", runDecompress},
	"inspect":    {"describe a container or sealed blob", runInspect},
	"encrypt":    {"AES-CBC encrypt with a hex key and IV", runEncrypt},
	"decrypt":    {"AES-CBC decrypt with a hex key and IV", runDecrypt},
	"seal":       {"compress and encrypt under a passphrase", runSeal},
	"open":       {"authenticate and decrypt a sealed blob", runOpen},
	"digest":     {"print a hex digest", runDigest},
	"crc32":      {"print the CRC32 checksum", runCRC32},
	"b64enc":     {"base64 encode", runB64Enc},
	"b64dec":     {"base64 decode", runB64Dec},
	"derive":     {"derive keys with PBKDF2", runDerive},
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "xform: %v\n", err)
		if errors.Is(err, xform.ErrInvalidParameter) || errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("usage error")

// env carries the streams and settings shared by every command.
type env struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	log    *logrus.Logger

	output     string
	configPath string
	logLevel   string
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(stderr)
		if len(args) == 0 {
			return errUsage
		}
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	e := &env{stdin: stdin, stdout: stdout, stderr: stderr}
	return cmd.run(e, args[1:])
}

// flags returns a flag set with the options every command accepts.
func (e *env) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVarP(&e.output, "output", "o", "", "write output to `file` instead of stdout")
	fs.StringVar(&e.configPath, "config", "", "configuration `file` (default $"+config.EnvVar+")")
	fs.StringVar(&e.logLevel, "log-level", "", "log level: panic, fatal, error, warn, info, debug, trace")
	return fs
}

// parse parses args, loads configuration and installs the logger. It returns
// the positional arguments.
func (e *env) parse(fs *pflag.FlagSet, args []string) ([]string, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, errUsage
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}

	var err error
	if e.configPath != "" {
		e.cfg, err = config.Load(e.configPath)
	} else {
		e.cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	level := e.cfg.LogLevel()
	if e.logLevel != "" {
		if level, err = logrus.ParseLevel(e.logLevel); err != nil {
			return nil, fmt.Errorf("%w: %v", errUsage, err)
		}
	}
	e.log = logrus.New()
	e.log.SetOutput(e.stderr)
	e.log.SetLevel(level)
	e.log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	xform.SetLogger(e.log)

	if fs.NArg() > 1 {
		return nil, fmt.Errorf("%w: %s takes at most one input file", errUsage, fs.Name())
	}
	return fs.Args(), nil
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: xform <command> [flags] [file]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-11s %s\n", name, commands[name].summary)
	}
}
