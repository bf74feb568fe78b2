package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// passphraseEnv is read when --passphrase-file is not given.
const passphraseEnv = "XFORM_PASSPHRASE"

func (e *env) readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(e.stdin)
	}
	return os.ReadFile(args[0])
}

func (e *env) writeOutput(data []byte) error {
	if e.output == "" || e.output == "-" {
		_, err := e.stdout.Write(data)
		return err
	}
	return os.WriteFile(e.output, data, 0o600)
}

func (e *env) writeLine(s string) error {
	return e.writeOutput([]byte(s + "\n"))
}

func decodeHexFlag(name, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: --%s is required", errUsage, name)
	}
	b, err := hex.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: --%s: %v", errUsage, name, err)
	}
	return b, nil
}

// readPassphrase takes the passphrase from a file, the environment, or an
// interactive prompt, in that order. Trailing newlines are stripped.
func (e *env) readPassphrase(file string, confirm bool) ([]byte, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		return bytes.TrimRight(data, "\r\n"), nil
	}
	if p := os.Getenv(passphraseEnv); p != "" {
		return []byte(p), nil
	}

	f, ok := e.stdin.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil, fmt.Errorf("%w: no terminal for a passphrase prompt (use --passphrase-file or $%s)", errUsage, passphraseEnv)
	}
	pass, err := prompt(f, e.stderr, "Passphrase: ")
	if err != nil {
		return nil, err
	}
	if confirm {
		again, err := prompt(f, e.stderr, "Repeat passphrase: ")
		if err != nil {
			return nil, err
		}
		if !bytes.Equal(pass, again) {
			return nil, fmt.Errorf("%w: passphrases do not match", errUsage)
		}
	}
	return pass, nil
}

func prompt(f *os.File, w io.Writer, label string) ([]byte, error) {
	fmt.Fprint(w, label)
	pass, err := term.ReadPassword(int(f.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, fmt.Errorf("reading passphrase: %w", err)
	}
	return pass, nil
}
