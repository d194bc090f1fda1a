// Command tomlfix normalizes a pyproject-style TOML file in place, keeping a
// timestamped backup of the original.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-html2tex/internal/tomlfix"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Exit codes for tomlfix.
const (
	ExitSuccess    = 0 // Fixed, or nothing to fix
	ExitError      = 1 // Usage, read, syntax or write errors
	ExitUnexpected = 2 // Anything that escaped normal error handling
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer
}

func main() {
	os.Exit(run(os.Args, &Environment{Now: time.Now, Stdout: os.Stdout, Stderr: os.Stderr}))
}

// run executes the command and returns its exit code.
func run(args []string, env *Environment) (code int) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(env.Stderr, "Critical error: %v\n", r)
			code = ExitUnexpected
		}
	}()

	fs := flag.NewFlagSet("tomlfix", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	showVersion := fs.BoolP("version", "v", false, "print version and exit")
	fs.Usage = func() {
		fmt.Fprintln(env.Stderr, "Usage: tomlfix <file.toml>")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitError
	}
	if *showVersion {
		fmt.Fprintf(env.Stdout, "tomlfix %s\n", Version)
		return ExitSuccess
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return ExitError
	}

	res, err := tomlfix.FixFile(fs.Arg(0), env.Now())
	switch {
	case errors.Is(err, tomlfix.ErrInvalidSyntax):
		fmt.Fprintln(env.Stdout, "Invalid TOML syntax:", strings.TrimPrefix(err.Error(), tomlfix.ErrInvalidSyntax.Error()+": "))
		return ExitError
	case err != nil:
		fmt.Fprintf(env.Stderr, "Error: %v\n", err)
		return ExitError
	case res.Changed:
		fmt.Fprintf(env.Stdout, "Created backup at %s\n", res.Backup)
		fmt.Fprintln(env.Stdout, "Changes applied successfully!")
	default:
		fmt.Fprintln(env.Stdout, "No changes required.")
	}
	return ExitSuccess
}
