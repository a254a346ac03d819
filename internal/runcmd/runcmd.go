// Package runcmd implements the kestrel command line: run a single script
// file and report the result.
package runcmd

import (
	"context"
	"fmt"
	"os"

	"github.com/caarlos0/env/v6"
	"github.com/mattn/go-isatty"
	"github.com/mna/mainer"

	"github.com/kestrel-lang/kestrel/lang/builtins"
	"github.com/kestrel-lang/kestrel/lang/eval"
	"github.com/kestrel-lang/kestrel/lang/parser"
)

// envConfig holds the environment-variable overrides kestrel reads at
// startup, struct-tag-driven the same way mainer.Parser drives flags.
type envConfig struct {
	MaxSteps int  `env:"KESTREL_MAX_STEPS" envDefault:"0"`
	NoColor  bool `env:"KESTREL_NO_COLOR" envDefault:"false"`
}

const binName = "kestrel"

// Exit codes, fixed by the external contract a caller of kestrel scripts
// against: 0 on success, and a distinct code per failure class so a calling
// process can tell a missing script from a script that failed to run.
const (
	ExitSuccess          = 0
	ExitMissingProgName  = 101
	ExitMissingScriptArg = 102
	ExitFailure          = 103
)

var shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <script>
Run '%[1]s --help' for details.
`, binName)

var longUsage = fmt.Sprintf(`usage: %s [<option>...] <script>
       %[1]s -h|--help
       %[1]s -v|--version

Runs a single kestrel script file.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)

// Cmd is the kestrel command. It mirrors mna/mainer's Cmd convention (struct
// tags drive flag parsing via mainer.Parser) but reports its own fixed exit
// codes rather than mainer.ExitCode's, since those codes are part of
// kestrel's external contract and must not drift with the library.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)      { c.args = args }
func (c *Cmd) SetFlags(map[string]bool) {}

// Main parses args, runs the named script, and returns the process exit
// code. args is the raw argument list including the program name, as
// returned by os.Args.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) int {
	if len(args) == 0 {
		fmt.Fprintln(stdio.Stderr, "kestrel: missing program name")
		return ExitMissingProgName
	}

	p := mainer.Parser{EnvVars: false, EnvPrefix: binName + "_"}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return ExitMissingScriptArg
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return ExitSuccess
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return ExitSuccess
	}

	if len(c.args) == 0 {
		fmt.Fprintln(stdio.Stderr, "kestrel: missing script argument")
		fmt.Fprint(stdio.Stderr, shortUsage)
		return ExitMissingScriptArg
	}

	_ = mainer.CancelOnSignal(context.Background(), os.Interrupt)

	var cfg envConfig
	_ = env.Parse(&cfg) // bad/missing env values just keep the zero-value defaults

	return runScript(c.args[0], stdio, cfg)
}

func runScript(path string, stdio mainer.Stdio, cfg envConfig) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", path, err)
		return ExitFailure
	}

	prog, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s:%s\n", path, err)
		return ExitFailure
	}

	reg := builtins.New(stdio.Stdout)
	ip := &eval.Interp{Path: path, Builtins: reg, MaxSteps: cfg.MaxSteps}
	scopes := eval.NewScopeStack([]*eval.Scope{eval.NewScope()})

	if err := eval.EvalProgram(ip, scopes, reg.Globals(), prog); err != nil {
		printDiagnostic(stdio, path, err, useColor(stdio, cfg))
		return ExitFailure
	}
	return ExitSuccess
}

// useColor decides whether diagnostics should be colorized: never if
// KESTREL_NO_COLOR is set, otherwise only when stderr is a real terminal.
func useColor(stdio mainer.Stdio, cfg envConfig) bool {
	if cfg.NoColor {
		return false
	}
	f, ok := stdio.Stderr.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// printDiagnostic renders err as "path:line:col: message" followed by
// "Stacktrace:" and one indented entry per call frame, deepest first.
func printDiagnostic(stdio mainer.Stdio, path string, err error, color bool) {
	msg, frames := eval.Stacktrace(path, err)
	header := fmt.Sprintf("%s:%s", path, msg)
	if color {
		header = "\033[31m" + header + "\033[0m"
	}
	fmt.Fprintln(stdio.Stderr, header)
	if len(frames) == 0 {
		return
	}
	fmt.Fprintln(stdio.Stderr, "Stacktrace:")
	for _, f := range frames {
		fmt.Fprintf(stdio.Stderr, "    %s\n", f)
	}
}
