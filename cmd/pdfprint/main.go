package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches a command and returns the process exit code.
// args includes the program name.
func runMain(args []string, env *Environment) int {
	setMaxProcs(args, env)

	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	ctx, stop := notifyContext(context.Background())
	defer stop()

	cmd, rest := args[1], args[2:]
	var err error
	switch cmd {
	case "print":
		err = runPrint(ctx, rest, env)
	case "pages":
		err = runPages(ctx, rest, env)
	case "config":
		err = runConfig(rest, env)
	case "doctor":
		return runDoctorCmd(rest, env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "go-pdfprint %s\n", Version)
		return ExitSuccess
	case "help", "-h", "--help":
		runHelp(rest, env)
		return ExitSuccess
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		printUsage(env.Stderr)
	}

	if errors.Is(err, flag.ErrHelp) {
		return ExitSuccess
	}
	if err != nil {
		fmt.Fprintln(env.Stderr, "error:", err)
	}
	return exitCodeFor(err)
}

// setMaxProcs matches GOMAXPROCS to the container CPU quota. It only talks
// when -v/--verbose is on the command line.
func setMaxProcs(args []string, env *Environment) {
	logf := func(string, ...interface{}) {}
	for _, a := range args {
		if a == "-v" || a == "--verbose" {
			logf = func(format string, v ...interface{}) {
				fmt.Fprintf(env.Stderr, format+"\n", v...)
			}
			break
		}
	}
	// Error ignored: maxprocs.Set only fails on an invalid GOMAXPROCS env,
	// in which case runtime defaults apply.
	_, _ = maxprocs.Set(maxprocs.Logger(logf))
}
