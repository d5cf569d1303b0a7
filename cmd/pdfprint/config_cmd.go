package main

import (
	"fmt"

	"github.com/alnah/go-pdfprint/internal/yamlutil"
)

// runConfig prints the effective configuration as YAML after layering the
// config file, PDFPRINT_* variables and flags. It takes the print flags, so
// "pdfprint config <flags>" shows what "pdfprint print <flags>" would use.
func runConfig(args []string, env *Environment) error {
	flags, positional, err := parsePrintFlags(args, env.Stderr)
	if err != nil {
		return err
	}
	if len(positional) > 0 {
		return fmt.Errorf("%w: config takes no input, got %q", ErrTooManyInputs, positional[0])
	}

	cfg, err := resolveConfig(flags, env)
	if err != nil {
		return err
	}

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(out)
	return err
}
