// Command lispcore is the interpreter's CLI: an interactive REPL plus
// a `run` subcommand for scripts. Restructured onto cobra/pflag (the
// teacher's cmd/main.go is a single flag.Parse() shot) because a REPL
// needs a command tree the teacher's single-mode generator CLI never
// did.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/lispcore/lispcore"
	"github.com/lispcore/lispcore/builtin/fileio"
	"github.com/lispcore/lispcore/builtin/mathlib"
	"github.com/lispcore/lispcore/format"
	"github.com/lispcore/lispcore/prelude"
	"github.com/lispcore/lispcore/printer"
	"github.com/lispcore/lispcore/reader"
)

var (
	configPath  string
	preludePath string
	noPrelude   bool
)

func main() {
	root := &cobra.Command{
		Use:   "lispcore",
		Short: "An embeddable Lisp-family interpreter",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file")
	root.PersistentFlags().StringVar(&preludePath, "prelude", prelude.DefaultPath, "path to the bootstrap prelude script")
	root.PersistentFlags().BoolVar(&noPrelude, "no-prelude", false, "skip loading the prelude")

	root.AddCommand(versionCmd(), replCmd(), runCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the interpreter version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(lispcore.Version)
			return nil
		},
	}
}

func newInterp() (*lispcore.Interp, error) {
	cfg := lispcore.NewConfig()
	if configPath != "" {
		if err := cfg.LoadFile(configPath); err != nil {
			return nil, err
		}
	}
	it := lispcore.NewInterp(cfg)
	if err := mathlib.Install(it); err != nil {
		return nil, err
	}
	if err := format.Install(it); err != nil {
		return nil, err
	}
	fs := afero.NewOsFs()
	if err := fileio.Install(it, fs); err != nil {
		return nil, err
	}
	if !noPrelude {
		if err := prelude.LoadFile(it, fs, preludePath); err != nil {
			return nil, err
		}
	}
	return it, nil
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [file]",
		Short: "Evaluate a script file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := newInterp()
			if err != nil {
				return err
			}
			defer it.Destroy()

			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			forms, err := reader.New(it, args[0], string(src)).ReadAll()
			if err != nil {
				return err
			}
			for _, form := range forms {
				result := it.EvalTopLevel(form)
				if it.HasError() {
					it.PError(args[0])
					return nil
				}
				_ = result
			}
			return nil
		},
	}
}

func replCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive read-eval-print loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			it, err := newInterp()
			if err != nil {
				return err
			}
			defer it.Destroy()
			runRepl(it, os.Stdin, os.Stdout)
			return nil
		},
	}
}

func runRepl(it *lispcore.Interp, in *os.File, out *os.File) {
	scanner := bufio.NewScanner(in)
	fmt.Fprintf(out, "lispcore %s\n", lispcore.Version)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		form, ok, err := reader.New(it, "<repl>", line).ReadOne()
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if !ok {
			continue
		}
		result := it.EvalTopLevel(form)
		if it.HasError() {
			it.PError("repl")
			it.ClearError()
			continue
		}
		fmt.Fprintln(out, printer.Print(it, result))
	}
}
