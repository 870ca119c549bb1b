// Command sdkcall issues one SDK request from the shell and prints the resulting envelope.
//
//	sdkcall request GET /items/1 --api-url https://api.example.com --token $TOKEN
//	sdkcall request POST /items --config sdk.yaml --data '{"name":"x"}' -o table
//	sdkcall version -o json
package main

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	exitConfig  = 1
	exitFailure = 2
)

// exitError carries a process exit code. A silent one has already been reported.
type exitError struct {
	code   int
	err    error
	silent bool
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

type rootOptions struct {
	envFile string
	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	ro := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "sdkcall",
		Short:         "Call an API through the SDK request executor",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnvFile(ro.envFile)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&ro.envFile, "env-file", ".env", "dotenv file loaded before running (missing file is ignored)")
	cmd.PersistentFlags().BoolVarP(&ro.verbose, "verbose", "v", false, "log requests to stderr")

	cmd.AddCommand(newRequestCmd(ro), newVersionCmd())
	return cmd
}

// loadEnvFile loads path without overriding variables already set.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &exitError{code: exitConfig, err: errors.Wrapf(err, "load %s", path)}
	}
	return nil
}

func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitConfig
}

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		var ee *exitError
		if !errors.As(err, &ee) || !ee.silent {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(exitCode(err))
	}
}
