// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"mvdan.cc/sh/v3/shell"

	"github.com/sustc/sustc/internal/i18n"
)

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// lineReader yields input lines until io.EOF.
type lineReader interface {
	ReadLine() (string, error)
}

type scanReader struct {
	s      *bufio.Scanner
	out    io.Writer
	prompt string
}

func (r *scanReader) ReadLine() (string, error) {
	fmt.Fprint(r.out, r.prompt)
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}

// runShell reads command lines and executes each one as a sustc-runner
// invocation against the already opened services. On a terminal the line is
// edited with x/term; otherwise lines are read as they come.
func runShell(cmd *cobra.Command, in io.Reader, out io.Writer) error {
	prompt := i18n.T("shell.prompt")
	fmt.Fprintln(out, i18n.T("shell.welcome", compositeVersion()))

	var lr lineReader = &scanReader{s: bufio.NewScanner(in), out: out, prompt: prompt}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		state, err := term.MakeRaw(int(f.Fd()))
		if err != nil {
			return fmt.Errorf("enter raw mode: %w", err)
		}
		defer func() { _ = term.Restore(int(f.Fd()), state) }()
		t := term.NewTerminal(struct {
			io.Reader
			io.Writer
		}{f, out}, prompt)
		lr, out = t, t
	}

	for {
		line, err := lr.ReadLine()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		if done := execLine(cmd, line, out); done {
			return nil
		}
	}
}

// execLine runs one shell line and reports whether the shell should exit.
func execLine(parent *cobra.Command, line string, out io.Writer) bool {
	words, err := shell.Fields(line, os.Getenv)
	if err != nil {
		fmt.Fprintln(out, i18n.T("shell.parse_error", err))
		return false
	}
	if len(words) == 0 {
		return false
	}
	switch words[0] {
	case "exit", "quit":
		return true
	case "shell":
		return false
	}

	root := NewRootCmd()
	// Flags alone would run the root command, which is this shell again.
	if c, _, err := root.Find(words); err == nil && c == root && !slices.ContainsFunc(words, isHelpFlag) {
		fmt.Fprintln(out, i18n.T("shell.no_command"))
		return false
	}
	root.SetArgs(words)
	root.SetIn(parent.InOrStdin())
	root.SetOut(out)
	root.SetErr(out)
	if err := root.ExecuteContext(parent.Context()); err != nil {
		if strings.HasPrefix(err.Error(), "unknown command") {
			fmt.Fprintln(out, i18n.T("shell.unknown", words[0]))
		} else {
			fmt.Fprintf(out, "error: %v\n", err)
		}
	}
	return false
}

func isHelpFlag(w string) bool { return w == "-h" || w == "--help" }
