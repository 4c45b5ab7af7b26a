package main

import (
	"bytes"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// executeCommand runs a cobra command with args, returns output and error.
func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// captureStdout executes fn while capturing stdout, returns captured output.
func captureStdout(fn func()) (string, error) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		return "", err
	}
	os.Stdout = w
	defer func() { os.Stdout = oldStdout }()

	fn()

	w.Close()
	out, _ := io.ReadAll(r)
	return string(out), nil
}

// resetWatchFlags restores the watch command flag set to its pristine
// state, clearing both values and cobra's Changed tracking, so tests don't
// leak state into each other.
func resetWatchFlags() {
	watchCmd.ResetFlags()
	registerWatchFlags()
}
