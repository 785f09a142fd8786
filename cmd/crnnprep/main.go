package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}
	if debugRequested(cmd) {
		panic(err)
	}
	if !errors.Is(err, context.Canceled) {
		reportError(cmd.OutOrStdout(), err)
	}
	os.Exit(1)
}

// reportError prints the generic failure banner followed by the error message.
func reportError(w io.Writer, err error) {
	fmt.Fprintln(w, separatorLine)
	banner := "An error has occurred:"
	if shouldColorize(w) {
		c := color.New(color.FgRed, color.Bold)
		c.EnableColor()
		banner = c.Sprint(banner)
	}
	fmt.Fprintln(w, banner)
	printDetail(w, "%s", err.Error())
}

func debugRequested(cmd *cobra.Command) bool {
	if debug, err := cmd.PersistentFlags().GetBool("debug"); err == nil && debug {
		return true
	}
	return envDebug()
}

func envDebug() bool {
	value := strings.TrimSpace(os.Getenv("CRNNPREP_DEBUG"))
	if value == "" {
		return false
	}
	enabled, err := strconv.ParseBool(value)
	return err == nil && enabled
}
