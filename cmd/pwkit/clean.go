package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pwkit/pwkit/pkg/extract"
)

// runCleanCommand strips noise from an HTML document read from a file or
// stdin. With -summary it emits the readable text and links as JSON
// instead of cleaned HTML.
func runCleanCommand(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	input := fs.String("in", "", "HTML file to read (default stdin)")
	maxLength := fs.Int("max-length", 0, "cap on the cleaned HTML length (default 10000)")
	summary := fs.Bool("summary", false, "emit a JSON summary instead of cleaned HTML")
	selector := fs.String("selector", "", "CSS selector scoping the summary")
	maxLinks := fs.Int("max-links", 20, "link cap for the summary, 0 keeps all")
	pretty := fs.Bool("pretty", true, "indent the JSON output")

	if err := fs.Parse(args); err != nil {
		return err
	}

	raw, err := readInput(*input)
	if err != nil {
		return err
	}

	if *summary {
		sum, err := extract.Summarize(raw, *selector, *maxLinks)
		if err != nil {
			return err
		}
		return writeJSON("", *pretty, sum)
	}

	cleaned, err := extract.Clean(raw, *maxLength)
	if err != nil {
		return err
	}
	fmt.Println(cleaned.HTML)
	if cleaned.Truncated {
		fmt.Fprintln(os.Stderr, "(output truncated)")
	}
	return nil
}
