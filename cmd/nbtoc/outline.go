package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/dgallion1/nbtoc/internal/augment"
	"github.com/dgallion1/nbtoc/internal/outline"
)

var (
	outlineJSON  bool
	outlineFlags tocFlags
)

var outlineCmd = &cobra.Command{
	Use:   "outline FILE",
	Short: "Print the numbered outline of a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := outlineFlags.apply(cmd, cfg); err != nil {
			return err
		}

		pg, err := convertFile(args[0], cfg.Parser)
		if err != nil {
			return err
		}
		res, err := augment.New(cfg.Augment(), newLogger()).Outline(cmd.Context(), pg, cfg.Outline())
		if err != nil {
			return err
		}

		if outlineJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			entries := res.Entries
			if entries == nil {
				entries = []*outline.Entry{}
			}
			return enc.Encode(entries)
		}
		return printOutline(cmd.OutOrStdout(), res)
	},
}

func init() {
	outlineCmd.Flags().BoolVar(&outlineJSON, "json", false, "print entries as JSON")
	outlineFlags.register(outlineCmd)
	rootCmd.AddCommand(outlineCmd)
}

// printOutline writes one indented line per entry: label, text and target.
func printOutline(w io.Writer, res *outline.Result) error {
	var err error
	res.Tree.Walk(func(e *outline.Entry, depth int) {
		if err != nil {
			return
		}
		label := ""
		if res.NumberSections {
			label = e.Label + " "
		}
		_, err = fmt.Fprintf(w, "%s%s%s  #%s\n", strings.Repeat("  ", depth-1), label, plainText(e.Text), e.Target)
	})
	return err
}

// plainText drops markup from entry HTML.
func plainText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
