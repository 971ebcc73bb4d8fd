package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/nbtoc/internal/augment"
	"github.com/dgallion1/nbtoc/internal/doctree"
	"github.com/dgallion1/nbtoc/internal/parser"
)

var (
	augmentOut   string
	augmentFlags tocFlags
)

var augmentCmd = &cobra.Command{
	Use:   "augment FILE",
	Short: "Convert one file and add its numbered table of contents",
	Long: `Converts FILE (.ipynb, .md, .txt or .html) to HTML, numbers its headings
and attaches the sidebar. Writes to stdout unless -o is given; "-o auto"
writes next to FILE with an .html extension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := augmentFlags.apply(cmd, cfg); err != nil {
			return err
		}
		log := newLogger()

		pg, err := convertFile(args[0], cfg.Parser)
		if err != nil {
			return err
		}
		res, err := augment.New(cfg.Augment(), log).Augment(cmd.Context(), pg)
		if err != nil {
			return err
		}

		out := augmentOut
		if out == "auto" {
			out = parser.OutputName(args[0])
			if out == args[0] {
				return fmt.Errorf("refusing to overwrite %s; pass -o", args[0])
			}
		}
		if out == "" || out == "-" {
			_, err = cmd.OutOrStdout().Write(res.HTML)
			return err
		}
		if err := os.WriteFile(out, res.HTML, 0o644); err != nil {
			return err
		}
		log.Info("wrote page", "file", out, "headings", len(res.Entries))
		return nil
	},
}

func init() {
	augmentCmd.Flags().StringVarP(&augmentOut, "output", "o", "", `output file ("-" for stdout, "auto" for FILE.html)`)
	augmentFlags.register(augmentCmd)
	rootCmd.AddCommand(augmentCmd)
}

// convertFile reads path and converts it with the parser for its extension.
func convertFile(path string, opts parser.Options) (*doctree.Page, error) {
	p, err := parser.ForFile(path, opts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pg, err := p.Parse(f, path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return pg, nil
}
