package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/nbtoc/internal/site"
)

var (
	buildInput   string
	buildOutput  string
	buildNoIndex bool
	buildFlags   tocFlags
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Convert a directory of notebooks into a linked site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := buildFlags.apply(cmd, cfg); err != nil {
			return err
		}
		if buildInput != "" {
			cfg.Site.Input = buildInput
		}
		if buildOutput != "" {
			cfg.Site.Output = buildOutput
		}
		if buildNoIndex {
			cfg.Site.Index = false
		}

		b := site.New(site.Options{
			Input:       cfg.Site.Input,
			Output:      cfg.Site.Output,
			Include:     cfg.Site.Include,
			Exclude:     cfg.Site.Exclude,
			Concurrency: cfg.Site.Concurrency,
			Index:       cfg.Site.Index,
			Title:       cfg.Site.Title,
			Parser:      cfg.Parser,
			Augment:     cfg.Augment(),
		}, site.NewReporter(cmd.ErrOrStderr()), newLogger())

		report, err := b.Build(cmd.Context())
		if err != nil {
			return err
		}
		for _, f := range report.Failed {
			fmt.Fprintf(cmd.ErrOrStderr(), "failed: %s\n", f.Error())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Built %d pages into %s\n", len(report.Pages), cfg.Site.Output)
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d pages failed", len(report.Failed))
		}
		return nil
	},
}

func init() {
	buildCmd.Flags().StringVarP(&buildInput, "input", "i", "", "input directory (default from config)")
	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "output directory (default from config)")
	buildCmd.Flags().BoolVar(&buildNoIndex, "no-index", false, "skip writing folder index pages")
	buildFlags.register(buildCmd)
	rootCmd.AddCommand(buildCmd)
}
