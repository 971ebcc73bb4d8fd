package main

import (
	"github.com/spf13/cobra"

	"github.com/dgallion1/nbtoc/internal/config"
)

// tocFlags override the configured numbering and display state.
type tocFlags struct {
	threshold  int
	noNumbers  bool
	showSource bool
	showPrompt bool
}

func (f *tocFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.threshold, "threshold", 0, "deepest heading level to number (1-6)")
	cmd.Flags().BoolVar(&f.noNumbers, "no-numbers", false, "hide section numbers")
	cmd.Flags().BoolVar(&f.showSource, "show-source", false, "show code cells initially")
	cmd.Flags().BoolVar(&f.showPrompt, "show-prompt", false, "show execution prompts initially")
}

// apply copies flags the user set onto cfg and revalidates it.
func (f *tocFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("threshold") {
		cfg.TOC.Threshold = f.threshold
	}
	if flags.Changed("no-numbers") {
		cfg.TOC.NumberSections = !f.noNumbers
	}
	if flags.Changed("show-source") {
		cfg.Display.ShowSource = f.showSource
	}
	if flags.Changed("show-prompt") {
		cfg.Display.ShowPrompt = f.showPrompt
	}
	return cfg.Validate()
}
