package main

import (
	"github.com/spf13/cobra"
)

var scoreOpts runFlags

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Research a company and score its niches without synthesis",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("score"); err != nil {
			return err
		}
		return executeRun(cmd, scoreOpts, true)
	},
}

func init() {
	scoreOpts.register(scoreCmd)
	rootCmd.AddCommand(scoreCmd)
}
