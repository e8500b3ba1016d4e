package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"paper-pal/api/internal/app"
	"paper-pal/api/internal/config"
	"paper-pal/api/internal/logging"
	"paper-pal/api/internal/paper"
	"paper-pal/api/internal/paper/types"
)

func analyzeCmd() *cobra.Command {
	var key, level, llmName string
	cmd := &cobra.Command{
		Use:   "analyze <paper.pdf>",
		Short: "Summarize a PDF, build a quiz and applications, print JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := types.ParseSkillLevel(level)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			a, err := app.Build(cfg, log)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.RequestTimeout)
			defer cancel()
			res, err := a.Analyzer.Analyze(ctx, paper.Request{
				PDF:        data,
				Credential: credentialFlag(key),
				SkillLevel: lvl,
				LLMName:    llmName,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&key, "api-key", "k", "", "LLM credential (default $PAPERPAL_API_KEY)")
	cmd.Flags().StringVarP(&level, "level", "l", "undergraduate", "highschool | undergraduate | graduate")
	cmd.Flags().StringVar(&llmName, "llm", "", "engine name (openrouter | openai | gemini)")
	return cmd
}
