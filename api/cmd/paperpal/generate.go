package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"paper-pal/api/internal/app"
	"paper-pal/api/internal/config"
	"paper-pal/api/internal/logging"
	"paper-pal/api/internal/normalize"
	"paper-pal/api/internal/paper/types"
)

// credentialFlag falls back to PAPERPAL_API_KEY so keys stay out of shell history.
func credentialFlag(v string) string {
	if v != "" {
		return v
	}
	return os.Getenv("PAPERPAL_API_KEY")
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" || path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	return string(b), err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func generateCmd() *cobra.Command {
	var file, key, level, llmName string
	cmd := &cobra.Command{
		Use:       "generate <summary|quiz|applications>",
		Short:     "Run one generation over a text file and print JSON",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(types.TaskSummary), string(types.TaskQuiz), string(types.TaskApplications)},
		RunE: func(cmd *cobra.Command, args []string) error {
			task := types.TaskKind(strings.ToLower(args[0]))
			if !task.Valid() {
				return fmt.Errorf("unknown task %q", args[0])
			}
			lvl, err := types.ParseSkillLevel(level)
			if err != nil {
				return err
			}
			text, err := readInput(file, cmd.InOrStdin())
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
			out, o, err := normalize.Generate(ctx, a.Normalizer, types.GenerationRequest{
				Task:       task,
				SourceText: text,
				Credential: credentialFlag(key),
				SkillLevel: lvl,
				LLMName:    llmName,
			})
			if err != nil {
				return err
			}
			if o.FellBack {
				log.WithField("reason", o.Reason).Warn("placeholder result")
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "text file to read, - for stdin")
	cmd.Flags().StringVarP(&key, "api-key", "k", "", "LLM credential (default $PAPERPAL_API_KEY)")
	cmd.Flags().StringVarP(&level, "level", "l", "undergraduate", "highschool | undergraduate | graduate")
	cmd.Flags().StringVar(&llmName, "llm", "", "engine name (openrouter | openai | gemini)")
	return cmd
}
