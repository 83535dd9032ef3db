package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/hooptriage/internal/logging"
	"github.com/abhisek/hooptriage/internal/prompt"
	"github.com/abhisek/hooptriage/internal/triage"
	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Print a fixed screening questionnaire for a body part",
	Long: "Asks the model for a batch of screening questions about one body part. " +
		"If the model is unavailable or its reply is unusable, a built-in questionnaire is printed instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		bodyPart, _ := cmd.Flags().GetString("body-part")
		n, _ := cmd.Flags().GetInt("count")
		if bodyPart == "" {
			return fmt.Errorf("--body-part is required")
		}
		if n < 1 {
			return fmt.Errorf("--count must be at least 1")
		}

		ctx := cmd.Context()
		a := newApp(appConfig)
		defer a.Close()

		out := questionnaireOutput{BodyPart: bodyPart, Source: "fallback"}
		eng, err := a.engine(ctx)
		if err != nil {
			logging.For("questions").Warn("model unavailable, using built-in questions", "error", err)
			out.Questions = prompt.FallbackQuestions(bodyPart)
		} else {
			var fromModel bool
			out.Questions, fromModel = eng.Questionnaire(ctx, bodyPart, n)
			if fromModel {
				out.Source = "model"
			}
		}
		if len(out.Questions) > n {
			out.Questions = out.Questions[:n]
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

type questionnaireOutput struct {
	BodyPart  string            `json:"body_part"`
	Source    string            `json:"source"`
	Questions []triage.Question `json:"questions"`
}

func init() {
	questionsCmd.Flags().String("body-part", "", "Injured body part")
	questionsCmd.Flags().IntP("count", "n", 5, "Number of questions")
}
