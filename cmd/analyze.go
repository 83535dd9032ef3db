package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abhisek/hooptriage/internal/logging"
	"github.com/abhisek/hooptriage/internal/prompt"
	"github.com/abhisek/hooptriage/internal/triage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [FILE|-]",
	Short: "Analyze answers to a screening questionnaire",
	Long: "Reads questionnaire answers as a JSON or YAML list of {question, answer} objects from FILE or stdin, " +
		"prints the possible conditions and then the recommended specialists. " +
		"If the model is unavailable or its reply is unusable, an \"Analysis Error\" condition with general advice is printed instead.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bodyPart, _ := cmd.Flags().GetString("body-part")
		followUp, _ := cmd.Flags().GetBool("follow-up")
		if bodyPart == "" {
			return fmt.Errorf("--body-part is required")
		}

		data, err := readArg(cmd, args)
		if err != nil {
			return fmt.Errorf("read answers: %w", err)
		}
		qa, err := decodeAnswers(data)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a := newApp(appConfig)
		defer a.Close()
		ranker, err := a.ranker()
		if err != nil {
			return err
		}

		out := analysisOutput{BodyPart: bodyPart, Source: "fallback"}
		eng, err := a.engine(ctx)
		if err != nil {
			logging.For("analyze").Warn("model unavailable, using fallback analysis", "error", err)
			out.Diagnosis = prompt.FallbackAnalysis(err)
			if followUp {
				q := prompt.FallbackFollowUp()
				out.FollowUp = &q
			}
		} else {
			var fromModel bool
			out.Diagnosis, fromModel = eng.Analyze(ctx, bodyPart, qa)
			if fromModel {
				out.Source = "model"
			}
			if followUp {
				q, _ := eng.FollowUp(ctx, bodyPart, qa)
				out.FollowUp = &q
			}
		}

		if err := json.NewEncoder(cmd.OutOrStdout()).Encode(out); err != nil {
			return err
		}
		return printRecommendations(cmd.OutOrStdout(), a, ranker, out.Diagnosis)
	},
}

type analysisOutput struct {
	BodyPart  string           `json:"body_part"`
	Source    string           `json:"source"`
	Diagnosis triage.Diagnosis `json:"diagnosis"`
	FollowUp  *triage.Question `json:"follow_up,omitempty"`
}

func init() {
	analyzeCmd.Flags().String("body-part", "", "Injured body part")
	analyzeCmd.Flags().Bool("follow-up", false, "Also ask for one follow-up question")
}

// decodeAnswers reads a list of answered questions in JSON or YAML.
// Items without question text are dropped.
func decodeAnswers(data []byte) ([]prompt.QA, error) {
	var qa []prompt.QA
	if err := yaml.Unmarshal(data, &qa); err != nil {
		return nil, fmt.Errorf("answers must be a list of {question, answer}: %w", err)
	}
	out := qa[:0]
	for _, item := range qa {
		if strings.TrimSpace(item.Question) == "" {
			continue
		}
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no answered questions")
	}
	return out, nil
}

// readArg reads FILE, or stdin when the argument is missing or "-".
func readArg(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(cmd.InOrStdin())
}
