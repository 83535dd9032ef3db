package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/abhisek/hooptriage/internal/logging"
	"github.com/abhisek/hooptriage/internal/session"
	"github.com/abhisek/hooptriage/internal/specialist"
	"github.com/abhisek/hooptriage/internal/triage"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var interviewCmd = &cobra.Command{
	Use:   "interview",
	Short: "Run a triage interview, one answer per stdin line",
	Long: "Reads answers from stdin, one per line, and prints each model reply as a JSON line. " +
		"When the interview reaches its diagnosis the recommended specialists are printed and the command exits. " +
		"Pass --session to resume an earlier interview.",
	RunE: runInterview,
}

func init() {
	interviewCmd.Flags().String("session", "", "Session ID to start or resume (default: a new ID)")
	interviewCmd.Flags().String("body-part", "", "Injured body part (default: detected from the first answer)")
}

func runInterview(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a := newApp(appConfig)
	defer a.Close()

	eng, err := a.engine(ctx)
	if err != nil {
		return err
	}
	ranker, err := a.ranker()
	if err != nil {
		return err
	}
	tax, err := a.taxonomy()
	if err != nil {
		return err
	}
	a.serveMetrics(ctx)

	id, _ := cmd.Flags().GetString("session")
	if id == "" {
		id = uuid.NewString()
	}
	bodyPart, _ := cmd.Flags().GetString("body-part")
	logger := logging.For("interview")
	logger.Info("interview started", "session", id)

	out := json.NewEncoder(cmd.OutOrStdout())
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if bodyPart == "" {
			bodyPart, _ = tax.Detect(input)
		}

		res, err := eng.Submit(ctx, session.SubmitRequest{
			SessionID: id,
			Input:     input,
			BodyPart:  bodyPart,
			RequestID: uuid.NewString(),
		})
		var upstream *session.UpstreamCallError
		if errors.As(err, &upstream) {
			fmt.Fprintln(cmd.ErrOrStderr(), "The model did not answer. Send the same answer again to retry.")
			continue
		}
		if err != nil {
			return err
		}

		if err := out.Encode(res.Content); err != nil {
			return err
		}
		if res.Done {
			return printRecommendations(cmd.OutOrStdout(), a, ranker, *res.Content.Diagnosis)
		}
	}
	return scanner.Err()
}

// recommendationOutput is the JSON printed after a diagnosis.
type recommendationOutput struct {
	Specialists []specialist.Summary `json:"specialists"`
	Message     string               `json:"message,omitempty"`
}

func printRecommendations(w io.Writer, a *app, r *specialist.Ranker, d triage.Diagnosis) error {
	summaries := r.Recommend(d)
	a.metrics.ObserveRecommendations(len(summaries))

	out := recommendationOutput{Specialists: summaries}
	if len(summaries) == 0 {
		out.Message = specialist.Fallback
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
