package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/abhisek/hooptriage/internal/interpret"
	"github.com/abhisek/hooptriage/internal/triage"
	"github.com/spf13/cobra"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend [FILE|-]",
	Short: "Recommend specialists for a diagnosis",
	Long: "Reads a diagnosis as JSON (the object printed by interview, or raw model output containing one) " +
		"from FILE or stdin and prints up to three ranked specialists.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readArg(cmd, args)
		if err != nil {
			return fmt.Errorf("read diagnosis: %w", err)
		}
		d, err := decodeDiagnosis(data)
		if err != nil {
			return err
		}

		a := newApp(appConfig)
		defer a.Close()
		ranker, err := a.ranker()
		if err != nil {
			return err
		}
		return printRecommendations(cmd.OutOrStdout(), a, ranker, d)
	},
}

// decodeDiagnosis reads a diagnosis object, either as printed by
// interview or embedded in a model reply. Everything goes through the
// interpreter so confidences are normalized; only an explicitly empty
// condition list is taken as is.
func decodeDiagnosis(data []byte) (triage.Diagnosis, error) {
	var lists struct {
		Injuries           *[]json.RawMessage `json:"injuries"`
		PossibleConditions *[]json.RawMessage `json:"possible_conditions"`
	}
	if err := json.Unmarshal(data, &lists); err == nil && explicitlyEmpty(lists.Injuries, lists.PossibleConditions) {
		return triage.Diagnosis{}, nil
	}
	p := interpret.ParseDiagnosis(string(data))
	if p.Error != nil {
		return triage.Diagnosis{}, fmt.Errorf("not a diagnosis: %s", p.Error.Tag)
	}
	return *p.Diagnosis, nil
}

// explicitlyEmpty reports whether at least one list is present and every
// present list is empty.
func explicitlyEmpty(lists ...*[]json.RawMessage) bool {
	present := false
	for _, l := range lists {
		if l == nil {
			continue
		}
		if len(*l) > 0 {
			return false
		}
		present = true
	}
	return present
}
