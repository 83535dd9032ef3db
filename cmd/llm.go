package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/abhisek/hooptriage/internal/llm"
	"github.com/abhisek/hooptriage/internal/store"
	"github.com/spf13/cobra"
)

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded model calls",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent model calls",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		sessionID, _ := cmd.Flags().GetString("session")

		a := newApp(appConfig)
		defer a.Close()
		s, err := a.openStore()
		if err != nil {
			return err
		}

		events, err := s.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{
			Limit:     limit,
			Purpose:   purpose,
			SessionID: sessionID,
		})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(w, "No model calls found.")
			return nil
		}

		fmt.Fprintf(w, "%-5s  %-19s  %-20s  %-28s  %-6s  %-6s  %-7s  %s\n",
			"ID", "Timestamp", "Purpose", "Model", "In", "Out", "Ms", "OK")
		fmt.Fprintln(w, strings.Repeat("─", 106))

		for _, e := range events {
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(w, "%-5d  %-19s  %-20s  %-28s  %-6d  %-6d  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Purpose, 20),
				truncate(e.Model, 28),
				e.InputTokens,
				e.OutputTokens,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full request and response of a model call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		a := newApp(appConfig)
		defer a.Close()
		s, err := a.openStore()
		if err != nil {
			return err
		}

		e, err := s.EventRepo().GetLLMEvent(cmd.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("event %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "ID:        %d\n", e.ID)
		fmt.Fprintf(w, "Time:      %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(w, "Provider:  %s\n", e.Provider)
		fmt.Fprintf(w, "Model:     %s\n", e.Model)
		fmt.Fprintf(w, "Purpose:   %s\n", e.Purpose)
		if e.SessionID != "" {
			fmt.Fprintf(w, "Session:   %s\n", e.SessionID)
		}
		fmt.Fprintf(w, "Tokens:    %d in / %d out\n", e.InputTokens, e.OutputTokens)
		fmt.Fprintf(w, "Latency:   %dms\n", e.LatencyMs)
		fmt.Fprintf(w, "Success:   %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Fprintf(w, "Error:     %s\n", e.ErrorMessage)
		}

		fmt.Fprintln(w)
		printSection(w, "REQUEST", e.RequestBody)
		printSection(w, "RESPONSE", e.ResponseBody)
		return nil
	},
}

func printSection(w io.Writer, title, body string) {
	sep := strings.Repeat("─", 60)
	fmt.Fprintln(w, sep)
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, sep)
	if body == "" {
		body = "(not captured)"
	}
	fmt.Fprintln(w, body)
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregated token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(appConfig)
		defer a.Close()
		s, err := a.openStore()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		stats, err := s.EventRepo().LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("query usage: %w", err)
		}

		w := cmd.OutOrStdout()
		if len(stats) == 0 {
			fmt.Fprintln(w, "No model usage recorded yet.")
			return nil
		}

		rule := strings.Repeat("─", 76)
		fmt.Fprintln(w, "Usage by Purpose")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%-20s  %6s  %10s  %10s  %10s  %8s\n",
			"Purpose", "Calls", "Input", "Output", "Total", "Avg Ms")
		fmt.Fprintln(w, rule)

		var totalCalls, totalIn, totalOut int
		for _, st := range stats {
			fmt.Fprintf(w, "%-20s  %6d  %10d  %10d  %10d  %8d\n",
				truncate(st.Key, 20), st.Calls, st.InputTokens, st.OutputTokens,
				st.InputTokens+st.OutputTokens, st.AvgLatencyMs)
			totalCalls += st.Calls
			totalIn += st.InputTokens
			totalOut += st.OutputTokens
		}
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%-20s  %6d  %10d  %10d  %10d\n",
			"TOTAL", totalCalls, totalIn, totalOut, totalIn+totalOut)

		modelUsage, err := s.EventRepo().LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("query model usage: %w", err)
		}
		if len(modelUsage) == 0 {
			return nil
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Estimated Cost (USD)")
		fmt.Fprintln(w, rule)
		fmt.Fprintf(w, "%-36s  %6s  %10s  %10s  %8s\n", "Model", "Calls", "Input", "Output", "Cost")
		fmt.Fprintln(w, rule)

		var totalCost float64
		var unknown []string
		for _, mu := range modelUsage {
			cost := llm.LookupCost(mu.Key)
			if cost == nil {
				unknown = append(unknown, mu.Key)
				fmt.Fprintf(w, "%-36s  %6d  %10d  %10d  %8s\n",
					truncate(mu.Key, 36), mu.Calls, mu.InputTokens, mu.OutputTokens, "?")
				continue
			}
			c := cost.Cost(mu.InputTokens, mu.OutputTokens)
			totalCost += c
			fmt.Fprintf(w, "%-36s  %6d  %10d  %10d  %8s\n",
				truncate(mu.Key, 36), mu.Calls, mu.InputTokens, mu.OutputTokens, formatCost(c))
		}
		fmt.Fprintln(w, rule)
		label := "TOTAL"
		if len(unknown) > 0 {
			label = "TOTAL (partial)"
		}
		fmt.Fprintf(w, "%-36s  %6s  %10s  %10s  %8s\n", label, "", "", "", formatCost(totalCost))
		if len(unknown) > 0 {
			fmt.Fprintf(w, "\nPricing unavailable for: %s\n", strings.Join(unknown, ", "))
		}
		return nil
	},
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func formatCost(usd float64) string {
	if usd < 0.01 {
		return fmt.Sprintf("$%.4f", usd)
	}
	return fmt.Sprintf("$%.2f", usd)
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	llmListCmd.Flags().StringP("purpose", "p", "",
		fmt.Sprintf("Filter by purpose (%s, %s, %s)", llm.PurposeQuestion, llm.PurposeDiagnosis, llm.PurposeQuestionBatch))
	llmListCmd.Flags().String("session", "", "Filter by session ID")

	llmCmd.AddCommand(llmListCmd)
	llmCmd.AddCommand(llmViewCmd)
	llmCmd.AddCommand(llmStatsCmd)
}
