package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/abhisek/hooptriage/internal/session"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect and manage stored interview sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live sessions, most recently updated first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a := newApp(appConfig)
		defer a.Close()
		st, err := a.openStore()
		if err != nil {
			return err
		}

		records, err := st.SessionRepo().List(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
			return nil
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%-36s  %-12s  %-19s  %s\n", "ID", "Phase", "Updated", "Expires")
		fmt.Fprintln(w, strings.Repeat("─", 90))
		for _, r := range records {
			expires := "never"
			if !r.ExpiresAt.IsZero() {
				expires = r.ExpiresAt.Local().Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%-36s  %-12s  %-19s  %s\n",
				truncate(r.ID, 36), r.Phase, r.UpdatedAt.Local().Format("2006-01-02 15:04:05"), expires)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a session as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(appConfig)
		defer a.Close()
		sessions, err := a.sessionStore()
		if err != nil {
			return err
		}

		s, err := sessions.Get(cmd.Context(), args[0])
		if errors.Is(err, session.ErrSessionNotFound) {
			return fmt.Errorf("session %s not found", args[0])
		}
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(appConfig)
		defer a.Close()
		sessions, err := a.sessionStore()
		if err != nil {
			return err
		}
		if err := sessions.Delete(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

var sessionsPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete every expired session",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := newApp(appConfig)
		defer a.Close()
		sessions, err := a.sessionStore()
		if err != nil {
			return err
		}
		n, err := sessions.Sweep(cmd.Context())
		if err != nil {
			return fmt.Errorf("purge sessions: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired session(s)\n", n)
		return nil
	},
}

func init() {
	sessionsListCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsPurgeCmd)
}
