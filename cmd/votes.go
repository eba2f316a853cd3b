package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saxenaaman628/redis-joke-list/config"
	"github.com/saxenaaman628/redis-joke-list/internal/kv"
	"github.com/saxenaaman628/redis-joke-list/internal/votestore"
)

var errSessionRequired = errors.New("--session is required")

var votesCmd = &cobra.Command{
	Use:   "votes",
	Short: "Inspect or reset stored vote counts",
}

var votesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored votes of a session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID == "" {
			return errSessionRequired
		}
		cfg, backend, err := openCmdBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		votes, err := votestore.New(backend, votesKey(cfg, sessionID)).Read(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(votes)
	},
}

var votesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the stored votes of one session, or of every session",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, backend, err := openCmdBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		keys := []string{}
		if sessionID, _ := cmd.Flags().GetString("session"); sessionID != "" {
			keys = append(keys, votesKey(cfg, sessionID))
		} else if keys, err = backend.Keys(cmd.Context(), sessionPrefix(cfg)); err != nil {
			return err
		}
		sort.Strings(keys)
		if err := resetKeys(cmd.Context(), backend, keys); err != nil {
			return err
		}
		for _, k := range keys {
			fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", k)
		}
		return nil
	},
}

var votesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vote store keys",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, backend, err := openCmdBackend(cmd)
		if err != nil {
			return err
		}
		defer backend.Close()

		keys, err := backend.Keys(cmd.Context(), sessionPrefix(cfg))
		if err != nil {
			return err
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(keys, "\n"))
		}
		return nil
	},
}

func openCmdBackend(cmd *cobra.Command) (config.Config, kv.KV, error) {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	backend, err := openBackend(cmd.Context(), cfg, log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, backend, nil
}

// resetKeys empties the vote store under each key.
func resetKeys(ctx context.Context, backend kv.KV, keys []string) error {
	for _, k := range keys {
		if err := votestore.New(backend, k).Reset(ctx); err != nil {
			return fmt.Errorf("reset %s: %w", k, err)
		}
	}
	return nil
}

func init() {
	votesCmd.PersistentFlags().StringP("session", "s", "", "session id (reset without it clears every session)")
	votesCmd.AddCommand(votesShowCmd, votesResetCmd, votesListCmd)
	rootCmd.AddCommand(votesCmd)
}
