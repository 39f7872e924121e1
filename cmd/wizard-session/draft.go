package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/profilewizard/auth"
	"github.com/kbukum/profilewizard/session"
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect or remove the saved draft of the current user",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved draft as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, closeStore, err := openDraftStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		key, err := auth.SessionKey(ctx, tokenSource(cfg), cfg.Autosave.KeyPrefix)
		if err != nil {
			return err
		}
		snap, err := store.Load(ctx, key)
		if err != nil {
			return fmt.Errorf("load draft %q: %w", key, err)
		}
		if snap == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "No saved draft for %s.\n", key)
			return nil
		}

		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		if d := snap.Payload; !d.Ready(session.StepReview) {
			fmt.Fprintf(cmd.OutOrStdout(), "Resumes on %s; review needs:\n", session.StepName(d.Step))
			for _, m := range d.Missing(session.StepReview) {
				fmt.Fprintln(cmd.OutOrStdout(), "  - "+m)
			}
		}
		return nil
	},
}

var draftDiscardCmd = &cobra.Command{
	Use:   "discard",
	Short: "Delete the saved draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		store, closeStore, err := openDraftStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		key, err := auth.SessionKey(ctx, tokenSource(cfg), cfg.Autosave.KeyPrefix)
		if err != nil {
			return err
		}
		if err := store.Delete(ctx, key); err != nil {
			return fmt.Errorf("discard draft %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed draft %s\n", key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(draftCmd)
	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftDiscardCmd)
}
