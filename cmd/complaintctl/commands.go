package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/complaintctl/internal/archive"
	"github.com/kalambet/complaintctl/internal/config"
	"github.com/kalambet/complaintctl/internal/feedback"
)

// --- add ---

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a review, ranking or complaint",
}

func newAddKindCmd(kind feedback.Kind) *cobra.Command {
	name := strings.ToLower(string(kind))
	messageHelp := "feedback text"
	if kind == feedback.KindRanking {
		messageHelp = "ranking value, e.g. 5"
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Record a %s", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			company, _ := cmd.Flags().GetString("company")
			product, _ := cmd.Flags().GetString("product")
			message, _ := cmd.Flags().GetString("message")

			store, err := openStore()
			if err != nil {
				return err
			}

			r := feedback.New(kind, strings.ToLower(company), strings.ToLower(product), message)
			if err := store.Add(r); err != nil {
				return fmt.Errorf("saving %s: %w", kind, err)
			}

			logger.Info().Str("kind", string(kind)).Str("path", store.Path()).Msg("feedback recorded")
			printSuccess("%s saved successfully!", kind)
			return nil
		},
	}

	cmd.Flags().String("company", "", "company name")
	cmd.Flags().String("product", "", "product name")
	cmd.Flags().String("message", "", messageHelp)
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}

func init() {
	for _, k := range feedback.Kinds() {
		addCmd.AddCommand(newAddKindCmd(k))
	}
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded feedback",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kindStr, _ := cmd.Flags().GetString("kind")

		var kind feedback.Kind
		if kindStr != "" {
			k, err := feedback.ParseKind(kindStr)
			if err != nil {
				return err
			}
			kind = k
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if store.Len() == 0 {
			fmt.Fprintln(out, "No feedback available.")
			return nil
		}
		for _, r := range store.List(kind) {
			fmt.Fprintln(out, r.String())
		}
		return nil
	},
}

func init() {
	listCmd.Flags().String("kind", "", "only show one kind: Review, Ranking or Complaint")
}

// --- export ---

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all feedback to a SQLite archive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			output = filepath.Join(appCfg.Storage.DataDir, "complaints.db")
		}

		store, err := openStore()
		if err != nil {
			return err
		}

		records := store.List("")
		if len(records) == 0 {
			printWarning("No feedback available; archive will be empty.")
		}

		a, err := archive.Open(output)
		if err != nil {
			return err
		}
		defer a.Close()

		printStep("Exporting %d records...", len(records))
		if err := a.Export(cmd.Context(), records); err != nil {
			return err
		}

		n, err := a.Count(cmd.Context())
		if err != nil {
			return err
		}

		printStatus(cmd.OutOrStdout(), "Records", "%d", n)
		printStatus(cmd.OutOrStdout(), "Archive", "%s", output)
		printSuccess("Feedback exported to %s", output)
		return nil
	},
}

func init() {
	exportCmd.Flags().String("output", "", "archive path (default: <data dir>/complaints.db)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(appCfg) {
			fmt.Fprintf(out, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Reset a configuration value to its default",
	Long:  "Reset a configuration value to its default. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		if err := config.UnsetKey(key); err != nil {
			return err
		}

		printSuccess("Unset %s", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "complaintctl version %s\n", version)
	},
}
