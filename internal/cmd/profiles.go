package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagelore/pagelore/internal/config"
	"github.com/pagelore/pagelore/internal/profile"
	"github.com/pagelore/pagelore/internal/storage"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Manage stored extraction profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		mode, _ := cmd.Flags().GetString("mode")

		profiles, err := listProfiles(store, mode)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles stored.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tDOMAIN\tMODE\tCONFIDENCE\tSUCCESS\tUSES\tLAST USED")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%d\t%s\n",
				p.ID, p.Domain, p.ExtractionMode, p.Confidence,
				p.SuccessRate, p.UseCount, p.LastUsed.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var profilesStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate profile statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		stats, err := store.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("Profiles:        %d\n", stats.TotalProfiles)
		fmt.Printf("Total uses:      %d\n", stats.TotalUses)
		fmt.Printf("Avg confidence:  %.2f\n", stats.AvgConfidence)
		fmt.Printf("Avg success:     %.2f\n", stats.AvgSuccessRate)
		return nil
	},
}

var profilesShowCmd = &cobra.Command{
	Use:   "show <domain>",
	Short: "Show the best profile for a domain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		p, err := store.GetByDomain(args[0])
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a profile by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted profile %s\n", args[0])
		return nil
	},
}

var profilesClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.ClearAll(); err != nil {
			return err
		}
		fmt.Println("All profiles deleted.")
		return nil
	},
}

func init() {
	profilesCmd.PersistentFlags().String("database", config.DefaultDatabasePath(), "Path to the SQLite database file")
	profilesListCmd.Flags().String("mode", "", "Only list profiles with this extraction mode")

	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesStatsCmd)
	profilesCmd.AddCommand(profilesShowCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)
	profilesCmd.AddCommand(profilesClearCmd)
	rootCmd.AddCommand(profilesCmd)
}

func openStore(cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	dbPath, _ := cmd.Flags().GetString("database")
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", dbPath, err)
	}
	return store, nil
}

func listProfiles(store *storage.SQLiteStorage, mode string) ([]*profile.SiteProfile, error) {
	if mode != "" {
		return store.GetByMode(mode)
	}
	return store.GetAll()
}
