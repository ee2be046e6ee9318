package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomin-mx/tomin/internal/merchants"
	"github.com/tomin-mx/tomin/internal/recurrence"
	"github.com/tomin-mx/tomin/internal/sqlite"
	"github.com/tomin-mx/tomin/internal/ui"
)

func newDetectCommand() *cobra.Command {
	var dbPath string
	var userID string

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Flag recurring transactions in a local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sqlite.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database %s: %w", dbPath, err)
			}
			defer st.Close()

			flagged, err := recurrence.NewDetector(st).Execute(context.Background(), userID)
			if err != nil {
				return fmt.Errorf("recurrence detection failed: %w", err)
			}
			ui.Success(fmt.Sprintf("Flagged %d recurring transactions", flagged))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&userID, "user", "local", "user ID to analyze")

	return cmd
}

func newIdentifyCommand() *cobra.Command {
	var dbPath string
	var userID string

	cmd := &cobra.Command{
		Use:   "identify",
		Short: "Link transactions to known merchants in a local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sqlite.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database %s: %w", dbPath, err)
			}
			defer st.Close()

			matched, err := merchants.NewIdentifier(st, st).Execute(context.Background(), userID)
			if err != nil {
				return fmt.Errorf("merchant identification failed: %w", err)
			}
			if matched == 0 {
				ui.Info("No transactions linked; run 'tomin seed' first if the merchant table is empty")
			}
			ui.Success(fmt.Sprintf("Linked %d transactions to merchants", matched))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&userID, "user", "local", "user ID to analyze")

	return cmd
}

func newSeedCommand() *cobra.Command {
	var dbPath string
	var seedFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed the merchant table of a local database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := sqlite.Open(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database %s: %w", dbPath, err)
			}
			defer st.Close()

			seeds, err := loadSeeds(seedFile)
			if err != nil {
				return err
			}

			if err := merchants.Seed(context.Background(), st, seeds); err != nil {
				return fmt.Errorf("seeding failed: %w", err)
			}
			ui.Success(fmt.Sprintf("Seeded %d merchants", len(seeds)))
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&seedFile, "file", "", "merchant seed YAML (default: embedded seeds)")

	return cmd
}

func loadSeeds(seedFile string) ([]merchants.MerchantSeed, error) {
	if seedFile == "" {
		seeds, err := merchants.EmbeddedSeeds()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded seeds: %w", err)
		}
		return seeds, nil
	}

	raw, err := os.ReadFile(seedFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", seedFile, err)
	}
	seeds, err := merchants.ParseSeeds(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", seedFile, err)
	}
	return seeds, nil
}
