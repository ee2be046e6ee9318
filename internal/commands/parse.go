package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomin-mx/tomin/internal/categorize"
	"github.com/tomin-mx/tomin/internal/domain"
	"github.com/tomin-mx/tomin/internal/extract"
	"github.com/tomin-mx/tomin/internal/ingest"
	"github.com/tomin-mx/tomin/internal/output"
	"github.com/tomin-mx/tomin/internal/registry"
	"github.com/tomin-mx/tomin/internal/scanner"
	"github.com/tomin-mx/tomin/internal/sqlite"
	"github.com/tomin-mx/tomin/internal/ui"
	"github.com/tomin-mx/tomin/internal/validate"
)

func newParseCommand() *cobra.Command {
	var dbPath string
	var userID string
	var outputFile string
	var categoriesFile string
	var mergeMode bool
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "parse <directory>",
		Short: "Parse statement files from a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(args[0], dbPath, userID, outputFile, categoriesFile, mergeMode, dryRun)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to persist results into (default: no persistence)")
	cmd.Flags().StringVar(&userID, "user", "local", "user ID to record transactions under")
	cmd.Flags().StringVar(&outputFile, "output", "", "output JSON file (default: stdout)")
	cmd.Flags().StringVar(&categoriesFile, "categories", "", "category table YAML (default: embedded table)")
	cmd.Flags().BoolVar(&mergeMode, "merge", false, "merge with the existing output file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be parsed without parsing")

	return cmd
}

func runParse(dir, dbPath, userID, outputFile, categoriesFile string, mergeMode, dryRun bool) error {
	ctx := context.Background()

	ui.Header("Parsing Bank Statements")
	ui.Step(1, 3, "Scanning directory")

	files, err := scanner.New(dir).Scan()
	if err != nil {
		return fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}
	ui.Success(fmt.Sprintf("Found %d statement files", len(files)))

	if dryRun {
		for _, f := range files {
			ui.Info(fmt.Sprintf("  would parse %s", f.Path))
		}
		return nil
	}
	if len(files) == 0 {
		return fmt.Errorf("no statement files found in %s (supported extensions: .pdf, .ofx, .qfx, .txt)", dir)
	}

	matcher, err := loadMatcher(categoriesFile)
	if err != nil {
		return err
	}

	var st *sqlite.Store
	if dbPath != "" {
		st, err = sqlite.Open(dbPath)
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", dbPath, err)
		}
		defer st.Close()
	}

	reg := registry.NewDefault()
	report := &output.Report{GeneratedAt: time.Now().UTC()}
	failed := 0

	ui.Step(2, 3, "Parsing statements")
	for _, file := range files {
		result, err := parseOne(ctx, file, userID, matcher, reg, st)
		if err != nil {
			ui.Warning(fmt.Sprintf("%s: %v", file.Path, err))
			failed++
			continue
		}
		report.Files = append(report.Files, result)
	}
	ui.Success(fmt.Sprintf("Parsed %d statements (%d failed)", len(report.Files), failed))

	ui.Step(3, 3, "Writing report")
	opts := output.WriteOptions{MergeMode: mergeMode, FilePath: outputFile}
	if err := output.WriteReportToFile(report, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if outputFile != "" {
		ui.Success(fmt.Sprintf("Report written to %s", outputFile))
	}
	return nil
}

func parseOne(ctx context.Context, file scanner.Result, userID string, matcher *categorize.Matcher, reg *registry.Registry, st *sqlite.Store) (output.FileResult, error) {
	var zero output.FileResult

	data, err := os.ReadFile(file.Path)
	if err != nil {
		return zero, fmt.Errorf("read failed: %w", err)
	}

	text, err := extract.Text(data)
	if err != nil {
		return zero, fmt.Errorf("text extraction failed: %w", err)
	}
	hash := ingest.Fingerprint(text)

	duplicate := false
	if st != nil {
		duplicate, err = st.FileExists(ctx, userID, hash)
		if err != nil {
			return zero, fmt.Errorf("duplicate check failed: %w", err)
		}
	}

	bankParser := reg.Select(text)
	stmt, err := bankParser.Parse(text, userID, matcher)
	if err != nil {
		return zero, fmt.Errorf("%s parse failed: %w", bankParser.BankName(), err)
	}

	result := validate.Statement(stmt)
	for _, w := range result.Warnings {
		ui.Warning(fmt.Sprintf("%s: %s %s: %s", file.Path, w.Entity, w.ID, w.Message))
	}
	if !result.OK() {
		return zero, fmt.Errorf("validation failed with %d errors, first: %s", len(result.Errors), result.Errors[0].Message)
	}

	if st != nil && !duplicate {
		for i := range stmt.Transactions {
			stmt.Transactions[i].FileID = hash
		}
		for i := range stmt.Savings {
			stmt.Savings[i].FileID = hash
		}
		if err := st.SaveTransactions(ctx, stmt.Transactions); err != nil {
			return zero, fmt.Errorf("failed to save transactions: %w", err)
		}
		if err := st.SaveSavingsMovements(ctx, stmt.Savings); err != nil {
			return zero, fmt.Errorf("failed to save savings movements: %w", err)
		}
		if err := st.SaveFile(ctx, domain.ProcessedFile{
			Hash:      hash,
			UserID:    userID,
			BankName:  bankParser.BankName(),
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return zero, fmt.Errorf("failed to record processed file: %w", err)
		}
	}

	return output.NewFileResult(file.Path, bankParser.BankName(), hash, duplicate, stmt), nil
}

func loadMatcher(categoriesFile string) (*categorize.Matcher, error) {
	if categoriesFile != "" {
		matcher, err := categorize.LoadFromFile(categoriesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load categories from %s: %w", categoriesFile, err)
		}
		return matcher, nil
	}
	matcher, err := categorize.LoadEmbedded()
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded categories: %w", err)
	}
	return matcher, nil
}
