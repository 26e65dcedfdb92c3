// Package historyexport implements the command that exports every stored inspection as a spreadsheet.
package historyexport

import (
	"github.com/labqa/inspection/internal/errors"
	"github.com/labqa/inspection/internal/export"
	"github.com/labqa/inspection/internal/logging"
	"github.com/labqa/inspection/internal/repositories"
	"github.com/labqa/inspection/internal/sqlite"
	"github.com/spf13/cobra"
	"log/slog"
	"os"
)

var Group = &cobra.Group{
	ID:    "history",
	Title: "Inspection history",
}

// sqliteURLEnv overrides the default of the --sqlite-url flag, matching the web application configuration.
const sqliteURLEnv = "INSPECTION_SQLITE_URL"

func init() {
	Export.Flags().String("sqlite-url", "./inspection.sqlite3", "SQLite URL, defaults to $"+sqliteURLEnv+" when set")
	Export.Flags().String("format", string(export.FormatXLSX), "csv or xlsx")
	Export.Flags().String("out", "", "output file, defaults to historico_inspecoes.<format>")
}

var Export = &cobra.Command{
	Use:     "export",
	GroupID: "history",
	Short:   "Export stored inspections",
	Long:    `Writes every inspection stored in the database to a CSV or XLSX file, one row per inspection.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		flags := cmd.Flags()
		sqliteURL, err := flags.GetString("sqlite-url")
		if err != nil {
			return errors.Wrap(err, "get sqlite-url flag")
		}
		if env, ok := os.LookupEnv(sqliteURLEnv); ok && !flags.Changed("sqlite-url") {
			sqliteURL = env
		}
		formatFlag, err := flags.GetString("format")
		if err != nil {
			return errors.Wrap(err, "get format flag")
		}
		format, err := export.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		out, err := flags.GetString("out")
		if err != nil {
			return errors.Wrap(err, "get out flag")
		}
		if out == "" {
			out = format.Filename("historico_inspecoes")
		}

		logger := logging.NewLogger(cmd.ErrOrStderr(), slog.LevelInfo)
		db, err := sqlite.NewDatabase(ctx, sqliteURL, logger)
		if err != nil {
			return errors.Wrap(err, "open database", slog.String("url", sqliteURL))
		}
		defer func() {
			_ = db.Close()
		}()

		rows, err := repositories.NewInspectionRepository(db, logger).ReadAllRecords(ctx)
		if err != nil {
			return errors.Wrap(err, "read records")
		}
		content, err := export.Rows(format, rows)
		if err != nil {
			return errors.Wrap(err, "export rows")
		}
		if err = os.WriteFile(out, content, 0o600); err != nil {
			return errors.Wrap(err, "write export", slog.String("path", out))
		}
		logger.LogAttrs(ctx, slog.LevelInfo, "exported inspections",
			slog.Int("rows", len(rows)), slog.String("path", out))
		return nil
	},
}
