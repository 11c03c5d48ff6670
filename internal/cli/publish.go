package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"insights-dashboard/internal/config"
	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/logging"
)

func newPublishCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <file.json>",
		Short: "Write insight documents to the local store",
		Long: `Write one document or an array of documents to the insight collection
of the local SQLite store. Running dashboards pick them up immediately.

A string "id" field sets the document id; otherwise one is generated.
Documents without a timestamp get the current time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			switch app.Config.Store.Backend {
			case config.BackendSQLite:
			case config.BackendMemory:
				return fmt.Errorf("the memory backend does not outlive this command; use --seed with serve or watch")
			default:
				return fmt.Errorf("%s backend: %w", app.Config.Store.Backend, apperrors.ErrReadOnlyStore)
			}

			docs, err := loadDocuments(args[0])
			if err != nil {
				return err
			}

			st, err := app.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			logger := logging.WithOperation(app.Logger, "publish")
			ids, err := writeDocuments(ctx, st, app.query().Collection, docs, time.Now())
			if err != nil {
				logger.Error().Err(err).Str("file", args[0]).Msg("Publishing failed")
				return err
			}
			logger.Info().Int("documents", len(ids)).Str("file", args[0]).Msg("Published documents")

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"ids": ids, "count": len(ids)})
			}
			for _, id := range ids {
				output.Printf("  %s\n", id)
			}
			output.Success("✓ Published %d document(s) to %s", len(ids), app.query().Collection)
			return nil
		},
	}
}
