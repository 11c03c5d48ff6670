package cli

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"insights-dashboard/internal/dashboard"
	apperrors "insights-dashboard/internal/errors"
	"insights-dashboard/internal/logging"
	"insights-dashboard/internal/mapper"
	"insights-dashboard/internal/models"
	"insights-dashboard/internal/notify"
	"insights-dashboard/internal/render"
)

func newListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the latest insights",
		Long:  "Read the first snapshot of the insight feed, print it and exit.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			seed, _ := cmd.Flags().GetString("seed")
			full, _ := cmd.Flags().GetBool("full")

			state, err := app.firstState(ctx, seed)
			if err != nil {
				return err
			}

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(insightDocuments(state))
			}
			if full {
				term := render.NewTerminal(output.ColorEnabled(), 0)
				output.Println(term.Draw(app.renderer().Render(state)))
				return nil
			}
			printInsightTable(output, app.renderer().Formatter(), state)
			return nil
		},
	}
	cmd.Flags().Bool("full", false, "render every insight card")
	cmd.Flags().String("seed", "", "JSON file of documents to write before subscribing")
	return cmd
}

// insightDocuments converts records back to their document form, with ids.
func insightDocuments(state dashboard.State) []map[string]interface{} {
	docs := make([]map[string]interface{}, 0, len(state.Records))
	for _, rec := range state.Records {
		doc := mapper.Unmap(rec)
		if rec.ID != "" {
			doc["id"] = rec.ID
		}
		docs = append(docs, doc)
	}
	return docs
}

func printInsightTable(output *Output, f render.Formatter, state dashboard.State) {
	if state.IsEmpty() {
		output.Dim(render.EmptyText)
		return
	}

	table := NewTable(output, "#", "ID", "TIME", "KIND", "SUMMARY")
	for i, rec := range state.Records {
		table.AddRow(
			strconv.Itoa(i),
			rec.Key(i),
			f.Timestamp(rec.Timestamp),
			recordKind(rec),
			truncate(recordSummary(rec), 60),
		)
	}
	table.Render()
}

func recordKind(rec models.InsightRecord) string {
	if rec.IsLegacy() {
		return "text"
	}
	body, _ := rec.Structured()
	return fmt.Sprintf("%d recs", len(body.Recommendations))
}

func recordSummary(rec models.InsightRecord) string {
	if rec.Meta.Title != "" {
		return rec.Meta.Title
	}
	switch b := rec.Body.(type) {
	case models.LegacyBody:
		return strings.Join(strings.Fields(b.Message), " ")
	case models.StructuredBody:
		if b.MarketOverview != nil && b.MarketOverview.Summary != "" {
			return b.MarketOverview.Summary
		}
		symbols := make([]string, 0, len(b.Recommendations))
		for _, r := range b.Recommendations {
			symbols = append(symbols, r.Symbol)
		}
		return strings.Join(symbols, ", ")
	}
	return ""
}

func newAskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <insight-id> <index>",
		Short: "Hand a recommendation over to the chat assistant",
		Long: `Copy the context of one recommendation to the clipboard and open the
chat assistant. The index counts recommendations of the insight from 0.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()

			index, err := strconv.Atoi(args[1])
			if err != nil {
				return apperrors.NewValidationError("index", args[1], "must be a number")
			}
			seed, _ := cmd.Flags().GetString("seed")
			printOnly, _ := cmd.Flags().GetBool("print")
			yes, _ := cmd.Flags().GetBool("yes")

			state, err := app.firstState(ctx, seed)
			if err != nil {
				return err
			}
			rec, err := findRecommendation(state, args[0], index)
			if err != nil {
				return err
			}

			output := NewOutput(cmd)
			if printOnly {
				output.Println(render.RecommendationContext(rec))
				return nil
			}

			logger := logging.WithOperation(logging.WithInsight(app.Logger, args[0]), "ask")
			popups := notify.NewPopups(logger)
			popups.OnChange(func(p notify.Popup) {
				if p.Open {
					output.Println(notify.FormatPopup(p, output.ColorEnabled()))
				}
			})
			assistant := notify.NewAssistant(popups, app.Config.Assistant.ChatURL, logger)

			done := make(chan notify.HandoffResult, 1)
			assistant.Ask(ctx, rec, func(res notify.HandoffResult) { done <- res })

			if !yes && !confirmed(cmd) {
				popups.Cancel()
				output.Dim("Cancelled")
				return nil
			}
			popups.Confirm()

			var res notify.HandoffResult
			select {
			case res = <-done:
			case <-ctx.Done():
				return ctx.Err()
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"symbol": rec.Symbol,
					"copied": res.Copied,
					"opened": res.Opened,
				})
			}
			if !res.Opened {
				output.Warning("Open %s in your browser", assistant.ChatURL)
			}
			return nil
		},
	}
	cmd.Flags().Bool("print", false, "print the context instead of copying it")
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation")
	cmd.Flags().String("seed", "", "JSON file of documents to write before subscribing")
	return cmd
}

// confirmed reads one answer line from the command input.
func confirmed(cmd *cobra.Command) bool {
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "כן":
		return true
	default:
		return false
	}
}

// findRecommendation returns recommendation index of the insight with id.
func findRecommendation(state dashboard.State, id string, index int) (models.Recommendation, error) {
	rec, ok := state.Find(id)
	if !ok {
		return models.Recommendation{}, fmt.Errorf("insight %s: %w", id, apperrors.ErrNotFound)
	}
	body, ok := rec.Structured()
	if !ok {
		return models.Recommendation{}, fmt.Errorf("insight %s has no recommendations: %w", id, apperrors.ErrNotFound)
	}
	if index < 0 || index >= len(body.Recommendations) {
		return models.Recommendation{}, fmt.Errorf("insight %s recommendation %d: %w", id, index, apperrors.ErrNotFound)
	}
	return body.Recommendations[index], nil
}
