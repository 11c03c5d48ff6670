package cli

import (
	"github.com/spf13/cobra"
)

// addHelpCommands adds workflow documentation commands.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newExamplesCmd())
	rootCmd.AddCommand(newQuickstartCmd())
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "examples",
		Short:       "Show common workflow examples",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Common Workflow Examples")
			output.Println()

			examples := []struct {
				title    string
				commands []string
			}{
				{
					title: "Browser Dashboard",
					commands: []string{
						"insights serve                         # Serve on :8080",
						"insights serve --addr 127.0.0.1:9000   # Custom listen address",
						"insights serve --env production        # Read the Firestore collection",
					},
				},
				{
					title: "Terminal Dashboard",
					commands: []string{
						"insights watch                         # Live feed, n/p to select, a to ask",
						"insights list                          # One-shot summary table",
						"insights list --full                   # Every card, fully rendered",
						"insights list --json                   # Raw documents",
					},
				},
				{
					title: "Asking the Assistant",
					commands: []string{
						"insights ask <id> 0                    # Confirm, copy context, open chat",
						"insights ask <id> 0 --print            # Only print the context",
						"insights ask <id> 0 --yes              # Skip the confirmation",
					},
				},
				{
					title: "Local Data",
					commands: []string{
						"insights publish insight.json          # Write documents to SQLite",
						"insights watch --seed sample.json      # Seed the store before watching",
					},
				},
			}

			for _, ex := range examples {
				output.Info("%s", ex.title)
				for _, c := range ex.commands {
					output.Printf("  %s\n", c)
				}
				output.Println()
			}
			return nil
		},
	}
}

func newQuickstartCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "quickstart",
		Short:       "New user guide",
		Annotations: map[string]string{skipSetup: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			output.Bold("Insights Dashboard - Quick Start Guide")
			output.Println()

			steps := []struct {
				title string
				desc  string
				cmd   string
			}{
				{"Create the configuration", "The first run writes config.toml with a local SQLite store.", "insights config path"},
				{"Publish a sample insight", "Write a JSON document into the local store.", "insights publish insight.json"},
				{"Open the dashboard", "Serve the live feed and open it in a browser.", "insights serve"},
				{"Switch to Firestore", "Set store.project_id and run with the production environment.", "insights serve --env production"},
			}

			for i, s := range steps {
				output.Printf("→ Step %d: %s\n", i+1, s.title)
				output.Printf("  %s\n", s.desc)
				output.Dim("  %s", s.cmd)
				output.Println()
			}
			return nil
		},
	}
}
