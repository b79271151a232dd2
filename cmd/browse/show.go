package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kevinnadar22/announce/internal/app"
	"github.com/kevinnadar22/announce/internal/view"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one press release",
	Long: `Show one press release with its key highlights and simplified versions.
Sections missing in the chosen language are marked as not available.

Examples:
  browse show 42
  browse show 42 --language hi`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil || id < 1 {
		return fmt.Errorf("invalid id %q", args[0])
	}

	lang := language
	if lang == "" {
		lang = app.DefaultLanguage
	}
	res := app.NewDetailView(env.detail, id, nil).Open(cmd.Context(), lang)
	page := view.RenderDetail(res.Input(), env.sanitize(), env.cardOptions())

	out := cmd.OutOrStdout()
	if jsonOut {
		return writeJSON(out, page)
	}
	newPrinter(out, !noColor).Detail(page)

	switch page.State {
	case view.DetailNotFound:
		return fmt.Errorf("announcement %d not found", id)
	case view.DetailError:
		return fmt.Errorf("announcement %d unavailable: %v", id, res.Err)
	}
	return nil
}
