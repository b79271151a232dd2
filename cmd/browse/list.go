package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kevinnadar22/announce/internal/app"
	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/view"
)

var listFlags struct {
	search   string
	category int
	ministry int
	audience int
	location string
	from     string
	to       string
	page     int
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List press releases",
	Long: `List one page of press releases, newest first.

Examples:
  browse list                                  # First page
  browse list --ministry 3 --from 2024-03-01   # Filtered
  browse list --json                           # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	f := listCmd.Flags()
	f.StringVarP(&listFlags.search, "search", "s", "", "search text")
	f.IntVar(&listFlags.category, "category", 0, "category id")
	f.IntVar(&listFlags.ministry, "ministry", 0, "ministry id")
	f.IntVar(&listFlags.audience, "audience", 0, "audience type id")
	f.StringVar(&listFlags.location, "location", "", "PIB office, e.g. \"PIB Delhi\"")
	f.StringVar(&listFlags.from, "from", "", "first publication day (YYYY-MM-DD)")
	f.StringVar(&listFlags.to, "to", "", "last publication day (YYYY-MM-DD)")
	f.IntVarP(&listFlags.page, "page", "p", 1, "page number")
}

func runList(cmd *cobra.Command, args []string) error {
	state, err := stateFromFlags(cmd)
	if err != nil {
		return err
	}

	session := app.NewListSession(cmd.Context(), env.fetcher, env.builder, env.ctrl,
		app.WithInitialState(state),
		app.WithCardOptions(env.cardOptions()),
	)
	session.Start()
	session.Wait()
	snap := session.Snapshot()

	out := cmd.OutOrStdout()
	if jsonOut {
		return writeJSON(out, snap.View)
	}
	p := newPrinter(out, !noColor)
	p.List(snap.View)
	if snap.View.Status == view.ListFailed {
		return fmt.Errorf("list unavailable")
	}
	return nil
}

// stateFromFlags applies flags through the State setters so page resets
// and normalization match the HTTP service.
func stateFromFlags(cmd *cobra.Command) (filter.State, error) {
	s := filter.NewState()
	s.SetSearch(listFlags.search)
	if cmd.Flags().Changed("category") {
		s.SetCategory(positive(listFlags.category))
	}
	if cmd.Flags().Changed("ministry") {
		s.SetMinistry(positive(listFlags.ministry))
	}
	if cmd.Flags().Changed("audience") {
		s.SetAudience(positive(listFlags.audience))
	}
	s.SetLanguage(language)
	s.SetLocation(listFlags.location)

	from, err := day(listFlags.from)
	if err != nil {
		return s, fmt.Errorf("--from: %w", err)
	}
	to, err := day(listFlags.to)
	if err != nil {
		return s, fmt.Errorf("--to: %w", err)
	}
	s.SetDateRange(from, to)

	if listFlags.page < 1 {
		return s, fmt.Errorf("--page must be at least 1")
	}
	s.SetPage(listFlags.page)
	return s, nil
}

func positive(v int) *int {
	if v < 1 {
		return nil
	}
	return &v
}

func day(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", v, view.IST)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", v)
	}
	return &t, nil
}
