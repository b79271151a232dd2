package main

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/kevinnadar22/announce/internal/app"
	"github.com/kevinnadar22/announce/internal/filter"
	"github.com/kevinnadar22/announce/internal/view"
)

const helpText = `Commands:
  s <text>    search (applied after a pause)
  <enter>     apply pending search now
  n / p       next / previous page
  g <n>       go to page n
  l <code>    filter by translation language ("l" alone clears it)
  c           clear all filters
  r           refresh the current page
  o <id>      open a press release
  lang <code> switch the open press release's language
  b           back to the list
  q           quit`

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i"},
	Short:   "Browse with keyboard commands",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

type repl struct {
	ctx     context.Context
	p       *printer
	session *app.ListSession
	detail  *app.DetailView

	// inDetail mutes list snapshots while a press release is open.
	inDetail atomic.Bool
}

func runInteractive(ctx context.Context, in io.Reader, out io.Writer) error {
	r := &repl{ctx: ctx, p: newPrinter(out, !noColor)}

	state := filter.NewState()
	state.SetLanguage(language)
	r.session = app.NewListSession(ctx, env.fetcher, env.builder, env.ctrl,
		app.WithInitialState(state),
		app.WithCardOptions(env.cardOptions()),
		app.WithDebounce(env.debounce),
		app.WithSubscriber(r.onSnapshot),
	)
	defer r.session.Close()

	r.p.Info("Type h for help.")
	r.session.Start()

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if quit := r.handle(strings.TrimSpace(scanner.Text())); quit {
			return nil
		}
	}
	return scanner.Err()
}

func (r *repl) onSnapshot(s app.Snapshot) {
	// Cached pages are published before their refresh; skip bare spinners.
	if s.View.Status == view.ListLoading || r.inDetail.Load() {
		return
	}
	r.p.List(s.View)
}

func (r *repl) handle(line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		r.session.Submit()
	case "q", "quit", "exit":
		return true
	case "h", "help", "?":
		r.p.Info(helpText)
	case "s", "search":
		r.closeDetail()
		r.session.Type(arg)
	case "n":
		r.goTo(r.session.State().Page + 1)
	case "p":
		r.goTo(r.session.State().Page - 1)
	case "g":
		n, err := strconv.Atoi(arg)
		if err != nil {
			r.p.Warning("usage: g <page>")
			return false
		}
		r.goTo(n)
	case "l":
		r.closeDetail()
		r.session.Update(func(s *filter.State) bool { return s.SetLanguage(arg) })
	case "c", "clear":
		r.closeDetail()
		r.session.Clear()
	case "r", "refresh":
		r.closeDetail()
		r.session.Refresh()
	case "o", "open":
		id, err := strconv.Atoi(arg)
		if err != nil || id < 1 {
			r.p.Warning("usage: o <id>")
			return false
		}
		r.open(id)
	case "lang":
		if r.detail == nil {
			r.p.Warning("open a press release first")
			return false
		}
		if arg == "" {
			arg = app.DefaultLanguage
		}
		r.showDetail(r.detail.SwitchLanguage(r.ctx, arg))
	case "b", "back":
		r.closeDetail()
		r.p.List(r.session.Snapshot().View)
	default:
		r.p.Warning("unknown command %q, type h for help", cmd)
	}
	return false
}

func (r *repl) closeDetail() {
	r.detail = nil
	r.inDetail.Store(false)
}

func (r *repl) goTo(page int) {
	r.closeDetail()
	if page < 1 {
		r.p.Warning("already on the first page")
		return
	}
	r.session.GoToPage(page)
}

func (r *repl) open(id int) {
	lang := r.session.State().LanguageCode
	if lang == "" {
		lang = app.DefaultLanguage
	}
	r.detail = app.NewDetailView(env.detail, id, func(res app.DetailResult) {
		if res.State == view.DetailTransitioning {
			r.p.Info("Switching to %s...", view.LanguageName(res.Language))
		}
	})
	r.inDetail.Store(true)
	r.showDetail(r.detail.Open(r.ctx, lang))
}

func (r *repl) showDetail(res app.DetailResult) {
	page := view.RenderDetail(res.Input(), env.sanitize(), env.cardOptions())
	r.p.Detail(page)
	if res.SwitchFailed && res.Err != nil {
		r.p.Warning("%v", res.Err)
	}
}
