package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"cuetrack/internal/cue"
	"cuetrack/internal/loading"
	"cuetrack/internal/logging"
	"cuetrack/internal/playback"
	"cuetrack/internal/source"
	"cuetrack/internal/transcript"
	"cuetrack/internal/tui"
)

type followOptions struct {
	duration float64
	rate     float64
	plain    bool
}

func newFollowCommand(ctx *commandContext) *cobra.Command {
	var opts followOptions

	cmd := &cobra.Command{
		Use:   "follow <file|url>",
		Short: "Play captions against a simulated clock and show the active cue",
		Long: "Follow loads captions into a transcript session and advances a simulated\n" +
			"playback clock. On a terminal it opens an interactive transcript panel;\n" +
			"otherwise it prints one line per active cue and loading change and exits\n" +
			"once the last cue has played.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFollow(cmd, ctx, args[0], opts)
		},
	}

	cmd.Flags().Float64Var(&opts.duration, "duration", 0, "Media duration in seconds (0 ends after the last cue)")
	cmd.Flags().Float64Var(&opts.rate, "rate", 1, "Playback rate")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Print lines instead of the interactive panel")
	return cmd
}

func runFollow(cmd *cobra.Command, ctx *commandContext, ref string, opts followOptions) error {
	if opts.rate <= 0 || math.IsNaN(opts.rate) {
		return fmt.Errorf("invalid rate %v", opts.rate)
	}
	if opts.duration < 0 || math.IsNaN(opts.duration) {
		return fmt.Errorf("invalid duration %v", opts.duration)
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	interactive := !opts.plain && isTerminal(cmd.OutOrStdout())

	var logger *slog.Logger
	if interactive {
		logger, err = ctx.fileLogger()
	} else {
		logger, err = ctx.logger()
	}
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := ctx.openCache(cmd.ErrOrStderr(), logger)
	defer closeCache(store)
	src, err := ctx.sourceFor(ref, store, logger)
	if err != nil {
		return err
	}

	var (
		session  *transcript.Session
		bridge   *tui.Bridge
		renderer transcript.Renderer
		done     = make(chan struct{})
		doneOnce sync.Once
	)
	finish := func() { doneOnce.Do(func() { close(done) }) }

	if interactive {
		bridge = &tui.Bridge{}
		logger = logging.TeeLogger(logger, logging.NewLineHandler(slog.LevelWarn, bridge.LogLine))
		renderer = bridge
	} else {
		renderer = &linePrinter{out: cmd.OutOrStdout(), finish: finish}
	}

	clock := playback.New(playback.Options{
		Duration:     opts.duration,
		TickInterval: cfg.TickInterval(),
		Rate:         opts.rate,
		Hooks: playback.Hooks{
			OnTime: func(t float64) {
				session.Tick(t)
				if !interactive && opts.duration == 0 && lastCuePlayed(session, t) {
					finish()
				}
			},
			OnPlay: func() { session.OnPlay() },
			OnEnded: func() {
				session.OnEnded()
				if interactive {
					return
				}
				go func() {
					select {
					case <-time.After(cfg.FinalCheckDelay() + cfg.PollInterval()):
					case <-runCtx.Done():
					}
					finish()
				}()
			},
		},
	})

	sessionOpts := transcript.OptionsFromConfig(cfg)
	sessionOpts.Source = src
	sessionOpts.Renderer = renderer
	sessionOpts.Player = clock
	sessionOpts.Clock = clock
	sessionOpts.Logger = logging.WithContext(logging.ContextWithSource(runCtx, source.Describe(src)), logger)
	session, err = transcript.New(sessionOpts)
	if err != nil {
		return err
	}
	if printer, ok := renderer.(*linePrinter); ok {
		printer.session = session
	}

	if err := session.Start(runCtx); err != nil {
		return err
	}
	defer session.Close()

	clockCtx, stopClock := context.WithCancel(runCtx)
	var wg sync.WaitGroup
	wg.Go(func() { _ = clock.Run(clockCtx) })
	defer func() {
		stopClock()
		wg.Wait()
	}()

	if !interactive {
		if err := clock.Play(); err != nil {
			return err
		}
		select {
		case <-done:
		case <-runCtx.Done():
		}
		return followResult(ref, session)
	}

	model := tui.New(session, clock, tui.Options{
		Title:         source.Describe(src),
		RenderPartial: sessionOpts.RenderPartial,
	})
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(runCtx),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	bridge.Attach(program)
	if err := clock.Play(); err != nil {
		return err
	}
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

func followResult(ref string, session *transcript.Session) error {
	state := session.State()
	switch {
	case state.Unavailable:
		return fmt.Errorf("%s has no captions", ref)
	case state.Phase == loading.Failed:
		if err := session.Err(); err != nil {
			return fmt.Errorf("transcript failed to load: %w", err)
		}
		return errors.New("transcript failed to load")
	}
	return nil
}

// lastCuePlayed reports whether the transcript is complete and t has passed
// the end of its last cue.
func lastCuePlayed(session *transcript.Session, t float64) bool {
	if session.State().Phase != loading.Stable {
		return false
	}
	cues := session.Cues()
	if len(cues) == 0 {
		return false
	}
	last := cues[len(cues)-1]
	end := last.End
	if last.OpenEnded() {
		end = last.Start
	}
	return t >= end
}

// linePrinter renders transcript events as plain lines.
type linePrinter struct {
	out     io.Writer
	session *transcript.Session
	finish  func()
}

func (p *linePrinter) ActiveCueChanged(index int, ok bool) {
	if !ok || p.session == nil {
		return
	}
	c, found := p.session.Cue(index)
	if !found {
		return
	}
	fmt.Fprintf(p.out, "[%s] %s\n", cue.FormatTimestamp(c.Start), c.Text)
}

func (p *linePrinter) LoadingStateChanged(state loading.State) {
	fmt.Fprintf(p.out, "loading: %s\n", state)
	if state.Terminal() {
		p.finish()
	}
}

func (p *linePrinter) CuesChanged(int) {}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
