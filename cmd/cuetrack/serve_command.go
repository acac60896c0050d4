package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"cuetrack/internal/api"
	"cuetrack/internal/loading"
	"cuetrack/internal/logging"
	"cuetrack/internal/playback"
	"cuetrack/internal/source"
	"cuetrack/internal/transcript"
)

// errAlreadyServing is returned when another serve process holds the lock.
var errAlreadyServing = errors.New("another cuetrack serve instance is already running")

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var autoplay bool
	var duration float64

	cmd := &cobra.Command{
		Use:   "serve <file|url>",
		Short: "Serve a transcript session over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			lock := flock.New(cfg.LockPath())
			ok, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire lock: %w", err)
			}
			if !ok {
				return errAlreadyServing
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					logger.Warn("failed to release serve lock", logging.Error(err))
				}
			}()

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store := ctx.openCache(cmd.ErrOrStderr(), logger)
			defer closeCache(store)
			src, err := ctx.sourceFor(args[0], store, logger)
			if err != nil {
				return err
			}

			var session *transcript.Session
			clock := playback.New(playback.Options{
				Duration:     duration,
				TickInterval: cfg.TickInterval(),
				Hooks: playback.Hooks{
					OnTime:  func(t float64) { session.Tick(t) },
					OnPlay:  func() { session.OnPlay() },
					OnEnded: func() { session.OnEnded() },
				},
			})

			sessionLogger := logging.WithContext(logging.ContextWithSource(runCtx, source.Describe(src)), logger)
			sessionOpts := transcript.OptionsFromConfig(cfg)
			sessionOpts.Source = src
			sessionOpts.Renderer = loggingRenderer(sessionLogger)
			sessionOpts.Player = clock
			sessionOpts.Clock = clock
			sessionOpts.Logger = sessionLogger
			session, err = transcript.New(sessionOpts)
			if err != nil {
				return err
			}
			if err := session.Start(runCtx); err != nil {
				return err
			}
			defer session.Close()

			var wg sync.WaitGroup
			wg.Go(func() { _ = clock.Run(runCtx) })
			defer wg.Wait()

			apiOpts := api.OptionsFromConfig(cfg)
			if strings.TrimSpace(bind) != "" {
				apiOpts.Bind = bind
			}
			apiOpts.Clock = clock
			apiOpts.Logger = logger
			server, err := api.New(session, apiOpts)
			if err != nil {
				return err
			}
			if err := server.Start(runCtx); err != nil {
				return err
			}
			defer server.Stop()

			if autoplay {
				if err := clock.Play(); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving %s on http://%s (session %s)\n", source.Describe(src), server.Addr(), session.ID())

			<-runCtx.Done()
			logger.Info("shutting down", logging.String("session", session.ID()))
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to paths.api_bind)")
	cmd.Flags().BoolVar(&autoplay, "autoplay", false, "Start the playback clock immediately")
	cmd.Flags().Float64Var(&duration, "duration", 0, "Media duration in seconds (0 plays forever)")
	return cmd
}

// loggingRenderer reports session events to the log.
func loggingRenderer(logger *slog.Logger) transcript.Renderer {
	return transcript.RendererFuncs{
		OnActive: func(index int, ok bool) {
			logger.Debug("active cue changed", logging.Int("index", index), logging.Bool("active", ok))
		},
		OnLoading: func(state loading.State) {
			logger.Info("loading state changed", logging.String("state", state.String()))
		},
	}
}
