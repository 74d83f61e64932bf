/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"segplay/internal/command"
	"segplay/internal/config"
	"segplay/internal/logging"
	"segplay/internal/metrics"
	"segplay/internal/segment"
	"segplay/internal/sink"
	"segplay/internal/source"
	"segplay/internal/transport"
	"segplay/pkg/spec"
)

const (
	app_title     = "SEGPLAY Segmented Player"
	general_usage = "Usage: ./segplay [flags] <audio file>"
	keys_usage    = "Keys: [f] forward  [r] rewind  [p] pause  [u] resume  [space] toggle  [q] quit"
)

func main() {
	fmt.Println("========================================")
	fmt.Printf("%s version %d.%d\n", app_title, spec.VersionMajor, spec.VersionMinor)

	cfg, err := config.Load(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		fmt.Printf("\n%s\n", general_usage)
		os.Exit(2)
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(2)
	}

	log = log.With().Str("session", uuid.NewString()).Logger()
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("playback aborted")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wave, err := source.DecodeFile(cfg.Playback.SourceFilePath)
	if err != nil {
		return err
	}
	log.Info().Str("path", wave.Path).Int("rate", wave.SampleRate).Int("channels", wave.Channels).
		Int64("total_ms", wave.TotalDurationMs()).Msg("source loaded")

	ex, err := segment.NewExtractor(wave, segment.Options{
		Codec:       cfg.Playback.Codec,
		OpusBitrate: cfg.Playback.OpusBitrate,
	})
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Addr != "" {
		m = metrics.NewMetrics()
	}

	out, err := newSink(cfg, wave, log)
	if err != nil {
		return err
	}

	eng, err := transport.New(wave, ex, out, transport.Config{
		StepMs:       cfg.Playback.StepMs,
		TickInterval: cfg.Playback.TickInterval,
		Loop:         cfg.Playback.Loop,
	},
		transport.WithLogger(log.With().Str("component", "transport").Logger()),
		transport.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	queue := command.NewQueue(command.DefaultQueueSize, cfg.Playback.TickInterval,
		command.WithQueueLogger(log.With().Str("component", "command").Logger()))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if m != nil {
		g.Go(func() error {
			m.Serve(gctx, cfg.Metrics.Addr, log)
			return nil
		})
	}

	if cfg.Control.Socket != "" {
		srv := command.NewServer(cfg.Control.Socket, queue, eng.Status,
			log.With().Str("component", "ipc").Logger())
		if err := srv.Listen(); err != nil {
			return err
		}
		g.Go(func() error { return srv.Serve(gctx) })
	}

	switch cfg.Control.Input {
	case config.InputKeys:
		restore, err := command.InitTerminal()
		if err != nil {
			log.Warn().Err(err).Msg("no terminal, key input disabled")
			break
		}
		defer restore()
		fmt.Println(keys_usage)
		kr := command.NewKeyReader(os.Stdin, queue, eng.Status, log)
		g.Go(func() error { return kr.Run(gctx) })
		g.Go(func() error { return statusLine(gctx, eng.Status) })
	case config.InputLine:
		lr, err := command.NewLineReader(queue, eng.Status, log)
		if err != nil {
			return err
		}
		g.Go(func() error { return lr.Run(gctx) })
	}

	g.Go(func() error {
		defer cancel()
		return eng.Run(gctx, queue)
	})

	err = g.Wait()
	st := eng.Status()
	log.Info().Int64("position_ms", st.PositionMs).Int64("splices", st.Splices).
		Int64("sync_extracts", st.SyncExtracts).Int64("underruns", st.Underruns).
		Int64("stale_prefetches", st.Stale).Msg("session finished")
	return err
}

func newSink(cfg *config.Config, wave *source.Waveform, log zerolog.Logger) (transport.Sink, error) {
	sinkLog := log.With().Str("component", "sink").Logger()
	switch cfg.Output.Sink {
	case config.SinkClock:
		return sink.NewClock(sink.WithLogger(sinkLog)), nil
	default:
		return sink.NewSpeaker(wave.SampleRate, cfg.Output.SpeakerBuffer, cfg.Output.VolumeDB, sinkLog)
	}
}
