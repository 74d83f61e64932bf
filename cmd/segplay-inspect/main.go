/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"segplay/internal/analysis"
	"segplay/internal/segment"
	"segplay/internal/source"
	"segplay/pkg/spec"
)

const (
	app_name        = "SEGPLAY-Inspect"
	general_usage   = "Usage: ./segplay-inspect [-step ms] [-codec auto|opus|pcm] <audio file>"
	json_dump_usage = "Usage: ./segplay-inspect -json <audio file>"
	spec_usage      = "Usage: ./segplay-inspect -spectrogram out.png <audio file>"
	envelopePoints  = 60
)

// fileReport is the -json document.
type fileReport struct {
	Path       string                  `json:"path"`
	SampleRate int                     `json:"sample_rate"`
	Channels   int                     `json:"channels"`
	TotalMs    int64                   `json:"total_ms"`
	StepMs     int64                   `json:"step_ms"`
	Codec      string                  `json:"codec"`
	Windows    []analysis.WindowReport `json:"windows"`
}

func main() {
	step := flag.Int64("step", spec.DefaultStepMs, "window length in ms")
	codec := flag.String("codec", spec.CodecAuto, "segment codec: auto, opus or pcm")
	bitrate := flag.Int("bitrate", spec.DefaultOpusBitrate, "opus bitrate in bit/s")
	jsonDump := flag.Bool("json", false, "dump the window report as JSON")
	specPath := flag.String("spectrogram", "", "write a spectrogram PNG of the whole file")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Printf("\n%s %d.%d\n", app_name, spec.VersionMajor, spec.VersionMinor)
		fmt.Printf("%s\n%s\n%s\n", general_usage, json_dump_usage, spec_usage)
		return
	}

	wave, err := source.DecodeFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
	ex, err := segment.NewExtractor(wave, segment.Options{Codec: *codec, OpusBitrate: *bitrate})
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
	windows, err := analysis.Windows(wave, ex, *step)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}

	rep := fileReport{
		Path:       wave.Path,
		SampleRate: wave.SampleRate,
		Channels:   wave.Channels,
		TotalMs:    wave.TotalDurationMs(),
		StepMs:     *step,
		Codec:      ex.Codec(),
		Windows:    windows,
	}

	if *jsonDump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "[!] %v\n", err)
			os.Exit(1)
		}
	} else {
		mono := analysis.Mono(wave.Samples, wave.Channels)
		printReport(os.Stdout, rep, analysis.Envelope(mono, envelopePoints))
	}

	if *specPath != "" {
		png, err := analysis.Spectrogram(analysis.Mono(wave.Samples, wave.Channels))
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] spectrogram: %v\n", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*specPath, png, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "[!] %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Spectrogram written to %s\n", *specPath)
	}
}

func printReport(w io.Writer, rep fileReport, env []byte) {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "File     : %s\n", rep.Path)
	fmt.Fprintf(w, "Format   : %d Hz, %d ch\n", rep.SampleRate, rep.Channels)
	fmt.Fprintf(w, "Duration : %.3fs\n", float64(rep.TotalMs)/1000)
	fmt.Fprintf(w, "Codec    : %s, %dms windows\n", rep.Codec, rep.StepMs)
	fmt.Fprintf(w, "Envelope : %s\n", analysis.Sparkline(env))
	fmt.Fprintln(w, "----------------------------------------")
	fmt.Fprintf(w, "%-3s %-20s %6s %6s %8s %9s  %s\n", "#", "RANGE", "PEAK", "RMS", "PACKETS", "BYTES", "PRINT")
	for i, win := range rep.Windows {
		fmt.Fprintf(w, "%-3d %-20s %6.3f %6.3f %8d %9d  %s\n",
			i+1, win.Range, win.Peak, win.RMS, win.Packets, win.Bytes, win.Fingerprint)
	}
}
