/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"segplay/internal/transport"
)

const ttyPath = "/dev/tty"

var ErrNotTerminal = errors.New("stdin is not a terminal")

// InitTerminal puts the controlling terminal into cbreak mode without echo so
// single key presses arrive immediately. The returned func restores it.
func InitTerminal() (func(), error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return func() {}, ErrNotTerminal
	}
	if err := exec.Command("stty", "-F", ttyPath, "cbreak", "min", "1", "-echo").Run(); err != nil {
		return func() {}, fmt.Errorf("stty cbreak: %w", err)
	}
	fmt.Print("\033[?25l")
	return CleanupTerminal, nil
}

func CleanupTerminal() {
	exec.Command("stty", "-F", ttyPath, "sane").Run()
	fmt.Print("\033[?25h")
}

// KeyReader turns single key presses into events:
//
//	f  forward    r  rewind    p  pause    u  resume    q  quit
//
// Space toggles pause when a status func is set.
type KeyReader struct {
	in     io.Reader
	q      *Queue
	status func() transport.Status
	log    zerolog.Logger
}

func NewKeyReader(in io.Reader, q *Queue, status func() transport.Status, log zerolog.Logger) *KeyReader {
	return &KeyReader{in: in, q: q, status: status, log: log}
}

// Run reads keys until EOF or ctx is done. EOF pushes Quit. The blocking read
// is left behind on cancellation; it ends with the process.
func (k *KeyReader) Run(ctx context.Context) error {
	keys := make(chan byte)
	done := make(chan error, 1)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := k.in.Read(buf)
			if n == 1 {
				select {
				case keys <- buf[0]:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				done <- err
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-done:
			k.q.Push(transport.Quit)
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read keys: %w", err)
		case b := <-keys:
			ev, ok := k.mapKey(b)
			if !ok {
				continue
			}
			k.log.Debug().Str("key", string(rune(b))).Stringer("event", ev).Msg("key")
			k.q.Push(ev)
		}
	}
}

func (k *KeyReader) mapKey(b byte) (transport.Event, bool) {
	switch b {
	case 'f', 'F':
		return transport.SeekForward, true
	case 'r', 'R':
		return transport.SeekBackward, true
	case 'p', 'P':
		return transport.Pause, true
	case 'u', 'U':
		return transport.Resume, true
	case 'q', 'Q', 0x03:
		return transport.Quit, true
	case ' ':
		if k.status == nil {
			return 0, false
		}
		if k.status().State == transport.Paused {
			return transport.Resume, true
		}
		return transport.Pause, true
	}
	return 0, false
}
