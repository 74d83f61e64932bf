package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/rs/zerolog"

	"segplay/internal/transport"
)

const linePrompt = "segplay> "

// LineReader is an interactive prompt with tab completion of the command
// words. "status" prints the engine snapshot instead of sending an event.
type LineReader struct {
	rl     *readline.Instance
	q      *Queue
	status func() transport.Status
	out    io.Writer
	log    zerolog.Logger
}

func NewLineReader(q *Queue, status func() transport.Status, log zerolog.Logger) (*LineReader, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: linePrompt,
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("forward"),
			readline.PcItem("back"),
			readline.PcItem("rewind"),
			readline.PcItem("pause"),
			readline.PcItem("resume"),
			readline.PcItem("status"),
			readline.PcItem("quit"),
		),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("readline: %w", err)
	}
	return &LineReader{rl: rl, q: q, status: status, out: rl.Stdout(), log: log}, nil
}

// Run reads lines until quit, EOF, interrupt, or ctx cancellation.
func (l *LineReader) Run(ctx context.Context) error {
	defer l.rl.Close()
	go func() {
		<-ctx.Done()
		l.rl.Close()
	}()

	for {
		line, err := l.rl.Readline()
		if err != nil {
			l.q.Push(transport.Quit)
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("readline: %w", err)
		}
		if l.handle(line) {
			return nil
		}
	}
}

// handle dispatches one line and reports whether the prompt should exit.
func (l *LineReader) handle(line string) bool {
	word := strings.TrimSpace(line)
	if word == "" {
		return false
	}

	if strings.EqualFold(word, "status") {
		if l.status == nil {
			fmt.Fprintln(l.out, "status unavailable")
			return false
		}
		j, _ := json.MarshalIndent(l.status(), "", "  ")
		fmt.Fprintln(l.out, string(j))
		return false
	}

	ev, ok := transport.ParseEvent(word)
	if !ok {
		fmt.Fprintf(l.out, "unknown command %q (forward, back, pause, resume, status, quit)\n", word)
		return false
	}
	l.log.Debug().Stringer("event", ev).Msg("prompt")
	if !l.q.Push(ev) {
		fmt.Fprintln(l.out, "busy, try again")
	}
	return ev == transport.Quit
}
