/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package command

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"segplay/internal/transport"
	"segplay/pkg/spec"
)

// Server is the line-oriented control socket. One command per line; every
// command gets exactly one reply line.
//
//	PING    -> PONG
//	ABOUT   -> name and version
//	STATUS  -> JSON snapshot
//	FORWARD, REWIND, PAUSE, RESUME, QUIT -> OK | ERR BUSY
//	anything else -> ERR UNKNOWN
type Server struct {
	path   string
	q      *Queue
	status func() transport.Status
	log    zerolog.Logger

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func NewServer(path string, q *Queue, status func() transport.Status, log zerolog.Logger) *Server {
	if path == "" {
		path = spec.DefaultSocketFile
	}
	return &Server{path: path, q: q, status: status, log: log, conns: make(map[net.Conn]struct{})}
}

// Listen binds the socket, replacing a stale one left by an earlier run.
func (s *Server) Listen() error {
	_ = os.Remove(s.path)
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.path, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Info().Str("socket", s.path).Msg("control socket listening")
	return nil
}

// Serve accepts connections until ctx is done, then closes every client and
// removes the socket file.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
		ln = s.ln
	}

	go func() {
		<-ctx.Done()
		s.shutdown()
	}()

	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			s.log.Warn().Err(err).Msg("accept")
			continue
		}
		s.track(c, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(c, false)
			s.handleConn(c)
		}()
	}
}

func (s *Server) track(c net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[c] = struct{}{}
		return
	}
	delete(s.conns, c)
}

func (s *Server) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		s.ln.Close()
	}
	for c := range s.conns {
		c.Close()
	}
	_ = os.Remove(s.path)
}

func (s *Server) handleConn(c net.Conn) {
	defer c.Close()
	s.log.Debug().Msg("control client connected")

	sc := bufio.NewScanner(c)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		reply := s.dispatch(line)
		if _, err := c.Write([]byte(reply + "\n")); err != nil {
			return
		}
	}
}

func (s *Server) dispatch(line string) string {
	verb := strings.ToUpper(strings.Fields(line)[0])

	switch verb {
	case "PING":
		return "PONG"
	case "ABOUT":
		return fmt.Sprintf("%s V.%d.%d", spec.AppName, spec.VersionMajor, spec.VersionMinor)
	case "STATUS":
		if s.status == nil {
			return "ERR UNAVAILABLE"
		}
		j, err := json.Marshal(s.status())
		if err != nil {
			return "ERR INTERNAL"
		}
		return string(j)
	}

	ev, ok := transport.ParseEvent(verb)
	if !ok {
		return "ERR UNKNOWN"
	}
	s.log.Debug().Stringer("event", ev).Msg("socket command")
	if !s.q.Push(ev) {
		return "ERR BUSY"
	}
	return "OK"
}
