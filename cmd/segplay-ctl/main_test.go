package main

import (
	"bufio"
	"bytes"
	"net"
	"strings"
	"testing"
)

// echoServer answers every line with a canned reply keyed by the verb.
func echoServer(t *testing.T, conn net.Conn, replies map[string]string) {
	t.Helper()
	go func() {
		defer conn.Close()
		sc := bufio.NewScanner(conn)
		for sc.Scan() {
			verb := strings.ToUpper(strings.Fields(sc.Text())[0])
			reply, ok := replies[verb]
			if !ok {
				reply = "ERR UNKNOWN"
			}
			if _, err := conn.Write([]byte(reply + "\n")); err != nil {
				return
			}
		}
	}()
}

func TestRoundTrip(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	echoServer(t, server, map[string]string{"PING": "PONG"})

	r := bufio.NewReader(client)
	if got, err := roundTrip(client, r, "PING"); err != nil || got != "PONG" {
		t.Errorf("PING -> %q, %v", got, err)
	}
	if got, _ := roundTrip(client, r, "DANCE"); got != "ERR UNKNOWN" {
		t.Errorf("DANCE -> %q", got)
	}
}

func TestInteractiveStopsOnQuit(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	echoServer(t, server, map[string]string{"FORWARD": "OK", "QUIT": "OK"})

	in := strings.NewReader("forward\n\nquit\nforward\n")
	var out bytes.Buffer
	if err := interactive(in, &out, client); err != nil {
		t.Fatalf("interactive: %v", err)
	}
	if got := strings.Count(out.String(), "OK"); got != 2 {
		t.Errorf("saw %d replies, want 2:\n%s", got, out.String())
	}
}

func TestInteractiveExit(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	echoServer(t, server, nil)

	var out bytes.Buffer
	if err := interactive(strings.NewReader("exit\n"), &out, client); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Bye.") {
		t.Errorf("output = %q", out.String())
	}
}
