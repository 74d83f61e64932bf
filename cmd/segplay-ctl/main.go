/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the HDX (Hardix Audio) project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"segplay/pkg/spec"
)

const (
	app_name      = "SEGPLAY-Ctl"
	general_usage = "Usage: ./segplay-ctl [-socket path] [COMMAND ...]"
)

func main() {
	socket := flag.String("socket", spec.DefaultSocketFile, "control socket of a running segplay")
	timeout := flag.Duration("timeout", 2*time.Second, "dial and reply timeout for one-shot commands")
	flag.Parse()

	conn, err := net.DialTimeout("unix", *socket, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[!] connect %s: %v\n", *socket, err)
		os.Exit(1)
	}
	defer conn.Close()

	// One-shot: ./segplay-ctl FORWARD
	if flag.NArg() > 0 {
		conn.SetDeadline(time.Now().Add(*timeout))
		reply, err := roundTrip(conn, bufio.NewReader(conn), strings.Join(flag.Args(), " "))
		if err != nil {
			fmt.Fprintf(os.Stderr, "[!] %v\n", err)
			os.Exit(1)
		}
		fmt.Println(reply)
		if strings.HasPrefix(reply, "ERR") {
			os.Exit(1)
		}
		return
	}

	fmt.Printf("\n%s V.%d.%d\n", app_name, spec.VersionMajor, spec.VersionMinor)
	fmt.Println(general_usage)
	fmt.Println("CONNECTED, type PING, STATUS, FORWARD, REWIND, PAUSE, RESUME or QUIT")
	fmt.Println(`Type "EXIT" to leave without stopping the player`)
	fmt.Println()

	if err := interactive(os.Stdin, os.Stdout, conn); err != nil {
		fmt.Fprintf(os.Stderr, "[!] %v\n", err)
		os.Exit(1)
	}
}

// roundTrip sends one command line and reads its single reply line.
func roundTrip(w io.Writer, r *bufio.Reader, line string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}
	reply, err := r.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func interactive(in io.Reader, out io.Writer, conn io.ReadWriter) error {
	sc := bufio.NewScanner(in)
	replies := bufio.NewReader(conn)
	for {
		fmt.Fprint(out, "segplay> ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "EXIT") {
			fmt.Fprintln(out, "Bye.")
			return nil
		}

		reply, err := roundTrip(conn, replies, line)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply)
		if strings.EqualFold(line, "QUIT") && reply == "OK" {
			return nil
		}
	}
}
