// Package clamav implements the small subset of the clamd TCP protocol the
// pipeline needs: PING and INSTREAM scanning.
package clamav

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"
)

const (
	// INSTREAM chunks are length-prefixed; clamd rejects chunks larger than
	// its StreamMaxLength, 2 KiB keeps us well clear of any configuration.
	chunkSize = 2048

	defaultDialTimeout = 5 * time.Second
	defaultIOTimeout   = 60 * time.Second
)

// ScanResult is the outcome of a completed scan.
type ScanResult struct {
	Infected bool
	Viruses  []string
	Raw      string
}

type Client struct {
	addr        string
	dialTimeout time.Duration
	ioTimeout   time.Duration
}

func New(host string, port int) *Client {
	return &Client{
		addr:        net.JoinHostPort(host, fmt.Sprintf("%d", port)),
		dialTimeout: defaultDialTimeout,
		ioTimeout:   defaultIOTimeout,
	}
}

// Ping checks that clamd is up and answering.
func (c *Client) Ping(ctx context.Context) error {
	conn, err := c.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zPING\x00")); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}
	resp, err := readResponse(conn)
	if err != nil {
		return fmt.Errorf("read ping response: %w", err)
	}
	if resp != "PONG" {
		return fmt.Errorf("unexpected ping response: %q", resp)
	}
	return nil
}

// ScanFile streams the file at path through clamd.
func (c *Client) ScanFile(ctx context.Context, path string) (*ScanResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file for scan: %w", err)
	}
	defer f.Close()
	return c.ScanStream(ctx, f)
}

// ScanStream sends the reader's bytes through the INSTREAM command and parses
// the verdict. Transport problems and clamd-side errors are returned as
// errors; callers decide whether that is fatal (the pipeline fails closed).
func (c *Client) ScanStream(ctx context.Context, r io.Reader) (*ScanResult, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.Write([]byte("zINSTREAM\x00")); err != nil {
		return nil, fmt.Errorf("start instream: %w", err)
	}

	buf := make([]byte, chunkSize)
	lenPrefix := make([]byte, 4)
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			binary.BigEndian.PutUint32(lenPrefix, uint32(n))
			if _, err := conn.Write(lenPrefix); err != nil {
				return nil, fmt.Errorf("send chunk size: %w", err)
			}
			if _, err := conn.Write(buf[:n]); err != nil {
				return nil, fmt.Errorf("send chunk: %w", err)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read scan input: %w", readErr)
		}
	}

	// Zero-length chunk terminates the stream.
	binary.BigEndian.PutUint32(lenPrefix, 0)
	if _, err := conn.Write(lenPrefix); err != nil {
		return nil, fmt.Errorf("terminate instream: %w", err)
	}

	resp, err := readResponse(conn)
	if err != nil {
		return nil, fmt.Errorf("read scan response: %w", err)
	}
	return parseResponse(resp)
}

func (c *Client) dial(ctx context.Context) (net.Conn, error) {
	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("connect to clamd at %s: %w", c.addr, err)
	}
	deadline := time.Now().Add(c.ioTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)
	return conn, nil
}

// readResponse reads a single NUL-terminated clamd reply.
func readResponse(conn net.Conn) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 256)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if i := strings.IndexByte(string(buf[:n]), 0); i >= 0 {
				sb.Write(buf[:i])
				break
			}
			sb.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// parseResponse interprets a scan reply such as "stream: OK" or
// "stream: Eicar-Test-Signature FOUND".
func parseResponse(resp string) (*ScanResult, error) {
	body := resp
	if i := strings.Index(body, ":"); i >= 0 {
		body = strings.TrimSpace(body[i+1:])
	}

	switch {
	case body == "OK":
		return &ScanResult{Infected: false, Raw: resp}, nil
	case strings.HasSuffix(body, "FOUND"):
		name := strings.TrimSpace(strings.TrimSuffix(body, "FOUND"))
		return &ScanResult{Infected: true, Viruses: []string{name}, Raw: resp}, nil
	case strings.HasSuffix(body, "ERROR"):
		return nil, fmt.Errorf("clamd error: %s", resp)
	}
	return nil, fmt.Errorf("unexpected clamd response: %q", resp)
}
