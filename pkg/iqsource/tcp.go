// Package iqsource streams raw interleaved I/Q sample pairs from an
// rtl_tcp instance, one of the two SampleSource implementations the core
// receiver pipeline treats as an external collaborator.
package iqsource

import (
	"context"
	"fmt"
	"net"

	"github.com/bemasher/rtltcp"
)

// Config configures the rtl_tcp connection and tuning parameters.
type Config struct {
	ServerAddr string // host:port of the rtl_tcp instance
	CenterHz   uint32
	SampleRate uint32
	AGC        bool // true selects automatic gain control
	BlockSize  int
}

// TCPSource streams raw I/Q bytes from an rtl_tcp server via the
// bemasher/rtltcp client, the same client the pack's rtlamr tooling uses
// to talk to rtl_tcp.
type TCPSource struct {
	rtltcp.SDR
	blockSize int
}

// Open connects to the configured rtl_tcp server and applies tuning.
func Open(cfg Config) (*TCPSource, error) {
	s := &TCPSource{blockSize: cfg.BlockSize}
	if s.blockSize <= 0 {
		s.blockSize = 16384
	}

	addr, err := net.ResolveTCPAddr("tcp", cfg.ServerAddr)
	if err != nil {
		return nil, fmt.Errorf("rtl_tcp resolve %s failed: %w", cfg.ServerAddr, err)
	}
	if err := s.Connect(addr); err != nil {
		return nil, fmt.Errorf("rtl_tcp connect to %s failed: %w", cfg.ServerAddr, err)
	}

	if cfg.SampleRate != 0 {
		s.SetSampleRate(cfg.SampleRate)
	}
	if cfg.CenterHz != 0 {
		s.SetCenterFreq(cfg.CenterHz)
	}
	s.SetGainMode(cfg.AGC)

	return s, nil
}

// Stream reads raw I/Q byte buffers until ctx is cancelled or a read
// fails, calling onBuf for each buffer received. onBuf must not retain
// the slice past the call; the buffer is reused on the next read.
func (s *TCPSource) Stream(ctx context.Context, onBuf func(buf []byte)) error {
	buf := make([]byte, s.blockSize)
	for {
		if ctx.Err() != nil {
			return nil
		}
		n, err := s.Read(buf)
		if err != nil {
			return fmt.Errorf("rtl_tcp read failed: %w", err)
		}
		if n > 0 {
			onBuf(buf[:n])
		}
	}
}
