// Package tek drives Tektronix DPO70k-series oscilloscopes over a raw TCP
// SCPI connection.
package tek

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/1smaa/mzivis/internal/instruments"
	"github.com/1smaa/mzivis/internal/waveform"
	"github.com/1smaa/mzivis/pkg/config"
	"go.uber.org/zap"
)

const dialTimeout = 5 * time.Second

// Scope holds the connection to the oscilloscope plus the vertical and
// horizontal scale factors read from the waveform preamble at connect time.
type Scope struct {
	conn   net.Conn
	reader *bufio.Reader
	cfg    config.ScopeConfig
	logger *zap.SugaredLogger

	// Preamble scale factors: volts = (raw − yOff)·yMult + yZero, sample
	// spacing xIncr seconds.
	yMult float64
	yZero float64
	yOff  float64
	xIncr float64
}

// Dial connects to the scope and configures the transfer format: the
// requested channels as data source, 8-bit samples, fastest (big-endian
// binary) encoding, full configured record length. samplingRate is used as
// an xIncr fallback when the preamble query fails to parse.
func Dial(cfg config.ScopeConfig, samplingRate float64, logger *zap.SugaredLogger) (*Scope, error) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort(cfg.Hostname, cfg.Port), dialTimeout)
	if err != nil {
		return nil, fmt.Errorf("connecting to scope at %s:%s: %w", cfg.Hostname, cfg.Port, err)
	}

	s := &Scope{
		conn:   conn,
		reader: bufio.NewReader(conn),
		cfg:    cfg,
		logger: logger,
	}

	sources := make([]string, len(cfg.Channels))
	for i, ch := range cfg.Channels {
		sources[i] = fmt.Sprintf("CH%d", ch)
	}

	setup := []string{
		"DATA:SOU " + strings.Join(sources, ","),
		"DATA:WIDTH 1",
		"DATA:ENC FAS",
		"DATA:START 1",
		fmt.Sprintf("DATA:STOP %d", cfg.Memory),
	}
	for _, cmd := range setup {
		if err := s.write(cmd); err != nil {
			conn.Close()
			return nil, err
		}
	}

	if err := s.readPreamble(samplingRate); err != nil {
		conn.Close()
		return nil, err
	}

	logger.Infof("connected to scope at %s:%s (ymult=%g yzero=%g yoff=%g xincr=%g)",
		cfg.Hostname, cfg.Port, s.yMult, s.yZero, s.yOff, s.xIncr)
	return s, nil
}

func (s *Scope) readPreamble(samplingRate float64) error {
	var err error
	if s.yMult, err = s.queryFloat("WFMPRE:YMULT?"); err != nil {
		return err
	}
	if s.yZero, err = s.queryFloat("WFMPRE:YZERO?"); err != nil {
		return err
	}
	if s.yOff, err = s.queryFloat("WFMPRE:YOFF?"); err != nil {
		return err
	}
	if s.xIncr, err = s.queryFloat("WFMPRE:XINCR?"); err != nil {
		return err
	}
	if s.xIncr <= 0 && samplingRate > 0 {
		s.xIncr = 1 / samplingRate
	}
	if s.xIncr <= 0 {
		return fmt.Errorf("scope reported non-positive sample interval %g", s.xIncr)
	}
	return nil
}

// AcquireWaveform reads one record from the scope and scales it to volts on
// a synthesized timebase.
func (s *Scope) AcquireWaveform(ctx context.Context) (waveform.Waveform, error) {
	if deadline, ok := ctx.Deadline(); ok {
		s.conn.SetDeadline(deadline)
	}
	// Cancellation without a deadline must still unblock a read from a
	// wedged instrument.
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetDeadline(time.Now())
	})
	defer func() {
		stop()
		s.conn.SetDeadline(time.Time{})
	}()

	if err := s.write("CURVE?"); err != nil {
		return waveform.Waveform{}, err
	}

	raw, err := s.readBlock()
	if err != nil {
		return waveform.Waveform{}, err
	}

	volts := make([]float64, len(raw))
	for i, b := range raw {
		volts[i] = (float64(int8(b))-s.yOff)*s.yMult + s.yZero
	}
	return waveform.FromSamples(volts, s.xIncr)
}

// readBlock parses an IEEE-488.2 definite-length binary block:
// '#' <digit count n> <n-digit byte count> <bytes> '\n'.
func (s *Scope) readBlock() ([]byte, error) {
	head, err := s.reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: reading block header: %v", instruments.ErrAcquisition, err)
	}
	if head != '#' {
		return nil, fmt.Errorf("%w: unexpected block header byte %q", instruments.ErrAcquisition, head)
	}

	nDigits, err := s.reader.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("%w: reading block length digit: %v", instruments.ErrAcquisition, err)
	}
	if nDigits < '1' || nDigits > '9' {
		return nil, fmt.Errorf("%w: invalid block length digit %q", instruments.ErrAcquisition, nDigits)
	}

	lenField := make([]byte, nDigits-'0')
	if _, err := io.ReadFull(s.reader, lenField); err != nil {
		return nil, fmt.Errorf("%w: reading block length: %v", instruments.ErrAcquisition, err)
	}
	length, err := strconv.Atoi(string(lenField))
	if err != nil || length <= 0 {
		return nil, fmt.Errorf("%w: invalid block length %q", instruments.ErrAcquisition, lenField)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(s.reader, data); err != nil {
		return nil, fmt.Errorf("%w: reading %d block bytes: %v", instruments.ErrAcquisition, length, err)
	}

	// Consume the terminator the instrument appends after the block.
	if b, err := s.reader.ReadByte(); err == nil && b != '\n' {
		s.reader.UnreadByte()
	}
	return data, nil
}

func (s *Scope) write(cmd string) error {
	if _, err := s.conn.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("%w: writing %q: %v", instruments.ErrAcquisition, cmd, err)
	}
	return nil
}

func (s *Scope) query(cmd string) (string, error) {
	if err := s.write(cmd); err != nil {
		return "", err
	}
	line, err := s.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("%w: reading response to %q: %v", instruments.ErrAcquisition, cmd, err)
	}
	return strings.TrimSpace(line), nil
}

func (s *Scope) queryFloat(cmd string) (float64, error) {
	resp, err := s.query(cmd)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: parsing response %q to %q: %v", instruments.ErrAcquisition, resp, cmd, err)
	}
	return v, nil
}

// Close shuts down the scope connection
func (s *Scope) Close() error {
	return s.conn.Close()
}
