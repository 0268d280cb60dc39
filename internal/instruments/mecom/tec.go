// Package mecom drives a Meerstetter TEC-1092 temperature controller over
// its MeCom serial protocol.
package mecom

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/1smaa/mzivis/internal/instruments"
	"github.com/1smaa/mzivis/pkg/config"
	serial "github.com/tarm/goserial"
	"go.uber.org/zap"
)

// MeCom parameter IDs from the TEC-1092 command table.
const (
	paramObjectTemperature = 1000 // °C, measured
	paramTargetTemperature = 3000 // °C, setpoint
)

// stableReads is how many consecutive in-tolerance polls WaitStable
// requires before declaring the setpoint reached.
const stableReads = 3

// TEC communicates with a single controller on a serial line
type TEC struct {
	port      io.ReadWriteCloser
	reader    *bufio.Reader
	address   uint8
	channel   uint8
	sequence  uint16
	tolerance float64
	poll      time.Duration
	logger    *zap.SugaredLogger
}

// Open opens the serial port and verifies the controller answers a
// temperature query.
func Open(cfg config.TECConfig, tolerance float64, poll time.Duration, logger *zap.SugaredLogger) (*TEC, error) {
	port, err := serial.OpenPort(&serial.Config{Name: cfg.SerialDevice, Baud: cfg.Baud})
	if err != nil {
		return nil, fmt.Errorf("opening TEC serial port %s: %w", cfg.SerialDevice, err)
	}

	t := &TEC{
		port:      port,
		reader:    bufio.NewReader(port),
		address:   uint8(cfg.Address),
		channel:   uint8(cfg.Channel),
		tolerance: tolerance,
		poll:      poll,
		logger:    logger,
	}

	temp, err := t.ReadTemperature(context.Background())
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("TEC did not answer on %s: %w", cfg.SerialDevice, err)
	}
	logger.Infof("connected to TEC on %s, object temperature %.3f °C", cfg.SerialDevice, temp)
	return t, nil
}

// ReadTemperature reads the measured object temperature in °C
func (t *TEC) ReadTemperature(ctx context.Context) (float64, error) {
	payload := fmt.Sprintf("?VR%04X%02X", paramObjectTemperature, t.channel)
	resp, err := t.transact(ctx, payload)
	if err != nil {
		return 0, err
	}
	return parseFloat32Hex(resp)
}

// SetTemperature writes the object-temperature setpoint in °C
func (t *TEC) SetTemperature(ctx context.Context, celsius float64) error {
	payload := fmt.Sprintf("VS%04X%02X%08X", paramTargetTemperature, t.channel,
		math.Float32bits(float32(celsius)))
	_, err := t.transact(ctx, payload)
	return err
}

// WaitStable polls the measured temperature until it stays within tolerance
// of the target for several consecutive reads. The PID loop overshoots, so
// a single in-tolerance read is not enough.
func (t *TEC) WaitStable(ctx context.Context, target float64) error {
	consecutive := 0
	for consecutive < stableReads {
		temp, err := t.ReadTemperature(ctx)
		if err != nil {
			return err
		}
		if math.Abs(temp-target) <= t.tolerance {
			consecutive++
		} else {
			consecutive = 0
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.poll):
		}
	}
	return nil
}

// transact frames the payload, sends it and returns the payload portion of
// the controller's response.
func (t *TEC) transact(ctx context.Context, payload string) (string, error) {
	t.sequence++
	frame := fmt.Sprintf("#%02X%04X%s", t.address, t.sequence, payload)
	frame = fmt.Sprintf("%s%04X\r", frame, crc16([]byte(frame)))

	if _, err := t.port.Write([]byte(frame)); err != nil {
		return "", fmt.Errorf("%w: writing MeCom frame: %v", instruments.ErrAcquisition, err)
	}

	resp, err := t.readFrame(ctx)
	if err != nil {
		return "", err
	}
	return resp, nil
}

// readFrame reads and validates one '!'-framed response, returning its
// payload. Layout: '!' addr(2) seq(4) payload crc(4) '\r'.
func (t *TEC) readFrame(ctx context.Context) (string, error) {
	raw, err := t.reader.ReadString('\r')
	if err != nil {
		return "", fmt.Errorf("%w: reading MeCom response: %v", instruments.ErrAcquisition, err)
	}
	raw = raw[:len(raw)-1]

	if len(raw) < 11 || raw[0] != '!' {
		return "", fmt.Errorf("%w: malformed MeCom response %q", instruments.ErrAcquisition, raw)
	}

	body, crcField := raw[:len(raw)-4], raw[len(raw)-4:]
	wantCRC, err := strconv.ParseUint(crcField, 16, 16)
	if err != nil {
		return "", fmt.Errorf("%w: bad MeCom CRC field %q", instruments.ErrAcquisition, crcField)
	}
	if got := crc16([]byte(body)); got != uint16(wantCRC) {
		return "", fmt.Errorf("%w: MeCom CRC mismatch: got %04X, want %04X", instruments.ErrAcquisition, got, wantCRC)
	}

	payload := body[7:]
	if len(payload) > 0 && payload[0] == '+' {
		return "", fmt.Errorf("%w: controller error code %s", instruments.ErrAcquisition, payload[1:])
	}
	return payload, nil
}

// Close releases the serial port
func (t *TEC) Close() error {
	return t.port.Close()
}

// parseFloat32Hex decodes a MeCom float value: the IEEE-754 float32 bit
// pattern as eight hex characters.
func parseFloat32Hex(payload string) (float64, error) {
	if len(payload) != 8 {
		return 0, fmt.Errorf("%w: unexpected MeCom value %q", instruments.ErrAcquisition, payload)
	}
	bits, err := strconv.ParseUint(payload, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: parsing MeCom value %q: %v", instruments.ErrAcquisition, payload, err)
	}
	return float64(math.Float32frombits(uint32(bits))), nil
}

// crc16 computes the CRC-CCITT (polynomial 0x1021, zero initial value) used
// to protect MeCom frames.
func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
