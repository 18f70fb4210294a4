package ohm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/itohio/goohm/pkg/meter"
)

const (
	// DefaultBaudRate is the telemetry rate the firmware ships with.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
)

// Reading is one telemetry record from the meter, emitted once per display
// refresh.
type Reading struct {
	Timestamp   time.Time
	Ohms        float64    // Running-average resistance; zero when OverRange is set
	KnownOhms   float64    // Known-network resistance active at sample time
	Gain        meter.Gain // Tier used for the precise unknown read
	TapsEnabled int        // Taps switched into the known network
	OverRange   bool       // The average was negative or non-finite on the wire
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the meter MCU's telemetry UART. A
// Serial is single-use: after Close, create a new instance to reconnect.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial device with the specified port, baud rate, and
// buffer size. Zero values fall back to the defaults.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:      port,
		baudRate:  baudRate,
		bufSize:   bufSize,
		readings:  make(chan Reading, bufSize),
		ctx:       ctx,
		cancel:    cancel,
		connected: false,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect connects to the serial port and starts reading telemetry.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	mode := &serial.Mode{
		BaudRate: d.baudRate,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	// Start reading telemetry in a goroutine
	go d.readReadings()

	return nil
}

// Close closes the connection. The readings channel closes once the reader
// goroutine drains out.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	// Cancel context and close the port; either unblocks the reader.
	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// Readings returns the channel of parsed telemetry records.
func (d *Serial) Readings() <-chan Reading {
	return d.readings
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readReadings reads lines from the serial port and parses them into
// Readings. It owns the readings channel and closes it on exit.
func (d *Serial) readReadings() {
	defer close(d.readings)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readReadings: %v", r)
		}
	}()

	scanner := bufio.NewScanner(d.conn)
	for {
		select {
		case <-d.ctx.Done():
			return
		default:
			if !scanner.Scan() {
				// Scanner stopped (EOF, error, or port closed)
				if err := scanner.Err(); err != nil {
					if err != io.EOF {
						log.Printf("Error reading from serial port: %v", err)
					}
				}
				return
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			reading, err := parseReading(line)
			if err != nil {
				log.Printf("Failed to parse line '%s': %v", line, err)
				continue
			}

			// Send reading to channel (non-blocking)
			select {
			case d.readings <- reading:
			case <-d.ctx.Done():
				return
			default:
				// Channel full, log and skip
				log.Printf("Readings channel full, dropping reading")
			}
		}
	}
}

// parseReading parses a telemetry line from the MCU.
// Format: unix_micros,avg_milliohms,known_milliohms,gain,taps
// Example: 1234567890123,4700125,219950,0,1000
// A negative avg_milliohms marks an average that was not presentable
// (negative or non-finite) when emitted.
func parseReading(line string) (Reading, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 5 {
		return Reading{}, fmt.Errorf("invalid line format: expected 5 comma-separated values, got %d", len(parts))
	}

	// Parse timestamp (unix microseconds)
	timestampMicros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid timestamp: %w", err)
	}
	timestamp := time.Unix(0, timestampMicros*1000) // Convert microseconds to nanoseconds

	// Parse running-average resistance (milliohms)
	avgMilli, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid resistance: %w", err)
	}

	// Parse known-network resistance (milliohms)
	knownMilli, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid known resistance: %w", err)
	}
	if knownMilli < 0 {
		return Reading{}, fmt.Errorf("known resistance out of range: %d", knownMilli)
	}

	// Parse gain tier index
	gain, err := strconv.ParseUint(parts[3], 10, 8)
	if err != nil {
		return Reading{}, fmt.Errorf("invalid gain: %w", err)
	}
	if gain > uint64(meter.GainSixteen) {
		return Reading{}, fmt.Errorf("gain out of range: %d (max %d)", gain, meter.GainSixteen)
	}

	// Parse tap states (4 digits, tap 0 first)
	tapStr := parts[4]
	if len(tapStr) != 4 {
		return Reading{}, fmt.Errorf("invalid tap states: expected 4 digits, got %d", len(tapStr))
	}
	taps := 0
	for i := 0; i < len(tapStr); i++ {
		switch tapStr[i] {
		case '1':
			taps++
		case '0':
		default:
			return Reading{}, fmt.Errorf("invalid tap states: unexpected character %q", tapStr[i])
		}
	}

	reading := Reading{
		Timestamp:   timestamp,
		KnownOhms:   float64(knownMilli) / 1000,
		Gain:        meter.Gain(gain),
		TapsEnabled: taps,
	}
	if avgMilli < 0 {
		reading.OverRange = true
	} else {
		reading.Ohms = float64(avgMilli) / 1000
	}

	return reading, nil
}
