package ohm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goohm/pkg/meter"
)

func TestParseReading(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Reading
		wantErr bool
	}{
		{
			name: "valid line - no taps",
			line: "1234567890123,4700125,999999,0,0000",
			want: Reading{
				Timestamp:   time.Unix(0, 1234567890123*1000),
				Ohms:        4700.125,
				KnownOhms:   999.999,
				Gain:        meter.GainTwoThirds,
				TapsEnabled: 0,
			},
			wantErr: false,
		},
		{
			name: "valid line - one tap",
			line: "1234567890123,99750,219951,2,1000",
			want: Reading{
				Timestamp:   time.Unix(0, 1234567890123*1000),
				Ohms:        99.75,
				KnownOhms:   219.951,
				Gain:        meter.GainTwo,
				TapsEnabled: 1,
			},
			wantErr: false,
		},
		{
			name: "valid line - all taps at highest gain",
			line: "1234567890123,1000,176788,5,1111",
			want: Reading{
				Timestamp:   time.Unix(0, 1234567890123*1000),
				Ohms:        1.0,
				KnownOhms:   176.788,
				Gain:        meter.GainSixteen,
				TapsEnabled: 4,
			},
			wantErr: false,
		},
		{
			name: "valid line - over-range sentinel",
			line: "1234567890123,-1,999999,0,0000",
			want: Reading{
				Timestamp:   time.Unix(0, 1234567890123*1000),
				Ohms:        0,
				KnownOhms:   999.999,
				Gain:        meter.GainTwoThirds,
				TapsEnabled: 0,
				OverRange:   true,
			},
			wantErr: false,
		},
		{
			name:    "invalid - wrong number of fields",
			line:    "1234567890123,4700125,999999,0",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "1234567890123,4700125,999999,0,0000,extra",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric timestamp",
			line:    "abc,4700125,999999,0,0000",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric resistance",
			line:    "1234567890123,abc,999999,0,0000",
			wantErr: true,
		},
		{
			name:    "invalid - negative known resistance",
			line:    "1234567890123,4700125,-5,0,0000",
			wantErr: true,
		},
		{
			name:    "invalid - gain out of range",
			line:    "1234567890123,4700125,999999,6,0000",
			wantErr: true,
		},
		{
			name:    "invalid - negative gain",
			line:    "1234567890123,4700125,999999,-1,0000",
			wantErr: true,
		},
		{
			name:    "invalid - tap states too short",
			line:    "1234567890123,4700125,999999,0,100",
			wantErr: true,
		},
		{
			name:    "invalid - tap states too long",
			line:    "1234567890123,4700125,999999,0,10000",
			wantErr: true,
		},
		{
			name:    "invalid - tap states bad character",
			line:    "1234567890123,4700125,999999,0,10a0",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseReading(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want.Timestamp.UnixNano(), got.Timestamp.UnixNano())
				assert.InDelta(t, tt.want.Ohms, got.Ohms, 1e-9)
				assert.InDelta(t, tt.want.KnownOhms, got.KnownOhms, 1e-9)
				assert.Equal(t, tt.want.Gain, got.Gain)
				assert.Equal(t, tt.want.TapsEnabled, got.TapsEnabled)
				assert.Equal(t, tt.want.OverRange, got.OverRange)
			}
		})
	}
}

func TestNew(t *testing.T) {
	dev := New("COM3", 115200, 100)
	assert.NotNil(t, dev)
	assert.Equal(t, "COM3", dev.port)
	assert.Equal(t, 115200, dev.baudRate)
	assert.Equal(t, 100, dev.bufSize)
	assert.NotNil(t, dev.readings)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("COM3", 0, 0)
	assert.NotNil(t, dev)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_IsConnected(t *testing.T) {
	dev := New("COM3", 115200, 100)
	assert.False(t, dev.IsConnected())
}

func TestSerial_Close_NotConnected(t *testing.T) {
	dev := New("COM3", 115200, 100)
	assert.NoError(t, dev.Close())
}
