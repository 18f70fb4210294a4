//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"time"

	"github.com/chewxy/math32"
	"tinygo.org/x/drivers/hd44780i2c"

	"github.com/itohio/goohm/drivers/ads1115"
	"github.com/itohio/goohm/pkg/display"
	"github.com/itohio/goohm/pkg/meter"
)

var (
	adc ads1115.Device
	lcd hd44780i2c.Device
)

func main() {
	// Tap lines start disabled: baseline-only network.
	for _, pin := range [TAP_COUNT]machine.Pin{PIN_TAP1, PIN_TAP2, PIN_TAP3, PIN_TAP4} {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		pin.Low()
	}

	if err := machine.I2C0.Configure(machine.I2CConfig{SDA: PIN_SDA, SCL: PIN_SCL}); err != nil {
		for {
			println("i2c configure failed:", err.Error())
			time.Sleep(time.Second)
		}
	}

	lcd = hd44780i2c.New(machine.I2C0, LCD_ADDR)
	if err := lcd.Configure(hd44780i2c.Config{Width: LCD_COLS, Height: LCD_ROWS}); err != nil {
		// Telemetry still works without the panel; keep going.
		println("lcd configure failed:", err.Error())
	}

	panel := display.NewPanel(&lcdScreen{lcd: &lcd}, display.Options{
		Columns: LCD_COLS,
		Rows:    LCD_ROWS,
	})

	adc = ads1115.New(machine.I2C0)
	adc.Configure()
	if err := adc.Init(); err != nil {
		panel.ShowMessage("ADC init failed", "check wiring")
		for {
			println("ads1115 init failed:", err.Error())
			time.Sleep(time.Second)
		}
	}

	bank := meter.NewTapBank(BASELINE_OHMS, []meter.Tap{
		{Ohms: TAP1_OHMS, Output: pinOutput{PIN_TAP1}},
		{Ohms: TAP2_OHMS, Output: pinOutput{PIN_TAP2}},
		{Ohms: TAP3_OHMS, Output: pinOutput{PIN_TAP3}},
		{Ohms: TAP4_OHMS, Output: pinOutput{PIN_TAP4}},
	})

	m := meter.New(&adcSource{adc: &adc}, bank, &telemetry{panel: panel}, meter.DefaultParams())

	for {
		m.Tick(time.Now())

		// Small delay to prevent a tight loop while keeping the cadences
		// responsive.
		time.Sleep(100 * time.Microsecond)
	}
}

// muxByChannel maps the meter's measurement channels onto the converter's
// differential input pairs.
var muxByChannel = [...]ads1115.Mux{
	meter.ChannelReference: ads1115.MuxDiff03,
	meter.ChannelKnown:     ads1115.MuxDiff01,
	meter.ChannelUnknown:   ads1115.MuxDiff23,
}

// adcSource reads the measurement channels through the ADS1115 front end.
// The meter's gain tiers follow the hardware PGA code order, so the setting
// converts directly.
type adcSource struct {
	adc *ads1115.Device
}

func (s *adcSource) ReadVolts(ch meter.Channel) float32 {
	v, err := s.adc.ReadVolts(muxByChannel[ch])
	if err != nil {
		// A failed conversion reads as zero; the refresh path reports the
		// resulting non-finite resistance as over-range.
		return 0
	}
	return v
}

func (s *adcSource) SetGain(g meter.Gain) {
	s.adc.SetGain(ads1115.Gain(g))
}

// pinOutput drives one tap enable line.
type pinOutput struct {
	pin machine.Pin
}

func (p pinOutput) Set(high bool) {
	if high {
		p.pin.High()
	} else {
		p.pin.Low()
	}
}

// lcdScreen adapts the HD44780 module to the panel formatter.
type lcdScreen struct {
	lcd *hd44780i2c.Device
}

func (s *lcdScreen) Clear() {
	s.lcd.ClearDisplay()
}

func (s *lcdScreen) WriteAt(col, row int, text string) {
	s.lcd.SetCursor(uint8(col), uint8(row))
	s.lcd.Print([]byte(text))
}

// telemetry forwards each refresh to the panel and mirrors it onto the
// serial console for the host tools.
type telemetry struct {
	panel *display.Panel
}

func (t *telemetry) ShowResistance(st meter.State) {
	t.panel.ShowResistance(st)
	emitLine(st, false)
}

func (t *telemetry) ShowOverRange(st meter.State) {
	t.panel.ShowOverRange(st)
	emitLine(st, true)
}

// Values at or above this clamp; float-to-int conversion past the int64
// range is undefined.
const maxWireMilliohms = int64(1) << 53

// emitLine writes one telemetry record:
// "unix_micros,avg_milliohms,known_milliohms,gain,taps\n"
// Example: "1234567890123,4700125,219950,3,1000\n"
// Integer fields only; an average that left the range goes out as -1.
func emitLine(st meter.State, overRange bool) {
	avg := int64(-1)
	if !overRange {
		avg = milliohms(st.AverageOhms)
	}

	// Get timestamp in unix microseconds
	timestampMicros := time.Now().UnixNano() / 1000

	print(timestampMicros)
	print(",")
	print(avg)
	print(",")
	print(milliohms(st.KnownOhms))
	print(",")
	print(int(st.Gain))
	print(",")
	// Tap states as digits, tap 0 first. Taps enable in table order, so the
	// first TapsEnabled are on.
	for i := 0; i < TAP_COUNT; i++ {
		if i < st.TapsEnabled {
			print("1")
		} else {
			print("0")
		}
	}
	print("\n")
}

// milliohms converts a resistance to integer milliohms for the wire.
// Non-finite or negative values encode as -1.
func milliohms(ohms float32) int64 {
	if math32.IsNaN(ohms) || math32.IsInf(ohms, 0) || ohms < 0 {
		return -1
	}
	milli := float64(ohms) * 1000
	if milli >= float64(maxWireMilliohms) {
		return maxWireMilliohms
	}
	return int64(milli)
}
