//go:build tinygo

package main

import "machine"

const (
	// Known-network tap enable lines, smallest tap resistance first.
	PIN_TAP1 = machine.D0
	PIN_TAP2 = machine.D1
	PIN_TAP3 = machine.D2
	PIN_TAP4 = machine.D3

	// I2C bus shared by the ADC front end and the character panel.
	PIN_SDA = machine.SDA_PIN
	PIN_SCL = machine.SCL_PIN

	// Character panel: common PCF8574 backpack address, 16x2 geometry.
	LCD_ADDR = 0x27
	LCD_COLS = 16
	LCD_ROWS = 2

	// Known network resistances in Ohm, as measured on the populated board.
	BASELINE_OHMS = 1_000_000
	TAP1_OHMS     = 220
	TAP2_OHMS     = 1000
	TAP3_OHMS     = 9997
	TAP4_OHMS     = 100078

	TAP_COUNT = 4
)

// Serial throughput check: one telemetry line is ~40 bytes
// ("1234567890123456,1500000000,219950,3,1111\n") at 10 lines/sec =
// 400 bytes/sec, well inside what the USB CDC console sustains.
