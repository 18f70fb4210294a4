// Package ads1115 provides a driver for the ADS1115 16-bit delta-sigma ADC
// in single-shot mode.
//
//	d := ads1115.New(bus)
//	d.Configure()
//	if err := d.Init(); err != nil { ... }
//	v, err := d.ReadVolts(ads1115.MuxDiff01)
//
// Conversions are synchronous: ReadRaw starts a conversion, polls the ready
// bit with a bounded deadline and fetches the result. The programmable gain
// amplifier is device state; set it once and every following conversion uses
// it.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided, without releasing the bus.
package ads1115

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// Address is the default I2C address with the ADDR pin strapped to ground.
const Address = 0x48

// Registers.
const (
	regConversion = 0x00
	regConfig     = 0x01
)

// Config register fields. Writing the OS bit starts a conversion; reading it
// back high means the converter is idle.
const (
	configOsSingle   uint16 = 0x8000
	configModeSingle uint16 = 0x0100
	configRate860    uint16 = 0x00E0 // 860 SPS, the fastest the part does
	configCompOff    uint16 = 0x0003 // Comparator disabled
)

// Mux selects the differential input pair for a conversion.
type Mux uint16

const (
	MuxDiff01 Mux = 0x0000 // AIN0 - AIN1
	MuxDiff03 Mux = 0x1000 // AIN0 - AIN3
	MuxDiff13 Mux = 0x2000 // AIN1 - AIN3
	MuxDiff23 Mux = 0x3000 // AIN2 - AIN3
)

// Gain selects the PGA full-scale range. The values follow the hardware PGA
// code order, widest range first.
type Gain uint8

const (
	GainTwoThirds Gain = iota // ±6.144 V, power-on setting
	GainOne                   // ±4.096 V
	GainTwo                   // ±2.048 V
	GainFour                  // ±1.024 V
	GainEight                 // ±0.512 V
	GainSixteen               // ±0.256 V
)

var gainBits = [...]uint16{0x0000, 0x0200, 0x0400, 0x0600, 0x0800, 0x0A00}

var gainFullScale = [...]float32{6.144, 4.096, 2.048, 1.024, 0.512, 0.256}

// FullScale returns the conversion full-scale voltage for the setting.
func (g Gain) FullScale() float32 {
	if int(g) >= len(gainFullScale) {
		return gainFullScale[0]
	}
	return gainFullScale[g]
}

// Errors returned by the driver.
var (
	ErrTimeout  = errors.New("ads1115: conversion timeout")
	ErrProtocol = errors.New("ads1115: config readback mismatch")
)

// Config controls non-hardware behaviour. All fields are optional.
type Config struct {
	// Address defaults to 0x48 if zero.
	Address uint16
	// Gain is the initial PGA setting. Default 2/3x (±6.144 V).
	Gain Gain
	// PollInterval is the wait between ready polls inside ReadRaw.
	// Default 200 µs.
	PollInterval time.Duration
	// ConvertTimeout bounds a single conversion. A conversion takes ~1.2 ms
	// at 860 SPS. Default 10 ms.
	ConvertTimeout time.Duration
}

// Device wraps an I2C connection to an ADS1115 device.
type Device struct {
	bus     drivers.I2C
	Address uint16

	cfg  Config
	gain Gain
	buf  [3]byte // reuse buffer to avoid allocations
}

// New creates a new ADS1115 connection. The I2C bus must already be
// configured. This function only creates the Device object; it does not touch
// the device.
func New(bus drivers.I2C) Device {
	return Device{
		bus:     bus,
		Address: Address,
	}
}

// Configure applies optional config. It may be called with no cfg.
func (d *Device) Configure(cfgs ...Config) {
	if len(cfgs) > 0 {
		c := cfgs[0]
		if c.Address != 0 {
			d.Address = c.Address
		}
		if c.PollInterval <= 0 {
			c.PollInterval = 200 * time.Microsecond
		}
		if c.ConvertTimeout <= 0 {
			c.ConvertTimeout = 10 * time.Millisecond
		}
		d.cfg = c
		d.gain = c.Gain
	} else {
		d.cfg = Config{
			Address:        d.Address,
			PollInterval:   200 * time.Microsecond,
			ConvertTimeout: 10 * time.Millisecond,
		}
	}
}

// Init verifies the converter responds on the bus: it writes the idle
// configuration and reads it back. A missing or unpowered device fails here
// instead of mid-loop.
func (d *Device) Init() error {
	if d.cfg.PollInterval == 0 {
		d.Configure()
	}
	want := d.configWord(MuxDiff01)
	if err := d.writeRegister(regConfig, want); err != nil {
		return err
	}
	got, err := d.readRegister(regConfig)
	if err != nil {
		return err
	}
	// The OS bit reads back as conversion status, not as written.
	if got&^configOsSingle != want&^configOsSingle {
		return ErrProtocol
	}
	return nil
}

// SetGain selects the PGA range for subsequent conversions.
func (d *Device) SetGain(g Gain) {
	if int(g) < len(gainBits) {
		d.gain = g
	}
}

// ReadRaw performs one single-shot conversion across mux and returns the
// signed 16-bit code.
func (d *Device) ReadRaw(mux Mux) (int16, error) {
	if d.cfg.PollInterval == 0 {
		d.Configure()
	}
	if err := d.writeRegister(regConfig, configOsSingle|d.configWord(mux)); err != nil {
		return 0, err
	}
	deadline := time.Now().Add(d.cfg.ConvertTimeout)
	for {
		status, err := d.readRegister(regConfig)
		if err != nil {
			return 0, err
		}
		if status&configOsSingle != 0 {
			break
		}
		if time.Now().After(deadline) {
			return 0, ErrTimeout
		}
		time.Sleep(d.cfg.PollInterval)
	}
	raw, err := d.readRegister(regConversion)
	if err != nil {
		return 0, err
	}
	return int16(raw), nil
}

// ReadVolts performs one conversion across mux and scales it to volts at the
// active range. The 16-bit code is a signed fraction of full scale.
func (d *Device) ReadVolts(mux Mux) (float32, error) {
	raw, err := d.ReadRaw(mux)
	if err != nil {
		return 0, err
	}
	return float32(raw) / 32768 * d.gain.FullScale(), nil
}

func (d *Device) configWord(mux Mux) uint16 {
	return uint16(mux) | gainBits[d.gain] | configModeSingle | configRate860 | configCompOff
}

// writeRegister writes a 16-bit register. Data goes high byte first.
func (d *Device) writeRegister(reg byte, val uint16) error {
	d.buf[0] = reg
	d.buf[1] = byte(val >> 8)
	d.buf[2] = byte(val)
	return d.bus.Tx(d.Address, d.buf[:3], nil)
}

// readRegister reads a 16-bit register.
func (d *Device) readRegister(reg byte) (uint16, error) {
	d.buf[0] = reg
	if err := d.bus.Tx(d.Address, d.buf[:1], d.buf[1:3]); err != nil {
		return 0, err
	}
	return uint16(d.buf[1])<<8 | uint16(d.buf[2]), nil
}
