package ohm

// Device defines the interface for meter devices (real or mocked). The
// telemetry link is one-way: devices stream readings and take no commands.
type Device interface {
	Connect() error
	Close() error
	Readings() <-chan Reading
	IsConnected() bool
}

// Ensure Serial implements Device.
var _ Device = (*Serial)(nil)

// Ensure Mock implements Device.
var _ Device = (*Mock)(nil)
