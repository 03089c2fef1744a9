// Package ble connects to LED name badges over Bluetooth Low Energy.
// It wraps the host Bluetooth stack behind small interfaces so the
// transport logic can be tested without hardware, and exposes a Client
// that satisfies the badge controller's transport contract.
package ble

import "context"

// GATT UUIDs of the badge's fee9 service.
const (
	ServiceUUID = "0000fee9-0000-1000-8000-00805f9b34fb"
	// CommandCharUUID accepts encrypted control packets.
	CommandCharUUID = "d44bc439-abfd-45a2-b575-925416129600"
	// NotifyCharUUID carries the badge's encrypted replies.
	NotifyCharUUID = "d44bc439-abfd-45a2-b575-925416129601"
	// ImageCharUUID accepts encrypted bitmap data during an upload.
	ImageCharUUID = "d44bc439-abfd-45a2-b575-92541612960a"
	// AuxCharUUID is advertised by the firmware alongside the others;
	// no traffic to it has been observed.
	AuxCharUUID = "d44bc439-abfd-45a2-b575-92541612960b"
)

// Characteristic is a writable BLE GATT characteristic that may also
// deliver notifications.
type Characteristic interface {
	// Write sends data to the characteristic without response.
	Write(data []byte) error
	// Subscribe registers a callback for notifications on this
	// characteristic.
	Subscribe(callback func(data []byte)) error
}

// Device is a discovered BLE peripheral. Address is a MAC address on
// Linux and a CoreBluetooth UUID on macOS.
type Device struct {
	Name    string
	Address string
	RSSI    int
}

// Connection is an active link to a peripheral.
type Connection interface {
	// DiscoverCharacteristic finds a characteristic by UUID within a
	// service.
	DiscoverCharacteristic(serviceUUID, charUUID string) (Characteristic, error)
	// Disconnect terminates the connection.
	Disconnect() error
	// OnDisconnect registers a callback invoked when the link drops.
	OnDisconnect(callback func())
}

// Adapter abstracts the Bluetooth hardware for testing.
type Adapter interface {
	// Enable powers on the adapter.
	Enable() error
	// Scan discovers peripherals advertising the given service until ctx
	// is done.
	Scan(ctx context.Context, serviceUUID string) ([]Device, error)
	// Connect establishes a connection to the device at the given
	// address.
	Connect(ctx context.Context, address string) (Connection, error)
}
