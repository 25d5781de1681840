package bridge

import "github.com/bizdesk/realtime/src/types"

// Bridge relays deliveries between server instances so a notification
// produced on one node reaches sessions connected to another.
type Bridge interface {
	// Publish sends a delivery to all other instances via the bridge.
	Publish(target types.Target, n types.Notification) error

	// Start begins listening for deliveries from other instances.
	Start() error

	// Stop shuts down the bridge connection.
	Stop() error

	// Available reports whether the bridge is connected and operational.
	Available() bool
}

// LocalDeliverer is implemented by the delivery router to receive
// deliveries relayed from other instances.
type LocalDeliverer interface {
	DeliverLocal(target types.Target, n types.Notification)
}
