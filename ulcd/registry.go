package ulcd

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// openDevices maps a device path to the Connection currently holding it.
// A serial device is owned by at most one Connection in the process.
var openDevices = xsync.NewMapOf[string, *Connection]()

// claimDevice records c as the owner of device. It returns false if another
// Connection already owns it.
func claimDevice(device string, c *Connection) bool {
	owner, loaded := openDevices.LoadOrStore(device, c)

	return !loaded || owner == c
}

// releaseDevice removes the claim of c on device. Claims of other connections are kept.
func releaseDevice(device string, c *Connection) {
	openDevices.Compute(device, func(owner *Connection, loaded bool) (*Connection, bool) {
		return owner, !loaded || owner == c
	})
}

// DeviceInUse reports whether a Connection in this process holds device open.
func DeviceInUse(device string) bool {
	_, ok := openDevices.Load(device)

	return ok
}
