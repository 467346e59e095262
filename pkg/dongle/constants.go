package dongle

import "time"

// USB identifiers for the CC1111-based sub-GHz dongle. Vendor/product IDs
// match the common "YardStick One"-class devices this driver targets.
const (
	VendorID  = 0x1D50
	ProductID = 0x605B
)

// USB endpoint configuration.
const (
	EP5OutBufferSize = 516
	ResponseMarker   = 0x40 // '@' marks the start of a response
)

// USB timeouts.
const (
	USBDefaultTimeout = 1000 * time.Millisecond
)

// Application IDs for the EP5 protocol.
const (
	AppNIC    = 0x42 // Radio NIC operations
	AppSystem = 0xFF // System/administrative commands
)

// System commands (AppSystem).
const (
	SysCmdPeek      = 0x80
	SysCmdPoke      = 0x81
	SysCmdPing      = 0x82
	SysCmdBuildType = 0x86
	SysCmdPartNum   = 0x8E
)

// NIC commands (AppNIC).
const (
	NICRecv         = 0x01 // Receive RF data (raw async serial samples)
	NICSetRecvLarge = 0x05 // Configure large-block receive
)
