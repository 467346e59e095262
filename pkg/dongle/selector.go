package dongle

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/gousb"
)

// FindAll enumerates every attached dongle matching the expected vendor
// and product IDs.
func FindAll(usbCtx *gousb.Context) ([]*Device, error) {
	usbDevices, err := usbCtx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(VendorID) && desc.Product == gousb.ID(ProductID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate devices: %w", err)
	}

	devices := make([]*Device, 0, len(usbDevices))
	for _, usbDev := range usbDevices {
		device, err := wrapDevice(usbDev)
		if err != nil {
			usbDev.Close()
			continue
		}
		devices = append(devices, device)
	}
	return devices, nil
}

// OpenSelected opens the dongle identified by selector, a -device flag
// value. Supported formats:
//
//	""        - first available device
//	"serial"  - match by serial number
//	"bus:addr" - match by USB bus and address (e.g. "1:10")
//	"#N"      - Nth device found, 0-indexed (e.g. "#0")
//
// Every other matched device is closed before returning.
func OpenSelected(usbCtx *gousb.Context, selector string) (*Device, error) {
	if selector == "" {
		return openFirst(usbCtx)
	}
	if strings.HasPrefix(selector, "#") {
		index, err := strconv.Atoi(selector[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid device index: %s", selector)
		}
		return openByIndex(usbCtx, index)
	}
	if strings.Contains(selector, ":") {
		parts := strings.SplitN(selector, ":", 2)
		bus, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid bus number: %s", parts[0])
		}
		addr, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, fmt.Errorf("invalid address number: %s", parts[1])
		}
		return openByBusAddr(usbCtx, bus, addr)
	}
	return openBySerial(usbCtx, selector)
}

func openFirst(usbCtx *gousb.Context) (*Device, error) {
	devices, err := FindAll(usbCtx)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no dongle found")
	}
	for _, d := range devices[1:] {
		d.Close()
	}
	return devices[0], nil
}

func openByIndex(usbCtx *gousb.Context, index int) (*Device, error) {
	devices, err := FindAll(usbCtx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(devices) {
		for _, d := range devices {
			d.Close()
		}
		return nil, fmt.Errorf("device index %d out of range (found %d devices)", index, len(devices))
	}
	for i, d := range devices {
		if i != index {
			d.Close()
		}
	}
	return devices[index], nil
}

func openByBusAddr(usbCtx *gousb.Context, bus, addr int) (*Device, error) {
	devices, err := FindAll(usbCtx)
	if err != nil {
		return nil, err
	}
	var selected *Device
	for _, d := range devices {
		if d.Bus == bus && d.Address == addr {
			selected = d
		} else {
			d.Close()
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("no dongle found at bus %d address %d", bus, addr)
	}
	return selected, nil
}

func openBySerial(usbCtx *gousb.Context, serial string) (*Device, error) {
	devices, err := FindAll(usbCtx)
	if err != nil {
		return nil, err
	}
	var matches []*Device
	for _, d := range devices {
		if d.Serial == serial {
			matches = append(matches, d)
		} else {
			d.Close()
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no dongle found with serial %s", serial)
	}
	if len(matches) > 1 {
		for _, d := range matches {
			d.Close()
		}
		return nil, fmt.Errorf("multiple devices (%d) found with serial %s; use bus:addr or #N instead", len(matches), serial)
	}
	return matches[0], nil
}
