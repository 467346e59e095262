// Package dongle drives a CC1111-based sub-GHz USB dongle configured for
// asynchronous serial RX: the chip demodulates OOK on-chip and streams the
// raw envelope bit sequence back over USB, leaving Manchester decoding,
// framing, and CRC validation to the host-side receiver pipeline. This is
// the "SDR device management" collaborator the receiver core treats as
// external: frequency tuning lives here, never in the demodulation path.
// This package has no gain or sample-rate control.
package dongle

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/gousb"
)

// Device represents an open dongle.
type Device struct {
	usbDevice    *gousb.Device
	usbConfig    *gousb.Config
	usbInterface *gousb.Interface
	epIn         *gousb.InEndpoint
	epOut        *gousb.OutEndpoint
	Serial       string
	Manufacturer string
	Product      string
	Bus          int
	Address      int
	recvBuf      []byte
	recvMu       sync.Mutex
}

// Open opens the first matching dongle found on the USB bus. Equivalent
// to OpenSelected(usbCtx, "").
func Open(usbCtx *gousb.Context) (*Device, error) {
	return OpenSelected(usbCtx, "")
}

func wrapDevice(usbDev *gousb.Device) (*Device, error) {
	manufacturer, _ := usbDev.Manufacturer()
	product, _ := usbDev.Product()
	serial, _ := usbDev.SerialNumber()

	usbDev.SetAutoDetach(true)

	config, err := usbDev.Config(1)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	iface, err := config.Interface(0, 0)
	if err != nil {
		config.Close()
		return nil, fmt.Errorf("failed to claim interface: %w", err)
	}

	epIn, err := iface.InEndpoint(5)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get IN endpoint: %w", err)
	}

	epOut, err := iface.OutEndpoint(5)
	if err != nil {
		iface.Close()
		config.Close()
		return nil, fmt.Errorf("failed to get OUT endpoint: %w", err)
	}

	device := &Device{
		usbDevice:    usbDev,
		usbConfig:    config,
		usbInterface: iface,
		epIn:         epIn,
		epOut:        epOut,
		Serial:       serial,
		Manufacturer: manufacturer,
		Product:      product,
		Bus:          usbDev.Desc.Bus,
		Address:      usbDev.Desc.Address,
		recvBuf:      make([]byte, 0, EP5OutBufferSize),
	}

	device.drainReceiveBuffer()

	return device, nil
}

// Close puts the radio back in IDLE and releases the USB handles.
func (d *Device) Close() error {
	if d.epOut != nil {
		d.PokeByte(RegRFST, StrobeSIDLE)
	}
	if d.usbInterface != nil {
		d.usbInterface.Close()
	}
	if d.usbConfig != nil {
		d.usbConfig.Close()
	}
	if d.usbDevice != nil {
		return d.usbDevice.Close()
	}
	return nil
}

func (d *Device) drainReceiveBuffer() {
	buf := make([]byte, 512)
	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		n, err := d.epIn.ReadContext(ctx, buf)
		cancel()
		if err != nil || n == 0 {
			break
		}
	}
	d.recvBuf = d.recvBuf[:0]
}

func (d *Device) String() string {
	return fmt.Sprintf("%s %s (Serial: %s)", d.Manufacturer, d.Product, d.Serial)
}

// Send sends a command to the device via EP5 and waits for the response.
// Protocol: app(1) + cmd(1) + length(2 LE) + payload.
func (d *Device) Send(app uint8, cmd uint8, payload []byte, timeout time.Duration) ([]byte, error) {
	if timeout == 0 {
		timeout = USBDefaultTimeout
	}

	packet := make([]byte, 4+len(payload))
	packet[0] = app
	packet[1] = cmd
	binary.LittleEndian.PutUint16(packet[2:4], uint16(len(payload)))
	copy(packet[4:], payload)

	writeCtx, writeCancel := context.WithTimeout(context.Background(), timeout)
	n, err := d.epOut.WriteContext(writeCtx, packet)
	writeCancel()
	if err != nil {
		return nil, fmt.Errorf("failed to write to EP5: %w", err)
	}
	if n != len(packet) {
		return nil, fmt.Errorf("short write: wrote %d of %d bytes", n, len(packet))
	}

	return d.Recv(app, cmd, timeout)
}

// maxPollInterval bounds each individual EP5 read so Recv's overall
// deadline check runs often enough to return promptly once it expires.
const maxPollInterval = 100 * time.Millisecond

// isTransientReadErr reports whether err from an EP5 read is just the
// poll interval elapsing with nothing to read, rather than a real USB
// failure worth surfacing to the caller.
func isTransientReadErr(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "timeout") || strings.Contains(lower, "canceled") || strings.Contains(lower, "libusb")
}

// Recv reads a response from the device via EP5.
// Response format: '@'(1) + app(1) + cmd(1) + length(2 LE) + payload.
func (d *Device) Recv(expectedApp uint8, expectedCmd uint8, timeout time.Duration) ([]byte, error) {
	d.recvMu.Lock()
	defer d.recvMu.Unlock()

	if timeout == 0 {
		timeout = USBDefaultTimeout
	}

	deadlineCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	buf := make([]byte, 512)
	for {
		response, remaining, err := d.parseResponse(expectedApp, expectedCmd)
		if err == nil {
			d.recvBuf = remaining
			return response, nil
		}
		if deadlineCtx.Err() != nil {
			return nil, fmt.Errorf("timeout waiting for response")
		}

		readCtx, readCancel := context.WithTimeout(deadlineCtx, maxPollInterval)
		n, err := d.epIn.ReadContext(readCtx, buf)
		readCancel()
		if err != nil {
			if isTransientReadErr(readCtx, err) {
				continue
			}
			return nil, fmt.Errorf("failed to read from EP5: %w", err)
		}
		if n > 0 {
			d.recvBuf = append(d.recvBuf, buf[:n]...)
		}
	}
}

func (d *Device) parseResponse(expectedApp uint8, expectedCmd uint8) ([]byte, []byte, error) {
	markerIdx := -1
	for i, b := range d.recvBuf {
		if b == ResponseMarker {
			markerIdx = i
			break
		}
	}
	if markerIdx == -1 {
		return nil, d.recvBuf, fmt.Errorf("no response marker found")
	}

	data := d.recvBuf[markerIdx:]
	if len(data) < 5 {
		return nil, d.recvBuf, fmt.Errorf("incomplete header")
	}

	app := data[1]
	cmd := data[2]
	length := binary.LittleEndian.Uint16(data[3:5])

	totalLen := 5 + int(length)
	if len(data) < totalLen {
		return nil, d.recvBuf, fmt.Errorf("incomplete payload: have %d, need %d", len(data), totalLen)
	}

	if app != expectedApp || cmd != expectedCmd {
		return nil, d.recvBuf[markerIdx+1:], fmt.Errorf("response mismatch: got app=0x%02X cmd=0x%02X", app, cmd)
	}

	payload := make([]byte, length)
	copy(payload, data[5:totalLen])
	return payload, data[totalLen:], nil
}

// Ping sends a ping command and verifies the echoed response.
func (d *Device) Ping(data []byte) error {
	response, err := d.Send(AppSystem, SysCmdPing, data, USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if len(response) != len(data) {
		return fmt.Errorf("ping response length mismatch: sent %d, got %d", len(data), len(response))
	}
	for i := range data {
		if response[i] != data[i] {
			return fmt.Errorf("ping response data mismatch at byte %d", i)
		}
	}
	return nil
}

// Peek reads bytes from device memory.
func (d *Device) Peek(address uint16, length uint16) ([]byte, error) {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], length)
	binary.LittleEndian.PutUint16(payload[2:4], address)

	response, err := d.Send(AppSystem, SysCmdPeek, payload, USBDefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("peek failed at 0x%04X: %w", address, err)
	}
	return response, nil
}

// PeekByte reads a single byte from device memory.
func (d *Device) PeekByte(address uint16) (uint8, error) {
	data, err := d.Peek(address, 1)
	if err != nil {
		return 0, err
	}
	if len(data) < 1 {
		return 0, fmt.Errorf("peek returned no data")
	}
	return data[0], nil
}

// Poke writes bytes to device memory.
func (d *Device) Poke(address uint16, data []byte) error {
	payload := make([]byte, 2+len(data))
	binary.LittleEndian.PutUint16(payload[0:2], address)
	copy(payload[2:], data)

	response, err := d.Send(AppSystem, SysCmdPoke, payload, USBDefaultTimeout)
	if err != nil {
		return fmt.Errorf("poke failed at 0x%04X: %w", address, err)
	}
	if len(response) >= 2 {
		bytesLeft := binary.LittleEndian.Uint16(response[0:2])
		if bytesLeft != 0 {
			return fmt.Errorf("poke incomplete: %d bytes left", bytesLeft)
		}
	}
	return nil
}

// PokeByte writes a single byte to device memory.
func (d *Device) PokeByte(address uint16, value uint8) error {
	return d.Poke(address, []byte{value})
}

// GetPartNum returns the chip part number, useful for sanity-checking that
// the dongle came up in a known state before tuning it.
func (d *Device) GetPartNum() (uint8, error) {
	response, err := d.Send(AppSystem, SysCmdPartNum, nil, USBDefaultTimeout)
	if err != nil {
		return 0, fmt.Errorf("failed to get part number: %w", err)
	}
	if len(response) < 1 {
		return 0, fmt.Errorf("empty part number response")
	}
	return response[0], nil
}

// StreamSamples puts the radio into RX and continuously reads raw envelope
// bytes from EP5 into sampleCh until ctx is cancelled. Each byte carries 8
// oversampled bit-slices of the GDO0 async serial line, matching the layout
// the host-side bit clock recoverer expects. The channel is closed on exit;
// errCh (buffered, size 1) receives at most one non-nil error.
func (d *Device) StreamSamples(ctx context.Context, sampleCh chan<- []byte) <-chan error {
	errCh := make(chan error, 1)

	go func() {
		defer close(sampleCh)

		if err := SetRX(d); err != nil {
			errCh <- fmt.Errorf("failed to enter RX: %w", err)
			return
		}

		req := make([]byte, 4)
		req[0] = AppNIC
		req[1] = NICRecv
		binary.LittleEndian.PutUint16(req[2:4], 0)

		buf := make([]byte, 512)
		for {
			select {
			case <-ctx.Done():
				errCh <- nil
				return
			default:
			}

			readCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
			n, err := d.epIn.ReadContext(readCtx, buf)
			cancel()
			if err != nil {
				if ctx.Err() != nil {
					errCh <- nil
					return
				}
				errStr := strings.ToLower(err.Error())
				if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "canceled") {
					continue
				}
				errCh <- fmt.Errorf("stream read failed: %w", err)
				return
			}
			if n == 0 {
				continue
			}

			payload := make([]byte, n)
			copy(payload, buf[:n])
			select {
			case sampleCh <- payload:
			case <-ctx.Done():
				errCh <- nil
				return
			}
		}
	}()

	return errCh
}
