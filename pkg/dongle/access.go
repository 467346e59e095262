package dongle

import "fmt"

// Peek reads a single byte from device memory.
func Peek(device *Device, address uint16) (uint8, error) {
	return device.PeekByte(address)
}

// Poke writes a single byte to device memory.
func Poke(device *Device, address uint16, value uint8) error {
	return device.PokeByte(address, value)
}

// Strobe sends a radio strobe command.
func Strobe(device *Device, command uint8) error {
	return device.PokeByte(RegRFST, command)
}

// GetRadioState reads the current radio state.
func GetRadioState(device *Device) (RadioState, error) {
	state, err := device.PeekByte(RegMARCSTATE)
	if err != nil {
		return 0, fmt.Errorf("failed to read radio state: %w", err)
	}
	return RadioState(state & 0x1F), nil // MARCSTATE is only 5 bits
}

// SetIDLE puts the radio in idle state.
func SetIDLE(device *Device) error {
	return Strobe(device, StrobeSIDLE)
}

// SetRX puts the radio in receive mode.
func SetRX(device *Device) error {
	return Strobe(device, StrobeSRX)
}

// ReadAllRegisters reads the trimmed register block into a RegisterMap.
func ReadAllRegisters(device *Device) (*RegisterMap, error) {
	block, err := device.Peek(RegFSCTRL1, 0x1B-0x07+1) // FSCTRL1..FREND0
	if err != nil {
		return nil, fmt.Errorf("failed to read register block: %w", err)
	}

	reg := &RegisterMap{
		FSCTRL1:  block[0x07-0x07],
		FSCTRL0:  block[0x08-0x07],
		FREQ2:    block[0x09-0x07],
		FREQ1:    block[0x0A-0x07],
		FREQ0:    block[0x0B-0x07],
		MDMCFG4:  block[0x0C-0x07],
		MDMCFG3:  block[0x0D-0x07],
		MDMCFG2:  block[0x0E-0x07],
		MCSM1:    block[0x13-0x07],
		MCSM0:    block[0x14-0x07],
		FOCCFG:   block[0x15-0x07],
		AGCCTRL2: block[0x17-0x07],
		AGCCTRL1: block[0x18-0x07],
		AGCCTRL0: block[0x19-0x07],
		FREND1:   block[0x1A-0x07],
		FREND0:   block[0x1B-0x07],
	}

	iocfg, err := device.PeekByte(RegIOCFG0)
	if err != nil {
		return nil, fmt.Errorf("failed to read IOCFG0: %w", err)
	}
	reg.IOCFG0 = iocfg

	return reg, nil
}

// WriteAllRegisters writes the trimmed register block from a RegisterMap.
func WriteAllRegisters(device *Device, reg *RegisterMap) error {
	block := []byte{
		reg.FSCTRL1, reg.FSCTRL0,
		reg.FREQ2, reg.FREQ1, reg.FREQ0,
		reg.MDMCFG4, reg.MDMCFG3, reg.MDMCFG2,
	}
	if err := device.Poke(RegFSCTRL1, block); err != nil {
		return fmt.Errorf("failed to write frequency/modem registers: %w", err)
	}

	mcsm := []byte{reg.MCSM1, reg.MCSM0}
	if err := device.Poke(RegMCSM1, mcsm); err != nil {
		return fmt.Errorf("failed to write MCSM registers: %w", err)
	}

	if err := device.PokeByte(RegFOCCFG, reg.FOCCFG); err != nil {
		return fmt.Errorf("failed to write FOCCFG: %w", err)
	}

	agc := []byte{reg.AGCCTRL2, reg.AGCCTRL1, reg.AGCCTRL0, reg.FREND1, reg.FREND0}
	if err := device.Poke(RegAGCCTRL2, agc); err != nil {
		return fmt.Errorf("failed to write AGC/front-end registers: %w", err)
	}

	if err := device.PokeByte(RegIOCFG0, reg.IOCFG0); err != nil {
		return fmt.Errorf("failed to write IOCFG0: %w", err)
	}

	return nil
}

// GetFrequency calculates the carrier frequency in Hz from the register values.
// crystalMHz is 24 for the CC1111.
func GetFrequency(reg *RegisterMap, crystalMHz float64) float64 {
	freq := uint32(reg.FREQ2)<<16 | uint32(reg.FREQ1)<<8 | uint32(reg.FREQ0)
	return float64(freq) * (crystalMHz * 1e6 / 65536.0)
}

// SetFrequency calculates and sets the FREQ registers for a given frequency.
func SetFrequency(reg *RegisterMap, frequencyHz float64, crystalMHz float64) {
	freq := uint32(frequencyHz * 65536.0 / (crystalMHz * 1e6))
	reg.FREQ2 = uint8((freq >> 16) & 0xFF)
	reg.FREQ1 = uint8((freq >> 8) & 0xFF)
	reg.FREQ0 = uint8(freq & 0xFF)
}
