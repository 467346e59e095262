package dongle

// RegisterMap holds the subset of CC1111 radio registers needed to put the
// dongle into asynchronous serial RX mode: tune to a fixed frequency, select
// OOK modulation, and route the raw demodulated bit stream out over GDO0.
// Register addresses are memory-mapped at 0xDF00, matching the firmware's
// XDATA layout.
type RegisterMap struct {
	FSCTRL1 uint8 `json:"fsctrl1"` // 0xDF07
	FSCTRL0 uint8 `json:"fsctrl0"` // 0xDF08

	FREQ2 uint8 `json:"freq2"` // 0xDF09
	FREQ1 uint8 `json:"freq1"` // 0xDF0A
	FREQ0 uint8 `json:"freq0"` // 0xDF0B

	MDMCFG4 uint8 `json:"mdmcfg4"` // 0xDF0C
	MDMCFG3 uint8 `json:"mdmcfg3"` // 0xDF0D
	MDMCFG2 uint8 `json:"mdmcfg2"` // 0xDF0E (modulation format, no sync search)

	MCSM1 uint8 `json:"mcsm1"` // 0xDF13
	MCSM0 uint8 `json:"mcsm0"` // 0xDF14

	FOCCFG   uint8 `json:"foccfg"`   // 0xDF15
	AGCCTRL2 uint8 `json:"agcctrl2"` // 0xDF17
	AGCCTRL1 uint8 `json:"agcctrl1"` // 0xDF18
	AGCCTRL0 uint8 `json:"agcctrl0"` // 0xDF19

	FREND1 uint8 `json:"frend1"` // 0xDF1A
	FREND0 uint8 `json:"frend0"` // 0xDF1B

	// GDO pin configuration; GDO0 is wired to carry the raw asynchronous
	// serial bit stream so the host sees the envelope before any hardware
	// packet engine would otherwise strip it.
	IOCFG0 uint8 `json:"iocfg0"` // 0xDF31
}

// RadioState mirrors the CC1111 MARCSTATE register.
type RadioState uint8

const (
	StateIDLE RadioState = 0x01
	StateRX   RadioState = 0x0D
	StateTX   RadioState = 0x13
)

func (s RadioState) String() string {
	switch s {
	case StateIDLE:
		return "IDLE"
	case StateRX:
		return "RX"
	case StateTX:
		return "TX"
	default:
		return "UNKNOWN"
	}
}

// Register addresses used by the dongle driver.
const (
	RegFSCTRL1  = 0xDF07
	RegFSCTRL0  = 0xDF08
	RegFREQ2    = 0xDF09
	RegFREQ1    = 0xDF0A
	RegFREQ0    = 0xDF0B
	RegMDMCFG4  = 0xDF0C
	RegMDMCFG3  = 0xDF0D
	RegMDMCFG2  = 0xDF0E
	RegMCSM1    = 0xDF13
	RegMCSM0    = 0xDF14
	RegFOCCFG   = 0xDF15
	RegAGCCTRL2 = 0xDF17
	RegAGCCTRL1 = 0xDF18
	RegAGCCTRL0 = 0xDF19
	RegFREND1   = 0xDF1A
	RegFREND0   = 0xDF1B
	RegIOCFG0   = 0xDF31
	RegPARTNUM  = 0xDF36
	RegRSSI     = 0xDF3A
	RegMARCSTATE = 0xDF3B
	RegRFST     = 0xDFE1
)

// RFST strobe values.
const (
	StrobeSCAL  = 0x01
	StrobeSRX   = 0x02
	StrobeSIDLE = 0x04
)

// Modulation format (MDMCFG2[6:4]). OOK is the only format this receiver uses;
// the chip supports FSK variants but no 345 MHz sensor family in this spec
// transmits on them.
const ModASKOOK = 0x30

// GDO0 function select (IOCFG0[5:0]); value 0x0D routes the raw, pre-slicer
// async serial RX data onto the pin instead of a hardware packet-valid flag.
const GDO0AsyncSerialRX = 0x0D
