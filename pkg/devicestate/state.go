package devicestate

import "time"

// sensorLowBatMask is the newer, broader low-battery flag bit. An older
// firmware generation used 0x00020000 instead; that form is not carried
// forward, per the reviewed ambiguity in the source this protocol was
// reverse engineered from.
const (
	maskLoop1       uint64 = 0x000000800000
	maskLoop2       uint64 = 0x000000200000
	maskLoop3       uint64 = 0x000000100000
	maskTamper      uint64 = 0x000000400000
	sensorLowBatMask uint64 = 0x000000080000
	maskSupervisory uint64 = 0x000000040000
)

const (
	maskKeypadLowBat     uint64 = 0x20000
	maskKeypadSupervised uint64 = 0x40000
)

// supervisoryDebounce is the minimum interval between accepted
// supervisory publishes for the same serial.
const supervisoryDebounce = 2 * time.Second

// phraseMaxLen caps accumulated keypad phrases.
const phraseMaxLen = 10

// SensorState is the per-serial tracked state for a door/window/motion
// sensor.
type SensorState struct {
	LastUpdateTime     time.Time
	HasLostSupervision bool

	Loop1  bool
	Loop2  bool
	Loop3  bool
	Tamper bool
	LowBat bool
}

// KeypadState is the per-serial tracked state for a keypad.
type KeypadState struct {
	LastUpdateTime     time.Time
	HasLostSupervision bool

	Sequence uint8
	LowBat   bool
	Phrase   string
}

// KeyfobState is the single global key-fob slot.
type KeyfobState struct {
	HasPayload  bool
	LastPayload uint64
}

func sensorFromPayload(payload uint64) SensorState {
	return SensorState{
		Loop1:  payload&maskLoop1 != 0,
		Loop2:  payload&maskLoop2 != 0,
		Loop3:  payload&maskLoop3 != 0,
		Tamper: payload&maskTamper != 0,
		LowBat: payload&sensorLowBatMask != 0,
	}
}

// syntheticPriorSensor returns the bit-complement of current so the first
// real packet for a serial publishes every field.
func syntheticPriorSensor(current SensorState) SensorState {
	return SensorState{
		LastUpdateTime: time.Time{},
		Loop1:          !current.Loop1,
		Loop2:          !current.Loop2,
		Loop3:          !current.Loop3,
		Tamper:         !current.Tamper,
		LowBat:         !current.LowBat,
	}
}

// syntheticPriorKeypad returns a prior state guaranteed to differ from
// any real first frame: an out-of-range sequence and inverted lowBat. Its
// LastUpdateTime is set to now rather than the zero time so the very
// first key press is eligible for phrase accumulation exactly like any
// other press within the debounce window.
func syntheticPriorKeypad(now time.Time, lowBat bool) KeypadState {
	return KeypadState{
		LastUpdateTime: now,
		Sequence:       0xFF,
		LowBat:         !lowBat,
	}
}
