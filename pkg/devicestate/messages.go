package devicestate

import "fmt"

// Messages holds the configurable payload strings and topic prefix. The
// spec requires only that each pair be two distinct non-empty strings;
// the exact text is a deployment concern, not a protocol concern.
type Messages struct {
	BaseTopic string

	OpenSensorMsg   string
	ClosedSensorMsg string
	TamperMsg       string
	TamperOKMsg     string
	LowBatMsg       string
	BatteryOKMsg    string
}

// DefaultMessages returns the conventional English payload strings.
func DefaultMessages() Messages {
	return Messages{
		BaseTopic:       "security/sensors345",
		OpenSensorMsg:   "OPEN",
		ClosedSensorMsg: "CLOSED",
		TamperMsg:       "TAMPER",
		TamperOKMsg:     "OK",
		LowBatMsg:       "LOW",
		BatteryOKMsg:    "OK",
	}
}

func (m Messages) sensorTopic(serial uint32, field string) string {
	return fmt.Sprintf("%s/sensor/%d/%s", m.BaseTopic, serial, field)
}

func (m Messages) keypadTopic(serial uint32, suffix string) string {
	return fmt.Sprintf("%s/keypad/%d/%s", m.BaseTopic, serial, suffix)
}

func (m Messages) keyfobTopic(serial uint32) string {
	return fmt.Sprintf("%s/keyfob/%d/keypress", m.BaseTopic, serial)
}

func (m Messages) statusTopic(serial uint32) string {
	return fmt.Sprintf("%s/%d/status", m.BaseTopic, serial)
}

func (m Messages) rxStatusTopic() string {
	return fmt.Sprintf("%s/rx_status", m.BaseTopic)
}

// RxStatusTopic exposes the receiver health topic for the watchdog's
// health-transition publishes, which originate outside this package.
func (m Messages) RxStatusTopic() string {
	return m.rxStatusTopic()
}

func boolMsg(value bool, onMsg, offMsg string) string {
	if value {
		return onMsg
	}
	return offMsg
}
