package devicestate

import "sync"

// Store owns the sensor and keypad state maps plus the single key-fob
// slot. It is safe for concurrent use: the receiver's work-queue model
// means in practice only one goroutine ever calls into it at a time, but
// the timeout sweeper may be invoked from a timer callback on another
// goroutine, so all access is still guarded.
type Store struct {
	mu sync.Mutex

	sensors map[uint32]SensorState
	keypads map[uint32]KeypadState
	keyfob  KeyfobState
}

// NewStore creates an empty device-state store.
func NewStore() *Store {
	return &Store{
		sensors: make(map[uint32]SensorState),
		keypads: make(map[uint32]KeypadState),
	}
}

// IsKnownKeypad reports whether serial already has tracked keypad state.
// This is the single authoritative answer to the classifier's "not a
// known keypad serial" routing guard.
func (s *Store) IsKnownKeypad(serial uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keypads[serial]
	return ok
}

func (s *Store) lookupSensor(serial uint32) (SensorState, bool) {
	st, ok := s.sensors[serial]
	return st, ok
}

func (s *Store) lookupKeypad(serial uint32) (KeypadState, bool) {
	st, ok := s.keypads[serial]
	return st, ok
}

func (s *Store) storeSensor(serial uint32, st SensorState) {
	s.sensors[serial] = st
}

func (s *Store) storeKeypad(serial uint32, st KeypadState) {
	s.keypads[serial] = st
}

// SensorSnapshot returns a copy of a sensor's tracked state, for tests
// and diagnostics.
func (s *Store) SensorSnapshot(serial uint32) (SensorState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupSensor(serial)
}

// KeypadSnapshot returns a copy of a keypad's tracked state, for tests
// and diagnostics.
func (s *Store) KeypadSnapshot(serial uint32) (KeypadState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookupKeypad(serial)
}
