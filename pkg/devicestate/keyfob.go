package devicestate

// keyfobLabels maps a 4-bit key nibble to its printable label.
var keyfobLabels = map[uint8]string{
	0x1: "AWAY",
	0x2: "DISARM",
	0x4: "STAY",
	0x8: "AUX",
}

// UpdateKeyfob applies a decoded key-fob payload to the single global
// slot. A key fob retransmits the same frame many times; a payload equal
// to the immediately preceding key-fob payload is not published again.
func (s *Store) UpdateKeyfob(sink Sink, msgs Messages, serial uint32, payload uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keyfob.HasPayload && payload == s.keyfob.LastPayload {
		return
	}

	keyNibble := uint8((payload >> 20) & 0xF)
	label, ok := keyfobLabels[keyNibble]
	if !ok {
		label = "UNK"
	}

	sink.Publish(msgs.keyfobTopic(serial), label, QoSStateChange, false)

	s.keyfob = KeyfobState{HasPayload: true, LastPayload: payload}
}
