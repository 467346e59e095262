package devicestate

import "fmt"

// keyLabels maps a 4-bit key nibble to its printable label.
var keyLabels = map[uint8]string{
	0x0: "POLICE",
	0x1: "1",
	0x2: "2",
	0x3: "3",
	0x4: "4",
	0x5: "5",
	0x6: "6",
	0x7: "7",
	0x8: "8",
	0x9: "9",
	0xA: "*",
	0xB: "0",
	0xC: "#",
	0xD: "STAY",
	0xE: "AWAY",
	0xF: "FIRE",
}

// UpdateKeypad applies a decoded keypad payload. Supervisory frames are
// ignored entirely (keypads only act on key presses). Sequence-duplicate
// frames are ignored. Otherwise it publishes the pressed key and, when
// the nibble is a phrase digit, accumulates and publishes the running
// phrase capped at 10 characters.
func (s *Store) UpdateKeypad(clock Clock, sink Sink, msgs Messages, serial uint32, payload uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if payload&maskKeypadSupervised != 0 {
		return
	}

	now := clock.Now()
	sequence := uint8((payload >> 44) & 0xF)
	keyNibble := uint8((payload >> 20) & 0xF)
	lowBat := payload&maskKeypadLowBat != 0

	prior, ok := s.lookupKeypad(serial)
	if !ok {
		prior = syntheticPriorKeypad(now, lowBat)
	}

	if sequence == prior.Sequence {
		return
	}

	label := keyLabels[keyNibble]

	sink.Publish(msgs.keypadTopic(serial, "keypress"), label, QoSStateChange, false)

	next := KeypadState{
		LastUpdateTime:     now,
		HasLostSupervision: false,
		Sequence:           sequence,
		LowBat:             lowBat,
	}

	switch {
	case keyNibble >= 0x1 && keyNibble <= 0xC && now.Sub(prior.LastUpdateTime) <= supervisoryDebounce && len(prior.Phrase) < phraseMaxLen:
		next.Phrase = prior.Phrase + label
		sink.Publish(msgs.keypadTopic(serial, fmt.Sprintf("keyphrase/%d", len(next.Phrase))), next.Phrase, QoSStateChange, false)
	case keyNibble == 0xB || (keyNibble >= 1 && keyNibble <= 9):
		next.Phrase = label
	default:
		next.Phrase = ""
	}

	s.storeKeypad(serial, next)
}
