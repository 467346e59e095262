package devicestate

import "testing"

func keyfobFrame(keyNibble uint8, salt uint64) uint64 {
	return salt<<32 | uint64(keyNibble)<<20
}

func TestUpdateKeyfobPublishesOnFirstPayload(t *testing.T) {
	store := NewStore()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	store.UpdateKeyfob(sink, msgs, 123, keyfobFrame(0x1, 0xABCD))

	if len(sink.published) != 1 {
		t.Fatalf("expected exactly 1 publish, got %d", len(sink.published))
	}
	if sink.published[0].topic != "security/sensors345/keyfob/123/keypress" {
		t.Errorf("unexpected topic: %s", sink.published[0].topic)
	}
	if sink.published[0].payload != "AWAY" {
		t.Errorf("expected AWAY, got %s", sink.published[0].payload)
	}
}

func TestUpdateKeyfobDedupesIdenticalPayload(t *testing.T) {
	store := NewStore()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	payload := keyfobFrame(0x1, 0xABCD)
	store.UpdateKeyfob(sink, msgs, 123, payload)
	store.UpdateKeyfob(sink, msgs, 123, payload)

	if len(sink.published) != 1 {
		t.Errorf("expected exactly 1 publish for two identical payloads, got %d", len(sink.published))
	}
}

func TestUpdateKeyfobPublishesAgainOnDifferentPayload(t *testing.T) {
	store := NewStore()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	store.UpdateKeyfob(sink, msgs, 123, keyfobFrame(0x1, 0xABCD))
	store.UpdateKeyfob(sink, msgs, 123, keyfobFrame(0x2, 0xABCD))

	if len(sink.published) != 2 {
		t.Fatalf("expected 2 publishes for 2 distinct payloads, got %d", len(sink.published))
	}
	if sink.published[1].payload != "DISARM" {
		t.Errorf("expected DISARM, got %s", sink.published[1].payload)
	}
}

func TestUpdateKeyfobUnknownNibble(t *testing.T) {
	store := NewStore()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	store.UpdateKeyfob(sink, msgs, 123, keyfobFrame(0xF, 0xABCD))

	if len(sink.published) != 1 || sink.published[0].payload != "UNK" {
		t.Errorf("expected UNK for an unmapped nibble, got %+v", sink.published)
	}
}
