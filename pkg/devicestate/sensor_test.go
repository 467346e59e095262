package devicestate

import (
	"testing"
	"time"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type recordedPublish struct {
	topic   string
	payload string
	qos     byte
	retain  bool
}

type recordingSink struct {
	published []recordedPublish
}

func (r *recordingSink) Publish(topic string, payload string, qos byte, retain bool) {
	r.published = append(r.published, recordedPublish{topic, payload, qos, retain})
}

func newTestClock() *fakeClock {
	return &fakeClock{now: time.Unix(1000, 0)}
}

func TestUpdateSensorFirstPacketPublishesAllFields(t *testing.T) {
	store := NewStore()
	clock := newTestClock()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	// serial 0x12345 (74565 decimal), loop1 set, every other flag clear:
	// the field values of the "known 2GIG sensor frame" scenario.
	payload := uint64(maskLoop1)
	store.UpdateSensor(clock, sink, msgs, 74565, payload)

	if len(sink.published) != 5 {
		t.Fatalf("expected 5 field publishes on first packet, got %d: %+v", len(sink.published), sink.published)
	}

	want := map[string]string{
		"security/sensors345/sensor/74565/loop1":   "OPEN",
		"security/sensors345/sensor/74565/loop2":   "CLOSED",
		"security/sensors345/sensor/74565/loop3":   "CLOSED",
		"security/sensors345/sensor/74565/tamper":  "OK",
		"security/sensors345/sensor/74565/battery": "OK",
	}
	for _, p := range sink.published {
		if want[p.topic] != p.payload {
			t.Errorf("topic %s: expected %q, got %q", p.topic, want[p.topic], p.payload)
		}
	}
}

func TestUpdateSensorNoPublishWhenUnchanged(t *testing.T) {
	store := NewStore()
	clock := newTestClock()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	payload := uint64(maskLoop1)
	store.UpdateSensor(clock, sink, msgs, 1, payload)
	sink.published = nil

	clock.Advance(1 * time.Second)
	store.UpdateSensor(clock, sink, msgs, 1, payload)

	if len(sink.published) != 0 {
		t.Errorf("expected no publishes for an identical frame with supervisory bit clear, got %d", len(sink.published))
	}
}

func TestUpdateSensorSupervisionDebounce(t *testing.T) {
	store := NewStore()
	clock := newTestClock()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	payload := uint64(maskLoop1) | maskSupervisory

	store.UpdateSensor(clock, sink, msgs, 1, payload)
	first := len(sink.published)
	if first == 0 {
		t.Fatalf("expected the first supervisory frame to publish")
	}

	sink.published = nil
	clock.Advance(1 * time.Second)
	store.UpdateSensor(clock, sink, msgs, 1, payload)
	if len(sink.published) != 0 {
		t.Errorf("expected no publishes for a second supervisory frame within the debounce window, got %d", len(sink.published))
	}
}

func TestUpdateSensorStateChangePublishesOnlyChangedField(t *testing.T) {
	store := NewStore()
	clock := newTestClock()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	store.UpdateSensor(clock, sink, msgs, 1, uint64(maskLoop1))
	sink.published = nil

	clock.Advance(5 * time.Second)
	store.UpdateSensor(clock, sink, msgs, 1, uint64(maskLoop1)|maskTamper)

	if len(sink.published) != 1 {
		t.Fatalf("expected exactly 1 publish for the newly tampered field, got %d: %+v", len(sink.published), sink.published)
	}
	if sink.published[0].topic != "security/sensors345/sensor/1/tamper" {
		t.Errorf("expected tamper topic, got %s", sink.published[0].topic)
	}
}

func TestUpdateSensorSupervisedChangeUsesSupervisoryQoS(t *testing.T) {
	store := NewStore()
	clock := newTestClock()
	sink := &recordingSink{}
	msgs := DefaultMessages()

	store.UpdateSensor(clock, sink, msgs, 1, uint64(maskLoop1))
	sink.published = nil

	// A frame that both changes a field (tamper) and arrives as a
	// supervisory refresh (supervisory bit set, past the debounce
	// window) gets qos=supervisory for every published field,
	// regardless of which fields changed.
	clock.Advance(5 * time.Second)
	store.UpdateSensor(clock, sink, msgs, 1, uint64(maskLoop1)|maskTamper|maskSupervisory)

	if len(sink.published) == 0 {
		t.Fatalf("expected at least one publish")
	}
	for _, p := range sink.published {
		if p.qos != QoSSupervisoryRefresh {
			t.Errorf("topic %s: expected QoSSupervisoryRefresh, got %d", p.topic, p.qos)
		}
	}
}
