package receiver

import (
	"testing"
	"time"

	"github.com/herlein/sensor345rx/pkg/crc16"
	"github.com/herlein/sensor345rx/pkg/devicestate"
)

type recordedPublish struct {
	topic   string
	payload string
	qos     byte
	retain  bool
}

type recordingSink struct {
	published []recordedPublish
}

func (s *recordingSink) Publish(topic, payload string, qos byte, retain bool) {
	s.published = append(s.published, recordedPublish{topic, payload, qos, retain})
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// --- frame and chip construction, independent of other packages'
// internals. The decode tests feed the result to ingestBinaryBuffer, the
// function PushBinary's queued closure runs, and inspect the receiver's
// stats and store directly. ---

func crc16Remainder(data48, polynomial uint64) uint64 {
	for crc := uint64(0); crc < 0x10000; crc++ {
		if crc16.Valid(data48|crc, polynomial) {
			return crc
		}
	}
	panic("no CRC found")
}

// buildFrame assembles a full 64-bit frame (sync | sof | serial | type |
// crc) for a given brand polynomial, matching the wire layout pkg/packet
// decodes.
func buildFrame(sof uint8, serial uint32, typ uint8, poly uint64) uint64 {
	data := uint64(sof&0xF)<<28 | uint64(serial&0xFFFFF)<<8 | uint64(typ)
	crc := crc16Remainder(data<<16, poly)
	payload := data<<16 | crc
	return payload | 0xFFFE000000000000
}

// manchesterEncodeState mirrors pkg/demod's 4-state decode table so a
// test can construct a chip stream that decodes back to a known bit
// sequence, without reaching into that package's internals.
type manchesterEncodeState int

const (
	encLowA manchesterEncodeState = iota
	encLowB
	encHighA
	encHighB
)

func encStep(state manchesterEncodeState, chip bool) (next manchesterEncodeState, emits bool, bit bool) {
	switch state {
	case encLowA:
		if !chip {
			return encLowA, false, false
		}
		return encHighB, false, false
	case encLowB:
		if !chip {
			return encLowA, true, false
		}
		return encHighA, true, false
	case encHighA:
		if !chip {
			return encLowB, false, false
		}
		return encHighA, false, false
	default: // encHighB
		if !chip {
			return encLowA, true, true
		}
		return encHighA, true, true
	}
}

// manchesterEncode turns a sequence of data bits into the chip sequence
// that decodes back to them. Each bit needs the decoder to already be
// sitting in a specific "entry" state before its two chips arrive (lowA
// to emit a 1, highA to emit a 0); the first chip of the pair drives the
// entry state into its matching pre-emit state (highB or lowB, which
// always emits 1 or 0 respectively on the next chip regardless of its
// value), and the second chip is free to choose which entry state the
// decoder lands in next, so it is always chosen to satisfy the following
// bit's requirement. This only works if the very first bit is a 1 (lowA
// is the decoder's initial state), which every frame here satisfies: the
// sync pattern's top bit is always 1.
func manchesterEncode(bits []bool) []bool {
	if len(bits) == 0 {
		return nil
	}
	if !bits[0] {
		panic("manchesterEncode: first bit must be 1 to match the decoder's initial state")
	}

	state := manchesterEncodeState(encLowA)
	chips := make([]bool, 0, len(bits)*2)

	entryStateFor := func(want bool) manchesterEncodeState {
		if want {
			return encLowA
		}
		return encHighA
	}

	for i, want := range bits {
		if state != entryStateFor(want) {
			panic("manchesterEncode: decoder not primed for the next bit")
		}

		c1 := want // lowA needs chip1 to set up a 1; highA needs chip0 to set up a 0
		s1, emits1, _ := encStep(state, c1)
		if emits1 {
			panic("manchesterEncode: unexpected emit priming a symbol")
		}

		nextRequired := entryStateFor(true)
		if i+1 < len(bits) {
			nextRequired = entryStateFor(bits[i+1])
		}

		c2 := nextRequired == encHighA
		s2, emits2, bit2 := encStep(s1, c2)
		if !emits2 || bit2 != want {
			panic("manchesterEncode: second chip did not emit the desired bit")
		}

		chips = append(chips, c1, c2)
		state = s2
	}
	return chips
}

// frameBits returns the 64 bits of frame, most-significant first — the
// order a shift-register framer needs them pushed in to reconstruct the
// same 64-bit value.
func frameBits(frame uint64) []bool {
	bits := make([]bool, 64)
	for i := 0; i < 64; i++ {
		bits[i] = (frame>>(63-i))&1 != 0
	}
	return bits
}

// packBitsOversampled repeats each chip samplesPerBit times and packs the
// result 8 raw samples per byte, most significant bit first — the format
// Receiver.PushBinary expects from a dongle-style sample source.
func packBitsOversampled(chips []bool, samplesPerBit int) []byte {
	var rawBits []bool
	for _, c := range chips {
		for i := 0; i < samplesPerBit; i++ {
			rawBits = append(rawBits, c)
		}
	}
	for len(rawBits)%8 != 0 {
		rawBits = append(rawBits, rawBits[len(rawBits)-1])
	}
	buf := make([]byte, len(rawBits)/8)
	for i, bit := range rawBits {
		if bit {
			buf[i/8] |= 1 << uint(7-i%8)
		}
	}
	return buf
}

func newTestReceiver(sink devicestate.Sink, clock Clock) *Receiver {
	return New(Config{
		SamplesPerBit:  8,
		SweepInterval:  time.Minute,
		WatchdogPeriod: 90 * time.Minute,
		Messages:       devicestate.DefaultMessages(),
		Sink:           sink,
		Clock:          clock,
	})
}

func TestPushBinaryDecodesSensorFrame(t *testing.T) {
	frame := buildFrame(0xA, 0x12345, 0x80, crc16.Poly2GIG)
	chips := manchesterEncode(frameBits(frame))
	buf := packBitsOversampled(chips, 8)

	sink := &recordingSink{}
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := newTestReceiver(sink, clock)

	r.ingestBinaryBuffer(buf)

	if r.stats.FramesSeen == 0 {
		t.Fatalf("expected at least one frame to be recognized")
	}
	if r.stats.SensorUpdates == 0 {
		t.Fatalf("expected the decoded frame to route to UpdateSensor")
	}

	st, ok := r.store.SensorSnapshot(0x12345)
	if !ok {
		t.Fatalf("expected sensor 0x12345 to be tracked after decoding")
	}
	_ = st

	found := false
	for _, p := range sink.published {
		if p.topic == "security/sensors345/sensor/74565/loop1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a loop1 publish for serial 74565, got %+v", sink.published)
	}
}

func TestPushBinaryMarksWatchdogGoodOnValidFrame(t *testing.T) {
	frame := buildFrame(0xA, 0x99999, 0x80, crc16.Poly2GIG)
	chips := manchesterEncode(frameBits(frame))
	buf := packBitsOversampled(chips, 8)

	sink := &recordingSink{}
	clock := &fakeClock{now: time.Now()}
	r := newTestReceiver(sink, clock)

	r.ingestBinaryBuffer(buf)

	foundHealth := false
	for _, p := range sink.published {
		if p.topic == "security/sensors345/rx_status" && p.payload == "OK" {
			foundHealth = true
		}
	}
	if !foundHealth {
		t.Errorf("expected a health-good rx_status publish, got %+v", sink.published)
	}
}

func TestStartPublishesInitialHealthGood(t *testing.T) {
	sink := &recordingSink{}
	clock := &fakeClock{now: time.Now()}
	r := newTestReceiver(sink, clock)

	r.Start()

	if len(sink.published) != 1 {
		t.Fatalf("expected exactly one publish from Start, got %+v", sink.published)
	}
	got := sink.published[0]
	if got.topic != "security/sensors345/rx_status" || got.payload != "OK" {
		t.Errorf("expected an initial rx_status=OK publish, got %+v", got)
	}
}

func TestPushIQAndPushBinaryEnqueueWork(t *testing.T) {
	sink := &recordingSink{}
	clock := &fakeClock{now: time.Now()}
	r := newTestReceiver(sink, clock)

	r.PushBinary([]byte{0x00, 0xFF})
	select {
	case fn := <-r.queue:
		fn()
	default:
		t.Fatalf("expected PushBinary to enqueue a closure")
	}

	r.PushIQ([]byte{0x80, 0x80, 0x80, 0x80})
	select {
	case fn := <-r.queue:
		fn()
	default:
		t.Fatalf("expected PushIQ to enqueue a closure")
	}
}
