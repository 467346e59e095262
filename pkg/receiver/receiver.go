// Package receiver wires the demodulation pipeline, device-state store,
// watchdog, and publish sink into one cooperative work queue: the single
// point where samples, health transitions, and supervision sweeps all
// become closures drained by one goroutine, so nothing downstream of the
// Manchester decoder ever needs its own locking.
package receiver

import (
	"context"
	"time"

	"github.com/herlein/sensor345rx/pkg/demod"
	"github.com/herlein/sensor345rx/pkg/devicestate"
	"github.com/herlein/sensor345rx/pkg/framer"
	"github.com/herlein/sensor345rx/pkg/magnitude"
	"github.com/herlein/sensor345rx/pkg/packet"
	"github.com/herlein/sensor345rx/pkg/slicer"
	"github.com/herlein/sensor345rx/pkg/watchdog"
)

// Clock is injected so the receiver, the device-state store, and the
// watchdog all share one notion of "now" without importing each other's
// Clock type; any type with Now() time.Time satisfies all three.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by time.Now.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// rxHealthOK and rxHealthFailed are the receiver health publish payloads.
// rxHealthFailed intentionally matches publish.WillPayload: a gateway
// that has gone silent looks the same to subscribers whether it
// disconnected outright or is still connected but hearing nothing.
const (
	rxHealthOK     = "OK"
	rxHealthFailed = "FAILED"
)

// defaultQueueSize bounds how many pending closures the work queue holds
// before PushIQ/PushBinary block, applying backpressure to whichever
// sample source is feeding the receiver rather than growing unbounded.
const defaultQueueSize = 64

// Config assembles everything the receiver needs beyond the pipeline
// stages it owns outright.
type Config struct {
	SamplesPerBit  int // oversampling factor into the bit clock recoverer
	SweepInterval  time.Duration
	WatchdogPeriod time.Duration
	QueueSize      int

	Messages devicestate.Messages
	Sink     devicestate.Sink
	Clock    Clock

	// TimerFactory backs the watchdog's timeout. Defaults to
	// watchdog.RealTimerFactory; tests substitute a fake.
	TimerFactory watchdog.TimerFactory
}

// Stats tracks coarse pipeline counters for diagnostics; only the queue's
// single drain goroutine ever touches them, so no locking is needed.
type Stats struct {
	FramesSeen    uint64
	FramesValid   uint64
	SensorUpdates uint64
	KeypadUpdates uint64
	KeyfobUpdates uint64
}

// Receiver owns the full pipeline from raw samples through MQTT publish.
type Receiver struct {
	magTable   *magnitude.Table
	slicer     *slicer.Slicer
	clockRec   *demod.ClockRecoverer
	manchester *demod.ManchesterDecoder
	framer     *framer.Framer
	store      *devicestate.Store
	watchdog   *watchdog.Watchdog

	msgs  devicestate.Messages
	sink  devicestate.Sink
	clock Clock

	sweepInterval time.Duration

	queue chan func()
	stats Stats
}

// New builds a Receiver ready to accept samples. It does not start the
// work queue; call Run to begin draining it.
func New(cfg Config) *Receiver {
	if cfg.SamplesPerBit <= 0 {
		cfg.SamplesPerBit = 8
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.WatchdogPeriod <= 0 {
		cfg.WatchdogPeriod = 90 * time.Minute
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.TimerFactory == nil {
		cfg.TimerFactory = watchdog.RealTimerFactory
	}

	r := &Receiver{
		magTable:      magnitude.NewTable(),
		slicer:        slicer.New(),
		clockRec:      demod.NewClockRecoverer(cfg.SamplesPerBit),
		manchester:    demod.NewManchesterDecoder(),
		framer:        framer.New(),
		store:         devicestate.NewStore(),
		msgs:          cfg.Messages,
		sink:          cfg.Sink,
		clock:         cfg.Clock,
		sweepInterval: cfg.SweepInterval,
		queue:         make(chan func(), cfg.QueueSize),
	}

	// The watchdog's timeout callback is posted to the work queue, so a
	// health transition runs on the drain goroutine like everything else.
	timers := cfg.TimerFactory
	queuedTimers := func(d time.Duration, fn func()) watchdog.Timer {
		return timers(d, func() { r.enqueue(fn) })
	}
	r.watchdog = watchdog.New(cfg.Clock, queuedTimers, cfg.WatchdogPeriod, r.publishHealth)

	return r
}

// publishHealth is the watchdog's onTransition callback.
func (r *Receiver) publishHealth(good bool) {
	payload := rxHealthFailed
	if good {
		payload = rxHealthOK
	}
	r.sink.Publish(r.msgs.RxStatusTopic(), payload, devicestate.QoSStateChange, true)
}

// Stats returns a snapshot of the pipeline counters. Only meaningful
// after Run's drain goroutine has processed some work; callers should
// not call this from inside a closure submitted to the same receiver.
func (r *Receiver) Stats() Stats {
	return r.stats
}

// PushIQ enqueues a raw interleaved I/Q buffer (as delivered by an
// iqsource.TCPSource) for magnitude estimation, slicing, and demodulation.
// The buffer is copied; callers may reuse buf immediately after this
// call returns.
func (r *Receiver) PushIQ(buf []byte) {
	cp := append([]byte(nil), buf...)
	r.enqueue(func() { r.ingestIQBuffer(cp) })
}

// PushBinary enqueues a bit-packed binary envelope buffer (as delivered
// by a dongle.Device already performing asynchronous serial RX) for
// demodulation. Each byte carries 8 oversampled samples, most significant
// bit first, bypassing magnitude estimation and slicing entirely.
func (r *Receiver) PushBinary(buf []byte) {
	cp := append([]byte(nil), buf...)
	r.enqueue(func() { r.ingestBinaryBuffer(cp) })
}

// enqueue blocks until the closure is accepted onto the work queue,
// applying backpressure to the sample-delivery goroutine when the drain
// loop falls behind rather than dropping samples silently.
func (r *Receiver) enqueue(fn func()) {
	r.queue <- fn
}

// Start arms the watchdog for the first time, publishing the initial
// health-good state and starting its timeout, mirroring
// original_source/src/main.cpp's setRxGood(true) call at startup. Run
// calls this once before entering its drain loop; callers never need to
// call it directly.
func (r *Receiver) Start() {
	r.watchdog.SetGood(true)
}

// Run drains the work queue until ctx is cancelled, also posting a sweep
// closure on every tick of the configured sweep interval. It blocks; run
// it in its own goroutine.
func (r *Receiver) Run(ctx context.Context) {
	r.Start()

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	defer r.watchdog.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-r.queue:
			fn()
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *Receiver) sweep() {
	r.store.Sweep(r.clock, r.sink, r.msgs)
}

func (r *Receiver) ingestIQBuffer(buf []byte) {
	r.magTable.Process(buf, func(mag float32) {
		r.slicer.Push(mag, r.ingestBit)
	})
}

// ingestBinaryBuffer unpacks each byte's 8 bit-slices, most significant
// bit first, into individual raw envelope samples.
func (r *Receiver) ingestBinaryBuffer(buf []byte) {
	for _, b := range buf {
		for i := 7; i >= 0; i-- {
			r.ingestBit((b>>uint(i))&1 != 0)
		}
	}
}

func (r *Receiver) ingestBit(sample bool) {
	r.clockRec.PushSample(sample, r.ingestChip)
}

func (r *Receiver) ingestChip(chip bool) {
	r.manchester.PushChip(chip, r.ingestDataBit)
}

func (r *Receiver) ingestDataBit(bit bool) {
	r.framer.PushBit(bit, r.handleFrame)
}

func (r *Receiver) handleFrame(frame uint64) {
	r.stats.FramesSeen++

	p := packet.Decode(frame)
	class, anyValid := packet.Classify(p, r.store)
	if anyValid {
		r.stats.FramesValid++
		r.watchdog.SetGood(true)
	}

	switch class {
	case packet.ClassSensor:
		r.store.UpdateSensor(r.clock, r.sink, r.msgs, p.Serial, p.Raw)
		r.stats.SensorUpdates++
	case packet.ClassKeypad:
		r.store.UpdateKeypad(r.clock, r.sink, r.msgs, p.Serial, p.Raw)
		r.stats.KeypadUpdates++
	case packet.ClassKeyfob:
		r.store.UpdateKeyfob(r.sink, r.msgs, p.Serial, p.Raw)
		r.stats.KeyfobUpdates++
	}
}
