package devicestate

import "time"

// sensorTimeout is the supervision-loss threshold: 90 x 5 minutes.
const sensorTimeout = 450 * time.Minute

// Sweep scans every tracked sensor for supervision loss. It never removes
// entries; it only flips HasLostSupervision and publishes a TIMEOUT
// notification the first time a sensor crosses the threshold. Intended
// to be invoked periodically (once a minute) by the host's timer.
func (s *Store) Sweep(clock Clock, sink Sink, msgs Messages) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := clock.Now()
	for serial, st := range s.sensors {
		if st.HasLostSupervision {
			continue
		}
		if now.Sub(st.LastUpdateTime) > sensorTimeout {
			st.HasLostSupervision = true
			s.sensors[serial] = st
			sink.Publish(msgs.statusTopic(serial), "TIMEOUT", QoSStateChange, true)
		}
	}
}
