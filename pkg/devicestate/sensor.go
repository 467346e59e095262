package devicestate

// UpdateSensor applies a decoded sensor payload to the store and emits
// publishes for every field that changed, or for every field when the
// frame is the first supervisory refresh received more than the
// debounce window after the previous one.
func (s *Store) UpdateSensor(clock Clock, sink Sink, msgs Messages, serial uint32, payload uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := clock.Now()
	current := sensorFromPayload(payload)
	current.LastUpdateTime = now
	current.HasLostSupervision = false

	prior, ok := s.lookupSensor(serial)
	if !ok {
		prior = syntheticPriorSensor(current)
	}

	supervised := payload&maskSupervisory != 0 && now.Sub(prior.LastUpdateTime) > supervisoryDebounce

	publishField := func(topic string, changed bool, onMsg, offMsg string, value bool) {
		if !changed && !supervised {
			return
		}
		// qos depends only on supervised, not on changed, matching
		// original_source/src/digitalDecoder.cpp's updateSensorState.
		qos := QoSStateChange
		retain := true
		if supervised {
			qos = QoSSupervisoryRefresh
		}
		sink.Publish(topic, boolMsg(value, onMsg, offMsg), qos, retain)
	}

	// Ordering is fixed: loop1, loop2, loop3, tamper, battery.
	publishField(msgs.sensorTopic(serial, "loop1"), current.Loop1 != prior.Loop1, msgs.OpenSensorMsg, msgs.ClosedSensorMsg, current.Loop1)
	publishField(msgs.sensorTopic(serial, "loop2"), current.Loop2 != prior.Loop2, msgs.OpenSensorMsg, msgs.ClosedSensorMsg, current.Loop2)
	publishField(msgs.sensorTopic(serial, "loop3"), current.Loop3 != prior.Loop3, msgs.OpenSensorMsg, msgs.ClosedSensorMsg, current.Loop3)
	publishField(msgs.sensorTopic(serial, "tamper"), current.Tamper != prior.Tamper, msgs.TamperMsg, msgs.TamperOKMsg, current.Tamper)
	publishField(msgs.sensorTopic(serial, "battery"), current.LowBat != prior.LowBat, msgs.LowBatMsg, msgs.BatteryOKMsg, current.LowBat)

	s.storeSensor(serial, current)
}
