package devicestate

// Sink is the publish-sink contract: a topic/payload pair with QoS and
// retain semantics, matching the MQTT publish operation this core treats
// as an external collaborator.
type Sink interface {
	Publish(topic string, payload string, qos byte, retain bool)
}

// QoS levels used throughout the state-update procedures.
const (
	QoSSupervisoryRefresh byte = 0
	QoSStateChange        byte = 1
)
