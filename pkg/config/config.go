// Package config holds the runtime configuration for the sensor345rx
// daemon and its flag/environment parsing.
package config

import (
	"flag"
	"os"
	"strconv"
	"time"
)

// Config is the fully-resolved runtime configuration, assembled from CLI
// flags with environment-variable fallbacks for MQTT credentials.
type Config struct {
	SampleSource string // "iqsource" or "dongle"

	IQSourceAddr string  // rtl_tcp host:port, when SampleSource == "iqsource"
	Device       string  // dongle selector ("", "serial", "bus:addr", "#N"), when SampleSource == "dongle"
	DongleFreqHz float64 // center frequency in Hz, used by both sample sources
	Gain         int
	SampleRate   uint32
	AGC          bool

	SamplesPerBit int // samples per Manchester chip; default 8

	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	BaseTopic       string
	OpenSensorMsg   string
	ClosedSensorMsg string
	TamperMsg       string
	TamperOKMsg     string
	LowBatMsg       string
	BatteryOKMsg    string

	SweepInterval  time.Duration
	WatchdogPeriod time.Duration
}

// Defaults returns a Config with every field set to its documented
// default, matching original_source/src/main.cpp's frequency/gain/
// sample-rate defaults and spec §§4.11-4.12's timing defaults.
func Defaults() Config {
	return Config{
		SampleSource:    "iqsource",
		IQSourceAddr:    "127.0.0.1:1234",
		Device:          "",
		DongleFreqHz:    345000000,
		Gain:            364,
		SampleRate:      1000000,
		AGC:             false,
		SamplesPerBit:   8,
		MQTTBroker:      "tcp://127.0.0.1:1883",
		MQTTClientID:    "sensors345",
		BaseTopic:       "security/sensors345",
		OpenSensorMsg:   "OPEN",
		ClosedSensorMsg: "CLOSED",
		TamperMsg:       "TAMPER",
		TamperOKMsg:     "OK",
		LowBatMsg:       "LOW",
		BatteryOKMsg:    "OK",
		SweepInterval:   time.Minute,
		WatchdogPeriod:  90 * time.Minute,
	}
}

// ParseFlags parses args (typically os.Args[1:]) into a Config, starting
// from Defaults and applying environment-variable fallbacks for MQTT
// credentials the way original_source/src/main.cpp reads MQTT_HOST,
// MQTT_PORT, MQTT_USERNAME, and MQTT_PASSWORD before falling back to
// compiled-in values.
func ParseFlags(progName string, args []string) (Config, error) {
	cfg := Defaults()
	applyMQTTEnv(&cfg)

	fs := flag.NewFlagSet(progName, flag.ContinueOnError)

	source := fs.String("source", cfg.SampleSource, "sample source: \"iqsource\" or \"dongle\"")
	iqAddr := fs.String("iqaddr", cfg.IQSourceAddr, "rtl_tcp host:port (source=iqsource)")
	device := fs.String("device", cfg.Device, "dongle selector (source=dongle): \"\", \"serial\", \"bus:addr\", or \"#N\"")
	freq := fs.Float64("freq", cfg.DongleFreqHz, "center frequency in Hz")
	gain := fs.Int("gain", cfg.Gain, "tuner gain; parsed but not applied to either sample source")
	sampleRate := fs.Uint("samplerate", uint(cfg.SampleRate), "SDR sample rate in Hz")
	agc := fs.Bool("agc", cfg.AGC, "enable automatic gain control")
	samplesPerBit := fs.Int("samplesperbit", cfg.SamplesPerBit, "oversampling factor per Manchester chip")

	mqttBroker := fs.String("mqtt-broker", cfg.MQTTBroker, "MQTT broker URL")
	mqttClientID := fs.String("mqtt-clientid", cfg.MQTTClientID, "MQTT client ID")
	mqttUsername := fs.String("mqtt-username", cfg.MQTTUsername, "MQTT username (overrides MQTT_USERNAME)")
	mqttPassword := fs.String("mqtt-password", cfg.MQTTPassword, "MQTT password (overrides MQTT_PASSWORD)")

	baseTopic := fs.String("base-topic", cfg.BaseTopic, "MQTT base topic")
	sweepInterval := fs.Duration("sweep-interval", cfg.SweepInterval, "supervision timeout sweep interval")
	watchdogPeriod := fs.Duration("watchdog-period", cfg.WatchdogPeriod, "receiver health timeout: rx_status goes FAILED after this long without a valid packet")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg.SampleSource = *source
	cfg.IQSourceAddr = *iqAddr
	cfg.Device = *device
	cfg.DongleFreqHz = *freq
	cfg.Gain = *gain
	cfg.SampleRate = uint32(*sampleRate)
	cfg.AGC = *agc
	cfg.SamplesPerBit = *samplesPerBit
	cfg.MQTTBroker = *mqttBroker
	cfg.MQTTClientID = *mqttClientID
	if *mqttUsername != "" {
		cfg.MQTTUsername = *mqttUsername
	}
	if *mqttPassword != "" {
		cfg.MQTTPassword = *mqttPassword
	}
	cfg.BaseTopic = *baseTopic
	cfg.SweepInterval = *sweepInterval
	cfg.WatchdogPeriod = *watchdogPeriod

	return cfg, nil
}

// applyMQTTEnv overlays MQTT_HOST/MQTT_PORT/MQTT_USERNAME/MQTT_PASSWORD
// onto cfg when set and non-empty, exactly mirroring main.cpp's
// getenv-or-compiled-default precedence (env wins over the built-in
// default, flags win over env since they're applied after this call).
func applyMQTTEnv(cfg *Config) {
	if host := os.Getenv("MQTT_HOST"); host != "" {
		cfg.MQTTBroker = "tcp://" + host + mqttPortSuffix()
	}
	if user := os.Getenv("MQTT_USERNAME"); user != "" {
		cfg.MQTTUsername = user
	}
	if pass := os.Getenv("MQTT_PASSWORD"); pass != "" {
		cfg.MQTTPassword = pass
	}
}

// mqttPortSuffix reads MQTT_PORT and returns ":<port>", or "" if unset or
// unparseable, so applyMQTTEnv can compose a broker URL from host+port.
func mqttPortSuffix() string {
	portStr := os.Getenv("MQTT_PORT")
	if portStr == "" {
		return ""
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ""
	}
	return ":" + strconv.Itoa(port)
}
