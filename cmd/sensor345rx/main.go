// sensor345rx is a 345 MHz OOK/Manchester security-sensor receiver: it
// demodulates raw SDR samples, validates and classifies packets from
// door/window sensors, keypads, and key fobs, and republishes their
// state to MQTT.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gousb"

	"github.com/herlein/sensor345rx/pkg/config"
	"github.com/herlein/sensor345rx/pkg/devicestate"
	"github.com/herlein/sensor345rx/pkg/dongle"
	"github.com/herlein/sensor345rx/pkg/iqsource"
	"github.com/herlein/sensor345rx/pkg/publish"
	"github.com/herlein/sensor345rx/pkg/receiver"
	"github.com/herlein/sensor345rx/pkg/watchdog"
)

func main() {
	cfg, err := config.ParseFlags(os.Args[0], os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger := stdLogger{}

	mqttClient, err := publish.Connect(publish.Config{
		Broker:         cfg.MQTTBroker,
		ClientID:       cfg.MQTTClientID,
		Username:       cfg.MQTTUsername,
		Password:       cfg.MQTTPassword,
		WillTopic:      publish.WillTopicFor(cfg.BaseTopic),
		WillPayload:    publish.WillPayload,
		ConnectTimeout: 10 * time.Second,
	}, logger)
	if err != nil {
		return fmt.Errorf("mqtt connect failed: %w", err)
	}
	defer mqttClient.Disconnect(250)

	msgs := devicestate.Messages{
		BaseTopic:       cfg.BaseTopic,
		OpenSensorMsg:   cfg.OpenSensorMsg,
		ClosedSensorMsg: cfg.ClosedSensorMsg,
		TamperMsg:       cfg.TamperMsg,
		TamperOKMsg:     cfg.TamperOKMsg,
		LowBatMsg:       cfg.LowBatMsg,
		BatteryOKMsg:    cfg.BatteryOKMsg,
	}

	r := receiver.New(receiver.Config{
		SamplesPerBit:  cfg.SamplesPerBit,
		SweepInterval:  cfg.SweepInterval,
		WatchdogPeriod: cfg.WatchdogPeriod,
		Messages:       msgs,
		Sink:           mqttClient,
		TimerFactory:   watchdog.RealTimerFactory,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "shutting down...")
		cancel()
	}()

	// Run arms the watchdog and publishes the initial health-good state
	// itself (Receiver.Start), mirroring original_source's setRxGood(true)
	// call at startup; no separate startup timer is needed here.
	go r.Run(ctx)

	switch cfg.SampleSource {
	case "dongle":
		return runDongle(ctx, cfg, r)
	default:
		return runIQSource(ctx, cfg, r)
	}
}

func runIQSource(ctx context.Context, cfg config.Config, r *receiver.Receiver) error {
	src, err := iqsource.Open(iqsource.Config{
		ServerAddr: cfg.IQSourceAddr,
		CenterHz:   uint32(cfg.DongleFreqHz),
		SampleRate: cfg.SampleRate,
		AGC:        cfg.AGC,
	})
	if err != nil {
		return fmt.Errorf("failed to open rtl_tcp source: %w", err)
	}
	defer src.Close()

	return src.Stream(ctx, r.PushIQ)
}

func runDongle(ctx context.Context, cfg config.Config, r *receiver.Receiver) error {
	usbCtx := gousb.NewContext()
	defer usbCtx.Close()

	dev, err := dongle.OpenSelected(usbCtx, cfg.Device)
	if err != nil {
		return fmt.Errorf("failed to open dongle: %w", err)
	}
	defer dev.Close()

	reg, err := dongle.ReadAllRegisters(dev)
	if err != nil {
		return fmt.Errorf("failed to read dongle registers: %w", err)
	}
	const crystalMHz = 24.0 // CC1111's reference crystal frequency
	dongle.SetFrequency(reg, cfg.DongleFreqHz, crystalMHz)
	if err := dongle.WriteAllRegisters(dev, reg); err != nil {
		return fmt.Errorf("failed to tune dongle: %w", err)
	}

	sampleCh := make(chan []byte)
	errCh := dev.StreamSamples(ctx, sampleCh)

	for buf := range sampleCh {
		r.PushBinary(buf)
	}

	if err := <-errCh; err != nil {
		return fmt.Errorf("dongle stream failed: %w", err)
	}
	return nil
}

// stdLogger adapts publish.Logger onto plain stderr output, matching
// the teacher's loggerless fmt.Fprintf(os.Stderr, ...) convention.
type stdLogger struct{}

func (stdLogger) Printf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}
