package main

import (
	"context"
	"fmt"
	"time"

	"github.com/hjeldin/dive-computer-proto/internal/commands"
	"github.com/hjeldin/dive-computer-proto/internal/divecalc"
	"github.com/hjeldin/dive-computer-proto/internal/exchange"
	"github.com/hjeldin/dive-computer-proto/internal/observability"
	"github.com/hjeldin/dive-computer-proto/internal/sensor"
	"github.com/hjeldin/dive-computer-proto/internal/simulator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func runDemo(e env, args []string) error {
	var (
		mix     string
		metrics bool
	)
	flags := pflag.NewFlagSet("demo", pflag.ContinueOnError)
	flags.SetOutput(e.stderr)
	flags.StringVarP(&mix, "mix", "m", "EAN32", "gas mix breathed by the simulated diver")
	flags.BoolVar(&metrics, "metrics", false, "print frame metrics when done")
	if err := flags.Parse(args); err != nil {
		return err
	}
	gas, err := divecalc.ParseGas(mix)
	if err != nil {
		return err
	}

	observability.RegisterMetrics()
	sim := simulator.New(e.cfg.Device, gas)
	codec, err := exchange.NotificationCodec(e.cfg.NotificationCodec)
	if err != nil {
		return err
	}
	host, err := exchange.NewHost(e.cfg, exchange.WithHostName("divectl"), exchange.WithHostLogger(log.Logger))
	if err != nil {
		return err
	}
	dev := exchange.NewDevice(sim,
		exchange.WithDeviceName("sim"),
		exchange.WithDeviceLogger(log.Logger),
		exchange.WithNotificationCodec(codec),
	)

	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.ResponseTimeout)
	defer cancel()

	script := []commands.Command{
		commands.Identify{},
		commands.SetParameters{MaxDepth: 30, MaxTime: 45},
		commands.StartDive{},
		commands.ReadSensor{SensorID: simulator.SensorDepth, ReadingType: sensor.Depth},
		commands.ReadSensor{SensorID: simulator.SensorPressure, ReadingType: sensor.Pressure},
		commands.GetParameters{},
		commands.GetBatteryStatus{},
		commands.StartDive{},
		commands.EndDive{},
		commands.RunDiagnostic{},
	}
	for i, cmd := range script {
		if i == 3 {
			sim.Descend(1850, 4*time.Minute)
			sim.SetTemperature(196)
			if err := notify(e, host, dev, sim); err != nil {
				return err
			}
		}
		if err := roundTrip(ctx, e, host, dev, cmd); err != nil {
			return err
		}
	}

	// A frame damaged in transit still gets an answer under its sequence.
	out, err := host.Command(commands.GetBatteryStatus{})
	if err != nil {
		return err
	}
	damaged := append([]byte(nil), out.Frame...)
	damaged[len(damaged)-1] ^= 0x01
	fmt.Fprintf(e.stdout, "seq=%d %s (damaged) -> %d bytes\n", out.Sequence, out.Opcode, len(damaged))
	reply, serr := dev.Serve(ctx, damaged)
	if reply == nil {
		return serr
	}
	fmt.Fprintf(e.stdout, "  device rejected payload: %v\n", serr)
	if err := receive(e, host, reply); err != nil {
		return err
	}

	// The device never answers the next command; the host gives up on it.
	if _, err := host.Command(commands.CalibrateSensors{}); err != nil {
		return err
	}
	for _, p := range host.Expire(time.Now().Add(e.cfg.ResponseTimeout)) {
		fmt.Fprintf(e.stdout, "seq=%d %s expired\n", p.Sequence, p.Opcode)
	}

	if metrics {
		fmt.Fprintln(e.stdout)
		return observability.WriteSummary(e.stdout, prometheus.DefaultGatherer)
	}
	return nil
}

func roundTrip(ctx context.Context, e env, host *exchange.Host, dev *exchange.Device, cmd commands.Command) error {
	out, err := host.Command(cmd)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "seq=%d %s -> %d bytes\n", out.Sequence, out.Opcode, len(out.Frame))
	reply, err := dev.Serve(ctx, out.Frame)
	if err != nil {
		return err
	}
	return receive(e, host, reply)
}

func receive(e env, host *exchange.Host, frame []byte) error {
	in, err := host.Receive(frame)
	if err != nil {
		return err
	}
	resp := in.Response
	fmt.Fprintf(e.stdout, "  <- %s %s %T %+v rtt=%s\n", in.Header.Kind, resp.Status, resp.Payload, resp.Payload, in.RoundTrip)
	return nil
}

func notify(e env, host *exchange.Host, dev *exchange.Device, sim *simulator.Simulator) error {
	r, err := sim.Reading(sensor.Depth, uint64(dev.Uptime()/time.Millisecond))
	if err != nil {
		return err
	}
	frame, err := dev.Notify(r)
	if err != nil {
		return err
	}
	in, err := host.Receive(frame)
	if err != nil {
		return err
	}
	fmt.Fprintf(e.stdout, "notification sensor=%d %s=%d (%d bytes)\n", in.Reading.SensorID, in.Reading.Type, in.Reading.Value, len(frame))
	return nil
}
