//go:build linux

package main

import (
	"context"
	"fmt"

	"github.com/flm/core/internal/diagnostics"
	"github.com/flm/core/internal/hw"
	"github.com/flm/core/internal/logging"
	"github.com/flm/core/internal/scheduler"
)

// Pin numbers and sysfs paths for the reference hardware layout. A
// real deployment would make these flags too; kept as constants here
// since this build targets one known board.
const (
	pinLowBeam  = 17
	pinHighBeam = 27

	ambientADCPath = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"
	currentADCPath = "/sys/bus/iio/devices/iio:device0/in_voltage1_raw"
)

func runHardware(ctx context.Context, iface, redisAddr string, redisDB int, log *logging.Logger) error {
	log = log.Component("main")
	redisSink := diagnostics.NewRedisSink(redisAddr, redisDB, log)
	defer redisSink.Close()
	if err := redisSink.Ping(); err != nil {
		log.Warn("redis unreachable at startup (%v); continuing, sink calls will log errors", err)
	}
	supervisor := diagnostics.NewSupervisor(redisSink)

	bus, err := hw.NewCanBus(ctx, iface, log)
	if err != nil {
		return fmt.Errorf("open can bus: %w", err)
	}
	defer bus.Close()
	go func() {
		if err := bus.Run(ctx); err != nil && err != context.Canceled {
			log.Error("can bus stopped: %v", err)
		}
	}()

	dio, err := hw.NewDio(pinLowBeam, pinHighBeam)
	if err != nil {
		return fmt.Errorf("open gpio: %w", err)
	}
	defer dio.Close()

	sch := scheduler.New(scheduler.Ports{
		CanReceiver:  bus.Latch(),
		Adc:          hw.NewAdc(ambientADCPath),
		Dio:          dio,
		CurrentSense: hw.NewCurrentSense(currentADCPath),
		Watchdog:     supervisor,
	}, scheduler.Sinks{
		Dem:  redisSink,
		WdgM: supervisor,
		BswM: redisSink,
	}, log)

	go func() {
		if err := supervisor.Run(ctx); err != nil && err != context.Canceled {
			log.Error("wdgm supervisor stopped: %v", err)
		}
	}()

	log.Info("flmcore starting on %s", iface)
	return sch.Run(ctx)
}
