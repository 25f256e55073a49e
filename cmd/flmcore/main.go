// Command flmcore runs the front-light-management core against either
// a real SocketCAN/GPIO environment or a JSON simulation scenario.
// Flag-based startup options, a file logger, signal.NotifyContext for
// graceful shutdown, nonzero exit on init failure.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/flm/core/internal/logging"
	"github.com/flm/core/internal/sim"
)

func main() {
	iface, mission, logLevel, logFile, redisAddr, redisDB := parseFlags()

	log, err := newLogger(logFile, logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR: cannot open log file:", err)
		os.Exit(1)
	}
	defer log.Close()

	if mission != "" {
		if err := runMission(mission, log); err != nil {
			log.Critical("mission run failed: %v", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := runHardware(ctx, iface, redisAddr, redisDB, log); err != nil && err != context.Canceled {
		log.Critical("run failed: %v", err)
		os.Exit(1)
	}
}

func runMission(missionPath string, log *logging.Logger) error {
	scen, err := sim.LoadScenario(missionPath)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	log.Info("running mission %q (%s)", scen.Meta.Name, scen.Meta.Description)

	runner := sim.NewRunner(&scen, log)
	sch := runner.RunToCompletion()

	log.Info("mission complete: tick=%dms state=%v command=%v global=%v",
		sch.TickMS(), sch.DecisionState(), sch.Command(), sch.SafetyStatus().Global)
	return nil
}

func newLogger(path, level string) (*logging.Logger, error) {
	lvl := logging.ParseLevel(level)
	if path == "" {
		return logging.New(lvl), nil
	}
	return logging.NewFile(path, lvl, true)
}
