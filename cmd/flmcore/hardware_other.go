//go:build !linux

package main

import (
	"context"
	"fmt"

	"github.com/flm/core/internal/logging"
)

func runHardware(ctx context.Context, iface, redisAddr string, redisDB int, log *logging.Logger) error {
	return fmt.Errorf("real hardware mode requires linux (socketcan/gpiocdev); use -mission on this platform")
}
