// Package canbus provides the one piece of bus-facing plumbing C3
// depends on beyond a raw byte buffer: a mutex-latched frame slot
// satisfying ports.CanReceiver, scoped to the single fixed-layout
// light-switch frame spec.md §6 defines (CRC@0, counter nibble@1,
// command@2, reserved@3). FLM has exactly one inbound frame, so this
// stays a fixed-offset filter rather than a general DBC-style loader.
package canbus

import (
	"github.com/flm/core/internal/config"
)

// IsLightSwitchFrame reports whether a raw CAN arbitration ID and DLC
// match the one frame C3 accepts. Anything else (other IDs sharing the
// bus, malformed lengths) is silently dropped at ingest, per §6.
func IsLightSwitchFrame(id uint32, dlc int) bool {
	return id == config.LightSwitchMsgID && dlc == config.LightSwitchDLC
}
