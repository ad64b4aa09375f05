package diag

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.English)

// Occupancy is a snapshot of frame-pool and swap-device usage, the
// input to Report.
type Occupancy struct {
	FramesUsed, FramesTotal int
	SwapUsed, SwapTotal     int
	IOWaitNanos             int64
}

// Report renders o as a human-readable occupancy summary with
// locale-aware thousands grouping, the role stat/stats played for
// biscuit's kernel-wide counters.
func Report(o Occupancy) string {
	return printer.Sprintf(
		"frames: %v/%v   swap: %v/%v   faults: %v   evictions: %v   swap-in: %v   swap-out: %v   stack-growth: %v   swap io-wait: %vns",
		number.Decimal(o.FramesUsed), number.Decimal(o.FramesTotal),
		number.Decimal(o.SwapUsed), number.Decimal(o.SwapTotal),
		number.Decimal(Counters.Faults.Get()), number.Decimal(Counters.Evictions.Get()),
		number.Decimal(Counters.SwapIns.Get()), number.Decimal(Counters.SwapOuts.Get()),
		number.Decimal(Counters.StackGrowth.Get()),
		number.Decimal(o.IOWaitNanos),
	)
}
