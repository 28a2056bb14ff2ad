package cli

import (
	"github.com/spf13/pflag"

	"github.com/warp/allocation-engine/factory"
	"github.com/warp/allocation-engine/reports"
)

// rangeFlags is the optional --from/--to pair shared by the report commands.
type rangeFlags struct {
	from string
	to   string
}

func (r *rangeFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&r.from, "from", "", "First day of the window (YYYY-MM-DD)")
	fs.StringVar(&r.to, "to", "", "Last day of the window (YYYY-MM-DD)")
}

func (r *rangeFlags) dateRange() (reports.DateRange, error) {
	return factory.ParseDateRange(r.from, r.to)
}
