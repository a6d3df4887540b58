package state

var (
	globalKey = []byte("engine/global")
)

const (
	userKeyFormat          = "engine/user/%s"
	bankKeyFormat          = "engine/bank/%s"
	seriesDaysKeyFormat    = "engine/series/%s/days"
	seriesValueKeyFormat   = "engine/series/%s/%020d"
	emissionDayKeyFormat   = "engine/emission/%020d"
	participationKeyFormat = "engine/event/%s/%s"
	seatKeyFormat          = "engine/seat/%05d"
	bindingKeyFormat       = "engine/binding/%020d"
	holdingsKeyFormat      = "engine/holdings/%s"
)

// Series names used with the power ledger. User series are derived from the
// principal's hex form.
const (
	GlobalPowerSeries     = "global"
	userSeriesFormat      = "user/%s"
)
