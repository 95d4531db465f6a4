package allocation

// #region market-summary
// MarketSummary is the per market-client roll-up.
type MarketSummary struct {
	Market      string
	LotsOK      int     // LOTES_OK: passing rows
	Allocatable float64 // KILOS_ASIGNABLE
}

// #endregion market-summary

// #region lot-summary
// LotSummary is the per-lot roll-up.
type LotSummary struct {
	Lot         string
	Quantity    float64 // KILOS: first-seen real quantity
	Markets     int     // MEJORES_MERCADOS: markets with positive allocation
	Allocatable float64 // TOTAL_ASIGNABLE
}

// #endregion lot-summary
