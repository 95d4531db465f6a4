package cluster

// #region market
// Market is a market-client with its aggregated allocatable quantity.
type Market struct {
	Name        string
	Allocatable float64
}

// #endregion market

// #region assignment
// Assignment places a market in a tier. Cluster 1 holds the least
// allocatable markets.
type Assignment struct {
	Market      string
	Allocatable float64
	Rank        int // RANK_EXIGENCIA: 1-based position by ascending quantity
	Cluster     int
}

// #endregion assignment

// #region summary
// Summary describes one cluster.
type Summary struct {
	Cluster int
	Markets int     // CLIENTES
	Total   float64 // KG_TOTAL
	Median  float64 // KG_MEDIANA
	Mean    float64 // KG_PROMEDIO
}

// #endregion summary
