package logging

// Standard field names for structured log entries.
const (
	FieldRunID       = "run_id"
	FieldSpecies     = "species"
	FieldProductLine = "product_line"
	FieldRows        = "rows"
	FieldLots        = "lots"
	FieldTolerances  = "tolerances"
	FieldMarkets     = "markets"
	FieldClusters    = "clusters"
	FieldVariables   = "variables"
	FieldWorkers     = "workers"
	FieldPath        = "path"
	FieldAddress     = "address"
	FieldMethod      = "method"
	FieldDurationMS  = "duration_ms"
	FieldError       = "error"
)
