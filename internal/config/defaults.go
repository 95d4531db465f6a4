package config

import "github.com/spf13/viper"

// DefaultSpecies is the built-in species catalogue.
var DefaultSpecies = []Species{
	{Name: "Ciruela Negra", Lots: "Data/Lotes_CiruelaNeg.csv", Tolerances: "Data/Tolerancia_CiruelaNeg.csv"},
	{Name: "Ciruela Candy", Lots: "Data/Lotes_CiruelarCan.csv", Tolerances: "Data/Tolerancia_CiruelaCan.csv"},
	{Name: "Ciruela Roja", Lots: "Data/Lotes_CiruelarRoj.csv", Tolerances: "Data/Tolerancia_CiruelaRoj.csv"},
	{Name: "Durazno Amarillo", Lots: "Data/Lotes_DuraznoAm.csv", Tolerances: "Data/Tolerancia_DuraznoAm.csv"},
	{Name: "Durazno Blanco", Lots: "Data/Lotes_DuraznoBl.csv", Tolerances: "Data/Tolerancia_DuraznoBl.csv"},
	{Name: "Nectarin Amarillo", Lots: "Data/Lotes_NectarinAm.csv", Tolerances: "Data/Tolerancia_NectarinAm.csv"},
	{Name: "Nectarin Blanco", Lots: "Data/Lotes_NectarinBl.csv", Tolerances: "Data/Tolerancia_NectarinBl.csv"},
}

// SetDefaults registers default values for every option.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.base_dir", ".")
	v.SetDefault("data.decrements", "Disminucion.csv")
	v.SetDefault("data.crossref", "Cruce de Variables.csv")

	species := make([]map[string]any, len(DefaultSpecies))
	for i, s := range DefaultSpecies {
		species[i] = map[string]any{"name": s.Name, "lots": s.Lots, "tolerances": s.Tolerances}
	}
	v.SetDefault("data.species", species)

	v.SetDefault("clusters.k", 5)
	v.SetDefault("clusters.qmin", []float64{0.90, 0.70, 0.50, 0.30, 0.10})
	v.SetDefault("clusters.qmax", []float64{0.10, 0.30, 0.50, 0.70, 0.90})

	v.SetDefault("engine.workers", 4)

	v.SetDefault("store.path", "lotalloc.db")

	v.SetDefault("server.address", "127.0.0.1:7461")

	v.SetDefault("log.json", false)
	v.SetDefault("log.verbosity", 0)
}
