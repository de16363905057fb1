package types

import "sort"

// Pollutant describes one forecast table and how its rows are shaped.
// PerStation tables hold raw per-station vectors; the rest hold
// min/max/avg vectors already reduced across the network.
type Pollutant struct {
	Key        string
	Name       string
	Table      string
	Units      string
	PerStation bool
}

var pollutants = map[string]Pollutant{
	"o3":   {Key: "o3", Name: "O₃ (Ozono)", Table: "forecast_otres", Units: "ppb", PerStation: true},
	"pm25": {Key: "pm25", Name: "PM2.5", Table: "forecast_pmdoscinco", Units: "µg/m³"},
	"pm10": {Key: "pm10", Name: "PM10", Table: "forecast_pmdiez", Units: "µg/m³"},
	"pmco": {Key: "pmco", Name: "PMco", Table: "forecast_pmco", Units: "µg/m³"},
	"no2":  {Key: "no2", Name: "NO₂", Table: "forecast_nodos", Units: "ppb"},
	"no":   {Key: "no", Name: "NO", Table: "forecast_no", Units: "ppb"},
	"nox":  {Key: "nox", Name: "NOx", Table: "forecast_nox", Units: "ppb"},
	"co":   {Key: "co", Name: "CO", Table: "forecast_co", Units: "ppm"},
	"so2":  {Key: "so2", Name: "SO₂", Table: "forecast_sodos", Units: "ppb"},
}

// PollutantByKey resolves a pollutant key (case handled by the caller).
func PollutantByKey(key string) (Pollutant, bool) {
	p, ok := pollutants[key]
	return p, ok
}

// PollutantKeys returns the recognized keys in stable order.
func PollutantKeys() []string {
	keys := make([]string, 0, len(pollutants))
	for k := range pollutants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ModelVariant discriminates which model produced a row. The forecast
// type id is threaded explicitly through every query rather than held in
// process-wide state, so concurrent requests can target different
// variants.
type ModelVariant struct {
	Key            string
	ForecastTypeID int
}

// DefaultVariantKey is the production machine-learning run.
const DefaultVariantKey = "ai_vi_transformer01"

var variants = map[string]ModelVariant{
	"ai_vi_transformer01": {Key: "ai_vi_transformer01", ForecastTypeID: 7},
	"statistical_legacy":  {Key: "statistical_legacy", ForecastTypeID: 6},
}

// VariantByKey resolves a model-variant key.
func VariantByKey(key string) (ModelVariant, bool) {
	v, ok := variants[key]
	return v, ok
}
