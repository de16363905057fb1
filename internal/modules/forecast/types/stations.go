package types

import "sort"

// Station is one monitoring station of the CDMX network.
type Station struct {
	ID   string  `json:"id_est"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// stationCatalog holds the known network. City-wide queries use an
// explicit aggregate flag, never a sentinel station id.
var stationCatalog = map[string]Station{
	"AJM": {ID: "AJM", Name: "AJM - Ajusco Medio", Lat: 19.154621, Lon: -99.21286},
	"AJU": {ID: "AJU", Name: "AJU - Ajusco", Lat: 19.103353, Lon: -99.162551},
	"ATI": {ID: "ATI", Name: "ATI - Atizapán", Lat: 19.580448, Lon: -99.254532},
	"BJU": {ID: "BJU", Name: "BJU - Benito Juárez", Lat: 19.372885, Lon: -99.159041},
	"CAM": {ID: "CAM", Name: "CAM - Camarones", Lat: 19.471715, Lon: -99.165214},
	"CCA": {ID: "CCA", Name: "CCA - Centro de Ciencias de la Atmósfera", Lat: 19.326125, Lon: -99.176901},
	"CHO": {ID: "CHO", Name: "CHO - Chalco", Lat: 19.26506, Lon: -98.895455},
	"CUA": {ID: "CUA", Name: "CUA - Cuajimalpa", Lat: 19.364623, Lon: -99.29141},
	"CUT": {ID: "CUT", Name: "CUT - Cuautitlán", Lat: 19.695024, Lon: -99.1772},
	"DIC": {ID: "DIC", Name: "DIC - Desierto de los Leones", Lat: 19.302167, Lon: -99.313833},
	"EAJ": {ID: "EAJ", Name: "EAJ - Ecoguardas Ajusco", Lat: 19.130264, Lon: -99.155845},
	"FAC": {ID: "FAC", Name: "FAC - FES Acatlán", Lat: 19.482247, Lon: -99.244039},
	"HAN": {ID: "HAN", Name: "HAN - Hangares", Lat: 19.424513, Lon: -99.072269},
	"INN": {ID: "INN", Name: "INN - Investigaciones Nucleares", Lat: 19.297381, Lon: -99.342414},
	"IZT": {ID: "IZT", Name: "IZT - Iztacalco", Lat: 19.384097, Lon: -99.11261},
	"LAG": {ID: "LAG", Name: "LAG - Laguna", Lat: 19.424513, Lon: -99.072269},
	"LLA": {ID: "LLA", Name: "LLA - Los Laureles", Lat: 19.609717, Lon: -98.963008},
	"LPR": {ID: "LPR", Name: "LPR - La Presa", Lat: 19.135, Lon: -99.074},
	"MER": {ID: "MER", Name: "MER - Merced", Lat: 19.42461, Lon: -99.119594},
	"MGH": {ID: "MGH", Name: "MGH - Miguel Hidalgo", Lat: 19.400255, Lon: -99.202777},
	"MON": {ID: "MON", Name: "MON - Montecillo", Lat: 19.461914, Lon: -98.903739},
	"NEZ": {ID: "NEZ", Name: "NEZ - Nezahualcóyotl", Lat: 19.400969, Lon: -99.026988},
	"PED": {ID: "PED", Name: "PED - Pedregal", Lat: 19.325, Lon: -99.204},
	"SAG": {ID: "SAG", Name: "SAG - San Agustín", Lat: 19.529528, Lon: -99.030583},
	"SFE": {ID: "SFE", Name: "SFE - Santa Fe", Lat: 19.357989, Lon: -99.267089},
	"SHA": {ID: "SHA", Name: "SHA - Sahagún", Lat: 19.626814, Lon: -98.982119},
	"SJA": {ID: "SJA", Name: "SJA - San Juan Aragón", Lat: 19.459136, Lon: -99.096306},
	"TAH": {ID: "TAH", Name: "TAH - Tláhuac", Lat: 19.246919, Lon: -99.01235},
	"TLA": {ID: "TLA", Name: "TLA - Tlalnepantla", Lat: 19.529528, Lon: -99.030583},
	"UIZ": {ID: "UIZ", Name: "UIZ - UAM Iztapalapa", Lat: 19.360556, Lon: -99.073889},
}

// StationByID resolves a station code.
func StationByID(id string) (Station, bool) {
	s, ok := stationCatalog[id]
	return s, ok
}

// AllStations returns the catalog ordered by station id.
func AllStations() []Station {
	out := make([]Station, 0, len(stationCatalog))
	for _, s := range stationCatalog {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
