package humidity

// demoMunicipalities are three well-known capitals used when the collection
// pipeline fails entirely, so the dashboard always has schema-valid data.
var demoMunicipalities = []Municipality{
	{Code: "5300108", Name: "Brasília", UF: "DF", Lat: -15.78, Lon: -47.93},
	{Code: "3550308", Name: "São Paulo", UF: "SP", Lat: -23.55, Lon: -46.63},
	{Code: "3304557", Name: "Rio de Janeiro", UF: "RJ", Lat: -22.90, Lon: -43.17},
}

// demoValues cycles through one value per severity band so every legend color
// shows up somewhere in the fallback view.
var demoValues = []float64{55, 35, 18, 62, 28}

// DemoSamples fabricates a small schema-valid table spanning the given target
// dates. RHmax is left absent, matching real collection output.
func DemoSamples(dates []string) []Sample {
	samples := make([]Sample, 0, len(demoMunicipalities)*len(dates))
	for _, m := range demoMunicipalities {
		for i, d := range dates {
			samples = append(samples, Sample{
				Code:  m.Code,
				Name:  m.Name,
				UF:    m.UF,
				Lat:   m.Lat,
				Lon:   m.Lon,
				Date:  d,
				RHmin: Float(demoValues[i%len(demoValues)]),
			})
		}
	}
	return samples
}
