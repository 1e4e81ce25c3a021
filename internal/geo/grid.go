package geo

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

const earthRadiusKM = 6371.0

// Asset is one known grid interconnection point (substation or HV line tap).
type Asset struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	VoltageKV  float64 `json:"voltage_kv"`
	CapacityMW float64 `json:"capacity_mw"`
}

// GridIndex answers nearest-asset queries over a static asset list.
type GridIndex struct {
	assets []Asset
}

// LoadGridIndex reads the asset list from a JSON file. A missing path yields
// an empty index rather than an error, since grid data is optional context.
func LoadGridIndex(path string) (*GridIndex, error) {
	if path == "" {
		return &GridIndex{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GridIndex{}, nil
		}
		return nil, fmt.Errorf("reading grid assets: %w", err)
	}
	var assets []Asset
	if err := json.Unmarshal(data, &assets); err != nil {
		return nil, fmt.Errorf("parsing grid assets: %w", err)
	}
	return &GridIndex{assets: assets}, nil
}

// Nearest returns the closest asset to the point and its great-circle
// distance in kilometers. ok is false when the index is empty.
func (g *GridIndex) Nearest(lat, lon float64) (name string, distanceKM float64, ok bool) {
	best := -1
	bestKM := math.MaxFloat64
	for i, a := range g.assets {
		if d := haversineKM(lat, lon, a.Lat, a.Lon); d < bestKM {
			best, bestKM = i, d
		}
	}
	if best < 0 {
		return "", 0, false
	}
	return g.assets[best].Name, bestKM, true
}

func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := rad(lat2 - lat1)
	dLon := rad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(lat1))*math.Cos(rad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Sqrt(a))
}
