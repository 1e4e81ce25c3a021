package assessment

import (
	"github.com/renewintel/site-assessment/internal/common"
)

func round(v float64, places int) float64 {
	return common.Round(v, places)
}

// norm linearly maps v from [lo, hi] into [0, 100], clamped at the bounds.
func norm(v, lo, hi float64) float64 {
	if hi == lo {
		return 0
	}
	return common.Clamp((v-lo)/(hi-lo)*100, 0, 100)
}

// --- Composite ---

// compositeScore combines the three domain scores with the documented
// 0.35 solar / 0.35 wind / 0.30 water weighting.
func compositeScore(solar, wind, water float64) float64 {
	return common.Round(solar*0.35+wind*0.35+water*0.30, 1)
}

// compositeRating maps the overall score to the site rating.
func compositeRating(score float64) Rating {
	switch {
	case score >= 75:
		return RatingPremiumSite
	case score >= 60:
		return RatingOptimal
	case score >= 45:
		return RatingViable
	default:
		return RatingChallenging
	}
}

// --- Wind ---

// windGrade bands the 100 m power density (W/m²) into resource grades.
func windGrade(powerDensity float64) (grade, label string) {
	switch {
	case powerDensity >= 600:
		return "A+", "World-class resource"
	case powerDensity >= 400:
		return "A", "Outstanding potential"
	case powerDensity >= 300:
		return "B", "Commercial viability"
	case powerDensity >= 200:
		return "C", "Moderate resource"
	case powerDensity >= 100:
		return "D", "Marginal suitability"
	default:
		return "F", "Unsuitable"
	}
}

func windRating(score float64) string {
	switch {
	case score >= 75:
		return "EXCELLENT"
	case score >= 55:
		return "GOOD"
	case score >= 35:
		return "MODERATE"
	case score >= 15:
		return "POOR"
	default:
		return "VERY POOR"
	}
}

// windScore weighs power density, wind speed, best capacity factor and
// terrain ruggedness into a 0-100 resource score.
func windScore(pd100, rix, ws100, cfBest float64) float64 {
	pdS := norm(pd100, 0, 600)
	wsS := norm(ws100, 3.5, 12.0)
	cfS := norm(cfBest, 0, 0.5)
	rixS := norm(0.5-common.Clamp(rix, 0, 0.5), 0, 0.5)
	return common.Round(pdS*0.40+wsS*0.30+cfS*0.20+rixS*0.10, 1)
}

// --- Solar ---

// solarGrade bands annual GHI (kWh/m²/year) into resource grades.
func solarGrade(ghiYear float64) (grade, label string) {
	switch {
	case ghiYear >= 2000:
		return "A+", "World-class irradiance"
	case ghiYear >= 1800:
		return "A", "Excellent solar resource"
	case ghiYear >= 1600:
		return "B", "Good commercial viability"
	case ghiYear >= 1400:
		return "C", "Moderate resource"
	default:
		return "D", "Marginal resource"
	}
}

func solarRating(score float64) string {
	switch {
	case score >= 85:
		return "WORLD-CLASS"
	case score >= 70:
		return "EXCELLENT"
	case score >= 55:
		return "GOOD"
	case score >= 40:
		return "MODERATE"
	case score >= 25:
		return "POOR"
	default:
		return "VERY POOR"
	}
}

// solarScore weighs daily GHI, PV yield, sky clarity, aerosol load and
// terrain slope into a 0-100 resource score.
func solarScore(ghiDay, pvoutDay, cloudPct, aod, slopeDeg float64) float64 {
	sGHI := norm(ghiDay, 3.0, 7.0) * 0.30
	sPV := norm(pvoutDay, 2.5, 5.5) * 0.30
	sCloud := norm(100-cloudPct, 30, 100) * 0.20
	sAOD := norm(0.8-aod, 0, 0.8) * 0.10
	sSlope := norm(30-slopeDeg, 0, 30) * 0.10
	return common.Round(sGHI+sPV+sCloud+sAOD+sSlope, 1)
}

func aodLabel(v float64) string {
	switch {
	case v < 0.1:
		return "Very Clean Air"
	case v < 0.2:
		return "Clean — Minor Haze"
	case v < 0.4:
		return "Moderate Aerosol/Haze"
	case v < 0.6:
		return "High — Dust/Pollution"
	default:
		return "Severe Pollution"
	}
}

func cloudLabel(pct float64) string {
	switch {
	case pct < 20:
		return "Very Clear Skies"
	case pct < 35:
		return "Mostly Clear"
	case pct < 50:
		return "Partly Cloudy"
	case pct < 65:
		return "Mostly Cloudy"
	default:
		return "Frequently Overcast"
	}
}

// seasonalLabel classifies the spread between best and worst PVOUT months.
func seasonalLabel(monthlyRange float64) string {
	switch {
	case monthlyRange < 0.5:
		return "Very Stable"
	case monthlyRange < 1.0:
		return "Stable — Minor seasonal variation"
	case monthlyRange < 2.0:
		return "Moderate — Monsoon impact"
	case monthlyRange < 3.0:
		return "High — Strong monsoon dip"
	default:
		return "Extreme seasonality"
	}
}

// --- Water ---

// waterScore is the 5-factor hydrology composite: precipitation, groundwater
// anomaly, water deficit, topsoil moisture and surface-water occurrence.
func waterScore(precipDaily, lweAnomaly, deficit, soilTop, occurrence float64) float64 {
	sPrecip := norm(precipDaily, 0.5, 5.0) * 0.25
	sGW := norm(lweAnomaly, -25, 10) * 0.25
	sDeficit := norm(200-common.Clamp(deficit, 0, 200), 0, 180) * 0.20
	sSoil := norm(soilTop, 10, 250) * 0.15
	sSW := norm(occurrence, 0, 40) * 0.15
	return common.Round(sPrecip+sGW+sDeficit+sSoil+sSW, 1)
}

func waterRating(score float64) string {
	switch {
	case score >= 75:
		return "ABUNDANT"
	case score >= 60:
		return "GOOD"
	case score >= 45:
		return "MODERATE"
	case score >= 30:
		return "SCARCE"
	default:
		return "CRITICAL"
	}
}

// groundwaterLabel classifies the storage anomaly (cm liquid water equivalent).
func groundwaterLabel(lwe float64) string {
	switch {
	case lwe > 10:
		return "Strong Surplus — Gaining"
	case lwe > 2:
		return "Moderate Surplus"
	case lwe > -2:
		return "Near Baseline — Stable"
	case lwe > -10:
		return "Mild Depletion"
	case lwe > -25:
		return "Significant Depletion"
	case lwe > -50:
		return "Severe Depletion"
	default:
		return "Critical Depletion"
	}
}

// floodLabel classifies the historical maximum surface-water extent fraction.
func floodLabel(maxExtent float64) string {
	switch {
	case maxExtent < 0.01:
		return "No Flood Risk"
	case maxExtent < 0.05:
		return "Very Low Flood Risk"
	case maxExtent < 0.15:
		return "Low-Moderate Flood Risk"
	default:
		return "Flood-Prone Zone"
	}
}

// droughtLabel classifies the Palmer drought severity index.
func droughtLabel(pdsi float64) string {
	switch {
	case pdsi >= 2.0:
		return "Moderately to Extremely Wet"
	case pdsi >= -0.5:
		return "Near Normal"
	case pdsi >= -2.0:
		return "Mild Drought"
	case pdsi >= -3.0:
		return "Moderate Drought"
	case pdsi >= -4.0:
		return "Severe Drought"
	default:
		return "Extreme Drought"
	}
}

// deficitLabel classifies the monthly climatic water deficit (mm).
func deficitLabel(deficit float64) string {
	switch {
	case deficit <= 10:
		return "Negligible Stress"
	case deficit <= 50:
		return "Low Stress"
	case deficit <= 100:
		return "Moderate Stress"
	case deficit <= 200:
		return "High Stress"
	default:
		return "Severe Water Stress"
	}
}

// ndwiLabel classifies the optical water index.
func ndwiLabel(ndwi float64) string {
	switch {
	case ndwi > 0.3:
		return "Water Body / High Moisture"
	case ndwi > 0.0:
		return "Moist Soil / Vegetation"
	case ndwi > -0.2:
		return "Dry Vegetation / Moderate Stress"
	default:
		return "Very Dry / Barren Surface"
	}
}
