package assessment

import (
	"time"
)

// Rating classifies the composite suitability of a site.
type Rating string

const (
	RatingPremiumSite Rating = "PREMIUM_SITE"
	RatingOptimal     Rating = "OPTIMAL"
	RatingViable      Rating = "VIABLE"
	RatingChallenging Rating = "CHALLENGING"
)

// Location is a WGS84 point in decimal degrees.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CompositeAssessment is the unified wind/solar/water verdict for a site.
// It is built fresh on every orchestrator call; the per-domain metrics may
// come from the coordinate cache.
type CompositeAssessment struct {
	Wind        WindMetrics  `json:"wind"`
	Solar       SolarMetrics `json:"solar"`
	Water       WaterMetrics `json:"water"`
	Suitability Suitability  `json:"suitability"`
	Location    Location     `json:"location"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Suitability carries the composite score and rule-based site insights.
type Suitability struct {
	OverallScore float64            `json:"overall_score"`
	Rating       Rating             `json:"rating"`
	Insights     []string           `json:"insights"`
	Components   map[string]float64 `json:"components"`
}

// SourceMetadata discloses which pipeline produced a metrics document.
type SourceMetadata struct {
	Source      string `json:"source"`
	Provider    string `json:"provider"`
	Methodology string `json:"methodology,omitempty"`
}

// --- Wind ---

// WindMetrics is the full wind resource assessment for a rounded location.
type WindMetrics struct {
	Score           float64         `json:"score"`
	Rating          string          `json:"rating"`
	Resource        WindResource    `json:"resource"`
	Profile         HeightProfile   `json:"profile"`
	CapacityFactors CapacityFactors `json:"capacity_factors"`
	Physics         WindPhysics     `json:"physics"`
	Terrain         WindTerrain     `json:"terrain"`
	Feasibility     WindFeasibility `json:"feasibility"`
	YieldEstimate   YieldEstimate   `json:"yield_est"`
	Insights        []string        `json:"insights"`
	Metadata        SourceMetadata  `json:"metadata"`
}

// WindResource holds the headline 100 m values and the power-density grade.
type WindResource struct {
	Grade             string  `json:"grade"`
	Label             string  `json:"label"`
	WindSpeed100      float64 `json:"ws_100"`
	PowerDensity100   float64 `json:"pd_100"`
	AirDensity100     float64 `json:"ad_100"`
	AirDensityLossPct float64 `json:"ad_loss_pct"`
}

// HeightProfile samples speed, power density and air density per hub height.
type HeightProfile struct {
	Heights      []int     `json:"heights"`
	Speeds       []float64 `json:"speeds"`
	Densities    []float64 `json:"densities"`
	AirDensities []float64 `json:"air_density"`
}

// CapacityFactors holds the three IEC-class capacity factors and the best fit.
type CapacityFactors struct {
	IEC1      float64 `json:"cf_iec1"`
	IEC2      float64 `json:"cf_iec2"`
	IEC3      float64 `json:"cf_iec3"`
	Best      float64 `json:"cf_best"`
	BestClass string  `json:"best_class"`
}

// WindPhysics carries the derived shear quantities.
type WindPhysics struct {
	ShearAlpha float64 `json:"shear_alpha"`
	ShearRatio float64 `json:"shear_ratio"`
	AirDensity float64 `json:"air_density"`
}

// WindTerrain is the ruggedness and relief around the point.
type WindTerrain struct {
	RIX        float64 `json:"rix"`
	ElevationM float64 `json:"elevation"`
	SlopeDeg   float64 `json:"slope"`
}

// WindFeasibility summarises constructability of the site.
type WindFeasibility struct {
	Status string `json:"status"`
}

// YieldEstimate is the indicative annual energy for a reference 2 MW turbine.
type YieldEstimate struct {
	AnnualKWh2MW float64 `json:"annual_kwh_2mw"`
	AnnualMWh2MW float64 `json:"annual_mwh_2mw"`
}

// --- Solar ---

// SolarMetrics is the full solar resource assessment for a rounded location.
type SolarMetrics struct {
	Score      float64         `json:"score"`
	Rating     string          `json:"rating"`
	Resource   SolarResource   `json:"resource"`
	Monthly    MonthlyProfile  `json:"monthly"`
	Terrain    SolarTerrain    `json:"terrain"`
	Atmosphere Atmosphere      `json:"atmospheric"`
	Validation SolarValidation `json:"validation"`
	Metadata   SourceMetadata  `json:"metadata"`
}

// SolarResource holds the irradiance and PV-yield climatology values.
type SolarResource struct {
	Grade           string  `json:"grade"`
	Label           string  `json:"label"`
	GHIDay          float64 `json:"ghi_kwh_m2_day"`
	GTIDay          float64 `json:"gti_kwh_m2_day"`
	DNIDay          float64 `json:"dni_kwh_m2_day"`
	GHIYear         float64 `json:"ghi_kwh_m2_year"`
	PVOutDay        float64 `json:"pvout_kwh_kwp_day"`
	PVOutYear       float64 `json:"pvout_kwh_kwp_year"`
	OptimalTiltDeg  float64 `json:"optimal_tilt"`
	AvgTempC        float64 `json:"avg_temp"`
	DiffuseFraction float64 `json:"dif_fraction"`
	TempDeratePct   float64 `json:"temp_derate_pct"`
}

// MonthlyProfile is the 12-month PVOUT profile plus seasonality summary.
type MonthlyProfile struct {
	Values     []float64 `json:"values"`
	BestMonth  string    `json:"best_month"`
	BestValue  float64   `json:"best_val"`
	WorstMonth string    `json:"worst_month"`
	WorstValue float64   `json:"worst_val"`
	Range      float64   `json:"range"`
	Stability  string    `json:"stability"`
}

// SolarTerrain is the relief sampled over a 5 km buffer.
type SolarTerrain struct {
	ElevationM float64 `json:"elevation_m"`
	SlopeDeg   float64 `json:"slope_deg"`
	AspectDeg  float64 `json:"aspect_deg"`
}

// Atmosphere carries aerosol and cloud climatology.
type Atmosphere struct {
	AOD            float64 `json:"aod"`
	AODLabel       string  `json:"aod_label"`
	Transmittance  float64 `json:"transmittance"`
	CloudPct       float64 `json:"cloud_pct"`
	ClearDaysPerYr int     `json:"clear_days_yr"`
	CloudLabel     string  `json:"cloud_label"`
}

// SolarValidation is the reanalysis cross-check against the atlas irradiance.
type SolarValidation struct {
	ReanalysisGHIDay float64 `json:"era5_ghi_day"`
	AtlasGHIDay      float64 `json:"gsa_ghi_day"`
	AgreementPct     float64 `json:"agreement_pct"`
	DiffPct          float64 `json:"era5_ghi_diff_pct"`
}

// --- Water ---

// WaterMetrics fuses the seven hydrology signals for a rounded location.
type WaterMetrics struct {
	Score              float64            `json:"composite_risk_score"`
	Rating             string             `json:"water_rating"`
	Precipitation      Precipitation      `json:"precipitation"`
	SurfaceWater       SurfaceWater       `json:"surface_water"`
	SoilMoisture       SoilMoisture       `json:"soil_moisture"`
	WaterBalance       WaterBalance       `json:"terraclimate"`
	Evapotranspiration Evapotranspiration `json:"modis_et"`
	Groundwater        Groundwater        `json:"groundwater_grace"`
	WaterIndex         WaterIndex         `json:"ndwi"`
	Metadata           SourceMetadata     `json:"metadata"`
}

// Precipitation is the multi-year daily climatology.
type Precipitation struct {
	DailyMM  float64 `json:"daily_mm"`
	AnnualMM float64 `json:"annual_mm"`
	Period   string  `json:"period"`
}

// SurfaceWater is the historical surface-water occurrence and flood signal.
type SurfaceWater struct {
	OccurrencePct     float64 `json:"occurrence_pct"`
	SeasonalityMonths float64 `json:"seasonality_months"`
	MaxExtentFraction float64 `json:"max_extent_fraction"`
	FloodRisk         string  `json:"flood_risk"`
}

// SoilMoisture holds the multi-layer soil water content (kg/m²).
type SoilMoisture struct {
	Layer0To10CM   float64 `json:"layer_0_10cm"`
	Layer10To40CM  float64 `json:"layer_10_40cm"`
	Layer40To100CM float64 `json:"layer_40_100cm"`
	RootZone       float64 `json:"root_zone"`
}

// WaterBalance is the drought index plus monthly deficit/runoff budget.
type WaterBalance struct {
	PDSI             float64 `json:"pdsi"`
	PDSILabel        string  `json:"pdsi_label"`
	DeficitMMMonth   float64 `json:"water_deficit_mm_month"`
	DeficitLabel     string  `json:"deficit_label"`
	ActualETMMMonth  float64 `json:"actual_et_mm_month"`
	ActualETAnnualMM float64 `json:"actual_et_annual_mm"`
	SoilMoistureMM   float64 `json:"soil_moisture_mm"`
	RunoffMMMonth    float64 `json:"runoff_mm_month"`
	RunoffAnnualMM   float64 `json:"runoff_annual_mm"`
}

// Evapotranspiration is the satellite ET product (8-day composite).
type Evapotranspiration struct {
	ETKgM2Per8Day float64 `json:"et_kg_m2_8day"`
	ETMonthlyEst  float64 `json:"et_monthly_est"`
	ETAnnualEstMM float64 `json:"et_annual_est_mm"`
}

// Groundwater is the regional terrestrial water-storage anomaly.
type Groundwater struct {
	LWEThicknessCM float64 `json:"lwe_thickness_cm"`
	UncertaintyCM  float64 `json:"uncertainty_cm"`
	StatusLabel    string  `json:"status_label"`
	Trend          string  `json:"trend"`
}

// WaterIndex is the optical water index from recent multispectral scenes.
type WaterIndex struct {
	NDWI       float64 `json:"ndwi_value"`
	Label      string  `json:"ndwi_label"`
	ScenesUsed int     `json:"scenes_used"`
	Period     string  `json:"period"`
}
