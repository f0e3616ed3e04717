package models

// DashboardReport is the composed agricultural decision-support summary for
// one region and window. Built once per request, immutable, returned to the
// transport layer as-is.
type DashboardReport struct {
	AreaHectares  float64           `json:"area_hectares"`
	Productivity  ProductivityIndex `json:"productivity_index"`
	WeatherRisk   WeatherRisk       `json:"weather_risk"`
	PestRisk      PestRisk          `json:"pest_risk"`
	SoilHealth    SoilHealth        `json:"soil_health"`
	Financial     FinancialOutlook  `json:"financial"`
	Irrigation    IrrigationPlan    `json:"irrigation"`
	Fertilization FertilizationPlan `json:"fertilization"`
	CropType      string            `json:"crop_type"`
}

// RiskLevel grades a risk sub-score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
)

// ProductivityIndex maps mean NDVI over the window to an expected yield.
type ProductivityIndex struct {
	MeanNDVI         float64 `json:"mean_ndvi"`
	HealthStatus     string  `json:"health_status"` // excellent | good | moderate | poor
	ExpectedYieldTHa float64 `json:"expected_yield_tons_ha"`
	YieldFactor      float64 `json:"yield_factor"`
}

// WeatherRisk summarizes temperature and rainfall exposure over the window.
type WeatherRisk struct {
	AvgTemperatureC float64   `json:"avg_temperature_c"`
	MaxTemperatureC float64   `json:"max_temperature_c"`
	TotalRainfallMM float64   `json:"total_rainfall_mm"`
	TemperatureRisk RiskLevel `json:"temperature_risk"`
	RainfallRisk    RiskLevel `json:"rainfall_risk"`
	OverallRisk     RiskLevel `json:"overall_risk"` // high | moderate; never low
}

// PestRisk estimates pest pressure from the thermal regime.
type PestRisk struct {
	RiskScore       float64   `json:"risk_score"`
	RiskLevel       RiskLevel `json:"risk_level"`
	AvgTemperatureC float64   `json:"avg_temperature_c"`
	Recommendation  string    `json:"recommendation"`
}

// SoilHealth holds moisture and nutrient proxies from a fixed trailing
// 60-day optical window.
type SoilHealth struct {
	MoistureIndex  float64 `json:"moisture_index"`
	HealthStatus   string  `json:"health_status"`   // good | moderate | poor
	NitrogenStatus string  `json:"nitrogen_status"` // adequate | low | deficient
	OrganicMatter  string  `json:"organic_matter"`  // always "moderate"; no data source
}

// FinancialOutlook projects revenue against input costs.
type FinancialOutlook struct {
	ExpectedYieldTotalTons float64 `json:"expected_yield_total_tons"`
	ExpectedRevenueUSD     float64 `json:"expected_revenue_usd"`
	TotalInputCostsUSD     float64 `json:"total_input_costs_usd"`
	NetProfitUSD           float64 `json:"net_profit_usd"`
	ROIPercent             float64 `json:"roi_percent"`
	PricePerTonUSD         float64 `json:"price_per_ton_usd"`
}

// IrrigationPlan is derived from cumulative rainfall.
type IrrigationPlan struct {
	Urgency              RiskLevel `json:"urgency"`
	RecommendedFrequency string    `json:"recommended_frequency"`
	AmountPerSessionMM   float64   `json:"amount_per_session_mm"`
	NextIrrigation       string    `json:"next_irrigation"`
}

// FertilizationPlan is derived from nitrogen status and NDVI.
type FertilizationPlan struct {
	NitrogenKgHa      float64   `json:"nitrogen_kg_ha"`
	PhosphorusKgHa    float64   `json:"phosphorus_kg_ha"`
	PotassiumKgHa     float64   `json:"potassium_kg_ha"`
	Priority          RiskLevel `json:"priority"`
	ApplicationMethod string    `json:"application_method"`
	Timing            string    `json:"timing"`
}
