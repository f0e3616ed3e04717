// Package agro derives the decision-support report from raster statistics.
// The sub-calculations here are interpretable heuristics over spatial
// statistics, not calibrated scientific models.
package agro

import (
	"math"

	"terralens/catalog"
	"terralens/models"
)

// round keeps the wire values tidy at a fixed number of decimals.
func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// yieldFactor is the NDVI-to-yield step function. Monotonic non-decreasing;
// optimal NDVI sits in the 0.6-0.8 range.
func yieldFactor(ndvi float64) float64 {
	switch {
	case ndvi < 0.3:
		return 0.3
	case ndvi < 0.5:
		return 0.6
	case ndvi < 0.7:
		return 0.85
	default:
		return 1.0
	}
}

func healthStatus(ndvi float64) string {
	switch {
	case ndvi > 0.7:
		return "excellent"
	case ndvi > 0.5:
		return "good"
	case ndvi > 0.3:
		return "moderate"
	default:
		return "poor"
	}
}

func productivityFrom(ndvi float64, crop catalog.CropProfile) models.ProductivityIndex {
	factor := yieldFactor(ndvi)
	return models.ProductivityIndex{
		MeanNDVI:         round(ndvi, 3),
		HealthStatus:     healthStatus(ndvi),
		ExpectedYieldTHa: round(crop.BaseYieldTHa*factor, 2),
		YieldFactor:      round(factor, 2),
	}
}

// weatherRiskFrom scores temperature and rainfall exposure. The overall
// grade is "high" when either sub-risk is high, otherwise "moderate".
func weatherRiskFrom(avgTemp, maxTemp, totalRain float64) models.WeatherRisk {
	tempRisk := models.RiskLow
	if maxTemp > 35 || avgTemp < 10 {
		tempRisk = models.RiskHigh
	}
	rainRisk := models.RiskLow
	if totalRain < 50 || totalRain > 500 {
		rainRisk = models.RiskHigh
	}
	overall := models.RiskModerate
	if tempRisk == models.RiskHigh || rainRisk == models.RiskHigh {
		overall = models.RiskHigh
	}
	return models.WeatherRisk{
		AvgTemperatureC: round(avgTemp, 1),
		MaxTemperatureC: round(maxTemp, 1),
		TotalRainfallMM: round(totalRain, 1),
		TemperatureRisk: tempRisk,
		RainfallRisk:    rainRisk,
		OverallRisk:     overall,
	}
}

// pestRiskFrom grades pest pressure from mean temperature; 20-30 C is the
// optimum for most field pests.
func pestRiskFrom(temp float64) models.PestRisk {
	var score float64
	var level models.RiskLevel
	switch {
	case temp >= 20 && temp <= 30:
		score, level = 0.7, models.RiskHigh
	case temp >= 15 && temp <= 35:
		score, level = 0.4, models.RiskModerate
	default:
		score, level = 0.2, models.RiskLow
	}
	return models.PestRisk{
		RiskScore:       round(score, 2),
		RiskLevel:       level,
		AvgTemperatureC: round(temp, 1),
		Recommendation:  pestRecommendation(level),
	}
}

func pestRecommendation(level models.RiskLevel) string {
	switch level {
	case models.RiskHigh:
		return "Implement immediate monitoring and consider preventive treatment"
	case models.RiskModerate:
		return "Regular monitoring recommended"
	default:
		return "Continue routine observation"
	}
}

// soilHealthFrom grades the NDMI moisture proxy. Organic matter has no data
// source and is always reported as moderate.
func soilHealthFrom(moisture float64) models.SoilHealth {
	var health, nitrogen string
	switch {
	case moisture > 0.4:
		health, nitrogen = "good", "adequate"
	case moisture > 0.2:
		health, nitrogen = "moderate", "low"
	default:
		health, nitrogen = "poor", "deficient"
	}
	return models.SoilHealth{
		MoistureIndex:  round(moisture, 3),
		HealthStatus:   health,
		NitrogenStatus: nitrogen,
		OrganicMatter:  "moderate",
	}
}

func financialFrom(prod models.ProductivityIndex, areaHa float64, crop catalog.CropProfile, inputCostPerHa float64) models.FinancialOutlook {
	totalYield := prod.ExpectedYieldTHa * areaHa
	revenue := totalYield * crop.PricePerTonUSD
	costs := inputCostPerHa * areaHa
	profit := revenue - costs
	roi := 0.0
	if costs > 0 {
		roi = profit / costs * 100
	}
	return models.FinancialOutlook{
		ExpectedYieldTotalTons: round(totalYield, 2),
		ExpectedRevenueUSD:     round(revenue, 2),
		TotalInputCostsUSD:     round(costs, 2),
		NetProfitUSD:           round(profit, 2),
		ROIPercent:             round(roi, 1),
		PricePerTonUSD:         crop.PricePerTonUSD,
	}
}

// irrigationFrom turns cumulative rainfall into a watering schedule.
func irrigationFrom(weather models.WeatherRisk) models.IrrigationPlan {
	switch {
	case weather.TotalRainfallMM < 50:
		return models.IrrigationPlan{
			Urgency:              models.RiskHigh,
			RecommendedFrequency: "daily",
			AmountPerSessionMM:   10,
			NextIrrigation:       "within 24h",
		}
	case weather.TotalRainfallMM < 100:
		return models.IrrigationPlan{
			Urgency:              models.RiskModerate,
			RecommendedFrequency: "every 2-3 days",
			AmountPerSessionMM:   7,
			NextIrrigation:       "within 3 days",
		}
	default:
		return models.IrrigationPlan{
			Urgency:              models.RiskLow,
			RecommendedFrequency: "weekly",
			AmountPerSessionMM:   5,
			NextIrrigation:       "within 3 days",
		}
	}
}

// fertilizationFrom sizes the N/P/K dressing from the nitrogen proxy and
// canopy vigor. Either signal alone can raise the priority.
func fertilizationFrom(soil models.SoilHealth, prod models.ProductivityIndex) models.FertilizationPlan {
	plan := models.FertilizationPlan{
		ApplicationMethod: "split application recommended",
		Timing:            "apply before next growth stage",
	}
	switch {
	case soil.NitrogenStatus == "deficient" || prod.MeanNDVI < 0.4:
		plan.NitrogenKgHa, plan.PhosphorusKgHa, plan.PotassiumKgHa = 120, 60, 80
		plan.Priority = models.RiskHigh
	case soil.NitrogenStatus == "low" || prod.MeanNDVI < 0.6:
		plan.NitrogenKgHa, plan.PhosphorusKgHa, plan.PotassiumKgHa = 80, 40, 50
		plan.Priority = models.RiskModerate
	default:
		plan.NitrogenKgHa, plan.PhosphorusKgHa, plan.PotassiumKgHa = 40, 20, 30
		plan.Priority = models.RiskLow
	}
	return plan
}
