package core

import (
	"risk_service/internal/domain/model"

	"github.com/shopspring/decimal"
)

// Верхние границы уровней риска, включительно.
var levelThresholds = []struct {
	upTo  float64
	level model.RiskLevel
}{
	{15, model.RiskBajo},
	{35, model.RiskMedioBajo},
	{55, model.RiskMedio},
	{75, model.RiskAlto},
}

// ClassifyRisk maps a percentage or a 0-100 score to a qualitative level.
// Boundaries belong to the lower level.
func ClassifyRisk(value float64) model.RiskLevel {
	for _, t := range levelThresholds {
		if value <= t.upTo {
			return t.level
		}
	}
	return model.RiskCritico
}

func round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
