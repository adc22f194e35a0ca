// File: pkg/mlmodel/mlmodel.go

// Package mlmodel integrates an external machine-learning prediction service.
// The trading loop treats predictions as advisory: a failed or absent
// prediction never blocks a technical signal.
package mlmodel

import (
	"context"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/strategy"
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// FeatureVector is the input handed to the prediction service for one window.
type FeatureVector struct {
	Asset      string                      `json:"asset"`
	Candles    []utilities.Candle          `json:"candles"`
	Indicators utilities.IndicatorSnapshot `json:"indicators"`
}

// Predictor produces an optional directional prediction for a candle window.
type Predictor interface {
	// Predict returns the model's view, or (nil, nil) when the model has no
	// opinion for this window.
	Predict(ctx context.Context, features FeatureVector) (*strategy.MLPrediction, error)
}

// Noop is a Predictor that never has an opinion. Used when ML signals are
// disabled and as the default in tests.
type Noop struct{}

var _ Predictor = Noop{}

func (Noop) Predict(ctx context.Context, features FeatureVector) (*strategy.MLPrediction, error) {
	return nil, nil
}
