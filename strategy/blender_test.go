package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

func TestBlendPassthroughWhenMLDisabled(t *testing.T) {
	blender := NewBlender(nil)
	cfg := utilities.DefaultTradingConfig()
	cfg.UseMLSignals = false

	technical := Signal{Direction: utilities.DirectionCall, Confidence: 0.8}
	prediction := &MLPrediction{Direction: utilities.DirectionPut, Confidence: 0.99}

	assert.Equal(t, technical, blender.Blend(technical, prediction, cfg))
}

func TestBlendPassthroughWhenPredictionAbsent(t *testing.T) {
	blender := NewBlender(nil)
	cfg := utilities.DefaultTradingConfig()

	technical := Signal{Direction: utilities.DirectionPut, Confidence: 0.6}
	assert.Equal(t, technical, blender.Blend(technical, nil, cfg))
}

func TestBlendPassthroughBelowThreshold(t *testing.T) {
	blender := NewBlender(nil)
	cfg := utilities.DefaultTradingConfig()
	cfg.MLConfidenceThreshold = 0.7

	technical := Signal{Direction: utilities.DirectionCall, Confidence: 0.8}
	weak := &MLPrediction{Direction: utilities.DirectionPut, Confidence: 0.69}

	assert.Equal(t, technical, blender.Blend(technical, weak, cfg))
}

func TestBlendAgreementAveragesConfidence(t *testing.T) {
	blender := NewBlender(nil)
	cfg := utilities.DefaultTradingConfig()

	technical := Signal{Direction: utilities.DirectionCall, Confidence: 0.6}
	prediction := &MLPrediction{Direction: utilities.DirectionCall, Confidence: 0.9}

	blended := blender.Blend(technical, prediction, cfg)
	assert.Equal(t, utilities.DirectionCall, blended.Direction)
	assert.InDelta(t, 0.75, blended.Confidence, 1e-9)
}

func TestBlendConflictHolds(t *testing.T) {
	blender := NewBlender(nil)
	cfg := utilities.DefaultTradingConfig()

	technical := Signal{Direction: utilities.DirectionCall, Confidence: 0.8}
	prediction := &MLPrediction{Direction: utilities.DirectionPut, Confidence: 0.9}

	blended := blender.Blend(technical, prediction, cfg)
	assert.Equal(t, utilities.DirectionHold, blended.Direction)
	assert.Zero(t, blended.Confidence)
}

func TestBlendTechnicalHoldStaysHold(t *testing.T) {
	blender := NewBlender(nil)
	cfg := utilities.DefaultTradingConfig()

	technical := Signal{Direction: utilities.DirectionHold}
	prediction := &MLPrediction{Direction: utilities.DirectionCall, Confidence: 0.95}

	blended := blender.Blend(technical, prediction, cfg)
	assert.Equal(t, utilities.DirectionHold, blended.Direction)
}
