package strategy

import (
	"github.com/Enigmas93/IA-SINAIS-OB-SISTEMA-COMPLETO/utilities"
)

// MLPrediction carries an external model's view of the next candle.
type MLPrediction struct {
	Direction  utilities.Direction `json:"direction"`
	Confidence float64             `json:"confidence"`
}

// Blender merges the technical signal with an optional ML prediction.
//
// Rules, in order:
//   - ML disabled, absent, or below the configured confidence threshold: the
//     technical signal passes through untouched.
//   - Both sides agree on a direction: keep it, confidence becomes the mean
//     of the two confidences.
//   - The sides disagree (including one of them holding): HOLD with zero
//     confidence. A conflicted read is not a trade.
type Blender struct {
	logger *utilities.Logger
}

func NewBlender(logger *utilities.Logger) *Blender {
	return &Blender{logger: logger}
}

// Blend applies the merge rules. A nil prediction means the model had nothing to say.
func (b *Blender) Blend(technical Signal, prediction *MLPrediction, cfg utilities.TradingConfig) Signal {
	if !cfg.UseMLSignals || prediction == nil {
		return technical
	}
	if prediction.Confidence < cfg.MLConfidenceThreshold {
		if b.logger != nil {
			b.logger.LogDebug("Blender: ML confidence %.2f below threshold %.2f, using technical signal",
				prediction.Confidence, cfg.MLConfidenceThreshold)
		}
		return technical
	}

	if technical.Direction == prediction.Direction && technical.Direction != utilities.DirectionHold {
		blended := technical
		blended.Confidence = (technical.Confidence + prediction.Confidence) / 2
		blended.Reason = "technical and ML agree on " + string(blended.Direction)
		return blended
	}

	if b.logger != nil {
		b.logger.LogDebug("Blender: technical %s vs ML %s, holding", technical.Direction, prediction.Direction)
	}
	held := technical
	held.Direction = utilities.DirectionHold
	held.Confidence = 0
	held.Reason = "technical " + string(technical.Direction) + " conflicts with ML " + string(prediction.Direction)
	return held
}
