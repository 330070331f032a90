package features

import (
	"encoding/json"
	"strconv"

	"NewsAlpha/internal/domain/models"
)

// Featurize extracts the model feature vector from a raw analysis payload.
// This function is shared by the training and serving paths and must stay
// bit-identical in both: a snapshot stored at publish time and a live
// prediction request go through exactly the same rules.
//
// Numeric fields pass through when coercible to float; probability-like
// fields are clamped to [0,1]; sma deviations are derived only when both
// inputs are present and the denominator is non-zero; categorical fields
// pass through as strings. Unrecognized numeric keys land in Extra.
func Featurize(payload map[string]any) *models.FeatureVector {
	v := &models.FeatureVector{}
	if len(payload) == 0 {
		return v
	}

	v.RSI14 = numField(payload, "rsi14")
	v.ATR14 = numField(payload, "atr14")
	v.GapPct = numField(payload, "gap_pct")
	v.VWAPDevPct = numField(payload, "vwap_dev_pct")
	v.VolumeSpikeX = numField(payload, "volume_spike_x")
	v.LLMConfidence = clamp01(numField(payload, "llm_confidence"))
	v.TrustScore = clamp01(numField(payload, "trust_score"))
	v.NoveltyScore = clamp01(numField(payload, "novelty_score"))

	v.SMA20DevPct = smaDeviation(payload, "sma20")
	v.SMA50DevPct = smaDeviation(payload, "sma50")

	v.CatalystType = strField(payload, "catalyst_type")
	v.Stance = strField(payload, "stance")
	v.Sector = strField(payload, "sector")

	for key, raw := range payload {
		if knownKeys[key] {
			continue
		}
		if f, ok := toFloat(raw); ok {
			if v.Extra == nil {
				v.Extra = make(map[string]float64)
			}
			v.Extra[key] = f
		}
	}
	return v
}

var knownKeys = map[string]bool{
	"rsi14": true, "atr14": true, "gap_pct": true, "vwap_dev_pct": true,
	"volume_spike_x": true, "llm_confidence": true, "trust_score": true,
	"novelty_score": true, "catalyst_type": true, "stance": true,
	"sector": true, "close": true, "sma20": true, "sma50": true,
}

// smaDeviation computes 100*(close-sma)/sma for the given sma key.
func smaDeviation(payload map[string]any, smaKey string) *float64 {
	close := numField(payload, "close")
	sma := numField(payload, smaKey)
	if close == nil || sma == nil || *sma == 0 {
		return nil
	}
	dev := 100 * (*close - *sma) / *sma
	return &dev
}

func numField(payload map[string]any, key string) *float64 {
	raw, ok := payload[key]
	if !ok {
		return nil
	}
	f, ok := toFloat(raw)
	if !ok {
		return nil
	}
	return &f
}

func strField(payload map[string]any, key string) string {
	if s, ok := payload[key].(string); ok {
		return s
	}
	return ""
}

func clamp01(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return &v
}

func toFloat(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
