package models

// FeatureColumns is the fixed, ordered column list used to build design
// matrices. Training and serving must agree on this list exactly.
var FeatureColumns = []string{
	"rsi14",
	"atr14",
	"gap_pct",
	"vwap_dev_pct",
	"volume_spike_x",
	"llm_confidence",
	"trust_score",
	"novelty_score",
	"sma20_dev_pct",
	"sma50_dev_pct",
}

// FeatureVector is the featurizer output: named optional numeric fields,
// categorical fields, plus an Extra bucket for unrecognized numeric keys
// that are carried along but never enter the design matrix.
type FeatureVector struct {
	RSI14         *float64 `json:"rsi14,omitempty"`
	ATR14         *float64 `json:"atr14,omitempty"`
	GapPct        *float64 `json:"gap_pct,omitempty"`
	VWAPDevPct    *float64 `json:"vwap_dev_pct,omitempty"`
	VolumeSpikeX  *float64 `json:"volume_spike_x,omitempty"`
	LLMConfidence *float64 `json:"llm_confidence,omitempty"`
	TrustScore    *float64 `json:"trust_score,omitempty"`
	NoveltyScore  *float64 `json:"novelty_score,omitempty"`
	SMA20DevPct   *float64 `json:"sma20_dev_pct,omitempty"`
	SMA50DevPct   *float64 `json:"sma50_dev_pct,omitempty"`

	CatalystType string `json:"catalyst_type,omitempty"`
	Stance       string `json:"stance,omitempty"`
	Sector       string `json:"sector,omitempty"`

	Extra map[string]float64 `json:"extra,omitempty"`
}

// Numeric returns the present numeric fields keyed by column name.
// Extra keys are included so stored snapshots keep them, but only
// FeatureColumns entries participate in model math.
func (v *FeatureVector) Numeric() map[string]float64 {
	out := make(map[string]float64, 10+len(v.Extra))
	put := func(name string, p *float64) {
		if p != nil {
			out[name] = *p
		}
	}
	put("rsi14", v.RSI14)
	put("atr14", v.ATR14)
	put("gap_pct", v.GapPct)
	put("vwap_dev_pct", v.VWAPDevPct)
	put("volume_spike_x", v.VolumeSpikeX)
	put("llm_confidence", v.LLMConfidence)
	put("trust_score", v.TrustScore)
	put("novelty_score", v.NoveltyScore)
	put("sma20_dev_pct", v.SMA20DevPct)
	put("sma50_dev_pct", v.SMA50DevPct)
	for k, val := range v.Extra {
		out[k] = val
	}
	return out
}

// Categorical returns the present categorical fields.
func (v *FeatureVector) Categorical() map[string]string {
	out := make(map[string]string, 3)
	if v.CatalystType != "" {
		out["catalyst_type"] = v.CatalystType
	}
	if v.Stance != "" {
		out["stance"] = v.Stance
	}
	if v.Sector != "" {
		out["sector"] = v.Sector
	}
	return out
}

// NumericCount counts present named numeric fields (Extra excluded).
func (v *FeatureVector) NumericCount() int {
	n := 0
	for _, p := range []*float64{
		v.RSI14, v.ATR14, v.GapPct, v.VWAPDevPct, v.VolumeSpikeX,
		v.LLMConfidence, v.TrustScore, v.NoveltyScore, v.SMA20DevPct, v.SMA50DevPct,
	} {
		if p != nil {
			n++
		}
	}
	return n
}

// Valid requires at least one numeric and one categorical field.
func (v *FeatureVector) Valid() bool {
	return v.NumericCount() >= 1 && len(v.Categorical()) >= 1
}

// AsMap flattens the vector to a JSON-serializable mapping for storage.
func (v *FeatureVector) AsMap() map[string]any {
	out := make(map[string]any, 13+len(v.Extra))
	for k, val := range v.Numeric() {
		out[k] = val
	}
	for k, val := range v.Categorical() {
		out[k] = val
	}
	return out
}
