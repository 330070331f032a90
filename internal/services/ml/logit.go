package ml

import "math"

// Training hyperparameters for the full-batch fit. Deterministic: zero
// initialization, fixed epoch count, no shuffling.
const (
	DefaultEpochs       = 400
	DefaultLearningRate = 0.1
)

// LogitModel is a linear binary classifier fit on standardized columns.
type LogitModel struct {
	Coef      []float64
	Intercept float64
}

// Sigmoid is the logistic link, guarded against overflow in exp.
func Sigmoid(z float64) float64 {
	if z > 35 {
		return 1
	}
	if z < -35 {
		return 0
	}
	return 1 / (1 + math.Exp(-z))
}

// Standardize rescales each column of x to zero mean and unit variance and
// returns the per-column means and standard deviations alongside the scaled
// matrix. A constant column keeps std 1 so the division is always defined.
func Standardize(x [][]float64) (means, stds []float64, scaled [][]float64) {
	if len(x) == 0 {
		return nil, nil, nil
	}
	cols := len(x[0])
	n := float64(len(x))

	means = make([]float64, cols)
	stds = make([]float64, cols)
	for j := 0; j < cols; j++ {
		var sum float64
		for i := range x {
			sum += x[i][j]
		}
		means[j] = sum / n

		var ss float64
		for i := range x {
			d := x[i][j] - means[j]
			ss += d * d
		}
		stds[j] = math.Sqrt(ss / n)
		if stds[j] == 0 {
			stds[j] = 1
		}
	}

	scaled = make([][]float64, len(x))
	for i := range x {
		row := make([]float64, cols)
		for j := 0; j < cols; j++ {
			row[j] = (x[i][j] - means[j]) / stds[j]
		}
		scaled[i] = row
	}
	return means, stds, scaled
}

// FitLogistic fits maximum-likelihood logistic regression by full-batch
// gradient ascent. x should be standardized; y holds 0/1 labels.
func FitLogistic(x [][]float64, y []int, epochs int, lr float64) *LogitModel {
	if len(x) == 0 {
		return &LogitModel{}
	}
	if epochs <= 0 {
		epochs = DefaultEpochs
	}
	if lr <= 0 {
		lr = DefaultLearningRate
	}

	cols := len(x[0])
	m := &LogitModel{Coef: make([]float64, cols)}
	n := float64(len(x))

	for e := 0; e < epochs; e++ {
		grad := make([]float64, cols)
		var gradB float64
		for i := range x {
			p := m.Predict(x[i])
			residual := float64(y[i]) - p
			gradB += residual
			for j := 0; j < cols; j++ {
				grad[j] += residual * x[i][j]
			}
		}
		m.Intercept += lr * gradB / n
		for j := 0; j < cols; j++ {
			m.Coef[j] += lr * grad[j] / n
		}
	}
	return m
}

// Predict returns P(y=1 | row) for one feature row.
func (m *LogitModel) Predict(row []float64) float64 {
	z := m.Intercept
	for j, w := range m.Coef {
		z += w * row[j]
	}
	return Sigmoid(z)
}

// Accuracy is the share of rows classified correctly at a 0.5 threshold.
func (m *LogitModel) Accuracy(x [][]float64, y []int) float64 {
	if len(x) == 0 {
		return 0
	}
	correct := 0
	for i := range x {
		pred := 0
		if m.Predict(x[i]) >= 0.5 {
			pred = 1
		}
		if pred == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(x))
}
