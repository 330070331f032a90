package ml

import (
	"math"
	"testing"
)

func TestSigmoidBounds(t *testing.T) {
	if Sigmoid(0) != 0.5 {
		t.Fatalf("sigmoid(0) = %v", Sigmoid(0))
	}
	if Sigmoid(100) != 1 || Sigmoid(-100) != 0 {
		t.Fatalf("sigmoid not guarded at extremes")
	}
}

func TestStandardize(t *testing.T) {
	x := [][]float64{{1, 10}, {2, 10}, {3, 10}}
	means, stds, scaled := Standardize(x)

	if means[0] != 2 {
		t.Fatalf("mean = %v", means[0])
	}
	if stds[1] != 1 {
		t.Fatalf("constant column must keep std 1, got %v", stds[1])
	}
	var sum float64
	for i := range scaled {
		sum += scaled[i][0]
	}
	if math.Abs(sum) > 1e-9 {
		t.Fatalf("standardized column not centered: %v", sum)
	}
}

func TestFitLogisticSeparable(t *testing.T) {
	// One informative column: positive values label 1, negative label 0.
	x := [][]float64{}
	y := []int{}
	for i := 0; i < 40; i++ {
		v := 1.0 + float64(i%5)*0.1
		x = append(x, []float64{v}, []float64{-v})
		y = append(y, 1, 0)
	}

	m := FitLogistic(x, y, DefaultEpochs, DefaultLearningRate)
	if m.Coef[0] <= 0 {
		t.Fatalf("informative coefficient should be positive: %v", m.Coef[0])
	}
	if acc := m.Accuracy(x, y); acc != 1.0 {
		t.Fatalf("separable data accuracy = %v", acc)
	}
	if p := m.Predict([]float64{2}); p <= 0.5 {
		t.Fatalf("positive example probability = %v", p)
	}
}
