package ranker

import "math"

// logistic is a binary logistic regression fit by batch gradient descent
// with light L2 regularization. Small enough feature space that plain
// gradient descent converges fine; no linear algebra dependency needed.
type logistic struct {
	weights [featureCount]float64
	bias    float64
}

const (
	gdEpochs       = 500
	gdLearningRate = 0.05
	gdL2           = 0.01
)

func sigmoid(z float64) float64 {
	// Guard against overflow in Exp for extreme logits.
	if z < -35 {
		return 0
	}
	if z > 35 {
		return 1
	}
	return 1.0 / (1.0 + math.Exp(-z))
}

// fit trains from scratch, discarding any previous weights.
func (m *logistic) fit(x [][featureCount]float64, y []float64) {
	m.weights = [featureCount]float64{}
	m.bias = 0

	n := float64(len(x))
	for epoch := 0; epoch < gdEpochs; epoch++ {
		var gradW [featureCount]float64
		var gradB float64

		for i, row := range x {
			err := sigmoid(m.logit(row)) - y[i]
			for j := range row {
				gradW[j] += err * row[j]
			}
			gradB += err
		}

		for j := range m.weights {
			m.weights[j] -= gdLearningRate * (gradW[j]/n + gdL2*m.weights[j])
		}
		m.bias -= gdLearningRate * gradB / n
	}
}

func (m *logistic) logit(f [featureCount]float64) float64 {
	z := m.bias
	for j, w := range m.weights {
		z += w * f[j]
	}
	return z
}

// predictProba returns P(label=1) for a feature vector.
func (m *logistic) predictProba(f [featureCount]float64) float64 {
	return sigmoid(m.logit(f))
}
