package evaluation

// ComputeConfusionMatrix binarizes probabilities at the given threshold
// (predicted positive when probability >= threshold) and counts outcomes.
func ComputeConfusionMatrix(labels, probabilities []float64, threshold float64) (*ConfusionMatrix, error) {
	if err := validatePair(labels, probabilities); err != nil {
		return nil, err
	}

	var tn, fp, fn, tp int
	for i, p := range probabilities {
		predicted := p >= threshold
		actual := labels[i] == 1
		switch {
		case actual && predicted:
			tp++
		case actual && !predicted:
			fn++
		case !actual && predicted:
			fp++
		default:
			tn++
		}
	}

	return &ConfusionMatrix{
		Matrix:         [][]int{{tn, fp}, {fn, tp}},
		TrueNegatives:  tn,
		FalsePositives: fp,
		FalseNegatives: fn,
		TruePositives:  tp,
	}, nil
}

// Total returns the number of samples the matrix was computed over.
func (m *ConfusionMatrix) Total() int {
	return m.TrueNegatives + m.FalsePositives + m.FalseNegatives + m.TruePositives
}

// Point metrics below resolve zero denominators to 0.0 rather than NaN.
// Imbalanced credit data makes empty prediction cells routine, not errors.

func (m *ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0.0
	}
	return float64(m.TruePositives+m.TrueNegatives) / float64(total)
}

func (m *ConfusionMatrix) Precision() float64 {
	denom := m.TruePositives + m.FalsePositives
	if denom == 0 {
		return 0.0
	}
	return float64(m.TruePositives) / float64(denom)
}

// Recall is the true positive rate, also reported as sensitivity.
func (m *ConfusionMatrix) Recall() float64 {
	denom := m.TruePositives + m.FalseNegatives
	if denom == 0 {
		return 0.0
	}
	return float64(m.TruePositives) / float64(denom)
}

// Specificity is the true negative rate.
func (m *ConfusionMatrix) Specificity() float64 {
	denom := m.TrueNegatives + m.FalsePositives
	if denom == 0 {
		return 0.0
	}
	return float64(m.TrueNegatives) / float64(denom)
}

func (m *ConfusionMatrix) F1() float64 {
	p, r := m.Precision(), m.Recall()
	if p+r == 0 {
		return 0.0
	}
	return 2 * p * r / (p + r)
}
