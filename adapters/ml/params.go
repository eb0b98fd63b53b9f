package ml

// Hyperparameter defaults track the values the credit models were tuned
// with. Runtime overrides come from the service configuration layer.

// TreeParams controls a single CART fit.
type TreeParams struct {
	MaxDepth            int     `json:"max_depth" yaml:"max_depth"` // 0 = unlimited
	MinSamplesSplit     int     `json:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf      int     `json:"min_samples_leaf" yaml:"min_samples_leaf"`
	MaxFeatures         int     `json:"max_features" yaml:"max_features"` // 0 = all features
	MinImpurityDecrease float64 `json:"min_impurity_decrease" yaml:"min_impurity_decrease"`
	Seed                int64   `json:"seed" yaml:"seed"`
}

// ForestParams controls a random forest fit.
type ForestParams struct {
	NEstimators     int   `json:"n_estimators" yaml:"n_estimators"`
	MaxDepth        int   `json:"max_depth" yaml:"max_depth"`
	MinSamplesSplit int   `json:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf  int   `json:"min_samples_leaf" yaml:"min_samples_leaf"`
	MaxFeatures     int   `json:"max_features" yaml:"max_features"` // 0 = sqrt(n_features)
	Bootstrap       bool  `json:"bootstrap" yaml:"bootstrap"`
	Seed            int64 `json:"seed" yaml:"seed"`
}

func DefaultForestParams() ForestParams {
	return ForestParams{
		NEstimators:     100,
		MaxDepth:        10,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		Seed:            42,
	}
}

// BoostingParams controls a gradient boosting fit. No row or column
// subsampling is applied, so the fit is deterministic regardless of Seed.
type BoostingParams struct {
	LearningRate    float64 `json:"learning_rate" yaml:"learning_rate"`
	MaxDepth        int     `json:"max_depth" yaml:"max_depth"`
	NRounds         int     `json:"n_rounds" yaml:"n_rounds"`
	MinSamplesSplit int     `json:"min_samples_split" yaml:"min_samples_split"`
	MinSamplesLeaf  int     `json:"min_samples_leaf" yaml:"min_samples_leaf"`
	Seed            int64   `json:"seed" yaml:"seed"`
}

func DefaultBoostingParams() BoostingParams {
	return BoostingParams{
		LearningRate:    0.1,
		MaxDepth:        7,
		NRounds:         100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
	}
}

// LogisticParams controls a logistic regression fit. C is the inverse
// regularization strength shared by the L1 and L2 penalties.
type LogisticParams struct {
	Penalty      string  `json:"penalty" yaml:"penalty"` // "l1" or "l2"
	C            float64 `json:"C" yaml:"C"`
	MaxIter      int     `json:"max_iter" yaml:"max_iter"`
	Tol          float64 `json:"tol" yaml:"tol"`
	LearningRate float64 `json:"learning_rate" yaml:"learning_rate"`
}

func DefaultLogisticParams() LogisticParams {
	return LogisticParams{
		Penalty:      "l2",
		C:            1.0,
		MaxIter:      1000,
		Tol:          1e-6,
		LearningRate: 0.1,
	}
}
