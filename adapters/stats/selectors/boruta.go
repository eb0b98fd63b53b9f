package selectors

import (
	"context"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pkiage/tool-credit-risk-modelling/adapters/ml"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
	"github.com/pkiage/tool-credit-risk-modelling/domain/selection"
)

// BorutaSelector tests each feature against shuffled shadow copies of the
// whole matrix. A feature scores a hit in an iteration when its forest
// importance beats the best shadow importance; hit counts are then split
// into confirmed, tentative, and rejected against a Binomial(n, 0.5)
// quantile.
type BorutaSelector struct {
	params selection.BorutaParams
	hyper  ml.Hyperparameters
	seed   int64
}

func NewBorutaSelector(params selection.BorutaParams, hyper ml.Hyperparameters, seed int64) *BorutaSelector {
	return &BorutaSelector{params: params, hyper: hyper, seed: seed}
}

func (s *BorutaSelector) Method() selection.Method {
	return selection.MethodBoruta
}

func (s *BorutaSelector) Description() string {
	return "Compares real feature importances against shuffled shadow copies over repeated forest fits"
}

func (s *BorutaSelector) Select(ctx context.Context, ds *dataset.Dataset) (*selection.FeatureSelectionResult, error) {
	n := ds.RowCount()
	p := ds.ColumnCount()

	// One rng drives every shadow shuffle; per-iteration forests reseed
	// from seed+iteration. Together they make the whole run reproducible.
	shuffleRng := rand.New(rand.NewSource(s.seed))
	hits := make([]int, p)

	combined := make([][]float64, n)
	for i := range combined {
		combined[i] = make([]float64, 2*p)
		copy(combined[i][:p], ds.Matrix[i])
	}

	for iter := 0; iter < s.params.NIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		for j := 0; j < p; j++ {
			perm := shuffleRng.Perm(n)
			for i := 0; i < n; i++ {
				combined[i][p+j] = ds.Matrix[perm[i]][j]
			}
		}

		forestParams := s.hyper.Forest
		forestParams.Seed = s.seed + int64(iter)
		forest := ml.NewRandomForest(forestParams)
		if err := forest.Fit(ctx, combined, ds.Labels); err != nil {
			return nil, err
		}
		importances := forest.FeatureImportances()

		maxShadow := 0.0
		for j := p; j < 2*p; j++ {
			if importances[j] > maxShadow {
				maxShadow = importances[j]
			}
		}
		for j := 0; j < p; j++ {
			if importances[j] > maxShadow {
				hits[j]++
			}
		}
	}

	confirmAt := binomialUpperQuantile(s.params.NIterations, s.params.ConfidenceLevel)
	rejectBelow := float64(s.params.NIterations) * 0.1

	scores := make([]float64, p)
	selected := make([]bool, p)
	perFeature := make([]map[string]any, p)
	nConfirmed, nTentative, nRejected := 0, 0, 0
	for j := 0; j < p; j++ {
		rate := float64(hits[j]) / float64(s.params.NIterations)
		scores[j] = rate

		var status selection.BorutaStatus
		switch {
		case float64(hits[j]) >= confirmAt:
			status = selection.BorutaConfirmed
			nConfirmed++
		case float64(hits[j]) < rejectBelow:
			status = selection.BorutaRejected
			nRejected++
		default:
			status = selection.BorutaTentative
			nTentative++
		}

		selected[j] = status == selection.BorutaConfirmed ||
			(s.params.IncludeTentative && status == selection.BorutaTentative)
		perFeature[j] = map[string]any{
			"status":   string(status),
			"hit_rate": rate,
		}
	}

	methodMeta := map[string]any{
		"n_iterations":      s.params.NIterations,
		"confidence_level":  s.params.ConfidenceLevel,
		"include_tentative": s.params.IncludeTentative,
		"n_confirmed":       nConfirmed,
		"n_tentative":       nTentative,
		"n_rejected":        nRejected,
	}
	return selection.BuildResult(s.Method(), ds.FeatureNames, scores, selected, perFeature, methodMeta)
}

// binomialUpperQuantile returns the smallest hit count whose cumulative
// probability under Binomial(n, 0.5) reaches the confidence level, the
// one-sided threshold a feature must meet to be confirmed.
func binomialUpperQuantile(n int, confidence float64) float64 {
	dist := distuv.Binomial{N: float64(n), P: 0.5}
	for k := 0; k <= n; k++ {
		if dist.CDF(float64(k)) >= confidence {
			return float64(k)
		}
	}
	return float64(n)
}
