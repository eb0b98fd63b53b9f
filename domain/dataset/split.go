package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// Split partitions the dataset into train and test subsets after a seeded
// shuffle. testSize is the fraction of rows assigned to the test partition
// and must lie strictly inside (0, 1). The same seed always yields the same
// partition.
func (d *Dataset) Split(testSize float64, seed int64) (train, test *Dataset, err error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, core.NewParameterError("test_size",
			fmt.Sprintf("must be in (0, 1), got %v", testSize))
	}

	n := d.RowCount()
	nTest := int(math.Round(float64(n) * testSize))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, fmt.Errorf("%w: %d rows cannot be split with test_size %v",
			core.ErrInsufficientData, n, testSize)
	}

	rng := rand.New(rand.NewSource(seed))
	indices := rng.Perm(n)

	test = d.Select(indices[:nTest])
	train = d.Select(indices[nTest:])
	return train, test, nil
}

// StratifiedSplit partitions the dataset like Split but preserves the class
// proportions in both partitions. Each class needs at least two rows so both
// sides receive one.
func (d *Dataset) StratifiedSplit(testSize float64, seed int64) (train, test *Dataset, err error) {
	if err := d.Validate(); err != nil {
		return nil, nil, err
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, core.NewParameterError("test_size",
			fmt.Sprintf("must be in (0, 1), got %v", testSize))
	}

	var idx0, idx1 []int
	for i, y := range d.Labels {
		if y == 1 {
			idx1 = append(idx1, i)
		} else {
			idx0 = append(idx0, i)
		}
	}
	if len(idx0) < 2 || len(idx1) < 2 {
		return nil, nil, fmt.Errorf("%w: stratified split needs at least 2 rows per class, got %d/%d",
			core.ErrInsufficientData, len(idx0), len(idx1))
	}

	rng := rand.New(rand.NewSource(seed))
	var testIdx, trainIdx []int
	for _, pool := range [][]int{idx0, idx1} {
		shuffled := sampleWithoutReplacement(rng, pool, len(pool))
		nTest := int(math.Round(float64(len(pool)) * testSize))
		if nTest < 1 {
			nTest = 1
		}
		if nTest > len(pool)-1 {
			nTest = len(pool) - 1
		}
		testIdx = append(testIdx, shuffled[:nTest]...)
		trainIdx = append(trainIdx, shuffled[nTest:]...)
	}
	rng.Shuffle(len(testIdx), func(i, j int) { testIdx[i], testIdx[j] = testIdx[j], testIdx[i] })
	rng.Shuffle(len(trainIdx), func(i, j int) { trainIdx[i], trainIdx[j] = trainIdx[j], trainIdx[i] })

	return d.Select(trainIdx), d.Select(testIdx), nil
}

// Undersample balances the two classes by sampling the majority class down to
// the minority class count, without replacement, then shuffling the combined
// rows. Deterministic under a fixed seed.
func (d *Dataset) Undersample(seed int64) (*Dataset, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	negatives, positives := d.ClassCounts()
	if negatives == 0 || positives == 0 {
		return nil, core.ErrSingleClass
	}

	var idx0, idx1 []int
	for i, y := range d.Labels {
		if y == 1 {
			idx1 = append(idx1, i)
		} else {
			idx0 = append(idx0, i)
		}
	}

	minSamples := negatives
	if positives < minSamples {
		minSamples = positives
	}

	rng := rand.New(rand.NewSource(seed))
	sampled := append(sampleWithoutReplacement(rng, idx0, minSamples),
		sampleWithoutReplacement(rng, idx1, minSamples)...)
	rng.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})

	return d.Select(sampled), nil
}

func sampleWithoutReplacement(rng *rand.Rand, pool []int, k int) []int {
	perm := rng.Perm(len(pool))
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}
