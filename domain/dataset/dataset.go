package dataset

import (
	"fmt"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// Dataset is the canonical input for training and feature selection: a dense
// feature matrix with aligned binary labels and ordered column names. Scoring
// code treats it as read-only; anything that needs to reorder or shuffle rows
// works on a copy.
type Dataset struct {
	Matrix       [][]float64
	Labels       []float64
	FeatureNames []string
}

// Validate ensures the dataset is internally consistent: non-empty, rectangular,
// labels aligned to rows, names aligned to columns, and labels strictly binary.
func (d *Dataset) Validate() error {
	if len(d.Matrix) == 0 {
		return core.ErrEmptyDataset
	}
	cols := len(d.FeatureNames)
	if cols == 0 {
		return fmt.Errorf("%w: feature names cannot be empty", core.ErrInvalidInput)
	}
	if len(d.Labels) != len(d.Matrix) {
		return core.NewShapeMismatchError("labels", len(d.Labels), len(d.Matrix))
	}
	for i, row := range d.Matrix {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d columns, expected %d",
				core.ErrShapeMismatch, i, len(row), cols)
		}
	}
	for i, y := range d.Labels {
		if y != 0 && y != 1 {
			return fmt.Errorf("%w: label at row %d is %v, expected 0 or 1",
				core.ErrInvalidInput, i, y)
		}
	}
	return nil
}

// RowCount returns the number of samples (rows).
func (d *Dataset) RowCount() int { return len(d.Matrix) }

// ColumnCount returns the number of features (columns).
func (d *Dataset) ColumnCount() int { return len(d.FeatureNames) }

// Column extracts a copy of one feature column by index.
func (d *Dataset) Column(idx int) []float64 {
	col := make([]float64, len(d.Matrix))
	for i, row := range d.Matrix {
		col[i] = row[idx]
	}
	return col
}

// ColumnByName returns the column index for a feature name.
func (d *Dataset) ColumnByName(name string) (int, bool) {
	for i, n := range d.FeatureNames {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Clone deep-copies the dataset so callers can mutate rows without touching
// the original.
func (d *Dataset) Clone() *Dataset {
	matrix := make([][]float64, len(d.Matrix))
	for i, row := range d.Matrix {
		matrix[i] = append([]float64(nil), row...)
	}
	return &Dataset{
		Matrix:       matrix,
		Labels:       append([]float64(nil), d.Labels...),
		FeatureNames: append([]string(nil), d.FeatureNames...),
	}
}

// Select returns a new dataset restricted to the rows at the given indices.
// Rows are copied; the receiver is untouched.
func (d *Dataset) Select(indices []int) *Dataset {
	matrix := make([][]float64, len(indices))
	labels := make([]float64, len(indices))
	for i, idx := range indices {
		matrix[i] = append([]float64(nil), d.Matrix[idx]...)
		labels[i] = d.Labels[idx]
	}
	return &Dataset{
		Matrix:       matrix,
		Labels:       labels,
		FeatureNames: append([]string(nil), d.FeatureNames...),
	}
}

// SelectColumns returns a new dataset restricted to the named features, in
// the order given. Unknown names are an error so a stale column list cannot
// silently train on the wrong data.
func (d *Dataset) SelectColumns(names []string) (*Dataset, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: column selection cannot be empty", core.ErrInvalidInput)
	}
	indices := make([]int, len(names))
	for i, name := range names {
		idx, ok := d.ColumnByName(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown feature column %q", core.ErrInvalidInput, name)
		}
		indices[i] = idx
	}

	matrix := make([][]float64, len(d.Matrix))
	for r, row := range d.Matrix {
		selected := make([]float64, len(indices))
		for c, idx := range indices {
			selected[c] = row[idx]
		}
		matrix[r] = selected
	}
	return &Dataset{
		Matrix:       matrix,
		Labels:       append([]float64(nil), d.Labels...),
		FeatureNames: append([]string(nil), names...),
	}, nil
}

// ClassCounts returns the number of negative (0) and positive (1) labels.
func (d *Dataset) ClassCounts() (negatives, positives int) {
	for _, y := range d.Labels {
		if y == 1 {
			positives++
		} else {
			negatives++
		}
	}
	return negatives, positives
}
