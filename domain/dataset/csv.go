package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// LoadCSV reads a processed credit dataset from a CSV file. The header row
// names the columns; targetColumn is extracted as the label vector and every
// remaining column becomes a feature. All cells must parse as float64.
func LoadCSV(path string, targetColumn string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset file: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: file must have a header row and at least one data row",
			core.ErrEmptyDataset)
	}

	header := rows[0]
	targetIdx := -1
	featureNames := make([]string, 0, len(header)-1)
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == targetColumn {
			targetIdx = i
			continue
		}
		featureNames = append(featureNames, name)
	}
	if targetIdx < 0 {
		return nil, fmt.Errorf("%w: target column %q not found in header",
			core.ErrInvalidInput, targetColumn)
	}

	matrix := make([][]float64, 0, len(rows)-1)
	labels := make([]float64, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d",
				core.ErrShapeMismatch, i+1, len(row), len(header))
		}
		features := make([]float64, 0, len(featureNames))
		for j, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %q is not numeric: %q",
					core.ErrInvalidInput, i+1, header[j], cell)
			}
			if j == targetIdx {
				labels = append(labels, v)
			} else {
				features = append(features, v)
			}
		}
		matrix = append(matrix, features)
	}

	ds := &Dataset{Matrix: matrix, Labels: labels, FeatureNames: featureNames}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
