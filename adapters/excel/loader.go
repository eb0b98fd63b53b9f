package excel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
)

// LoadDataset reads a processed credit dataset from the first sheet of
// an xlsx workbook. The header row names the columns, targetColumn is
// extracted as the label vector, and every cell must parse as float64,
// mirroring the CSV loader.
func LoadDataset(path string, targetColumn string) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", core.ErrEmptyDataset)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: sheet must have a header row and at least one data row",
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
		// Trailing empty cells are dropped by the sheet reader, so a
		// short row means missing values rather than a malformed file.
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

	ds := &dataset.Dataset{Matrix: matrix, Labels: labels, FeatureNames: featureNames}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}
