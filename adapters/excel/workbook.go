// Package excel moves credit data in and out of xlsx workbooks: an
// evaluation workbook writer for trained models and a dataset loader
// for spreadsheet-shaped training data.
package excel

import (
	"fmt"
	"io"
	"sort"

	"github.com/montanaflynn/stats"
	"github.com/xuri/excelize/v2"

	"github.com/pkiage/tool-credit-risk-modelling/domain/evaluation"
	"github.com/pkiage/tool-credit-risk-modelling/internal/store"
)

// Sheet names in the model workbook.
const (
	SheetMetrics       = "Metrics"
	SheetROC           = "ROC Points"
	SheetConfusion     = "Confusion Matrix"
	SheetFeatureScores = "Feature Scores"
)

// WriteWorkbook renders a trained model's evaluation bundle as an xlsx
// workbook. The metrics bundle may be nil for models reloaded from a
// snapshot; the ROC and confusion sheets are then left empty apart from
// their headers.
func WriteWorkbook(w io.Writer, meta store.Metadata, metrics *evaluation.ModelMetrics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetMetrics); err != nil {
		return fmt.Errorf("rename metrics sheet: %w", err)
	}
	for _, sheet := range []string{SheetROC, SheetConfusion, SheetFeatureScores} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}
	}

	if err := writeMetricsSheet(f, meta, metrics); err != nil {
		return err
	}
	if err := writeROCSheet(f, metrics); err != nil {
		return err
	}
	if err := writeConfusionSheet(f, metrics); err != nil {
		return err
	}
	if err := writeFeatureSheet(f, meta.FeatureImportance); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeMetricsSheet(f *excelize.File, meta store.Metadata, metrics *evaluation.ModelMetrics) error {
	rows := [][]any{
		{"Model ID", meta.ModelID.String()},
		{"Model type", string(meta.ModelType)},
		{"Trained at", meta.TrainedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
		{"Training samples", meta.TrainSamples},
		{"Test samples", meta.TestSamples},
		{"Test size", meta.TestSize},
		{"Random state", meta.Seed},
		{"Undersampled", meta.Undersampled},
		{"Decision threshold", meta.Threshold},
	}
	if metrics != nil {
		rows = append(rows,
			[]any{"Accuracy", metrics.Accuracy},
			[]any{"Precision", metrics.Precision},
			[]any{"Recall", metrics.Recall},
			[]any{"F1 score", metrics.F1Score},
			[]any{"ROC AUC", metrics.ROCAUC},
			[]any{"Sensitivity", metrics.ThresholdAnalysis.Sensitivity},
			[]any{"Specificity", metrics.ThresholdAnalysis.Specificity},
			[]any{"Youden's J", metrics.ThresholdAnalysis.YoudenJ},
		)
	} else {
		rows = append(rows,
			[]any{"Accuracy", meta.Accuracy},
			[]any{"F1 score", meta.F1Score},
			[]any{"ROC AUC", meta.ROCAUC},
		)
	}
	for i, row := range rows {
		if err := setRow(f, SheetMetrics, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func writeROCSheet(f *excelize.File, metrics *evaluation.ModelMetrics) error {
	if err := setRow(f, SheetROC, 1, []any{"Threshold", "FPR", "TPR"}); err != nil {
		return err
	}
	if metrics == nil || metrics.ROCCurve == nil {
		return nil
	}
	curve := metrics.ROCCurve
	for i := range curve.Thresholds {
		row := []any{curve.Thresholds[i], curve.FPR[i], curve.TPR[i]}
		if err := setRow(f, SheetROC, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeConfusionSheet(f *excelize.File, metrics *evaluation.ModelMetrics) error {
	if err := setRow(f, SheetConfusion, 1, []any{"", "Predicted repay", "Predicted default"}); err != nil {
		return err
	}
	if metrics == nil || metrics.ConfusionMatrix == nil {
		return nil
	}
	cm := metrics.ConfusionMatrix
	rows := [][]any{
		{"Actual repay", cm.TrueNegatives, cm.FalsePositives},
		{"Actual default", cm.FalseNegatives, cm.TruePositives},
	}
	for i, row := range rows {
		if err := setRow(f, SheetConfusion, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeFeatureSheet(f *excelize.File, importance map[string]float64) error {
	if len(importance) == 0 {
		return setRow(f, SheetFeatureScores, 1,
			[]any{"Feature importances are reported for tree ensembles only."})
	}
	if err := setRow(f, SheetFeatureScores, 1, []any{"Feature", "Importance"}); err != nil {
		return err
	}

	names := make([]string, 0, len(importance))
	scores := make([]float64, 0, len(importance))
	for name := range importance {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if importance[names[i]] != importance[names[j]] {
			return importance[names[i]] > importance[names[j]]
		}
		return names[i] < names[j]
	})
	row := 2
	for _, name := range names {
		if err := setRow(f, SheetFeatureScores, row, []any{name, importance[name]}); err != nil {
			return err
		}
		scores = append(scores, importance[name])
		row++
	}

	summary, err := scoreSummary(scores)
	if err != nil {
		return err
	}
	row++ // blank separator row
	for _, line := range summary {
		if err := setRow(f, SheetFeatureScores, row, line); err != nil {
			return err
		}
		row++
	}
	return nil
}

// scoreSummary computes distribution statistics over the importances.
func scoreSummary(scores []float64) ([][]any, error) {
	mean, err := stats.Mean(scores)
	if err != nil {
		return nil, fmt.Errorf("importance mean: %w", err)
	}
	stddev, err := stats.StandardDeviation(scores)
	if err != nil {
		return nil, fmt.Errorf("importance stddev: %w", err)
	}
	low, err := stats.Min(scores)
	if err != nil {
		return nil, fmt.Errorf("importance min: %w", err)
	}
	high, err := stats.Max(scores)
	if err != nil {
		return nil, fmt.Errorf("importance max: %w", err)
	}
	return [][]any{
		{"Mean", mean},
		{"Std dev", stddev},
		{"Min", low},
		{"Max", high},
	}, nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
