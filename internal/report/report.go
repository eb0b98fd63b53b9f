// Package report renders a trained model's evaluation summary as a
// markdown brief and as a standalone HTML page.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/pkiage/tool-credit-risk-modelling/domain/evaluation"
	"github.com/pkiage/tool-credit-risk-modelling/internal/store"
)

// TopFeatureCount caps the feature table in the brief.
const TopFeatureCount = 10

// Markdown builds the model brief. The metrics bundle may be nil for
// models reloaded from a snapshot; the brief then falls back to the
// summary figures kept in the metadata.
func Markdown(meta store.Metadata, metrics *evaluation.ModelMetrics) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("# Model brief: %s\n\n", meta.ModelID))
	b.WriteString(fmt.Sprintf("- **Model type:** %s\n", meta.ModelType))
	b.WriteString(fmt.Sprintf("- **Trained at:** %s\n", meta.TrainedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("- **Training samples:** %d\n", meta.TrainSamples))
	b.WriteString(fmt.Sprintf("- **Test samples:** %d (test size %.2f)\n", meta.TestSamples, meta.TestSize))
	b.WriteString(fmt.Sprintf("- **Random state:** %d\n", meta.Seed))
	if meta.Undersampled {
		b.WriteString("- **Class balance:** training partition undersampled to parity\n")
	}
	b.WriteString("\n")

	b.WriteString("## Test metrics\n\n")
	b.WriteString("| Metric | Value |\n|--------|-------|\n")
	if metrics != nil {
		b.WriteString(fmt.Sprintf("| Accuracy | %.4f |\n", metrics.Accuracy))
		b.WriteString(fmt.Sprintf("| Precision | %.4f |\n", metrics.Precision))
		b.WriteString(fmt.Sprintf("| Recall | %.4f |\n", metrics.Recall))
		b.WriteString(fmt.Sprintf("| F1 score | %.4f |\n", metrics.F1Score))
		b.WriteString(fmt.Sprintf("| ROC AUC | %.4f |\n", metrics.ROCAUC))
	} else {
		b.WriteString(fmt.Sprintf("| Accuracy | %.4f |\n", meta.Accuracy))
		b.WriteString(fmt.Sprintf("| F1 score | %.4f |\n", meta.F1Score))
		b.WriteString(fmt.Sprintf("| ROC AUC | %.4f |\n", meta.ROCAUC))
	}
	b.WriteString("\n")

	b.WriteString("## Decision threshold\n\n")
	b.WriteString(fmt.Sprintf(
		"Applications with a predicted default probability at or above %.4f are denied.\n\n",
		meta.Threshold))
	if metrics != nil {
		op := metrics.ThresholdAnalysis
		b.WriteString("| Operating point | Value |\n|-----------------|-------|\n")
		b.WriteString(fmt.Sprintf("| Sensitivity | %.4f |\n", op.Sensitivity))
		b.WriteString(fmt.Sprintf("| Specificity | %.4f |\n", op.Specificity))
		b.WriteString(fmt.Sprintf("| Youden's J | %.4f |\n", op.YoudenJ))
		b.WriteString(fmt.Sprintf("| Precision | %.4f |\n", op.Precision))
		b.WriteString(fmt.Sprintf("| F1 score | %.4f |\n", op.F1Score))
		b.WriteString("\n")
	}

	b.WriteString("## Top features\n\n")
	top := topFeatures(meta.FeatureImportance, TopFeatureCount)
	if len(top) == 0 {
		b.WriteString("Feature importances are reported for tree ensembles only.\n")
	} else {
		b.WriteString("| Rank | Feature | Importance |\n|------|---------|------------|\n")
		for i, f := range top {
			b.WriteString(fmt.Sprintf("| %d | %s | %.4f |\n", i+1, f.name, f.score))
		}
	}

	return b.String()
}

// HTML renders the brief as a complete HTML page.
func HTML(meta store.Metadata, metrics *evaluation.ModelMetrics) []byte {
	src := []byte(Markdown(meta, metrics))
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	body := markdown.Render(p.Parse(src), renderer)
	return []byte(fmt.Sprintf(pageShell, meta.ModelID, body))
}

type rankedFeature struct {
	name  string
	score float64
}

// topFeatures orders importances by score descending, breaking ties by
// name so the table is stable across runs.
func topFeatures(importance map[string]float64, limit int) []rankedFeature {
	ranked := make([]rankedFeature, 0, len(importance))
	for name, score := range importance {
		ranked = append(ranked, rankedFeature{name: name, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

const pageShell = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; color: #1a202c; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #cbd5e0; padding: 0.3rem 0.8rem; text-align: left; }
th { background: #edf2f7; }
</style>
</head>
<body>
%s</body>
</html>
`
