// Package testkit generates seeded synthetic loan data in the canonical
// feature layout. Tests use it for fixtures; the service uses it as the
// dev-mode dataset when no CSV path is configured.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/pkiage/tool-credit-risk-modelling/domain/credit"
	"github.com/pkiage/tool-credit-risk-modelling/domain/dataset"
)

// GeneratorConfig configures the synthetic credit data generator.
type GeneratorConfig struct {
	Rows        int     `json:"rows"`
	DefaultRate float64 `json:"default_rate"` // fraction of rows labelled default
	NoiseLevel  float64 `json:"noise_level"`  // stddev of noise added to the risk score
	Seed        int64   `json:"seed"`
}

// DefaultGeneratorConfig mirrors the class balance of the real loan data.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Rows:        1000,
		DefaultRate: 0.22,
		NoiseLevel:  0.1,
		Seed:        42,
	}
}

// Generator produces loan applications with correlated fields and labels
// from a noisy linear risk rule. Same config, same output.
type Generator struct {
	config GeneratorConfig
	rng    *rand.Rand
}

// NewGenerator creates a generator, normalizing out-of-range config.
func NewGenerator(config GeneratorConfig) *Generator {
	if config.Rows < 2 {
		config.Rows = 2
	}
	if config.DefaultRate <= 0 || config.DefaultRate >= 1 {
		config.DefaultRate = 0.22
	}
	if config.NoiseLevel < 0 {
		config.NoiseLevel = 0
	}
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Applications generates applicants plus their default labels.
func (g *Generator) Applications() ([]credit.LoanApplication, []float64) {
	apps := make([]credit.LoanApplication, g.config.Rows)
	scores := make([]float64, g.config.Rows)
	for i := range apps {
		apps[i] = g.application()
		scores[i] = riskScore(&apps[i]) + g.rng.NormFloat64()*g.config.NoiseLevel
	}
	return apps, labelByQuantile(scores, g.config.DefaultRate)
}

// Dataset encodes the generated applications into the canonical
// 26-column layout with loan_status labels.
func (g *Generator) Dataset() (*dataset.Dataset, error) {
	apps, labels := g.Applications()

	matrix := make([][]float64, len(apps))
	for i := range apps {
		vec, err := apps[i].FeatureVector()
		if err != nil {
			return nil, fmt.Errorf("synthetic row %d: %w", i, err)
		}
		matrix[i] = vec
	}

	ds := &dataset.Dataset{
		Matrix:       matrix,
		Labels:       labels,
		FeatureNames: credit.AllFeatures(),
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (g *Generator) application() credit.LoanApplication {
	age := 21 + int(g.rng.ExpFloat64()*8)
	if age > 80 {
		age = 80
	}

	income := math.Round(28000 * math.Exp(g.rng.NormFloat64()*0.55))
	if income < 4000 {
		income = 4000
	}

	emp := math.Abs(g.rng.NormFloat64()*3 + 4)
	if maxEmp := float64(age - 18); emp > maxEmp {
		emp = maxEmp
	}
	emp = math.Round(emp)

	grade := g.pick(credit.ValidLoanGrade, gradeWeights)
	gi := gradeIndex(grade)

	// Interest rate follows the grade band with some spread.
	intRate := gradeBaseRate[gi] + g.rng.NormFloat64()
	intRate = clamp(intRate, 5.0, 24.0)
	intRate = math.Round(intRate*100) / 100

	amount := math.Round(9600 * math.Exp(g.rng.NormFloat64()*0.55))
	if amount < 900 {
		amount = 900
	}
	if amount > 35000 {
		amount = 35000
	}
	// Keep the loan affordable relative to income, as lenders do.
	if ceiling := math.Round(income * 0.78); amount > ceiling {
		amount = ceiling
	}
	pct := math.Round(amount/income*10000) / 10000

	hist := int(math.Round(float64(age-18)*0.55 + g.rng.NormFloat64()*2))
	if hist < 2 {
		hist = 2
	}
	if hist > 30 {
		hist = 30
	}

	defaultOnFile := "N"
	if g.rng.Float64() < 0.08+0.04*float64(gi) {
		defaultOnFile = "Y"
	}

	return credit.LoanApplication{
		PersonAge:              age,
		PersonIncome:           income,
		PersonEmpLength:        emp,
		LoanAmnt:               amount,
		LoanIntRate:            intRate,
		LoanPercentIncome:      pct,
		CbPersonCredHistLength: hist,
		PersonHomeOwnership:    g.pick(credit.ValidHomeOwnership, homeWeights),
		LoanIntent:             g.pick(credit.ValidLoanIntent, intentWeights),
		LoanGrade:              grade,
		CbPersonDefaultOnFile:  defaultOnFile,
	}
}

// Weights roughly follow the marginal distributions of the loan dataset.
var (
	homeWeights   = []float64{0.505, 0.077, 0.410, 0.008}
	intentWeights = []float64{0.20, 0.19, 0.17, 0.17, 0.16, 0.11}
	gradeWeights  = []float64{0.33, 0.32, 0.20, 0.10, 0.030, 0.015, 0.005}
	gradeBaseRate = []float64{7.3, 11.0, 13.5, 15.4, 17.0, 18.6, 20.3}
)

func (g *Generator) pick(values []string, weights []float64) string {
	r := g.rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return values[i]
		}
	}
	return values[len(values)-1]
}

// riskScore is the linear rule labels derive from. Heavier debt burden,
// worse grades, and prior defaults push applicants toward default.
func riskScore(a *credit.LoanApplication) float64 {
	score := 3.1 * a.LoanPercentIncome
	score += 0.09 * (a.LoanIntRate - 11)
	score += 0.12 * float64(gradeIndex(a.LoanGrade))
	if a.CbPersonDefaultOnFile == "Y" {
		score += 0.35
	}
	if a.PersonHomeOwnership == "RENT" {
		score += 0.18
	}
	score -= a.PersonIncome / 250000
	score -= 0.01 * a.PersonEmpLength
	return score
}

// labelByQuantile marks the top rate fraction of scores as defaults, so
// the class balance lands exactly on the configured rate.
func labelByQuantile(scores []float64, rate float64) []float64 {
	k := int(math.Round(float64(len(scores)) * rate))
	if k < 1 {
		k = 1
	}
	if k >= len(scores) {
		k = len(scores) - 1
	}

	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	cutoff := sorted[len(sorted)-k]

	labels := make([]float64, len(scores))
	for i, s := range scores {
		if s >= cutoff {
			labels[i] = 1
		}
	}
	return labels
}

func gradeIndex(grade string) int {
	for i, g := range credit.ValidLoanGrade {
		if g == grade {
			return i
		}
	}
	return 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SampleApplication returns one valid applicant for handler tests.
func SampleApplication() credit.LoanApplication {
	return credit.LoanApplication{
		PersonAge:              32,
		PersonIncome:           64000,
		PersonEmpLength:        6,
		LoanAmnt:               12000,
		LoanIntRate:            11.5,
		LoanPercentIncome:      0.1875,
		CbPersonCredHistLength: 9,
		PersonHomeOwnership:    "MORTGAGE",
		LoanIntent:             "EDUCATION",
		LoanGrade:              "B",
		CbPersonDefaultOnFile:  "N",
	}
}
