package credit

import (
	"fmt"
	"strings"

	"github.com/pkiage/tool-credit-risk-modelling/domain/core"
)

// LoanApplication holds every field needed to score one applicant.
type LoanApplication struct {
	PersonAge              int     `json:"person_age"`
	PersonIncome           float64 `json:"person_income"`
	PersonEmpLength        float64 `json:"person_emp_length"`
	LoanAmnt               float64 `json:"loan_amnt"`
	LoanIntRate            float64 `json:"loan_int_rate"`
	LoanPercentIncome      float64 `json:"loan_percent_income"`
	CbPersonCredHistLength int     `json:"cb_person_cred_hist_length"`
	PersonHomeOwnership    string  `json:"person_home_ownership"`
	LoanIntent             string  `json:"loan_intent"`
	LoanGrade              string  `json:"loan_grade"`
	CbPersonDefaultOnFile  string  `json:"cb_person_default_on_file"`
}

// Validate checks every field against the loan schema bounds.
func (a *LoanApplication) Validate() error {
	if a.PersonAge < MinAge || a.PersonAge > MaxAge {
		return core.NewParameterError("person_age",
			fmt.Sprintf("must be between %d and %d, got %d", MinAge, MaxAge, a.PersonAge))
	}
	if a.PersonIncome <= 0 {
		return core.NewParameterError("person_income", "must be positive")
	}
	if a.PersonEmpLength < 0 {
		return core.NewParameterError("person_emp_length", "cannot be negative")
	}
	if a.LoanAmnt <= 0 {
		return core.NewParameterError("loan_amnt", "must be positive")
	}
	if a.LoanIntRate <= 0 || a.LoanIntRate > MaxInterestRate {
		return core.NewParameterError("loan_int_rate",
			fmt.Sprintf("must be in (0, %v], got %v", MaxInterestRate, a.LoanIntRate))
	}
	if a.LoanPercentIncome < 0 || a.LoanPercentIncome > MaxLoanPctOfIncome {
		return core.NewParameterError("loan_percent_income",
			fmt.Sprintf("must be in [0, 1], got %v", a.LoanPercentIncome))
	}
	if a.CbPersonCredHistLength < 0 {
		return core.NewParameterError("cb_person_cred_hist_length", "cannot be negative")
	}
	if !contains(ValidHomeOwnership, a.PersonHomeOwnership) {
		return core.NewParameterError("person_home_ownership",
			fmt.Sprintf("unknown value %q (valid: %v)", a.PersonHomeOwnership, ValidHomeOwnership))
	}
	if !contains(ValidLoanIntent, a.LoanIntent) {
		return core.NewParameterError("loan_intent",
			fmt.Sprintf("unknown value %q (valid: %v)", a.LoanIntent, ValidLoanIntent))
	}
	if !contains(ValidLoanGrade, a.LoanGrade) {
		return core.NewParameterError("loan_grade",
			fmt.Sprintf("unknown value %q (valid: %v)", a.LoanGrade, ValidLoanGrade))
	}
	if !contains(ValidDefaultOnFile, a.CbPersonDefaultOnFile) {
		return core.NewParameterError("cb_person_default_on_file",
			fmt.Sprintf("unknown value %q (valid: %v)", a.CbPersonDefaultOnFile, ValidDefaultOnFile))
	}
	return nil
}

// FeatureVector flattens the application into the AllFeatures column order.
// One-hot values are derived from the encoded column names, so the vector
// cannot drift from the training layout.
func (a *LoanApplication) FeatureVector() ([]float64, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}

	vec := make([]float64, 0, len(NumericFeatures)+len(CategoricalFeaturesEncoded))
	vec = append(vec,
		float64(a.PersonAge),
		a.PersonIncome,
		a.PersonEmpLength,
		a.LoanAmnt,
		a.LoanIntRate,
		a.LoanPercentIncome,
		float64(a.CbPersonCredHistLength),
	)

	fieldValues := map[string]string{
		"person_home_ownership":     a.PersonHomeOwnership,
		"loan_intent":               a.LoanIntent,
		"loan_grade":                a.LoanGrade,
		"cb_person_default_on_file": a.CbPersonDefaultOnFile,
	}

	for _, col := range CategoricalFeaturesEncoded {
		matched := false
		for field, value := range fieldValues {
			prefix := field + "_"
			if strings.HasPrefix(col, prefix) {
				if strings.TrimPrefix(col, prefix) == value {
					vec = append(vec, 1.0)
				} else {
					vec = append(vec, 0.0)
				}
				matched = true
				break
			}
		}
		if !matched {
			return nil, fmt.Errorf("%w: encoded column %q matches no categorical field",
				core.ErrInvalidInput, col)
		}
	}

	return vec, nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
