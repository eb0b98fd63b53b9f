package credit

// Feature definitions for the processed loan dataset (cr_loan_w2 layout).
// Column order here is the column order models are trained on; changing it
// invalidates every persisted model snapshot.

// NumericFeatures are the raw numeric columns, in training order.
var NumericFeatures = []string{
	"person_age",
	"person_income",
	"person_emp_length",
	"loan_amnt",
	"loan_int_rate",
	"loan_percent_income",
	"cb_person_cred_hist_length",
}

// CategoricalFeaturesEncoded are the one-hot encoded categorical columns.
// Names follow the pattern "{field}_{value}"; FeatureVector derives its
// encoding from these names so the vector stays in sync with this list.
var CategoricalFeaturesEncoded = []string{
	"person_home_ownership_MORTGAGE",
	"person_home_ownership_OTHER",
	"person_home_ownership_OWN",
	"person_home_ownership_RENT",
	"loan_intent_DEBTCONSOLIDATION",
	"loan_intent_EDUCATION",
	"loan_intent_HOMEIMPROVEMENT",
	"loan_intent_MEDICAL",
	"loan_intent_PERSONAL",
	"loan_intent_VENTURE",
	"loan_grade_A",
	"loan_grade_B",
	"loan_grade_C",
	"loan_grade_D",
	"loan_grade_E",
	"loan_grade_F",
	"loan_grade_G",
	"cb_person_default_on_file_N",
	"cb_person_default_on_file_Y",
}

// CategoricalFeatures are the raw categorical fields before encoding.
var CategoricalFeatures = []string{
	"person_home_ownership",
	"loan_intent",
	"loan_grade",
	"cb_person_default_on_file",
}

// AllFeatures returns numeric plus encoded categorical columns in training order.
func AllFeatures() []string {
	all := make([]string, 0, len(NumericFeatures)+len(CategoricalFeaturesEncoded))
	all = append(all, NumericFeatures...)
	all = append(all, CategoricalFeaturesEncoded...)
	return all
}

// TargetColumn is the label column in the loan dataset, 0=paid 1=default.
const TargetColumn = "loan_status"

// Validation bounds from the loan schema.
const (
	MinAge             = 18
	MaxAge             = 120
	MaxInterestRate    = 100.0
	MaxLoanPctOfIncome = 1.0
	DefaultTestSize    = 0.2
	DefaultRandomState = 42
	DefaultThreshold   = 0.5
)

// Valid categorical values.
var (
	ValidHomeOwnership = []string{"RENT", "OWN", "MORTGAGE", "OTHER"}
	ValidLoanIntent    = []string{"EDUCATION", "MEDICAL", "VENTURE", "PERSONAL", "DEBTCONSOLIDATION", "HOMEIMPROVEMENT"}
	ValidLoanGrade     = []string{"A", "B", "C", "D", "E", "F", "G"}
	ValidDefaultOnFile = []string{"Y", "N"}
)
