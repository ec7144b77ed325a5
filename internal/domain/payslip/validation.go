package payslip

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

type FieldIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError carries one message per failing field.
type ValidationError struct {
	Issues []FieldIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Reason)
	}
	return "payslip validation failed: " + strings.Join(parts, "; ")
}

// Field returns the reason reported for field, if any.
func (e *ValidationError) Field(field string) (string, bool) {
	for _, issue := range e.Issues {
		if issue.Field == field {
			return issue.Reason, true
		}
	}
	return "", false
}

var requiredMessages = map[string]string{
	"companyName":    "Enter Company Name",
	"companyAddress": "Enter Company Address",
	"cityPin":        "Enter Company Pin",
	"employeeName":   "Enter Employee Name",
	"employeeId":     "Enter Employee Id",
	"joiningDate":    "Select the Joining Date",
	"payPeriod":      "Select Pay Period",
	"paidDays":       "Enter PaidDays",
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func recordValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("isodate", layoutValidator(DateLayout))
		_ = v.RegisterValidation("yearmonth", layoutValidator(PayPeriodLayout))
		validate = v
	})
	return validate
}

func layoutValidator(layout string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, err := time.Parse(layout, strings.TrimSpace(fl.Field().String()))
		return err == nil
	}
}

// Validate checks the fields a payslip cannot be issued without. It returns
// a *ValidationError listing every failing field.
func Validate(rec Record) error {
	err := recordValidator().Struct(rec)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	seen := make(map[string]bool, len(fieldErrs))
	issues := make([]FieldIssue, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := fe.Field()
		if seen[field] {
			continue
		}
		seen[field] = true
		issues = append(issues, FieldIssue{Field: field, Reason: issueReason(field, fe)})
	}
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Field < issues[j].Field })
	return &ValidationError{Issues: issues}
}

func issueReason(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		if msg, ok := requiredMessages[field]; ok {
			return msg
		}
		return "is required"
	case "isodate":
		if field == "joiningDate" {
			return requiredMessages[field]
		}
		return "must be a valid date in YYYY-MM-DD format"
	case "yearmonth":
		return "must be a valid pay period in YYYY-MM format"
	case "min":
		return "must not be negative"
	case "max":
		return "must not exceed " + fe.Param() + " days"
	case "required_with":
		if field == "currency" {
			return "must be set together with currencySymbol"
		}
		return "must be set together with currency"
	default:
		return "is invalid"
	}
}
