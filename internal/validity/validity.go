// Package validity computes expiration dates of prepared laboratory solutions from the validity rules of the
// inspection schema.
package validity

import (
	"bytes"
	"encoding/json"
	"github.com/labqa/inspection/internal/errors"
	"log/slog"
	"time"
)

// DateLayout is the ISO date format used for every date answer.
const DateLayout = "2006-01-02"

const (
	// DefaultDays applies to categories without an explicit rule.
	DefaultDays = 7
	// DaysPerMonth approximates a month. Expiry dates are not computed with calendar months.
	DaysPerMonth = 30
	// DefaultPolicy is the policy text of manufacturer-defined rules that do not carry their own text.
	DefaultPolicy = "Conforme especificação do fabricante"
	// PendingText is displayed while the preparation date or the category is missing.
	PendingText = "(Aguardando Data de Preparo e Tipo)"
	// ErrorText is displayed when the expiry cannot be computed.
	ErrorText = "N/A (Erro no cálculo)"
)

// Unit of a numeric validity rule.
type Unit string

const (
	Days   Unit = "dias"
	Months Unit = "meses"
	// manufacturer is accepted as unit to mark manufacturer-defined rules.
	manufacturer Unit = "fabricante"
)

var ErrInvalidRule = errors.NewSentinel("invalid validity rule")

// Rule is the validity policy of one solution category.
type Rule struct {
	Unit   Unit
	Amount int
	// ManufacturerDefined rules have no computable date. The flag wins over Unit and Amount.
	ManufacturerDefined bool
	// Policy is the text shown instead of a date for manufacturer-defined rules.
	Policy string
}

// UnmarshalJSON accepts `{"unidade": "dias", "valor": 1}`, `{"unidade": "fabricante"}`, an object with
// `"fabricante": true` and a bare string holding the policy text.
func (r *Rule) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var policy string
		if err := json.Unmarshal(b, &policy); err != nil {
			return errors.Wrap(err, "decode policy text")
		}
		*r = Rule{ManufacturerDefined: true, Policy: policy}
		return nil
	}
	var raw struct {
		Unit         Unit   `json:"unidade"`
		Amount       int    `json:"valor"`
		Manufacturer bool   `json:"fabricante"`
		Policy       string `json:"politica"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(ErrInvalidRule, err.Error(), slog.String("rule", string(b)))
	}
	*r = Rule{
		Unit:                raw.Unit,
		Amount:              raw.Amount,
		ManufacturerDefined: raw.Manufacturer || raw.Unit == manufacturer,
		Policy:              raw.Policy,
	}
	return nil
}

// Expiry is either a date or the policy text of a manufacturer-defined rule.
type Expiry struct {
	Date   time.Time
	Policy string
}

// ManufacturerDefined reports whether the expiry is a policy instead of a date.
func (e Expiry) ManufacturerDefined() bool {
	return e.Policy != ""
}

func (e Expiry) String() string {
	if e.ManufacturerDefined() {
		return e.Policy
	}
	return e.Date.Format(DateLayout)
}

// ComputeExpiry returns the expiry of a solution prepared at prepDate (ISO date) belonging to category.
//
// The second return value is false when no expiry can be computed: an empty or unparseable date, or a rule with an
// unknown unit. Categories without a rule expire after DefaultDays.
func ComputeExpiry(prepDate string, category string, rules map[string]Rule) (Expiry, bool) {
	rule, ok := rules[category]
	if ok && rule.ManufacturerDefined {
		policy := rule.Policy
		if policy == "" {
			policy = DefaultPolicy
		}
		return Expiry{Policy: policy}, true
	}
	if !ok {
		rule = Rule{Unit: Days, Amount: DefaultDays}
	}

	prepared, err := time.Parse(DateLayout, prepDate)
	if err != nil {
		return Expiry{}, false
	}

	var days int
	switch rule.Unit {
	case Days:
		days = rule.Amount
	case Months:
		days = rule.Amount * DaysPerMonth
	case manufacturer:
		// Unreachable, ManufacturerDefined is set for this unit.
		return Expiry{}, false
	default:
		return Expiry{}, false
	}
	return Expiry{Date: prepared.AddDate(0, 0, days)}, true
}

// Display renders the expiry the way the form shows it, including the placeholders for pending input and failed
// computation.
func Display(prepDate string, category string, rules map[string]Rule) string {
	if prepDate == "" || category == "" {
		return PendingText
	}
	expiry, ok := ComputeExpiry(prepDate, category, rules)
	if !ok {
		return ErrorText
	}
	return expiry.String()
}
