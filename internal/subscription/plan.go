package subscription

import (
	"time"

	"github.com/shopspring/decimal"

	"recogym/internal/apperr"
)

type Plan string

const (
	PlanMonthly   Plan = "monthly"
	PlanQuarterly Plan = "quarterly"
	PlanYearly    Plan = "yearly"
)

// Terms is the fixed price and length of a plan.
type Terms struct {
	Plan  Plan            `json:"plan"`
	Name  string          `json:"name"`
	Days  int             `json:"days"`
	Price decimal.Decimal `json:"price"`
}

var planTable = []Terms{
	{Plan: PlanMonthly, Name: "Mensual", Days: 30, Price: decimal.NewFromInt(500)},
	{Plan: PlanQuarterly, Name: "Trimestral", Days: 90, Price: decimal.NewFromInt(1500)},
	{Plan: PlanYearly, Name: "Anual", Days: 365, Price: decimal.NewFromInt(6000)},
}

// Plans lists every plan, shortest first.
func Plans() []Terms {
	out := make([]Terms, len(planTable))
	copy(out, planTable)
	return out
}

func TermsOf(p Plan) (Terms, error) {
	for _, t := range planTable {
		if t.Plan == p {
			return t, nil
		}
	}
	return Terms{}, apperr.Validation("unknown plan %q (use monthly, quarterly or yearly)", p)
}

// Derive returns the end date and the amount of a plan started on start.
func Derive(p Plan, start time.Time) (time.Time, decimal.Decimal, error) {
	t, err := TermsOf(p)
	if err != nil {
		return time.Time{}, decimal.Zero, err
	}
	return start.AddDate(0, 0, t.Days), t.Price, nil
}
