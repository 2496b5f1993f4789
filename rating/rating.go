// Package rating derives 0–100 scores from a company snapshot.
//
// All functions are pure. For inputs that are present, inclusion rules differ
// between categories: valuation components count only for strictly positive
// inputs, growth components always count, the current ratio counts when
// positive and debt/equity when non-negative. Inputs missing from the
// snapshot, or present only as text, never count.
package rating

import (
	"math"

	"github.com/use-agent/finrate/models"
)

// Snapshot labels for each input. The first label holding a number wins;
// the long form comes first, then the label the quote page actually prints.
var (
	FieldPE           = []string{"P/E"}
	FieldPEG          = []string{"PEG"}
	FieldPB           = []string{"P/B"}
	FieldEPSGrowth    = []string{"EPS growth next 5 years", "EPS next 5Y"}
	FieldSalesGrowth  = []string{"Sales growth past 5 years", "Sales past 5Y"}
	FieldCurrentRatio = []string{"Current Ratio", "Curr R"}
	FieldDebtEquity   = []string{"Debt/Equity", "Debt/Eq"}
)

// Input is one scoring input. OK is false when the snapshot lacks it.
type Input struct {
	Value float64
	OK    bool
}

// Inputs are the scoring inputs read from a snapshot.
type Inputs struct {
	PE, PEG, PB              Input
	EPSGrowth, SalesGrowth   Input
	CurrentRatio, DebtEquity Input
}

// ReadInputs picks the scoring inputs out of a snapshot.
func ReadInputs(s models.CompanySnapshot) Inputs {
	read := func(aliases []string) Input {
		v, ok := s.Lookup(aliases...)
		return Input{Value: v, OK: ok}
	}
	return Inputs{
		PE:           read(FieldPE),
		PEG:          read(FieldPEG),
		PB:           read(FieldPB),
		EPSGrowth:    read(FieldEPSGrowth),
		SalesGrowth:  read(FieldSalesGrowth),
		CurrentRatio: read(FieldCurrentRatio),
		DebtEquity:   read(FieldDebtEquity),
	}
}

// Rate computes the full rating set for a snapshot.
func Rate(s models.CompanySnapshot) models.RatingSet {
	return ReadInputs(s).Rate()
}

// Rate computes the full rating set for in.
func (in Inputs) Rate() models.RatingSet {
	var valuation, growth, health []float64

	if in.PE.OK && in.PE.Value > 0 {
		valuation = append(valuation, PEComponent(in.PE.Value))
	}
	if in.PEG.OK && in.PEG.Value > 0 {
		valuation = append(valuation, PEGComponent(in.PEG.Value))
	}
	if in.PB.OK && in.PB.Value > 0 {
		valuation = append(valuation, PBComponent(in.PB.Value))
	}

	if in.EPSGrowth.OK {
		growth = append(growth, GrowthComponent(in.EPSGrowth.Value))
	}
	if in.SalesGrowth.OK {
		growth = append(growth, GrowthComponent(in.SalesGrowth.Value))
	}

	if in.CurrentRatio.OK && in.CurrentRatio.Value > 0 {
		health = append(health, CurrentRatioComponent(in.CurrentRatio.Value))
	}
	if in.DebtEquity.OK && in.DebtEquity.Value >= 0 {
		health = append(health, DebtEquityComponent(in.DebtEquity.Value))
	}

	r := models.RatingSet{
		ValuationScore:       mean(valuation...),
		GrowthScore:          mean(growth...),
		FinancialHealthScore: mean(health...),
	}
	r.OverallScore = mean(r.ValuationScore, r.GrowthScore, r.FinancialHealthScore)
	return r
}

// PEComponent scores a P/E ratio: 30 and above is 0, lower is better.
func PEComponent(pe float64) float64 { return clamp((30 - pe) * 3.33) }

// PEGComponent scores a PEG ratio: 1 is best.
func PEGComponent(peg float64) float64 { return clamp((2 - math.Abs(1-peg)) * 50) }

// PBComponent scores a P/B ratio: 5 and above is 0.
func PBComponent(pb float64) float64 { return clamp((5 - pb) * 20) }

// GrowthComponent scores a growth percentage: 20% and above is 100.
func GrowthComponent(g float64) float64 { return clamp(g * 5) }

// CurrentRatioComponent scores a current ratio: 2 and above is 100.
func CurrentRatioComponent(r float64) float64 { return clamp(r * 50) }

// DebtEquityComponent scores debt/equity: 0 is 100, 2 and above is 0.
func DebtEquityComponent(de float64) float64 { return clamp((2 - de) * 50) }

// ValuationScore scores raw ratios with every input present.
func ValuationScore(pe, peg, pb float64) float64 {
	return Inputs{PE: Input{pe, true}, PEG: Input{peg, true}, PB: Input{pb, true}}.Rate().ValuationScore
}

// GrowthScore scores raw growth figures with both inputs present.
func GrowthScore(epsGrowth, salesGrowth float64) float64 {
	return Inputs{EPSGrowth: Input{epsGrowth, true}, SalesGrowth: Input{salesGrowth, true}}.Rate().GrowthScore
}

// FinancialHealthScore scores raw balance-sheet ratios with both inputs
// present.
func FinancialHealthScore(currentRatio, debtEquity float64) float64 {
	return Inputs{CurrentRatio: Input{currentRatio, true}, DebtEquity: Input{debtEquity, true}}.Rate().FinancialHealthScore
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

func mean(vs ...float64) float64 {
	if len(vs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
