package calculation

// StrategyKind identifies an investment rule.
type StrategyKind int

const (
	NoInvest StrategyKind = iota
	Basic
	NWFraction
	SafeNWFraction
	SafeNWCashFraction
	CashRatioCeiling
)

var strategyNames = map[string]StrategyKind{
	"NoInvest":           NoInvest,
	"Basic":              Basic,
	"NWFraction":         NWFraction,
	"SafeNWFraction":     SafeNWFraction,
	"SafeNWCashFraction": SafeNWCashFraction,
	"CashRatioCeiling":   CashRatioCeiling,
}

func (k StrategyKind) String() string {
	for name, kind := range strategyNames {
		if kind == k {
			return name
		}
	}
	return "NoInvest"
}

// ParseStrategy maps a configured name to a kind. Unknown names resolve to
// NoInvest with ok set to false.
func ParseStrategy(name string) (StrategyKind, bool) {
	k, ok := strategyNames[name]
	if !ok {
		return NoInvest, false
	}
	return k, true
}

// Holdings is the read-only portfolio view a strategy needs.
type Holdings interface {
	CashBalance() float64
	AssetValue() float64
}

// Strategy decides how much cash to move into stocks each week.
type Strategy struct {
	Kind           StrategyKind
	InvestFactor   float64
	CashBaseFactor float64
	CashBaseAmt    float64
	CashCeiling    float64
}

// InvestAmount returns this week's contribution given the paycheck credited
// this week (zero on odd weeks).
func (s Strategy) InvestAmount(h Holdings, postTax float64) float64 {
	cash := h.CashBalance()
	f := s.InvestFactor
	switch s.Kind {
	case Basic:
		return f * postTax
	case NWFraction:
		return f * cash
	case SafeNWFraction:
		if cash > s.CashBaseAmt {
			return f*cash + f*postTax
		}
		return f * postTax
	case SafeNWCashFraction:
		return s.cashFloored(cash, postTax, h.AssetValue())
	case CashRatioCeiling:
		amount := s.cashFloored(cash, postTax, h.AssetValue())
		if cash > s.CashCeiling {
			amount += cash - s.CashCeiling
		}
		return amount
	default:
		return 0
	}
}

func (s Strategy) cashFloored(cash, postTax, assets float64) float64 {
	f := s.InvestFactor
	if cash > s.CashBaseFactor*assets+s.CashBaseAmt {
		return f*cash + f*postTax
	}
	return f * postTax
}
