package calc

import "math"

type Loan struct {
	Principal float64 `json:"principal"`
	APR       float64 `json:"apr"`
	TermYears int     `json:"term_years"`
}

type LoanTerms struct {
	MonthlyPayment float64 `json:"monthly_payment"`
	Payments       int     `json:"payments"`
	TotalPaid      float64 `json:"total_paid"`
	TotalInterest  float64 `json:"total_interest"`
}

type LoanYear struct {
	Year      int     `json:"year"`
	Interest  float64 `json:"interest"`
	Principal float64 `json:"principal"`
	Balance   float64 `json:"balance"`
}

func (l Loan) Validate() error {
	if !finite(l.Principal, l.APR) {
		return invalidf("loan values must be finite")
	}
	if l.APR < 0 {
		return invalidf("apr must not be negative")
	}
	if l.TermYears < 1 || l.TermYears > MaxTermYears {
		return invalidf("loan term must be 1 to %d years, got %d", MaxTermYears, l.TermYears)
	}
	return nil
}

// MonthlyPayment is the level payment of a fixed-rate amortized loan. A
// zero rate spreads the principal evenly; a principal that is zero or
// negative finances nothing.
func (l Loan) MonthlyPayment() float64 {
	if l.Principal <= 0 {
		return 0
	}
	n := float64(l.TermYears * MonthsPerYear)
	r := l.APR / 100 / MonthsPerYear
	if r == 0 {
		return l.Principal / n
	}
	growth := math.Pow(1+r, n)
	return l.Principal * r * growth / (growth - 1)
}

func Amortize(l Loan) (LoanTerms, error) {
	if err := l.Validate(); err != nil {
		return LoanTerms{}, err
	}
	payment := l.MonthlyPayment()
	n := l.TermYears * MonthsPerYear
	terms := LoanTerms{
		MonthlyPayment: payment,
		Payments:       n,
		TotalPaid:      payment * float64(n),
	}
	if l.Principal > 0 {
		terms.TotalInterest = terms.TotalPaid - l.Principal
	}
	if !finite(terms.MonthlyPayment, terms.TotalPaid, terms.TotalInterest) {
		return LoanTerms{}, invalidf("loan payment overflows")
	}
	return terms, nil
}

// Schedule rolls the loan forward month by month and reports one row per
// year.
func Schedule(l Loan) ([]LoanYear, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	payment := l.MonthlyPayment()
	if !finite(payment) {
		return nil, invalidf("loan payment overflows")
	}
	r := l.APR / 100 / MonthsPerYear
	balance := max(l.Principal, 0)

	years := make([]LoanYear, 0, l.TermYears)
	for year := 1; year <= l.TermYears; year++ {
		row := LoanYear{Year: year}
		for range MonthsPerYear {
			interest := balance * r
			principal := min(payment-interest, balance)
			balance -= principal
			row.Interest += interest
			row.Principal += principal
		}
		// Floating drift leaves crumbs on the final payment.
		if year == l.TermYears || balance < 1e-6 {
			balance = 0
		}
		row.Balance = balance
		years = append(years, row)
	}
	return years, nil
}
