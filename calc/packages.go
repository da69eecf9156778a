package calc

type Package struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Panels      int    `json:"panels"`
	Batteries   int    `json:"batteries"`
}

func (p Package) System() SystemConfiguration {
	return SystemConfiguration{Panels: p.Panels, Batteries: p.Batteries}
}

func RecommendedPackages() []Package {
	return []Package{
		{Name: "Essential Solar", Description: "Perfect for getting started with solar", Panels: 12},
		{Name: "Power Plus", Description: "Optimal balance of production and storage", Panels: 16, Batteries: 1},
		{Name: "Energy Independence", Description: "Maximum savings with battery backup", Panels: 20, Batteries: 2},
	}
}

type PackageQuote struct {
	Package Package `json:"package"`
	Quote   Quote   `json:"quote"`
}

// QuotePackages quotes every recommended package for the same household.
// req.System is ignored.
func (c *Calculator) QuotePackages(req QuoteRequest) ([]PackageQuote, error) {
	packages := RecommendedPackages()
	result := make([]PackageQuote, 0, len(packages))
	for _, pkg := range packages {
		system := pkg.System()
		req.System = &system
		q, err := c.Quote(req)
		if err != nil {
			return nil, err
		}
		result = append(result, PackageQuote{Package: pkg, Quote: q})
	}
	return result, nil
}
