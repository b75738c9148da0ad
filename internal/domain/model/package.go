package model

// CreditPackage is a purchasable credit bundle. The catalog is fixed at
// deploy time; prices are in BRL cents.
type CreditPackage struct {
	ID         string
	Name       string
	PriceCents int64
	Credits    int
}

// Packages is the sale catalog, keyed by package id.
var Packages = map[string]CreditPackage{
	"starter": {ID: "starter", Name: "Starter", PriceCents: 1900, Credits: 10},
	"family":  {ID: "family", Name: "Family", PriceCents: 4900, Credits: 35},
	"pro":     {ID: "pro", Name: "Professional", PriceCents: 9900, Credits: 100},
}

// PackageOrder lists catalog ids cheapest first, for stable API output.
var PackageOrder = []string{"starter", "family", "pro"}

// FindPackage returns the catalog entry for id, or false when unknown.
func FindPackage(id string) (CreditPackage, bool) {
	p, ok := Packages[id]
	return p, ok
}
