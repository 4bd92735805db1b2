package model

import "strings"

// ReasonCategory is one bucket of the fixed ANS denial-reason taxonomy.
type ReasonCategory string

const (
	CategoryEligibility   ReasonCategory = "Registration/Eligibility"
	CategoryAuthorization ReasonCategory = "Authorization/Ancillary-care"
	CategoryPricingTable  ReasonCategory = "Pricing table"
	CategoryMedicalAudit  ReasonCategory = "Medical/Technical audit"
	CategoryDocumentation ReasonCategory = "Documentation/Physical"
	CategoryOther         ReasonCategory = "Other/Administrative"
)

var reasonCategoryMembers = map[string]ReasonCategory{
	"1001": CategoryEligibility,
	"1002": CategoryEligibility,
	"1003": CategoryEligibility,
	"1006": CategoryEligibility,
	"1009": CategoryEligibility,
	"1201": CategoryAuthorization,
	"1202": CategoryAuthorization,
	"1205": CategoryAuthorization,
	"1209": CategoryAuthorization,
	"1801": CategoryPricingTable,
	"1802": CategoryPricingTable,
	"1805": CategoryPricingTable,
	"1806": CategoryPricingTable,
	"2501": CategoryDocumentation,
	"2505": CategoryDocumentation,
	"2509": CategoryDocumentation,
}

// CategorizeReason maps an ANS denial-reason code into the fixed taxonomy:
// explicit membership first, then the "20"/"22" audit prefixes, then the
// administrative catch-all.
func CategorizeReason(code string) ReasonCategory {
	code = strings.TrimSpace(code)
	if cat, ok := reasonCategoryMembers[code]; ok {
		return cat
	}
	if strings.HasPrefix(code, "20") || strings.HasPrefix(code, "22") {
		return CategoryMedicalAudit
	}
	return CategoryOther
}
