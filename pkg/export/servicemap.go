package export

import "strings"

// ServiceLookup holds the carrier/service label data the transformer uses.
// It is immutable configuration injected into Flatten, not process state, so
// the transformer stays pure and testable with alternate tables.
type ServiceLookup struct {
	// Requested maps a normalized human-entered requested-service string to
	// its canonical label. Keys are lower-cased with collapsed whitespace.
	Requested map[string]string

	// Services maps "carrierCode|serviceCode" to a display label.
	Services map[string]string
}

// DefaultServiceLookup returns the standard lookup tables for the high-volume
// carrier and mode combinations this partner ships with.
func DefaultServiceLookup() ServiceLookup {
	return ServiceLookup{
		Requested: map[string]string{
			"ups ground":                "UPS Ground",
			"ups 2nd day air":           "UPS 2nd Day Air",
			"ups next day air":          "UPS Next Day Air",
			"usps priority mail":        "USPS Priority Mail",
			"usps parcel select ground": "USPS Parcel Select Ground",
			"usps first class mail":     "USPS First Class Mail",
			"fedex ground":              "FedEx Ground",
			"fedex home delivery":       "FedEx Home Delivery",
			"fedex 2day":                "FedEx 2Day",
		},
		Services: map[string]string{
			"ups|ups_ground":                 "UPS Ground",
			"ups|ups_2nd_day_air":            "UPS 2nd Day Air",
			"ups|ups_next_day_air":           "UPS Next Day Air",
			"stamps_com|usps_priority_mail":  "USPS Priority Mail",
			"stamps_com|usps_parcel_select":  "USPS Parcel Select Ground",
			"usps|usps_priority_mail":        "USPS Priority Mail",
			"usps|usps_parcel_select_ground": "USPS Parcel Select Ground",
			"fedex|fedex_ground":             "FedEx Ground",
			"fedex|fedex_home_delivery":      "FedEx Home Delivery",
			"fedex|fedex_2day":               "FedEx 2Day",
		},
	}
}

// serviceKey builds the Services map key for a carrier+service code pair.
func serviceKey(carrier, service string) string {
	return strings.ToLower(strings.TrimSpace(carrier)) + "|" + strings.ToLower(strings.TrimSpace(service))
}

// normalizeRequested canonicalizes a human-entered service string for table
// lookup: lower case, collapsed inner whitespace.
func normalizeRequested(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
