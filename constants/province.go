package constants

import "strings"

type Province string

const (
	Alberta              Province = "AB"
	BritishColumbia      Province = "BC"
	Manitoba             Province = "MB"
	NewBrunswick         Province = "NB"
	NewfoundlandLabrador Province = "NL"
	NovaScotia           Province = "NS"
	NorthwestTerritories Province = "NT"
	Nunavut              Province = "NU"
	Ontario              Province = "ON"
	PrinceEdwardIsland   Province = "PE"
	Quebec               Province = "QC"
	Saskatchewan         Province = "SK"
	Yukon                Province = "YT"
)

var allProvinces = []Province{
	Alberta,
	BritishColumbia,
	Manitoba,
	NewBrunswick,
	NewfoundlandLabrador,
	NovaScotia,
	NorthwestTerritories,
	Nunavut,
	Ontario,
	PrinceEdwardIsland,
	Quebec,
	Saskatchewan,
	Yukon,
}

func AsStringSlice() []string {
	result := make([]string, len(allProvinces))
	for i, p := range allProvinces {
		result[i] = string(p)
	}
	return result
}

// IsProvince reports whether code names one of the 13 Canadian provinces and
// territories. Matching is case-insensitive; the canonical form is upper-case.
func IsProvince(code string) bool {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, p := range allProvinces {
		if string(p) == code {
			return true
		}
	}
	return false
}
