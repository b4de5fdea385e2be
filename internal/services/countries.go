package services

import (
	"sort"
	"strings"
)

// Country is an entry of the nationality picker.
type Country struct {
	Name string
	Code string // ISO 3166-1 alpha-2, lower case
}

// FlagURL is the SVG flag served by flagcdn.
func (c Country) FlagURL() string {
	return "https://flagcdn.com/" + c.Code + ".svg"
}

var countryCodes = map[string]string{
	"Argentina":      "ar",
	"Australia":      "au",
	"Austria":        "at",
	"Belgium":        "be",
	"Brazil":         "br",
	"Bulgaria":       "bg",
	"Canada":         "ca",
	"Chile":          "cl",
	"China":          "cn",
	"Colombia":       "co",
	"Croatia":        "hr",
	"Czechia":        "cz",
	"Denmark":        "dk",
	"Egypt":          "eg",
	"Estonia":        "ee",
	"Finland":        "fi",
	"France":         "fr",
	"Germany":        "de",
	"Greece":         "gr",
	"Hungary":        "hu",
	"Iceland":        "is",
	"India":          "in",
	"Indonesia":      "id",
	"Ireland":        "ie",
	"Israel":         "il",
	"Italy":          "it",
	"Japan":          "jp",
	"Latvia":         "lv",
	"Lithuania":      "lt",
	"Luxembourg":     "lu",
	"Mexico":         "mx",
	"Morocco":        "ma",
	"Netherlands":    "nl",
	"New Zealand":    "nz",
	"Nigeria":        "ng",
	"Norway":         "no",
	"Peru":           "pe",
	"Philippines":    "ph",
	"Poland":         "pl",
	"Portugal":       "pt",
	"Romania":        "ro",
	"Serbia":         "rs",
	"Singapore":      "sg",
	"Slovakia":       "sk",
	"Slovenia":       "si",
	"South Africa":   "za",
	"South Korea":    "kr",
	"Spain":          "es",
	"Sweden":         "se",
	"Switzerland":    "ch",
	"Thailand":       "th",
	"Turkey":         "tr",
	"Ukraine":        "ua",
	"United Kingdom": "gb",
	"United States":  "us",
	"Vietnam":        "vn",
}

var countryList = func() []Country {
	list := make([]Country, 0, len(countryCodes))
	for name, code := range countryCodes {
		list = append(list, Country{Name: name, Code: code})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}()

// Countries returns the nationality options sorted by name.
func Countries() []Country {
	return countryList
}

// LookupCountry finds a country by name, case-insensitively.
func LookupCountry(name string) (Country, bool) {
	name = strings.TrimSpace(name)
	for _, c := range countryList {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Country{}, false
}
