package domain

// SSLMapping pairs a customer shipping location with one origin postal code.
type SSLMapping struct {
	SSL        string `json:"ssl" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
}

// SheetMeta is the caller-supplied metadata attached to rate sheet rows and
// used to name output files.
type SheetMeta struct {
	CountryName    string `json:"country_name" yaml:"country_name" validate:"required"`
	CountrySymbol  string `json:"country_symbol" yaml:"country_symbol" validate:"required,len=2"`
	ClientName     string `json:"client_name" yaml:"client_name" validate:"required"`
	Carrier        string `json:"carrier" yaml:"carrier" validate:"required"`
	CarrierAccount string `json:"carrier_account" yaml:"carrier_account" validate:"required"`
}

// RateSheetRow is one destination zone row of an SSL's rate sheet.
type RateSheetRow struct {
	SSL           string   `json:"ssl"`
	Origin        GroupKey `json:"origin"`
	CountryName   string   `json:"country_name"`
	CountrySymbol string   `json:"country_symbol"`
	Zone          Zone     `json:"zone"`
	City          string   `json:"city"`
	Start         string   `json:"start"`
	End           string   `json:"end"`
}

// DedupKey identifies rows that are exact duplicates in the output.
func (r RateSheetRow) DedupKey() [4]string {
	return [4]string{r.CountrySymbol, string(r.Zone), r.Start, r.End}
}
