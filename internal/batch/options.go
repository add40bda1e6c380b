package batch

import (
	"zonesheet/internal/classify"
	"zonesheet/internal/config"
	apperrors "zonesheet/internal/errors"
	"zonesheet/internal/zoning"
	"zonesheet/pkg/contracts/domain"
)

// Options configures a Driver.
type Options struct {
	Scheme   domain.Scheme
	Rule     zoning.GroupRule
	Policy   zoning.ConflictPolicy
	Classify classify.Options
	// Workers bounds the documents, origins or SSL groups handled at once.
	Workers int
	// Carrier, when set, is required in every document before it is parsed.
	Carrier string
}

// NewOptions derives driver options from the loaded configuration.
func NewOptions(cfg *config.Config) (Options, error) {
	scheme, err := domain.SchemeByName(cfg.Carrier.Scheme)
	if err != nil {
		return Options{}, apperrors.NewConfigError("invalid postal scheme", err)
	}
	rule, err := zoning.ParseGroupRule(cfg.Grouping.Rule, cfg.Grouping.PrefixLength)
	if err != nil {
		return Options{}, err
	}
	policy, err := zoning.ParseConflictPolicy(cfg.Merge.Policy)
	if err != nil {
		return Options{}, err
	}

	copts := classify.DefaultOptions(scheme)
	copts.ZoneColumn = cfg.Carrier.ZoneColumn

	return Options{
		Scheme:   scheme,
		Rule:     rule,
		Policy:   policy,
		Classify: copts,
		Workers:  cfg.Workers,
		Carrier:  cfg.Carrier.Carrier,
	}, nil
}

func (o Options) withDefaults() Options {
	if o.Scheme == nil {
		o.Scheme = domain.ZIP
	}
	if o.Rule == nil {
		o.Rule = zoning.BlockRule{}
	}
	if o.Policy == "" {
		o.Policy = zoning.LastWriteWins
	}
	if o.Classify.Scheme == nil {
		o.Classify = classify.DefaultOptions(o.Scheme)
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	return o
}

// SheetMeta returns the rate sheet metadata configured for the carrier.
func SheetMeta(cfg *config.Config) domain.SheetMeta {
	return domain.SheetMeta{
		CountryName:    cfg.Carrier.CountryName,
		CountrySymbol:  cfg.Carrier.CountrySymbol,
		ClientName:     cfg.Carrier.ClientName,
		Carrier:        cfg.Carrier.Carrier,
		CarrierAccount: cfg.Carrier.CarrierAccount,
	}
}
