package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "zonesheet/internal/errors"
	"zonesheet/pkg/contracts/domain"
)

func TestValidateMeta(t *testing.T) {
	valid := domain.SheetMeta{
		CountryName:    "United States",
		CountrySymbol:  "US",
		ClientName:     "Acme",
		Carrier:        "FedEx",
		CarrierAccount: "123456",
	}

	tests := []struct {
		name     string
		mutate   func(m *domain.SheetMeta)
		messages []string
	}{
		{"valid", func(*domain.SheetMeta) {}, nil},
		{"missing account", func(m *domain.SheetMeta) { m.CarrierAccount = "" }, []string{"carrier_account is required"}},
		{"long symbol", func(m *domain.SheetMeta) { m.CountrySymbol = "USA" }, []string{"country_symbol must be exactly 2 characters"}},
		{
			"several",
			func(m *domain.SheetMeta) { m.ClientName = ""; m.Carrier = "" },
			[]string{"client_name is required", "carrier is required"},
		},
	}

	s := NewStructValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := valid
			tt.mutate(&meta)
			err := s.ValidateMeta(meta)
			if len(tt.messages) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
			for _, m := range tt.messages {
				assert.Contains(t, err.Error(), m)
			}
		})
	}
}

func TestValidateStructMappings(t *testing.T) {
	s := NewStructValidator()
	assert.NoError(t, s.ValidateStruct(domain.SSLMapping{SSL: "NYC1", PostalCode: "00501"}))

	err := s.ValidateStruct(domain.SSLMapping{SSL: "NYC1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postal_code is required")
}
