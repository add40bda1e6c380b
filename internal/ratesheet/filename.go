package ratesheet

import (
	"fmt"
	"strings"
	"time"

	"zonesheet/pkg/contracts/domain"
)

// DateLayout is the date prefix of rate sheet file names.
const DateLayout = "20060102"

var pathSeparators = strings.NewReplacer("/", "_", `\`, "_")

// FileName returns "YYYYMMDD-{SSL}-{client}-{carrier}-{account}.xlsx".
// Path separators inside the parts are replaced with underscores.
func FileName(date time.Time, ssl string, meta domain.SheetMeta) string {
	parts := []string{ssl, meta.ClientName, meta.Carrier, meta.CarrierAccount}
	for i, p := range parts {
		parts[i] = pathSeparators.Replace(strings.TrimSpace(p))
	}
	return fmt.Sprintf("%s-%s.xlsx", date.Format(DateLayout), strings.Join(parts, "-"))
}
