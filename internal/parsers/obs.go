package parsers

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tferro/esmcat/internal/catalog"
)

// AMWGObs parses an AMWG observational dataset filename of the form
// <source>_<variable>_..._<temporal>_climo.nc, where temporal is either a
// two-digit month number (monthly climatology) or a season code.
func AMWGObs(assetPath string) catalog.Record {
	stem := stemOf(assetPath)
	tokens := strings.Split(stem, "_")
	if len(tokens) < 3 {
		return catalog.Invalid(assetPath, fmt.Sprintf("filename %q does not follow the AMWG layout", stem))
	}

	source := tokens[0]
	variable := tokens[1]
	temporal := tokens[len(tokens)-2]
	timePeriod := "seasonal"
	if len(temporal) == 2 {
		month, err := strconv.Atoi(temporal)
		if err != nil || month < 1 || month > 12 {
			return catalog.Invalid(assetPath, fmt.Sprintf("bad month number %q", temporal))
		}
		timePeriod = "monthly"
		temporal = strings.ToUpper(time.Month(month).String()[:3])
	}

	return catalog.Record{
		"source":      source,
		"variable":    variable,
		"temporal":    temporal,
		"time_period": timePeriod,
		"path":        assetPath,
	}
}
