package ingest

import (
	"strings"
	"time"
	"unicode"
)

// channel describes how an instrument column maps onto an output variable.
type channel struct {
	name string
	// scale multiplies every value; zero means 1.
	scale float64
	// epoch and unit turn a numeric time code into an instant.
	epoch time.Time
	unit  time.Duration
	// julian marks day-of-year codes that need the deployment year.
	julian bool
	drop   bool
}

func (c channel) isTime() bool { return !c.epoch.IsZero() || c.julian }

// Sea-Bird SBE Data Processing short names.
var seaBirdChannels = map[string]channel{
	"prdM":        {name: "PRES_REL"},
	"prDM":        {name: "PRES_REL"},
	"prSM":        {name: "PRES_REL"},
	"t090C":       {name: "TEMP"},
	"t190C":       {name: "TEMP"},
	"tv290C":      {name: "TEMP"},
	"c0S/m":       {name: "CNDC"},
	"c1S/m":       {name: "CNDC"},
	"c0mS/cm":     {name: "CNDC", scale: 0.1},
	"c1mS/cm":     {name: "CNDC", scale: 0.1},
	"depSM":       {name: "DEPTH"},
	"depFM":       {name: "DEPTH"},
	"sal00":       {name: "PSAL"},
	"sal11":       {name: "PSAL"},
	"sbeox0Mm/L":  {name: "DOX1"},
	"sbeox1Mm/L":  {name: "DOX1"},
	"sbeox0ML/L":  {name: "DOX"},
	"sbeox0Mm/Kg": {name: "DOX2"},
	"flECO-AFL":   {name: "CPHL"},
	"flC":         {name: "CPHL"},
	"turbWETntu0": {name: "TURB"},
	"obs":         {name: "TURB"},
	"par":         {name: "PAR"},
	"density00":   {name: "DENS"},
	"sigma-t00":   {name: "SIGMA_T"},
	"svCM":        {name: "SSPD"},
	"timeY":       {name: "TIME", epoch: time.Unix(0, 0).UTC(), unit: time.Second},
	"timeQ":       {name: "TIME", epoch: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), unit: time.Second},
	"timeJ":       {name: "TIME", julian: true},
	"timeJV2":     {name: "TIME", julian: true},
	"flag":        {drop: true},
}

// RBR XR-420 channel labels. Conductivity is logged in mS/cm.
var rbrChannels = map[string]channel{
	"Cond":  {name: "CNDC", scale: 0.1},
	"Temp":  {name: "TEMP"},
	"Pres":  {name: "PRES"},
	"Depth": {name: "DEPTH"},
	"Sal":   {name: "PSAL"},
	"FlC":   {name: "CPHL"},
	"Turb":  {name: "TURB"},
	"DO":    {name: "DOX1"},
	"PAR":   {name: "PAR"},
}

// splitSeaBirdName splits "t090C: Temperature [ITS-90, deg C]" into the code
// and its description.
func splitSeaBirdName(s string) (code, desc string) {
	code, desc, _ = strings.Cut(s, ":")
	return strings.TrimSpace(code), strings.TrimSpace(desc)
}

func lookup(table map[string]channel, code string) channel {
	if ch, ok := table[code]; ok {
		return ch
	}
	return channel{name: sanitise(code)}
}

// sanitise turns an unknown instrument code into an upper-case identifier.
func sanitise(code string) string {
	var b strings.Builder
	underscore := false
	for _, r := range code {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	out := strings.TrimSuffix(b.String(), "_")
	if out == "" {
		return "UNKNOWN"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "V" + out
	}
	return out
}
