package header

import "regexp"

var rbrTimeLayouts = []string{"06/01/02 15:04:05", "2006/01/02 15:04:05", "2006-01-02 15:04:05"}

// RBRDat is the RBR XR-420 text export: unmarked header lines followed by a
// "Date & Time ..." row naming the data columns.
var RBRDat = &Format{
	Name:                     "rbr-dat",
	Extensions:               []string{".dat", ".txt"},
	Terminator:               regexp.MustCompile(`^Date\b`),
	TerminatorIsColumnHeader: true,
	RowTimeLayouts:           rbrTimeLayouts,
	InstrumentRules:          rbrRules,
}

var rbrRules = []Rule{
	// RBR XR-420 6.43 013431
	rule("banner", `^RBR\s+(\S+)\s+(\S+)\s+(\d+)\s*$`,
		all(setString(model, 1), setString(firmware, 2), setString(serial, 3))),
	rule("model", `^Model\s*=\s*(\S+)`, setString(model, 1)),
	rule("firmware", `^Firmware\s*=\s*(\S+)`, setString(firmware, 1)),
	rule("serial", `^Serial\s*=\s*(\S+)`, setString(serial, 1)),
	// Logging start 08/02/19 08:00:00
	rule("logging_start", `^Logging start\s+(\d{2,4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2})`,
		setTime(startTime, 1, rbrTimeLayouts...)),
	rule("logging_end", `^Logging end\s+(\d{2,4}/\d{2}/\d{2}\s+\d{2}:\d{2}:\d{2})`,
		setTime(endTime, 1, rbrTimeLayouts...)),
	// Sample period 00:00:01 (or 10 seconds)
	rule("sample_period", `^Sample period\s+(\d{1,2}:\d{2}:\d{2}(?:\.\d+)?|\d+(?:\.\d+)?\s+[A-Za-z]+)`, duration(interval, 1)),
	// Number of channels = 3, number of samples = 4096, mode: Logging Complete
	rule("channels", `^Number of channels\s*=\s*(\d+),\s*number of samples\s*=\s*(\d+)`,
		all(setInt(perSample, 1), setInt(sampleCount, 2))),
	// Channel 1: Cond
	rule("channel", `^(?:Channel|Calibration)\s+(\d+)\s*:\s*(\S+)`,
		all(appendString(sensorIDs, 1), appendString(sensorTypes, 2))),
	rule("name_value", `^([A-Za-z][\w ]*?)\s*[=:]\s*(.*\S)\s*$`, extra(1, 2)),
}
