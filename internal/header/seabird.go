package header

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sea-Bird SBE 19plus samples at 4 Hz.
const seaBirdScanInterval = 0.25

var (
	castDateLayouts  = []string{"2 Jan 2006 15:04:05", "Jan 2 2006 15:04:05"}
	startTimeLayouts = []string{"Jan 2 2006 15:04:05", "2 Jan 2006 15:04:05", "2006-01-02T15:04:05"}
)

// SeaBirdCNV is the Sea-Bird .cnv layout: "*" lines come from the
// instrument, "#" lines from SBE Data Processing and "*END*" closes the
// header.
var SeaBirdCNV = &Format{
	Name:             "sbe-cnv",
	Extensions:       []string{".cnv"},
	InstrumentMarker: "*",
	ProcessedMarker:  "#",
	Terminator:       regexp.MustCompile(`^\*END\*`),
	ScanInterval:     seaBirdScanInterval,
	InstrumentRules:  seaBirdInstrumentRules,
	ProcessedRules:   seaBirdProcessedRules,
}

var (
	sensorIDRule   = rule("sensor_id", `<[Ss]ensor\s+id\s*=\s*'([^']*[^'\s])'\s*>`, appendString(sensorIDs, 1))
	sensorTypeRule = rule("sensor_type", `<[tT]ype>\s*(.*\S)\s*</[tT]ype>`, appendString(sensorTypes, 1))
)

var seaBirdInstrumentRules = []Rule{
	// * SBE 19plus V 2.3 SERIAL NO. 1234
	rule("banner", `^\*\s*(SBE|SeacatPlus)\s*(\S*)\s+V\s+(\S+)\s+SERIAL NO\.\s*(\d+)`,
		all(setString(model, 1), setString(variant, 2), setString(firmware, 3), setString(serial, 4))),
	// * <HardwareData DeviceType='SBE19plus' SerialNumber='01906789'>
	rule("hardware_data", `<HardwareData\s+DeviceType='([^']+)'\s+SerialNumber='([^']+)'>`,
		all(setString(model, 1), setString(serial, 2))),
	// * Sea-Bird SBE 9 Data File:
	rule("data_file", `^\*\s*Sea-Bird\s+(.*?)\s*Data File:`, setString(model, 1)),
	rule("firmware_xml", `<FirmwareVersion>\s*(\S+)\s*</FirmwareVersion>`, setString(firmware, 1)),
	rule("scan_avg", `number of scans to average\s*=\s*(\d+)`, setInt(scanAvg, 1)),
	rule("scan_avg_xml", `<ScansToAverage>\s*(\d+)\s*</ScansToAverage>`, setInt(scanAvg, 1)),
	// * vbatt = 13.1, vlith = 8.5, ioper = 61.5 ma, ipump = 25.0 ma,
	// * samples = 5178, free = 4494518, casts = 1
	rule("memory", `samples\s*=\s*(\d+),\s*free\s*=\s*(\d+),\s*casts\s*=\s*(\d+)`,
		all(setInt(sampleCount, 1), setInt(castCount, 3))),
	rule("sample_interval", `sample interval\s*=\s*(\d+(?:\.\d+)?)\s+(\w+)`, sampleInterval(interval, 1, 2)),
	rule("sample_interval_xml", `<SampleInterval>\s*(\S+)\s*</SampleInterval>`, setFloat(interval, 1)),
	rule("measurements_per_sample", `(?i)measurements?\s+per\s+sample\s*=\s*(\d+)`, setInt(perSample, 1)),
	rule("mode", `(?i)\bmode\s*=\s*(profile|moored)\b`, setString(loggingMode, 1)),
	rule("pressure_sensor", `(?i)pressure sensor\s*=\s*([^,]*[^,\s])`, setString(pressureSensor, 1)),
	// * cast   1 05 Jan 2011 10:36:18 samples 1 to 2733, avg = 1, stop = mag switch
	rule("cast", `^\*\s*cast\s+(\d+)\s+(\d{1,2}\s+\w{3}\s+\d{4}\s+\d{2}:\d{2}:\d{2})\s+samples\s+(\d+)\s+to\s+(\d+),\s+(avg|int)\s*=\s*(\d+(?:\.\d+)?)`,
		appendCast),
	sensorIDRule,
	sensorTypeRule,
	// ** Station: 12
	rule("user", `^\*\*\s*([^:=]*[^:=\s])\s*[:=]\s*(.*)$`, extra(1, 2)),
	rule("name_value", `^\*\s*([^\s=:<>*][^\s=:<>]*)\s*=\s*([^\s=]+)\s*$`, extra(1, 2)),
}

var seaBirdProcessedRules = []Rule{
	// # name 0 = prdM: Pressure, Strain Gauge [db]
	rule("column_name", `^#\s*name\s+\d+\s*=\s*(.+?)\s*$`, appendString(columns, 1)),
	rule("nquan", `^#\s*nquan\s*=\s*(\d+)`, setInt(numColumns, 1)),
	rule("nvalues", `^#\s*nvalues\s*=\s*(\d+)`, setInt(valueCount, 1)),
	// # start_time = Jan 05 2011 10:36:18 [Instrument's time stamp, header]
	rule("start_time", `^#\s*start_time\s*=\s*(\w{3}\s+\d{1,2}\s+\d{4}\s+\d{2}:\d{2}:\d{2})`,
		setTime(startTime, 1, startTimeLayouts...)),
	rule("bad_flag", `^#\s*bad_flag\s*=\s*(\S+)`, set(badFlag, flagValue)),
	rule("bin_size", `^#\s*binavg_binsize\s*=\s*(\S+)`, setFloat(binSize, 1)),
	// # interval = seconds: 0.25
	rule("interval", `^#\s*interval\s*=\s*(seconds|minutes|hours|days):\s*(\S+)`, sampleInterval(procInterval, 2, 1)),
	sensorIDRule,
	sensorTypeRule,
	rule("name_value", `^#\s*([^\s=<>][^=<>]*?)\s*=\s*(.*\S)\s*$`, extra(1, 2)),
}

func flagValue(m []string) (*float64, error) {
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parse bad_flag %q: %w", m[1], err)
	}
	return &v, nil
}

// appendCast turns a cast line into a Cast and hands it to the cast policy.
// "avg = n" counts averaged scans, "int = n" is an interval in seconds.
func appendCast(m []string, env Env) (func(*Record), error) {
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, err
	}
	date, err := ParseTime(m[2], castDateLayouts)
	if err != nil {
		return nil, err
	}
	start, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, err
	}
	end, err := strconv.Atoi(m[4])
	if err != nil {
		return nil, err
	}
	n, err := strconv.ParseFloat(m[6], 64)
	if err != nil {
		return nil, err
	}

	avg := n
	if strings.EqualFold(m[5], "avg") {
		avg = n * env.ScanInterval
	}

	c := Cast{Number: num, Date: date, Start: start, End: end, AvgInterval: avg}
	policy := env.Casts
	if policy == nil {
		policy = DistinctCasts
	}
	return func(r *Record) { r.Casts = policy(r.Casts, c) }, nil
}
