package normalise

import (
	"github.com/banshee-data/ctdconvert/internal/dataset"
	"github.com/banshee-data/ctdconvert/internal/ingest"
)

// timeSeries indexes every column on TIME. Position and nominal depth are
// unknown at this stage and are emitted as missing scalars.
func (l *layout) timeSeries(table *ingest.Table, axis dataset.Instants) {
	l.dim("TIME", dataset.AxisTime, axis)

	l.variable("TIMESERIES", dataset.Ints{1})
	l.variable("LATITUDE", dataset.MissingValues(1))
	l.variable("LONGITUDE", dataset.MissingValues(1))
	l.variable("NOMINAL_DEPTH", dataset.MissingValues(1))

	for _, c := range table.Columns {
		if skipColumn(c) {
			continue
		}
		l.column(c, columnData(c), TimeSeriesCoordinates, "TIME")
	}
}

func columnData(c *ingest.Column) dataset.Array {
	if c.Kind == ingest.Text {
		return dataset.Labels(c.Text)
	}
	return c.Values
}
