// CLAUDE:SUMMARY Per-role line decoders returning a Decoded outcome (record or skip reason) with header-driven column resolution.
package storet

import "strings"

// SkipReason explains why a data line produced no record.
type SkipReason string

const (
	SkipBlank  SkipReason = "blank"
	SkipShort  SkipReason = "short"
	SkipHeader SkipReason = "header"
	SkipNoKey  SkipReason = "no_key"
)

// Decoded is the outcome of decoding one line: either Record is valid, or
// Skip names the reason the line was dropped.
type Decoded[T any] struct {
	Record T
	Skip   SkipReason
}

// OK reports whether the line produced a record.
func (d Decoded[T]) OK() bool { return d.Skip == "" }

func parsed[T any](v T) Decoded[T]            { return Decoded[T]{Record: v} }
func skipped[T any](r SkipReason) Decoded[T] { return Decoded[T]{Skip: r} }

// Minimum field counts per role.
const (
	minInventoryFields = 3
	minStationFields   = 2
	minResultFields    = 10
)

// Header maps trimmed column names from a file's first line to indices.
type Header struct {
	idx map[string]int
}

// ParseHeader splits the header line on tabs. A repeated column name maps
// to its last occurrence.
func ParseHeader(line string) Header {
	h := Header{idx: make(map[string]int)}
	for i, name := range splitFields(line) {
		if name != "" {
			h.idx[name] = i
		}
	}
	return h
}

// Column returns the index of name, or fallback when the header lacks it.
// Negative fallbacks count from the end of the row.
func (h Header) Column(name string, fallback int) int {
	if i, ok := h.idx[name]; ok {
		return i
	}
	return fallback
}

func splitFields(line string) []string {
	fields := strings.Split(line, "\t")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	return fields
}

// field returns row[i], counting from the end when i is negative, or ""
// when out of range.
func field(row []string, i int) string {
	if i < 0 {
		i += len(row)
	}
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// InventoryDecoder decodes parameter definitions.
type InventoryDecoder struct {
	code, short, long int
}

// NewInventoryDecoder resolves inventory columns against h.
func NewInventoryDecoder(h Header) InventoryDecoder {
	return InventoryDecoder{
		code:  h.Column("Code", 0),
		short: h.Column("Short Name", 1),
		long:  h.Column("Long Name", 2),
	}
}

// Decode parses one inventory line.
func (d InventoryDecoder) Decode(line string) Decoded[Parameter] {
	if isBlank(line) {
		return skipped[Parameter](SkipBlank)
	}
	row := splitFields(line)
	if len(row) < minInventoryFields {
		return skipped[Parameter](SkipShort)
	}
	code := field(row, d.code)
	switch {
	case code == "":
		return skipped[Parameter](SkipNoKey)
	case code == "Code" || strings.HasPrefix(code, "---"):
		return skipped[Parameter](SkipHeader)
	}
	return parsed(Parameter{
		Code:      code,
		ShortName: field(row, d.short),
		LongName:  field(row, d.long),
	})
}

// StationDecoder decodes station metadata. State is always the configured
// state name; County falls back to the county derived from the file location.
type StationDecoder struct {
	state, county string

	agency, id, name, agencyName, countyCol, lat, lon, huc, stationType int
}

// NewStationDecoder resolves station columns against h.
func NewStationDecoder(h Header, state, county string) StationDecoder {
	return StationDecoder{
		state:       state,
		county:      county,
		agency:      h.Column("Agency", 0),
		id:          h.Column("Station", 1),
		name:        h.Column("Station Name", 2),
		agencyName:  h.Column("Agency Name", 3),
		countyCol:   h.Column("County Name", 5),
		lat:         h.Column("Latitude", 6),
		lon:         h.Column("Longitude", 7),
		huc:         h.Column("HUC", 8),
		stationType: h.Column("Station Type", -4),
	}
}

// Decode parses one station line. Unparsable coordinates become nil; the
// station is still returned.
func (d StationDecoder) Decode(line string) Decoded[Station] {
	if isBlank(line) {
		return skipped[Station](SkipBlank)
	}
	row := splitFields(line)
	if len(row) < minStationFields {
		return skipped[Station](SkipShort)
	}
	id := field(row, d.id)
	switch {
	case id == "":
		return skipped[Station](SkipNoKey)
	case id == "Station" || strings.HasPrefix(id, "---"):
		return skipped[Station](SkipHeader)
	}
	county := field(row, d.countyCol)
	if county == "" {
		county = d.county
	}
	return parsed(Station{
		Agency:      field(row, d.agency),
		StationID:   id,
		StationName: field(row, d.name),
		AgencyName:  field(row, d.agencyName),
		State:       d.state,
		County:      county,
		Latitude:    ParseCoord(field(row, d.lat)),
		Longitude:   ParseCoord(field(row, d.lon)),
		HUC:         field(row, d.huc),
		StationType: field(row, d.stationType),
		Description: row[len(row)-1],
	})
}

// ResultDecoder decodes measurements.
type ResultDecoder struct {
	agency, station, param, date, time, value, huc, depth int
}

// NewResultDecoder resolves result columns against h.
func NewResultDecoder(h Header) ResultDecoder {
	return ResultDecoder{
		agency:  h.Column("Agency", 0),
		station: h.Column("Station", 1),
		value:   h.Column("Result Value", 8),
		huc:     h.Column("HUC", 10),
		param:   h.Column("Param", 11),
		date:    h.Column("Start Date", 12),
		time:    h.Column("Start Time", 13),
		depth:   h.Column("Sample Depth", 16),
	}
}

// Decode parses one result line. The time code and value are copied
// verbatim; only the date is normalised.
func (d ResultDecoder) Decode(line string) Decoded[Result] {
	if isBlank(line) {
		return skipped[Result](SkipBlank)
	}
	row := splitFields(line)
	if len(row) < minResultFields {
		return skipped[Result](SkipShort)
	}
	return parsed(Result{
		Agency:      field(row, d.agency),
		StationID:   field(row, d.station),
		ParamCode:   field(row, d.param),
		StartDate:   NormalizeDate(field(row, d.date)),
		StartTime:   field(row, d.time),
		ResultValue: field(row, d.value),
		HUC:         field(row, d.huc),
		SampleDepth: field(row, d.depth),
	})
}
