package solar

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Input formats recognised by DetectFormat.
const (
	FormatSIDC        = "sidc"
	FormatSIDCMonthly = "sidc_monthly"
	FormatSFIJSON     = "sfi_json"
	FormatGFZ         = "gfz"
	FormatKpJSON      = "noaa_kp"
	FormatUnknown     = "unknown"
)

// BucketHours are the 3-hour Kp bucket start hours (UTC).
var BucketHours = [8]int{0, 3, 6, 9, 12, 15, 18, 21}

// SFIRecord represents a record from NOAA SFI JSON
type SFIRecord struct {
	TimeTag      string  `json:"time-tag"`
	SSN          float64 `json:"ssn"`
	SmoothedSSN  float64 `json:"smoothed_ssn"`
	ObservedSWPC float64 `json:"observed_swpc_ssn"`
	SmoothedSWPC float64 `json:"smoothed_swpc_ssn"`
	F107         float64 `json:"f10.7"`
	SmoothedF107 float64 `json:"smoothed_f10.7"`
}

func validDate(year, month, day int) bool {
	return year >= 1900 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}

// ParseSIDC parses SIDC format: YYYY;MM;DD;decimal_year;SSN;std_dev;observations;flag
// Missing SSN values (-1) are skipped.
func ParseSIDC(r io.Reader, sourceFile string) ([]Index, error) {
	var out []Index
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) < 5 {
			continue
		}

		year, _ := strconv.Atoi(strings.TrimSpace(fields[0]))
		month, _ := strconv.Atoi(strings.TrimSpace(fields[1]))
		day, _ := strconv.Atoi(strings.TrimSpace(fields[2]))
		ssn, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 32)
		if err != nil || ssn < 0 || !validDate(year, month, day) {
			continue
		}

		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		ix := newIndex(date, date, sourceFile)
		ix.SSN = float32(ssn)
		out = append(out, ix)
	}

	return out, scanner.Err()
}

// ParseSIDCMonthly parses the SIDC monthly file:
// YYYY;MM;decimal_year;SSN;std_dev;observations;flag. Months are dated on the
// 15th and missing SSN values (-1) are skipped.
func ParseSIDCMonthly(r io.Reader, sourceFile string) ([]Index, error) {
	var out []Index
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, ";")
		if len(fields) < 4 {
			continue
		}
		year, _ := strconv.Atoi(strings.TrimSpace(fields[0]))
		month, _ := strconv.Atoi(strings.TrimSpace(fields[1]))
		ssn, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 32)
		if err != nil || ssn < 0 || !validDate(year, month, 15) {
			continue
		}

		date := time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
		ix := newIndex(date, date, sourceFile)
		ix.SSN = float32(ssn)
		out = append(out, ix)
	}

	return out, scanner.Err()
}

// ParseSFIJSON parses the NOAA observed-solar-cycle-indices JSON. Monthly
// records are dated on the 15th.
func ParseSFIJSON(r io.Reader, sourceFile string) ([]Index, error) {
	var records []SFIRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, errors.Wrap(err, "decode SFI json")
	}

	out := make([]Index, 0, len(records))
	for _, rec := range records {
		// Parse time-tag "YYYY-MM" to date
		parts := strings.Split(rec.TimeTag, "-")
		if len(parts) != 2 {
			continue
		}

		year, _ := strconv.Atoi(parts[0])
		month, _ := strconv.Atoi(parts[1])
		if !validDate(year, month, 15) {
			continue
		}

		date := time.Date(year, time.Month(month), 15, 0, 0, 0, 0, time.UTC)
		ix := newIndex(date, date, sourceFile)
		ix.ObservedFlux = orMissing(rec.F107)
		ix.AdjustedFlux = orMissing(rec.SmoothedF107)
		ix.SSN = orMissing(rec.SSN)
		out = append(out, ix)
	}

	return out, nil
}

func orMissing(v float64) float32 {
	if v < 0 {
		return Missing
	}
	return float32(v)
}

// GFZDay holds one parsed day from the GFZ Kp file.
type GFZDay struct {
	Date   time.Time
	Kp     [8]float32 // 3-hourly Kp (0-9 scale)
	Ap     [8]float32 // 3-hourly ap
	DayAp  float32
	SSN    float32
	SFIObs float32 // observed F10.7
	SFIAdj float32 // adjusted F10.7
}

// Indices expands the day into its eight 3-hour bucket rows. SSN and SFI are
// replicated across buckets; Kp/ap are bucket-specific.
func (d GFZDay) Indices(sourceFile string) []Index {
	out := make([]Index, len(BucketHours))
	for i, hour := range BucketHours {
		ix := newIndex(d.Date, d.Date.Add(time.Duration(hour)*time.Hour), sourceFile)
		ix.ObservedFlux = d.SFIObs
		ix.AdjustedFlux = d.SFIAdj
		ix.SSN = d.SSN
		ix.KpIndex = d.Kp[i]
		ix.ApIndex = d.Ap[i]
		out[i] = ix
	}
	return out
}

// MaxKp returns the largest 3-hour Kp of the day, Missing when none was
// reported.
func (d GFZDay) MaxKp() float32 {
	m := Missing
	for _, kp := range d.Kp {
		if kp > m {
			m = kp
		}
	}
	return m
}

// ParseGFZLine parses one data line from the GFZ Kp file.
// Format (whitespace-delimited):
//
//	Col  0: Year
//	Col  1: Month
//	Col  2: Day
//	Col  3: Days (day of year)
//	Col  4: Days_m (modified Julian)
//	Col  5: Bsr (Bartels rotation)
//	Col  6: dB (day within rotation)
//	Col  7-14: Kp1..Kp8 (3-hourly, decimal 0.000-9.000)
//	Col 15-22: ap1..ap8 (3-hourly)
//	Col 23: Ap (daily)
//	Col 24: SN (sunspot number)
//	Col 25: F10.7obs
//	Col 26: F10.7adj
//
// Missing values (-1.000 or -1) are stored as Missing.
func ParseGFZLine(line string) (GFZDay, bool) {
	fields := strings.Fields(line)
	if len(fields) < 27 {
		return GFZDay{}, false
	}

	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return GFZDay{}, false
	}
	month, _ := strconv.Atoi(fields[1])
	day, _ := strconv.Atoi(fields[2])
	if !validDate(year, month, day) {
		return GFZDay{}, false
	}

	d := GFZDay{
		Date: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC),
	}
	for i := 0; i < 8; i++ {
		d.Kp[i] = parseValue(fields[7+i])
		d.Ap[i] = parseValue(fields[15+i])
	}
	d.DayAp = parseValue(fields[23])
	d.SSN = parseValue(fields[24])
	d.SFIObs = parseValue(fields[25])
	d.SFIAdj = parseValue(fields[26])

	return d, true
}

func parseValue(s string) float32 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 32)
	if err != nil {
		return Missing
	}
	return orMissing(v)
}

// ParseGFZ reads the GFZ file and returns days within [startDate, endDate].
// Zero bounds are open.
func ParseGFZ(r io.Reader, startDate, endDate time.Time) ([]GFZDay, error) {
	var days []GFZDay
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		d, ok := ParseGFZLine(line)
		if !ok {
			continue
		}
		if !startDate.IsZero() && d.Date.Before(startDate) {
			continue
		}
		if !endDate.IsZero() && d.Date.After(endDate) {
			continue
		}

		days = append(days, d)
	}

	return days, scanner.Err()
}

// ParseKpJSON parses the NOAA SWPC planetary K-index product: a JSON array of
// string rows whose first row names the columns
// (["time_tag","Kp","a_running","station_count"]).
func ParseKpJSON(r io.Reader, sourceFile string) ([]Index, error) {
	var rows [][]string
	if err := json.NewDecoder(r).Decode(&rows); err != nil {
		return nil, errors.Wrap(err, "decode Kp json")
	}
	if len(rows) == 0 {
		return nil, nil
	}

	timeCol, kpCol, apCol := -1, -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(name) {
		case "time_tag":
			timeCol = i
		case "kp":
			kpCol = i
		case "a_running":
			apCol = i
		}
	}
	if timeCol < 0 || kpCol < 0 {
		return nil, errors.Errorf("Kp json header missing time_tag/Kp: %v", rows[0])
	}

	out := make([]Index, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) <= timeCol || len(row) <= kpCol {
			continue
		}
		ts, err := parseTimeTag(row[timeCol])
		if err != nil {
			continue
		}
		ix := newIndex(Day(ts), ts, sourceFile)
		ix.KpIndex = parseValue(row[kpCol])
		if apCol >= 0 && apCol < len(row) {
			ix.ApIndex = parseValue(row[apCol])
		}
		out = append(out, ix)
	}
	return out, nil
}

var timeTagLayouts = []string{
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func parseTimeTag(s string) (time.Time, error) {
	for _, layout := range timeTagLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Errorf("unrecognised time tag %q", s)
}

// DetectFormat determines the file format based on name and content.
// Compression suffixes (.gz, .zst) are ignored.
func DetectFormat(filePath string) string {
	base := strings.ToLower(filepath.Base(stripCompression(filePath)))
	ext := filepath.Ext(base)

	switch {
	case ((strings.HasPrefix(base, "sidc_") && strings.Contains(base, "monthly")) || strings.HasPrefix(base, "sn_m_tot")) && ext == ".csv":
		return FormatSIDCMonthly
	case (strings.HasPrefix(base, "sidc_") || strings.HasPrefix(base, "sn_d_tot")) && ext == ".csv":
		return FormatSIDC
	case strings.HasPrefix(base, "kp_ap_ap_sn_f107"):
		return FormatGFZ
	case strings.Contains(base, "k-index") || strings.Contains(base, "k_index") || strings.Contains(base, "kp_index"):
		if ext == ".json" {
			return FormatKpJSON
		}
	case strings.Contains(base, "flux") && !strings.Contains(base, "xray") && (ext == ".txt" || ext == ".json"):
		if firstByte(filePath) == '[' {
			return FormatSFIJSON
		}
	}
	return FormatUnknown
}

func firstByte(filePath string) byte {
	rc, err := OpenSource(filePath)
	if err != nil {
		return 0
	}
	defer rc.Close()

	br := bufio.NewReader(rc)
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0
		}
		if b != ' ' && b != '\n' && b != '\r' && b != '\t' {
			return b
		}
	}
}

// ParseFile opens filePath (decompressing if needed), detects its format
// and returns its rows. GFZ days are expanded to 3-hour rows.
func ParseFile(filePath string) ([]Index, string, error) {
	format := DetectFormat(filePath)
	if format == FormatUnknown {
		return nil, format, nil
	}

	rc, err := OpenSource(filePath)
	if err != nil {
		return nil, format, err
	}
	defer rc.Close()

	source := filepath.Base(filePath)
	var rows []Index
	switch format {
	case FormatSIDC:
		rows, err = ParseSIDC(rc, source)
	case FormatSIDCMonthly:
		rows, err = ParseSIDCMonthly(rc, source)
	case FormatSFIJSON:
		rows, err = ParseSFIJSON(rc, source)
	case FormatKpJSON:
		rows, err = ParseKpJSON(rc, source)
	case FormatGFZ:
		var days []GFZDay
		days, err = ParseGFZ(rc, time.Time{}, time.Time{})
		for _, d := range days {
			rows = append(rows, d.Indices(source)...)
		}
	}
	if err != nil {
		return nil, format, errors.Wrapf(err, "parse %s", source)
	}
	return rows, format, nil
}

// FileSize returns the on-disk size of path, 0 if it cannot be read.
func FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
