package solar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestdata(t *testing.T, name string) *os.File {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", name))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestParseSIDC(t *testing.T) {
	rows, err := ParseSIDC(openTestdata(t, "sidc_daily.csv"), "sidc_daily.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, float32(123), rows[0].SSN)
	assert.Equal(t, float32(140), rows[1].SSN)
	assert.Equal(t, "sidc_daily.csv", rows[1].SourceFile)
	assert.Equal(t, Missing, rows[0].KpIndex)
	assert.Equal(t, Missing, rows[0].ObservedFlux)
}

func TestParseSIDCMonthly(t *testing.T) {
	data := "2024;01;2024.042;  123.0; 20.1; 1045;0\n" +
		"2024;02;2024.123;   -1.0; -1.0;    0;1\n" +
		"1749;01;1749.042;   96.7; -1.0;   -1;1\n"
	rows, err := ParseSIDCMonthly(strings.NewReader(data), "sidc_ssn_monthly.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1, "pre-1900 and missing months are dropped")
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, float32(123), rows[0].SSN)
	assert.Equal(t, Missing, rows[0].KpIndex)

	daily, err := ParseSIDC(strings.NewReader(data), "x")
	require.NoError(t, err)
	assert.Empty(t, daily, "monthly layout does not parse as daily")
}

func TestParseSFIJSON(t *testing.T) {
	rows, err := ParseSFIJSON(openTestdata(t, "observed_solar_flux.json"), "flux")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.InDelta(t, 166.6, rows[0].ObservedFlux, 1e-4)
	assert.Equal(t, Missing, rows[0].AdjustedFlux, "negative smoothed values are missing")
	assert.Equal(t, Missing, rows[0].KpIndex)
	assert.InDelta(t, 150.5, rows[1].AdjustedFlux, 1e-4)

	_, err = ParseSFIJSON(strings.NewReader("{not json"), "x")
	assert.Error(t, err)
}

func TestParseGFZ(t *testing.T) {
	days, err := ParseGFZ(openTestdata(t, "Kp_ap_Ap_SN_F107_since_1932.txt"), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, days, 3)

	storm := days[1]
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), storm.Date)
	assert.InDelta(t, 9.0, storm.MaxKp(), 1e-6)
	assert.Equal(t, float32(193), storm.DayAp)
	assert.InDelta(t, 213.5, storm.SFIObs, 1e-4)

	missing := days[2]
	assert.Equal(t, Missing, missing.Kp[2])
	assert.Equal(t, Missing, missing.SSN)
	assert.Equal(t, Missing, missing.SFIObs)
	assert.InDelta(t, 8.667, missing.MaxKp(), 1e-4)
	assert.Equal(t, Missing, GFZDay{Kp: [8]float32{-1, -1, -1, -1, -1, -1, -1, -1}}.MaxKp())

	rows := storm.Indices("gfz")
	require.Len(t, rows, 8)
	assert.Equal(t, time.Date(2024, 5, 10, 21, 0, 0, 0, time.UTC), rows[7].Time)
	assert.Equal(t, storm.Date, rows[7].Date)
	assert.Equal(t, float32(400), rows[7].ApIndex)
	assert.Equal(t, float32(170), rows[3].SSN)
}

func TestParseGFZ_DateRange(t *testing.T) {
	from := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	days, err := ParseGFZ(openTestdata(t, "Kp_ap_Ap_SN_F107_since_1932.txt"), from, from)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, from, days[0].Date)
}

func TestParseGFZLine_Short(t *testing.T) {
	_, ok := ParseGFZLine("2024 05 10 1 2 3")
	assert.False(t, ok)
}

func TestParseKpJSON(t *testing.T) {
	rows, err := ParseKpJSON(openTestdata(t, "noaa-planetary-k-index.json"), "kp")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC), rows[1].Time)
	assert.Equal(t, time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC), rows[1].Date)
	assert.InDelta(t, 4.33, rows[1].KpIndex, 1e-5)
	assert.Equal(t, float32(32), rows[1].ApIndex)
	assert.Equal(t, Missing, rows[2].KpIndex)
	assert.Equal(t, Missing, rows[2].ApIndex)
	assert.Equal(t, Missing, rows[0].ObservedFlux)

	rows, err = ParseKpJSON(strings.NewReader(`[["time_tag","Kp"],["2024-05-12 00:00:00.000","0.00"]]`), "kp")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float32(0), rows[0].KpIndex, "a quiet Kp 0 is a real value")
	assert.Equal(t, Missing, rows[0].ApIndex)

	_, err = ParseKpJSON(strings.NewReader(`[["a","b"]]`), "kp")
	assert.Error(t, err)

	rows, err = ParseKpJSON(strings.NewReader(`[]`), "kp")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"testdata/sidc_daily.csv", FormatSIDC},
		{"testdata/observed_solar_flux.json", FormatSFIJSON},
		{"testdata/solar_flux.txt", FormatSFIJSON},
		{"testdata/Kp_ap_Ap_SN_F107_since_1932.txt", FormatGFZ},
		{"testdata/noaa-planetary-k-index.json", FormatKpJSON},
		{"testdata/events.json", FormatUnknown},
		{"testdata/sidc_daily.csv.gz", FormatSIDC},
		{"testdata/missing_flux.txt", FormatUnknown},
		{"noaa_kp_index.json", FormatKpJSON},
		{"noaa_kp_index.json.gz", FormatKpJSON},
		{"sidc_ssn_monthly.csv", FormatSIDCMonthly},
		{"SN_m_tot_V2.0.csv", FormatSIDCMonthly},
		{"SN_d_tot_V2.0.csv", FormatSIDC},
		{"goes_xray_flux.json", FormatUnknown},
	}
	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.path))
		})
	}
}

func compressCopy(t *testing.T, src, dst string) string {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), dst)
	f, err := os.Create(out)
	require.NoError(t, err)
	defer f.Close()

	switch filepath.Ext(dst) {
	case ".gz":
		w := pgzip.NewWriter(f)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	case ".zst":
		w, err := zstd.NewWriter(f)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}
	return out
}

func TestParseFile_Compressed(t *testing.T) {
	gz := compressCopy(t, "testdata/Kp_ap_Ap_SN_F107_since_1932.txt", "Kp_ap_Ap_SN_F107_since_1932.txt.gz")
	rows, format, err := ParseFile(gz)
	require.NoError(t, err)
	assert.Equal(t, FormatGFZ, format)
	assert.Len(t, rows, 24)
	assert.Equal(t, "Kp_ap_Ap_SN_F107_since_1932.txt.gz", rows[0].SourceFile)

	zst := compressCopy(t, "testdata/observed_solar_flux.json", "observed_solar_flux.json.zst")
	rows, format, err = ParseFile(zst)
	require.NoError(t, err)
	assert.Equal(t, FormatSFIJSON, format)
	assert.Len(t, rows, 2)
}

func TestParseFile_Unknown(t *testing.T) {
	rows, format, err := ParseFile("testdata/events.json")
	require.NoError(t, err)
	assert.Equal(t, FormatUnknown, format)
	assert.Nil(t, rows)
}

func TestOpenSource_Missing(t *testing.T) {
	_, err := OpenSource("testdata/nope.txt")
	assert.Error(t, err)
}
