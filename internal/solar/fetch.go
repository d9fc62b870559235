package solar

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-faster/errors"
)

// DataSource defines a solar data source
type DataSource struct {
	Name     string
	URL      string
	Filename string
	Desc     string
}

// Sources lists the downloadable inputs. Filenames are chosen so that
// DetectFormat recognises the parseable ones.
var Sources = []DataSource{
	{
		Name:     "sidc_daily",
		URL:      "https://www.sidc.be/SILSO/DATA/SN_d_tot_V2.0.csv",
		Filename: "sidc_ssn_daily.csv",
		Desc:     "SIDC daily sunspot numbers (1818-present)",
	},
	{
		Name:     "sidc_monthly",
		URL:      "https://www.sidc.be/SILSO/DATA/SN_m_tot_V2.0.csv",
		Filename: "sidc_ssn_monthly.csv",
		Desc:     "SIDC monthly sunspot numbers (1749-present)",
	},
	{
		Name:     "noaa_sfi",
		URL:      "https://services.swpc.noaa.gov/json/solar-cycle/observed-solar-cycle-indices.json",
		Filename: "sfi_daily_flux.txt",
		Desc:     "NOAA solar cycle indices (F10.7 flux, SSN)",
	},
	{
		Name:     "noaa_predicted",
		URL:      "https://services.swpc.noaa.gov/json/solar-cycle/predicted-solar-cycle.json",
		Filename: "sfi_predicted.json",
		Desc:     "NOAA predicted solar cycle",
	},
	{
		Name:     "penticton_daily",
		URL:      "https://www.spaceweather.gc.ca/forecast-prevision/solar-solaire/solarflux/sx-5-flux-en.php?type=d",
		Filename: "penticton_flux.txt",
		Desc:     "Penticton 10.7cm daily flux (download only)",
	},
	// Geomagnetic indices (Earth Response)
	{
		Name:     "noaa_kp",
		URL:      "https://services.swpc.noaa.gov/products/noaa-planetary-k-index.json",
		Filename: "noaa_kp_index.json",
		Desc:     "NOAA planetary K-index (3-hourly geomagnetic)",
	},
	{
		Name:     "gfz_kp",
		URL:      GFZURL,
		Filename: "Kp_ap_Ap_SN_F107_since_1932.txt",
		Desc:     "GFZ Potsdam definitive Kp/ap/SN/F10.7 (1932-present)",
	},
	// X-Ray flux (Radio Blackouts)
	{
		Name:     "goes_xray",
		URL:      "https://services.swpc.noaa.gov/json/goes/primary/xrays-6-hour.json",
		Filename: "goes_xray_flux.json",
		Desc:     "GOES X-ray flux, 6-hour rolling window (download only)",
	},
}

// GFZURL is the definitive Kp/ap/Ap/SN/F10.7 dataset.
const GFZURL = "https://kp.gfz-potsdam.de/app/files/Kp_ap_Ap_SN_F107_since_1932.txt"

// SourceByName looks up one of Sources.
func SourceByName(name string) (DataSource, bool) {
	for _, s := range Sources {
		if s.Name == name {
			return s, true
		}
	}
	return DataSource{}, false
}

// Fetcher downloads source files over HTTP.
type Fetcher struct {
	Client *http.Client
}

// NewFetcher returns a Fetcher whose requests time out after timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{Client: &http.Client{Timeout: timeout}}
}

// Open issues a GET and returns the body. Non-200 responses are errors.
func (f *Fetcher) Open(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "HTTP GET failed")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}
	return resp.Body, nil
}

// Download saves url to destPath through a temp file and an atomic rename.
// It returns the number of bytes written.
func (f *Fetcher) Download(ctx context.Context, url, destPath string) (int64, error) {
	body, err := f.Open(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	tmpPath := destPath + ".tmp"
	out, err := os.Create(tmpPath)
	if err != nil {
		return 0, errors.Wrap(err, "create file failed")
	}

	n, err := io.Copy(out, body)
	out.Close()
	if err != nil {
		os.Remove(tmpPath)
		return 0, errors.Wrap(err, "download failed")
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return 0, errors.Wrap(err, "rename failed")
	}
	return n, nil
}

// FetchKp downloads the NOAA planetary K-index product and parses it.
func (f *Fetcher) FetchKp(ctx context.Context, url string) ([]Index, error) {
	body, err := f.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseKpJSON(body, "noaa_kp")
}

// FetchSFI downloads the NOAA observed solar cycle indices and parses them.
func (f *Fetcher) FetchSFI(ctx context.Context, url string) ([]Index, error) {
	body, err := f.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseSFIJSON(body, "noaa_sfi")
}

// FetchGFZ downloads the GFZ file and returns days in [start, end].
func (f *Fetcher) FetchGFZ(ctx context.Context, url string, start, end time.Time) ([]GFZDay, error) {
	body, err := f.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return ParseGFZ(body, start, end)
}
