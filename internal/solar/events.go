package solar

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/go-faster/errors"
)

// Event kinds in the catalog.
const (
	EventFlare         = "flare"
	EventCME           = "cme"
	EventGeomagStorm   = "geomagnetic_storm"
	EventRadioBlackout = "radio_blackout"
)

// Event is one entry of the space-weather event catalog.
type Event struct {
	Date        time.Time `json:"date"`
	Kind        string    `json:"kind"`
	Magnitude   string    `json:"magnitude,omitempty"` // e.g. "X9.3", "G5"
	Description string    `json:"description,omitempty"`
}

type eventJSON struct {
	Date        string `json:"date"`
	Kind        string `json:"kind"`
	Magnitude   string `json:"magnitude"`
	Description string `json:"description"`
}

// LoadEvents decodes a JSON array of events. Dates may be YYYY-MM-DD or
// RFC 3339. The result is sorted by date.
func LoadEvents(r io.Reader) ([]Event, error) {
	var raw []eventJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode events")
	}

	out := make([]Event, 0, len(raw))
	for i, e := range raw {
		d, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			d, err = time.Parse(time.RFC3339, e.Date)
			if err != nil {
				return nil, errors.Wrapf(err, "event %d: date %q", i, e.Date)
			}
		}
		out = append(out, Event{
			Date:        d.UTC(),
			Kind:        e.Kind,
			Magnitude:   e.Magnitude,
			Description: e.Description,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// LoadEventsFile reads an event catalog from path.
func LoadEventsFile(path string) ([]Event, error) {
	rc, err := OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return LoadEvents(rc)
}

// DefaultEvents is a small built-in catalog of notable events.
func DefaultEvents() []Event {
	d := func(y int, m time.Month, day int) time.Time { return time.Date(y, m, day, 0, 0, 0, 0, time.UTC) }
	return []Event{
		{Date: d(1989, time.March, 13), Kind: EventGeomagStorm, Magnitude: "G5", Description: "Quebec blackout storm"},
		{Date: d(2003, time.October, 28), Kind: EventFlare, Magnitude: "X17.2", Description: "Halloween storms"},
		{Date: d(2003, time.November, 4), Kind: EventFlare, Magnitude: "X28", Description: "Largest recorded GOES flare"},
		{Date: d(2006, time.December, 5), Kind: EventFlare, Magnitude: "X9.0", Description: "Solar minimum X-class flare"},
		{Date: d(2012, time.July, 23), Kind: EventCME, Description: "Carrington-class CME missed Earth"},
		{Date: d(2017, time.September, 6), Kind: EventFlare, Magnitude: "X9.3", Description: "Largest flare of cycle 24"},
		{Date: d(2024, time.May, 10), Kind: EventGeomagStorm, Magnitude: "G5", Description: "Gannon storm"},
		{Date: d(2024, time.October, 3), Kind: EventFlare, Magnitude: "X9.0", Description: "Largest flare of cycle 25 to date"},
	}
}

// EventDates returns the event dates in order.
func EventDates(events []Event) []time.Time {
	out := make([]time.Time, len(events))
	for i, e := range events {
		out[i] = e.Date
	}
	return out
}
