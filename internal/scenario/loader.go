package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"ride-dispatch/internal/models"
)

// Format selects the decoder for a scenario file
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrMalformed is returned when a scenario file cannot be turned into valid inputs
type ErrMalformed struct {
	Path   string
	Field  string
	Reason string
}

func (e *ErrMalformed) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed scenario %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("malformed scenario %s: %s: %s", e.Path, e.Field, e.Reason)
}

// FormatFromPath picks the decoder from the file extension
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	default:
		return "", false
	}
}

// Load reads and validates a scenario file
func Load(path string) (*Scenario, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, &ErrMalformed{Path: path, Reason: "unsupported file extension"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}

	s, err := Decode(bytes.NewReader(data), format, path)
	if err != nil {
		return nil, err
	}
	log.Printf("[SCENARIO] Loaded %s (%s)", s.Name, path)
	return s, nil
}

// Decode parses a scenario document. path is only used for naming and errors.
func Decode(r io.Reader, format Format, path string) (*Scenario, error) {
	var doc fileDoc

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, &ErrMalformed{Path: path, Reason: err.Error()}
		}
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, &ErrMalformed{Path: path, Reason: err.Error()}
		}
	default:
		return nil, &ErrMalformed{Path: path, Reason: fmt.Sprintf("unknown format %q", format)}
	}

	return doc.validate(path)
}

// Discover expands directories into the scenario files they contain, sorted by path.
// Plain file arguments are returned as given.
func Discover(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			if _, ok := FormatFromPath(e.Name()); ok {
				found = append(found, filepath.Join(p, e.Name()))
			}
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

// LoadAll loads every scenario, stopping at the first error
func LoadAll(paths []string) ([]*Scenario, error) {
	files, err := Discover(paths)
	if err != nil {
		return nil, err
	}

	scenarios := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := Load(f)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// pointDoc is a point written as a two element sequence
type pointDoc []int

func (p pointDoc) toPoint(path, field string) (models.Point, error) {
	if len(p) != 2 {
		return models.Point{}, &ErrMalformed{Path: path, Field: field, Reason: fmt.Sprintf("point needs 2 coordinates, got %d", len(p))}
	}
	return models.Point{X: p[0], Y: p[1]}, nil
}

func required(v *int, path, field string) (int, error) {
	if v == nil {
		return 0, &ErrMalformed{Path: path, Field: field, Reason: "required"}
	}
	return *v, nil
}

func toPoints(docs []pointDoc, path, field string) ([]models.Point, error) {
	points := make([]models.Point, len(docs))
	for i, d := range docs {
		p, err := d.toPoint(path, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		points[i] = p
	}
	return points, nil
}

type fileDoc struct {
	Name       string         `yaml:"name" json:"name"`
	Interleave *interleaveDoc `yaml:"interleave" json:"interleave"`
	Dispatch   *dispatchDoc   `yaml:"dispatch" json:"dispatch"`
	Trips      *tripsDoc      `yaml:"trips" json:"trips"`
	Reposition *repositionDoc `yaml:"reposition" json:"reposition"`
}

type passengerDoc struct {
	Origin      pointDoc `yaml:"origin" json:"origin"`
	Destination pointDoc `yaml:"destination" json:"destination"`
}

type interleaveDoc struct {
	Start      pointDoc       `yaml:"start" json:"start"`
	Capacity   int            `yaml:"capacity" json:"capacity"`
	Passengers []passengerDoc `yaml:"passengers" json:"passengers"`
}

type dispatchDoc struct {
	Capacity     int        `yaml:"capacity" json:"capacity"`
	Vehicles     []pointDoc `yaml:"vehicles" json:"vehicles"`
	Origins      []pointDoc `yaml:"origins" json:"origins"`
	Destinations []pointDoc `yaml:"destinations" json:"destinations"`
}

// Trip numbers are pointers so a missing field is told apart from zero
type tripDoc struct {
	ID          *int     `yaml:"id" json:"id"`
	Origin      pointDoc `yaml:"origin" json:"origin"`
	Destination pointDoc `yaml:"destination" json:"destination"`
	Duration    *int     `yaml:"duration" json:"duration"`
	Earliest    *int     `yaml:"earliest" json:"earliest"`
	Latest      *int     `yaml:"latest" json:"latest"`
}

type tripsDoc struct {
	Start     pointDoc  `yaml:"start" json:"start"`
	StartTime *int      `yaml:"start_time" json:"start_time"`
	Trips     []tripDoc `yaml:"trips" json:"trips"`
}

type zoneDoc struct {
	ID             string   `yaml:"id" json:"id"`
	At             pointDoc `yaml:"at" json:"at"`
	Demand         int      `yaml:"demand" json:"demand"`
	AvgTripMinutes float64  `yaml:"avg_trip_minutes" json:"avg_trip_minutes"`
}

type driverDoc struct {
	ID   string `yaml:"id" json:"id"`
	Zone string `yaml:"zone" json:"zone"`
}

type repositionDoc struct {
	TravelCostFactor float64     `yaml:"travel_cost_factor" json:"travel_cost_factor"`
	Zones            []zoneDoc   `yaml:"zones" json:"zones"`
	Drivers          []driverDoc `yaml:"drivers" json:"drivers"`
}

func (d *fileDoc) validate(path string) (*Scenario, error) {
	s := &Scenario{Name: d.Name, Path: path}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	var err error
	if d.Interleave != nil {
		if s.Interleave, err = d.Interleave.validate(path); err != nil {
			return nil, err
		}
	}
	if d.Dispatch != nil {
		if s.Dispatch, err = d.Dispatch.validate(path); err != nil {
			return nil, err
		}
	}
	if d.Trips != nil {
		if s.Trips, err = d.Trips.validate(path); err != nil {
			return nil, err
		}
	}
	if d.Reposition != nil {
		if s.Reposition, err = d.Reposition.validate(path); err != nil {
			return nil, err
		}
	}

	if s.Empty() {
		return nil, &ErrMalformed{Path: path, Reason: "no interleave, dispatch, trips or reposition section"}
	}
	return s, nil
}

func (d *interleaveDoc) validate(path string) (*InterleaveInput, error) {
	start, err := d.Start.toPoint(path, "interleave.start")
	if err != nil {
		return nil, err
	}
	if d.Capacity < 0 {
		return nil, &ErrMalformed{Path: path, Field: "interleave.capacity", Reason: "must not be negative"}
	}

	origins := make([]models.Point, len(d.Passengers))
	dests := make([]models.Point, len(d.Passengers))
	for i, p := range d.Passengers {
		if origins[i], err = p.Origin.toPoint(path, fmt.Sprintf("interleave.passengers[%d].origin", i)); err != nil {
			return nil, err
		}
		if dests[i], err = p.Destination.toPoint(path, fmt.Sprintf("interleave.passengers[%d].destination", i)); err != nil {
			return nil, err
		}
	}

	return &InterleaveInput{
		Start:      start,
		Capacity:   d.Capacity,
		Passengers: models.NewPassengers(origins, dests),
	}, nil
}

func (d *dispatchDoc) validate(path string) (*DispatchInput, error) {
	if d.Capacity < 0 {
		return nil, &ErrMalformed{Path: path, Field: "dispatch.capacity", Reason: "must not be negative"}
	}
	if len(d.Origins) != len(d.Destinations) {
		return nil, &ErrMalformed{
			Path:   path,
			Field:  "dispatch.destinations",
			Reason: fmt.Sprintf("got %d destinations for %d origins", len(d.Destinations), len(d.Origins)),
		}
	}

	vehicles, err := toPoints(d.Vehicles, path, "dispatch.vehicles")
	if err != nil {
		return nil, err
	}
	origins, err := toPoints(d.Origins, path, "dispatch.origins")
	if err != nil {
		return nil, err
	}
	dests, err := toPoints(d.Destinations, path, "dispatch.destinations")
	if err != nil {
		return nil, err
	}

	return &DispatchInput{
		Vehicles:     vehicles,
		Origins:      origins,
		Destinations: dests,
		Capacity:     d.Capacity,
	}, nil
}

func (d *tripsDoc) validate(path string) (*TripsInput, error) {
	start, err := d.Start.toPoint(path, "trips.start")
	if err != nil {
		return nil, err
	}
	startTime, err := required(d.StartTime, path, "trips.start_time")
	if err != nil {
		return nil, err
	}

	trips := make([]models.Trip, len(d.Trips))
	for i, t := range d.Trips {
		field := fmt.Sprintf("trips.trips[%d]", i)
		trip := &trips[i]
		if trip.ID, err = required(t.ID, path, field+".id"); err != nil {
			return nil, err
		}
		if trip.Origin, err = t.Origin.toPoint(path, field+".origin"); err != nil {
			return nil, err
		}
		if trip.Destination, err = t.Destination.toPoint(path, field+".destination"); err != nil {
			return nil, err
		}
		if trip.Duration, err = required(t.Duration, path, field+".duration"); err != nil {
			return nil, err
		}
		if trip.Earliest, err = required(t.Earliest, path, field+".earliest"); err != nil {
			return nil, err
		}
		if trip.Latest, err = required(t.Latest, path, field+".latest"); err != nil {
			return nil, err
		}
	}

	return &TripsInput{Start: start, StartTime: startTime, Trips: trips}, nil
}

func (d *repositionDoc) validate(path string) (*RepositionInput, error) {
	zones := make([]models.Zone, len(d.Zones))
	for i, z := range d.Zones {
		if z.ID == "" {
			return nil, &ErrMalformed{Path: path, Field: fmt.Sprintf("reposition.zones[%d].id", i), Reason: "required"}
		}
		loc, err := z.At.toPoint(path, fmt.Sprintf("reposition.zones[%d].at", i))
		if err != nil {
			return nil, err
		}
		zones[i] = models.Zone{ID: z.ID, Location: loc, Demand: z.Demand, AvgTripMinutes: z.AvgTripMinutes}
	}

	drivers := make([]models.IdleDriver, len(d.Drivers))
	for i, dr := range d.Drivers {
		if dr.ID == "" {
			return nil, &ErrMalformed{Path: path, Field: fmt.Sprintf("reposition.drivers[%d].id", i), Reason: "required"}
		}
		drivers[i] = models.IdleDriver{ID: dr.ID, ZoneID: dr.Zone}
	}

	return &RepositionInput{Zones: zones, Drivers: drivers, TravelCostFactor: d.TravelCostFactor}, nil
}
