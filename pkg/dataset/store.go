// Package dataset loads the static mock datasets served by the map providers
// and exposes them as read-only, ID-indexed collections.
package dataset

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/NERVsystems/mapmcp/pkg/maperr"
)

// Dataset file names, relative to the data directory.
const (
	ChargingStationsFile = "charging_stations.json"
	TransitStopsFile     = "transit_stops.json"
	POIsFile             = "pois.json"
	TrafficFile          = "traffic_data.json"
	RoadClosuresFile     = "road_closures.json"
)

//go:embed data/*.json
var embedded embed.FS

// Store holds every dataset. It is built once at startup and never mutated.
type Store struct {
	Stations *Collection[ChargingStation]
	Stops    *Collection[TransitStop]
	POIs     *Collection[POI]
	Traffic  *Collection[TrafficSegment]
	Closures *Collection[RoadClosure]
}

// Load reads the datasets from dir, or from the copies compiled into the
// binary when dir is empty.
func Load(dir string) (*Store, error) {
	if dir == "" {
		return LoadEmbedded()
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, &maperr.DataUnavailableError{Dataset: "all", Path: dir, Err: err}
	}
	return LoadFS(os.DirFS(dir))
}

// LoadEmbedded reads the datasets compiled into the binary.
func LoadEmbedded() (*Store, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, &maperr.DataUnavailableError{Dataset: "all", Err: err}
	}
	return LoadFS(sub)
}

// LoadFS reads the five dataset files from the root of fsys. Any missing,
// malformed or invalid file fails the whole load.
func LoadFS(fsys fs.FS) (*Store, error) {
	var (
		s   Store
		err error
	)
	if s.Stations, err = loadCollection[ChargingStation](fsys, "charging_stations", ChargingStationsFile); err != nil {
		return nil, err
	}
	if s.Stops, err = loadCollection[TransitStop](fsys, "transit_stops", TransitStopsFile); err != nil {
		return nil, err
	}
	if s.POIs, err = loadCollection[POI](fsys, "pois", POIsFile); err != nil {
		return nil, err
	}
	if s.Traffic, err = loadCollection[TrafficSegment](fsys, "traffic", TrafficFile); err != nil {
		return nil, err
	}
	if s.Closures, err = loadCollection[RoadClosure](fsys, "road_closures", RoadClosuresFile); err != nil {
		return nil, err
	}
	return &s, nil
}

// Counts returns the number of records per dataset.
func (s *Store) Counts() map[string]int {
	return map[string]int{
		s.Stations.Name(): s.Stations.Len(),
		s.Stops.Name():    s.Stops.Len(),
		s.POIs.Name():     s.POIs.Len(),
		s.Traffic.Name():  s.Traffic.Len(),
		s.Closures.Name(): s.Closures.Len(),
	}
}

func loadCollection[T Record](fsys fs.FS, name, file string) (*Collection[T], error) {
	fail := func(err error) error {
		return &maperr.DataUnavailableError{Dataset: name, Path: file, Err: err}
	}

	raw, err := fs.ReadFile(fsys, file)
	if err != nil {
		return nil, fail(err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var items []T
	if err := dec.Decode(&items); err != nil {
		return nil, fail(fmt.Errorf("decode: %w", err))
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fail(errors.New("trailing data after JSON array"))
	}
	if len(items) == 0 {
		return nil, fail(errors.New("no records"))
	}

	c, err := NewCollection(name, items)
	if err != nil {
		return nil, fail(err)
	}
	return c, nil
}

// DefaultFiles lists the dataset file names in load order.
func DefaultFiles() []string {
	return []string{ChargingStationsFile, TransitStopsFile, POIsFile, TrafficFile, RoadClosuresFile}
}

// ExportEmbedded copies the embedded datasets into dir, for operators who want
// to start from the bundled data and edit it.
func ExportEmbedded(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range DefaultFiles() {
		raw, err := embedded.ReadFile(path.Join("data", f))
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, f), raw, 0o644); err != nil {
			return err
		}
	}
	return nil
}
