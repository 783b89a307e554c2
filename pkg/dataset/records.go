package dataset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/NERVsystems/mapmcp/pkg/geo"
)

// Record is a dataset entry with a stable identifier and a geographic point.
type Record interface {
	RecordID() string
	Point() geo.Location
}

// Connector types offered by charging stations.
const (
	ConnectorType2   = "Type2"
	ConnectorCCS     = "CCS"
	ConnectorCHAdeMO = "CHAdeMO"
)

// ConnectorTypes lists every recognized connector type.
var ConnectorTypes = []string{ConnectorType2, ConnectorCCS, ConnectorCHAdeMO}

// Transit modes.
const (
	TransitBus   = "bus"
	TransitMetro = "metro"
	TransitTram  = "tram"
)

// TransitTypes lists every recognized transit mode.
var TransitTypes = []string{TransitBus, TransitMetro, TransitTram}

// POICategories lists every recognized point-of-interest category.
var POICategories = []string{
	"restaurant", "hospital", "hotel", "school", "shopping",
	"museum", "gym", "bank", "park", "landmark",
}

// Traffic levels, lightest first.
const (
	TrafficLight    = "light"
	TrafficModerate = "moderate"
	TrafficHeavy    = "heavy"
)

// TrafficLevels lists traffic levels from lightest to heaviest.
var TrafficLevels = []string{TrafficLight, TrafficModerate, TrafficHeavy}

// TrafficLevelRank orders traffic levels: light=1, moderate=2, heavy=3.
// Unknown levels rank 0.
func TrafficLevelRank(level string) int {
	return slices.Index(TrafficLevels, level) + 1
}

// Closure severities.
var Severities = []string{"high", "medium", "low"}

// ChargingStation is an EV charging site.
type ChargingStation struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Address             string             `json:"address"`
	Location            geo.Location       `json:"location"`
	ConnectorTypes      []string           `json:"connector_types"`
	PowerRatingsKW      map[string]float64 `json:"power_ratings_kw"`
	AvailableConnectors int                `json:"available_connectors"`
	TotalConnectors     int                `json:"total_connectors"`
	PricingPerKWh       float64            `json:"pricing_per_kwh"`
	Operator            string             `json:"operator"`
	IsOperational       bool               `json:"is_operational"`
}

func (s ChargingStation) RecordID() string    { return s.ID }
func (s ChargingStation) Point() geo.Location { return s.Location }

// HasConnector reports whether the station offers connector type ct.
func (s ChargingStation) HasConnector(ct string) bool {
	return slices.Contains(s.ConnectorTypes, ct)
}

// Available reports whether the station is operational with a free connector.
func (s ChargingStation) Available() bool {
	return s.IsOperational && s.AvailableConnectors > 0
}

// MaxPowerKW returns the highest power rating across connectors.
func (s ChargingStation) MaxPowerKW() float64 {
	var maxKW float64
	for _, kw := range s.PowerRatingsKW {
		maxKW = max(maxKW, kw)
	}
	return maxKW
}

// Validate checks the fields the planners depend on.
func (s ChargingStation) Validate() error {
	for _, ct := range s.ConnectorTypes {
		if !slices.Contains(ConnectorTypes, ct) {
			return fmt.Errorf("unknown connector type %q", ct)
		}
	}
	if s.MaxPowerKW() <= 0 {
		return errors.New("station has no positive power rating")
	}
	if s.AvailableConnectors < 0 || s.AvailableConnectors > s.TotalConnectors {
		return fmt.Errorf("available connectors %d outside [0,%d]", s.AvailableConnectors, s.TotalConnectors)
	}
	return nil
}

// TransitStop is a bus, metro or tram stop.
type TransitStop struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Type           string       `json:"type"`
	Location       geo.Location `json:"location"`
	Address        string       `json:"address"`
	Routes         []string     `json:"routes"`
	OperatingHours string       `json:"operating_hours"`
	Facilities     []string     `json:"facilities"`
}

func (s TransitStop) RecordID() string    { return s.ID }
func (s TransitStop) Point() geo.Location { return s.Location }

// CommonRoute returns the first route of s that also serves other, or "".
func (s TransitStop) CommonRoute(other TransitStop) string {
	for _, r := range s.Routes {
		if slices.Contains(other.Routes, r) {
			return r
		}
	}
	return ""
}

func (s TransitStop) Validate() error {
	if !slices.Contains(TransitTypes, s.Type) {
		return fmt.Errorf("unknown transit type %q", s.Type)
	}
	if len(s.Routes) == 0 {
		return errors.New("stop serves no routes")
	}
	return nil
}

// POI is a point of interest.
type POI struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Location geo.Location `json:"location"`
	Address  string       `json:"address"`
	Rating   float64      `json:"rating"`
	Features []string     `json:"features"`
	Cuisine  string       `json:"cuisine,omitempty"`
	Contact  string       `json:"contact,omitempty"`
}

func (p POI) RecordID() string    { return p.ID }
func (p POI) Point() geo.Location { return p.Location }

func (p POI) Validate() error {
	if !slices.Contains(POICategories, p.Category) {
		return fmt.Errorf("unknown category %q", p.Category)
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("rating %.1f outside [0,5]", p.Rating)
	}
	return nil
}

// Incident is a traffic event reported on a segment.
type Incident struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	ReportedAt  time.Time `json:"reported_at"`
}

// TrafficSegment is a stretch of road with current traffic conditions.
// Its point is the segment start.
type TrafficSegment struct {
	ID              string       `json:"id"`
	RoadName        string       `json:"road_name"`
	Segment         string       `json:"segment"`
	StartLocation   geo.Location `json:"start_location"`
	EndLocation     geo.Location `json:"end_location"`
	TrafficLevel    string       `json:"traffic_level"`
	AverageSpeedKmh float64      `json:"average_speed_kmh"`
	TypicalSpeedKmh float64      `json:"typical_speed_kmh"`
	DelayMinutes    float64      `json:"delay_minutes"`
	Incidents       []Incident   `json:"incidents"`
}

func (s TrafficSegment) RecordID() string    { return s.ID }
func (s TrafficSegment) Point() geo.Location { return s.StartLocation }

func (s TrafficSegment) Validate() error {
	if err := s.EndLocation.Validate(); err != nil {
		return fmt.Errorf("end_location: %w", err)
	}
	if TrafficLevelRank(s.TrafficLevel) == 0 {
		return fmt.Errorf("unknown traffic level %q", s.TrafficLevel)
	}
	if s.DelayMinutes < 0 {
		return fmt.Errorf("negative delay %.1f", s.DelayMinutes)
	}
	return nil
}

// RoadClosure is a full or partial closure of a road.
type RoadClosure struct {
	ID                     string       `json:"id"`
	RoadName               string       `json:"road_name"`
	Location               geo.Location `json:"location"`
	ClosureType            string       `json:"closure_type"`
	Severity               string       `json:"severity"`
	Description            string       `json:"description"`
	StartDate              string       `json:"start_date"`
	EstimatedEndDate       string       `json:"estimated_end_date"`
	AffectedDirections     []string     `json:"affected_directions"`
	AlternateRoutes        []string     `json:"alternate_routes"`
	IsActive               bool         `json:"is_active"`
	TimeRestrictions       string       `json:"time_restrictions,omitempty"`
	EstimatedClearanceTime string       `json:"estimated_clearance_time,omitempty"`
}

func (c RoadClosure) RecordID() string    { return c.ID }
func (c RoadClosure) Point() geo.Location { return c.Location }

func (c RoadClosure) Validate() error {
	if !slices.Contains(Severities, strings.ToLower(c.Severity)) {
		return fmt.Errorf("unknown severity %q", c.Severity)
	}
	return nil
}
