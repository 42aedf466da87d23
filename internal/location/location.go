// Package location finds healthcare facilities near a free-text place name
// using the OpenStreetMap Nominatim and Overpass APIs.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arogyalabs/bitebot/internal/utils"
)

const (
	defaultNominatimURL = "https://nominatim.openstreetmap.org/search"
	defaultOverpassURL  = "https://overpass-api.de/api/interpreter"

	userAgent = "AnimalBiteChatbot/1.0"

	// Radius bounds in kilometers.
	MinRadiusKm     = 1
	MaxRadiusKm     = 50
	DefaultRadiusKm = 10

	maxResults = 15

	earthRadiusKm = 6371
)

// Place is a geocoded location.
type Place struct {
	Lat         float64           `json:"lat"`
	Lon         float64           `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address,omitempty"`
}

// Facility is one healthcare facility near the searched place.
type Facility struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKm float64 `json:"distance_km"`
	Phone      string  `json:"phone"`
	Address    string  `json:"address"`
	MapsURL    string  `json:"maps_url"`
	OSMURL     string  `json:"osm_url"`
}

// SearchResult is the full outcome of a facility search.
type SearchResult struct {
	Location   *Place     `json:"location,omitempty"`
	Facilities []Facility `json:"facilities"`
	TotalFound int        `json:"total_found"`
	Message    string     `json:"message,omitempty"`
}

type Finder struct {
	client       *http.Client
	nominatimURL string
	overpassURL  string
	log          *logrus.Logger
}

// Option overrides a Finder default, mainly for tests.
type Option func(*Finder)

func WithHTTPClient(c *http.Client) Option { return func(f *Finder) { f.client = c } }
func WithNominatimURL(u string) Option { return func(f *Finder) { f.nominatimURL = u } }
func WithOverpassURL(u string) Option { return func(f *Finder) { f.overpassURL = u } }

func NewFinder(log *logrus.Logger, opts ...Option) *Finder {
	f := &Finder{
		client:       &http.Client{Timeout: 30 * time.Second},
		nominatimURL: defaultNominatimURL,
		overpassURL:  defaultOverpassURL,
		log:          log,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ClampRadius bounds a requested radius to [MinRadiusKm, MaxRadiusKm],
// substituting the default for zero or negative input.
func ClampRadius(radiusKm int) int {
	if radiusKm <= 0 {
		return DefaultRadiusKm
	}
	if radiusKm < MinRadiusKm {
		return MinRadiusKm
	}
	if radiusKm > MaxRadiusKm {
		return MaxRadiusKm
	}
	return radiusKm
}

// Search geocodes the query and returns the nearest facilities within the
// radius, closest first.
func (f *Finder) Search(ctx context.Context, query string, radiusKm int) (*SearchResult, error) {
	const op = "location.Finder.Search"

	if strings.TrimSpace(query) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "location is required", nil)
	}
	radiusKm = ClampRadius(radiusKm)

	place, err := f.Geocode(ctx, query)
	if err != nil {
		return nil, err
	}
	if place == nil {
		return nil, utils.E(utils.CodeNotFound, op,
			"Could not find the specified location. Please try a different location name.", nil)
	}

	facilities, err := f.NearbyFacilities(ctx, place.Lat, place.Lon, radiusKm)
	if err != nil {
		return nil, err
	}

	res := &SearchResult{
		Location:   place,
		Facilities: facilities,
		TotalFound: len(facilities),
	}
	if len(facilities) == 0 {
		res.Message = fmt.Sprintf(
			"No healthcare facilities found within %dkm of %s. Try increasing the search radius.",
			radiusKm, place.DisplayName)
	}
	return res, nil
}

type nominatimResult struct {
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// Geocode resolves a free-text place name to coordinates. Searches are
// restricted to India. A nil result with nil error means no match.
func (f *Finder) Geocode(ctx context.Context, query string) (*Place, error) {
	const op = "location.Finder.Geocode"

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "in")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.nominatimURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to build geocoding request", err)
	}
	// Nominatim rejects requests without an identifying user agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "geocoding request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, utils.E(utils.CodeUnavailable, op,
			fmt.Sprintf("geocoding service returned %d", resp.StatusCode), nil)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to decode geocoding response", err)
	}
	if len(results) == 0 {
		f.log.WithField("query", query).Warn("location: no geocoding results")
		return nil, nil
	}

	var lat, lon float64
	if _, err := fmt.Sscanf(results[0].Lat, "%f", &lat); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "malformed latitude in geocoding response", err)
	}
	if _, err := fmt.Sscanf(results[0].Lon, "%f", &lon); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "malformed longitude in geocoding response", err)
	}
	return &Place{
		Lat:         lat,
		Lon:         lon,
		DisplayName: results[0].DisplayName,
		Address:     results[0].Address,
	}, nil
}

type overpassElement struct {
	Type string            `json:"type"`
	Lat  float64           `json:"lat"`
	Lon  float64           `json:"lon"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// NearbyFacilities queries Overpass for hospitals, clinics, and other
// healthcare nodes around a point, sorted by distance and capped.
func (f *Finder) NearbyFacilities(ctx context.Context, lat, lon float64, radiusKm int) ([]Facility, error) {
	const op = "location.Finder.NearbyFacilities"

	radiusM := radiusKm * 1000
	query := fmt.Sprintf(`[out:json][timeout:25];
(
  node["amenity"="hospital"](around:%d,%f,%f);
  way["amenity"="hospital"](around:%d,%f,%f);
  node["amenity"="clinic"](around:%d,%f,%f);
  way["amenity"="clinic"](around:%d,%f,%f);
  node["healthcare"](around:%d,%f,%f);
  way["healthcare"](around:%d,%f,%f);
);
out body;
>;
out skel qt;`,
		radiusM, lat, lon, radiusM, lat, lon,
		radiusM, lat, lon, radiusM, lat, lon,
		radiusM, lat, lon, radiusM, lat, lon)

	form := url.Values{}
	form.Set("data", query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.overpassURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to build facility request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "facility search request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, utils.E(utils.CodeUnavailable, op,
			fmt.Sprintf("facility search service returned %d", resp.StatusCode), nil)
	}

	var data overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to decode facility response", err)
	}

	facilities := make([]Facility, 0, len(data.Elements))
	for _, el := range data.Elements {
		// Ways carry no coordinates in this response shape.
		if el.Type != "node" {
			continue
		}
		facilities = append(facilities, newFacility(el, lat, lon))
	}

	sort.Slice(facilities, func(i, j int) bool {
		return facilities[i].DistanceKm < facilities[j].DistanceKm
	})
	if len(facilities) > maxResults {
		facilities = facilities[:maxResults]
	}
	return facilities, nil
}

func newFacility(el overpassElement, originLat, originLon float64) Facility {
	tags := el.Tags
	name := tags["name"]
	if name == "" {
		name = "Unnamed Facility"
	}
	kind := tags["amenity"]
	if kind == "" {
		if kind = tags["healthcare"]; kind == "" {
			kind = "healthcare"
		}
	}
	phone := tags["phone"]
	if phone == "" {
		phone = tags["contact:phone"]
	}
	address := tags["addr:full"]
	if address == "" {
		address = strings.Trim(tags["addr:street"]+", "+tags["addr:city"], ", ")
	}

	dist := Haversine(originLat, originLon, el.Lat, el.Lon)
	return Facility{
		Name:       name,
		Type:       kind,
		Lat:        el.Lat,
		Lon:        el.Lon,
		DistanceKm: math.Round(dist*100) / 100,
		Phone:      phone,
		Address:    address,
		MapsURL:    fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f", el.Lat, el.Lon),
		OSMURL:     fmt.Sprintf("https://www.openstreetmap.org/?mlat=%f&mlon=%f&zoom=17", el.Lat, el.Lon),
	}
}

// Haversine returns the great-circle distance between two coordinates in
// kilometers.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}
