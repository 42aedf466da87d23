package location

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestClampRadius(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultRadiusKm},
		{-5, DefaultRadiusKm},
		{1, 1},
		{25, 25},
		{50, 50},
		{51, MaxRadiusKm},
		{1000, MaxRadiusKm},
	}
	for _, tc := range cases {
		if got := ClampRadius(tc.in); got != tc.want {
			t.Errorf("ClampRadius(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestHaversine(t *testing.T) {
	// Chennai to Bangalore is roughly 290 km.
	d := Haversine(13.0827, 80.2707, 12.9716, 77.5946)
	if d < 280 || d > 300 {
		t.Errorf("Chennai-Bangalore distance = %.1f km, want ~290", d)
	}

	if d := Haversine(13.0827, 80.2707, 13.0827, 80.2707); d != 0 {
		t.Errorf("zero distance = %f, want 0", d)
	}
}

func TestGeocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("geocoding request missing user agent")
		}
		if got := r.URL.Query().Get("countrycodes"); got != "in" {
			t.Errorf("countrycodes = %q, want in", got)
		}
		fmt.Fprint(w, `[{"lat":"13.0827","lon":"80.2707","display_name":"Chennai, Tamil Nadu, India","address":{"city":"Chennai"}}]`)
	}))
	defer srv.Close()

	f := NewFinder(testLogger(), WithNominatimURL(srv.URL), WithHTTPClient(srv.Client()))
	place, err := f.Geocode(context.Background(), "chennai")
	if err != nil {
		t.Fatal(err)
	}
	if place == nil {
		t.Fatal("expected a geocoding result")
	}
	if math.Abs(place.Lat-13.0827) > 1e-6 || math.Abs(place.Lon-80.2707) > 1e-6 {
		t.Errorf("coordinates = %f,%f", place.Lat, place.Lon)
	}
	if place.Address["city"] != "Chennai" {
		t.Errorf("address = %v", place.Address)
	}
}

func TestGeocodeNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	f := NewFinder(testLogger(), WithNominatimURL(srv.URL), WithHTTPClient(srv.Client()))
	place, err := f.Geocode(context.Background(), "nowhere at all")
	if err != nil {
		t.Fatal(err)
	}
	if place != nil {
		t.Errorf("place = %+v, want nil for no results", place)
	}
}

func TestNearbyFacilitiesSortsByDistance(t *testing.T) {
	// Two nodes near Chennai: one ~2.5 km north, one ~8 km north. The
	// response lists the far one first; results must come back sorted.
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		if r.PostFormValue("data") == "" {
			t.Error("overpass request missing query body")
		}
		fmt.Fprint(w, `{"elements":[
			{"type":"node","lat":13.1547,"lon":80.2707,"tags":{"name":"Far Hospital","amenity":"hospital"}},
			{"type":"node","lat":13.1052,"lon":80.2707,"tags":{"name":"Near Clinic","amenity":"clinic","phone":"+91 44 1234"}},
			{"type":"way","tags":{"name":"Skipped Way","amenity":"hospital"}}
		]}`)
	}))
	defer overpass.Close()

	f := NewFinder(testLogger(), WithOverpassURL(overpass.URL), WithHTTPClient(overpass.Client()))
	got, err := f.NearbyFacilities(context.Background(), 13.0827, 80.2707, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("facilities = %d, want 2 (ways skipped)", len(got))
	}
	if got[0].Name != "Near Clinic" || got[1].Name != "Far Hospital" {
		t.Errorf("order = %q, %q, want nearest first", got[0].Name, got[1].Name)
	}
	if got[0].DistanceKm <= 0 || got[0].DistanceKm >= got[1].DistanceKm {
		t.Errorf("distances = %f, %f, want increasing", got[0].DistanceKm, got[1].DistanceKm)
	}
	if got[0].DistanceKm < 2 || got[0].DistanceKm > 3 {
		t.Errorf("near distance = %f km, want ~2.5", got[0].DistanceKm)
	}
	if got[1].DistanceKm < 7.5 || got[1].DistanceKm > 8.5 {
		t.Errorf("far distance = %f km, want ~8", got[1].DistanceKm)
	}
	if got[0].Phone != "+91 44 1234" {
		t.Errorf("phone = %q", got[0].Phone)
	}
}

func TestNearbyFacilitiesCapsResults(t *testing.T) {
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"elements":[`)
		for i := range 20 {
			if i > 0 {
				fmt.Fprint(w, `,`)
			}
			fmt.Fprintf(w, `{"type":"node","lat":%f,"lon":80.2707,"tags":{"name":"H%d","amenity":"hospital"}}`,
				13.0827+float64(i)*0.001, i)
		}
		fmt.Fprint(w, `]}`)
	}))
	defer overpass.Close()

	f := NewFinder(testLogger(), WithOverpassURL(overpass.URL), WithHTTPClient(overpass.Client()))
	got, err := f.NearbyFacilities(context.Background(), 13.0827, 80.2707, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 15 {
		t.Errorf("facilities = %d, want cap of 15", len(got))
	}
}

func TestSearchReportsEmptyNeighborhood(t *testing.T) {
	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"lat":"13.0827","lon":"80.2707","display_name":"Chennai, India"}]`)
	}))
	defer nominatim.Close()
	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"elements":[]}`)
	}))
	defer overpass.Close()

	f := NewFinder(testLogger(),
		WithNominatimURL(nominatim.URL),
		WithOverpassURL(overpass.URL),
		WithHTTPClient(nominatim.Client()))

	res, err := f.Search(context.Background(), "chennai", 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.TotalFound != 0 || res.Message == "" {
		t.Errorf("result = %+v, want empty facilities with a message", res)
	}
}
