package lib

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"regexp"
	"time"

	"github.com/tidwall/gjson"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

var zipPattern = regexp.MustCompile(`^\d{5}$`)

// zipCacheTTL keeps resolved coordinates for a day; zip centroids do not move.
const zipCacheTTL = 24 * time.Hour

var zipBackoff = []time.Duration{0, 250 * time.Millisecond, 750 * time.Millisecond}

const zipAPIBase = "https://api.zippopotam.us/us"

// ZipCoordinates resolves a 5-digit US zip code to coordinates, caching
// results in redis. Returns nil when the zip cannot be resolved; callers fall
// back to "distance unavailable".
func ZipCoordinates(ctx context.Context, zip string) (*Coordinates, error) {
	if !zipPattern.MatchString(zip) {
		return nil, fmt.Errorf("invalid zip code: %q", zip)
	}
	rd := GetRedisClient()
	cacheKey := fmt.Sprintf("zip:%s:coords", zip)
	if rd != nil {
		if val, err := rd.Get(ctx, cacheKey).Result(); err == nil && val != "" {
			lat := gjson.Get(val, "latitude").Float()
			lng := gjson.Get(val, "longitude").Float()
			return &Coordinates{Latitude: lat, Longitude: lng}, nil
		}
	}

	var body []byte
	for attempt, wait := range zipBackoff {
		if wait > 0 {
			time.Sleep(wait)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", zipAPIBase, zip), nil)
		if err != nil {
			return nil, err
		}
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			log.Printf("[geo] attempt %d for zip %s failed: %s\n", attempt+1, zip, err.Error())
			continue
		}
		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			log.Printf("[geo] attempt %d for zip %s returned status %d\n", attempt+1, zip, res.StatusCode)
			continue
		}
		body, err = io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			log.Printf("[geo] error reading response for zip %s: %s\n", zip, err.Error())
			body = nil
			continue
		}
		break
	}
	if body == nil {
		return nil, nil
	}

	place := gjson.GetBytes(body, "places.0")
	if !place.Exists() {
		return nil, nil
	}
	coords := &Coordinates{
		Latitude:  place.Get("latitude").Float(),
		Longitude: place.Get("longitude").Float(),
	}
	if rd != nil {
		cached := fmt.Sprintf(`{"latitude":%f,"longitude":%f}`, coords.Latitude, coords.Longitude)
		if err := rd.SetEx(ctx, cacheKey, cached, zipCacheTTL).Err(); err != nil {
			log.Printf("[geo] error caching coordinates for zip %s: %s\n", zip, err.Error())
		}
	}
	return coords, nil
}

const earthRadiusMiles = 3958.8

// DistanceMiles returns the haversine distance rounded to one decimal mile.
func DistanceMiles(a, b Coordinates) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return math.Round(earthRadiusMiles*c*10) / 10
}
