package services

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Geo is a best-effort location snapshot for a requesting IP.
type Geo struct {
	Country   string
	Region    string
	City      string
	Latitude  float64
	Longitude float64
}

// GeoService resolves request IPs against an ip-api style endpoint.
// Lookups carry their own timeout and degrade to an empty Geo; they never
// fail the parent request.
type GeoService struct {
	apiURL string
	client *http.Client
}

// NewGeoService creates a new GeoService.
func NewGeoService(apiURL string, timeout time.Duration) *GeoService {
	return &GeoService{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

type geoResponse struct {
	Status     string  `json:"status"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
}

// Lookup resolves the given IP to a location snapshot.
func (g *GeoService) Lookup(ip string) Geo {
	if g.apiURL == "" || ip == "" {
		return Geo{}
	}

	resp, err := g.client.Get(fmt.Sprintf("%s/%s", g.apiURL, ip))
	if err != nil {
		log.Printf("[Geo] lookup failed: %v", err)
		return Geo{}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Geo{}
	}

	var parsed geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Geo{}
	}

	if parsed.Status != "success" {
		return Geo{}
	}

	return Geo{
		Country:   parsed.Country,
		Region:    parsed.RegionName,
		City:      parsed.City,
		Latitude:  parsed.Lat,
		Longitude: parsed.Lon,
	}
}
