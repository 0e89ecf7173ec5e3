package model

import "math"

// Типы зон, для которых откалиброваны статические таблицы.
const (
	RegionIndustrialMetro   = "industrial_metro"
	RegionIndustrialSemiurb = "industrial_semiurb"
	RegionIndustrialSuburb  = "industrial_suburb"
	RegionIndustrialMixta   = "industrial_mixta"
	RegionAltaSeguridad     = "alta_seguridad"
)

type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Location identifies the site being scored. RegionType may be empty, in which
// case the catalog default applies.
type Location struct {
	Municipio   string       `json:"municipio"`
	Estado      string       `json:"estado"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	RegionType  string       `json:"region_type,omitempty"`
}

// WithRegionType returns a copy with the region type replaced.
func (l Location) WithRegionType(regionType string) Location {
	l.RegionType = regionType
	return l
}

// DistanceKm is the great-circle distance between two points.
func (c Coordinates) DistanceKm(o Coordinates) float64 {
	const R = 6371 // Радиус Земли в км
	dLat := (o.Lat - c.Lat) * math.Pi / 180
	dLon := (o.Lon - c.Lon) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(c.Lat*math.Pi/180)*math.Cos(o.Lat*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return R * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// SiteSurvey summarises mapped features around a site. NearestPoliceKm is
// negative when no police station was found.
type SiteSurvey struct {
	RadiusMeters    int     `json:"radius_meters"`
	PoliceStations  int     `json:"police_stations"`
	NightVenues     int     `json:"night_venues"`
	NearestPoliceKm float64 `json:"nearest_police_km"`
}
