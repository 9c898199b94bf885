package views

import (
	"math"

	"spendboard/internal/core"
)

// Coordinate is a longitude/latitude pair a renderer can anchor a country on.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// CategoryTotal is one category slice of a country.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// CountryTotal is the spend of one country split by category. Coordinate is
// nil for countries missing from the centroid table.
type CountryTotal struct {
	Country    string          `json:"country"`
	Total      float64         `json:"total"`
	Categories []CategoryTotal `json:"categories"`
	Coordinate *Coordinate     `json:"coordinate,omitempty"`
	Radius     float64         `json:"radius"`
}

// GeoView is spend grouped by country, then by category at Level.
type GeoView struct {
	Level      core.Level     `json:"level"`
	Countries  []CountryTotal `json:"countries"`
	Categories []string       `json:"categories"`
}

var countryCentroids = map[string]Coordinate{
	"USA":         {-95.7129, 37.0902},
	"UK":          {-3.436, 55.3781},
	"France":      {2.2137, 46.2276},
	"Germany":     {10.4515, 51.1657},
	"Japan":       {138.2529, 36.2048},
	"China":       {104.1954, 35.8617},
	"India":       {78.9629, 20.5937},
	"Canada":      {-106.3468, 56.1304},
	"Australia":   {133.7751, -25.2744},
	"Brazil":      {-51.9253, -14.235},
	"Mexico":      {-102.5528, 23.6345},
	"Spain":       {-3.7492, 40.4637},
	"Italy":       {12.5674, 41.8719},
	"Denmark":     {9.5018, 56.2639},
	"Netherlands": {5.2913, 52.1326},
	"Switzerland": {8.2275, 46.8182},
	"Sweden":      {18.6435, 60.1282},
	"Norway":      {8.4689, 60.472},
	"NewZealand":  {174.886, -40.9006},
	"Thailand":    {100.9925, 15.87},
	"Argentina":   {-63.6167, -38.4161},
	"Belgium":     {4.4699, 50.5039},
	"Singapore":   {103.8198, 1.3521},
	"South Korea": {127.078, 37.5665},
	"Malaysia":    {101.6964, 4.2105},
	"Chile":       {-71.543, -35.6751},
	"Austria":     {14.5501, 47.5162},
	"Poland":      {19.1451, 51.9194},
	"Portugal":    {-8.2245, 39.3999},
	"Greece":      {21.8243, 39.0742},
}

// LookupCoordinate returns the centroid used to place country on a map.
func LookupCoordinate(country string) (Coordinate, bool) {
	c, ok := countryCentroids[country]
	return c, ok
}

const (
	minRadius     = 10
	maxRadius     = 25
	radiusDivisor = 50000
)

// BubbleRadius scales a country total to a marker radius in pixels.
func BubbleRadius(total float64) float64 {
	return math.Min(math.Max(total/radiusDivisor, minRadius), maxRadius)
}

// GeoCategory groups records by country and by category at level. Countries
// without a known coordinate are still reported.
func GeoCategory(records []core.SpendRecord, level core.Level) GeoView {
	if level == "" {
		level = core.Level1
	}
	byCountry := newTallies()
	legend := newTallies()
	for _, r := range records {
		category := level.Of(r)
		byCountry.add(r.Amount, r.Country, category)
		legend.get(category)
	}

	view := GeoView{
		Level:      level,
		Countries:  make([]CountryTotal, 0, byCountry.len()),
		Categories: make([]string, 0, legend.len()),
	}
	for _, g := range legend.list {
		view.Categories = append(view.Categories, g.name)
	}
	for _, g := range byCountry.list {
		ct := CountryTotal{
			Country:    g.name,
			Total:      g.sum.Float64(),
			Categories: make([]CategoryTotal, 0, g.children.len()),
		}
		for _, c := range g.children.list {
			ct.Categories = append(ct.Categories, CategoryTotal{Category: c.name, Total: c.sum.Float64()})
		}
		if coord, ok := LookupCoordinate(g.name); ok {
			ct.Coordinate = &coord
		}
		ct.Radius = BubbleRadius(ct.Total)
		view.Countries = append(view.Countries, ct)
	}
	return view
}

// Placeable returns the countries that carry a coordinate.
func (v GeoView) Placeable() []CountryTotal {
	out := make([]CountryTotal, 0, len(v.Countries))
	for _, c := range v.Countries {
		if c.Coordinate != nil {
			out = append(out, c)
		}
	}
	return out
}

// Country returns the entry for name.
func (v GeoView) Country(name string) (CountryTotal, bool) {
	for _, c := range v.Countries {
		if c.Country == name {
			return c, true
		}
	}
	return CountryTotal{}, false
}
