package record

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the closed set of category-specific record bodies. Consumers
// switch on the concrete type.
type Payload interface {
	Category() Category
	isPayload()
}

// WeatherPayload holds current conditions and a short forecast.
type WeatherPayload struct {
	Current  WeatherReading `json:"current"`
	Forecast []DayForecast  `json:"forecast,omitempty"`
	Alerts   []string       `json:"alerts,omitempty"`
}

type WeatherReading struct {
	TempC      float64 `json:"temp_c"`
	Humidity   int     `json:"humidity"`
	RainfallMM float64 `json:"rainfall_mm"`
	WindKmph   float64 `json:"wind_kmph"`
	Condition  string  `json:"condition"`
}

type DayForecast struct {
	Date       string  `json:"date"`
	MinC       float64 `json:"min_c"`
	MaxC       float64 `json:"max_c"`
	RainChance int     `json:"rain_chance"`
	Condition  string  `json:"condition"`
}

// MarketPayload carries mandi prices. When a crop was requested but the
// source has no price for it, MissingDataNote and RelatedCrops must be set
// and Prices only lists the related crops.
type MarketPayload struct {
	RequestedCrop   string      `json:"requested_crop,omitempty"`
	Prices          []CropPrice `json:"prices,omitempty"`
	MissingDataNote string      `json:"missing_data_note,omitempty"`
	RelatedCrops    []string    `json:"related_crops,omitempty"`
}

type CropPrice struct {
	Crop       string  `json:"crop"`
	Market     string  `json:"market"`
	MinPrice   float64 `json:"min_price"`
	MaxPrice   float64 `json:"max_price"`
	ModalPrice float64 `json:"modal_price"`
	Unit       string  `json:"unit"`
	Date       string  `json:"date"`
	Trend      string  `json:"trend,omitempty"`
}

// HasCrop reports whether a price line exists for crop.
func (m MarketPayload) HasCrop(crop string) bool {
	_, ok := m.PriceFor(crop)
	return ok
}

// PriceFor returns the price line for crop.
func (m MarketPayload) PriceFor(crop string) (CropPrice, bool) {
	for _, p := range m.Prices {
		if strings.EqualFold(p.Crop, crop) {
			return p, true
		}
	}
	return CropPrice{}, false
}

// AdvisoryPayload is crop or general farming guidance.
type AdvisoryPayload struct {
	Crop      string   `json:"crop,omitempty"`
	Title     string   `json:"title"`
	Stage     string   `json:"stage,omitempty"`
	Advice    []string `json:"advice"`
	Pests     []string `json:"pests,omitempty"`
	Synthetic bool     `json:"synthetic,omitempty"`
}

// SoilPayload is a soil health card summary.
type SoilPayload struct {
	PH               float64  `json:"ph"`
	NitrogenKgHa     float64  `json:"nitrogen_kg_ha"`
	PhosphorusKgHa   float64  `json:"phosphorus_kg_ha"`
	PotassiumKgHa    float64  `json:"potassium_kg_ha"`
	OrganicCarbonPct float64  `json:"organic_carbon_pct"`
	Texture          string   `json:"texture"`
	Recommendations  []string `json:"recommendations,omitempty"`
}

// SchemePayload lists government schemes relevant to the farmer.
type SchemePayload struct {
	Schemes []Scheme `json:"schemes"`
}

type Scheme struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Eligibility string `json:"eligibility,omitempty"`
	Benefit     string `json:"benefit,omitempty"`
	Contact     string `json:"contact,omitempty"`
	URL         string `json:"url,omitempty"`
}

func (WeatherPayload) Category() Category  { return CategoryWeather }
func (MarketPayload) Category() Category   { return CategoryMarket }
func (AdvisoryPayload) Category() Category { return CategoryAdvisory }
func (SoilPayload) Category() Category     { return CategorySoil }
func (SchemePayload) Category() Category   { return CategoryScheme }

func (WeatherPayload) isPayload()  {}
func (MarketPayload) isPayload()   {}
func (AdvisoryPayload) isPayload() {}
func (SoilPayload) isPayload()     {}
func (SchemePayload) isPayload()   {}

func decodePayload(c Category, raw json.RawMessage) (Payload, error) {
	switch c {
	case CategoryWeather:
		var p WeatherPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case CategoryMarket:
		var p MarketPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case CategoryAdvisory:
		var p AdvisoryPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case CategorySoil:
		var p SoilPayload
		err := json.Unmarshal(raw, &p)
		return p, err
	case CategoryScheme:
		var p SchemePayload
		err := json.Unmarshal(raw, &p)
		return p, err
	default:
		return nil, fmt.Errorf("unknown record category %q", c)
	}
}

// DecodePayload decodes raw JSON into the payload variant for c.
func DecodePayload(c Category, raw []byte) (Payload, error) {
	return decodePayload(c, raw)
}
