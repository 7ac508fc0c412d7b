package catalog

import (
	"strings"
	"time"

	"github.com/sweetpotato0/agri-advisor/record"
)

type cropAdvice struct {
	title  string
	advice []string
	pests  []string
}

var cropAdvisories = map[string]cropAdvice{
	"wheat": {"Wheat crop management", []string{
		"Sow between 1 and 25 November for timely sown irrigated wheat.",
		"Apply the first irrigation at crown root initiation, 20-25 days after sowing.",
		"Split nitrogen: half at sowing, the rest at first and second irrigation.",
	}, []string{"yellow rust", "aphids", "termites"}},
	"rice": {"Paddy crop management", []string{
		"Transplant 25-30 day old seedlings at 20x15 cm spacing.",
		"Keep 2-5 cm standing water during tillering; drain before harvest.",
		"Use pheromone traps to monitor stem borer.",
	}, []string{"stem borer", "brown planthopper", "blast"}},
	"cotton": {"Cotton crop management", []string{
		"Install 5 pheromone traps per acre to monitor pink bollworm.",
		"Remove and destroy rosette flowers during flowering.",
		"Avoid repeated sprays of the same insecticide group.",
	}, []string{"pink bollworm", "whitefly", "jassids"}},
	"onion": {"Onion crop management", []string{
		"Irrigate at 8-10 day intervals; stop irrigation 10-15 days before harvest.",
		"Cure harvested bulbs in shade for 3-4 days before storage.",
		"Spray mancozeb at first sign of purple blotch.",
	}, []string{"thrips", "purple blotch"}},
	"tomato": {"Tomato crop management", []string{
		"Stake plants at 30-40 days to reduce fruit rot.",
		"Remove and destroy leaves with early blight spots.",
		"Use yellow sticky traps against whitefly.",
	}, []string{"fruit borer", "early blight", "leaf curl virus"}},
	"soybean": {"Soybean crop management", []string{
		"Sow after 100 mm of monsoon rain at 3-4 cm depth.",
		"Treat seed with Rhizobium and PSB culture before sowing.",
		"Keep the field weed free for the first 45 days.",
	}, []string{"girdle beetle", "yellow mosaic"}},
	"potato": {"Potato crop management", []string{
		"Earth up 30-35 days after planting.",
		"Spray preventive fungicide when late blight weather (cool, humid) persists.",
	}, []string{"late blight", "aphids"}},
	"sugarcane": {"Sugarcane crop management", []string{
		"Use three-bud setts treated with fungicide.",
		"Trash mulching conserves moisture between irrigations.",
	}, []string{"early shoot borer", "red rot"}},
	"chickpea": {"Chickpea crop management", []string{
		"Nip the tips at 30-40 days to encourage branching.",
		"Install bird perches to control pod borer.",
	}, []string{"pod borer", "wilt"}},
	"maize": {"Maize crop management", []string{
		"Scout for fall armyworm in leaf whorls twice a week.",
		"Apply nitrogen in three splits.",
	}, []string{"fall armyworm", "stem borer"}},
}

var stageAdvice = map[string]string{
	"sowing":      "Use certified seed and treat it before sowing.",
	"germination": "Ensure light, frequent irrigation until seedlings establish.",
	"vegetative":  "Complete weeding and top-dress nitrogen during active growth.",
	"flowering":   "Avoid water stress and broad-spectrum sprays during flowering.",
	"harvest":     "Harvest at physiological maturity and dry produce before storage.",
}

func advisory(crop string, now time.Time) record.AdvisoryPayload {
	crop = strings.ToLower(strings.TrimSpace(crop))
	a, ok := cropAdvisories[crop]
	if !ok {
		a = cropAdvice{title: "General farm advisory", advice: []string{
			"Follow the crop calendar issued by your state agriculture department.",
			"Scout fields weekly for pests and diseases before spraying.",
			"Use soil test results to decide fertilizer doses.",
		}}
	}
	p := record.AdvisoryPayload{Crop: crop, Title: a.title, Advice: append([]string(nil), a.advice...), Pests: a.pests}
	if stage := seasonStage(now); stage != "" && crop != "" {
		p.Stage = stage
		if s, ok := stageAdvice[stage]; ok {
			p.Advice = append(p.Advice, s)
		}
	}
	return p
}

// seasonStage is a coarse stage guess from the calendar month.
func seasonStage(now time.Time) string {
	switch now.Month() {
	case time.June, time.July, time.October, time.November:
		return "sowing"
	case time.August, time.December, time.January:
		return "vegetative"
	case time.September, time.February:
		return "flowering"
	case time.March, time.April:
		return "harvest"
	}
	return ""
}

type soilProfile struct {
	texture string
	ph      float64
	n, p, k float64
	oc      float64
}

var stateSoils = map[string]soilProfile{
	"maharashtra":    {"black cotton (vertisol)", 7.8, 210, 18, 320, 0.55},
	"punjab":         {"alluvial loam", 8.0, 180, 22, 260, 0.45},
	"haryana":        {"alluvial sandy loam", 8.1, 170, 20, 250, 0.40},
	"uttar pradesh":  {"alluvial loam", 7.6, 200, 19, 240, 0.50},
	"madhya pradesh": {"medium black", 7.5, 220, 16, 300, 0.58},
	"gujarat":        {"black and sandy", 7.9, 190, 21, 290, 0.48},
	"karnataka":      {"red loam", 6.5, 230, 14, 180, 0.62},
	"tamil nadu":     {"red and alluvial", 6.9, 240, 15, 210, 0.60},
	"telangana":      {"red sandy loam", 6.8, 215, 17, 200, 0.52},
	"andhra pradesh": {"red and black", 7.2, 225, 18, 230, 0.55},
	"rajasthan":      {"desert sandy", 8.3, 140, 12, 220, 0.30},
	"bihar":          {"alluvial", 7.3, 205, 20, 210, 0.50},
	"west bengal":    {"alluvial clay", 6.4, 250, 24, 190, 0.70},
	"odisha":         {"laterite", 5.8, 235, 13, 170, 0.65},
	"kerala":         {"laterite", 5.4, 260, 12, 160, 0.90},
}

func soil(loc record.Location) record.SoilPayload {
	sp, ok := stateSoils[strings.ToLower(loc.State)]
	if !ok {
		sp = soilProfile{"loam", 7.0, 200, 18, 220, 0.50}
	}
	p := record.SoilPayload{
		PH: sp.ph, NitrogenKgHa: sp.n, PhosphorusKgHa: sp.p, PotassiumKgHa: sp.k,
		OrganicCarbonPct: sp.oc, Texture: sp.texture,
	}
	switch {
	case sp.ph >= 8.0:
		p.Recommendations = append(p.Recommendations, "Soil is alkaline: apply gypsum as per soil test and prefer ammonium sulphate.")
	case sp.ph < 6.0:
		p.Recommendations = append(p.Recommendations, "Soil is acidic: apply agricultural lime before sowing.")
	}
	if sp.oc < 0.5 {
		p.Recommendations = append(p.Recommendations, "Organic carbon is low: add 5 t/ha farmyard manure or compost.")
	}
	if sp.p < 15 {
		p.Recommendations = append(p.Recommendations, "Phosphorus is low: apply single super phosphate at sowing.")
	}
	p.Recommendations = append(p.Recommendations, "Get a Soil Health Card test every two years for field-specific doses.")
	return p
}

var schemes = []record.Scheme{
	{
		Name:        "PM-KISAN",
		Description: "Income support to landholding farmer families.",
		Eligibility: "All landholding farmer families, subject to exclusion criteria.",
		Benefit:     "Rs 6,000 per year in three instalments",
		URL:         "https://pmkisan.gov.in",
	},
	{
		Name:        "Pradhan Mantri Fasal Bima Yojana (PMFBY)",
		Description: "Crop insurance against yield loss from natural calamities, pests and diseases.",
		Benefit:     "Premium of 2% for kharif, 1.5% for rabi, 5% for commercial crops",
		URL:         "https://pmfby.gov.in",
	},
	{
		Name:        "Kisan Credit Card (KCC)",
		Description: "Short-term crop loans at concessional interest.",
		Benefit:     "Interest subvention; 4% effective rate on prompt repayment",
		Contact:     "Any commercial, cooperative or regional rural bank",
	},
	{
		Name:        "Soil Health Card",
		Description: "Free soil testing with nutrient and fertilizer recommendations.",
		URL:         "https://soilhealth.dac.gov.in",
	},
	{
		Name:        "PM Krishi Sinchai Yojana (PMKSY)",
		Description: "Subsidy for drip and sprinkler micro-irrigation.",
		Benefit:     "Up to 55% subsidy for small and marginal farmers",
	},
}
