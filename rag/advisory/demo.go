package advisory

import (
	"strings"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
	"github.com/sweetpotato0/agri-advisor/rag/query"
)

const (
	// DefaultDemoThreshold is the minimum demo similarity. It has not been
	// calibrated against real traffic.
	DefaultDemoThreshold = 0.7
	demoConfidence       = 0.9
	keywordBoost         = 0.05
	keywordBoostCap      = 0.15
)

// domainKeywords raise the similarity of questions sharing them.
var domainKeywords = map[string]bool{
	"weather": true, "forecast": true, "rain": true, "rainfall": true, "price": true, "prices": true,
	"mandi": true, "pest": true, "pests": true, "sow": true, "sowing": true, "fertilizer": true,
	"scheme": true, "kisan": true, "irrigation": true, "soil": true, "bollworm": true,
}

// Demo is a curated question with a fixed answer.
type Demo struct {
	Question string
	Answer   string
	// District and Crop pin the demo: a question naming another place or
	// crop never matches it.
	District string
	Crop     string
}

// DemoSet matches questions against curated demos. It is read-only after
// construction.
type DemoSet struct {
	demos     []Demo
	normal    []string
	threshold float64
}

// NewDemoSet builds a set. A threshold <= 0 uses DefaultDemoThreshold.
func NewDemoSet(threshold float64, demos ...Demo) *DemoSet {
	if threshold <= 0 {
		threshold = DefaultDemoThreshold
	}
	s := &DemoSet{threshold: threshold, demos: demos}
	for _, d := range demos {
		s.normal = append(s.normal, preprocess.Normalize(d.Question))
	}
	return s
}

// Match returns the best demo for q scoring at least the threshold.
func (s *DemoSet) Match(q string, qc query.Context) (Demo, float64, bool) {
	if s == nil {
		return Demo{}, 0, false
	}
	nq := preprocess.Normalize(q)
	best, bestScore := -1, 0.0
	for i, d := range s.demos {
		if !compatible(d, qc) {
			continue
		}
		if score := demoScore(nq, s.normal[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < s.threshold {
		return Demo{}, bestScore, false
	}
	return s.demos[best], bestScore, true
}

func compatible(d Demo, qc query.Context) bool {
	if loc := qc.Place(); d.District != "" && loc.District != "" && !strings.EqualFold(loc.District, d.District) {
		return false
	}
	if crop := qc.CropName(); d.Crop != "" && crop != "" && !strings.EqualFold(crop, d.Crop) {
		return false
	}
	return true
}

// demoScore is 1 for an exact match, 0.9 when one contains the other, and
// otherwise word similarity plus domain keyword boosts, capped at 1.
func demoScore(nq, nd string) float64 {
	switch {
	case nq == "" || nd == "":
		return 0
	case nq == nd:
		return 1
	case strings.Contains(nd, nq) && len(strings.Fields(nq)) >= 3, strings.Contains(nq, nd):
		return 0.9
	}
	score := preprocess.Similarity(nq, nd)
	if score == 0 {
		return 0
	}
	dw := make(map[string]bool)
	for _, w := range strings.Fields(nd) {
		dw[w] = true
	}
	boost := 0.0
	for _, w := range preprocess.SignificantWords(nq) {
		if domainKeywords[w] && dw[w] {
			boost += keywordBoost
		}
	}
	score += min(boost, keywordBoostCap)
	return min(score, 1)
}

func (d Demo) response() answer.Response {
	return answer.Response{
		Text:         d.Answer,
		Confidence:   demoConfidence,
		FactualBasis: answer.BasisHigh,
		Disclaimers:  []string{answer.DisclaimerDemo},
		Origin:       answer.OriginDemo,
	}
}

// DefaultDemos are the showcase questions.
func DefaultDemos() []Demo {
	return []Demo{
		{
			Question: "What is the weather forecast for Pune tomorrow?",
			District: "Pune",
			Answer: answer.HeadingAdvisory + " for Pune, Maharashtra\n" +
				"Sample forecast for tomorrow: partly cloudy, warm afternoon, light evening showers possible.\n\n" +
				answer.HeadingWeather + "\n" +
				"- Morning: clear to partly cloudy, calm winds\n" +
				"- Afternoon: warm and humid\n" +
				"- Evening: isolated light showers possible\n\n" +
				answer.HeadingRecommendations + "\n" +
				"- Finish spraying in the morning so the crop stays dry before evening showers.\n" +
				"- Delay urea top dressing until the showers pass.\n" +
				"- Keep field drains open in low-lying plots.\n\n" +
				answer.HeadingSupport + "\n" +
				"- Kisan Call Centre: 1800-180-1551 (toll free, 6am to 10pm)\n" +
				"- Your nearest Krishi Vigyan Kendra (KVK) or block agriculture office",
		},
		{
			Question: "How do I control pink bollworm in cotton?",
			Crop:     "cotton",
			Answer: answer.HeadingAdvisory + " for cotton\n" +
				"Pink bollworm is best managed with monitoring and timely action.\n\n" +
				answer.HeadingCropAdvisory + ": Pink bollworm\n" +
				"- Install 5 pheromone traps per hectare from 45 days after sowing.\n" +
				"- Act when traps catch 8 or more moths per trap for three nights in a row.\n" +
				"- Remove and destroy rosette flowers and damaged bolls.\n\n" +
				answer.HeadingRecommendations + "\n" +
				"- Avoid extending the crop beyond its normal season.\n" +
				"- Use only insecticides recommended for your state and follow label doses.\n\n" +
				answer.HeadingSupport + "\n" +
				"- Kisan Call Centre: 1800-180-1551 (toll free, 6am to 10pm)\n" +
				"- Your nearest Krishi Vigyan Kendra (KVK) or block agriculture office",
		},
		{
			Question: "How can I apply for the PM-KISAN scheme?",
			Answer: answer.HeadingAdvisory + "\n" +
				"PM-KISAN gives eligible landholding farmer families income support in three instalments a year.\n\n" +
				answer.HeadingSchemes + "\n" +
				"- Register on the PM-KISAN portal (Farmers Corner) or through your Common Service Centre.\n" +
				"- Keep Aadhaar, land records and a bank account linked to Aadhaar ready.\n" +
				"- Complete e-KYC on the portal or at a CSC to keep receiving instalments.\n\n" +
				answer.HeadingRecommendations + "\n" +
				"- Check your beneficiary status on the portal after registering.\n\n" +
				answer.HeadingSupport + "\n" +
				"- PM-KISAN helpline: 155261\n" +
				"- Kisan Call Centre: 1800-180-1551 (toll free, 6am to 10pm)",
		},
	}
}
