// Package extract pulls location, crop and topics out of a farmer's question.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/record"
	"golang.org/x/text/cases"
	textlang "golang.org/x/text/language"
)

const (
	// minCropOverlap is the shortest shared prefix accepted for a partial
	// crop match.
	minCropOverlap = 3
	// maxCropSuffix bounds inflection on a partial match ("tomatoes").
	maxCropSuffix = 3
)

var (
	rePincode       = regexp.MustCompile(`\b[1-9][0-9]{5}\b`)
	reDistrictAfter = regexp.MustCompile(`\b([a-z]{3,})\s+(?:district|dist|jilla|zilla)\b`)
	reDistrictFirst = regexp.MustCompile(`\b(?:district|dist|jilla|zilla)\s+(?:of\s+)?([a-z]{3,})\b`)

	topicPatterns = []struct {
		topic query.Topic
		re    *regexp.Regexp
	}{
		{query.TopicWeather, regexp.MustCompile(`\b(weather|forecast|rain\w*|temperature|humid\w*|monsoon|climate|wind\w*|storm|frost|hail\w*|heat\s?wave)\b`)},
		{query.TopicMarket, regexp.MustCompile(`\b(market\w*|mandi|sell\w*|buy\w*|trade|trader\w*|arrival\w*|apmc)\b`)},
		{query.TopicPrice, regexp.MustCompile(`\b(price\w*|rate|rates|cost\w*|msp)\b`)},
		{query.TopicAdvisory, regexp.MustCompile(`\b(advi[cs]\w*|pest\w*|disease\w*|insect\w*|fung\w*|spray\w*|control|protect\w*|recommend\w*|blight|wilt|borer\w*|aphid\w*|weed\w*)\b`)},
		{query.TopicSoil, regexp.MustCompile(`\b(soil\w*|ph|nutrient\w*|organic|texture|erosion|salinity)\b`)},
		{query.TopicFertilizer, regexp.MustCompile(`\b(fertili[sz]\w*|urea|dap|npk|manure|compost|potash|nitrogen|zinc)\b`)},
		{query.TopicIrrigation, regexp.MustCompile(`\b(irrigat\w*|water\w*|drip|sprinkler\w*|moisture)\b`)},
		{query.TopicScheme, regexp.MustCompile(`\b(scheme\w*|subsid\w*|loan\w*|insurance|pm\s?kisan|pmfby|yojana|government|govt|credit|kcc|benefit\w*)\b`)},
	}
)

type alias struct {
	text  string
	latin bool
	place *place
}

// Extractor is a pure function of its input; it is safe for concurrent use.
type Extractor struct {
	aliases    []alias
	cropExact  map[string]*cropEntry
	cropPhrase []alias
	cropList   []cropEntry
	now        func() time.Time
}

// New creates an extractor over the built-in gazetteer and crop dictionary.
func New() *Extractor {
	e := &Extractor{cropExact: make(map[string]*cropEntry), now: time.Now}
	for i := range builtinPlaces {
		p := &builtinPlaces[i]
		for _, a := range p.Aliases {
			n := preprocess.Normalize(a)
			e.aliases = append(e.aliases, alias{text: n, latin: isLatin(n), place: p})
		}
	}
	sort.SliceStable(e.aliases, func(i, j int) bool {
		return utf8.RuneCountInString(e.aliases[i].text) > utf8.RuneCountInString(e.aliases[j].text)
	})

	e.cropList = builtinCrops
	for i := range e.cropList {
		c := &e.cropList[i]
		for _, a := range c.Aliases {
			n := preprocess.Normalize(a)
			if strings.Contains(n, " ") {
				e.cropPhrase = append(e.cropPhrase, alias{text: n})
			}
			e.cropExact[n] = c
		}
	}
	return e
}

// Extract builds the query context from the original text and its
// translation. Either may be empty; matching is case-insensitive.
func (e *Extractor) Extract(original, translated, lang string) query.Context {
	hay := preprocess.Normalize(original)
	if t := preprocess.Normalize(translated); t != "" && t != hay {
		hay += " " + t
	}
	padded := " " + hay + " "

	ctx := query.Context{
		Location:  e.location(padded, original+" "+translated),
		Crop:      e.crop(hay, padded),
		Topics:    topics(hay),
		Language:  lang,
		Timestamp: e.now(),
	}
	return ctx
}

func (e *Extractor) location(padded, raw string) *record.Location {
	var state, district *place
	for _, a := range e.aliases {
		if !containsAlias(padded, a) {
			continue
		}
		if a.place.District != "" {
			if district == nil {
				district = a.place
			}
		} else if state == nil {
			state = a.place
		}
	}

	loc := record.Location{}
	switch {
	case district != nil:
		loc.State, loc.District = district.State, district.District
	case state != nil:
		loc.State = state.State
	default:
		if m := reDistrictAfter.FindStringSubmatch(padded); m != nil && !isStopName(m[1]) {
			loc.District = title(m[1])
		} else if m := reDistrictFirst.FindStringSubmatch(padded); m != nil && !isStopName(m[1]) {
			loc.District = title(m[1])
		}
	}

	if pin := rePincode.FindString(raw); pin != "" {
		loc.Pincode = pin
		if loc.State == "" {
			loc.State = pinPrefixes[pin[:2]]
		}
	}
	if loc.IsZero() {
		return nil
	}
	return &loc
}

func containsAlias(padded string, a alias) bool {
	if a.latin {
		return strings.Contains(padded, " "+a.text+" ")
	}
	return strings.Contains(padded, a.text)
}

func isStopName(s string) bool {
	switch s {
	case "the", "which", "what", "this", "that", "our", "my", "your", "each", "every", "same":
		return true
	}
	return false
}

func (e *Extractor) crop(hay, padded string) *query.Crop {
	words := strings.Fields(hay)

	// Phrases first: "pearl millet" is bajra, not millet.
	var found *cropEntry
	for _, a := range e.cropPhrase {
		if strings.Contains(padded, " "+a.text+" ") {
			found = e.cropExact[a.text]
			break
		}
	}
	if found == nil {
		for _, w := range words {
			if c, ok := e.cropExact[w]; ok {
				found = c
				break
			}
		}
	}
	if found == nil {
		found = e.partialCrop(words)
	}
	if found == nil {
		return nil
	}
	return &query.Crop{Name: found.Name, Season: found.Season, Stage: stage(words)}
}

// partialCrop accepts a word that extends an alias by a short inflection, or
// a word of at least four letters that abbreviates an alias. The shared
// prefix is at least minCropOverlap runes, so "price" never matches "rice".
func (e *Extractor) partialCrop(words []string) *cropEntry {
	for _, w := range words {
		wl := utf8.RuneCountInString(w)
		if wl < minCropOverlap {
			continue
		}
		for i := range e.cropList {
			c := &e.cropList[i]
			for _, a := range c.Aliases {
				a = preprocess.Normalize(a)
				al := utf8.RuneCountInString(a)
				if al < minCropOverlap {
					continue
				}
				if strings.HasPrefix(w, a) && wl-al <= maxCropSuffix {
					return c
				}
				if wl >= 4 && strings.HasPrefix(a, w) {
					return c
				}
			}
		}
	}
	return nil
}

func stage(words []string) string {
	for _, s := range stageKeywords {
		for _, k := range s.Keywords {
			for _, w := range words {
				if w == k {
					return s.Stage
				}
			}
		}
	}
	return ""
}

func topics(hay string) query.Topics {
	set := query.NewTopics()
	for _, p := range topicPatterns {
		if p.re.MatchString(hay) {
			set[p.topic] = struct{}{}
		}
	}
	if len(set) == 0 {
		set[query.TopicGeneral] = struct{}{}
	}
	return set
}

// cases.Caser is stateful, so one is built per call.
func title(s string) string {
	return cases.Title(textlang.English).String(s)
}

func isLatin(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) && !unicode.Is(unicode.Latin, r) {
			return false
		}
	}
	return true
}
