package answer

import (
	"fmt"
	"strings"

	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/record"
	textlang "golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Section headings. Text with at least two of them counts as structured.
const (
	HeadingAdvisory        = "## Advisory"
	HeadingWeather         = "## Weather"
	HeadingMarket          = "## Market prices"
	HeadingCropAdvisory    = "## Crop advisory"
	HeadingSoil            = "## Soil health"
	HeadingSchemes         = "## Government schemes"
	HeadingRecommendations = "## Recommendations"
	HeadingSupport         = "## Support"
)

const supportBlock = HeadingSupport + "\n" +
	"- Kisan Call Centre: 1800-180-1551 (toll free, 6am to 10pm)\n" +
	"- Your nearest Krishi Vigyan Kendra (KVK) or block agriculture office"

// SuggestedQuestions are offered when no live answer can be given.
var SuggestedQuestions = []string{
	"What is the weather forecast for Pune tomorrow?",
	"What is the current wheat price in Ludhiana mandi?",
	"How do I control pests in cotton during flowering?",
	"Which fertilizer should I use for paddy in Thanjavur?",
	"Which government schemes can I apply for as a small farmer?",
}

// NoPriceLine is the sentence rendered for a crop without price data. An
// empty crop stands for market prices in general.
func NoPriceLine(crop, place string) string {
	line := "No current price data"
	if crop != "" {
		line += " for " + crop
	}
	if place != "" {
		line += " in " + place
	}
	return line + "."
}

// IsStructured reports whether text already follows the section template.
func IsStructured(text string) bool {
	return headingCount(text) >= 2
}

// Wrap puts unstructured text into the standard template.
func Wrap(text string, qc query.Context) string {
	if IsStructured(text) {
		return text
	}
	var b strings.Builder
	b.WriteString(title(qc))
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(text))
	b.WriteString("\n\n")
	b.WriteString(HeadingRecommendations)
	b.WriteString("\n")
	for _, r := range genericRecommendations(qc) {
		b.WriteString("- " + r + "\n")
	}
	b.WriteString("\n")
	b.WriteString(supportBlock)
	return b.String()
}

// Draft renders accepted records into a sectioned answer. missing holds
// market records whose requested crop had no price; they only ever produce
// a "no current price data" line.
func Draft(qc query.Context, accepted, missing []record.Record) string {
	p := message.NewPrinter(textlang.English)
	byCat := make(map[record.Category][]record.Record)
	for _, r := range accepted {
		byCat[r.Category] = append(byCat[r.Category], r)
	}

	var b strings.Builder
	b.WriteString(title(qc))
	b.WriteString("\n")
	b.WriteString(intro(qc))
	b.WriteString("\n")

	var recs []string
	for _, cat := range record.Categories {
		rs := byCat[cat]
		if cat == record.CategoryMarket && len(missing) > 0 {
			b.WriteString("\n" + HeadingMarket + "\n")
			writeMissing(&b, p, qc, missing)
			for _, r := range rs {
				if m, ok := r.Payload.(record.MarketPayload); ok {
					writeMarket(&b, p, m, qc.CropName())
				}
			}
			continue
		}
		if len(rs) == 0 {
			continue
		}
		for _, r := range rs {
			recs = append(recs, writeRecord(&b, p, r, qc)...)
		}
	}

	if len(recs) == 0 {
		recs = genericRecommendations(qc)
	}
	b.WriteString("\n" + HeadingRecommendations + "\n")
	for _, r := range dedupe(recs) {
		b.WriteString("- " + r + "\n")
	}
	b.WriteString("\n")
	b.WriteString(supportBlock)
	return b.String()
}

// writeRecord emits one section and returns recommendations it implies.
func writeRecord(b *strings.Builder, p *message.Printer, r record.Record, qc query.Context) []string {
	switch pl := r.Payload.(type) {
	case record.WeatherPayload:
		b.WriteString("\n" + HeadingWeather + sourceTag(r) + "\n")
		c := pl.Current
		b.WriteString(p.Sprintf("- Now: %s, %.1f°C, humidity %d%%, rainfall %.1f mm, wind %.0f km/h\n",
			c.Condition, c.TempC, c.Humidity, c.RainfallMM, c.WindKmph))
		var out []string
		for _, d := range pl.Forecast {
			b.WriteString(p.Sprintf("- %s: %s, %.0f-%.0f°C, %d%% chance of rain\n", d.Date, d.Condition, d.MinC, d.MaxC, d.RainChance))
			if d.RainChance >= 60 {
				out = append(out, fmt.Sprintf("Rain is likely on %s: postpone spraying and fertilizer application.", d.Date))
			}
		}
		for _, a := range pl.Alerts {
			b.WriteString("- Alert: " + a + "\n")
		}
		if c.TempC >= 38 {
			out = append(out, "High temperature expected: irrigate in the early morning or evening.")
		}
		return out
	case record.MarketPayload:
		b.WriteString("\n" + HeadingMarket + sourceTag(r) + "\n")
		writeMarket(b, p, pl, qc.CropName())
		return nil
	case record.AdvisoryPayload:
		head := HeadingCropAdvisory
		if pl.Title != "" {
			head += ": " + pl.Title
		}
		b.WriteString("\n" + head + sourceTag(r) + "\n")
		if pl.Stage != "" {
			b.WriteString("- Stage: " + pl.Stage + "\n")
		}
		if len(pl.Pests) > 0 {
			b.WriteString("- Watch for: " + strings.Join(pl.Pests, ", ") + "\n")
		}
		return pl.Advice
	case record.SoilPayload:
		b.WriteString("\n" + HeadingSoil + sourceTag(r) + "\n")
		b.WriteString(p.Sprintf("- pH %.1f, organic carbon %.2f%%, texture %s\n", pl.PH, pl.OrganicCarbonPct, pl.Texture))
		b.WriteString(p.Sprintf("- N %.0f, P %.0f, K %.0f kg/ha\n", pl.NitrogenKgHa, pl.PhosphorusKgHa, pl.PotassiumKgHa))
		return pl.Recommendations
	case record.SchemePayload:
		b.WriteString("\n" + HeadingSchemes + sourceTag(r) + "\n")
		for _, s := range pl.Schemes {
			line := "- " + s.Name + ": " + s.Description
			if s.Benefit != "" {
				line += " Benefit: " + s.Benefit + "."
			}
			b.WriteString(line + "\n")
		}
		return nil
	default:
		return nil
	}
}

func writeMarket(b *strings.Builder, p *message.Printer, m record.MarketPayload, requested string) {
	for _, cp := range m.Prices {
		if m.MissingDataNote != "" && strings.EqualFold(cp.Crop, m.RequestedCrop) {
			continue
		}
		label := cp.Crop
		if requested != "" && !strings.EqualFold(cp.Crop, requested) {
			label += " (related crop)"
		}
		line := p.Sprintf("- %s at %s: ₹%.0f/%s (range ₹%.0f-₹%.0f)", label, cp.Market, cp.ModalPrice, unit(cp.Unit), cp.MinPrice, cp.MaxPrice)
		if cp.Trend != "" {
			line += ", trend " + cp.Trend
		}
		if cp.Date != "" {
			line += ", " + cp.Date
		}
		b.WriteString(line + "\n")
	}
}

func writeMissing(b *strings.Builder, p *message.Printer, qc query.Context, missing []record.Record) {
	seen := make(map[string]bool)
	for _, r := range missing {
		m, ok := r.Payload.(record.MarketPayload)
		if !ok {
			continue
		}
		crop := m.RequestedCrop
		if crop == "" {
			crop = qc.CropName()
		}
		if seen[strings.ToLower(crop)] {
			continue
		}
		seen[strings.ToLower(crop)] = true
		b.WriteString("- " + NoPriceLine(crop, qc.Place().String()) + "\n")
		if m.MissingDataNote != "" {
			b.WriteString("- Note: " + m.MissingDataNote + "\n")
		}
		if len(m.RelatedCrops) > 0 {
			b.WriteString("- Related crops with prices: " + strings.Join(m.RelatedCrops, ", ") + "\n")
		}
		writeMarket(b, p, m, crop)
	}
}

func unit(u string) string {
	if u == "" {
		return "quintal"
	}
	return u
}

func sourceTag(r record.Record) string {
	if r.Freshness == record.FreshnessFresh {
		return ""
	}
	return " (" + string(r.Freshness) + ")"
}

func title(qc query.Context) string {
	crop, place := qc.CropName(), qc.Place().String()
	switch {
	case crop != "" && place != "":
		return fmt.Sprintf("%s for %s in %s", HeadingAdvisory, crop, place)
	case crop != "":
		return fmt.Sprintf("%s for %s", HeadingAdvisory, crop)
	case place != "":
		return fmt.Sprintf("%s for %s", HeadingAdvisory, place)
	}
	return HeadingAdvisory
}

func intro(qc query.Context) string {
	if qc.Topics.IsGeneral() {
		return "Here is the latest information available for your question."
	}
	return "Here is the latest information on " + strings.ReplaceAll(qc.Topics.String(), ",", ", ") + "."
}

func genericRecommendations(qc query.Context) []string {
	out := []string{
		"Check the local weather forecast before spraying, sowing or irrigating.",
		"Get your soil tested through the Soil Health Card scheme before applying fertilizer.",
	}
	if crop := qc.CropName(); crop != "" {
		out = append(out, fmt.Sprintf("Use certified %s seed and follow the recommended variety for your district.", crop))
	}
	if qc.Topics.HasAny(query.TopicMarket, query.TopicPrice) {
		out = append(out, "Compare prices on the eNAM portal or at two nearby mandis before selling.")
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0:0]
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// GeneralGuidance is the offline answer when nothing similar was cached.
func GeneralGuidance(qc query.Context) string {
	var b strings.Builder
	b.WriteString(title(qc))
	b.WriteString("\nLive data is not available right now, so no current weather or price figures are shown.\n\n")
	b.WriteString(HeadingRecommendations + "\n")
	for _, r := range genericRecommendations(qc) {
		b.WriteString("- " + r + "\n")
	}
	b.WriteString("\n## You can also ask\n")
	for _, q := range SuggestedQuestions {
		b.WriteString("- " + q + "\n")
	}
	b.WriteString("\n")
	b.WriteString(supportBlock)
	return b.String()
}

// FallbackText is the fixed answer used when the pipeline fails.
func FallbackText() string {
	return HeadingAdvisory + "\n" +
		"We could not prepare a detailed answer for your question right now.\n\n" +
		HeadingRecommendations + "\n" +
		"- Please try again in a few minutes.\n" +
		"- For urgent crop problems contact your local agriculture officer.\n\n" +
		supportBlock
}

// Render formats a response for terminal output.
func Render(r Response) string {
	var b strings.Builder
	b.WriteString(r.Text)
	b.WriteString(fmt.Sprintf("\n\nConfidence: %.0f%% | Factual basis: %s | Origin: %s\n", r.Confidence*100, r.FactualBasis, r.Origin))
	if len(r.Sources) > 0 {
		b.WriteString("Sources:")
		for _, s := range r.Sources {
			b.WriteString(fmt.Sprintf(" %s (%s, %s);", s.SourceID, s.Category, s.Freshness))
		}
		b.WriteString("\n")
	}
	for _, d := range r.Disclaimers {
		b.WriteString("Note: " + d + "\n")
	}
	for _, s := range r.Suggestions {
		b.WriteString("Try: " + s + "\n")
	}
	return b.String()
}

// GeneralDraft is the local answer for questions that need no live data.
func GeneralDraft(qc query.Context) string {
	var b strings.Builder
	b.WriteString(title(qc))
	b.WriteString("\nGeneral guidance for your question.\n\n")
	b.WriteString(HeadingRecommendations + "\n")
	for _, r := range genericRecommendations(qc) {
		b.WriteString("- " + r + "\n")
	}
	b.WriteString("\n")
	b.WriteString(supportBlock)
	return b.String()
}

// EvidenceLines renders one line per fact in recs, most specific first,
// for use as generation evidence.
func EvidenceLines(recs []record.Record) []string {
	p := message.NewPrinter(textlang.English)
	var out []string
	for _, r := range recs {
		where := r.Location.String()
		if where == "" {
			where = "general"
		}
		prefix := fmt.Sprintf("[%s, %s, %s] ", r.Category, where, r.Freshness)
		switch pl := r.Payload.(type) {
		case record.WeatherPayload:
			c := pl.Current
			out = append(out, prefix+p.Sprintf("now %s, %.1f°C, humidity %d%%, rain %.1f mm", c.Condition, c.TempC, c.Humidity, c.RainfallMM))
			for _, d := range pl.Forecast {
				out = append(out, prefix+p.Sprintf("%s: %s, %.0f-%.0f°C, rain chance %d%%", d.Date, d.Condition, d.MinC, d.MaxC, d.RainChance))
			}
			for _, a := range pl.Alerts {
				out = append(out, prefix+"alert: "+a)
			}
		case record.MarketPayload:
			if pl.MissingDataNote != "" {
				out = append(out, prefix+NoPriceLine(pl.RequestedCrop, ""))
			}
			for _, cp := range pl.Prices {
				if pl.MissingDataNote != "" && strings.EqualFold(cp.Crop, pl.RequestedCrop) {
					continue
				}
				out = append(out, prefix+p.Sprintf("%s at %s: modal ₹%.0f/%s, range ₹%.0f-₹%.0f", cp.Crop, cp.Market, cp.ModalPrice, unit(cp.Unit), cp.MinPrice, cp.MaxPrice))
			}
		case record.AdvisoryPayload:
			for _, a := range pl.Advice {
				out = append(out, prefix+a)
			}
			if len(pl.Pests) > 0 {
				out = append(out, prefix+"pests to watch: "+strings.Join(pl.Pests, ", "))
			}
		case record.SoilPayload:
			out = append(out, prefix+p.Sprintf("pH %.1f, organic carbon %.2f%%, N %.0f P %.0f K %.0f kg/ha", pl.PH, pl.OrganicCarbonPct, pl.NitrogenKgHa, pl.PhosphorusKgHa, pl.PotassiumKgHa))
			for _, rec := range pl.Recommendations {
				out = append(out, prefix+rec)
			}
		case record.SchemePayload:
			for _, s := range pl.Schemes {
				out = append(out, prefix+s.Name+": "+s.Description)
			}
		}
	}
	return out
}

// RephraseText asks the user for a clearer question.
func RephraseText() string {
	var b strings.Builder
	b.WriteString(HeadingAdvisory + "\n")
	b.WriteString("Please ask a complete question, for example with your crop and district.\n\n")
	b.WriteString("## You can ask\n")
	for _, q := range SuggestedQuestions {
		b.WriteString("- " + q + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// BusyText is returned when the service is rate limiting requests.
func BusyText() string {
	return HeadingAdvisory + "\n" +
		"Too many questions are being asked right now. Please try again in a minute.\n\n" +
		supportBlock
}
