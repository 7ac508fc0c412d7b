package language

import (
	"strings"

	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
)

// Translator maps agricultural vocabulary from regional languages into the
// base language with a closed glossary. It is word-level substitution, not
// machine translation: unknown words pass through unchanged.
type Translator struct {
	base      string
	glossary  map[string]map[string]string
	maxPhrase int
}

// NewTranslator creates a translator targeting base with the built-in glossary.
func NewTranslator(base string) *Translator {
	t := &Translator{base: Canonical(base), glossary: make(map[string]map[string]string)}
	for lang, entries := range builtinGlossary {
		t.Add(lang, entries)
	}
	return t
}

// Add merges glossary entries for lang. Keys may be multi-word phrases.
func (t *Translator) Add(lang string, entries map[string]string) {
	lang = Canonical(lang)
	m, ok := t.glossary[lang]
	if !ok {
		m = make(map[string]string, len(entries))
		t.glossary[lang] = m
	}
	for k, v := range entries {
		key := preprocess.Normalize(k)
		if key == "" {
			continue
		}
		m[key] = v
		if n := len(strings.Fields(key)); n > t.maxPhrase {
			t.maxPhrase = n
		}
	}
}

// Translate returns text with glossary terms of language from replaced. Text
// already in the base language is returned unchanged.
func (t *Translator) Translate(text, from string) string {
	from = Canonical(from)
	if from == t.base || strings.TrimSpace(text) == "" {
		return text
	}
	words := preprocess.Words(text)
	if len(words) == 0 {
		return text
	}

	// Hindi speakers often type romanized words, which the Hindi table holds.
	tables := []map[string]string{t.glossary[from]}
	if from != "hi" {
		tables = append(tables, t.glossary["hi"])
	}

	out := make([]string, 0, len(words))
	for i := 0; i < len(words); {
		matched := false
		for n := min(t.maxPhrase, len(words)-i); n >= 1 && !matched; n-- {
			phrase := strings.Join(words[i:i+n], " ")
			for _, table := range tables {
				if v, ok := table[phrase]; ok {
					out = append(out, v)
					i += n
					matched = true
					break
				}
			}
		}
		if !matched {
			out = append(out, words[i])
			i++
		}
	}
	return strings.Join(out, " ")
}

var builtinGlossary = map[string]map[string]string{
	"hi": {
		"मौसम": "weather", "बारिश": "rain", "वर्षा": "rain", "फसल": "crop", "गेहूं": "wheat", "गेहूँ": "wheat",
		"धान": "paddy", "चावल": "rice", "कपास": "cotton", "प्याज": "onion", "टमाटर": "tomato", "आलू": "potato",
		"मिट्टी": "soil", "खाद": "fertilizer", "उर्वरक": "fertilizer", "सिंचाई": "irrigation", "भाव": "price",
		"दाम": "price", "कीमत": "price", "मंडी": "market", "बाजार": "market", "योजना": "scheme", "बीज": "seed",
		"कीट": "pest", "रोग": "disease", "आज": "today", "कल": "tomorrow", "किसान": "farmer", "खेती": "farming",
		"गन्ना": "sugarcane", "सोयाबीन": "soybean", "मक्का": "maize", "चना": "chickpea", "सरसों": "mustard",
		"क्या": "what", "कैसा": "how", "कैसे": "how", "कब": "when", "में": "in", "का": "of", "की": "of",
		"है": "is", "बुवाई": "sowing", "कटाई": "harvest", "सब्सिडी": "subsidy", "बीमा": "insurance",
		// romanized
		"mausam": "weather", "barish": "rain", "fasal": "crop", "gehun": "wheat", "gehu": "wheat",
		"dhan": "paddy", "chawal": "rice", "kapas": "cotton", "pyaj": "onion", "pyaaz": "onion",
		"tamatar": "tomato", "aloo": "potato", "mitti": "soil", "khad": "fertilizer", "sinchai": "irrigation",
		"bhav": "price", "daam": "price", "keemat": "price", "mandi": "market", "yojana": "scheme",
		"beej": "seed", "keet": "pest", "rog": "disease", "aaj": "today", "kal": "tomorrow",
		"kisan": "farmer", "kheti": "farming", "ganna": "sugarcane", "kya": "what", "kaisa": "how",
		"kaise": "how", "kab": "when", "mein": "in", "hai": "is",
	},
	"mr": {
		"हवामान": "weather", "पाऊस": "rain", "पीक": "crop", "कापूस": "cotton", "कांदा": "onion",
		"गहू": "wheat", "भात": "rice", "माती": "soil", "खत": "fertilizer", "बाजारभाव": "market price",
		"भाव": "price", "बाजार": "market", "योजना": "scheme", "सोयाबीन": "soybean", "ऊस": "sugarcane",
		"टोमॅटो": "tomato", "बटाटा": "potato", "हरभरा": "chickpea", "डाळिंब": "pomegranate", "द्राक्ष": "grapes",
		"आज": "today", "उद्या": "tomorrow", "काय": "what", "कसे": "how", "कसा": "how", "आहे": "is",
		"मध्ये": "in", "शेतकरी": "farmer", "शेती": "farming", "पेरणी": "sowing", "काढणी": "harvest",
		"कीड": "pest", "रोग": "disease", "पाणी": "water", "सिंचन": "irrigation",
	},
	"bn": {
		"আবহাওয়া": "weather", "বৃষ্টি": "rain", "ফসল": "crop", "ধান": "paddy", "চাল": "rice", "পাট": "jute",
		"দাম": "price", "বাজার": "market", "মাটি": "soil", "সার": "fertilizer", "প্রকল্প": "scheme",
		"আলু": "potato", "পেঁয়াজ": "onion", "কৃষক": "farmer", "আজ": "today", "কাল": "tomorrow",
	},
	"gu": {
		"હવામાન": "weather", "વરસાદ": "rain", "પાક": "crop", "કપાસ": "cotton", "મગફળી": "groundnut",
		"ભાવ": "price", "બજાર": "market", "જમીન": "soil", "ખાતર": "fertilizer", "યોજના": "scheme",
		"ડુંગળી": "onion", "ઘઉં": "wheat", "ખેડૂત": "farmer", "આજે": "today", "કાલે": "tomorrow",
	},
	"pa": {
		"ਮੌਸਮ": "weather", "ਮੀਂਹ": "rain", "ਫਸਲ": "crop", "ਕਣਕ": "wheat", "ਝੋਨਾ": "paddy",
		"ਭਾਅ": "price", "ਮੰਡੀ": "market", "ਮਿੱਟੀ": "soil", "ਖਾਦ": "fertilizer", "ਸਕੀਮ": "scheme",
		"ਕਿਸਾਨ": "farmer", "ਅੱਜ": "today", "ਕੱਲ੍ਹ": "tomorrow",
	},
	"ta": {
		"வானிலை": "weather", "மழை": "rain", "பயிர்": "crop", "நெல்": "paddy", "பருத்தி": "cotton",
		"மண்": "soil", "உரம்": "fertilizer", "விலை": "price", "சந்தை": "market", "திட்டம்": "scheme",
		"வாழை": "banana", "மஞ்சள்": "turmeric", "விவசாயி": "farmer", "இன்று": "today", "நாளை": "tomorrow",
	},
	"te": {
		"వాతావరణం": "weather", "వర్షం": "rain", "పంట": "crop", "వరి": "paddy", "పత్తి": "cotton",
		"నేల": "soil", "ఎరువు": "fertilizer", "ధర": "price", "మార్కెట్": "market", "పథకం": "scheme",
		"మిరప": "chilli", "రైతు": "farmer", "ఈరోజు": "today", "రేపు": "tomorrow",
	},
	"kn": {
		"ಹವಾಮಾನ": "weather", "ಮಳೆ": "rain", "ಬೆಳೆ": "crop", "ಭತ್ತ": "paddy", "ರಾಗಿ": "millet",
		"ಮಣ್ಣು": "soil", "ಗೊಬ್ಬರ": "fertilizer", "ಬೆಲೆ": "price", "ಮಾರುಕಟ್ಟೆ": "market", "ಯೋಜನೆ": "scheme",
		"ರೈತ": "farmer", "ಇಂದು": "today", "ನಾಳೆ": "tomorrow",
	},
	"ml": {
		"കാലാവസ്ഥ": "weather", "മഴ": "rain", "വിള": "crop", "നെല്ല്": "paddy", "തേങ്ങ": "coconut",
		"മണ്ണ്": "soil", "വളം": "fertilizer", "വില": "price", "ചന്ത": "market", "പദ്ധതി": "scheme",
	},
	"or": {
		"ପାଣିପାଗ": "weather", "ବର୍ଷା": "rain", "ଫସଲ": "crop", "ଧାନ": "paddy", "ଦର": "price",
		"ବଜାର": "market", "ମାଟି": "soil", "ସାର": "fertilizer", "ଯୋଜନା": "scheme", "ଚାଷୀ": "farmer",
	},
}
