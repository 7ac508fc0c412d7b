package extract

type cropEntry struct {
	Name    string
	Season  string
	Aliases []string
}

var builtinCrops = []cropEntry{
	{"wheat", "rabi", []string{"wheat", "gehun", "gehu", "गेहूं", "गेहूँ", "गहू", "ਕਣਕ", "ઘઉં", "கோதுமை"}},
	{"rice", "kharif", []string{"rice", "paddy", "dhan", "chawal", "धान", "चावल", "भात", "நெல்", "వరి", "ধান", "ਝੋਨਾ", "ಭತ್ತ", "നെല്ല്", "ଧାନ"}},
	{"cotton", "kharif", []string{"cotton", "kapas", "कपास", "कापूस", "பருத்தி", "పత్తి", "કપાસ"}},
	{"onion", "rabi", []string{"onion", "pyaj", "pyaaz", "kanda", "प्याज", "कांदा", "পেঁয়াজ", "ડુંગળી"}},
	{"tomato", "zaid", []string{"tomato", "tamatar", "टमाटर", "टोमॅटो", "தக்காளி"}},
	{"potato", "rabi", []string{"potato", "aloo", "आलू", "बटाटा", "আলু"}},
	{"sugarcane", "perennial", []string{"sugarcane", "ganna", "गन्ना", "ऊस", "கரும்பு"}},
	{"soybean", "kharif", []string{"soybean", "soyabean", "soya", "सोयाबीन"}},
	{"maize", "kharif", []string{"maize", "corn", "makka", "मक्का", "मका"}},
	{"chickpea", "rabi", []string{"chickpea", "chana", "gram", "चना", "हरभरा"}},
	{"groundnut", "kharif", []string{"groundnut", "peanut", "mungfali", "मूंगफली", "शेंगदाणा", "મગફળી"}},
	{"mustard", "rabi", []string{"mustard", "sarson", "सरसों", "मोहरी"}},
	{"turmeric", "kharif", []string{"turmeric", "haldi", "हल्दी", "हळद", "மஞ்சள்"}},
	{"chilli", "kharif", []string{"chilli", "chili", "mirchi", "मिर्च", "मिरची", "మిరప"}},
	{"banana", "perennial", []string{"banana", "kela", "केला", "केळी", "வாழை"}},
	{"grapes", "perennial", []string{"grapes", "grape", "angoor", "अंगूर", "द्राक्ष"}},
	{"pomegranate", "perennial", []string{"pomegranate", "anar", "अनार", "डाळिंब"}},
	{"bajra", "kharif", []string{"bajra", "pearl millet", "बाजरा", "बाजरी"}},
	{"jowar", "kharif", []string{"jowar", "sorghum", "ज्वार", "ज्वारी"}},
	{"tur", "kharif", []string{"tur", "arhar", "pigeon pea", "तूर", "अरहर"}},
	{"jute", "kharif", []string{"jute", "पटसन", "পাট"}},
	{"coconut", "perennial", []string{"coconut", "nariyal", "नारियल", "തേങ്ങ"}},
	{"millet", "kharif", []string{"millet", "ragi", "ರಾಗಿ"}},
}

// stageKeywords map words to a growth stage.
var stageKeywords = []struct {
	Stage    string
	Keywords []string
}{
	{"sowing", []string{"sowing", "sow", "planting", "seed", "बुवाई", "पेरणी"}},
	{"germination", []string{"germination", "seedling"}},
	{"vegetative", []string{"vegetative", "tillering"}},
	{"flowering", []string{"flowering", "flower", "bloom"}},
	{"harvest", []string{"harvest", "harvesting", "कटाई", "काढणी"}},
}
