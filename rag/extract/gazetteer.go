package extract

// place is one gazetteer entry. An empty District marks a state-level entry.
type place struct {
	State    string
	District string
	Aliases  []string
}

// builtinPlaces covers major agricultural districts; aliases include native
// script and common transliterations.
var builtinPlaces = []place{
	// Maharashtra
	{"Maharashtra", "", []string{"maharashtra", "महाराष्ट्र"}},
	{"Maharashtra", "Pune", []string{"pune", "poona", "पुणे", "पुण्यात", "पुणा"}},
	{"Maharashtra", "Nashik", []string{"nashik", "nasik", "नाशिक", "नासिक"}},
	{"Maharashtra", "Nagpur", []string{"nagpur", "नागपूर", "नागपुर"}},
	{"Maharashtra", "Aurangabad", []string{"aurangabad", "chhatrapati sambhajinagar", "औरंगाबाद"}},
	{"Maharashtra", "Solapur", []string{"solapur", "sholapur", "सोलापूर", "सोलापुर"}},
	{"Maharashtra", "Kolhapur", []string{"kolhapur", "कोल्हापूर", "कोल्हापुर"}},
	{"Maharashtra", "Ahmednagar", []string{"ahmednagar", "ahilyanagar", "अहमदनगर"}},
	{"Maharashtra", "Satara", []string{"satara", "सातारा"}},
	{"Maharashtra", "Sangli", []string{"sangli", "सांगली"}},
	{"Maharashtra", "Jalgaon", []string{"jalgaon", "जळगाव", "जलगांव"}},
	{"Maharashtra", "Latur", []string{"latur", "लातूर"}},
	// Punjab
	{"Punjab", "", []string{"punjab", "पंजाब", "ਪੰਜਾਬ"}},
	{"Punjab", "Ludhiana", []string{"ludhiana", "लुधियाना", "ਲੁਧਿਆਣਾ"}},
	{"Punjab", "Amritsar", []string{"amritsar", "अमृतसर", "ਅੰਮ੍ਰਿਤਸਰ"}},
	{"Punjab", "Bathinda", []string{"bathinda", "bhatinda", "बठिंडा", "ਬਠਿੰਡਾ"}},
	{"Punjab", "Patiala", []string{"patiala", "पटियाला", "ਪਟਿਆਲਾ"}},
	// Haryana
	{"Haryana", "", []string{"haryana", "हरियाणा"}},
	{"Haryana", "Karnal", []string{"karnal", "करनाल"}},
	{"Haryana", "Hisar", []string{"hisar", "hissar", "हिसार"}},
	// Uttar Pradesh
	{"Uttar Pradesh", "", []string{"uttar pradesh", "उत्तर प्रदेश"}},
	{"Uttar Pradesh", "Lucknow", []string{"lucknow", "लखनऊ"}},
	{"Uttar Pradesh", "Agra", []string{"agra", "आगरा"}},
	{"Uttar Pradesh", "Kanpur", []string{"kanpur", "कानपुर"}},
	{"Uttar Pradesh", "Varanasi", []string{"varanasi", "banaras", "वाराणसी"}},
	{"Uttar Pradesh", "Meerut", []string{"meerut", "मेरठ"}},
	// Madhya Pradesh
	{"Madhya Pradesh", "", []string{"madhya pradesh", "मध्य प्रदेश"}},
	{"Madhya Pradesh", "Indore", []string{"indore", "इंदौर"}},
	{"Madhya Pradesh", "Bhopal", []string{"bhopal", "भोपाल"}},
	{"Madhya Pradesh", "Ujjain", []string{"ujjain", "उज्जैन"}},
	// Gujarat
	{"Gujarat", "", []string{"gujarat", "गुजरात", "ગુજરાત"}},
	{"Gujarat", "Ahmedabad", []string{"ahmedabad", "अहमदाबाद", "અમદાવાદ"}},
	{"Gujarat", "Rajkot", []string{"rajkot", "राजकोट", "રાજકોટ"}},
	{"Gujarat", "Junagadh", []string{"junagadh", "जूनागढ़", "જૂનાગઢ"}},
	// Karnataka
	{"Karnataka", "", []string{"karnataka", "कर्नाटक", "ಕರ್ನಾಟಕ"}},
	{"Karnataka", "Bengaluru", []string{"bengaluru", "bangalore", "ಬೆಂಗಳೂರು"}},
	{"Karnataka", "Mysuru", []string{"mysuru", "mysore", "ಮೈಸೂರು"}},
	{"Karnataka", "Belagavi", []string{"belagavi", "belgaum", "ಬೆಳಗಾವಿ"}},
	// Tamil Nadu
	{"Tamil Nadu", "", []string{"tamil nadu", "tamilnadu", "தமிழ்நாடு"}},
	{"Tamil Nadu", "Coimbatore", []string{"coimbatore", "கோயம்புத்தூர்", "கோவை"}},
	{"Tamil Nadu", "Madurai", []string{"madurai", "மதுரை"}},
	{"Tamil Nadu", "Thanjavur", []string{"thanjavur", "tanjore", "தஞ்சாவூர்"}},
	// Telangana / Andhra Pradesh
	{"Telangana", "", []string{"telangana", "తెలంగాణ"}},
	{"Telangana", "Warangal", []string{"warangal", "వరంగల్"}},
	{"Telangana", "Hyderabad", []string{"hyderabad", "హైదరాబాద్"}},
	{"Andhra Pradesh", "", []string{"andhra pradesh", "ఆంధ్రప్రదేశ్"}},
	{"Andhra Pradesh", "Guntur", []string{"guntur", "గుంటూరు"}},
	// Rajasthan
	{"Rajasthan", "", []string{"rajasthan", "राजस्थान"}},
	{"Rajasthan", "Jaipur", []string{"jaipur", "जयपुर"}},
	{"Rajasthan", "Kota", []string{"kota", "कोटा"}},
	// East
	{"Bihar", "", []string{"bihar", "बिहार"}},
	{"Bihar", "Patna", []string{"patna", "पटना"}},
	{"West Bengal", "", []string{"west bengal", "পশ্চিমবঙ্গ"}},
	{"West Bengal", "Bardhaman", []string{"bardhaman", "burdwan", "বর্ধমান"}},
	{"Odisha", "", []string{"odisha", "orissa", "ଓଡ଼ିଶା"}},
	{"Odisha", "Cuttack", []string{"cuttack", "କଟକ"}},
	{"Kerala", "", []string{"kerala", "കേരളം"}},
	{"Kerala", "Palakkad", []string{"palakkad", "palghat", "പാലക്കാട്"}},
}

// pinPrefixes maps the first two PIN digits to a state.
var pinPrefixes = map[string]string{
	"11": "Delhi", "12": "Haryana", "13": "Haryana", "14": "Punjab", "15": "Punjab", "16": "Punjab",
	"17": "Himachal Pradesh", "18": "Jammu and Kashmir", "19": "Jammu and Kashmir",
	"20": "Uttar Pradesh", "21": "Uttar Pradesh", "22": "Uttar Pradesh", "23": "Uttar Pradesh",
	"24": "Uttar Pradesh", "25": "Uttar Pradesh", "26": "Uttar Pradesh", "27": "Uttar Pradesh", "28": "Uttar Pradesh",
	"30": "Rajasthan", "31": "Rajasthan", "32": "Rajasthan", "33": "Rajasthan", "34": "Rajasthan",
	"36": "Gujarat", "37": "Gujarat", "38": "Gujarat", "39": "Gujarat",
	"40": "Maharashtra", "41": "Maharashtra", "42": "Maharashtra", "43": "Maharashtra", "44": "Maharashtra",
	"45": "Madhya Pradesh", "46": "Madhya Pradesh", "47": "Madhya Pradesh", "48": "Madhya Pradesh",
	"49": "Chhattisgarh", "50": "Telangana", "51": "Andhra Pradesh", "52": "Andhra Pradesh", "53": "Andhra Pradesh",
	"56": "Karnataka", "57": "Karnataka", "58": "Karnataka", "59": "Karnataka",
	"60": "Tamil Nadu", "61": "Tamil Nadu", "62": "Tamil Nadu", "63": "Tamil Nadu", "64": "Tamil Nadu",
	"67": "Kerala", "68": "Kerala", "69": "Kerala",
	"70": "West Bengal", "71": "West Bengal", "72": "West Bengal", "73": "West Bengal", "74": "West Bengal",
	"75": "Odisha", "76": "Odisha", "77": "Odisha", "78": "Assam",
	"80": "Bihar", "81": "Bihar", "82": "Jharkhand", "83": "Jharkhand", "84": "Bihar", "85": "Bihar",
}
