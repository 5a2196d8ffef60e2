package classify

import "github.com/JakeFAU/site-metascraper/internal/scraper"

// Rule maps a keyword set to a label. Keywords match whole words, case-insensitively,
// with an optional trailing "s".
type Rule struct {
	Label    scraper.IndustryLabel
	Keywords []string
}

// DefaultRules is evaluated top to bottom; the first rule with any match wins.
var DefaultRules = []Rule{
	{
		Label: scraper.IndustryEcommerce,
		Keywords: []string{
			"online shopping", "online store", "online shop", "shop", "shopping", "add to cart",
			"checkout", "e-commerce", "ecommerce", "marketplace", "buy online", "free shipping",
			"free delivery", "deals", "retailer",
		},
	},
	{
		Label: scraper.IndustryEntertainment,
		Keywords: []string{
			"music", "movie", "film", "podcast", "streaming", "tv show", "concert", "gaming",
			"game", "celebrity", "entertainment", "album", "playlist", "cinema", "anime",
			"comedy",
		},
	},
	{
		Label: scraper.IndustryHealthcare,
		Keywords: []string{
			"health", "healthcare", "medical", "hospital", "clinic", "doctor", "pharmacy",
			"wellness", "fitness", "disease", "medicine", "patient", "dental", "therapy",
		},
	},
	{
		Label: scraper.IndustryFinance,
		Keywords: []string{
			"bank", "banking", "finance", "financial", "investment", "insurance", "loan",
			"credit card", "mortgage", "stock market", "trading", "fintech", "cryptocurrency",
		},
	},
	{
		Label: scraper.IndustryEducation,
		Keywords: []string{
			"education", "university", "college", "school", "course", "learning", "tutorial",
			"student", "academy", "e-learning",
		},
	},
	{
		Label: scraper.IndustryTravel,
		Keywords: []string{
			"travel", "tourism", "hotel", "flight", "vacation", "holiday", "booking", "airline",
			"destination", "resort",
		},
	},
	{
		Label: scraper.IndustryFood,
		Keywords: []string{
			"food", "restaurant", "recipe", "beverage", "cooking", "cuisine", "coffee",
			"grocery", "bakery", "drink",
		},
	},
	{
		Label: scraper.IndustryFashion,
		Keywords: []string{
			"fashion", "clothing", "apparel", "shoe", "jewelry", "beauty", "cosmetic",
			"footwear",
		},
	},
	{
		Label: scraper.IndustryAutomotive,
		Keywords: []string{
			"car", "automotive", "vehicle", "motor", "dealership", "auto part", "truck",
		},
	},
	{
		Label: scraper.IndustryRealEstate,
		Keywords: []string{
			"real estate", "property", "properties", "apartment", "realtor", "home for sale",
			"rental",
		},
	},
	{
		Label: scraper.IndustrySports,
		Keywords: []string{
			"sport", "football", "soccer", "basketball", "cricket", "rugby", "tennis", "league",
		},
	},
	{
		Label: scraper.IndustryNews,
		Keywords: []string{
			"news", "breaking news", "newspaper", "magazine", "journalism", "headline",
		},
	},
	{
		Label: scraper.IndustryTelecommunications,
		Keywords: []string{
			"telecom", "telecommunication", "mobile network", "broadband", "fibre", "fiber",
			"airtime", "data bundle",
		},
	},
	{
		Label: scraper.IndustryTechnology,
		Keywords: []string{
			"technology", "software", "cloud", "artificial intelligence", "ai", "developer",
			"saas", "cybersecurity", "computing", "app",
		},
	},
	{
		Label: scraper.IndustryMarketing,
		Keywords: []string{
			"marketing", "advertising", "seo", "digital agency", "branding",
		},
	},
	{
		Label: scraper.IndustryLogistics,
		Keywords: []string{
			"logistics", "shipping company", "freight", "courier", "supply chain", "warehouse",
		},
	},
	{
		Label: scraper.IndustryConstruction,
		Keywords: []string{
			"construction", "contractor", "building material", "architecture", "engineering",
		},
	},
	{
		Label: scraper.IndustryManufacturing,
		Keywords: []string{
			"manufacturing", "manufacturer", "factory", "industrial",
		},
	},
	{
		Label: scraper.IndustryAgriculture,
		Keywords: []string{
			"agriculture", "farming", "farm", "crop", "livestock",
		},
	},
	{
		Label: scraper.IndustryEnergy,
		Keywords: []string{
			"energy", "electricity", "solar", "utility", "utilities", "oil and gas", "mining",
		},
	},
	{
		Label: scraper.IndustryGovernment,
		Keywords: []string{
			"government", "ministry", "municipality", "public service",
		},
	},
	{
		Label: scraper.IndustryLegal,
		Keywords: []string{
			"law firm", "lawyer", "attorney", "legal",
		},
	},
	{
		Label: scraper.IndustryNonProfit,
		Keywords: []string{
			"non-profit", "nonprofit", "charity", "foundation", "donate", "ngo",
		},
	},
}

// DefaultDomainOverrides map registrable domains straight to a label.
var DefaultDomainOverrides = map[string]scraper.IndustryLabel{
	"takealot.com":   scraper.IndustryEcommerce,
	"ebay.com":       scraper.IndustryEcommerce,
	"etsy.com":       scraper.IndustryEcommerce,
	"aliexpress.com": scraper.IndustryEcommerce,
	"netflix.com":    scraper.IndustryEntertainment,
	"spotify.com":    scraper.IndustryEntertainment,
	"youtube.com":    scraper.IndustryEntertainment,
	"webmd.com":      scraper.IndustryHealthcare,
	"bbc.co.uk":      scraper.IndustryNews,
	"cnn.com":        scraper.IndustryNews,
	"github.com":     scraper.IndustryTechnology,
	"coursera.org":   scraper.IndustryEducation,
	"booking.com":    scraper.IndustryTravel,
}
