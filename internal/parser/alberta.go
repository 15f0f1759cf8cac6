package parser

// NewAlbertaSurplusParser creates the parser for the Alberta provincial
// surplus sales site. Provincial listings embed the item identifier in
// the URL path and use a narrower, plain-English category vocabulary.
func NewAlbertaSurplusParser(listingURL string) *ConfigurableParser {
	return NewConfigurableParser(ParserConfig{
		Platform:   PlatformAlbertaSurplus,
		BaseURL:    "https://surplus.alberta.ca",
		ListingURL: listingURL,
		Currency:   "CAD",
		Selectors: Selectors{
			ItemTiers: []string{
				"div.listing-card",
				"li.auction-item",
				"div.results div.item",
			},
			LinkToken: "/listings/",
			Title: []string{
				"h3.listing-title a",
				"a.listing-title",
				"h3 a",
			},
			Description: []string{
				"div.listing-excerpt",
				"p.excerpt",
			},
			Price: []string{
				"span.bid",
				"div.current-bid",
			},
			ClosingDate: []string{
				"span.closes-at",
				"time.closing",
			},
			Location: []string{
				"span.listing-location",
				"div.location",
			},
			Condition: []string{
				"span.condition",
			},
			LotNumber: []string{
				"span.lot",
			},
			Category: []string{
				"span.listing-category",
				"a.category-link",
			},
			DetailTitle: []string{
				"h1.listing-title",
				"div.listing-header h1",
			},
			DetailDescription: []string{
				"div.listing-description",
				"section.description",
			},
		},
		Categories: []CategoryRule{
			{Keyword: "real estate", Category: CategoryRealEstate},
			{Keyword: "land", Category: CategoryRealEstate},
			{Keyword: "vehicle", Category: CategoryVehicles},
			{Keyword: "truck", Category: CategoryVehicles},
			{Keyword: "suv", Category: CategoryVehicles},
			{Keyword: "car", Category: CategoryVehicles},
			{Keyword: "trailer", Category: CategoryVehicles},
			{Keyword: "atv", Category: CategoryVehicles},
			{Keyword: "heavy equipment", Category: CategoryIndustrial},
			{Keyword: "industrial", Category: CategoryIndustrial},
			{Keyword: "equipment", Category: CategoryEquipment},
			{Keyword: "mower", Category: CategoryEquipment},
			{Keyword: "tractor", Category: CategoryEquipment},
			{Keyword: "shop", Category: CategoryEquipment},
			{Keyword: "electronics", Category: CategoryElectronics},
			{Keyword: "computer", Category: CategoryElectronics},
			{Keyword: "monitor", Category: CategoryElectronics},
			{Keyword: "office furniture", Category: CategoryFurniture},
			{Keyword: "furniture", Category: CategoryFurniture},
		},
		Places: []PlaceRule{
			{Keyword: "calgary", Location: "Calgary, Alberta"},
			{Keyword: "edmonton", Location: "Edmonton, Alberta"},
			{Keyword: "red deer", Location: "Red Deer, Alberta"},
			{Keyword: "lethbridge", Location: "Lethbridge, Alberta"},
			{Keyword: "medicine hat", Location: "Medicine Hat, Alberta"},
			{Keyword: "fort mcmurray", Location: "Fort McMurray, Alberta"},
			{Keyword: "grande prairie", Location: "Grande Prairie, Alberta"},
			{Keyword: "airdrie", Location: "Airdrie, Alberta"},
			{Keyword: "leduc", Location: "Leduc, Alberta"},
			{Keyword: "camrose", Location: "Camrose, Alberta"},
		},
		LocationFallback: "Alberta, Canada",
		FutureDatesOnly:  true,
		IDPattern:        `/listings/(\d+)`,
		BlockMarkers: []string{
			"captcha",
			"access denied",
			"blocked",
			"checking your browser",
		},
	})
}
