package parser

// NewGCSurplusParser creates the parser for GC Surplus, the federal
// surplus auction site. Federal lot pages carry the lot identifier in
// the query string and use bilingual category labels, so the keyword
// table is broader than the provincial one.
func NewGCSurplusParser(listingURL string) *ConfigurableParser {
	return NewConfigurableParser(ParserConfig{
		Platform:   PlatformGCSurplus,
		BaseURL:    "https://gcsurplus.ca",
		ListingURL: listingURL,
		Currency:   "CAD",
		Selectors: Selectors{
			ItemTiers: []string{
				"div.sale-lot-row",
				"table#lotListTable tr.lot-row",
				"div.search-results article",
			},
			LinkToken: "lot",
			Title: []string{
				"h5.lot-title a",
				"a.lot-title",
				"td.description a",
			},
			Description: []string{
				"div.lot-summary",
				"p.lot-description",
				"td.description",
			},
			Price: []string{
				"span.current-bid",
				"td.bid-amount",
			},
			ClosingDate: []string{
				"span.closing-date",
				"td.closes",
			},
			Location: []string{
				"span.lot-location",
				"td.location",
			},
			Condition: []string{
				"span.lot-condition",
			},
			LotNumber: []string{
				"span.lot-number",
				"td.lot-no",
			},
			Category: []string{
				"span.lot-category",
				"td.category",
			},
			DetailTitle: []string{
				"h1#lotTitle",
				"h1.page-title",
			},
			DetailDescription: []string{
				"div#lotDescription",
				"div.lot-detail-description",
			},
		},
		Categories: []CategoryRule{
			{Keyword: "real estate", Category: CategoryRealEstate},
			{Keyword: "land", Category: CategoryRealEstate},
			{Keyword: "building", Category: CategoryRealEstate},
			{Keyword: "vehicle", Category: CategoryVehicles},
			{Keyword: "véhicule", Category: CategoryVehicles},
			{Keyword: "truck", Category: CategoryVehicles},
			{Keyword: "car", Category: CategoryVehicles},
			{Keyword: "van", Category: CategoryVehicles},
			{Keyword: "trailer", Category: CategoryVehicles},
			{Keyword: "boat", Category: CategoryVehicles},
			{Keyword: "aircraft", Category: CategoryVehicles},
			{Keyword: "industrial", Category: CategoryIndustrial},
			{Keyword: "machinery", Category: CategoryIndustrial},
			{Keyword: "equipment", Category: CategoryEquipment},
			{Keyword: "tool", Category: CategoryEquipment},
			{Keyword: "generator", Category: CategoryEquipment},
			{Keyword: "forklift", Category: CategoryEquipment},
			{Keyword: "computer", Category: CategoryElectronics},
			{Keyword: "electronic", Category: CategoryElectronics},
			{Keyword: "laptop", Category: CategoryElectronics},
			{Keyword: "printer", Category: CategoryElectronics},
			{Keyword: "server", Category: CategoryElectronics},
			{Keyword: "furniture", Category: CategoryFurniture},
			{Keyword: "desk", Category: CategoryFurniture},
			{Keyword: "chair", Category: CategoryFurniture},
			{Keyword: "cabinet", Category: CategoryFurniture},
		},
		Places: []PlaceRule{
			{Keyword: "ottawa", Location: "Ottawa, Ontario"},
			{Keyword: "gatineau", Location: "Gatineau, Quebec"},
			{Keyword: "montreal", Location: "Montreal, Quebec"},
			{Keyword: "montréal", Location: "Montreal, Quebec"},
			{Keyword: "toronto", Location: "Toronto, Ontario"},
			{Keyword: "vancouver", Location: "Vancouver, British Columbia"},
			{Keyword: "victoria", Location: "Victoria, British Columbia"},
			{Keyword: "calgary", Location: "Calgary, Alberta"},
			{Keyword: "edmonton", Location: "Edmonton, Alberta"},
			{Keyword: "winnipeg", Location: "Winnipeg, Manitoba"},
			{Keyword: "regina", Location: "Regina, Saskatchewan"},
			{Keyword: "saskatoon", Location: "Saskatoon, Saskatchewan"},
			{Keyword: "halifax", Location: "Halifax, Nova Scotia"},
			{Keyword: "ontario", Location: "Ontario, Canada"},
			{Keyword: "quebec", Location: "Quebec, Canada"},
			{Keyword: "alberta", Location: "Alberta, Canada"},
			{Keyword: "british columbia", Location: "British Columbia, Canada"},
		},
		LocationFallback: "Canada",
		FutureDatesOnly:  true,
		IDPattern:        `(?i)[?&](?:lot|lotid|id|sl)=(\d+)`,
		BlockMarkers: []string{
			"captcha",
			"access denied",
			"request blocked",
			"are you a robot",
		},
	})
}
