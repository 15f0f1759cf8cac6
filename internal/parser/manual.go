package parser

// NewManualParser creates the generic parser used for operator-supplied
// single URLs on sites the worker has no dedicated parser for. It leans
// entirely on the generic selector fallbacks and country-level location
// default, and its source-reliability constant is the lowest.
func NewManualParser() *ConfigurableParser {
	return NewConfigurableParser(ParserConfig{
		Platform: PlatformManual,
		Currency: "CAD",
		Selectors: Selectors{
			LinkToken: "item",
			Title:     []string{"h2 a", "h3 a"},
			DetailTitle: []string{
				"h1",
				`meta[property="og:title"]`,
			},
			DetailDescription: []string{
				"div.description",
				"article",
			},
		},
		Categories: []CategoryRule{
			{Keyword: "real estate", Category: CategoryRealEstate},
			{Keyword: "vehicle", Category: CategoryVehicles},
			{Keyword: "truck", Category: CategoryVehicles},
			{Keyword: "car", Category: CategoryVehicles},
			{Keyword: "industrial", Category: CategoryIndustrial},
			{Keyword: "equipment", Category: CategoryEquipment},
			{Keyword: "electronic", Category: CategoryElectronics},
			{Keyword: "computer", Category: CategoryElectronics},
			{Keyword: "furniture", Category: CategoryFurniture},
		},
		Places: []PlaceRule{
			{Keyword: "calgary", Location: "Calgary, Alberta"},
			{Keyword: "edmonton", Location: "Edmonton, Alberta"},
			{Keyword: "toronto", Location: "Toronto, Ontario"},
			{Keyword: "vancouver", Location: "Vancouver, British Columbia"},
			{Keyword: "alberta", Location: "Alberta, Canada"},
		},
		LocationFallback: "Canada",
		IDPattern:        `(\d{4,})`,
		BlockMarkers: []string{
			"captcha",
			"access denied",
			"blocked",
		},
	})
}
