package parser

// Platform identifies an external source site
type Platform string

const (
	// PlatformGCSurplus is the federal GC Surplus auction site
	PlatformGCSurplus Platform = "gcsurplus"
	// PlatformAlbertaSurplus is the Alberta provincial surplus site
	PlatformAlbertaSurplus Platform = "alberta-surplus"
	// PlatformManual marks operator-supplied single-URL ingestion
	PlatformManual Platform = "manual"
)

// KnownPlatform reports whether p names a platform the worker can parse.
func KnownPlatform(p Platform) bool {
	switch p {
	case PlatformGCSurplus, PlatformAlbertaSurplus, PlatformManual:
		return true
	}
	return false
}

// Category is the closed property-category enumeration
type Category string

const (
	CategoryVehicles    Category = "Vehicles"
	CategoryEquipment   Category = "Equipment"
	CategoryFurniture   Category = "Furniture"
	CategoryElectronics Category = "Electronics"
	CategoryRealEstate  Category = "RealEstate"
	CategoryIndustrial  Category = "Industrial"
	CategoryOther       Category = "Other"
)

// Bucket is the coarse triage outcome derived from the quality score
type Bucket string

const (
	BucketApprove Bucket = "approve"
	BucketJunk    Bucket = "junk"
)

// PropertyData holds the structured fields extracted from one listing
type PropertyData struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Location    string   `json:"location"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	ClosingDate string   `json:"closing_date,omitempty"` // RFC 3339
	LotNumber   string   `json:"lot_number,omitempty"`
	Condition   string   `json:"condition,omitempty"`
}

// QualityBreakdown holds the five capped sub-scores that sum to the
// total quality score
type QualityBreakdown struct {
	Completeness int `json:"completeness"` // 0-25
	Condition    int `json:"condition"`    // 0-20
	Liquidity    int `json:"liquidity"`    // 0-15
	Source       int `json:"source"`       // 0-20
	Pricing      int `json:"pricing"`      // 0-20
}

// Total returns the sum of the sub-scores
func (b QualityBreakdown) Total() int {
	return b.Completeness + b.Condition + b.Liquidity + b.Source + b.Pricing
}

// ParsedListing is the unit produced by a site parser. It is ephemeral:
// constructed, scored, handed to the ingestion gateway, discarded.
type ParsedListing struct {
	Platform     Platform         `json:"source_platform"`
	SourceURL    string           `json:"source_url"`
	SourceID     string           `json:"source_id"`
	Property     PropertyData     `json:"property_data"`
	QualityScore int              `json:"quality_score"`
	Breakdown    QualityBreakdown `json:"quality_breakdown"`
	Bucket       Bucket           `json:"bucket"`
}

// CategoryRule maps a lowercase keyword to a category. Rules are
// evaluated in order; more specific keywords must come first.
type CategoryRule struct {
	Keyword  string
	Category Category
}

// PlaceRule maps a lowercase place keyword to a formatted location.
// City rules come before region/country fallbacks.
type PlaceRule struct {
	Keyword  string
	Location string
}

// SiteParser is the extraction contract every source platform
// implements. Both entry points are pure with respect to their HTML
// input; no network or storage I/O happens inside a parser.
type SiteParser interface {
	// Platform returns the source platform this parser handles
	Platform() Platform

	// ListingURL returns the canonical listing-index URL
	ListingURL() string

	// ParseListingIndex extracts all listings from an index page.
	// A malformed item is skipped, never aborts the batch.
	ParseListingIndex(html string) []ParsedListing

	// ParseSingleListing extracts one listing from a detail page.
	// Returns nil if no usable title is found.
	ParseSingleListing(html, sourceURL string) *ParsedListing

	// BlockMarkers returns lowercase substrings whose presence in a
	// response body indicates bot blocking on this platform
	BlockMarkers() []string
}
