package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"surplusbridge/ingestworker/helpers"
)

const maxPhotos = 10

// minTitleLength is the validity bar for a candidate; anything shorter
// is noise from navigation chrome or empty cells.
const minTitleLength = 3

// Image assets that are site chrome, not listing photos.
var placeholderMarkers = []string{
	"placeholder", "icon", "logo", "sprite", "spacer", "blank", "1x1", "pixel",
}

// Selectors contains the ordered CSS selector tiers for a platform.
// Within every tier list the first selector yielding a non-empty result
// wins; tiers are never merged.
type Selectors struct {
	// ItemTiers locates the repeated listing-item structure on an
	// index page, most specific first.
	ItemTiers []string
	// LinkToken is the generic fallback: anchors whose href contains
	// this token, generalized to their containing block.
	LinkToken string

	Title       []string
	Description []string
	Price       []string
	ClosingDate []string
	Location    []string
	Condition   []string
	LotNumber   []string
	Category    []string

	// Detail-page variants used by ParseSingleListing.
	DetailTitle       []string
	DetailDescription []string
}

// ParserConfig contains everything that varies between source platforms
type ParserConfig struct {
	Platform         Platform
	BaseURL          string
	ListingURL       string
	Currency         string
	Selectors        Selectors
	Categories       []CategoryRule
	Places           []PlaceRule
	LocationFallback string
	// FutureDatesOnly rejects closing dates that are already past.
	FutureDatesOnly bool
	// IDPattern captures the stable numeric identifier embedded in a
	// listing URL; group 1 is the identifier.
	IDPattern string
	// BlockMarkers are lowercase substrings indicating bot blocking.
	BlockMarkers []string
}

// ConfigurableParser implements SiteParser driven by a ParserConfig.
// Parsers share no mutable state, only the extraction contract.
type ConfigurableParser struct {
	cfg       ParserConfig
	idPattern *regexp.Regexp
}

// NewConfigurableParser creates a parser for the given platform config
func NewConfigurableParser(cfg ParserConfig) *ConfigurableParser {
	p := &ConfigurableParser{cfg: cfg}
	if cfg.IDPattern != "" {
		p.idPattern = regexp.MustCompile(cfg.IDPattern)
	}
	return p
}

// Platform returns the source platform this parser handles
func (p *ConfigurableParser) Platform() Platform {
	return p.cfg.Platform
}

// ListingURL returns the canonical listing-index URL
func (p *ConfigurableParser) ListingURL() string {
	return p.cfg.ListingURL
}

// BlockMarkers returns the platform's bot-block indicator substrings
func (p *ConfigurableParser) BlockMarkers() []string {
	return p.cfg.BlockMarkers
}

// ParseListingIndex extracts all listings from an index/search page.
// One malformed item never aborts the batch.
func (p *ConfigurableParser) ParseListingIndex(htmlText string) []ParsedListing {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil
	}

	var listings []ParsedListing
	for idx, item := range p.findItems(doc) {
		listing := p.parseIndexItem(item, idx)
		if listing != nil {
			listings = append(listings, *listing)
		}
	}
	return listings
}

// ParseSingleListing extracts one listing from a detail page, using the
// whole page text as the extraction fallback instead of a scoped block.
func (p *ConfigurableParser) ParseSingleListing(htmlText, sourceURL string) (listing *ParsedListing) {
	defer func() {
		if r := recover(); r != nil {
			listing = nil
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil
	}

	title := firstText(doc.Selection, p.cfg.Selectors.DetailTitle)
	if title == "" {
		title = firstText(doc.Selection, []string{"h1"})
	}
	if len(title) < minTitleLength {
		return nil
	}

	pageText := helpers.CollapseWhitespace(doc.Find("body").Text())

	description := firstText(doc.Selection, p.cfg.Selectors.DetailDescription)
	if description == "" {
		if meta, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			description = helpers.CollapseWhitespace(meta)
		}
	}
	if description == "" {
		description = title
	}

	property := p.extractProperty(doc.Selection, pageText, title, description)
	return p.buildListing(property, sourceURL, p.deriveSourceID(sourceURL, 0))
}

// findItems locates the repeated item blocks on an index page by trying
// the configured selector tiers, then the generic anchor fallback. The
// first tier that yields at least one match wins.
func (p *ConfigurableParser) findItems(doc *goquery.Document) []*goquery.Selection {
	for _, tier := range p.cfg.Selectors.ItemTiers {
		found := doc.Find(tier)
		if found.Length() > 0 {
			return eachSelection(found)
		}
	}

	if p.cfg.Selectors.LinkToken == "" {
		return nil
	}

	// Generic fallback: listing-looking anchors generalized to their
	// containing block, deduplicated per block.
	anchors := doc.Find(fmt.Sprintf(`a[href*=%q]`, p.cfg.Selectors.LinkToken))
	seen := make(map[*html.Node]bool)
	var items []*goquery.Selection
	anchors.Each(func(_ int, anchor *goquery.Selection) {
		block := anchor.Closest("li, tr, article, section, div")
		if block.Length() == 0 {
			block = anchor
		}
		node := block.Get(0)
		if seen[node] {
			return
		}
		seen[node] = true
		items = append(items, block)
	})
	return items
}

// parseIndexItem extracts a single item block. Any failure, including a
// panic inside goquery traversal, converts into a skip.
func (p *ConfigurableParser) parseIndexItem(item *goquery.Selection, idx int) (listing *ParsedListing) {
	defer func() {
		if r := recover(); r != nil {
			listing = nil
		}
	}()

	title := firstText(item, p.cfg.Selectors.Title)
	if title == "" {
		title = helpers.CollapseWhitespace(item.Find("a").First().Text())
	}
	if len(title) < minTitleLength {
		return nil
	}

	href, ok := item.Find("a[href]").First().Attr("href")
	if !ok {
		return nil
	}
	link := p.resolveURL(href)
	if link == "" {
		return nil
	}

	description := firstText(item, p.cfg.Selectors.Description)
	if description == "" {
		description = title
	}

	itemText := helpers.CollapseWhitespace(item.Text())
	property := p.extractProperty(item, itemText, title, description)
	return p.buildListing(property, link, p.deriveSourceID(link, idx))
}

// extractProperty runs all field extractors against scoped sub-elements
// with scopeText as the whole-scope fallback.
func (p *ConfigurableParser) extractProperty(scope *goquery.Selection, scopeText, title, description string) PropertyData {
	property := PropertyData{
		Title:       title,
		Description: description,
		Condition:   firstText(scope, p.cfg.Selectors.Condition),
		LotNumber:   firstText(scope, p.cfg.Selectors.LotNumber),
		Photos:      p.collectImages(scope),
	}

	categoryText := firstText(scope, p.cfg.Selectors.Category)
	if categoryText == "" {
		categoryText = scopeText
	}
	property.Category = NormalizeCategory(categoryText, p.cfg.Categories)

	locationText := firstText(scope, p.cfg.Selectors.Location)
	if locationText == "" {
		locationText = scopeText
	}
	property.Location = ExtractLocation(locationText, p.cfg.Places, p.cfg.LocationFallback)

	priceText := firstText(scope, p.cfg.Selectors.Price)
	if priceText != "" {
		property.Price = ExtractPrice(priceText)
	}
	if property.Price == nil {
		property.Price = ExtractPrice(scopeText)
	}
	if property.Price != nil {
		property.Currency = p.cfg.Currency
	}

	dateText := firstText(scope, p.cfg.Selectors.ClosingDate)
	if dateText != "" {
		property.ClosingDate = ExtractClosingDate(dateText, p.cfg.FutureDatesOnly)
	}
	if property.ClosingDate == "" {
		property.ClosingDate = ExtractClosingDate(scopeText, p.cfg.FutureDatesOnly)
	}

	return property
}

// buildListing scores the property and assembles the final record. The
// bucket is always derived from the score.
func (p *ConfigurableParser) buildListing(property PropertyData, sourceURL, sourceID string) *ParsedListing {
	score, breakdown := CalculateQualityScore(property, p.cfg.Platform)
	return &ParsedListing{
		Platform:     p.cfg.Platform,
		SourceURL:    sourceURL,
		SourceID:     sourceID,
		Property:     property,
		QualityScore: score,
		Breakdown:    breakdown,
		Bucket:       DetermineBucket(score),
	}
}

// deriveSourceID pulls the stable identifier out of the listing URL.
// When the URL carries none, a timestamp+index surrogate is synthesized;
// such items re-queue on every scrape because the surrogate is not
// stable across runs.
func (p *ConfigurableParser) deriveSourceID(link string, idx int) string {
	if p.idPattern != nil {
		if match := p.idPattern.FindStringSubmatch(link); len(match) > 1 {
			return match[1]
		}
	}
	return fmt.Sprintf("%d-%d", time.Now().Unix(), idx)
}

// resolveURL makes href absolute relative to the platform's base URL
func (p *ConfigurableParser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if parsed.IsAbs() {
		return parsed.String()
	}
	base, err := url.Parse(p.cfg.BaseURL)
	if err != nil {
		return ""
	}
	return base.ResolveReference(parsed).String()
}

// collectImages gathers listing photos from the scope, filtering chrome
// assets, deduplicating, and capping the list.
func (p *ConfigurableParser) collectImages(scope *goquery.Selection) []string {
	var photos []string
	seen := make(map[string]bool)
	scope.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src, ok := img.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			src, _ = img.Attr("data-src")
		}
		resolved := p.resolveURL(src)
		if resolved == "" || seen[resolved] || isPlaceholderAsset(resolved) {
			return true
		}
		seen[resolved] = true
		photos = append(photos, resolved)
		return len(photos) < maxPhotos
	})
	return photos
}

func isPlaceholderAsset(imageURL string) bool {
	lower := strings.ToLower(imageURL)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// firstText returns the collapsed text of the first selector that
// yields a non-empty result, in order. Selectors are not merged.
func firstText(scope *goquery.Selection, selectors []string) string {
	for _, selector := range selectors {
		found := scope.Find(selector)
		if found.Length() == 0 {
			continue
		}
		text := helpers.CollapseWhitespace(found.First().Text())
		if text != "" {
			return text
		}
	}
	return ""
}

// eachSelection splits a combined selection into per-item selections
func eachSelection(combined *goquery.Selection) []*goquery.Selection {
	items := make([]*goquery.Selection, 0, combined.Length())
	combined.Each(func(_ int, s *goquery.Selection) {
		items = append(items, s)
	})
	return items
}
