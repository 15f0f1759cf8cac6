package parser

import (
	"surplusbridge/ingestworker/config"
)

// CreateParsers creates one parser per configured source platform
func CreateParsers(cfg *config.Config) map[Platform]SiteParser {
	return map[Platform]SiteParser{
		PlatformGCSurplus:      NewGCSurplusParser(cfg.GCSurplusURL),
		PlatformAlbertaSurplus: NewAlbertaSurplusParser(cfg.AlbertaSurplusURL),
		PlatformManual:         NewManualParser(),
	}
}
