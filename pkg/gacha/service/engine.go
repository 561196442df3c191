package service

import "github.com/latoulicious/perso-wars/pkg/gacha"

// Engine bundles every service built on one gacha.Service
type Engine struct {
	RateLimiter gacha.RateLimiterInterface
	Claims      gacha.ClaimServiceInterface
	Transfers   gacha.TransferServiceInterface
	Trades      gacha.TradeServiceInterface
	Badges      gacha.BadgeServiceInterface
	Images      gacha.ImageServiceInterface
	Lists       gacha.ListServiceInterface
	Profiles    gacha.ProfileServiceInterface
	Servers     gacha.ServerConfigServiceInterface
	Catalog     gacha.CatalogServiceInterface
	Digest      gacha.DigestServiceInterface
}

// NewEngine wires the services. publisher receives the claims digests.
func NewEngine(s *gacha.Service, publisher gacha.Publisher) *Engine {
	return &Engine{
		RateLimiter: NewRateLimiter(s),
		Claims:      NewClaimService(s),
		Transfers:   NewTransferService(s),
		Trades:      NewTradeService(s),
		Badges:      NewBadgeService(s),
		Images:      NewImageService(s),
		Lists:       NewListService(s),
		Profiles:    NewProfileService(s),
		Servers:     NewServerConfigService(s),
		Catalog:     NewCatalogService(s),
		Digest:      NewDigestService(s, publisher),
	}
}
