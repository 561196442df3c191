package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/latoulicious/perso-wars/pkg/database/models"
	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// digestConcurrency bounds the servers published in parallel
const digestConcurrency = 4

// ClaimLogSource reads the claims of a server in [from, to)
type ClaimLogSource interface {
	ClaimsBetween(ctx context.Context, serverID string, from, to time.Time) ([]models.ClaimLog, error)
}

// PersonalityLookup resolves personality ids to catalog entries
type PersonalityLookup interface {
	GetPersonalitiesByIDs(ctx context.Context, ids []uint) (map[uint]models.Personality, error)
}

// ClaimsDigest renders the claims of a server in [from, to), oldest first,
// with times in the location of to.
func ClaimsDigest(ctx context.Context, src ClaimLogSource, lookup PersonalityLookup, serverID string, from, to time.Time) (string, error) {
	claims, err := src.ClaimsBetween(ctx, serverID, from, to)
	if err != nil {
		return "", fmt.Errorf("read claims: %w", err)
	}

	loc := to.Location()
	const stamp = "2006-01-02 15:04"
	if len(claims) == 0 {
		return fmt.Sprintf("No claims between %s and %s.", from.In(loc).Format(stamp), to.Format(stamp)), nil
	}

	ids := make([]uint, 0, len(claims))
	for _, c := range claims {
		ids = append(ids, c.PersonalityID)
	}
	persos, err := lookup.GetPersonalitiesByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("resolve personalities: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d claim(s) between %s and %s:", len(claims), from.In(loc).Format(stamp), to.Format(stamp))
	for _, c := range claims {
		name := "a removed personality"
		if p, ok := persos[c.PersonalityID]; ok {
			name = p.DisplayName()
		}
		fmt.Fprintf(&b, "\n%s <@%s> claimed %s", c.ClaimedAt.In(loc).Format("15:04"), c.MemberID, name)
	}
	return b.String(), nil
}

// DigestService posts the claims digest of every configured server
type DigestService struct {
	service   *gacha.Service
	publisher gacha.Publisher
	logger    logging.Logger
}

var _ gacha.DigestServiceInterface = (*DigestService)(nil)

func NewDigestService(s *gacha.Service, publisher gacha.Publisher) gacha.DigestServiceInterface {
	return &DigestService{service: s, publisher: publisher, logger: componentLogger(s, "digest")}
}

// Digest renders the claims of one server
func (ds *DigestService) Digest(ctx context.Context, serverID string, from, to time.Time) (string, error) {
	return ClaimsDigest(ctx, ds.service.ClaimLogRepo, ds.service.CatalogRepo, serverID, from, to)
}

// PublishAll posts the digest of the last window to the information channel
// of every server that has both channels set. It returns the number of
// digests delivered.
func (ds *DigestService) PublishAll(ctx context.Context, window time.Duration) (int, error) {
	servers, err := ds.service.ServerRepo.ListWithDigestChannels(ctx)
	if err != nil {
		return 0, err
	}

	to := ds.service.Clock.Now()
	from := to.Add(-window)
	run := logging.NewPipelineLogger(ds.logger, "publish")

	var sent atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(digestConcurrency)
	for _, server := range servers {
		g.Go(func() error {
			logger := logging.NewServerLogger(run, server.ID)
			message, err := ds.Digest(gctx, server.ID, from, to)
			if err != nil {
				return fmt.Errorf("digest of %s: %w", server.ID, err)
			}
			if err := ds.publisher.Publish(gctx, *server.InformationChannel, message); err != nil {
				logger.Warn("Digest not delivered", map[string]interface{}{logging.FieldChannelID: *server.InformationChannel})
				return fmt.Errorf("publish digest of %s: %w", server.ID, err)
			}
			logger.Debug("Digest delivered", map[string]interface{}{logging.FieldChannelID: *server.InformationChannel})
			sent.Add(1)
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		run.Error("Digest run failed", err, map[string]interface{}{"servers": len(servers)})
	} else {
		run.Info("Digest published", map[string]interface{}{"servers": sent.Load()})
	}
	return int(sent.Load()), err
}
