package service

import (
	"context"

	"github.com/latoulicious/perso-wars/pkg/gacha"
	"github.com/latoulicious/perso-wars/pkg/gacha/shared"
)

// ImageService moves the display cursor stored on each deck row
type ImageService struct {
	service *gacha.Service
}

var _ gacha.ImageServiceInterface = (*ImageService)(nil)

func NewImageService(s *gacha.Service) gacha.ImageServiceInterface {
	return &ImageService{service: s}
}

// CurrentImage returns the image shown for a personality in a server
func (is *ImageService) CurrentImage(ctx context.Context, serverID string, persoID uint) (*shared.ImageView, error) {
	return is.move(ctx, serverID, persoID, 0)
}

// NextImage advances the cursor, wrapping to the first image
func (is *ImageService) NextImage(ctx context.Context, serverID string, persoID uint) (*shared.ImageView, error) {
	return is.move(ctx, serverID, persoID, 1)
}

// PreviousImage moves the cursor back, wrapping to the last image
func (is *ImageService) PreviousImage(ctx context.Context, serverID string, persoID uint) (*shared.ImageView, error) {
	return is.move(ctx, serverID, persoID, -1)
}

func (is *ImageService) move(ctx context.Context, serverID string, persoID uint, step int) (*shared.ImageView, error) {
	s := is.service
	perso, err := personality(ctx, s, persoID)
	if err != nil {
		return nil, err
	}

	count := len(perso.Images)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		deck, err := s.DeckRepo.Get(ctx, serverID, persoID)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			return &shared.ImageView{}, nil
		}

		// Images may have been removed since the cursor was stored
		index := clampIndex(deck.CurrentImage, count)
		if step == 0 {
			return &shared.ImageView{Index: index, Count: count, URL: perso.Images[index].URL}, nil
		}

		next := ((index+step)%count + count) % count
		ok, err := s.DeckRepo.CompareAndSetImage(ctx, serverID, persoID, deck.CurrentImage, next)
		if err != nil {
			return nil, err
		}
		if ok {
			return &shared.ImageView{Index: next, Count: count, URL: perso.Images[next].URL}, nil
		}
	}
	return nil, shared.ErrContended
}

func clampIndex(index, count int) int {
	if index >= count {
		return count - 1
	}
	if index < 0 {
		return 0
	}
	return index
}
