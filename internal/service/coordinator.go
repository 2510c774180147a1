package service

import (
	"context"

	"github.com/goserg/rankings/internal/domain"
)

// Coordinator manages the ephemeral place where a match's players talk, such
// as a chat thread. The engine only opens and archives it.
type Coordinator interface {
	// OpenThread returns a handle the caller can show to the players.
	OpenThread(ctx context.Context, match domain.Match, location string) (string, error)
	ArchiveThread(ctx context.Context, match domain.Match) error
}

type NopCoordinator struct{}

func (NopCoordinator) OpenThread(context.Context, domain.Match, string) (string, error) {
	return "", nil
}

func (NopCoordinator) ArchiveThread(context.Context, domain.Match) error {
	return nil
}
