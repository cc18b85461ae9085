package ports

import "github.com/clubnft/clubd/internal/core/domain"

type RepoManager interface {
	Events() domain.EventRepository
	Mints() domain.MintRepository
	Close()
}
