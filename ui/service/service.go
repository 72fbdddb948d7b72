package service

import (
	"github.com/sallytsm/sally"
	"github.com/sallytsm/sally/storage"
)

// Service provides the shared read models for the Sally web surface.
type Service struct {
	client *sally.Client
	store  storage.Store
}

// New creates a new Service backed by the given client.
func New(client *sally.Client) *Service {
	return &Service{
		client: client,
		store:  client.Store(),
	}
}

// Client returns the underlying client.
func (s *Service) Client() *sally.Client {
	return s.client
}

// Store returns the underlying store.
// This is useful for advanced operations not covered by the service.
func (s *Service) Store() storage.Store {
	return s.store
}
