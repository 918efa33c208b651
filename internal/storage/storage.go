package storage

import "poolLens/internal/model"

// Storage defines a sink for engine observations.
type Storage interface {
	PutObservations(observations []model.Observation) error
}
