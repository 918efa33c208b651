package pool

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolLens/internal/chain"
	"poolLens/internal/model"
)

// MetaService fetches and caches token metadata. Metadata is immutable so
// entries never expire.
type MetaService struct {
	caller chain.Caller
	logger *zap.Logger

	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewMetaService(caller chain.Caller, logger *zap.Logger) *MetaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaService{
		caller: caller,
		logger: logger,
		data:   make(map[common.Address]model.TokenMeta),
	}
}

// Meta returns token metadata, fetching it on first use.
func (s *MetaService) Meta(ctx context.Context, token common.Address) (model.TokenMeta, error) {
	s.mu.RLock()
	meta, ok := s.data[token]
	s.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta, err := FetchTokenMeta(ctx, s.caller, token, s.logger)
	if err != nil {
		return model.TokenMeta{}, err
	}

	s.mu.Lock()
	s.data[token] = meta
	s.mu.Unlock()
	return meta, nil
}

// Decimals returns a token's decimals.
func (s *MetaService) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	meta, err := s.Meta(ctx, token)
	if err != nil {
		return 0, err
	}
	return meta.Decimals, nil
}
