package subgraph

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/machinebox/graphql"
	"go.uber.org/zap"

	"poolLens/internal/model"
)

// pageSize bounds a single query; discovery paginates until a short page.
const pageSize = 100

const poolsQuery = `
query ($token0: String!, $token1: String!, $first: Int!, $skip: Int!) {
  pools(
    where: {token0: $token0, token1: $token1}
    orderBy: liquidity
    orderDirection: desc
    first: $first
    skip: $skip
  ) {
    id
    feeTier
    tickSpacing
    hooks
    liquidity
    sqrtPrice
    tick
  }
}`

const positionsQuery = `
query ($owner: String!, $first: Int!, $skip: Int!) {
  positions(where: {owner: $owner}, first: $first, skip: $skip) {
    id
    tickLower
    tickUpper
    liquidity
    pool {
      token0 { id }
      token1 { id }
      feeTier
      tickSpacing
      hooks
    }
  }
}`

type poolResponse struct {
	ID          string `json:"id"`
	FeeTier     string `json:"feeTier"`
	TickSpacing string `json:"tickSpacing"`
	Hooks       string `json:"hooks"`
	Liquidity   string `json:"liquidity"`
	SqrtPrice   string `json:"sqrtPrice"`
	Tick        string `json:"tick"`
}

type positionResponse struct {
	ID        string `json:"id"`
	TickLower string `json:"tickLower"`
	TickUpper string `json:"tickUpper"`
	Liquidity string `json:"liquidity"`
	Pool      struct {
		Token0      struct{ ID string } `json:"token0"`
		Token1      struct{ ID string } `json:"token1"`
		FeeTier     string              `json:"feeTier"`
		TickSpacing string              `json:"tickSpacing"`
		Hooks       string              `json:"hooks"`
	} `json:"pool"`
}

// PoolListing is a discovered pool configuration for a token pair, ordered
// by on-chain liquidity. Figures are indexer-reported and advisory; the
// chain remains the source of truth for accounting.
type PoolListing struct {
	PoolID    string
	Key       model.PoolKey
	Liquidity string
	Tick      int32
}

// PositionListing is a position token discovered for an owner.
type PositionListing struct {
	TokenID   string
	Key       model.PoolKey
	TickLower int32
	TickUpper int32
	Liquidity string
}

// Client queries a v4 indexer for pool and position discovery.
type Client struct {
	gql    *graphql.Client
	apiKey string
	logger *zap.Logger
}

func NewClient(url, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		gql:    graphql.NewClient(url),
		apiKey: apiKey,
		logger: logger,
	}
}

// Pools lists known pools for a token pair, highest liquidity first. The
// pair is canonically ordered before querying.
func (c *Client) Pools(ctx context.Context, currencyA, currencyB common.Address) ([]PoolListing, error) {
	token0, token1 := currencyA, currencyB
	if token1.Cmp(token0) < 0 {
		token0, token1 = token1, token0
	}

	listings := []PoolListing{}
	for skip := 0; ; skip += pageSize {
		req := c.newRequest(poolsQuery)
		req.Var("token0", addressID(token0))
		req.Var("token1", addressID(token1))
		req.Var("first", pageSize)
		req.Var("skip", skip)

		respData := struct {
			Pools []poolResponse `json:"pools"`
		}{}
		if err := c.gql.Run(ctx, req, &respData); err != nil {
			return nil, fmt.Errorf("query pools: %w", err)
		}

		for _, resp := range respData.Pools {
			listing, err := c.poolListing(token0, token1, resp)
			if err != nil {
				c.logger.Debug("skipping malformed pool listing",
					zap.String("pool", resp.ID), zap.Error(err))
				continue
			}
			listings = append(listings, listing)
		}
		if len(respData.Pools) < pageSize {
			break
		}
	}
	return listings, nil
}

// PositionsByOwner lists position tokens held by an address.
func (c *Client) PositionsByOwner(ctx context.Context, owner common.Address) ([]PositionListing, error) {
	listings := []PositionListing{}
	for skip := 0; ; skip += pageSize {
		req := c.newRequest(positionsQuery)
		req.Var("owner", addressID(owner))
		req.Var("first", pageSize)
		req.Var("skip", skip)

		respData := struct {
			Positions []positionResponse `json:"positions"`
		}{}
		if err := c.gql.Run(ctx, req, &respData); err != nil {
			return nil, fmt.Errorf("query positions: %w", err)
		}

		for _, resp := range respData.Positions {
			listing, err := c.positionListing(resp)
			if err != nil {
				c.logger.Debug("skipping malformed position listing",
					zap.String("token_id", resp.ID), zap.Error(err))
				continue
			}
			listings = append(listings, listing)
		}
		if len(respData.Positions) < pageSize {
			break
		}
	}
	return listings, nil
}

func (c *Client) newRequest(query string) *graphql.Request {
	req := graphql.NewRequest(query)
	if c.apiKey != "" {
		req.Header.Add("Authorization", "Bearer "+c.apiKey)
	}
	return req
}

func (c *Client) poolListing(token0, token1 common.Address, resp poolResponse) (PoolListing, error) {
	fee, err := strconv.ParseUint(resp.FeeTier, 10, 32)
	if err != nil {
		return PoolListing{}, fmt.Errorf("fee tier %q: %w", resp.FeeTier, err)
	}
	spacing, err := strconv.ParseInt(resp.TickSpacing, 10, 32)
	if err != nil {
		return PoolListing{}, fmt.Errorf("tick spacing %q: %w", resp.TickSpacing, err)
	}
	tick := int64(0)
	if resp.Tick != "" {
		tick, err = strconv.ParseInt(resp.Tick, 10, 32)
		if err != nil {
			return PoolListing{}, fmt.Errorf("tick %q: %w", resp.Tick, err)
		}
	}
	return PoolListing{
		PoolID: resp.ID,
		Key: model.PoolKey{
			Currency0:   token0,
			Currency1:   token1,
			Fee:         uint32(fee),
			TickSpacing: int32(spacing),
			Hooks:       common.HexToAddress(resp.Hooks),
		},
		Liquidity: resp.Liquidity,
		Tick:      int32(tick),
	}, nil
}

func (c *Client) positionListing(resp positionResponse) (PositionListing, error) {
	fee, err := strconv.ParseUint(resp.Pool.FeeTier, 10, 32)
	if err != nil {
		return PositionListing{}, fmt.Errorf("fee tier %q: %w", resp.Pool.FeeTier, err)
	}
	spacing, err := strconv.ParseInt(resp.Pool.TickSpacing, 10, 32)
	if err != nil {
		return PositionListing{}, fmt.Errorf("tick spacing %q: %w", resp.Pool.TickSpacing, err)
	}
	tickLower, err := strconv.ParseInt(resp.TickLower, 10, 32)
	if err != nil {
		return PositionListing{}, fmt.Errorf("tick lower %q: %w", resp.TickLower, err)
	}
	tickUpper, err := strconv.ParseInt(resp.TickUpper, 10, 32)
	if err != nil {
		return PositionListing{}, fmt.Errorf("tick upper %q: %w", resp.TickUpper, err)
	}
	return PositionListing{
		TokenID: resp.ID,
		Key: model.PoolKey{
			Currency0:   common.HexToAddress(resp.Pool.Token0.ID),
			Currency1:   common.HexToAddress(resp.Pool.Token1.ID),
			Fee:         uint32(fee),
			TickSpacing: int32(spacing),
			Hooks:       common.HexToAddress(resp.Pool.Hooks),
		},
		TickLower: int32(tickLower),
		TickUpper: int32(tickUpper),
		Liquidity: resp.Liquidity,
	}, nil
}

// addressID renders an address the way the indexer keys entities,
// lowercase hex.
func addressID(a common.Address) string {
	return strings.ToLower(a.Hex())
}
