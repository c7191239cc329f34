package nftamm

import (
	"github.com/krazyTry/nft-amm-go/amm"
	"github.com/krazyTry/nft-amm-go/scenario"
	nftsolana "github.com/krazyTry/nft-amm-go/solana"
	"github.com/krazyTry/nft-amm-go/store/backend"
)

// NewEngine creates a pool engine over an account store.
//
// Example:
//
// db, _ := OpenStore("pebble", "./data")
//
// engine := NewEngine(db, amm.WithMetrics(metrics.AMM()))
//
// pool, _ := engine.CreatePool(ctx, amm.CreatePoolParams{Owner: owner, Config: config})
//
// engine.QuoteBuy(ctx, amm.QuoteParams{Pool: pool})
var NewEngine = amm.NewEngine

// OpenStore opens an account store backend by name (memory, pebble, bbolt, leveldb).
var OpenStore = backend.Open

// NewStateService creates a reader for pools deployed on a cluster.
//
// Example:
//
// states := NewStateService(rpc.New(rpc.MainNetBeta_RPC), helpers.NftAmmProgramID, rpc.CommitmentFinalized)
//
// states.GetPoolsByOwner(ctx, owner)
var NewStateService = nftsolana.NewStateService

// NewScenarioRunner replays JSON scenario scripts against a fresh engine.
var NewScenarioRunner = scenario.NewRunner
