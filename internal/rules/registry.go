package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/Yukun-Git/stock-pal-sub000/internal/classifier"
)

var validate = validator.New()

// Registry loads market/board/channel config layers once and composes them
// into cached, immutable Rulesets keyed by TradingEnvironment. It is a
// process-wide read-mostly singleton, per spec.md §9 — created once at
// startup and passed as an explicit collaborator into each run; it is never
// mutated by a run.
type Registry struct {
	markets  map[string]MarketConfig
	boards   map[string]BoardConfig
	channels map[string]ChannelConfig

	mu    sync.RWMutex
	cache map[TradingEnvironment]*Ruleset
}

// NewRegistry builds a Registry from already-decoded config layers. Each
// layer is validated with go-playground/validator/v10 before being
// accepted.
func NewRegistry(markets []MarketConfig, boards []BoardConfig, channels []ChannelConfig) (*Registry, error) {
	reg := &Registry{
		markets:  make(map[string]MarketConfig, len(markets)),
		boards:   make(map[string]BoardConfig, len(boards)),
		channels: make(map[string]ChannelConfig, len(channels)),
		cache:    make(map[TradingEnvironment]*Ruleset),
	}
	for _, m := range markets {
		if err := validate.Struct(m); err != nil {
			return nil, fmt.Errorf("rules: invalid market config %q: %w", m.Market, err)
		}
		reg.markets[m.Market] = m
	}
	for _, b := range boards {
		if err := validate.Struct(b); err != nil {
			return nil, fmt.Errorf("rules: invalid board config %q: %w", b.Board, err)
		}
		reg.boards[b.Board] = b
	}
	for _, c := range channels {
		if err := validate.Struct(c); err != nil {
			return nil, fmt.Errorf("rules: invalid channel config %q: %w", c.Channel, err)
		}
		reg.channels[c.Channel] = c
	}
	return reg, nil
}

// LoadRegistry reads one JSON file per layer (each a JSON array of that
// layer's config type) and builds a Registry, mirroring the teacher's
// JSON-tagged config-loading convention.
func LoadRegistry(marketsPath, boardsPath, channelsPath string) (*Registry, error) {
	var markets []MarketConfig
	if err := decodeFile(marketsPath, &markets); err != nil {
		return nil, err
	}
	var boards []BoardConfig
	if err := decodeFile(boardsPath, &boards); err != nil {
		return nil, err
	}
	var channels []ChannelConfig
	if err := decodeFile(channelsPath, &channels); err != nil {
		return nil, err
	}
	return NewRegistry(markets, boards, channels)
}

func decodeFile(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rules: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("rules: parse %s: %w", path, err)
	}
	return nil
}

// Resolve composes — or returns from cache — the Ruleset for env. The first
// caller for a given TradingEnvironment pays the composition cost; every
// subsequent caller gets the cached, immutable result.
func (reg *Registry) Resolve(env TradingEnvironment) (*Ruleset, error) {
	reg.mu.RLock()
	if rs, ok := reg.cache[env]; ok {
		reg.mu.RUnlock()
		return rs, nil
	}
	reg.mu.RUnlock()

	market, ok := reg.markets[string(env.Market)]
	if !ok {
		return nil, fmt.Errorf("rules: no market config for %q", env.Market)
	}
	board, ok := reg.boards[string(env.Board)]
	if !ok {
		return nil, fmt.Errorf("rules: no board config for %q", env.Board)
	}
	channel, ok := reg.channels[string(env.Channel)]
	if !ok {
		return nil, fmt.Errorf("rules: no channel config for %q", env.Channel)
	}
	if !channelApplies(channel, string(env.Market)) {
		return nil, fmt.Errorf("rules: channel %q does not apply to market %q", env.Channel, env.Market)
	}

	rs := &Ruleset{
		env:              env,
		market:           market,
		board:            board,
		channel:          channel,
		currencyDecimals: currencyDecimals(env.Market),
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if existing, ok := reg.cache[env]; ok {
		return existing, nil
	}
	reg.cache[env] = rs
	return rs, nil
}

func channelApplies(c ChannelConfig, market string) bool {
	for _, m := range c.ApplicableMarkets {
		if m == market {
			return true
		}
	}
	return false
}

// currencyDecimals gives the rounding precision for money math: 2 decimals
// for CN (RMB minor unit, fen), 4 for HK/US (spec.md §4.6).
func currencyDecimals(market classifier.Market) int {
	if market == classifier.MarketCN {
		return 2
	}
	return 4
}
