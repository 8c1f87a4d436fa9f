package config

import (
	"context"
	"encoding/json"
	"errors"

	"companion-mcu/bus"
	"companion-mcu/types"

	"github.com/andreyvit/tinyjson"
)

// -----------------------------------------------------------------------------
// String constants (live in flash, not RAM)
// -----------------------------------------------------------------------------

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID

	// BoardKey is the top-level key under which the embedded config
	// carries the resolved BoardConfig (C11): pin mapping, baud, LED
	// count, board variant.
	BoardKey = "board"

	// DefaultBoard is the device ID resolved when none is supplied in
	// context; it carries the most recent revision's pin mapping.
	DefaultBoard = "handheld-rev2"
)

// BoardTopic is where the resolved BoardConfig is published, retained,
// once at boot, so any component can read it without depending
// directly on the resolver.
var BoardTopic = bus.T(configPrefix, BoardKey)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig reads the device config from embedded data and publishes it as retained messages.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}

	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return errors.New("no embedded config for device: " + device)
	}

	r := tinyjson.Raw(raw)
	val := r.Value() // should be a map[string]any
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return errors.New("embedded config is not a JSON object")
	}

	for k, v := range m {
		msg := &bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  v,
			Retained: true,
		}
		conn.Publish(msg)
	}

	if board, ok := resolveBoardConfig(m); ok {
		conn.Publish(&bus.Message{Topic: BoardTopic, Payload: board, Retained: true})
	}

	return nil
}

// resolveBoardConfig extracts the "board" subtree of the embedded
// config (already decoded to map[string]any by tinyjson) into a typed
// types.BoardConfig. Unset fields keep DefaultBoardConfig's values, so
// a board's JSON only needs to override what differs from the default
// pin mapping.
func resolveBoardConfig(m map[string]any) (types.BoardConfig, bool) {
	raw, ok := m[BoardKey]
	if !ok {
		return types.BoardConfig{}, false
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return types.BoardConfig{}, false
	}
	cfg := DefaultBoardConfig()
	if err := json.Unmarshal(b, &cfg); err != nil {
		return types.BoardConfig{}, false
	}
	return cfg, true
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		_ = s.publishConfig(ctx, conn) // replace with logging if needed
	}()
}
