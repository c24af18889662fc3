package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
)

// Adapter reads and writes JSON values through a KV. Faults never reach the
// caller: writes are logged and dropped, unreadable values load as absent.
type Adapter struct {
	kv  KV
	log *slog.Logger
}

func NewAdapter(kv KV, log *slog.Logger) *Adapter {
	if log == nil {
		log = slog.Default()
	}
	return &Adapter{kv: kv, log: log}
}

// Save encodes value and writes it under key. It reports whether the write
// happened.
func (a *Adapter) Save(ctx context.Context, key string, value any) bool {
	data, err := json.Marshal(value)
	if err != nil {
		a.log.ErrorContext(ctx, "encode value failed", "key", key, "error", err)
		return false
	}
	if err := a.kv.Set(ctx, key, string(data)); err != nil {
		a.log.ErrorContext(ctx, "store write failed", "key", key, "error", err)
		return false
	}
	return true
}

// Load decodes the value stored under key into dst. False means absent,
// which covers missing keys, invalid JSON and decode errors alike.
func (a *Adapter) Load(ctx context.Context, key string, dst any) bool {
	raw, err := a.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		a.log.WarnContext(ctx, "store read failed", "key", key, "error", err)
		return false
	}
	if !json.Valid([]byte(raw)) {
		a.log.WarnContext(ctx, "stored value is not valid json", "key", key)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		a.log.WarnContext(ctx, "decode stored value failed", "key", key, "error", err)
		return false
	}
	return true
}

func (a *Adapter) Delete(ctx context.Context, key string) {
	if err := a.kv.Delete(ctx, key); err != nil {
		a.log.WarnContext(ctx, "store delete failed", "key", key, "error", err)
	}
}
