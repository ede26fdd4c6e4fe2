package engine

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/mediarec/core"
)

func prefsKey(userID string) string { return "prefs:" + userID }

// LoadPreferences 读取用户偏好，未设置过时返回零值偏好。
func (e *Engine) LoadPreferences(ctx context.Context, userID string) (core.Preferences, error) {
	var prefs core.Preferences
	data, err := e.kv.Get(ctx, prefsKey(userID))
	if core.IsStoreNotFound(err) {
		return prefs, nil
	}
	if err != nil {
		return prefs, err
	}
	if err := json.Unmarshal(data, &prefs); err != nil {
		return prefs, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

// SavePreferences 整体覆盖用户偏好。
func (e *Engine) SavePreferences(ctx context.Context, userID string, prefs core.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return e.kv.Set(ctx, prefsKey(userID), data)
}
