package config

import (
	"encoding/json"
	"fmt"
	"maps"
)

// Merge overlays discovered on defaults and returns a new map.
//
// For each discovered key: nil values are skipped; if both sides hold
// objects the two are merged one level deep with discovered keys winning;
// anything else (arrays, scalars, object over scalar) replaces the default.
// Neither input is modified.
func Merge(defaults, discovered map[string]any) map[string]any {
	out := maps.Clone(defaults)
	if out == nil {
		out = make(map[string]any, len(discovered))
	}
	for k, v := range discovered {
		if v == nil {
			continue
		}
		base, baseIsObj := out[k].(map[string]any)
		over, overIsObj := v.(map[string]any)
		if baseIsObj && overIsObj {
			merged := maps.Clone(base)
			for nk, nv := range over {
				if nv != nil {
					merged[nk] = nv
				}
			}
			out[k] = merged
			continue
		}
		out[k] = v
	}
	return out
}

// toMap converts a Config to its generic document form.
func toMap(c Config) (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// fromMap decodes a generic document into a Config.
func fromMap(m map[string]any) (Config, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}
