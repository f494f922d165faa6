package config

import (
	"fmt"
	"strconv"
)

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all config key/value pairs from the current config.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// SetKey writes a config key to the platform backend.
func SetKey(key, value string) error {
	return setKeyWith(newPlatformBackend(), key, value)
}

func setKeyWith(b ConfigBackend, key, value string) error {
	for _, s := range specs {
		if s.key != key {
			continue
		}
		switch s.typ {
		case kString:
			return b.SetString(key, value)
		case kBool:
			bv, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("invalid boolean value for %s: %w", key, err)
			}
			return b.SetString(key, strconv.FormatBool(bv))
		}
	}

	return fmt.Errorf("unknown config key: %q", key)
}

// UnsetKey removes a config key from the platform backend so its default
// applies again.
func UnsetKey(key string) error {
	return unsetKeyWith(newPlatformBackend(), key)
}

func unsetKeyWith(b ConfigBackend, key string) error {
	for _, s := range specs {
		if s.key == key {
			return b.Delete(key)
		}
	}
	return fmt.Errorf("unknown config key: %q", key)
}

// ValidKeys returns the list of config key names.
func ValidKeys() []string {
	keys := make([]string, 0, len(specs))
	for _, s := range specs {
		keys = append(keys, s.key)
	}
	return keys
}
