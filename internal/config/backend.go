package config

// ConfigBackend abstracts platform-specific config storage.
// macOS uses UserDefaults (via `defaults` CLI), other platforms use an
// XDG config file.
type ConfigBackend interface {
	GetString(key string) (val string, ok bool, err error)
	SetString(key, val string) error
	Delete(key string) error
}
