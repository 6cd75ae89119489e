package settings

import (
	"github.com/huandu/go-clone"
)

type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeSQLite StoreType = "sqlite"
	StoreTypeRedis  StoreType = "redis"
)

type StoreSettings struct {
	Type StoreType `yaml:"type,omitempty"`
	// Path of the sqlite database file.
	Path     string `yaml:"path,omitempty"`
	RedisURL string `yaml:"redis_url,omitempty"`
}

func NewStoreSettings() *StoreSettings {
	return &StoreSettings{
		Type: StoreTypeMemory,
	}
}

func (s *StoreSettings) Clone() *StoreSettings {
	return clone.Clone(s).(*StoreSettings)
}
