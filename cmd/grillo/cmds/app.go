package cmds

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-go-golems/grillo/pkg/conversation"
	"github.com/go-go-golems/grillo/pkg/steps/ai"
	"github.com/go-go-golems/grillo/pkg/steps/ai/chat"
	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/go-go-golems/grillo/pkg/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// AddSettingsFlags declares the flags UpdateFromViper reads. Each of them can also be
// set through GRILLO_* environment variables.
func AddSettingsFlags(fs *pflag.FlagSet) {
	fs.String("namespace", "", "Store namespace (default chatgpt)")
	fs.String("default-mode", "", "Mode used when neither the sender nor the namespace chose one")
	fs.String("openai-api-key", "", "OpenAI API key")
	fs.String("openai-base-url", "", "OpenAI compatible base url, without /v1")
	fs.String("openai-model", "", "OpenAI model")
	fs.String("store-type", "", "Store backend (memory, sqlite, redis)")
	fs.String("store-path", "", "SQLite database file (default ~/.grillo/grillo.db)")
	fs.String("redis-url", "", "Redis url, e.g. redis://localhost:6379/0")
	fs.Int("timeout", 0, "Provider request timeout in seconds")
	fs.String("user-agent", "", "User-Agent header sent to the openai endpoint")
}

// App is the wired object graph shared by the commands.
type App struct {
	Settings   *settings.Settings
	Store      store.Store
	Repo       *conversation.Repository
	Dispatcher *chat.Dispatcher
}

// LoadSettings reads the config file found by viper, then applies flag and environment
// overrides. Without a configured store the CLI keeps its data in a sqlite file.
func LoadSettings(v *viper.Viper) (*settings.Settings, error) {
	s := settings.NewSettings()
	if path := v.ConfigFileUsed(); path != "" {
		var err error
		s, err = settings.LoadSettingsFromFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "could not load %s", path)
		}
	}

	storeConfigured := v.GetString("store.type") != "" || v.GetString("store-type") != ""
	s.UpdateFromViper(v)

	if !storeConfigured {
		s.Store.Type = settings.StoreTypeSQLite
	}
	if s.Store.Type == settings.StoreTypeSQLite && s.Store.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(home, ".grillo")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		s.Store.Path = filepath.Join(dir, "grillo.db")
	}

	if s.OpenAI.APIKey == "" {
		s.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	log.Debug().Fields(s.GetMetadata()).Msg("settings loaded")
	return s, nil
}

func NewApp(ctx context.Context) (*App, error) {
	s, err := LoadSettings(viper.GetViper())
	if err != nil {
		return nil, err
	}

	st, err := store.NewStoreFromSettings(ctx, s.Store)
	if err != nil {
		return nil, err
	}

	repo := conversation.NewRepository(store.NewNamespaced(st, s.Chat.Namespace), s.Chat.MaxHistoryDepth)
	dispatcher, err := ai.NewStandardDispatcher(s, repo)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &App{
		Settings:   s,
		Store:      st,
		Repo:       repo,
		Dispatcher: dispatcher,
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}
