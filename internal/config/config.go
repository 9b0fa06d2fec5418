package config

import (
	"sync"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfighcl"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	TelegramBotToken    string `hcl:"telegram_bot_token" env:"TELEGRAM_BOT_TOKEN" required:"true"`
	TelegramChannel     string `hcl:"telegram_channel" env:"TELEGRAM_CHANNEL" required:"true"`
	TelegramAdminChatID int64  `hcl:"telegram_admin_chat_id" env:"TELEGRAM_ADMIN_CHAT_ID"`
	BotName             string `hcl:"bot_name" env:"BOT_NAME" default:"craigsbot"`
	BotIcon             string `hcl:"bot_icon" env:"BOT_ICON" default:"🤖"`

	DatabaseDSN string `hcl:"database_dsn" env:"DATABASE_DSN" default:"listings.db"`

	CraigslistSite string        `hcl:"craigslist_site" env:"CRAIGSLIST_SITE" default:"annarbor"`
	Category       string        `hcl:"category" env:"CATEGORY" default:"sss"`
	MinPrice       int           `hcl:"min_price" env:"MIN_PRICE" default:"0"`
	MaxPrice       int           `hcl:"max_price" env:"MAX_PRICE" default:"0"`
	HasImage       bool          `hcl:"has_image" env:"HAS_IMAGE" default:"true"`
	Geotagged      bool          `hcl:"geotagged" env:"GEOTAGGED" default:"true"`
	Limit          int           `hcl:"limit" env:"LIMIT" default:"20"`
	SourceFormat   string        `hcl:"source_format" env:"SOURCE_FORMAT" default:"html"`
	SourceBaseURL  string        `hcl:"source_base_url" env:"SOURCE_BASE_URL"`
	RequestTimeout time.Duration `hcl:"request_timeout" env:"REQUEST_TIMEOUT" default:"30s"`
	Location       string        `hcl:"location" env:"LOCATION" default:"Ann Arbor"`

	FetchInterval time.Duration `hcl:"fetch_interval" env:"FETCH_INTERVAL" default:"0s"`
	HTTPAddr      string        `hcl:"http_addr" env:"HTTP_ADDR"`
	LogLevel      string        `hcl:"log_level" env:"LOG_LEVEL" default:"info"`
}

var defaultFiles = []string{"./config.hcl", "./config.local.hcl", "$HOME/.config/craigsbot/config.hcl"}

var (
	cfg  Config
	once sync.Once
)

func Get() Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("no .env file found, using process environment")
		}

		var err error
		if cfg, err = Load(defaultFiles...); err != nil {
			log.Error().Err(err).Msg("failed to load config")
		}
	})

	return cfg
}

// Load reads the given HCL files and then CLBOT_-prefixed environment
// variables on top of the defaults.
func Load(files ...string) (Config, error) {
	var c Config
	loader := aconfig.LoaderFor(&c, aconfig.Config{
		SkipFlags: true,
		EnvPrefix: "CLBOT",
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".hcl": aconfighcl.New(),
		},
	})

	err := loader.Load()
	return c, err
}
