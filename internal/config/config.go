package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	BaseURL     string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	FrontendURL string `env:"FRONTEND_URL"`

	Database Database
	Auth     Auth     `envPrefix:"AUTH_"`
	Checkout Checkout `envPrefix:"CHECKOUT_"`
	Payment  Payment  `envPrefix:"PAYMENT_"`
	Cleanup  Cleanup  `envPrefix:"CLEANUP_"`

	PhonePe   PhonePe   `envPrefix:"PHONEPE_"`
	BrainTree Braintree `envPrefix:"BRAINTREE_"`
}

type PhonePe struct {
	Environment   string `env:"ENVIRONMENT" envDefault:"SANDBOX"` // SANDBOX, PRODUCTION
	ClientID      string `env:"CLIENT_ID"`
	ClientSecret  string `env:"CLIENT_SECRET"`
	ClientVersion string `env:"CLIENT_VERSION" envDefault:"1"`
	// overrides for the environment defaults, mostly for tests
	BaseApiURL string `env:"BASE_API_URL"`
	AuthURL    string `env:"AUTH_URL"`

	CallbackUsername string  `env:"CALLBACK_USERNAME"`
	CallbackPassword string  `env:"CALLBACK_PASSWORD"`
	RateLimit        float64 `env:"RATE_LIMIT" envDefault:"10"` // requests per second
}

type Braintree struct {
	Environment string `env:"ENVIRONMENT"`
	MerchantID  string `env:"MERCHANT_ID"`
	PublicKey   string `env:"PUBLIC_KEY"`
	PrivateKey  string `env:"PRIVATE_KEY"`
}

type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite"` // mysql, sqlite
	URL    string `env:"DATABASE_URL" envDefault:"storefront.db"`
}

type Auth struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Checkout struct {
	ShippingCost          string `env:"SHIPPING_COST" envDefault:"99"`
	FreeShippingThreshold string `env:"FREE_SHIPPING_THRESHOLD" envDefault:"999"`
	CODFee                string `env:"COD_FEE" envDefault:"49"`
}

type Payment struct {
	RedirectStatusDelay time.Duration `env:"REDIRECT_STATUS_DELAY" envDefault:"1500ms"`
	SettingsCacheTTL    time.Duration `env:"SETTINGS_CACHE_TTL" envDefault:"10s"`
}

type Cleanup struct {
	Enabled        bool          `env:"ENABLED" envDefault:"true"`
	Interval       time.Duration `env:"INTERVAL" envDefault:"30m"`
	PendingTimeout time.Duration `env:"PENDING_TIMEOUT" envDefault:"2h"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"json"`
	File       string `env:"LOG_FILE"` // empty = stdout
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"` // MB
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"7"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"7"` // days
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
