package configs

import (
	"flag"
	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"gitlab.faza.io/go-framework/logger"
	"os"
)

type Config struct {
	App struct {
		ServiceMode string `env:"RESTAURANT_SERVICE_MODE"`

		// selling tax applied at checkout, snapshotted into every order invoice
		TaxRatePercent string `env:"RESTAURANT_SERVICE_TAX_RATE_PERCENT"`
		Currency       string `env:"RESTAURANT_SERVICE_CURRENCY"`

		BillSequenceName string `env:"RESTAURANT_SERVICE_BILL_SEQUENCE_NAME"`
	}

	CartService struct {
		Address     string `env:"CART_SERVICE_ADDRESS"`
		Port        int    `env:"CART_SERVICE_PORT"`
		MockEnabled bool   `env:"CART_SERVICE_MOCK_ENABLED"`
	}

	UserService struct {
		Address     string `env:"USER_SERVICE_ADDRESS"`
		Port        int    `env:"USER_SERVICE_PORT"`
		MockEnabled bool   `env:"USER_SERVICE_MOCK_ENABLED"`
	}

	PdfService struct {
		Address     string `env:"PDF_SERVICE_ADDRESS"`
		Port        int    `env:"PDF_SERVICE_PORT"`
		MockEnabled bool   `env:"PDF_SERVICE_MOCK_ENABLED"`
	}

	Mongo struct {
		User              string `env:"RESTAURANT_SERVICE_MONGO_USER"`
		Pass              string `env:"RESTAURANT_SERVICE_MONGO_PASS"`
		Host              string `env:"RESTAURANT_SERVICE_MONGO_HOST"`
		Port              int    `env:"RESTAURANT_SERVICE_MONGO_PORT"`
		Database          string `env:"RESTAURANT_SERVICE_MONGO_DB"`
		ConnectionTimeout int    `env:"RESTAURANT_SERVICE_MONGO_CONN_TIMEOUT"`
		ReadTimeout       int    `env:"RESTAURANT_SERVICE_MONGO_READ_TIMEOUT"`
		WriteTimeout      int    `env:"RESTAURANT_SERVICE_MONGO_WRITE_TIMEOUT"`
		MaxConnIdleTime   int    `env:"RESTAURANT_SERVICE_MONGO_MAX_CONN_IDLE_TIME"`
		MaxPoolSize       int    `env:"RESTAURANT_SERVICE_MONGO_MAX_POOL_SIZE"`
		MinPoolSize       int    `env:"RESTAURANT_SERVICE_MONGO_MIN_POOL_SIZE"`
		WriteConcernW     string `env:"RESTAURANT_SERVICE_MONGO_WRITE_CONCERN_W"`
		WriteConcernJ     string `env:"RESTAURANT_SERVICE_MONGO_WRITE_CONCERN_J"`
		RetryWrite        bool   `env:"RESTAURANT_SERVICE_MONGO_RETRY_WRITE"`
	}
}

const (
	defaultTaxRatePercent   = "5"
	defaultCurrency         = "NPR"
	defaultBillSequenceName = "billNumber"
)

func LoadConfig(path string) (*Config, error) {
	var config = &Config{}
	currentPath, err := os.Getwd()
	if err != nil {
		logger.Err("get current working directory failed, error: %s", err)
	}

	if os.Getenv("APP_ENV") == "dev" {
		if path != "" {
			err := godotenv.Load(path)
			if err != nil {
				logger.Err("Error loading testdata .env file, Working Directory: %s path: %s, error: %s", currentPath, path, err)
			}
		} else if flag.Lookup("test.v") != nil {
			// test mode
			err := godotenv.Load("../testdata/.env")
			if err != nil {
				logger.Err("Error loading testdata .env file, error: %s", err)
			}
		} else {
			err := godotenv.Load("./.env")
			if err != nil {
				logger.Err("Error loading .env file")
			}
		}
	}

	_, err = env.UnmarshalFromEnviron(config)
	if err != nil {
		logger.Err("env.UnmarshalFromEnviron config failed, error: %s", err)
		return nil, err
	}

	if config.App.TaxRatePercent == "" {
		config.App.TaxRatePercent = defaultTaxRatePercent
	}
	if config.App.Currency == "" {
		config.App.Currency = defaultCurrency
	}
	if config.App.BillSequenceName == "" {
		config.App.BillSequenceName = defaultBillSequenceName
	}

	return config, nil
}
