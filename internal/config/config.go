package config

import (
	"flag"
	"fmt"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"net/url"
	"os"
	"reflect"
	"strings"
	"time"
)

const envPrefix = "PORTFOLIO"

type Configuration struct {
	Logging struct {
		MaxSize         int
		MaxBackups      int
		MaxAge          int
		Level           zapcore.Level
		ConsoleLogLevel zapcore.Level
		File            string
		HttpAccessFile  string
		DbLogFile       string
	}
	ListeningPort    string
	ListeningAddress string
	Database         struct {
		// Driver is either "postgres" or "sqlite"
		Driver          string
		Host            string
		Port            uint
		Username        string
		Password        string
		DatabaseName    string
		SqlitePath      string
		MaxIdleConns    int
		MaxOpenConns    int
		ConnMaxLifetime time.Duration
	}
	Auth struct {
		SigningKey        string
		TokenLifetime     time.Duration
		AdminUsername     string
		AdminPasswordHash string
	}
	Media struct {
		CloudName    string
		UploadPreset string
		ApiUrl       *url.URL
		DeliveryUrl  *url.URL
		Timeout      time.Duration
	}
	Cache struct {
		MaxEntries int64
		Ttl        time.Duration
	}
	Housekeeping struct {
		Schedule string
	}
	Cors struct {
		AllowedOrigin string
	}
}

var config *Configuration

func InitConfig() *Configuration {
	configFile := flag.String("config", "config.json", "Path to config file (json, toml or yaml)")
	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "\nUsage of %s:\n", os.Args[0])
		flag.PrintDefaults()
		_, _ = fmt.Fprint(os.Stderr, "\n")
	}
	flag.Parse()

	c, err := Load(*configFile)
	if err != nil {
		flag.Usage()
		panic("Error parsing config file: " + err.Error())
	}

	config = c
	return config
}

// Load reads the configuration file at path and applies PORTFOLIO_* environment overrides,
// e.g. PORTFOLIO_DATABASE_PASSWORD overrides Database.Password.
func Load(path string) (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if len(path) > 0 {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	var c Configuration
	err := v.Unmarshal(&c, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
		stringToUrlHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}

	//defaults viper cannot express
	if c.Logging.MaxSize <= 0 {
		c.Logging.MaxSize = 500
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 3
	}
	if c.Logging.MaxAge <= 0 {
		c.Logging.MaxAge = 28
	}

	return &c, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.consoleLogLevel", "error")
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.httpAccessFile", "access.log")
	v.SetDefault("logging.dbLogFile", "db.log")
	v.SetDefault("listeningAddress", "0.0.0.0")
	v.SetDefault("listeningPort", "8080")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "portfolio")
	v.SetDefault("database.password", "")
	v.SetDefault("database.databaseName", "portfolio")
	v.SetDefault("database.sqlitePath", "portfolio.db")
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.connMaxLifetime", "1h")
	v.SetDefault("auth.signingKey", "")
	v.SetDefault("auth.tokenLifetime", "12h")
	v.SetDefault("auth.adminUsername", "")
	v.SetDefault("auth.adminPasswordHash", "")
	v.SetDefault("media.cloudName", "")
	v.SetDefault("media.uploadPreset", "")
	v.SetDefault("media.apiUrl", "https://api.cloudinary.com")
	v.SetDefault("media.deliveryUrl", "https://res.cloudinary.com")
	v.SetDefault("media.timeout", "30s")
	v.SetDefault("cache.maxEntries", 1000)
	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("housekeeping.schedule", "@every 60m")
	v.SetDefault("cors.allowedOrigin", "*")
}

// stringToUrlHookFunc parses strings into *url.URL fields
func stringToUrlHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(&url.URL{}) {
			return data, nil
		}
		s := data.(string)
		if len(s) == 0 {
			return nil, nil
		}
		return url.Parse(s)
	}
}

func Config() *Configuration {
	return config
}

func Port() string {
	return config.ListeningPort
}

func Address() string {
	return config.ListeningAddress
}
