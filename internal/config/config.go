// Package config loads clientbook settings from defaults, a clientbook.yaml
// file, CLIENTBOOK_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/koustreak/clientbook/internal/database"
	"github.com/koustreak/clientbook/internal/filestore"
	"github.com/koustreak/clientbook/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	fileName  = "clientbook"
	envPrefix = "clientbook"
)

// Config is the full application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	QueryTimeout    time.Duration `mapstructure:"query_timeout"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	TimeFormat string `mapstructure:"time_format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type SnapshotConfig struct {
	// Provider is "minio". "memory" only lives as long as the process and
	// is refused by the CLI.
	Provider  string `mapstructure:"provider"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
}

// Defaults returns the built-in value of every key.
func Defaults() map[string]any {
	return map[string]any{
		"database.driver":             string(database.DriverPostgres),
		"database.dsn":                "",
		"database.host":               "localhost",
		"database.port":               0,
		"database.user":               "",
		"database.password":           "",
		"database.name":               "clients_db",
		"database.sslmode":            "disable",
		"database.max_conns":          10,
		"database.min_conns":          2,
		"database.max_conn_lifetime":  "30m",
		"database.max_conn_idle_time": "5m",
		"database.connect_timeout":    "10s",
		"database.query_timeout":      "30s",

		"log.level":        "info",
		"log.format":       "json",
		"log.time_format":  "rfc3339",
		"log.file":         "",
		"log.max_size_mb":  50,
		"log.max_backups":  5,
		"log.max_age_days": 30,
		"log.compress":     false,

		"server.addr":             ":8080",
		"server.request_timeout":  "30s",
		"server.shutdown_timeout": "10s",

		"snapshot.provider":   string(filestore.ProviderMinIO),
		"snapshot.endpoint":   "localhost:9000",
		"snapshot.access_key": "",
		"snapshot.secret_key": "",
		"snapshot.use_ssl":    false,
		"snapshot.bucket":     "clientbook",
		"snapshot.region":     "",
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"driver":     "database.driver",
	"dsn":        "database.dsn",
	"log-level":  "log.level",
	"log-format": "log.format",
	"addr":       "server.addr",
}

// Load reads the configuration. path, when set, names the config file
// explicitly and must exist; otherwise clientbook.yaml is searched in the
// user config dir, /etc/clientbook and the working directory, and a missing
// file is not an error. cmd may be nil.
func Load(cmd *cobra.Command, path string) (*Config, error) {
	v := viper.New()

	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, fileName))
	}
	v.AddConfigPath("/etc/" + fileName)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range flagKeys {
			if f := cmd.Flag(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.File = v.ConfigFileUsed()
	return &c, nil
}

// ToDatabase converts the database section into a database.Config.
func (c *Config) ToDatabase() *database.Config {
	d := c.Database
	return &database.Config{
		Driver:          database.Driver(strings.ToLower(d.Driver)),
		DSN:             d.DSN,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Database:        d.Name,
		SSLMode:         d.SSLMode,
		MaxConns:        d.MaxConns,
		MinConns:        d.MinConns,
		MaxConnLifetime: d.MaxConnLifetime,
		MaxConnIdleTime: d.MaxConnIdleTime,
		ConnectTimeout:  d.ConnectTimeout,
		QueryTimeout:    d.QueryTimeout,
	}
}

// ToLogger converts the log section into a logger.Config writing to out.
func (c *Config) ToLogger(out io.Writer) *logger.Config {
	l := c.Log
	return &logger.Config{
		Level:      l.Level,
		Format:     l.Format,
		TimeFormat: l.TimeFormat,
		Output:     out,
		File: logger.FileConfig{
			Path:       l.File,
			MaxSizeMB:  l.MaxSizeMB,
			MaxBackups: l.MaxBackups,
			MaxAgeDays: l.MaxAgeDays,
			Compress:   l.Compress,
		},
	}
}

// ToFilestore converts the snapshot section into a filestore.Config.
func (c *Config) ToFilestore() *filestore.Config {
	s := c.Snapshot
	return &filestore.Config{
		Provider:  filestore.Provider(strings.ToLower(s.Provider)),
		Endpoint:  s.Endpoint,
		AccessKey: s.AccessKey,
		SecretKey: s.SecretKey,
		UseSSL:    s.UseSSL,
		Region:    s.Region,
		Bucket:    s.Bucket,
	}
}
