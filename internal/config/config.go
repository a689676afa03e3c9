// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
)

// Config represents the application configuration.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Ticket      TicketConfig      `mapstructure:"ticket"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Email       EmailConfig       `mapstructure:"email"`
}

type AppConfig struct {
	Name  string `mapstructure:"name"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	// BundledPath is where a redeploy may drop a stale database copy.
	BundledPath string `mapstructure:"bundled_path"`
	// PersistentDir is the durable directory holding the canonical file.
	PersistentDir string `mapstructure:"persistent_dir"`
	Filename      string `mapstructure:"filename"`
	// LockTimeout bounds the startup bootstrap lock wait.
	LockTimeout time.Duration `mapstructure:"lock_timeout"`
}

type TicketConfig struct {
	IDPrefix    string `mapstructure:"id_prefix"`
	CounterBase int64  `mapstructure:"counter_base"`
}

type AttachmentsConfig struct {
	MaxImageDimension int `mapstructure:"max_image_dimension"`
	JPEGQuality       int `mapstructure:"jpeg_quality"`
}

type EmailConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SMTPHost     string `mapstructure:"smtp_host"`
	SMTPPort     string `mapstructure:"smtp_port"`
	SMTPUsername string `mapstructure:"smtp_username"`
	SMTPPassword string `mapstructure:"smtp_password"`
	From         string `mapstructure:"from"`
	SupportInbox string `mapstructure:"support_inbox"`
}

// LoadConfig reads the configuration once, watching the file for changes.
// An absent config file is fine; defaults and HELPDESK_* environment
// variables apply either way.
func LoadConfig(path string) (*Config, error) {
	var loadErr error
	once.Do(func() {
		v := viper.New()
		setDefaults(v)

		v.SetEnvPrefix("HELPDESK")
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()

		if path != "" {
			v.SetConfigFile(path)
		} else {
			v.SetConfigName("helpdesk")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
			v.AddConfigPath("/etc/helpdesk")
		}

		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && path != "" {
				loadErr = fmt.Errorf("read config: %w", err)
				return
			}
		}

		var c Config
		if err := v.Unmarshal(&c); err != nil {
			loadErr = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		v.OnConfigChange(func(fsnotify.Event) {
			var next Config
			if err := v.Unmarshal(&next); err != nil {
				return
			}
			mu.Lock()
			*cfg = next
			mu.Unlock()
		})
		v.WatchConfig()

		cfg = &c
	})
	if loadErr != nil {
		return nil, loadErr
	}
	mu.RLock()
	defer mu.RUnlock()
	return cfg, nil
}

// Get returns the loaded configuration, loading defaults on first use.
func Get() *Config {
	c, err := LoadConfig("")
	if err != nil {
		panic(err)
	}
	return c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "helpdesk")
	v.SetDefault("app.env", "production")
	v.SetDefault("app.debug", false)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.bundled_path", "helpdesk.db")
	v.SetDefault("database.persistent_dir", "")
	v.SetDefault("database.filename", "helpdesk.db")
	v.SetDefault("database.lock_timeout", 15*time.Second)

	v.SetDefault("ticket.id_prefix", "TICKET-")
	v.SetDefault("ticket.counter_base", 1000)

	v.SetDefault("attachments.max_image_dimension", 1600)
	v.SetDefault("attachments.jpeg_quality", 85)

	v.SetDefault("email.enabled", false)
	v.SetDefault("email.smtp_host", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", "587")
}

// ResetForTest clears the singleton so tests can load fresh configuration.
func ResetForTest() {
	mu.Lock()
	defer mu.Unlock()
	cfg = nil
	once = sync.Once{}
}
