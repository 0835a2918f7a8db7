package config

import (
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ImportConfig carries the tunables of the CSV import pipeline. Column
// candidates are ranked: earlier entries win over later ones, and matching is
// case-insensitive substring in both directions.
type ImportConfig struct {
	SampleLines      int           `mapstructure:"sampleLines"`
	ChunkSize        int           `mapstructure:"chunkSize"`
	MaxWriteAttempts int           `mapstructure:"maxWriteAttempts"`
	RetryBaseDelay   time.Duration `mapstructure:"retryBaseDelay"`

	IDColumns      []string `mapstructure:"idColumns"`
	RevenueColumns []string `mapstructure:"revenueColumns"`
	DateColumns    []string `mapstructure:"dateColumns"`

	TriggerMode string `mapstructure:"triggerMode"`

	QueueMaxAttempts    int           `mapstructure:"queueMaxAttempts"`
	QueueRetryBaseDelay time.Duration `mapstructure:"queueRetryBaseDelay"`

	ReclaimAfter time.Duration `mapstructure:"reclaimAfter"`
}

func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		SampleLines:      200,
		ChunkSize:        200,
		MaxWriteAttempts: 6,
		RetryBaseDelay:   200 * time.Millisecond,

		IDColumns:      []string{"id", "customer_id", "customer", "name"},
		RevenueColumns: []string{"mrr", "revenue", "amount", "price", "monthly_revenue", "value"},
		DateColumns:    []string{"date", "signup_date", "start_date", "created_at"},

		TriggerMode: "queue",

		QueueMaxAttempts:    3,
		QueueRetryBaseDelay: time.Second,

		ReclaimAfter: 15 * time.Minute,
	}
}

// ImportConfigHolder exposes the current ImportConfig and hot-reloads it when
// the backing file changes.
type ImportConfigHolder struct {
	current atomic.Value // holds ImportConfig
}

func NewImportConfigHolder() (*ImportConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("import")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/revenuecore")
	v.AddConfigPath(".")

	v.SetEnvPrefix("REVENUECORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setImportDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	holder := &ImportConfigHolder{}
	if err := holder.reload(v); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if err := holder.reload(v); err != nil {
			log.Printf("import config reload failed (%s): %v", e.Name, err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *ImportConfigHolder) reload(v *viper.Viper) error {
	var cfg ImportConfig
	if err := v.UnmarshalKey("import", &cfg); err != nil {
		return err
	}
	h.current.Store(cfg.withDefaults())
	return nil
}

// Current returns the active ImportConfig snapshot.
func (h *ImportConfigHolder) Current() ImportConfig {
	if h == nil {
		return DefaultImportConfig()
	}
	if cfg, ok := h.current.Load().(ImportConfig); ok {
		return cfg
	}
	return DefaultImportConfig()
}

func (c ImportConfig) withDefaults() ImportConfig {
	defaults := DefaultImportConfig()
	if c.SampleLines == 0 {
		c.SampleLines = defaults.SampleLines
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaults.ChunkSize
	}
	if c.MaxWriteAttempts <= 0 {
		c.MaxWriteAttempts = defaults.MaxWriteAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = defaults.RetryBaseDelay
	}
	if len(c.IDColumns) == 0 {
		c.IDColumns = defaults.IDColumns
	}
	if len(c.RevenueColumns) == 0 {
		c.RevenueColumns = defaults.RevenueColumns
	}
	if len(c.DateColumns) == 0 {
		c.DateColumns = defaults.DateColumns
	}
	if strings.TrimSpace(c.TriggerMode) == "" {
		c.TriggerMode = defaults.TriggerMode
	}
	if c.QueueMaxAttempts <= 0 {
		c.QueueMaxAttempts = defaults.QueueMaxAttempts
	}
	if c.QueueRetryBaseDelay <= 0 {
		c.QueueRetryBaseDelay = defaults.QueueRetryBaseDelay
	}
	if c.ReclaimAfter <= 0 {
		c.ReclaimAfter = defaults.ReclaimAfter
	}
	return c
}

func setImportDefaults(v *viper.Viper) {
	defaults := DefaultImportConfig()
	v.SetDefault("import.sampleLines", defaults.SampleLines)
	v.SetDefault("import.chunkSize", defaults.ChunkSize)
	v.SetDefault("import.maxWriteAttempts", defaults.MaxWriteAttempts)
	v.SetDefault("import.retryBaseDelay", defaults.RetryBaseDelay)
	v.SetDefault("import.idColumns", defaults.IDColumns)
	v.SetDefault("import.revenueColumns", defaults.RevenueColumns)
	v.SetDefault("import.dateColumns", defaults.DateColumns)
	v.SetDefault("import.triggerMode", defaults.TriggerMode)
	v.SetDefault("import.queueMaxAttempts", defaults.QueueMaxAttempts)
	v.SetDefault("import.queueRetryBaseDelay", defaults.QueueRetryBaseDelay)
	v.SetDefault("import.reclaimAfter", defaults.ReclaimAfter)
}
