package config

import (
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jeremywohl/flatten"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/ucs-toolbox/podcfg/internal/model"
)

const (
	defaultBaseURL        = "https://intersight.com"
	defaultWorkbook       = "output/podcfg-template.xlsx"
	defaultKeyFile        = "./SecretKey.txt"
	defaultOrgCacheTTL    = 10 * time.Minute
	defaultOrgCacheSize   = 64
	defaultMetricsAddress = ":9090"
)

// IntersightOptions defines the Intersight API client configuration
// parameters. The key id and private key file follow the conventions of the
// Intersight API key scheme.
type IntersightOptions struct {
	BaseURL    string `mapstructure:"base_url"`
	KeyID      string `mapstructure:"key_id"`
	KeyFile    string `mapstructure:"key_file"`
	MaxRetries int    `mapstructure:"max_retries"`
}

// Configuration holds application configuration read from a YAML file or set
// by env variables.
type Configuration struct {
	// LogLevel is the app verbose logging level.
	// one of - info, debug, trace
	LogLevel string `mapstructure:"log_level"`

	// Concurrency bounds how many policy create calls may run at once.
	Concurrency int `mapstructure:"concurrency"`

	// Workbook is the path of the Excel template to build or replay.
	Workbook string `mapstructure:"workbook"`

	// Intersight defines the API client configuration parameters.
	Intersight IntersightOptions `mapstructure:"intersight"`

	// CacheTTL and CacheSize bound the organization lookup cache.
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	CacheSize int           `mapstructure:"cache_size"`

	MetricsAddress  string `mapstructure:"metrics_address"`
	DryRun          bool   `mapstructure:"dry_run"`
	EnableProfiling bool   `mapstructure:"enable_profiling"`
}

func (c *Configuration) AsLogFields() []any {
	return []any{
		"logLevel", c.LogLevel,
		"concurrency", c.Concurrency,
		"workbook", c.Workbook,
		"baseURL", c.Intersight.BaseURL,
		"keyID", c.Intersight.KeyID,
		"dryRun", c.DryRun,
		"enableProfiling", c.EnableProfiling,
	}
}

// Load reads in the config file when available and overrides from
// environment variables.
func Load(args *model.Args) (*Configuration, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Configuration{}

	if err := cfg.envBindVars(v); err != nil {
		return nil, errors.Wrap(model.ErrConfig, "env var bind error: "+err.Error())
	}

	// Environment variables the Intersight API key scheme conventionally uses.
	_ = v.BindEnv("intersight.key_id", "INTERSIGHT_API_KEY_ID")
	_ = v.BindEnv("intersight.key_file", "INTERSIGHT_PRIVATE_KEY_FILE")
	_ = v.BindEnv("intersight.base_url", "INTERSIGHT_BASE_URL")

	if args.ConfigFile != "" {
		fh, err := os.Open(args.ConfigFile)
		if err != nil {
			return nil, errors.Wrap(model.ErrConfig, err.Error())
		}
		defer fh.Close()

		if err = v.ReadConfig(fh); err != nil {
			return nil, errors.Wrap(model.ErrConfig, "ReadConfig error: "+err.Error())
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(model.ErrConfig, "Unmarshal error: "+err.Error())
	}

	cfg.loadArgs(args)
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Configuration) loadArgs(args *model.Args) {
	if args.LogLevel != "" {
		c.LogLevel = args.LogLevel
	}

	if args.WorkbookFile != "" {
		c.Workbook = args.WorkbookFile
	}

	c.DryRun = c.DryRun || args.DryRun
	c.EnableProfiling = c.EnableProfiling || args.EnableProfiling
}

func (c *Configuration) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	if c.Concurrency == 0 {
		c.Concurrency = 1
	}

	if c.Workbook == "" {
		c.Workbook = defaultWorkbook
	}

	if c.Intersight.BaseURL == "" {
		c.Intersight.BaseURL = defaultBaseURL
	}

	if c.Intersight.KeyFile == "" {
		c.Intersight.KeyFile = defaultKeyFile
	}

	if c.Intersight.MaxRetries == 0 {
		c.Intersight.MaxRetries = 3
	}

	if c.CacheTTL == 0 {
		c.CacheTTL = defaultOrgCacheTTL
	}

	if c.CacheSize == 0 {
		c.CacheSize = defaultOrgCacheSize
	}

	if c.MetricsAddress == "" {
		c.MetricsAddress = defaultMetricsAddress
	}
}

func (c *Configuration) validate() error {
	if _, err := url.Parse(c.Intersight.BaseURL); err != nil {
		return errors.Wrap(model.ErrConfig, "intersight base URL error: "+err.Error())
	}

	return nil
}

// ValidateAPIAccess checks the parameters required to construct an API
// client. Kept separate from validate so offline commands (setup) can run
// without credentials.
func (c *Configuration) ValidateAPIAccess() error {
	if c.DryRun {
		return nil
	}

	if c.Intersight.KeyID == "" {
		return errors.Wrap(model.ErrConfig, "missing parameter: intersight.key_id (INTERSIGHT_API_KEY_ID)")
	}

	if _, err := os.Stat(c.Intersight.KeyFile); err != nil {
		return errors.Wrap(model.ErrConfig, "private key file not readable: "+c.Intersight.KeyFile)
	}

	return nil
}

// envBindVars binds environment variables to the struct
// without a configuration file being unmarshalled,
// this is a workaround for a viper bug,
//
// This can be replaced by the solution in https://github.com/spf13/viper/pull/1429
// once that PR is merged.
func (c *Configuration) envBindVars(v *viper.Viper) error {
	envKeysMap := map[string]interface{}{}
	if err := mapstructure.Decode(c, &envKeysMap); err != nil {
		return err
	}

	// Flatten nested conf map
	flat, err := flatten.Flatten(envKeysMap, "", flatten.DotStyle)
	if err != nil {
		return errors.Wrap(err, "Unable to flatten configuration")
	}

	for k := range flat {
		if err := v.BindEnv(k); err != nil {
			return errors.Wrap(model.ErrConfig, "env var bind error: "+err.Error())
		}
	}

	return nil
}
