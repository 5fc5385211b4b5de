package config

import (
	"strings"

	"github.com/korthochain/classvdf/pkg/clock"
	"github.com/korthochain/classvdf/pkg/hashtogroup"
	"github.com/korthochain/classvdf/pkg/logger"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CLASSVDF_SERVERCFG_ADDRESS.
const EnvPrefix = "CLASSVDF"

type CfgInfo struct {
	LogConfig *logger.Config `yaml:"logconfig"`
	ServerCfg *ServerConfig  `yaml:"servercfg"`
	StoreCfg  *StoreConfig   `yaml:"storecfg"`
	VDFCfg    *VDFConfig     `yaml:"vdfcfg"`
	ClockCfg  *clock.Config  `yaml:"clockcfg"`
}

type ServerConfig struct {
	Address string `yaml:"address"`
	// RateLimit is the sustained number of requests per second per client
	// IP; RateBurst the bucket size.
	RateLimit float64 `yaml:"ratelimit"`
	RateBurst int     `yaml:"rateburst"`
	// MaxIterations and MaxDiscriminantBits bound a single request.
	MaxIterations       uint64 `yaml:"maxiterations"`
	MaxDiscriminantBits int    `yaml:"maxdiscriminantbits"`
}

type StoreConfig struct {
	// Backend is "badger" or "leveldb".
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type VDFConfig struct {
	DiscriminantBits int                `yaml:"discriminantbits"`
	Iterations       uint64             `yaml:"iterations"`
	Workers          int                `yaml:"workers"`
	CacheSize        int                `yaml:"cachesize"`
	Hash             hashtogroup.Params `yaml:"hash"`
}

func setDefaults(v *viper.Viper) {
	lc := logger.DefaultConfig()
	v.SetDefault("logconfig.level", lc.Level)
	v.SetDefault("logconfig.filename", lc.FileName)
	v.SetDefault("logconfig.maxsize", lc.MaxSize)
	v.SetDefault("logconfig.maxage", lc.MaxAge)
	v.SetDefault("logconfig.maxbackups", lc.MaxBackups)
	v.SetDefault("logconfig.compress", lc.Compress)
	v.SetDefault("logconfig.stdout", lc.Stdout)

	v.SetDefault("servercfg.address", ":8960")
	v.SetDefault("servercfg.ratelimit", 20)
	v.SetDefault("servercfg.rateburst", 40)
	v.SetDefault("servercfg.maxiterations", 1<<22)
	v.SetDefault("servercfg.maxdiscriminantbits", 4096)

	v.SetDefault("storecfg.backend", "badger")
	v.SetDefault("storecfg.path", "./data/sessions")

	cc := clock.DefaultConfig()
	v.SetDefault("clockcfg.servers", cc.Servers)
	v.SetDefault("clockcfg.timeout", cc.Timeout)
	v.SetDefault("clockcfg.interval", cc.Interval)

	hp := hashtogroup.DefaultParams()
	v.SetDefault("vdfcfg.discriminantbits", 1024)
	v.SetDefault("vdfcfg.iterations", 1000)
	v.SetDefault("vdfcfg.workers", 4)
	v.SetDefault("vdfcfg.cachesize", 1024)
	v.SetDefault("vdfcfg.hash.securitybits", hp.SecurityBits)
	v.SetDefault("vdfcfg.hash.factorbits", hp.FactorBits)
	v.SetDefault("vdfcfg.hash.factors", hp.Factors)
	v.SetDefault("vdfcfg.hash.mindiscriminantbits", hp.MinDiscriminantBits)
	v.SetDefault("vdfcfg.hash.maxattempts", hp.MaxAttempts)
}

// LoadConfig load configuration information from the yaml file at path.
// An empty path yields the defaults, still subject to environment
// overrides.
func LoadConfig(path string) (*CfgInfo, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg CfgInfo
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	}); err != nil {
		return nil, err
	}
	return &cfg, nil
}
