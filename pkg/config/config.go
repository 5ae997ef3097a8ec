package config

import (
	"slices"
	"time"

	"github.com/spf13/viper"
)

const ProcRootEnvVar = "PROC_ROOT"
const CgroupRootEnvVar = "CGROUP_ROOT"

type ExporterConfig struct {
	StdoutEnabled  bool   `mapstructure:"stdoutEnabled"`
	CsvPath        string `mapstructure:"csvPath"`
	JSONOutputPath string `mapstructure:"jsonOutputPath"`
}

type Config struct {
	Exporters           ExporterConfig `mapstructure:"exporters"`
	ProcRoot            string         `mapstructure:"procRoot"`
	CgroupRoot          string         `mapstructure:"cgroupRoot"`
	ScanTimeout         time.Duration  `mapstructure:"scanTimeout"`
	ContainerIDPattern  string         `mapstructure:"containerIdPattern"`
	ContainerIDPrefixes []string       `mapstructure:"containerIdPrefixes"`
	CgroupWorkers       int            `mapstructure:"cgroupWorkers"`
	IncludeProcessNames []string       `mapstructure:"includeProcessNames"`
	ExcludeProcessNames []string       `mapstructure:"excludeProcessNames"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.SetDefault("procRoot", "/proc")
	viper.SetDefault("cgroupRoot", "/sys/fs/cgroup")
	viper.SetDefault("scanTimeout", 30*time.Second)
	viper.SetDefault("cgroupWorkers", 8)
	viper.SetDefault("exporters.stdoutEnabled", true)

	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	if err != nil {
		return Config{}, err
	}

	var config Config
	err = viper.Unmarshal(&config)
	return config, err
}

// SkipProcess reports whether a process with the given name should be left
// out of the snapshot. Kernel worker threads with no stable name are the
// usual candidates for exclusion.
func (c *Config) SkipProcess(name string) bool {
	if includeNames := c.IncludeProcessNames; len(includeNames) > 0 {
		if !slices.Contains(includeNames, name) {
			// skip names not in IncludeProcessNames
			return true
		}
	} else if excludeNames := c.ExcludeProcessNames; len(excludeNames) > 0 {
		if slices.Contains(excludeNames, name) {
			// skip names in ExcludeProcessNames
			return true
		}
	}
	return false
}
