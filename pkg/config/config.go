// Package config loads server configuration from defaults, an optional
// YAML file, a .env file and MAPMCP_ environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/NERVsystems/mapmcp/pkg/charging"
	"github.com/NERVsystems/mapmcp/pkg/tools"
	"github.com/NERVsystems/mapmcp/pkg/traffic"
	"github.com/NERVsystems/mapmcp/pkg/transit"
)

// EnvPrefix prefixes every environment override:
// MAPMCP_PRICING_ELECTRICITY_PER_KWH sets pricing.electricity_per_kwh.
const EnvPrefix = "MAPMCP"

// Transports accepted by server.transport.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Data      DataConfig      `mapstructure:"data"`
	Pricing   PricingConfig   `mapstructure:"pricing"`
	Vehicle   VehicleConfig   `mapstructure:"vehicle"`
	Speeds    SpeedsConfig    `mapstructure:"speeds"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Transit   TransitConfig   `mapstructure:"transit"`
	Traffic   TrafficConfig   `mapstructure:"traffic"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	SSEAddr   string `mapstructure:"sse_addr"`
	BaseURL   string `mapstructure:"base_url"`
}

// DataConfig points at the dataset files. An empty Dir serves the
// datasets embedded in the binary.
type DataConfig struct {
	Dir string `mapstructure:"dir"`
}

type PricingConfig struct {
	ElectricityPerKWh float64 `mapstructure:"electricity_per_kwh"`
	GasPerLiter       float64 `mapstructure:"gas_per_liter"`
}

type VehicleConfig struct {
	TypicalEVKWhPer100Km     float64 `mapstructure:"typical_ev_kwh_per_100km"`
	TypicalGasLitersPer100Km float64 `mapstructure:"typical_gas_liters_per_100km"`
	ChargeKWhPerKm           float64 `mapstructure:"charge_kwh_per_km"`
}

type SpeedsConfig struct {
	DrivingKmh float64 `mapstructure:"driving_kmh"`
	WalkingKmh float64 `mapstructure:"walking_kmh"`
	BusKmh     float64 `mapstructure:"bus_kmh"`
	RailKmh    float64 `mapstructure:"rail_kmh"`
	TrafficKmh float64 `mapstructure:"traffic_kmh"`
}

type PlannerConfig struct {
	ReserveFraction float64 `mapstructure:"reserve_fraction"`
}

type TransitConfig struct {
	WaitMinutes        float64 `mapstructure:"wait_minutes"`
	MaxSegmentKm       float64 `mapstructure:"max_segment_km"`
	StopSearchRadiusKm float64 `mapstructure:"stop_search_radius_km"`
}

type TrafficConfig struct {
	CorridorFactor float64 `mapstructure:"corridor_factor"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Size    int           `mapstructure:"size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig bounds calls per tool. RPS <= 0 disables limiting.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// MetricsConfig enables the ops HTTP endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	chg := charging.DefaultConfig()
	trn := transit.DefaultConfig()
	trf := traffic.DefaultConfig()

	v.SetDefault("server.transport", TransportStdio)
	v.SetDefault("server.sse_addr", ":8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("data.dir", "")
	v.SetDefault("pricing.electricity_per_kwh", chg.ElectricityPerKWh)
	v.SetDefault("pricing.gas_per_liter", chg.GasPerLiter)
	v.SetDefault("vehicle.typical_ev_kwh_per_100km", chg.TypicalEVKWhPer100Km)
	v.SetDefault("vehicle.typical_gas_liters_per_100km", chg.TypicalGasLitersPer100Km)
	v.SetDefault("vehicle.charge_kwh_per_km", chg.ChargeKWhPerKm)
	v.SetDefault("speeds.driving_kmh", chg.DrivingSpeedKmh)
	v.SetDefault("speeds.walking_kmh", trn.WalkingSpeedKmh)
	v.SetDefault("speeds.bus_kmh", trn.BusSpeedKmh)
	v.SetDefault("speeds.rail_kmh", trn.RailSpeedKmh)
	v.SetDefault("speeds.traffic_kmh", trf.TypicalSpeedKmh)
	v.SetDefault("planner.reserve_fraction", chg.ReserveFraction)
	v.SetDefault("transit.wait_minutes", trn.WaitMinutes)
	v.SetDefault("transit.max_segment_km", trn.MaxSegmentKm)
	v.SetDefault("transit.stop_search_radius_km", trn.StopSearchRadiusKm)
	v.SetDefault("traffic.corridor_factor", trf.CorridorFactor)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 512)
	v.SetDefault("cache.ttl", 5*time.Minute)
	v.SetDefault("ratelimit.rps", 20.0)
	v.SetDefault("ratelimit.burst", 40)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: unmarshal defaults: %v", err))
	}
	return &cfg
}

// Load reads configuration. path names a config file; when empty,
// mapmcp.yaml is looked up in . and ./configs and may be missing. A .env
// file in the working directory is loaded into the environment first.
func Load(path string) (*Config, error) {
	// .env is optional; variables already set win
	_ = godotenv.Load()

	v := viper.New()
	SetDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("mapmcp")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: MAPMCP_CACHE_TTL → cache.ttl
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that every setting is present and sane, reporting all
// problems at once.
func (c *Config) Validate() error {
	var errs []string

	if !slices.Contains([]string{TransportStdio, TransportSSE}, c.Server.Transport) {
		errs = append(errs, fmt.Sprintf("server.transport must be %q or %q, got %q", TransportStdio, TransportSSE, c.Server.Transport))
	}
	if c.Server.Transport == TransportSSE && c.Server.SSEAddr == "" {
		errs = append(errs, "server.sse_addr is required for the sse transport")
	}

	positive := []struct {
		key string
		val float64
	}{
		{"pricing.electricity_per_kwh", c.Pricing.ElectricityPerKWh},
		{"pricing.gas_per_liter", c.Pricing.GasPerLiter},
		{"vehicle.typical_ev_kwh_per_100km", c.Vehicle.TypicalEVKWhPer100Km},
		{"vehicle.typical_gas_liters_per_100km", c.Vehicle.TypicalGasLitersPer100Km},
		{"vehicle.charge_kwh_per_km", c.Vehicle.ChargeKWhPerKm},
		{"speeds.driving_kmh", c.Speeds.DrivingKmh},
		{"speeds.walking_kmh", c.Speeds.WalkingKmh},
		{"speeds.bus_kmh", c.Speeds.BusKmh},
		{"speeds.rail_kmh", c.Speeds.RailKmh},
		{"speeds.traffic_kmh", c.Speeds.TrafficKmh},
		{"transit.max_segment_km", c.Transit.MaxSegmentKm},
		{"transit.stop_search_radius_km", c.Transit.StopSearchRadiusKm},
		{"traffic.corridor_factor", c.Traffic.CorridorFactor},
	}
	for _, p := range positive {
		if !(p.val > 0) {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %v", p.key, p.val))
		}
	}

	if c.Planner.ReserveFraction < 0 || c.Planner.ReserveFraction >= 1 {
		errs = append(errs, fmt.Sprintf("planner.reserve_fraction must be in [0, 1), got %v", c.Planner.ReserveFraction))
	}
	if c.Transit.WaitMinutes < 0 {
		errs = append(errs, "transit.wait_minutes must not be negative")
	}
	if c.Cache.Enabled {
		if c.Cache.Size <= 0 {
			errs = append(errs, fmt.Sprintf("cache.size must be positive, got %d", c.Cache.Size))
		}
		if c.Cache.TTL <= 0 {
			errs = append(errs, "cache.ttl must be positive")
		}
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Sprintf("ratelimit.burst must be at least 1 when ratelimit.rps is set, got %d", c.RateLimit.Burst))
	}
	if !slices.Contains([]string{"json", "text"}, strings.ToLower(c.Log.Format)) {
		errs = append(errs, fmt.Sprintf("log.format must be json or text, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Services maps the settings onto the assumptions of each service.
func (c *Config) Services() tools.ServiceConfig {
	return tools.ServiceConfig{
		Charging: charging.Config{
			ElectricityPerKWh:        c.Pricing.ElectricityPerKWh,
			GasPerLiter:              c.Pricing.GasPerLiter,
			TypicalEVKWhPer100Km:     c.Vehicle.TypicalEVKWhPer100Km,
			TypicalGasLitersPer100Km: c.Vehicle.TypicalGasLitersPer100Km,
			DrivingSpeedKmh:          c.Speeds.DrivingKmh,
			ReserveFraction:          c.Planner.ReserveFraction,
			ChargeKWhPerKm:           c.Vehicle.ChargeKWhPerKm,
		},
		Transit: transit.Config{
			WalkingSpeedKmh:    c.Speeds.WalkingKmh,
			BusSpeedKmh:        c.Speeds.BusKmh,
			RailSpeedKmh:       c.Speeds.RailKmh,
			WaitMinutes:        c.Transit.WaitMinutes,
			MaxSegmentKm:       c.Transit.MaxSegmentKm,
			StopSearchRadiusKm: c.Transit.StopSearchRadiusKm,
		},
		Traffic: traffic.Config{
			TypicalSpeedKmh: c.Speeds.TrafficKmh,
			CorridorFactor:  c.Traffic.CorridorFactor,
		},
	}
}
