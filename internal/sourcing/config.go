package sourcing

import "fmt"

// Mode selects the optimizer backend.
type Mode string

const (
	ModeBuiltin Mode = "builtin"
	ModeGLPK    Mode = "glpk"
)

// Config holds the options from spec.md §6 that govern candidate selection
// and the built-in optimizer. LP-specific options live in lp.Config.
type Config struct {
	Mode Mode `mapstructure:"mode" env:"SOURCING_MODE" default:"builtin"`

	ShopFixCost    float64 `mapstructure:"shop_fix_cost" env:"SHOP_FIX_COST" default:"5.0"`
	MaxShops       int     `mapstructure:"max_shops" env:"MAX_SHOPS" default:"10"`
	ConsiderShops  int     `mapstructure:"consider_shops" env:"CONSIDER_SHOPS" default:"20"`
	Jobs           int     `mapstructure:"jobs" env:"JOBS" default:"4"`
}

// Validate reports a typed config error for the first invalid field found,
// mirroring the teacher's optimizer.Config.Validate convention.
func (c *Config) Validate() error {
	if c.Mode != ModeBuiltin && c.Mode != ModeGLPK {
		return ErrInvalidConfig{Field: "mode", Reason: "must be builtin or glpk"}
	}
	if c.ShopFixCost < 0 {
		return ErrInvalidConfig{Field: "shop_fix_cost", Reason: "must be non-negative"}
	}
	if c.ConsiderShops < 1 {
		return ErrInvalidConfig{Field: "consider_shops", Reason: "must be at least 1"}
	}
	if c.MaxShops < 1 {
		return ErrInvalidConfig{Field: "max_shops", Reason: "must be at least 1"}
	}
	if c.Jobs < 1 {
		return ErrInvalidConfig{Field: "jobs", Reason: "must be at least 1"}
	}
	return nil
}

// Defaults returns the default Config.
func Defaults() *Config {
	return &Config{
		Mode:          ModeBuiltin,
		ShopFixCost:   5.0,
		MaxShops:      10,
		ConsiderShops: 20,
		Jobs:          4,
	}
}

// ErrInvalidConfig is returned by Config.Validate for a malformed option.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
