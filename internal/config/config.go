// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// UnderMinQtyPolicy selects what a quantity update below 1 does.
type UnderMinQtyPolicy string

const (
	// PolicyReject refuses the update and leaves the item unchanged.
	PolicyReject UnderMinQtyPolicy = "reject"
	// PolicyRemove removes the item from the cart instead.
	PolicyRemove UnderMinQtyPolicy = "remove"
)

// Config holds configuration knobs for the HTTP server, pricing, and
// snapshot persistence.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	StandardShippingFee   decimal.Decimal
	UnderMinQty           UnderMinQtyPolicy

	SnapshotDir   string
	DatabaseURL   string
	FlushInterval time.Duration

	SeedDemoCatalog bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

func decenv(key, def string) decimal.Decimal {
	v := getenv(key, def)
	d, err := decimal.NewFromString(v)
	if err != nil {
		d, _ = decimal.NewFromString(def)
	}
	return d
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func policyenv(key string, def UnderMinQtyPolicy) UnderMinQtyPolicy {
	switch UnderMinQtyPolicy(getenv(key, string(def))) {
	case PolicyRemove:
		return PolicyRemove
	default:
		return PolicyReject
	}
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:              getenv("HTTP_ADDR", ":8080"),
		ShutdownTimeout:       durenvs("SHUTDOWN_TIMEOUT", 15),
		TaxRate:               decenv("TAX_RATE", "0.08"),
		FreeShippingThreshold: decenv("FREE_SHIPPING_THRESHOLD", "100.00"),
		StandardShippingFee:   decenv("STANDARD_SHIPPING_FEE", "9.99"),
		UnderMinQty:           policyenv("UNDER_MIN_QTY_POLICY", PolicyReject),
		SnapshotDir:           getenv("SNAPSHOT_DIR", "data/carts"),
		DatabaseURL:           getenv("DATABASE_URL", ""),
		FlushInterval:         durenvms("SNAPSHOT_FLUSH_MS", 50),
		SeedDemoCatalog:       boolenv("SEED_DEMO_CATALOG", false),
	}
}
