package config

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func decimalMust(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("SHUTDOWN_TIMEOUT", "")
	t.Setenv("TAX_RATE", "")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "")
	t.Setenv("STANDARD_SHIPPING_FEE", "")
	t.Setenv("UNDER_MIN_QTY_POLICY", "")
	t.Setenv("SNAPSHOT_DIR", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SNAPSHOT_FLUSH_MS", "")
	t.Setenv("SEED_DEMO_CATALOG", "")
	c := Load()
	if c.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr default")
	}
	if c.ShutdownTimeout != 15*time.Second {
		t.Fatalf("ShutdownTimeout default")
	}
	if c.TaxRate.String() != "0.08" {
		t.Fatalf("TaxRate default, got %s", c.TaxRate)
	}
	if !c.FreeShippingThreshold.Equal(decimalMust("100.00")) {
		t.Fatalf("FreeShippingThreshold default")
	}
	if !c.StandardShippingFee.Equal(decimalMust("9.99")) {
		t.Fatalf("StandardShippingFee default")
	}
	if c.UnderMinQty != PolicyReject {
		t.Fatalf("UnderMinQty default")
	}
	if c.SnapshotDir != "data/carts" {
		t.Fatalf("SnapshotDir default")
	}
	if c.FlushInterval != 50*time.Millisecond {
		t.Fatalf("FlushInterval default")
	}
	if c.SeedDemoCatalog {
		t.Fatalf("SeedDemoCatalog default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SHUTDOWN_TIMEOUT", "2")
	t.Setenv("TAX_RATE", "0.1")
	t.Setenv("FREE_SHIPPING_THRESHOLD", "50")
	t.Setenv("STANDARD_SHIPPING_FEE", "4.99")
	t.Setenv("UNDER_MIN_QTY_POLICY", "remove")
	t.Setenv("SNAPSHOT_DIR", "/tmp/carts")
	t.Setenv("SNAPSHOT_FLUSH_MS", "250")
	t.Setenv("SEED_DEMO_CATALOG", "true")
	c := Load()
	if c.HTTPAddr != ":9090" {
		t.Fatalf("HTTPAddr env")
	}
	if c.ShutdownTimeout != 2*time.Second {
		t.Fatalf("ShutdownTimeout env")
	}
	if !c.TaxRate.Equal(decimalMust("0.1")) {
		t.Fatalf("TaxRate env")
	}
	if !c.FreeShippingThreshold.Equal(decimalMust("50")) {
		t.Fatalf("FreeShippingThreshold env")
	}
	if !c.StandardShippingFee.Equal(decimalMust("4.99")) {
		t.Fatalf("StandardShippingFee env")
	}
	if c.UnderMinQty != PolicyRemove {
		t.Fatalf("UnderMinQty env")
	}
	if c.SnapshotDir != "/tmp/carts" {
		t.Fatalf("SnapshotDir env")
	}
	if c.FlushInterval != 250*time.Millisecond {
		t.Fatalf("FlushInterval env")
	}
	if !c.SeedDemoCatalog {
		t.Fatalf("SeedDemoCatalog env")
	}
	_ = os.Unsetenv("HTTP_ADDR")
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("TAX_RATE", "not-a-number")
	t.Setenv("UNDER_MIN_QTY_POLICY", "explode")
	t.Setenv("SEED_DEMO_CATALOG", "maybe")
	c := Load()
	if c.TaxRate.String() != "0.08" {
		t.Fatalf("TaxRate fallback, got %s", c.TaxRate)
	}
	if c.UnderMinQty != PolicyReject {
		t.Fatalf("UnderMinQty fallback")
	}
	if c.SeedDemoCatalog {
		t.Fatalf("SeedDemoCatalog fallback")
	}
}
