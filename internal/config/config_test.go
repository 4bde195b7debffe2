package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.HTTPAddress != ":8080" {
		t.Fatalf("unexpected default address %s", cfg.HTTPAddress)
	}
	if cfg.MongoDatabase != "wildwarden" {
		t.Fatalf("unexpected default database %s", cfg.MongoDatabase)
	}
	if len(cfg.KafkaBrokers) != 0 {
		t.Fatalf("event publishing should default to disabled, got %v", cfg.KafkaBrokers)
	}
	if cfg.ShutdownTimeout != 15*time.Second {
		t.Fatalf("unexpected shutdown timeout %s", cfg.ShutdownTimeout)
	}
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDRESS", ":9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092 ,")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")

	cfg := Load()

	if cfg.HTTPAddress != ":9090" {
		t.Fatalf("expected :9090 got %s", cfg.HTTPAddress)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "kafka-2:9092" {
		t.Fatalf("broker list not trimmed: %v", cfg.KafkaBrokers)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("expected 5s got %s", cfg.ShutdownTimeout)
	}
}
