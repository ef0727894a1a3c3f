package config

import "testing"

func validConfig() Config {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validConfig()

	if cfg.Embedding.Model != "text-embedding-3-small" {
		t.Errorf("model default = %q", cfg.Embedding.Model)
	}
	if cfg.Embedding.Dimensions != 1536 {
		t.Errorf("dimensions default = %d", cfg.Embedding.Dimensions)
	}
	if cfg.Indexing.BatchSize != 100 || cfg.Indexing.Workers != 4 {
		t.Errorf("indexing defaults = %+v", cfg.Indexing)
	}
	if cfg.Chunking.TargetTokens != 1500 || cfg.Chunking.OverlapTokens != 200 {
		t.Errorf("chunking defaults = %+v", cfg.Chunking)
	}
	if cfg.Search.VectorWeight != 0.7 || cfg.Search.KeywordWeight != 0.3 {
		t.Errorf("weight defaults = %+v", cfg.Search)
	}
	if cfg.Cache.TTLSec != 300 || cfg.Cache.MaxEntries != 1000 {
		t.Errorf("cache defaults = %+v", cfg.Cache)
	}
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
		Indexing: IndexingConfig{BatchSize: 25},
		Search:   SearchConfig{VectorWeight: 0.5, KeywordWeight: 0.5},
	}
	cfg.ApplyDefaults()

	if cfg.Indexing.BatchSize != 25 {
		t.Errorf("explicit batch size overridden: %d", cfg.Indexing.BatchSize)
	}
	if cfg.Search.VectorWeight != 0.5 {
		t.Errorf("explicit weights overridden: %+v", cfg.Search)
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	bad := validConfig()
	bad.HTTP.Port = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing port")
	}

	bad = validConfig()
	bad.Database.Addrs = nil
	if err := bad.Validate(); err == nil {
		t.Error("expected error for missing addrs")
	}

	bad = validConfig()
	bad.Chunking.OverlapTokens = bad.Chunking.TargetTokens
	if err := bad.Validate(); err == nil {
		t.Error("expected error for overlap >= target")
	}

	bad = validConfig()
	bad.Chunking.MinTokens = bad.Chunking.TargetTokens + 1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for min > target")
	}

	bad = validConfig()
	bad.Search.VectorWeight = 0.8
	if err := bad.Validate(); err == nil {
		t.Error("expected error for weights not summing to 1")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("DOCPIPE_TEST_VAR", "resolved")

	got := string(expandEnvVars([]byte("value: ${DOCPIPE_TEST_VAR}")))
	if got != "value: resolved" {
		t.Errorf("expansion = %q", got)
	}

	got = string(expandEnvVars([]byte("value: ${DOCPIPE_TEST_UNSET:-fallback}")))
	if got != "value: fallback" {
		t.Errorf("default expansion = %q", got)
	}

	got = string(expandEnvVars([]byte("value: ${DOCPIPE_TEST_UNSET}")))
	if got != "value: " {
		t.Errorf("unset expansion = %q", got)
	}

	// Set variable wins over its default.
	got = string(expandEnvVars([]byte("value: ${DOCPIPE_TEST_VAR:-fallback}")))
	if got != "value: resolved" {
		t.Errorf("set-with-default expansion = %q", got)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("default env = %q", got)
	}

	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("env = %q", got)
	}
}
