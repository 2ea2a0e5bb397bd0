package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"csvload/internal/etlerr"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CSVLOAD_"

// readDotEnv parses the given .env files without touching the process
// environment. Missing files are skipped.
func readDotEnv(files []string) (map[string]string, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	out := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, etlerr.Wrap(etlerr.KindConfig, err, "read .env file", map[string]any{"path": f})
		}
		for k, v := range m {
			out[k] = v
		}
	}
	return out, nil
}

// ApplyEnv overrides cfg with CSVLOAD_* values returned by lookup.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, etlerr.Wrap(etlerr.KindConfig, err, "invalid integer environment value",
				map[string]any{"variable": EnvPrefix + key, "value": v}))
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v, ok := lookup(EnvPrefix + key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, etlerr.Wrap(etlerr.KindConfig, err, "invalid boolean environment value",
				map[string]any{"variable": EnvPrefix + key, "value": v}))
			return
		}
		*dst = b
	}

	str("DB_KIND", &cfg.Database.Kind)
	str("DB_DSN", &cfg.Database.DSN)
	str("DB_HOST", &cfg.Database.Host)
	num("DB_PORT", &cfg.Database.Port)
	str("DB_USER", &cfg.Database.User)
	str("DB_PASSWORD", &cfg.Database.Password)
	str("DB_NAME", &cfg.Database.Name)
	str("DB_CHARSET", &cfg.Database.Charset)

	str("CSV_ENCODING", &cfg.CSV.Encoding)
	str("CSV_DELIMITER", &cfg.CSV.Delimiter)
	flag("CSV_NO_HEADER", &cfg.CSV.NoHeader)
	num("SAMPLE_SIZE", &cfg.CSV.SampleSize)

	str("TABLE", &cfg.Table.Name)
	str("IF_EXISTS", &cfg.Table.IfExists)
	str("PRIMARY_KEY", &cfg.Table.PrimaryKey)

	str("DEAD_LETTER_DIR", &cfg.DeadLetter.Dir)

	str("METRICS_BACKEND", &cfg.Metrics.Backend)
	str("PUSHGATEWAY_URL", &cfg.Metrics.PushgatewayURL)
	str("DATADOG_ADDR", &cfg.Metrics.DatadogAddr)

	num("CHUNK_SIZE", &cfg.Runtime.ChunkSize)
	num("PARALLEL", &cfg.Runtime.Parallel)

	return errors.Join(errs...)
}
