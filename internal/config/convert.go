package config

import (
	"fmt"

	"csvload/internal/inference"
	"csvload/internal/probe"
	"csvload/internal/schema"
	"csvload/internal/storage"
)

// StorageConfig returns the backend selection for storage.Open.
func (c Config) StorageConfig() storage.Config {
	params := c.Database.Options.Params()
	if c.Database.Charset != "" {
		if params == nil {
			params = map[string]string{}
		}
		if _, ok := params["charset"]; !ok {
			params["charset"] = c.Database.Charset
		}
	}
	return storage.Config{
		Kind:         c.Database.Kind,
		DSN:          c.Database.DSN,
		Host:         c.Database.Host,
		Port:         c.Database.Port,
		User:         c.Database.User,
		Password:     c.Database.Password,
		Database:     c.Database.Name,
		Params:       params,
		MaxOpenConns: c.Database.MaxOpenConns,
	}
}

// ProbeOptions returns the structural analysis settings.
func (c Config) ProbeOptions() probe.Options {
	return probe.Options{
		EncodingSampleBytes: c.CSV.EncodingSampleBytes,
		SampleLines:         c.CSV.SampleLines,
		MinConfidence:       c.CSV.MinConfidence,
		Encoding:            c.CSV.Encoding,
		Delimiter:           probe.DecodeDelimiter(c.CSV.Delimiter),
		NoHeader:            c.CSV.NoHeader,
		KeepSpace:           c.CSV.KeepSpace,
	}
}

// InferenceOptions parses the declared column types.
func (c Config) InferenceOptions() (inference.Options, error) {
	opt := inference.Options{SubSample: c.CSV.SubSample}
	if len(c.CSV.Types) == 0 {
		return opt, nil
	}
	opt.Tags = make(map[string]inference.Tag, len(c.CSV.Types))
	for col, name := range c.CSV.Types {
		tag, err := inference.ParseTag(name)
		if err != nil {
			return inference.Options{}, fmt.Errorf("config: csv.types[%s]: %w", col, err)
		}
		opt.Tags[col] = tag
	}
	return opt, nil
}

// SchemaOptions returns the table-level requests for table. An explicit
// Table.Name wins over the given name.
func (c Config) SchemaOptions(table string) schema.Options {
	if c.Table.Name != "" {
		table = c.Table.Name
	}
	return schema.Options{
		Table:      table,
		PrimaryKey: c.Table.PrimaryKey,
		Indexes:    append([]string(nil), c.Table.Indexes...),
	}
}
