// Package mysql registers the "mysql" backend: the reference target whose
// DDL (InnoDB, utf8mb4) the schema compiler renders by default.
package mysql

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"csvload/internal/ddl"
	"csvload/internal/storage"
	"csvload/internal/storage/sqldb"

	"github.com/go-sql-driver/mysql"
)

// DefaultPort is used when the config names a host without a port.
const DefaultPort = 3306

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Executor, error) {
		dsn, err := DSN(cfg)
		if err != nil {
			return nil, err
		}
		ex, err := sqldb.Open(ctx, "mysql", dsn, ddl.MySQL)
		if err != nil {
			return nil, err
		}
		if cfg.MaxOpenConns > 0 {
			ex.DB().SetMaxOpenConns(cfg.MaxOpenConns)
		}
		return ex, nil
	})
}

// DSN returns a go-sql-driver DSN for cfg. An explicit DSN is validated and
// returned as is; otherwise one is built from the discrete fields with
// utf8mb4 as the default charset.
func DSN(cfg storage.Config) (string, error) {
	if s := strings.TrimSpace(cfg.DSN); s != "" {
		if _, err := mysql.ParseDSN(s); err != nil {
			return "", fmt.Errorf("mysql: dsn: %w", err)
		}
		return s, nil
	}

	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = DefaultPort
	}
	mc.Addr = net.JoinHostPort(host, strconv.Itoa(port))
	mc.DBName = cfg.Database
	mc.Timeout = 10 * time.Second

	params := map[string]string{"charset": "utf8mb4"}
	for k, v := range cfg.Params {
		params[k] = v
	}
	if c, ok := params["collation"]; ok {
		mc.Collation = c
		delete(params, "collation")
	}
	mc.Params = params
	return mc.FormatDSN(), nil
}
