package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
)

type Config struct {
	CockroachURL      string        `ff:"long: cockroach-url, default: postgresql://root@127.0.0.1:26257/defaultdb?sslmode=disable, usage: URL for the CockroachDB database"`
	Port              uint32        `ff:"long: port, short: p, default: 4444, usage: Port for the HTTP server"`
	NatsURL           string        `ff:"long: nats-url, usage: NATS server URL for event publishing; events are disabled when empty"`
	SweepInterval     time.Duration `ff:"long: sweep-interval, default: 1m, usage: How often to mark expired activities as completed"`
	BackgroundTimeout time.Duration `ff:"long: background-timeout, default: 5s, usage: Timeout for background operations"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	fs := ff.NewFlagSetFrom("linkup", &cfg)
	err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("LINKUP"))
	if errors.Is(err, ff.ErrHelp) {
		fmt.Println(ffhelp.Flags(fs))
		os.Exit(0)
	}

	return cfg, err
}
