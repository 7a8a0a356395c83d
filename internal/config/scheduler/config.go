package scheduler_config

import (
	"time"

	"github.com/pulsecheck/controlplane/internal/obs"
	pginfra "github.com/pulsecheck/controlplane/internal/repository/postgres"
)

type Agents struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	Token           string        `mapstructure:"token"`
	VerifyTLS       bool          `mapstructure:"verify_tls"`
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type OTEL struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

func (oc *OTEL) AsOTELConfig() *obs.OTELConfig {
	return &obs.OTELConfig{
		Enable:      oc.Enable,
		Endpoint:    oc.OTLPEndpoint,
		ServiceName: oc.ServiceName,
		SampleRatio: oc.SampleRatio,
	}
}

type Log struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func (lc *Log) AsLoggerConfig() *obs.LogConfig {
	return &obs.LogConfig{
		Level:  lc.Level,
		Pretty: lc.Pretty,
		App:    "controlplane/scheduler",
	}
}

type Outbox struct {
	Workers       int           `mapstructure:"workers"`
	BatchSize     int           `mapstructure:"batch_size"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	InProgressTTL time.Duration `mapstructure:"in_progress_ttl"`
}

type KafkaCfg struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Config struct {
	DB     pginfra.Config `mapstructure:"db"`
	Agents Agents         `mapstructure:"agents"`
	Server Server         `mapstructure:"server"`
	Outbox Outbox         `mapstructure:"outbox"`
	Kafka  KafkaCfg       `mapstructure:"kafka"`
	OTEL   OTEL           `mapstructure:"otel"`
	Log    Log            `mapstructure:"log"`
}
