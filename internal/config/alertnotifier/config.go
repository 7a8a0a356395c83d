package alertnotifier_config

import (
	kafkax "github.com/pulsecheck/controlplane/internal/repository/kafka"
	pginfra "github.com/pulsecheck/controlplane/internal/repository/postgres"
)

type KafkaIn struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
	GroupID string   `mapstructure:"group_id"`
}

func (k *KafkaIn) AsConsumerConfig() *kafkax.ConsumerConfig {
	return &kafkax.ConsumerConfig{
		Brokers: k.Brokers,
		GroupID: k.GroupID,
		Topic:   k.Topic,
	}
}

type Server struct {
	MetricsAddr string `mapstructure:"metrics_addr"`
}

type SMTP struct {
	Addr       string `mapstructure:"addr"`
	From       string `mapstructure:"from"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	UseTLS     bool   `mapstructure:"use_tls"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
	SubjPrefix string `mapstructure:"subject_prefix"`
}

type Config struct {
	DB       pginfra.Config `mapstructure:"db"`
	In       KafkaIn        `mapstructure:"kafka_in"`
	Server   Server         `mapstructure:"server"`
	SMTP     SMTP           `mapstructure:"smtp"`
	LogLevel string         `mapstructure:"log_level"`
}
