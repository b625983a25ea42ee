package config

import (
	"github.com/cg505/ocflib/internal/account"
	"github.com/cg505/ocflib/params"
	"github.com/spf13/viper"
)

const (
	DefaultRedisAddr   = "localhost:6379"
	DefaultConcurrency = 4
)

type MysqlConfig struct {
	ConnStr         string `yaml:"connStr"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	ConnMaxIdleTime int    `yaml:"connMaxIdleTime"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

type WorkerConfig struct {
	Concurrency int      `yaml:"concurrency"`
	Queues      []string `yaml:"queues"`
}

type ProvisionConfig struct {
	// Command is the account creation program and its fixed arguments,
	// run once per approved request on this host.
	Command []string `yaml:"command"`
}

type Config struct {
	Debug       bool                `yaml:"debug"`
	Mysql       MysqlConfig         `yaml:"mysql"`
	Redis       RedisConfig         `yaml:"redis"`
	SMTP        SMTPConfig          `yaml:"smtp"`
	Worker      WorkerConfig        `yaml:"worker"`
	Provision   ProvisionConfig     `yaml:"provision"`
	Credentials account.Credentials `yaml:"credentials"`
}

func (c *Config) Sanitize() error {
	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Worker.Concurrency <= 0 {
		c.Worker.Concurrency = DefaultConcurrency
	}
	if len(c.Worker.Queues) == 0 {
		c.Worker.Queues = []string{params.JobDefaultQueue}
	}
	if c.Credentials.MysqlURI == "" {
		c.Credentials.MysqlURI = c.Mysql.ConnStr
	}
	return nil
}

func LoadConfig(filename string) (*Config, error) {
	viper.SetConfigFile(filename)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
