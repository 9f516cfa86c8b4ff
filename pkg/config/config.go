package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Network  NetworkConfig  `mapstructure:"network"`
	Wallet   WalletConfig   `mapstructure:"wallet"`
	Poll     PollConfig     `mapstructure:"poll"`
	Relay    RelayConfig    `mapstructure:"relay"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	Session  SessionConfig  `mapstructure:"session"`
	DB       DBConfig       `mapstructure:"db"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	HttpPort string `mapstructure:"http_port"`
}

// NetworkConfig 保存 mainnet / testnet 两套节点配置, Active 为当前选中的网络
type NetworkConfig struct {
	Active  string   `mapstructure:"active"` // mainnet, testnet
	Mainnet Endpoint `mapstructure:"mainnet"`
	Testnet Endpoint `mapstructure:"testnet"`
	// RPC 查询类请求的 HTTP 重试次数 (sendTransaction 永远不重试)
	QueryRetries int           `mapstructure:"query_retries"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type Endpoint struct {
	Ref         string `mapstructure:"ref"`
	NID         int64  `mapstructure:"nid"`
	APIEndpoint string `mapstructure:"api_endpoint"`
	TrackerURL  string `mapstructure:"tracker_url"`
}

type WalletConfig struct {
	KeystorePath       string `mapstructure:"keystore_path"`
	Password           string `mapstructure:"password"` // 通常通过环境变量 WALLET_PASSWORD 传入
	LedgerBasePath     string `mapstructure:"ledger_base_path"`
	GovernanceStepCost int64  `mapstructure:"governance_step_limit"`
	TransferStepCost   int64  `mapstructure:"transfer_step_limit"` // getStepCosts 不可用时的兜底值
	QueryStepCosts     bool   `mapstructure:"query_step_costs"`
	ScryptN            int    `mapstructure:"scrypt_n"`
	ScryptP            int    `mapstructure:"scrypt_p"`
}

type PollConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	Attempts      int           `mapstructure:"attempts"`       // 单笔交易
	ChainAttempts int           `mapstructure:"chain_attempts"` // 多步骤链
}

type RelayConfig struct {
	Transport     string `mapstructure:"transport"` // memory, redis, kafka
	RequestTopic  string `mapstructure:"request_topic"`
	ResponseTopic string `mapstructure:"response_topic"`
	ConsumerGroup string `mapstructure:"consumer_group"`
}

type HardwareConfig struct {
	Transport        string `mapstructure:"transport"` // ledger, emulator
	EmulatorMnemonic string `mapstructure:"emulator_mnemonic"`
	AutoApprove      bool   `mapstructure:"auto_approve"`
}

type SessionConfig struct {
	RefreshInterval string        `mapstructure:"refresh_interval"` // cron spec, e.g. "@every 30s"
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	UseRedisCache   bool          `mapstructure:"use_redis_cache"`
}

type DBConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
}

var Global Config

// Init loads config.yaml (if present), environment variables and defaults into Global.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// 环境变量: network.active -> NETWORK_ACTIVE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Printf("Warning: Config file not found, using defaults and environment variables")
		} else {
			log.Fatalf("Fatal error config file: %s \n", err)
		}
	}

	if err := viper.Unmarshal(&Global); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}

// Default returns a Config populated only from defaults. Tests and library callers use it
// instead of the global.
func Default() Config {
	v := viper.New()
	setDefaultsOn(v)
	var c Config
	_ = v.Unmarshal(&c)
	return c
}

// Endpoint returns the endpoint for a network ref.
func (n NetworkConfig) Endpoint(ref string) (Endpoint, error) {
	switch ref {
	case n.Mainnet.Ref:
		return n.Mainnet, nil
	case n.Testnet.Ref:
		return n.Testnet, nil
	default:
		return Endpoint{}, fmt.Errorf("unknown network %q", ref)
	}
}

func setDefaults() {
	setDefaultsOn(viper.GetViper())
}

func setDefaultsOn(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.http_port", "8080")

	v.SetDefault("network.active", "testnet")
	v.SetDefault("network.mainnet.ref", "mainnet")
	v.SetDefault("network.mainnet.nid", 1)
	v.SetDefault("network.mainnet.api_endpoint", "https://ctz.solidwallet.io/api/v3")
	v.SetDefault("network.mainnet.tracker_url", "https://tracker.icon.foundation")
	v.SetDefault("network.testnet.ref", "testnet")
	v.SetDefault("network.testnet.nid", 80)
	v.SetDefault("network.testnet.api_endpoint", "https://zicon.net.solidwallet.io/api/v3")
	v.SetDefault("network.testnet.tracker_url", "https://zicon.tracker.solidwallet.io")
	v.SetDefault("network.query_retries", 2)
	v.SetDefault("network.timeout", 15*time.Second)

	v.SetDefault("wallet.keystore_path", "keystore.json")
	v.SetDefault("wallet.ledger_base_path", "44'/4801368'/0'/0'")
	v.SetDefault("wallet.governance_step_limit", 1000000)
	v.SetDefault("wallet.transfer_step_limit", 100000)
	v.SetDefault("wallet.query_step_costs", true)
	v.SetDefault("wallet.scrypt_n", 1<<14)
	v.SetDefault("wallet.scrypt_p", 1)

	v.SetDefault("poll.interval", 600*time.Millisecond)
	v.SetDefault("poll.attempts", 10)
	v.SetDefault("poll.chain_attempts", 100)

	v.SetDefault("relay.transport", "memory")
	v.SetDefault("relay.request_topic", "ICONEX_RELAY_REQUEST")
	v.SetDefault("relay.response_topic", "ICONEX_RELAY_RESPONSE")
	v.SetDefault("relay.consumer_group", "icx-wallet")

	v.SetDefault("hardware.transport", "ledger")
	v.SetDefault("hardware.auto_approve", false)

	v.SetDefault("session.refresh_interval", "@every 30s")
	v.SetDefault("session.cache_ttl", 2*time.Minute)
	v.SetDefault("session.use_redis_cache", false)

	v.SetDefault("db.enabled", false)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "wallet_user")
	v.SetDefault("db.password", "wallet_password")
	v.SetDefault("db.name", "wallet_db")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
}
