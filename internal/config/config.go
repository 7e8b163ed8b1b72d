package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-errors/errors"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP        HTTP        `json:"http"`
	Persistence Persistence `json:"persistence"`
	Privy       Privy       `json:"privy"`
	Chain       Chain       `json:"chain"`
	Contract    Contract    `json:"contract"`
	NATS        NATS        `json:"nats"`
	Redis       Redis       `json:"redis"`
}

type Privy struct {
	AppID            string `json:"app_id" yaml:"app_id"`
	ClientID         string `json:"client_id" yaml:"client_id"`
	AppSecret        string `json:"app_secret" yaml:"app_secret"`
	SignerPrivateKey string `json:"signer_private_key" yaml:"signer_private_key"`
	SignerID         string `json:"signer_id" yaml:"signer_id"`
	APIURL           string `json:"api_url" yaml:"api_url"`
	VerificationKey  string `json:"verification_key" yaml:"verification_key"`
}

type Chain struct {
	ID          uint64 `json:"id"`
	RPCURL      string `json:"rpc_url" yaml:"rpc_url"`
	ExplorerURL string `json:"explorer_url" yaml:"explorer_url"`
}

type Contract struct {
	Address string `json:"address"`
}

type NATS struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Subject string `json:"subject"`
}

type RedisSentinel struct {
	Enabled    bool     `json:"enabled"`
	Addresses  []string `json:"addresses"`
	MasterName string   `json:"master_name" yaml:"master_name"`
	Username   string   `json:"username"`
	Password   string   `json:"password"`
}

type Redis struct {
	Enabled  bool          `json:"enabled"`
	Address  string        `json:"address"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Database int           `json:"database"`
	Channel  string        `json:"channel"`
	Sentinel RedisSentinel `json:"sentinel"`
}

type Persistence struct {
	Database Database `json:"database"`
}

type DatabaseDriver string

const (
	DatabaseDriverSQLite   DatabaseDriver = "sqlite"
	DatabaseDriverMySQL    DatabaseDriver = "mysql"
	DatabaseDriverPostgres DatabaseDriver = "postgres"
)

type Database struct {
	Driver          DatabaseDriver `json:"driver"`
	Database        string         `json:"database"`
	Username        string         `json:"username"`
	Password        string         `json:"password"`
	Host            string         `json:"host"`
	Port            uint16         `json:"port"`
	ExtraParameters string         `json:"extra_parameters" yaml:"extra_parameters"`
}

type HTTPListener struct {
	IPV4Host string `json:"ipv4_host" yaml:"ipv4_host"`
	IPV6Host string `json:"ipv6_host" yaml:"ipv6_host"`
	Port     uint16 `json:"port"`
}

type Tracing struct {
	Enabled      bool   `json:"enabled"`
	OTLPEndpoint string `json:"otlp_endpoint" yaml:"otlp_endpoint"`
}

type PProf struct {
	Enabled bool `json:"enabled"`
}

type Metrics struct {
	HTTPListener `yaml:",inline"`
	Enabled      bool `json:"enabled"`
}

type HTTP struct {
	HTTPListener   `yaml:",inline"`
	Tracing        Tracing  `json:"tracing"`
	BackendURL     string   `json:"backend_url" yaml:"backend_url"`
	PProf          PProf    `json:"pprof"`
	TrustedProxies []string `json:"trusted_proxies" yaml:"trusted_proxies"`
	Metrics        Metrics  `json:"metrics"`
	CORSHosts      []string `json:"cors_hosts" yaml:"cors_hosts"`
}

//nolint:golint,gochecknoglobals
var (
	ConfigFileKey                         = "config"
	HTTPIPV4HostKey                       = "http.ipv4_host"
	HTTPIPV6HostKey                       = "http.ipv6_host"
	HTTPPortKey                           = "http.port"
	HTTPTracingEnabledKey                 = "http.tracing.enabled"
	HTTPTracingOTLPEndKey                 = "http.tracing.otlp_endpoint"
	HTTPPProfEnabledKey                   = "http.pprof.enabled"
	HTTPTrustedProxiesKey                 = "http.trusted_proxies"
	HTTPMetricsEnabledKey                 = "http.metrics.enabled"
	HTTPMetricsIPV4HostKey                = "http.metrics.ipv4_host"
	HTTPMetricsIPV6HostKey                = "http.metrics.ipv6_host"
	HTTPMetricsPortKey                    = "http.metrics.port"
	HTTPCORSHostsKey                      = "http.cors_hosts"
	HTTPBackendURLKey                     = "http.backend_url"
	PersistenceDatabaseDriverKey          = "persistence.database.driver"
	PersistenceDatabaseDatabaseKey        = "persistence.database.database"
	PersistenceDatabaseUsernameKey        = "persistence.database.username"
	PersistenceDatabasePasswordKey        = "persistence.database.password"
	PersistenceDatabaseHostKey            = "persistence.database.host"
	PersistenceDatabasePortKey            = "persistence.database.port"
	PersistenceDatabaseExtraParametersKey = "persistence.database.extra_parameters"
	PrivyAppIDKey                         = "privy.app_id"
	PrivyClientIDKey                      = "privy.client_id"
	//nolint:golint,gosec
	PrivyAppSecretKey = "privy.app_secret"
	//nolint:golint,gosec
	PrivySignerPrivateKeyKey = "privy.signer_private_key"
	PrivySignerIDKey         = "privy.signer_id"
	PrivyAPIURLKey           = "privy.api_url"
	PrivyVerificationKeyKey  = "privy.verification_key"
	ChainIDKey               = "chain.id"
	ChainRPCURLKey           = "chain.rpc_url"
	ChainExplorerURLKey      = "chain.explorer_url"
	ContractAddressKey       = "contract.address"
	NATSEnabledKey           = "nats.enabled"
	NATSURLKey               = "nats.url"
	NATSSubjectKey           = "nats.subject"
	RedisEnabledKey          = "redis.enabled"
	RedisAddressKey          = "redis.address"
	RedisUsernameKey         = "redis.username"
	//nolint:golint,gosec
	RedisPasswordKey           = "redis.password"
	RedisDatabaseKey           = "redis.database"
	RedisChannelKey            = "redis.channel"
	RedisSentinelEnabledKey    = "redis.sentinel.enabled"
	RedisSentinelAddressesKey  = "redis.sentinel.addresses"
	RedisSentinelMasterNameKey = "redis.sentinel.master_name"
	RedisSentinelUsernameKey   = "redis.sentinel.username"
	//nolint:golint,gosec
	RedisSentinelPasswordKey = "redis.sentinel.password"
)

const (
	DefaultConfigPath                  = "config.yaml"
	DefaultEnvPath                     = ".env"
	DefaultHTTPIPV4Host                = "0.0.0.0"
	DefaultHTTPIPV6Host                = "::"
	DefaultHTTPPort                    = 8080
	DefaultHTTPMetricsIPV4Host         = "127.0.0.1"
	DefaultHTTPMetricsIPV6Host         = "::1"
	DefaultHTTPMetricsPort             = 8081
	DefaultHTTPBackendURL              = "http://localhost:8080"
	DefaultPersistenceDatabaseDriver   = DatabaseDriverSQLite
	DefaultPersistenceDatabaseDatabase = "contract-relay.db"
	DefaultPrivyAPIURL                 = "https://api.privy.io"
	// Base Sepolia
	DefaultChainID          = 84532
	DefaultChainRPCURL      = "https://sepolia.base.org"
	DefaultChainExplorerURL = "https://sepolia.basescan.org"
	DefaultNATSSubject      = "contract-relay.transactions"
	DefaultRedisChannel     = "contract-relay:transactions"
)

func RegisterFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(ConfigFileKey, "c", DefaultConfigPath, "Config file path")
	cmd.PersistentFlags().String(HTTPIPV4HostKey, DefaultHTTPIPV4Host, "HTTP server IPv4 host")
	cmd.PersistentFlags().String(HTTPIPV6HostKey, DefaultHTTPIPV6Host, "HTTP server IPv6 host")
	cmd.PersistentFlags().Uint16(HTTPPortKey, DefaultHTTPPort, "HTTP server port")
	cmd.PersistentFlags().Bool(HTTPTracingEnabledKey, false, "Enable Open Telemetry tracing")
	cmd.PersistentFlags().String(HTTPTracingOTLPEndKey, "", "Open Telemetry endpoint")
	cmd.PersistentFlags().Bool(HTTPPProfEnabledKey, false, "Enable pprof")
	cmd.PersistentFlags().StringSlice(HTTPTrustedProxiesKey, []string{}, "Comma-separated list of trusted proxies")
	cmd.PersistentFlags().Bool(HTTPMetricsEnabledKey, false, "Enable metrics server")
	cmd.PersistentFlags().String(HTTPMetricsIPV4HostKey, DefaultHTTPMetricsIPV4Host, "Metrics server IPv4 host")
	cmd.PersistentFlags().String(HTTPMetricsIPV6HostKey, DefaultHTTPMetricsIPV6Host, "Metrics server IPv6 host")
	cmd.PersistentFlags().Uint16(HTTPMetricsPortKey, DefaultHTTPMetricsPort, "Metrics server port")
	cmd.PersistentFlags().StringSlice(HTTPCORSHostsKey, []string{}, "Comma-separated list of CORS hosts")
	cmd.PersistentFlags().String(HTTPBackendURLKey, DefaultHTTPBackendURL, "Backend URL used by the client commands")
	cmd.PersistentFlags().String(PersistenceDatabaseDriverKey, string(DefaultPersistenceDatabaseDriver), "Database driver")
	cmd.PersistentFlags().String(PersistenceDatabaseDatabaseKey, DefaultPersistenceDatabaseDatabase, "Database path")
	cmd.PersistentFlags().String(PersistenceDatabaseUsernameKey, "", "Database username")
	cmd.PersistentFlags().String(PersistenceDatabasePasswordKey, "", "Database password")
	cmd.PersistentFlags().String(PersistenceDatabaseHostKey, "", "Database host")
	cmd.PersistentFlags().Uint16(PersistenceDatabasePortKey, 0, "Database port")
	cmd.PersistentFlags().String(PersistenceDatabaseExtraParametersKey, "", "Database extra parameters")
	cmd.PersistentFlags().String(PrivyAppIDKey, "", "Privy app ID")
	cmd.PersistentFlags().String(PrivyClientIDKey, "", "Privy client ID")
	cmd.PersistentFlags().String(PrivyAppSecretKey, "", "Privy app secret")
	cmd.PersistentFlags().String(PrivySignerPrivateKeyKey, "", "Privy session signer authorization private key")
	cmd.PersistentFlags().String(PrivySignerIDKey, "", "Privy session signer ID")
	cmd.PersistentFlags().String(PrivyAPIURLKey, DefaultPrivyAPIURL, "Privy API base URL")
	cmd.PersistentFlags().String(PrivyVerificationKeyKey, "", "Privy access token verification key (PEM); enables the auth gate")
	cmd.PersistentFlags().Uint64(ChainIDKey, DefaultChainID, "EVM chain ID")
	cmd.PersistentFlags().String(ChainRPCURLKey, DefaultChainRPCURL, "EVM JSON-RPC URL")
	cmd.PersistentFlags().String(ChainExplorerURLKey, DefaultChainExplorerURL, "Block explorer base URL")
	cmd.PersistentFlags().String(ContractAddressKey, "", "Storage contract address")
	cmd.PersistentFlags().Bool(NATSEnabledKey, false, "Publish transaction events to NATS")
	cmd.PersistentFlags().String(NATSURLKey, "", "NATS URL")
	cmd.PersistentFlags().String(NATSSubjectKey, DefaultNATSSubject, "NATS subject for transaction events")
	cmd.PersistentFlags().Bool(RedisEnabledKey, false, "Publish transaction events to Redis")
	cmd.PersistentFlags().String(RedisAddressKey, "", "Redis address")
	cmd.PersistentFlags().String(RedisUsernameKey, "", "Redis username")
	cmd.PersistentFlags().String(RedisPasswordKey, "", "Redis password")
	cmd.PersistentFlags().Int(RedisDatabaseKey, 0, "Redis database")
	cmd.PersistentFlags().String(RedisChannelKey, DefaultRedisChannel, "Redis pub/sub channel for transaction events")
	cmd.PersistentFlags().Bool(RedisSentinelEnabledKey, false, "Enable Redis sentinel")
	cmd.PersistentFlags().StringSlice(RedisSentinelAddressesKey, []string{}, "Comma-separated list of Redis sentinel addresses")
	cmd.PersistentFlags().String(RedisSentinelMasterNameKey, "", "Redis sentinel master name")
	cmd.PersistentFlags().String(RedisSentinelUsernameKey, "", "Redis sentinel username")
	cmd.PersistentFlags().String(RedisSentinelPasswordKey, "", "Redis sentinel password")
}

var (
	ErrPrivyAppIDRequired      = errors.New("Privy app ID is required")
	ErrPrivyAppSecretRequired  = errors.New("Privy app secret is required")
	ErrPrivySignerKeyRequired  = errors.New("Privy signer private key is required")
	ErrContractAddressRequired = errors.New("Contract address is required")
	ErrContractAddressInvalid  = errors.New("Contract address is not a valid hex address")
	ErrChainIDRequired         = errors.New("Chain ID is required")
	ErrChainRPCURLRequired     = errors.New("Chain RPC URL is required")
	ErrBackendURLRequired      = errors.New("Backend URL is required")
	ErrOTLPEndpointRequired    = errors.New("OTLP endpoint is required when tracing is enabled")
	ErrDBHostRequired          = errors.New("Database host is required")
	ErrDBDatabaseRequired      = errors.New("Database name is required")
	ErrDatabaseDriverRequired  = errors.New("Database driver is required")
	ErrNATSURLRequired         = errors.New("NATS URL is required when NATS is enabled")
	ErrRedisAddressRequired    = errors.New("Redis address is required when Redis is enabled")
	ErrRedisSentinelRequired   = errors.New("Redis sentinel addresses and master name are required when sentinel is enabled")
)

// Validate checks the configuration needed to run the server.
func (c *Config) Validate() error {
	if c.Privy.AppID == "" {
		return ErrPrivyAppIDRequired
	}
	if c.Privy.AppSecret == "" {
		return ErrPrivyAppSecretRequired
	}
	if c.Privy.SignerPrivateKey == "" {
		return ErrPrivySignerKeyRequired
	}
	if err := c.ValidateContract(); err != nil {
		return err
	}
	if c.HTTP.Tracing.Enabled && c.HTTP.Tracing.OTLPEndpoint == "" {
		return ErrOTLPEndpointRequired
	}
	if c.Persistence.Database.Driver == "" {
		return ErrDatabaseDriverRequired
	}
	if c.Persistence.Database.Driver != DatabaseDriverSQLite && c.Persistence.Database.Host == "" {
		return ErrDBHostRequired
	}
	if c.Persistence.Database.Database == "" {
		return ErrDBDatabaseRequired
	}
	if c.NATS.Enabled && c.NATS.URL == "" {
		return ErrNATSURLRequired
	}
	if c.Redis.Enabled {
		if c.Redis.Sentinel.Enabled {
			if len(c.Redis.Sentinel.Addresses) == 0 || c.Redis.Sentinel.MasterName == "" {
				return ErrRedisSentinelRequired
			}
		} else if c.Redis.Address == "" {
			return ErrRedisAddressRequired
		}
	}

	return nil
}

// ValidateContract checks only what the read and write client commands need.
func (c *Config) ValidateContract() error {
	if c.Contract.Address == "" {
		return ErrContractAddressRequired
	}
	if !common.IsHexAddress(c.Contract.Address) {
		return ErrContractAddressInvalid
	}
	if c.Chain.ID == 0 {
		return ErrChainIDRequired
	}
	if c.Chain.RPCURL == "" {
		return ErrChainRPCURLRequired
	}
	return nil
}

func LoadConfig(cmd *cobra.Command) (*Config, error) {
	var config Config

	// A missing .env is fine, the values may come from the real environment
	err := godotenv.Load(DefaultEnvPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return &config, fmt.Errorf("failed to load %s: %w", DefaultEnvPath, err)
	}

	// Load flags from envs
	ctx, cancel := context.WithCancelCause(cmd.Context())
	defer cancel(nil)
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if ctx.Err() != nil {
			return
		}
		optName := strings.ReplaceAll(strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_"), ".", "__")
		if val, ok := os.LookupEnv(optName); !f.Changed && ok {
			if err := f.Value.Set(val); err != nil {
				cancel(err)
			}
			f.Changed = true
		}
	})
	if ctx.Err() != nil {
		return &config, fmt.Errorf("failed to load env: %w", context.Cause(ctx))
	}

	configPath, err := cmd.Flags().GetString(ConfigFileKey)
	if err != nil {
		return &config, fmt.Errorf("failed to get config path: %w", err)
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return &config, fmt.Errorf("failed to read config: %w", err)
		} else if err == nil {
			if err := yaml.Unmarshal(data, &config); err != nil {
				return &config, fmt.Errorf("failed to unmarshal config: %w", err)
			}
		}
	}

	err = overrideFlags(&config, cmd)
	if err != nil {
		return &config, fmt.Errorf("failed to override flags: %w", err)
	}

	// Defaults
	if config.HTTP.IPV4Host == "" {
		config.HTTP.IPV4Host = DefaultHTTPIPV4Host
	}
	if config.HTTP.IPV6Host == "" {
		config.HTTP.IPV6Host = DefaultHTTPIPV6Host
	}
	if config.HTTP.Port == 0 {
		config.HTTP.Port = DefaultHTTPPort
	}
	if config.HTTP.Metrics.IPV4Host == "" {
		config.HTTP.Metrics.IPV4Host = DefaultHTTPMetricsIPV4Host
	}
	if config.HTTP.Metrics.IPV6Host == "" {
		config.HTTP.Metrics.IPV6Host = DefaultHTTPMetricsIPV6Host
	}
	if config.HTTP.Metrics.Port == 0 {
		config.HTTP.Metrics.Port = DefaultHTTPMetricsPort
	}
	if config.HTTP.BackendURL == "" {
		config.HTTP.BackendURL = DefaultHTTPBackendURL
	}
	if config.Persistence.Database.Driver == "" {
		config.Persistence.Database.Driver = DefaultPersistenceDatabaseDriver
	}
	if config.Persistence.Database.Database == "" {
		config.Persistence.Database.Database = DefaultPersistenceDatabaseDatabase
	}
	if config.Privy.APIURL == "" {
		config.Privy.APIURL = DefaultPrivyAPIURL
	}
	if config.Chain.ID == 0 {
		config.Chain.ID = DefaultChainID
	}
	if config.Chain.RPCURL == "" {
		config.Chain.RPCURL = DefaultChainRPCURL
	}
	if config.Chain.ExplorerURL == "" {
		config.Chain.ExplorerURL = DefaultChainExplorerURL
	}
	if config.NATS.Subject == "" {
		config.NATS.Subject = DefaultNATSSubject
	}
	if config.Redis.Channel == "" {
		config.Redis.Channel = DefaultRedisChannel
	}

	return &config, nil
}

//nolint:golint,gocyclo
func overrideFlags(config *Config, cmd *cobra.Command) error {
	var err error
	flags := cmd.Flags()

	if flags.Changed(HTTPIPV4HostKey) {
		config.HTTP.IPV4Host, err = flags.GetString(HTTPIPV4HostKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP IPv4 host: %w", err)
		}
	}

	if flags.Changed(HTTPIPV6HostKey) {
		config.HTTP.IPV6Host, err = flags.GetString(HTTPIPV6HostKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP IPv6 host: %w", err)
		}
	}

	if flags.Changed(HTTPPortKey) {
		config.HTTP.Port, err = flags.GetUint16(HTTPPortKey)
		if err != nil {
			return fmt.Errorf("failed to get HTTP port: %w", err)
		}
	}

	if flags.Changed(HTTPPProfEnabledKey) {
		config.HTTP.PProf.Enabled, err = flags.GetBool(HTTPPProfEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get pprof enabled: %w", err)
		}
	}

	if flags.Changed(HTTPTrustedProxiesKey) {
		config.HTTP.TrustedProxies, err = flags.GetStringSlice(HTTPTrustedProxiesKey)
		if err != nil {
			return fmt.Errorf("failed to get trusted proxies: %w", err)
		}
	}

	if flags.Changed(HTTPMetricsEnabledKey) {
		config.HTTP.Metrics.Enabled, err = flags.GetBool(HTTPMetricsEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics enabled: %w", err)
		}
	}

	if flags.Changed(HTTPMetricsIPV4HostKey) {
		config.HTTP.Metrics.IPV4Host, err = flags.GetString(HTTPMetricsIPV4HostKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics IPv4 host: %w", err)
		}
	}

	if flags.Changed(HTTPMetricsIPV6HostKey) {
		config.HTTP.Metrics.IPV6Host, err = flags.GetString(HTTPMetricsIPV6HostKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics IPv6 host: %w", err)
		}
	}

	if flags.Changed(HTTPMetricsPortKey) {
		config.HTTP.Metrics.Port, err = flags.GetUint16(HTTPMetricsPortKey)
		if err != nil {
			return fmt.Errorf("failed to get metrics port: %w", err)
		}
	}

	if flags.Changed(HTTPTracingEnabledKey) {
		config.HTTP.Tracing.Enabled, err = flags.GetBool(HTTPTracingEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get tracing enabled: %w", err)
		}
	}

	if flags.Changed(HTTPTracingOTLPEndKey) {
		config.HTTP.Tracing.OTLPEndpoint, err = flags.GetString(HTTPTracingOTLPEndKey)
		if err != nil {
			return fmt.Errorf("failed to get tracing OTLP endpoint: %w", err)
		}
	}

	if flags.Changed(HTTPCORSHostsKey) {
		config.HTTP.CORSHosts, err = flags.GetStringSlice(HTTPCORSHostsKey)
		if err != nil {
			return fmt.Errorf("failed to get CORS hosts: %w", err)
		}
	}

	if flags.Changed(HTTPBackendURLKey) {
		config.HTTP.BackendURL, err = flags.GetString(HTTPBackendURLKey)
		if err != nil {
			return fmt.Errorf("failed to get backend URL: %w", err)
		}
	}

	if flags.Changed(PersistenceDatabaseDriverKey) {
		drvr, err := flags.GetString(PersistenceDatabaseDriverKey)
		if err != nil {
			return fmt.Errorf("failed to get database driver: %w", err)
		}
		config.Persistence.Database.Driver = DatabaseDriver(strings.ToLower(drvr))
	}

	if flags.Changed(PersistenceDatabaseDatabaseKey) {
		config.Persistence.Database.Database, err = flags.GetString(PersistenceDatabaseDatabaseKey)
		if err != nil {
			return fmt.Errorf("failed to get database name: %w", err)
		}
	}

	if flags.Changed(PersistenceDatabaseUsernameKey) {
		config.Persistence.Database.Username, err = flags.GetString(PersistenceDatabaseUsernameKey)
		if err != nil {
			return fmt.Errorf("failed to get database username: %w", err)
		}
	}

	if flags.Changed(PersistenceDatabasePasswordKey) {
		config.Persistence.Database.Password, err = flags.GetString(PersistenceDatabasePasswordKey)
		if err != nil {
			return fmt.Errorf("failed to get database password: %w", err)
		}
	}

	if flags.Changed(PersistenceDatabaseHostKey) {
		config.Persistence.Database.Host, err = flags.GetString(PersistenceDatabaseHostKey)
		if err != nil {
			return fmt.Errorf("failed to get database host: %w", err)
		}
	}

	if flags.Changed(PersistenceDatabasePortKey) {
		config.Persistence.Database.Port, err = flags.GetUint16(PersistenceDatabasePortKey)
		if err != nil {
			return fmt.Errorf("failed to get database port: %w", err)
		}
	}

	if flags.Changed(PersistenceDatabaseExtraParametersKey) {
		config.Persistence.Database.ExtraParameters, err = flags.GetString(PersistenceDatabaseExtraParametersKey)
		if err != nil {
			return fmt.Errorf("failed to get database extra parameters: %w", err)
		}
	}

	if flags.Changed(PrivyAppIDKey) {
		config.Privy.AppID, err = flags.GetString(PrivyAppIDKey)
		if err != nil {
			return fmt.Errorf("failed to get Privy app ID: %w", err)
		}
	}

	if flags.Changed(PrivyClientIDKey) {
		config.Privy.ClientID, err = flags.GetString(PrivyClientIDKey)
		if err != nil {
			return fmt.Errorf("failed to get Privy client ID: %w", err)
		}
	}

	if flags.Changed(PrivyAppSecretKey) {
		config.Privy.AppSecret, err = flags.GetString(PrivyAppSecretKey)
		if err != nil {
			return fmt.Errorf("failed to get Privy app secret: %w", err)
		}
	}

	if flags.Changed(PrivySignerPrivateKeyKey) {
		config.Privy.SignerPrivateKey, err = flags.GetString(PrivySignerPrivateKeyKey)
		if err != nil {
			return fmt.Errorf("failed to get Privy signer private key: %w", err)
		}
	}

	if flags.Changed(PrivySignerIDKey) {
		config.Privy.SignerID, err = flags.GetString(PrivySignerIDKey)
		if err != nil {
			return fmt.Errorf("failed to get Privy signer ID: %w", err)
		}
	}

	if flags.Changed(PrivyAPIURLKey) {
		config.Privy.APIURL, err = flags.GetString(PrivyAPIURLKey)
		if err != nil {
			return fmt.Errorf("failed to get Privy API URL: %w", err)
		}
	}

	if flags.Changed(PrivyVerificationKeyKey) {
		config.Privy.VerificationKey, err = flags.GetString(PrivyVerificationKeyKey)
		if err != nil {
			return fmt.Errorf("failed to get Privy verification key: %w", err)
		}
	}

	if flags.Changed(ChainIDKey) {
		config.Chain.ID, err = flags.GetUint64(ChainIDKey)
		if err != nil {
			return fmt.Errorf("failed to get chain ID: %w", err)
		}
	}

	if flags.Changed(ChainRPCURLKey) {
		config.Chain.RPCURL, err = flags.GetString(ChainRPCURLKey)
		if err != nil {
			return fmt.Errorf("failed to get chain RPC URL: %w", err)
		}
	}

	if flags.Changed(ChainExplorerURLKey) {
		config.Chain.ExplorerURL, err = flags.GetString(ChainExplorerURLKey)
		if err != nil {
			return fmt.Errorf("failed to get chain explorer URL: %w", err)
		}
	}

	if flags.Changed(ContractAddressKey) {
		config.Contract.Address, err = flags.GetString(ContractAddressKey)
		if err != nil {
			return fmt.Errorf("failed to get contract address: %w", err)
		}
	}

	if flags.Changed(NATSEnabledKey) {
		config.NATS.Enabled, err = flags.GetBool(NATSEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get NATS enabled: %w", err)
		}
	}

	if flags.Changed(NATSURLKey) {
		config.NATS.URL, err = flags.GetString(NATSURLKey)
		if err != nil {
			return fmt.Errorf("failed to get NATS URL: %w", err)
		}
	}

	if flags.Changed(NATSSubjectKey) {
		config.NATS.Subject, err = flags.GetString(NATSSubjectKey)
		if err != nil {
			return fmt.Errorf("failed to get NATS subject: %w", err)
		}
	}

	if flags.Changed(RedisEnabledKey) {
		config.Redis.Enabled, err = flags.GetBool(RedisEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis enabled: %w", err)
		}
	}

	if flags.Changed(RedisAddressKey) {
		config.Redis.Address, err = flags.GetString(RedisAddressKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis address: %w", err)
		}
	}

	if flags.Changed(RedisUsernameKey) {
		config.Redis.Username, err = flags.GetString(RedisUsernameKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis username: %w", err)
		}
	}

	if flags.Changed(RedisPasswordKey) {
		config.Redis.Password, err = flags.GetString(RedisPasswordKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis password: %w", err)
		}
	}

	if flags.Changed(RedisDatabaseKey) {
		config.Redis.Database, err = flags.GetInt(RedisDatabaseKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis database: %w", err)
		}
	}

	if flags.Changed(RedisChannelKey) {
		config.Redis.Channel, err = flags.GetString(RedisChannelKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis channel: %w", err)
		}
	}

	if flags.Changed(RedisSentinelEnabledKey) {
		config.Redis.Sentinel.Enabled, err = flags.GetBool(RedisSentinelEnabledKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis sentinel enabled: %w", err)
		}
	}

	if flags.Changed(RedisSentinelAddressesKey) {
		config.Redis.Sentinel.Addresses, err = flags.GetStringSlice(RedisSentinelAddressesKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis sentinel addresses: %w", err)
		}
	}

	if flags.Changed(RedisSentinelMasterNameKey) {
		config.Redis.Sentinel.MasterName, err = flags.GetString(RedisSentinelMasterNameKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis sentinel master name: %w", err)
		}
	}

	if flags.Changed(RedisSentinelUsernameKey) {
		config.Redis.Sentinel.Username, err = flags.GetString(RedisSentinelUsernameKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis sentinel username: %w", err)
		}
	}

	if flags.Changed(RedisSentinelPasswordKey) {
		config.Redis.Sentinel.Password, err = flags.GetString(RedisSentinelPasswordKey)
		if err != nil {
			return fmt.Errorf("failed to get Redis sentinel password: %w", err)
		}
	}

	return nil
}
