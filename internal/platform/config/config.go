package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	defaultPerPage            = 200
	maxPerPage                = 500
	defaultDepartmentCacheTTL = time.Hour
	defaultAvatarStyle        = "initials"
	defaultHRRole             = "hr"
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Storage   StorageConfig             `yaml:"storage"`
	Database  DatabaseConfig            `yaml:"database"`
	Directory DirectoryConfig           `yaml:"directory"`
	Instances map[string]InstanceConfig `yaml:"instances"`
	Auth      AuthConfig                `yaml:"auth"`
	Logging   LoggingConfig             `yaml:"logging"`
}

// ServerConfig は gRPC / HTTP サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr  string `yaml:"listen_addr"`
	HTTPAddr    string `yaml:"http_addr"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// StorageConfig は永続化方式の設定です。
type StorageConfig struct {
	Driver   string `yaml:"driver"`
	SeedPath string `yaml:"seed_path"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
	// StatementTimeout は 1 文あたりの実行上限です。0 ならサーバー既定値に従います。
	StatementTimeout    time.Duration `yaml:"-"`
	StatementTimeoutRaw string        `yaml:"statement_timeout"`
}

// DirectoryConfig はディレクトリ一覧の設定です。
type DirectoryConfig struct {
	DefaultPerPage        int           `yaml:"default_per_page"`
	MaxPerPage            int           `yaml:"max_per_page"`
	AllowedRoles          []string      `yaml:"allowed_roles"`
	RequireLogin          bool          `yaml:"require_login"`
	NewHireDays           int           `yaml:"new_hire_days"`
	DepartmentCacheTTL    time.Duration `yaml:"-"`
	DepartmentCacheTTLRaw string        `yaml:"department_cache_ttl"`
	AvatarStyle           string        `yaml:"avatar_style"`
}

// InstanceConfig は埋め込み先ごとの固定条件です。
type InstanceConfig struct {
	Department string `yaml:"department"`
	PerPage    int    `yaml:"per_page"`
	Role       string `yaml:"role"`
}

// AuthConfig はベアラートークン検証の設定です。JWTSecret が空の場合は認証を行いません。
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	HRRole    string `yaml:"hr_role"`
}

// LoggingConfig はロガーの設定です。
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load は指定されたパスから設定ファイルを読み込みます。
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	switch c.Storage.Driver {
	case "":
		c.Storage.Driver = StorageDriverPostgres
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("config: storage.driver %q is not supported", c.Storage.Driver)
	}

	if c.Storage.Driver == StorageDriverPostgres {
		if err := c.Database.validateAndNormalize(); err != nil {
			return err
		}
	}

	if err := c.Directory.validateAndNormalize(); err != nil {
		return err
	}

	for name, inst := range c.Instances {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("config: instances: name must not be empty")
		}
		if inst.PerPage < 0 || inst.PerPage > c.Directory.MaxPerPage {
			return fmt.Errorf("config: instances.%s.per_page must be between 0 and %d", name, c.Directory.MaxPerPage)
		}
	}

	if c.Directory.RequireLogin && strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return fmt.Errorf("config: directory.require_login needs auth.jwt_secret")
	}
	if c.Auth.HRRole == "" {
		c.Auth.HRRole = defaultHRRole
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	switch c.Logging.Level {
	case "":
		c.Logging.Level = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level %q is not supported", c.Logging.Level)
	}
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	switch c.Logging.Format {
	case "":
		c.Logging.Format = "json"
	case "json", "text":
	default:
		return fmt.Errorf("config: logging.format %q is not supported", c.Logging.Format)
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set")
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	timeout, err := parseDurationAllowEmpty(d.StatementTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: database.statement_timeout: %w", err)
	}
	if timeout < 0 {
		return fmt.Errorf("config: database.statement_timeout must not be negative")
	}
	d.StatementTimeout = timeout

	return nil
}

func (d *DirectoryConfig) validateAndNormalize() error {
	if d.MaxPerPage <= 0 || d.MaxPerPage > maxPerPage {
		d.MaxPerPage = maxPerPage
	}
	if d.DefaultPerPage <= 0 {
		d.DefaultPerPage = defaultPerPage
	}
	if d.DefaultPerPage > d.MaxPerPage {
		d.DefaultPerPage = d.MaxPerPage
	}
	if d.NewHireDays < 0 {
		return fmt.Errorf("config: directory.new_hire_days must not be negative")
	}
	if d.AvatarStyle == "" {
		d.AvatarStyle = defaultAvatarStyle
	}

	ttl, err := parseDurationAllowEmpty(d.DepartmentCacheTTLRaw)
	if err != nil {
		return fmt.Errorf("config: directory.department_cache_ttl: %w", err)
	}
	if ttl <= 0 {
		ttl = defaultDepartmentCacheTTL
	}
	d.DepartmentCacheTTL = ttl

	return nil
}

// Settings はディレクトリ設定を一覧ユースケースに渡す値に変換します。
func (d DirectoryConfig) Settings() directory.Settings {
	return directory.Settings{
		DefaultPerPage: d.DefaultPerPage,
		MaxPerPage:     d.MaxPerPage,
		AllowedRoles:   append([]string(nil), d.AllowedRoles...),
		RequireLogin:   d.RequireLogin,
		NewHireDays:    d.NewHireDays,
		AvatarStyle:    d.AvatarStyle,
	}
}

// DirectoryInstances は固定条件セットを名前で引ける形に変換します。
func (c *Config) DirectoryInstances() directory.Instances {
	out := make(directory.Instances, len(c.Instances))
	for name, inst := range c.Instances {
		out[name] = directory.Locked{
			Department: inst.Department,
			PerPage:    inst.PerPage,
			Role:       inst.Role,
		}
	}
	return out
}

// InstanceNames は登録されている固定条件セットの名前を昇順で返します。
func (c *Config) InstanceNames() []string {
	names := make([]string, 0, len(c.Instances))
	for name := range c.Instances {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

// DSN は pgx 用の接続文字列を返します。認証情報はエスケープされます。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}
