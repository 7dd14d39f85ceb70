package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-double-entry-ledger/pkg/database"
)

// Store 驅動
const (
	StoreMemory    = "memory"    // MutexStore
	StoreSequencer = "sequencer" // SequencerStore (LMAX)
	StoreMySQL     = database.DriverMySQL
	StorePostgres  = database.DriverPostgres
	StoreSQLite    = database.DriverSQLite
)

// Config 服務設定
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Log      LogConfig       `yaml:"log"`
	Store    StoreConfig     `yaml:"store"`
	Database database.Config `yaml:"database"`
}

type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
	Mode     string `yaml:"mode"` // debug / release
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StoreConfig struct {
	Driver    string `yaml:"driver"`
	WALPath   string `yaml:"wal_path"`   // 記憶體 store 用，空字串表示不落地
	QueueSize int    `yaml:"queue_size"` // sequencer 輸送帶容量
}

// UsesDatabase 是否為關聯式資料庫 store
func (s StoreConfig) UsesDatabase() bool {
	switch s.Driver {
	case StoreMySQL, StorePostgres, StoreSQLite:
		return true
	}
	return false
}

// Load 載入設定
// 順序: yaml 檔 -> .env -> 環境變數 (LEDGER_*) -> 補預設值
//
// 參數:
//
//	path: yaml 設定檔路徑，空字串表示只用環境變數
//	envPath: 指定 .env 檔；未指定時嘗試讀取目前目錄的 .env (不存在不算錯誤)
func Load(path string, envPath ...string) (*Config, error) {
	var cfg Config
	if path != "" {
		cfgData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(cfgData, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.GRPCAddr, "LEDGER_GRPC_ADDR")
	setString(&c.Server.HTTPAddr, "LEDGER_HTTP_ADDR")
	setString(&c.Server.Mode, "LEDGER_MODE")
	setString(&c.Log.Level, "LEDGER_LOG_LEVEL")
	setString(&c.Store.Driver, "LEDGER_STORE_DRIVER")
	setString(&c.Store.WALPath, "LEDGER_WAL_PATH")
	setString(&c.Database.Host, "LEDGER_DB_HOST")
	setString(&c.Database.User, "LEDGER_DB_USER")
	setString(&c.Database.Password, "LEDGER_DB_PASSWORD")
	setString(&c.Database.DBName, "LEDGER_DB_NAME")
	setString(&c.Database.Path, "LEDGER_DB_PATH")
	if err := setInt(&c.Database.Port, "LEDGER_DB_PORT"); err != nil {
		return err
	}
	return setInt(&c.Store.QueueSize, "LEDGER_QUEUE_SIZE")
}

// applyDefaults 補全預設配置 (如果 yaml 與環境變數都沒寫)
func (c *Config) applyDefaults() {
	if c.Server.GRPCAddr == "" {
		c.Server.GRPCAddr = ":50051"
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8080"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMemory
	}
	if c.Store.UsesDatabase() {
		c.Database.Driver = c.Store.Driver
		c.Database.ApplyDefaults()
	}
}

// Validate 檢查設定是否可用
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory, StoreSequencer:
	case StoreSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("store driver sqlite requires database.path")
		}
	case StoreMySQL, StorePostgres:
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("store driver %s requires database.host and database.dbname", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unsupported store driver %q", c.Store.Driver)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid integer value for %s: %s", key, v)
	}
	*dst = n
	return nil
}
