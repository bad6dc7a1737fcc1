package config

import (
	"github.com/blues/pledge/internal/fees"
	"github.com/blues/pledge/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Fee      FeeConfig      `mapstructure:"fee"`
	Raffle   RaffleConfig   `mapstructure:"raffle"`
	Vrf      VrfConfig      `mapstructure:"vrf"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// FeeConfig 平台费率配置（基点），拆分比例之和必须等于10000
type FeeConfig struct {
	PlatformFeeBps     int64 `mapstructure:"platform_fee_bps"`
	VrfReserveBps      int64 `mapstructure:"vrf_reserve_bps"`
	CampaignRaffleBps  int64 `mapstructure:"campaign_raffle_bps"`
	DailyRaffleBps     int64 `mapstructure:"daily_raffle_bps"`
	PlatformRevenueBps int64 `mapstructure:"platform_revenue_bps"`
}

// Schedule 构建费率表，拆分比例非法时直接终止进程
func (f FeeConfig) Schedule() *fees.Schedule {
	s, err := fees.NewSchedule(
		f.PlatformFeeBps,
		f.VrfReserveBps,
		f.CampaignRaffleBps,
		f.DailyRaffleBps,
		f.PlatformRevenueBps,
	)
	if err != nil {
		logger.Fatal("Invalid fee schedule: %v", err)
	}
	return s
}

// RaffleConfig 抽奖配置
type RaffleConfig struct {
	MilestoneStepBps   int64 `mapstructure:"milestone_step_bps"`   // 里程碑步长，默认1000（10%）
	DailyIntervalHours int   `mapstructure:"daily_interval_hours"` // 每日抽奖窗口，默认24小时
}

// VrfConfig 随机数预言机配置
type VrfConfig struct {
	RpcUrl              string `mapstructure:"rpc_url"`               // 协调器所在链的RPC节点
	PrivateKey          string `mapstructure:"private_key"`           // 发起请求交易的私钥
	CoordinatorAddr     string `mapstructure:"coordinator_addr"`      // 协调器合约地址
	ChainId             int64  `mapstructure:"chain_id"`              // 链ID
	CallbackGasLimit    int64  `mapstructure:"callback_gas_limit"`    // 回调Gas上限
	MinGasPriceGwei     int64  `mapstructure:"min_gas_price_gwei"`    // 费用估算的最低Gas价格
	StartBlock          int64  `mapstructure:"start_block"`           // 回调事件监控起始区块
	PollIntervalSeconds int    `mapstructure:"poll_interval_seconds"` // 回调事件轮询间隔
}

type TaskConfig struct {
	DailyRaffleIntervalSeconds int `mapstructure:"daily_raffle_interval_seconds"` // 每日抽奖驱动任务间隔
	WatchdogIntervalSeconds    int `mapstructure:"watchdog_interval_seconds"`     // 未回调请求巡检间隔
	WatchdogPendingAgeHours    int `mapstructure:"watchdog_pending_age_hours"`    // 巡检告警阈值
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/pledge")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "pledge")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("fee.platform_fee_bps", 500)
	viper.SetDefault("fee.vrf_reserve_bps", 4000)
	viper.SetDefault("fee.campaign_raffle_bps", 3000)
	viper.SetDefault("fee.daily_raffle_bps", 2000)
	viper.SetDefault("fee.platform_revenue_bps", 1000)
	viper.SetDefault("raffle.milestone_step_bps", 1000)
	viper.SetDefault("raffle.daily_interval_hours", 24)
	viper.SetDefault("vrf.callback_gas_limit", 500000)
	viper.SetDefault("vrf.min_gas_price_gwei", 21)
	viper.SetDefault("vrf.start_block", 0)
	viper.SetDefault("vrf.poll_interval_seconds", 60)
	viper.SetDefault("task.daily_raffle_interval_seconds", 300)
	viper.SetDefault("task.watchdog_interval_seconds", 600)
	viper.SetDefault("task.watchdog_pending_age_hours", 24)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
