package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muxable/dtm/pkg/dtm"
	"github.com/muxable/dtm/pkg/hci"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	TransportSerial = "serial"
	TransportHCI    = "hci"
)

// PortConfig selects how one controller is reached: a UART path, or a
// kernel HCI device index for the user channel transport.
type PortConfig struct {
	Name        string        `mapstructure:"name"`
	Transport   string        `mapstructure:"transport"`
	Path        string        `mapstructure:"path"`
	Baud        int           `mapstructure:"baud"`
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
	Device      int           `mapstructure:"device"`
}

// TestConfig holds the RF parameters and phase durations.
type TestConfig struct {
	Channel         int           `mapstructure:"channel"`
	DataLength      int           `mapstructure:"dataLength"`
	Payload         int           `mapstructure:"payload"`
	PHY             int           `mapstructure:"phy"`
	ModulationIndex int           `mapstructure:"modulationIndex"`
	Duration        time.Duration `mapstructure:"duration"`
	TXPower         int           `mapstructure:"txPower"`
	TXGain          int           `mapstructure:"txGain"`
	Continuous      bool          `mapstructure:"continuous"`
	RegisterAddress uint32        `mapstructure:"registerAddress"`
	RegisterLowByte int           `mapstructure:"registerLowByte"`
	DeepSleep       bool          `mapstructure:"deepSleep"`
}

type TransactorConfig struct {
	SettleDelay time.Duration `mapstructure:"settleDelay"`
}

type EstimatorConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	FudgeFactor float64       `mapstructure:"fudgeFactor"`
}

// ResponseConfig overrides the expected length and one field of an opcode's
// response, for firmware that lays responses out differently.
type ResponseConfig struct {
	Length int    `mapstructure:"length"`
	Field  string `mapstructure:"field"`
	Offset int    `mapstructure:"offset"`
	Width  int    `mapstructure:"width"`
}

// LumberjackConfig configures log file rotation. An empty filename logs to
// the console only.
type LumberjackConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"maxSize"`
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAgeDays int    `mapstructure:"maxAge"`
	Compress   bool   `mapstructure:"compress"`
}

type LoggingConfig struct {
	Level  string           `mapstructure:"level"`
	Format string           `mapstructure:"format"`
	File   LumberjackConfig `mapstructure:"file"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type ReportConfig struct {
	Path string `mapstructure:"path"`
}

type Config struct {
	DUT        PortConfig                `mapstructure:"dut"`
	TX         PortConfig                `mapstructure:"tx"`
	RX         PortConfig                `mapstructure:"rx"`
	Test       TestConfig                `mapstructure:"test"`
	Transactor TransactorConfig          `mapstructure:"transactor"`
	Estimator  EstimatorConfig           `mapstructure:"estimator"`
	Responses  map[string]ResponseConfig `mapstructure:"responses"`
	Logging    LoggingConfig             `mapstructure:"logging"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
	Report     ReportConfig              `mapstructure:"report"`
}

// Flags defines the command line overrides shared by the programs. Flag
// names are config keys, so --test.channel=15 overrides test.channel.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "config file (yaml, toml or json)")
	fs.String("dut.path", "", "serial port of the device under test")
	fs.String("tx.path", "", "serial port of the transmitting device")
	fs.String("rx.path", "", "serial port of the receiving device")
	fs.Int("test.channel", 0, "rf channel 0-39")
	fs.Duration("test.duration", 0, "how long each test phase runs")
	fs.String("logging.level", "", "debug, info, warn or error")
	fs.String("report.path", "", "write a yaml run report here")
	fs.String("metrics.textfile", "", "write prometheus metrics here")
	return fs
}

// Load reads configuration from path, DTM_ prefixed environment variables and
// any flags set in fs. With an empty path ./dtm.yaml and ./configs/dtm.yaml are
// tried and a missing file is not an error.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if fs != nil {
		if path == "" {
			if f := fs.Lookup("config"); f != nil {
				path = f.Value.String()
			}
		}
		// only flags the user set, so unset flags do not mask the file.
		var bindErr error
		fs.Visit(func(f *pflag.Flag) {
			if f.Name == "config" {
				return
			}
			if err := v.BindPFlag(f.Name, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("dtm")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("DTM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	for _, side := range []string{"dut", "tx", "rx"} {
		v.SetDefault(side+".name", side)
		v.SetDefault(side+".transport", TransportSerial)
		v.SetDefault(side+".path", "")
		v.SetDefault(side+".baud", 115200)
		v.SetDefault(side+".readTimeout", "1s")
		v.SetDefault(side+".device", -1)
	}

	v.SetDefault("test.channel", 0x0F)
	v.SetDefault("test.dataLength", 0x25)
	v.SetDefault("test.payload", int(hci.PacketPayloadPRBS9))
	v.SetDefault("test.phy", int(hci.PHY1M))
	v.SetDefault("test.modulationIndex", int(hci.ModulationIndexStandard))
	v.SetDefault("test.duration", "5s")
	v.SetDefault("test.txPower", int(hci.TXPowerLevel0dBm))
	v.SetDefault("test.txGain", 0)
	v.SetDefault("test.continuous", true)
	v.SetDefault("test.registerAddress", 0)
	v.SetDefault("test.registerLowByte", 0x24)
	v.SetDefault("test.deepSleep", true)

	v.SetDefault("transactor.settleDelay", dtm.DefaultSettleDelay.String())
	v.SetDefault("estimator.interval", dtm.PacketInterval.String())
	v.SetDefault("estimator.fudgeFactor", dtm.DefaultFudgeFactor)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.maxSize", 10)
	v.SetDefault("logging.file.maxBackups", 5)
	v.SetDefault("logging.file.maxAge", 30)
	v.SetDefault("logging.file.compress", false)
}

func (c *Config) Validate() error {
	for _, p := range []PortConfig{c.DUT, c.TX, c.RX} {
		switch p.Transport {
		case TransportSerial, TransportHCI:
		default:
			return fmt.Errorf("%s.transport: unknown transport %q", p.Name, p.Transport)
		}
		if p.ReadTimeout < 0 {
			return fmt.Errorf("%s.readTimeout: must not be negative", p.Name)
		}
	}
	if c.Test.Duration < 0 {
		return errors.New("test.duration: must not be negative")
	}
	if c.Transactor.SettleDelay < 0 {
		return errors.New("transactor.settleDelay: must not be negative")
	}
	if _, err := c.Session(); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"test.txPower", c.Test.TXPower},
		{"test.txGain", c.Test.TXGain},
		{"test.registerLowByte", c.Test.RegisterLowByte},
	} {
		if _, err := toByte(f.name, f.v); err != nil {
			return err
		}
	}
	if _, err := c.Layouts(); err != nil {
		return err
	}
	return nil
}

func toByte(name string, v int) (uint8, error) {
	if v < 0 || v > 0xFF {
		return 0, fmt.Errorf("%w: %s %d is not a byte", hci.ErrInvalidParameter, name, v)
	}
	return uint8(v), nil
}

// Session converts the test section, rejecting values the commands cannot encode.
func (c *Config) Session() (dtm.Session, error) {
	var s dtm.Session
	fields := []struct {
		name string
		v    int
		dst  *uint8
	}{
		{"test.channel", c.Test.Channel, &s.Channel},
		{"test.dataLength", c.Test.DataLength, &s.DataLength},
		{"test.payload", c.Test.Payload, (*uint8)(&s.Payload)},
		{"test.phy", c.Test.PHY, (*uint8)(&s.PHY)},
		{"test.modulationIndex", c.Test.ModulationIndex, (*uint8)(&s.ModulationIndex)},
	}
	for _, f := range fields {
		b, err := toByte(f.name, f.v)
		if err != nil {
			return s, err
		}
		*f.dst = b
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("test: %w", err)
	}
	return s, nil
}

func (c *Config) PacketEstimator() dtm.Estimator {
	return dtm.Estimator{Interval: c.Estimator.Interval, FudgeFactor: c.Estimator.FudgeFactor}
}

// Layouts applies the responses section on top of hci.DefaultLayouts.
func (c *Config) Layouts() (hci.Layouts, error) {
	layouts := hci.DefaultLayouts()
	for key, r := range c.Responses {
		op, err := hci.ParseOpcode(key)
		if err != nil {
			return nil, fmt.Errorf("responses.%s: %w", key, err)
		}
		l := layouts.For(op)
		if r.Length < 0 {
			return nil, fmt.Errorf("responses.%s.length: must not be negative", key)
		}
		if r.Length > 0 {
			l.Length = r.Length
		}
		if r.Field != "" {
			if r.Offset < 0 || r.Width < 1 || r.Width > 8 {
				return nil, fmt.Errorf("responses.%s: field %s needs offset >= 0 and width 1-8", key, r.Field)
			}
			l = l.WithField(hci.Field{Name: r.Field, Offset: r.Offset, Width: r.Width})
		}
		layouts[op] = l
	}
	return layouts, nil
}
