package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level 日志级别
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Logger 封装 zap 的格式化日志器
type Logger struct {
	zl *zap.Logger
}

// RotateConfig 日志文件轮转配置
type RotateConfig struct {
	Filename   string // 日志文件路径
	MaxSize    int    // 单个文件最大大小（MB）
	MaxBackups int    // 保留的旧文件数量
	MaxAge     int    // 保留天数
	Compress   bool   // 是否压缩旧文件
}

var std *Logger

func init() {
	var err error
	std, err = New(InfoLevel)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05"))
	}
	ec.CallerKey = "caller"
	ec.EncodeCaller = zapcore.ShortCallerEncoder
	ec.LevelKey = "level"
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.MessageKey = "message"
	return ec
}

// New 创建标准输出日志器
func New(level Level) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	if level == DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))
	cfg.EncoderConfig = encoderConfig()

	zl, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return nil, err
	}
	return &Logger{zl: zl}, nil
}

// NewWithRotation 创建带文件轮转的日志器
func NewWithRotation(level Level, cfg RotateConfig) (*Logger, error) {
	if cfg.MaxSize == 0 {
		cfg.MaxSize = 100
	}
	if cfg.MaxBackups == 0 {
		cfg.MaxBackups = 3
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 28
	}

	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	})

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), sink, zapLevel(level))
	zl := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
	return &Logger{zl: zl}, nil
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.zl.Fatal(fmt.Sprintf(format, args...))
}

func (l *Logger) Sync() {
	l.zl.Sync()
}

// With 附加结构化字段
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{zl: l.zl.With(fields...)}
}

// SetDefault 替换全局默认日志器
func SetDefault(l *Logger) {
	if std != nil {
		std.Sync()
	}
	std = l
}

func Debug(format string, args ...interface{}) { std.Debug(format, args...) }
func Info(format string, args ...interface{})  { std.Info(format, args...) }
func Warn(format string, args ...interface{})  { std.Warn(format, args...) }
func Error(format string, args ...interface{}) { std.Error(format, args...) }
func Fatal(format string, args ...interface{}) { std.Fatal(format, args...) }
func Sync()                                    { std.Sync() }

// ParseLevel 解析日志级别字符串
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	case "fatal":
		return FatalLevel
	default:
		return InfoLevel
	}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
