package configs

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

// =======================
// CONFIG
// =======================

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBSSLMode  string
	DBAutoMigr bool
	Seed       bool
	SeedFile   string

	JWTSecret    string
	JWTAccessTTL time.Duration

	MidtransServerKey string
	MidtransUseProd   bool

	SendgridAPIKey    string
	MailFromAddress   string
	MailFromName      string
	MailSubjectPrefix string

	StudentEmailDomain       string
	RequireEmailVerification bool
	ParentSessionTTL         time.Duration
	SessionSecret            string

	OSSEndpoint      string
	OSSAccessKey     string
	OSSSecretKey     string
	OSSSecurityToken string
	OSSBucket        string
	OSSPublicBase    string
	UploadDir        string
	PublicBaseURL    string
	ImageMaxW        int
	ImageMaxH        int

	SentryDSN string
	Release   string
}

var App Config

// =======================
// ENV LOADER
// =======================
func LoadEnv() Config {
	if !strings.EqualFold(os.Getenv("APP_ENV"), "production") {
		if err := godotenv.Load(); err != nil {
			zap.L().Warn("[CONFIG] .env not found, using system environment")
		} else {
			zap.L().Info("[CONFIG] .env loaded")
		}
	}

	App = Config{
		AppEnv:   GetEnv("APP_ENV", "development"),
		Port:     GetEnv("PORT", "3000"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		DBUser:     GetEnv("DB_USER"),
		DBPassword: GetEnv("DB_PASSWORD"),
		DBHost:     GetEnv("DB_HOST", "localhost"),
		DBPort:     GetEnv("DB_PORT", "5432"),
		DBName:     GetEnv("DB_NAME"),
		DBSSLMode:  GetEnv("DB_SSLMODE", "disable"),
		DBAutoMigr: GetEnvBool("DB_AUTO_MIGRATE", false),
		Seed:       GetEnvBool("SEED", false),
		SeedFile:   GetEnv("SEED_FILE", "internals/seeds/data/seed.yaml"),

		JWTSecret:    GetEnv("JWT_SECRET"),
		JWTAccessTTL: GetEnvDuration("JWT_ACCESS_TTL", 12*time.Hour),

		MidtransServerKey: GetEnv("MIDTRANS_SERVER_KEY"),
		MidtransUseProd:   GetEnvBool("MIDTRANS_USE_PROD", false),

		SendgridAPIKey:    GetEnv("SENDGRID_API_KEY"),
		MailFromAddress:   GetEnv("MAIL_FROM_ADDRESS", "admissions@localhost"),
		MailFromName:      GetEnv("MAIL_FROM_NAME", "Admissions Office"),
		MailSubjectPrefix: GetEnv("MAIL_SUBJECT_PREFIX", "[Admissions] "),

		StudentEmailDomain:       GetEnv("STUDENT_EMAIL_DOMAIN", "rj.gov.in"),
		RequireEmailVerification: GetEnvBool("REQUIRE_EMAIL_VERIFICATION", false),
		ParentSessionTTL:         GetEnvDuration("PARENT_SESSION_TTL", 4*time.Hour),
		SessionSecret:            GetEnv("SESSION_SECRET"),

		OSSEndpoint:      GetEnv("ALI_OSS_ENDPOINT"),
		OSSAccessKey:     GetEnv("ALI_OSS_ACCESS_KEY"),
		OSSSecretKey:     GetEnv("ALI_OSS_SECRET_KEY"),
		OSSSecurityToken: GetEnv("ALI_OSS_SECURITY_TOKEN"),
		OSSBucket:        GetEnv("ALI_OSS_BUCKET"),
		OSSPublicBase:    GetEnv("ALI_OSS_PUBLIC_BASE"),
		UploadDir:        GetEnv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:    GetEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		ImageMaxW:        GetEnvInt("IMAGE_MAX_W", 1600),
		ImageMaxH:        GetEnvInt("IMAGE_MAX_H", 1600),

		SentryDSN: GetEnv("SENTRY_DSN"),
		Release:   GetEnv("RELEASE", "dev"),
	}

	if App.JWTSecret == "" {
		zap.L().Error("[CONFIG] JWT_SECRET is not set")
	}
	if App.SessionSecret == "" {
		App.SessionSecret = App.JWTSecret
	}
	return App
}

func (c Config) Validate() error {
	var missing []string
	if c.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return errors.New("missing env: " + strings.Join(missing, ", "))
	}
	return nil
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

func GetEnvInt(key string, def int) int {
	if v := GetEnv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func GetEnvBool(key string, def bool) bool {
	switch strings.ToLower(GetEnv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func GetEnvDuration(key string, def time.Duration) time.Duration {
	if v := GetEnv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// =======================
// GORM LOGGER (zap)
// =======================
type GormLogger struct {
	SlowThreshold time.Duration
	LogLevel      gormLogger.LogLevel
	log           *zap.Logger
}

func NewGormLogger(base *zap.Logger, level gormLogger.LogLevel) gormLogger.Interface {
	if base == nil {
		base = zap.L()
	}
	return &GormLogger{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      level,
		log:           base.Named("gorm"),
	}
}

func (l *GormLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	cp := *l
	cp.LogLevel = level
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= gormLogger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= gormLogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("file", utils.FileWithLineNum()),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && !errors.Is(err, gormLogger.ErrRecordNotFound) && l.LogLevel >= gormLogger.Error:
		l.log.Error("[QUERY] failed", append(fields, zap.Error(err))...)
	case elapsed > l.SlowThreshold && l.LogLevel >= gormLogger.Warn:
		l.log.Warn("[SLOW SQL]", fields...)
	case l.LogLevel >= gormLogger.Info:
		l.log.Debug("[QUERY]", fields...)
	}
}
