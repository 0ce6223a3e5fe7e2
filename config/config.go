package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	LogLevel  string
	LogFormat string

	DBDriver   string // postgres, mysql or sqlite
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	MailDriver     string // smtp, sendgrid or log
	SMTPHost       string
	SMTPPort       string
	EmailSender    string
	Password       string // SMTP Password
	SendGridAPIKey string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
	UploadDir           string

	RedisURL       string
	VerifyCacheTTL time.Duration

	SerialPrefix                 string
	FrontendCertificateVerifyURL string
	CertificateCron              string
	VerifyRatePerMinute          int
	OTPTTL                       time.Duration
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DBDriver:   getEnv("DB_DRIVER", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "sdssn"),
		DBPort:     getEnv("DB_PORT", "5432"),

		MailDriver:     getEnv("MAIL_DRIVER", "smtp"),
		SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:       getEnv("SMTP_PORT", "587"),
		EmailSender:    getEnv("EMAIL_SENDER", "defaultSecret"),
		Password:       getEnv("PASSWORD", "defaultSecret"),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),

		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "sdssn-app"),
		UploadDir:           getEnv("UPLOAD_DIR", "./public/uploads"),

		RedisURL:       getEnv("REDIS_URL", ""),
		VerifyCacheTTL: getEnvDuration("VERIFY_CACHE_TTL", 10*time.Minute),

		SerialPrefix:                 getEnv("SERIAL_PREFIX", "SDSSN"),
		FrontendCertificateVerifyURL: getEnv("FRONTEND_CERTIFICATE_VERIFY_URL", "http://localhost:5173/certificate/verify"),
		CertificateCron:              getEnv("CERTIFICATE_CRON", "*/5 * * * *"),
		VerifyRatePerMinute:          getEnvInt("VERIFY_RATE_PER_MINUTE", 60),
		OTPTTL:                       time.Duration(getEnvInt("OTP_TTL_MINUTES", 10)) * time.Minute,
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.MailDriver == "sendgrid" && AppConfig.SendGridAPIKey == "" {
		log.Println("Warning: MAIL_DRIVER=sendgrid without SENDGRID_API_KEY. Mails will fail.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to duration: %v", key, err)
		return defaultValue
	}
	return d
}
