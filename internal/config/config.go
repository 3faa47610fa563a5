package config

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string `mapstructure:"PORT"`
	DatabaseDriver string `mapstructure:"DATABASE_DRIVER"`
	DatabasePath   string `mapstructure:"DATABASE_PATH"`
	DatabaseDSN    string `mapstructure:"DATABASE_DSN"`
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	FrontendURL    string `mapstructure:"FRONTEND_URL"`
	SiteURL        string `mapstructure:"SITE_URL"`
	PublicAPIURL   string `mapstructure:"PUBLIC_API_URL"`
	EnableCORS     bool   `mapstructure:"ENABLE_CORS"`

	GoogleClientID     string `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `mapstructure:"GOOGLE_REDIRECT_URL"`
	GoogleMapsAPIKey   string `mapstructure:"GOOGLE_MAPS_API_KEY"`
	CalendarTimezone   string `mapstructure:"CALENDAR_TIMEZONE"`
	CalendarAPIURL     string `mapstructure:"CALENDAR_API_URL"`

	GrowAPIURL       string `mapstructure:"GROW_API_URL"`
	GrowPageCode     string `mapstructure:"GROW_PAGE_CODE"`
	GrowUserID       string `mapstructure:"GROW_USER_ID"`
	MeshulamPageCode string `mapstructure:"MESHULAM_PAGE_CODE"`
	PayPalVerifyURL  string `mapstructure:"PAYPAL_IPN_VERIFY_URL"`
	StripeSecretKey  string `mapstructure:"STRIPE_SECRET_KEY"`

	WebPushPublicKey  string `mapstructure:"WEB_PUSH_PUBLIC_KEY"`
	WebPushPrivateKey string `mapstructure:"WEB_PUSH_PRIVATE_KEY"`
	WebPushSubject    string `mapstructure:"WEB_PUSH_SUBJECT"`

	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`
	AdminEmail   string `mapstructure:"ADMIN_EMAIL"`

	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`

	ReminderWindowHours int `mapstructure:"REMINDER_WINDOW_HOURS"`
}

var boundEnv = []string{
	"DATABASE_DSN",
	"JWT_SECRET",
	"ENABLE_CORS",
	"GOOGLE_CLIENT_ID",
	"GOOGLE_CLIENT_SECRET",
	"GOOGLE_MAPS_API_KEY",
	"GROW_PAGE_CODE",
	"GROW_USER_ID",
	"MESHULAM_PAGE_CODE",
	"STRIPE_SECRET_KEY",
	"WEB_PUSH_PUBLIC_KEY",
	"WEB_PUSH_PRIVATE_KEY",
	"SMTP_HOST",
	"SMTP_USERNAME",
	"SMTP_PASSWORD",
	"SMTP_FROM",
	"ADMIN_EMAIL",
	"DISCORD_BOT_TOKEN",
	"DISCORD_NOTIFICATIONS_CHANNEL_ID",
}

func LoadConfig() *Config {
	// A missing .env is fine; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_PATH", "groupy.db")
	viper.SetDefault("FRONTEND_URL", "http://127.0.0.1:5173")
	viper.SetDefault("SITE_URL", "https://groupyloopy.app")
	viper.SetDefault("PUBLIC_API_URL", "http://127.0.0.1:8080")
	viper.SetDefault("GOOGLE_REDIRECT_URL", "http://127.0.0.1:8080/auth/google/callback")
	viper.SetDefault("CALENDAR_TIMEZONE", "Asia/Jerusalem")
	viper.SetDefault("CALENDAR_API_URL", "https://www.googleapis.com/calendar/v3")
	viper.SetDefault("GROW_API_URL", "https://sandbox.meshulam.co.il/api/light/server/1.0")
	viper.SetDefault("PAYPAL_IPN_VERIFY_URL", "https://ipnpb.paypal.com/cgi-bin/webscr")
	viper.SetDefault("WEB_PUSH_SUBJECT", "mailto:admin@groupyloopy.app")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("REMINDER_WINDOW_HOURS", 24)

	for _, key := range boundEnv {
		viper.BindEnv(key)
	}

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
