package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		AppName          string
		Build            string
		Env              string // DEV (local; default), TEST, QA, PROD
		Debug            bool
		TestMode         bool
		WorkDir          string
		SecretKey        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		DefaultMeetLink  string
		RollbarToken     string
		SendgridApiKey   string

		PasswordResetTimeout time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Storage  StorageConfig
		SMTP     SMTPConfig
		Twilio   TwilioConfig
	}

	ServerConfig struct {
		Host            string
		Port            string
		DebugHost       string
		ShutdownTimeout time.Duration
		StudentTokenTTL time.Duration
		AdminTokenTTL   time.Duration
		UploadLimit     string
	}

	DatabaseConfig struct {
		Engine     string // mongodb, postgres, memory
		URI        string // mongodb only
		Name       string
		Host       string
		Port       string
		User       string
		Password   string
		DisableTLS bool
		Timeout    time.Duration
	}

	StorageConfig struct {
		Backend   string // local, b2
		UploadDir string
		B2KeyID   string
		B2AppKey  string
		B2Bucket  string
	}

	SMTPConfig struct {
		Host     string
		Port     int
		Username string
		Password string
	}

	TwilioConfig struct {
		AccountSID         string
		AuthToken          string
		FromNumber         string
		DefaultCountryCode string
	}
)

const (
	EngineMongo    = "mongodb"
	EnginePostgres = "postgres"
	EngineMemory   = "memory"

	StorageLocal = "local"
	StorageB2    = "b2"
)

func (c DatabaseConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

func setDefaults(v *viper.Viper, wd string) {
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "ENTHUSIASM 1.0")
	v.SetDefault("build", "develop")
	v.SetDefault("secretKey", "m7#q2-vh$1o=j(8k!t0p%x4b)zs&9ewr+c5na6ud3yl@f")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "ENTHUSIASM 1.0 <noreply@localhost>")
	v.SetDefault("defaultMeetLink", "https://bit.ly/enthusiasmclasslink")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeout", time.Hour)

	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.debugHost", "localhost:4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.studentTokenTTL", 24*time.Hour)
	v.SetDefault("server.adminTokenTTL", 12*time.Hour)
	v.SetDefault("server.uploadLimit", "10M")

	v.SetDefault("database.engine", EngineMongo)
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "enthusiasm")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("database.timeout", 10*time.Second)

	v.SetDefault("storage.backend", StorageLocal)
	v.SetDefault("storage.uploadDir", filepath.Join(wd, "public", "uploads"))
	v.SetDefault("storage.b2KeyID", "")
	v.SetDefault("storage.b2AppKey", "")
	v.SetDefault("storage.b2Bucket", "")

	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 465)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")

	v.SetDefault("twilio.accountSID", "")
	v.SetDefault("twilio.authToken", "")
	v.SetDefault("twilio.fromNumber", "")
	v.SetDefault("twilio.defaultCountryCode", "+234")
}

// NewConfig loads the application configuration from the environment.
// `config/.env.<env>` is loaded first when it exists; variables are then read with the `<ENV>_` prefix,
// nested keys joined by underscores (eg. DEV_DATABASE_URI).
func NewConfig() *Config {
	v := viper.New()

	wd, err := os.Getwd()
	if err != nil {
		log.Fatalf("config.os.Getwd(): %v", err)
	}
	setDefaults(v, wd)

	env := strings.ToUpper(os.Getenv("ENV"))
	if env == "" {
		env = "DEV"
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(wd, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		AppName:              v.GetString("appName"),
		Build:                v.GetString("build"),
		Env:                  env,
		Debug:                v.GetBool("debug"),
		TestMode:             env == "TEST",
		WorkDir:              wd,
		SecretKey:            v.GetString("secretKey"),
		FrontendBaseURL:      strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		DefaultMeetLink:      v.GetString("defaultMeetLink"),
		RollbarToken:         v.GetString("rollbarToken"),
		SendgridApiKey:       v.GetString("sendgridApiKey"),
		PasswordResetTimeout: v.GetDuration("passwordResetTimeout"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Port:            v.GetString("server.port"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
			StudentTokenTTL: v.GetDuration("server.studentTokenTTL"),
			AdminTokenTTL:   v.GetDuration("server.adminTokenTTL"),
			UploadLimit:     v.GetString("server.uploadLimit"),
		},
		Database: DatabaseConfig{
			Engine:     strings.ToLower(v.GetString("database.engine")),
			URI:        v.GetString("database.uri"),
			Name:       v.GetString("database.name"),
			Host:       v.GetString("database.host"),
			Port:       v.GetString("database.port"),
			User:       v.GetString("database.user"),
			Password:   v.GetString("database.password"),
			DisableTLS: v.GetBool("database.disableTLS"),
			Timeout:    v.GetDuration("database.timeout"),
		},
		Storage: StorageConfig{
			Backend:   strings.ToLower(v.GetString("storage.backend")),
			UploadDir: v.GetString("storage.uploadDir"),
			B2KeyID:   v.GetString("storage.b2KeyID"),
			B2AppKey:  v.GetString("storage.b2AppKey"),
			B2Bucket:  v.GetString("storage.b2Bucket"),
		},
		SMTP: SMTPConfig{
			Host:     v.GetString("smtp.host"),
			Port:     v.GetInt("smtp.port"),
			Username: v.GetString("smtp.username"),
			Password: v.GetString("smtp.password"),
		},
		Twilio: TwilioConfig{
			AccountSID:         v.GetString("twilio.accountSID"),
			AuthToken:          v.GetString("twilio.authToken"),
			FromNumber:         v.GetString("twilio.fromNumber"),
			DefaultCountryCode: v.GetString("twilio.defaultCountryCode"),
		},
	}

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.mail.ParseAddress(defaultFromEmail): %v", err)
	}
	conf.DefaultFromEmail = *from
	return conf
}

// NewTestConfig returns a Config suited for tests: in-memory database, console services, short secrets.
func NewTestConfig(uploadDir string) *Config {
	return &Config{
		AppName:              "ENTHUSIASM 1.0",
		Build:                "test",
		Env:                  "TEST",
		Debug:                false,
		TestMode:             true,
		SecretKey:            "secret",
		FrontendBaseURL:      "http://localhost:3000",
		DefaultFromEmail:     mail.Address{Name: "ENTHUSIASM 1.0", Address: "noreply@localhost"},
		DefaultMeetLink:      "https://bit.ly/enthusiasmclasslink",
		PasswordResetTimeout: time.Hour,
		Server: ServerConfig{
			StudentTokenTTL: 24 * time.Hour,
			AdminTokenTTL:   12 * time.Hour,
			UploadLimit:     "10M",
		},
		Database: DatabaseConfig{Engine: EngineMemory},
		Storage:  StorageConfig{Backend: StorageLocal, UploadDir: uploadDir},
		Twilio:   TwilioConfig{DefaultCountryCode: "+234"},
	}
}
