package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config carries application-wide settings, loaded once at startup.
type Config struct {
	Debug    bool
	TestMode bool
	Env      string // DEV (local; default), TEST, QA, PROD
	AppName  string
	Build    string

	// DataDir holds the key/value and asset database files.
	DataDir      string
	DatabaseFile string // key/value snapshots
	AssetsFile   string // blob assets (photos, logo, gallery)

	RollbarToken string
}

func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("appName", "Shule")
	conf.SetDefault("dataDir", filepath.Join(userHomeDir(), ".shule"))
	conf.SetDefault("databaseFile", "shule.db")
	conf.SetDefault("assetsFile", "assets.db")
	conf.SetDefault("rollbarToken", "")

	env := os.Getenv("ENV")
	var testMode bool
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		testMode = true
	}
	conf.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Debug:        conf.GetBool("debug"),
		TestMode:     testMode,
		Env:          env,
		AppName:      conf.GetString("appName"),
		Build:        conf.GetString("build"),
		DataDir:      conf.GetString("dataDir"),
		DatabaseFile: conf.GetString("databaseFile"),
		AssetsFile:   conf.GetString("assetsFile"),
		RollbarToken: conf.GetString("rollbarToken"),
	}
}

// DatabasePath returns the full path of the key/value database file.
func (c *Config) DatabasePath() string { return filepath.Join(c.DataDir, c.DatabaseFile) }

// AssetsPath returns the full path of the blob assets database file.
func (c *Config) AssetsPath() string { return filepath.Join(c.DataDir, c.AssetsFile) }

func userHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
