package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/flowkit/logger"
)

// FileSystem abstracts the file operations of the loader.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem is the FileSystem backed by the real disk.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (OSFileSystem) LoadEnv(path string) error { return godotenv.Load(path) }

// Files are the resolved config and env file paths; either may be empty.
type Files struct {
	ConfigFile string
	EnvFile    string
}

// Resolve returns explicit paths from opts, or searches the standard
// locations for serviceName: ./<name>.yml, ./config/<name>.yml,
// ./cmd/<name>/config.yml and ./config.yml, then .env.<name> and .env.
func Resolve(fs FileSystem, serviceName string, opts Options) Files {
	files := Files{ConfigFile: opts.ConfigFile, EnvFile: opts.EnvFile}
	if files.ConfigFile == "" {
		files.ConfigFile = firstExisting(fs, []string{
			serviceName + ".yml",
			serviceName + ".yaml",
			filepath.Join("config", serviceName+".yml"),
			filepath.Join("cmd", serviceName, "config.yml"),
			"config.yml",
		})
	}
	if files.EnvFile == "" {
		files.EnvFile = firstExisting(fs, []string{
			".env." + serviceName,
			filepath.Join("cmd", serviceName, ".env"),
			".env",
		})
	}
	return files
}

func firstExisting(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// Options holds loader dependencies and explicit file paths.
type Options struct {
	FileSystem FileSystem
	ConfigFile string
	EnvFile    string
	// Overrides are applied last, keyed by dotted viper key.
	Overrides map[string]any
}

// Option configures Load.
type Option func(*Options)

// WithFileSystem replaces the disk with fs.
func WithFileSystem(fs FileSystem) Option {
	return func(o *Options) { o.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) Option {
	return func(o *Options) { o.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) Option {
	return func(o *Options) { o.EnvFile = path }
}

// WithOverride sets key to value after files and environment are read.
func WithOverride(key string, value any) Option {
	return func(o *Options) {
		if o.Overrides == nil {
			o.Overrides = map[string]any{}
		}
		o.Overrides[key] = value
	}
}

// Load reads the config file, then the .env file and the environment, into
// cfg. Later sources win. A missing file is not an error; an unreadable one
// is logged and skipped.
func Load(serviceName string, cfg any, opts ...Option) error {
	o := Options{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&o)
	}
	files := Resolve(o.FileSystem, serviceName, o)
	log := logger.WithComponent("config")

	v := viper.New()
	if files.ConfigFile != "" && o.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			log.Warn("config file not loaded", logger.Fields("file", files.ConfigFile, logger.FieldError, err.Error()))
		}
	}
	if files.EnvFile != "" && o.FileSystem.Exists(files.EnvFile) {
		if err := o.FileSystem.LoadEnv(files.EnvFile); err != nil {
			log.Warn("env file not loaded", logger.Fields("file", files.EnvFile, logger.FieldError, err.Error()))
		}
	}
	bindEnv(v, os.Environ())
	for k, val := range o.Overrides {
		v.Set(k, val)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding config for %s: %w", serviceName, err)
	}
	return nil
}

// bindEnv sets every nested key an env var could address.
func bindEnv(v *viper.Viper, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		for _, variant := range envKeyVariants(key) {
			v.Set(variant, value)
		}
	}
}

// envKeyVariants lists the dotted keys an env var may refer to, splitting
// at each underscore:
//
//	ENGINE_MAX_PARALLEL -> engine_max_parallel, engine.max.parallel,
//	                       engine.max_parallel, engine_max.parallel
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return []string{lower}
	}

	seen := map[string]bool{}
	var out []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	add(lower)
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
		add(strings.Join(parts[:i], "_") + "." + strings.Join(parts[i:], "."))
	}
	for i := 1; i < len(parts)-1; i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:len(parts)-1], "_") + "." + parts[len(parts)-1])
	}
	return out
}
