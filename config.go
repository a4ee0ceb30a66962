package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	apiTimeout     time.Duration
	apiURL         string
	bind           string
	cacheTTL       time.Duration
	categories     int
	clues          int
	poolSize       int
	port           int
	prefix         string
	profile        bool
	redisURL       string
	sessionTimeout time.Duration
	showErrors     bool
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool

	log *log.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.categories < 1 {
		return fmt.Errorf("invalid category count (must be at least 1): %d", c.categories)
	}
	if c.clues < 1 {
		return fmt.Errorf("invalid clue count (must be at least 1): %d", c.clues)
	}
	if c.poolSize < c.categories {
		return fmt.Errorf("invalid pool size (must be at least --categories, %d): %d", c.categories, c.poolSize)
	}
	if c.apiTimeout < 0 {
		return fmt.Errorf("invalid api timeout (must not be negative): %s", c.apiTimeout)
	}
	if c.redisURL != "" && c.cacheTTL <= 0 {
		return fmt.Errorf("invalid cache ttl (must be positive when --redis-url is set): %s", c.cacheTTL)
	}

	u, err := url.Parse(c.apiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url (must be an absolute http or https url): %q", c.apiURL)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("TRIVIABOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "triviabox",
		Short:         "A self-paced trivia reveal board, served as a small webapp.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			cfg.log = newLogger(cfg)
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.DurationVar(&cfg.apiTimeout, "api-timeout", 15*time.Second, "timeout for each call to the clue api, 0 to disable (env: TRIVIABOX_API_TIMEOUT)")
	fs.StringVar(&cfg.apiURL, "api-url", "https://jservice.io/api", "base url of the jservice-compatible clue api (env: TRIVIABOX_API_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: TRIVIABOX_BIND)")
	fs.DurationVar(&cfg.cacheTTL, "cache-ttl", 24*time.Hour, "how long cached categories are kept in redis (env: TRIVIABOX_CACHE_TTL)")
	fs.IntVar(&cfg.categories, "categories", 6, "number of categories (columns) per board (env: TRIVIABOX_CATEGORIES)")
	fs.IntVar(&cfg.clues, "clues", 5, "number of clues (rows) per category (env: TRIVIABOX_CLUES)")
	fs.IntVar(&cfg.poolSize, "pool-size", 100, "number of categories to sample each board from (env: TRIVIABOX_POOL_SIZE)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: TRIVIABOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: TRIVIABOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: TRIVIABOX_PROFILE)")
	fs.StringVar(&cfg.redisURL, "redis-url", "", "redis url used to cache category details, disabled if empty (env: TRIVIABOX_REDIS_URL)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle boards are closed (env: TRIVIABOX_SESSION_TIMEOUT)")
	fs.BoolVar(&cfg.showErrors, "show-errors", false, "show a notice on the board when loading fails (env: TRIVIABOX_SHOW_ERRORS)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: TRIVIABOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: TRIVIABOX_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: TRIVIABOX_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: TRIVIABOX_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("triviabox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
