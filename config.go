/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	aiJudge         bool
	bind            string
	chatFile        string
	historyDB       string
	judgeTimeout    time.Duration
	judgingPause    time.Duration
	levels          string
	marker          string
	pollInterval    time.Duration
	port            int
	prefix          string
	profile         bool
	tlsCert         string
	tlsKey          string
	transitionPause time.Duration
	verbose         bool
	version         bool
	viewerBuffer    int

	logger zerolog.Logger
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("invalid poll interval (must be positive): %s", c.pollInterval)
	}
	if c.judgingPause < 0 || c.transitionPause < 0 || c.judgeTimeout < 0 {
		return errors.New("pauses and timeouts cannot be negative")
	}
	if strings.TrimSpace(c.marker) == "" {
		return errors.New("answer marker cannot be empty")
	}
	if c.viewerBuffer < 1 {
		return fmt.Errorf("invalid viewer buffer (must be at least 1): %d", c.viewerBuffer)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MEETQUIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "meetquiz",
		Short:         "A party quiz played through a video meeting's chat.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			bindEnv(v, cmd.Flags())
			cfg.logger = newLogger(cfg)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.BoolVar(&cfg.aiJudge, "ai-judge", false, "judge answers by meaning with an AI model, reads GEMINI_API_KEY (env: MEETQUIZ_AI_JUDGE)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: MEETQUIZ_BIND)")
	fs.StringVar(&cfg.chatFile, "chat-file", "", "read chat from a file of \"sender: message\" lines instead of the browser relay (env: MEETQUIZ_CHAT_FILE)")
	fs.StringVar(&cfg.historyDB, "history-db", "", "path to a sqlite database journaling every game event (env: MEETQUIZ_HISTORY_DB)")
	fs.DurationVar(&cfg.judgeTimeout, "judge-timeout", 10*time.Second, "time allowed for a single judgement before falling back to exact match (env: MEETQUIZ_JUDGE_TIMEOUT)")
	fs.DurationVar(&cfg.judgingPause, "judging-pause", 2*time.Second, "dramatic pause between announcing and judging a guess (env: MEETQUIZ_JUDGING_PAUSE)")
	fs.StringVarP(&cfg.levels, "levels", "l", "", "path to a yaml level catalog, built-in levels if unset (env: MEETQUIZ_LEVELS)")
	fs.StringVarP(&cfg.marker, "marker", "m", "!", "prefix that marks a chat message as an answer (env: MEETQUIZ_MARKER)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", 100*time.Millisecond, "how often to read the chat (env: MEETQUIZ_POLL_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: MEETQUIZ_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: MEETQUIZ_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: MEETQUIZ_PROFILE)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: MEETQUIZ_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: MEETQUIZ_TLS_KEY)")
	fs.DurationVar(&cfg.transitionPause, "transition-pause", 3*time.Second, "time spent between levels before judging resumes (env: MEETQUIZ_TRANSITION_PAUSE)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: MEETQUIZ_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: MEETQUIZ_VERSION)")
	fs.IntVar(&cfg.viewerBuffer, "viewer-buffer", 64, "events buffered per viewer before it is dropped (env: MEETQUIZ_VIEWER_BUFFER)")

	cmd.AddCommand(newWatchCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("meetquiz v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
