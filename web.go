/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Seednode/meetquiz/chat"
	"github.com/Seednode/meetquiz/game"
	"github.com/Seednode/meetquiz/history"
	"github.com/Seednode/meetquiz/judge"
	"github.com/Seednode/meetquiz/levels"
	"github.com/julienschmidt/httprouter"
)

const (
	logDate string        = `2006-01-02T15:04:05.000-07:00`
	timeout time.Duration = 10 * time.Second
)

// quiz is one running game and everything feeding it.
type quiz struct {
	session *game.Session
	poller  *game.Poller
	referee *game.Referee
	relay   *chat.Relay
	journal *history.Journal
}

func newQuiz(ctx context.Context, cfg *Config) (*quiz, error) {
	catalog := levels.Default()
	if cfg.levels != "" {
		var err error
		catalog, err = levels.Load(cfg.levels)
		if err != nil {
			return nil, err
		}
	}

	q := &quiz{
		session: game.NewSession(catalog, game.NewHub(cfg.viewerBuffer, cfg.logger.With().Str("component", "hub").Logger())),
	}

	var source game.ChatSource
	if cfg.chatFile != "" {
		source = chat.File{Path: cfg.chatFile}
	} else {
		q.relay = chat.NewRelay(cfg.logger.With().Str("component", "relay").Logger())
		source = q.relay
	}

	var j game.Judge = judge.Exact{}
	if cfg.aiJudge {
		jc, err := judge.ConfigFromEnv()
		if err != nil {
			return nil, err
		}

		j, err = judge.NewAI(jc, cfg.logger.With().Str("component", "judge").Logger())
		if err != nil {
			return nil, err
		}
	}

	q.poller = game.NewPoller(q.session, source, game.PollerConfig{
		Marker:   cfg.marker,
		Interval: cfg.pollInterval,
	}, cfg.logger.With().Str("component", "poller").Logger())

	q.referee = game.NewReferee(q.session, j, game.RefereeConfig{
		JudgingPause:    cfg.judgingPause,
		TransitionPause: cfg.transitionPause,
		JudgeTimeout:    cfg.judgeTimeout,
	}, cfg.logger.With().Str("component", "referee").Logger())

	if cfg.historyDB != "" {
		var err error
		q.journal, err = history.Open(ctx, cfg.historyDB, cfg.logger.With().Str("component", "history").Logger())
		if err != nil {
			return nil, err
		}
	}

	return q, nil
}

// run drives the game until ctx is done.
func (q *quiz) run(ctx context.Context) {
	if q.journal != nil {
		go q.journal.Follow(ctx, q.session)
	}

	go q.poller.Run(ctx)

	q.referee.Run(ctx)
}

func (q *quiz) close() error {
	if q.journal != nil {
		return q.journal.Close()
	}

	return nil
}

func securityHeaders(cfg *Config, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'")

	if cfg.scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

func serveVersion(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusOK)

		written, err := w.Write([]byte("meetquiz v" + releaseVersion + "\n"))
		if err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Version page (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func registerRoutes(cfg *Config, mux *httprouter.Router, q *quiz, errs chan<- error) {
	mux.GET(cfg.prefix+"/", serveStatus(cfg, errs))

	mux.GET(cfg.prefix+"/events", serveEvents(cfg, q.session, errs))

	mux.GET(cfg.prefix+"/ws", serveViewerSocket(cfg, q.session))

	mux.GET(cfg.prefix+"/view", serveViewer(cfg, "view/index.html", errs))

	mux.GET(cfg.prefix+"/view.css", serveViewer(cfg, "view/view.css", errs))

	mux.GET(cfg.prefix+"/view.js", serveViewer(cfg, "view/view.js", errs))

	mux.GET(cfg.prefix+"/qr", serveQR(cfg, errs))

	mux.GET(cfg.prefix+"/state", serveState(cfg, q.session, errs))

	mux.GET(cfg.prefix+"/history", serveHistory(cfg, q.journal, errs))

	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, errs))

	mux.GET(cfg.prefix+"/robots.txt", serveRobots(cfg, errs))

	mux.GET(cfg.prefix+"/version", serveVersion(cfg, errs))

	if q.relay != nil {
		mux.Handler(http.MethodGet, cfg.prefix+"/chat/ws", q.relay)
	}

	if cfg.profile {
		registerProfileHandlers(cfg, mux)
	}
}

func ServePage(ctx context.Context, cfg *Config, args []string) error {
	var err error

	timeZone := os.Getenv("TZ")
	if timeZone != "" {
		time.Local, err = time.LoadLocation(timeZone)
		if err != nil {
			return err
		}
	}

	logf(cfg, "START: meetquiz v%s", releaseVersion)

	q, err := newQuiz(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := q.close(); err != nil {
			cfg.logger.Warn().Err(err).Msg("closing history failed")
		}
	}()

	mux := httprouter.New()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.bind, strconv.Itoa(cfg.port)),
		Handler:           mux,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       timeout,
		ReadHeaderTimeout: timeout,
		WriteTimeout:      timeout,
	}

	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		cfg.logger.Error().Interface("panic", i).Str("path", r.URL.Path).Msg("handler panicked")

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(cfg, w)
		w.WriteHeader(http.StatusInternalServerError)

		io.WriteString(w, "An error has occurred. Please try again.\n")
	}

	errs := make(chan error, 64)
	go logErrors(cfg, errs)

	cfg.prefix = strings.TrimSuffix(cfg.prefix, "/")

	registerRoutes(cfg, mux, q, errs)

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	srv.BaseContext = func(net.Listener) context.Context {
		return ctx
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		q.run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logf(cfg, "SERVE: Listening on %s://%s%s/", cfg.scheme(), srv.Addr, cfg.prefix)
		if cfg.tlsKey != "" && cfg.tlsCert != "" {
			serveErr <- srv.ListenAndServeTLS(cfg.tlsCert, cfg.tlsKey)
		} else {
			serveErr <- srv.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	}

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	<-done

	return err
}
