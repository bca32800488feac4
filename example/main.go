package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/shwezhu/edgesession"
)

func DoNothing(_ http.ResponseWriter, _ *http.Request) {}

type app struct {
	sessions *edgesession.Engine
	log      *slog.Logger
}

func (a *app) home(w http.ResponseWriter, r *http.Request) {
	jar := edgesession.NewHTTPCookies(w, r)
	ctx := r.Context()

	visits, _, err := edgesession.GetAs[int](ctx, a.sessions, jar, "visits")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	visits++
	if err := a.sessions.Commit(ctx, jar, "visits", visits); err != nil {
		a.fail(w, r, err)
		return
	}

	notice, err := a.sessions.GetFlash(ctx, jar, "notice")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if notice != nil {
		_, _ = fmt.Fprintf(w, "%v\n", notice)
	}
	_, _ = fmt.Fprintf(w, "visits: %d\n", visits)
}

func (a *app) notify(w http.ResponseWriter, r *http.Request) {
	jar := edgesession.NewHTTPCookies(w, r)
	msg := r.URL.Query().Get("msg")
	if msg == "" {
		msg = "hello"
	}
	if err := a.sessions.CommitFlash(r.Context(), jar, "notice", msg); err != nil {
		a.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *app) logout(w http.ResponseWriter, r *http.Request) {
	jar := edgesession.NewHTTPCookies(w, r)
	if err := a.sessions.Destroy(r.Context(), jar); err != nil {
		a.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *app) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.log.ErrorContext(r.Context(), "request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if err := run(log); err != nil {
		log.Error("exit", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	// A missing .env file is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg, err := edgesession.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := edgesession.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	engine, err := edgesession.New(cfg.Secret, store, append(cfg.Options(), edgesession.WithLogger(log))...)
	if err != nil {
		return err
	}

	a := &app{sessions: engine, log: log}
	mux := http.NewServeMux()
	mux.HandleFunc("/", a.home)
	mux.HandleFunc("/notify", a.notify)
	mux.HandleFunc("/logout", a.logout)
	mux.HandleFunc("/favicon.ico", DoNothing)

	// __Host- cookies are only accepted over https, put a TLS terminating
	// proxy in front of this server when trying it in a browser.
	srv := &http.Server{Addr: ":8080", Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
