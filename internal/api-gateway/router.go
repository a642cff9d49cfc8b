package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Upstreams são os serviços internos atrás do gateway.
type Upstreams struct {
	Market string // market-service: escrita e motor
	Odds   string // odds-service: leitura, análise e /ws
}

// NewRouter monta o roteador público:
//
//	/api/markets/* -> market-service
//	/api/odds/*    -> odds-service (inclui o upgrade WebSocket em /api/odds/ws)
func NewRouter(log *zap.Logger, up Upstreams, origins []string, onProxy func(upstream string, status int)) (http.Handler, error) {
	market, err := proxy(log, "market", up.Market, onProxy)
	if err != nil {
		return nil, err
	}
	odds, err := proxy(log, "odds", up.Odds, onProxy)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/api/markets", http.StripPrefix("/api/markets", market))
	r.Mount("/api/odds", http.StripPrefix("/api/odds", odds))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r, nil
}

func proxy(log *zap.Logger, name, target string, onProxy func(string, int)) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s upstream %q", name, target)
	}
	rp := httputil.NewSingleHostReverseProxy(u)
	rp.ModifyResponse = func(resp *http.Response) error {
		if onProxy != nil {
			onProxy(name, resp.StatusCode)
		}
		return nil
	}
	rp.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Warn("upstream unavailable", zap.String("upstream", name), zap.String("path", r.URL.Path), zap.Error(err))
		if onProxy != nil {
			onProxy(name, http.StatusBadGateway)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"UPSTREAM_UNAVAILABLE","message":"` + name + ` service unavailable"}`))
	}
	return rp, nil
}
