package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dropDatabas3/olympus/internal/auth"
	"github.com/dropDatabas3/olympus/internal/config"
	"github.com/dropDatabas3/olympus/internal/http/controllers"
	"github.com/dropDatabas3/olympus/internal/http/router"
	"github.com/dropDatabas3/olympus/internal/jwt"
	"github.com/dropDatabas3/olympus/internal/metrics"
	"github.com/dropDatabas3/olympus/internal/mfa"
	"github.com/dropDatabas3/olympus/internal/observability/logger"
	"github.com/dropDatabas3/olympus/internal/prover/jwtproof"
	"github.com/dropDatabas3/olympus/internal/rate"
	"github.com/dropDatabas3/olympus/internal/security/password"
	"github.com/dropDatabas3/olympus/internal/security/totp"
	"github.com/dropDatabas3/olympus/internal/session"
	"github.com/dropDatabas3/olympus/internal/store"
)

type application struct {
	stores         *store.Stores
	handler        http.Handler
	metricsHandler http.Handler // nil si /metrics va inline
}

func (a *application) Close() error { return a.stores.Close() }

// build arma el grafo completo: stores -> MFA -> sesiones -> scheme -> handler -> router.
func build(ctx context.Context, cfg *config.Config) (_ *application, err error) {
	log := logger.L().With(logger.Component("wire"))

	stores, err := store.Open(ctx, storeConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("open stores: %w", err)
	}
	defer func() {
		if err != nil {
			_ = stores.Close()
		}
	}()

	prom, err := metrics.NewPrometheus(metricsNamespace(cfg.App.Name))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if pgs := stores.Postgres; pgs != nil {
		err := prom.RegisterPool("postgres", func() (metrics.PoolStats, bool) {
			st := pgs.PoolStats()
			if st == nil {
				return metrics.PoolStats{}, false
			}
			return metrics.PoolStats{
				Acquired: st.AcquiredConns(),
				Idle:     st.IdleConns(),
				Total:    st.TotalConns(),
				Max:      st.MaxConns(),
			}, true
		})
		if err != nil {
			return nil, fmt.Errorf("pool metrics: %w", err)
		}
	}

	authenticators := buildAuthenticators(cfg)
	if _, ok := authenticators[totp.DummyType]; ok {
		log.Warn("dummy mfa authenticator enabled")
	}
	mfaSvc := mfa.NewService(mfa.Deps{
		Users:          stores.Store,
		MFA:            stores.Store,
		Throttle:       stores.Store,
		Authenticators: authenticators,
		Metrics:        prom,
	})

	authority := session.NewAuthority(session.Deps{
		Store:       stores.Sessions,
		CookieBytes: cfg.Sessions.CookieBytes,
		Metrics:     prom,
	})

	scheme, err := buildScheme(cfg, stores, mfaSvc, authority, prom)
	if err != nil {
		return nil, err
	}

	keys, err := jwt.LoadOrGenerate(cfg.JWT.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("jwt keys: %w", err)
	}
	if cfg.JWT.KeyPath == "" {
		log.Warn("ephemeral claim signing key, tokens won't survive a restart")
	}

	var provers []auth.IdentityProver
	if cfg.Provers.JWT.Enabled {
		pub, err := jwt.LoadPublicPEM(cfg.Provers.JWT.PublicKeyPath)
		if err != nil {
			return nil, fmt.Errorf("jwt prover key: %w", err)
		}
		provers = append(provers, jwtproof.New(stores.Store, pub, cfg.Provers.JWT.Issuer))
	}

	h := auth.NewHandler(auth.Deps{
		Users:      stores.Store,
		Attributes: stores.Store,
		MFA:        mfaSvc,
		Sessions:   authority,
		Scheme:     scheme,
		Provers:    provers,
		Claims:     jwt.NewIssuer(cfg.JWT.Issuer, keys, config.Duration(cfg.JWT.TTL)),
		Metrics:    prom,
	})

	ctrls := controllers.New(controllers.Deps{
		Auth:       h,
		OTPAuthURL: otpAuthURL(mfaSvc),
		Cookie: controllers.CookieConfig{
			Name:   cfg.Server.CookieName,
			Secure: cfg.Server.CookieSecure,
			TTL:    config.Duration(cfg.Sessions.TTL),
		},
		Checks:  healthChecks(stores),
		Version: cfg.App.Version,
	})

	limiter, loginLimiter := buildLimiters(cfg, stores)
	inline := cfg.Server.MetricsAddr == ""

	app := &application{
		stores: stores,
		handler: router.New(router.Deps{
			Controllers:   ctrls,
			Sessions:      h,
			CookieName:    cfg.Server.CookieName,
			Limiter:       limiter,
			LoginLimiter:  loginLimiter,
			Metrics:       prom,
			MetricsInline: inline,
			JWKS:          keys.JWKSJSON(),
		}),
	}
	if !inline {
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		app.metricsHandler = mux
	}

	log.Info("wiring done",
		logger.Scheme(scheme.Name()),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("sessions", cfg.Sessions.Driver),
		logger.Int("provers", len(provers)),
	)
	return app, nil
}

func storeConfig(cfg *config.Config) store.Config {
	sc := store.Config{
		Driver:      cfg.Storage.Driver,
		DSN:         cfg.Storage.DSN,
		AutoMigrate: cfg.Storage.AutoMigrate,
		SecretKey:   cfg.Security.SecretBoxKey,
		Sessions: store.SessionsConfig{
			Driver:   cfg.Sessions.Driver,
			Addr:     cfg.Sessions.Redis.Addr,
			Password: cfg.Sessions.Redis.Password,
			DB:       cfg.Sessions.Redis.DB,
			Prefix:   cfg.Sessions.Redis.Prefix,
			Grace:    config.Duration(cfg.Sessions.Grace),
		},
	}
	sc.Postgres.MaxOpenConns = cfg.Storage.Postgres.MaxOpenConns
	sc.Postgres.MinConns = cfg.Storage.Postgres.MinConns
	sc.Postgres.ConnMaxLifetime = config.Duration(cfg.Storage.Postgres.ConnMaxLifetime)
	return sc
}

// buildAuthenticators registra TOTP siempre; el dummy sólo con mfa.enable_dummy.
func buildAuthenticators(cfg *config.Config) map[string]mfa.Authenticator {
	timeout := config.Duration(cfg.MFA.TimeoutPeriod)
	auths := map[string]mfa.Authenticator{
		totp.Type: totp.New(cfg.MFA.Issuer, timeout, totp.WithSkew(cfg.MFA.Skew)),
	}
	if cfg.MFA.EnableDummy {
		auths[totp.DummyType] = totp.Dummy{Timeout: timeout}
	}
	return auths
}

func buildScheme(cfg *config.Config, stores *store.Stores, mfaSvc *mfa.Service, authority *session.Authority, rec metrics.Recorder) (auth.Scheme, error) {
	throttle := config.Duration(cfg.Auth.ThrottlePeriod)
	ttl := config.Duration(cfg.Sessions.TTL)

	switch cfg.Auth.Scheme {
	case auth.PasswordSchemeName:
		rules := password.Rules{
			MinLength:     cfg.Security.PasswordPolicy.MinLength,
			RequireUpper:  cfg.Security.PasswordPolicy.RequireUpper,
			RequireLower:  cfg.Security.PasswordPolicy.RequireLower,
			RequireDigit:  cfg.Security.PasswordPolicy.RequireDigit,
			RequireSymbol: cfg.Security.PasswordPolicy.RequireSymbol,
		}
		if p := cfg.Security.PasswordBlacklistPath; p != "" {
			bl, err := password.LoadBlacklist(p)
			if err != nil {
				return nil, fmt.Errorf("password blacklist: %w", err)
			}
			rules.Blacklist = bl
		}
		return auth.NewPasswordScheme(auth.PasswordDeps{
			Users:          stores.Store,
			Throttle:       stores.Store,
			MFA:            mfaSvc,
			Sessions:       authority,
			Metrics:        rec,
			Params:         password.Default,
			Rules:          rules,
			ThrottlePeriod: throttle,
			SessionTTL:     ttl,
		}), nil

	case auth.ThresholdSchemeName:
		key, err := cfg.SharedMFAKey()
		if err != nil {
			return nil, err
		}
		s, err := auth.NewThresholdOPRFScheme(auth.ThresholdDeps{
			Users:          stores.Store,
			Throttle:       stores.Store,
			MFA:            mfaSvc,
			Sessions:       authority,
			Backend:        auth.NewSignatureBackend(config.Duration(cfg.Threshold.ProofWindow)),
			Metrics:        rec,
			SharedMFAKey:   key,
			ThrottlePeriod: throttle,
			SessionTTL:     ttl,
		})
		if err != nil {
			return nil, fmt.Errorf("threshold scheme: %w", err)
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown auth scheme %q", cfg.Auth.Scheme)
}

func buildLimiters(cfg *config.Config, stores *store.Stores) (api, login rate.Limiter) {
	if !cfg.Rate.Enabled {
		return nil, nil
	}
	window := config.Duration(cfg.Rate.Window)
	loginWindow := config.Duration(cfg.Rate.Login.Window)
	if stores.Redis != nil {
		c := stores.Redis.Client()
		prefix := cfg.Sessions.Redis.Prefix + "rl:"
		return rate.NewRedisLimiter(c, prefix, cfg.Rate.MaxRequests, window),
			rate.NewRedisLimiter(c, prefix+"login:", cfg.Rate.Login.Limit, loginWindow)
	}
	return rate.NewMemoryLimiter(cfg.Rate.MaxRequests, window),
		rate.NewMemoryLimiter(cfg.Rate.Login.Limit, loginWindow)
}

type otpAuthURLer interface {
	OTPAuthURL(username, secret string) (string, error)
}

// otpAuthURL arma el otpauth:// sólo para autenticadores que lo soportan.
func otpAuthURL(svc *mfa.Service) controllers.OTPAuthURLFunc {
	return func(mfaType, username, secret string) string {
		a, ok := svc.Authenticator(mfaType)
		if !ok {
			return ""
		}
		u, ok := a.(otpAuthURLer)
		if !ok {
			return ""
		}
		url, err := u.OTPAuthURL(username, secret)
		if err != nil {
			return ""
		}
		return url
	}
}

func healthChecks(s *store.Stores) map[string]controllers.HealthCheck {
	checks := map[string]controllers.HealthCheck{}
	if s.Postgres != nil {
		checks["postgres"] = func(ctx context.Context) error { return s.Postgres.Pool().Ping(ctx) }
	}
	if s.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return s.Redis.Client().Ping(ctx).Err() }
	}
	return checks
}

func metricsNamespace(name string) string {
	ns := strings.ToLower(strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(name))
	if ns == "" {
		return "olympus"
	}
	return ns
}
