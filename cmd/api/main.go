package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bitacora/api/internal/adjuntos"
	"bitacora/api/internal/app"
	"bitacora/api/internal/authpw"
	"bitacora/api/internal/config"
	"bitacora/api/internal/email"
	"bitacora/api/internal/export"
	"bitacora/api/internal/search"
	"bitacora/api/internal/session"
	"bitacora/api/internal/store"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := store.ApplyMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	postgresStore := store.NewPostgresStore(db)

	pgfts := search.NewPgFTS(db)
	var meili *search.Meili
	if cfg.MeiliURL != "" {
		meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		log.Printf("search: meilisearch configured at %s", cfg.MeiliURL)
	} else {
		log.Printf("search: meilisearch not configured, using postgres full-text search")
	}
	searchService := search.NewService(meili, pgfts)

	exportService := export.NewService(&exportStoreAdapter{store: postgresStore})

	var service *app.Service
	if cfg.RedisURL != "" {
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("connect to redis: %v", err)
		}
		defer redisStore.Close()
		log.Printf("sessions: redis store configured")
		service = app.NewWithSessionStore(cfg, postgresStore, redisStore, searchService, exportService)
	} else {
		log.Printf("sessions: using postgres store")
		service = app.New(cfg, postgresStore, searchService, exportService)
	}

	service.SetAuthPasswordService(authpw.NewService(postgresStore, cfg.JWTSecret))

	if cfg.SMTPHost != "" {
		service.SetEmailService(email.NewService(email.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
			FromName: cfg.SMTPFromName,
		}))
		log.Printf("email: smtp configured via %s", cfg.SMTPHost)
	} else {
		log.Printf("email: smtp not configured, verification tokens returned in responses")
	}

	if cfg.MinioEndpoint != "" {
		storage, err := adjuntos.New(ctx, adjuntos.Config{
			Endpoint:   cfg.MinioEndpoint,
			AccessKey:  cfg.MinioAccessKey,
			SecretKey:  cfg.MinioSecretKey,
			UseSSL:     cfg.MinioUseSSL,
			Bucket:     cfg.MinioBucket,
			PublicBase: cfg.MinioPublicURL,
		})
		if err != nil {
			log.Fatalf("connect to object storage: %v", err)
		}
		service.SetAttachmentStorage(storage)
		log.Printf("adjuntos: object storage configured at %s", cfg.MinioEndpoint)
	} else {
		log.Printf("adjuntos: object storage not configured, uploads disabled")
	}

	if err := service.Bootstrap(ctx); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("api listening on %s", cfg.Addr)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	case sig := <-stop:
		log.Printf("received %s, shutting down", sig)
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

// exportStoreAdapter exposes the postgres store under the export package's
// narrower data interface.
type exportStoreAdapter struct {
	store *store.PostgresStore
}

func (a *exportStoreAdapter) GetIniciativa(ctx context.Context, id string) (export.IniciativaInfo, error) {
	item, err := a.store.GetIniciativa(ctx, id)
	if err != nil {
		return export.IniciativaInfo{}, err
	}
	return export.IniciativaInfo{
		ID:     item.ID,
		Codigo: item.Codigo,
		Nombre: item.Nombre,
		Etapa:  item.Etapa,
	}, nil
}

func (a *exportStoreAdapter) ListRegistros(ctx context.Context, iniciativaID string) ([]export.RegistroInfo, error) {
	registros, err := a.store.ListRegistros(ctx, iniciativaID)
	if err != nil {
		return nil, err
	}
	infos := make([]export.RegistroInfo, 0, len(registros))
	for _, reg := range registros {
		info := export.RegistroInfo{
			Fecha:       reg.Fecha,
			Descripcion: reg.Descripcion,
		}
		if reg.AdjuntoURL != nil {
			info.AdjuntoURL = *reg.AdjuntoURL
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (a *exportStoreAdapter) ListMembers(ctx context.Context, iniciativaID string) ([]export.MemberInfo, error) {
	members, err := a.store.ListMembers(ctx, iniciativaID)
	if err != nil {
		return nil, err
	}
	infos := make([]export.MemberInfo, 0, len(members))
	for _, member := range members {
		infos = append(infos, export.MemberInfo{
			Email: member.Email,
			Role:  member.Role,
		})
	}
	return infos, nil
}
