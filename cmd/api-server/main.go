package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"comicsort/internal/auth"
	"comicsort/internal/catalog"
	"comicsort/internal/drive"
	"comicsort/internal/events"
	"comicsort/internal/healthcheck"
	"comicsort/internal/session"
	"comicsort/internal/snapshot"
	"comicsort/pkg/database"
	"comicsort/pkg/utils"
)

func main() {
	configPath := flag.String("config", "", "TOML config file (default $COMICSORT_CONFIG)")
	flag.Parse()

	cfg, err := utils.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbCfg := database.DefaultConfig()
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	snapshots := snapshot.NewRepo(db)
	source := catalog.NewMAWSource(cfg.CatalogURL, cfg.HTTPTimeout())
	store := catalog.NewStore(source, snapshots, nil)

	hub := events.NewHub(nil)
	sessions := session.NewManager(store, func(accessToken string) session.Drive {
		return drive.NewGraphClient(cfg.GraphBaseURL, accessToken, cfg.HTTPTimeout())
	}, session.Options{
		RootFolderID:     cfg.RootFolderID,
		RootFolderName:   cfg.RootFolderName,
		DestinationLabel: cfg.DestinationLabel,
		Events:           hub,
	})

	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration(),
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbCfg.Path})
	})

	ready := func(ctx context.Context) error {
		return db.PingContext(ctx)
	}

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := ready(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":     "ready",
			"db":         "ok",
			"sessions":   sessions.Len(),
			"ws_clients": hub.Stats().WSClients,
		})
	})

	auth.NewHandler(sessions, tokenSvc, cfg.Auth.OperatorPasswordHash).RegisterRoutes(router.Group("/auth"))

	requireSession := auth.AuthMiddleware(tokenSvc, sessions)

	reconcile := router.Group("/reconcile")
	reconcile.Use(requireSession)
	session.NewHandler(sessions).RegisterRoutes(reconcile)

	snaps := router.Group("/snapshots")
	snaps.Use(requireSession)
	snapshot.NewHandler(snapshots).RegisterRoutes(snaps)

	router.GET("/ws", requireSession, events.WSHandler(hub))

	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)

	var healthSrv *healthcheck.Server
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Fatalf("grpc listen failed: %v", err)
		}
		healthSrv = healthcheck.NewServer(ready, nil)
		go healthSrv.Watch(watchCtx, 10*time.Second)
		go func() {
			log.Printf("gRPC health service listening on %s", cfg.GRPCAddr)
			if err := healthSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	go func() {
		log.Printf("HTTP API server listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	stopWatch()
	if healthSrv != nil {
		healthSrv.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	log.Println("servers stopped")
}
