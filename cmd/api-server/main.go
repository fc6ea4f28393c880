// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bootcamp-admin/internal/apiserver/auth"
	"bootcamp-admin/internal/apiserver/server"
	"bootcamp-admin/internal/config"
	"bootcamp-admin/internal/shared/geocode"
	"bootcamp-admin/internal/shared/mailer"
	"bootcamp-admin/internal/shared/photostore"
	"bootcamp-admin/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换 YAML 配置）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.DatabaseName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 地理编码客户端（可选 Redis 缓存）
	var geocoder geocode.Geocoder = geocode.NewClient(cfg.GeocoderURL)
	if cfg.RedisURL != "" {
		cached, err := geocode.NewCachedGeocoderFromURL(geocoder, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer cached.Close()
		geocoder = cached
		log.Println("Geocode cache enabled (Redis)")
	}

	// 照片存储后端
	photos, err := newPhotoStore(cfg)
	if err != nil {
		log.Fatalf("Failed to init photo storage: %v", err)
	}

	// 邮件发送
	mail := mailer.New(mailer.Config{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTPUsername,
		Password:  cfg.SMTPPassword,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
	})

	h := server.NewHandler(store, geocoder, photos, mail, server.Options{
		AuthConfig: auth.Config{
			JWTSecret:        cfg.JWTSecret,
			TokenTTL:         cfg.TokenTTL,
			CookieExpireDays: cfg.CookieExpireDays,
			SecureCookie:     cfg.SecureCookie || cfg.Env == config.EnvProduction,
			ResetTokenTTL:    cfg.ResetTokenTTL,
		},
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.Upload.MaxBytes,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// newPhotoStore 根据配置选择照片存储后端
func newPhotoStore(cfg *config.Config) (photostore.Store, error) {
	switch cfg.Upload.Backend {
	case "minio":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return photostore.NewMinIOStore(ctx, photostore.MinIOConfig{
			Endpoint:  cfg.Upload.MinIO.Endpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.Upload.MinIO.UseSSL,
			Bucket:    cfg.Upload.MinIO.Bucket,
		})
	default:
		return photostore.NewDiskStore(cfg.Upload.Dir)
	}
}
