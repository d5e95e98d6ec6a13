package main

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/IgesAI/AMautomation/internal/config"
	"github.com/IgesAI/AMautomation/internal/handler"
	"github.com/IgesAI/AMautomation/internal/infra/cache"
	"github.com/IgesAI/AMautomation/internal/infra/db"
	"github.com/IgesAI/AMautomation/internal/infra/mailer"
	infraRepo "github.com/IgesAI/AMautomation/internal/infra/repository"
	"github.com/IgesAI/AMautomation/internal/notify"
	"github.com/IgesAI/AMautomation/internal/server"
	"github.com/IgesAI/AMautomation/internal/usecase"
	auth "github.com/IgesAI/AMautomation/internal/usecase/auth_usecase"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const adminHashCost = 12

// APP_TIMEZONE の現在時刻
type realClock struct {
	loc *time.Location
}

func (c *realClock) Now() time.Time {
	if c.loc == nil {
		return time.Now()
	}
	return time.Now().In(c.loc)
}

// app は起動に必要な部品をまとめたもの
type app struct {
	db       *gorm.DB
	cache    *cache.RedisCache
	notifier *notify.Notifier
	txUC     *usecase.TransactionUsecase
	issuer   *auth.JWTIssuer
	handlers server.Handlers
}

func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// DB接続 → Repository → notify → Usecase → Handler の順に組み立てる
func buildApp(cfg config.Config, log *logrus.Logger) (*app, error) {
	gormDB, err := db.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}

	rc, err := cache.NewRedisCache(cfg.Redis)
	if err != nil {
		return nil, err
	}
	rc.WithLogger(log)

	//Repository（GORM実装）生成
	items := infraRepo.NewItemGormRepository(gormDB)
	categories := infraRepo.NewCategoryGormRepository(gormDB)
	locations := infraRepo.NewLocationGormRepository(gormDB)
	suppliers := infraRepo.NewSupplierGormRepository(gormDB)
	txs := infraRepo.NewTransactionGormRepository(gormDB)
	rules := infraRepo.NewNotificationRuleGormRepository(gormDB)
	logs := infraRepo.NewNotificationLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	clock := &realClock{loc: cfg.Location}

	notifier := notify.New(notify.Deps{
		Items:        items,
		Rules:        rules,
		Transactions: txs,
		Logs:         logs,
		Mailer:       mailer.NewSMTPMailer(cfg.SMTP, log),
		Locker:       rc,
		Clock:        clock,
		Log:          log,
	}, notify.Config{
		DefaultRecipients: cfg.Notify.DefaultRecipients,
		SendTimeout:       cfg.SMTP.Timeout,
		AppURL:            cfg.Server.AppURL,
		From:              cfg.SMTP.From,
	})

	//JWT issuer
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret, err = randomSecret()
		if err != nil {
			return nil, err
		}
		log.Warn("JWT_SECRET is not set; using a random secret (admin sessions end on restart)")
	}
	issuer := auth.NewJWTIssuer(secret, cfg.Auth.TokenTTL)

	passwordHash, err := adminPasswordHash(cfg.Auth)
	if err != nil {
		return nil, err
	}
	if passwordHash == "" {
		log.Warn("ADMIN_PASSWORD is not set; admin login is disabled")
	}

	//Usecase生成
	loginUC := auth.NewAdminLoginUsecase(auth.NewBcryptPasswordVerifier(), issuer, clock, passwordHash)
	txUC := usecase.NewTransactionUsecase(txm, items, txs, notifier, rc, clock, log)
	itemUC := usecase.NewItemUsecase(items, categories, locations, suppliers, rc, clock, log)
	catalogUC := usecase.NewCatalogUsecase(categories, locations, suppliers, items, log)
	ruleUC := usecase.NewNotificationRuleUsecase(rules, items, categories, log)
	notifyUC := usecase.NewNotificationUsecase(notifier, rules, logs, cfg.SMTP, cfg.Notify.DefaultRecipients, log)
	summaryUC := usecase.NewSummaryUsecase(items, txs, rc, clock, log)

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}

	//Handler生成
	handlers := server.Handlers{
		Admin:         handler.NewAdminHandler(loginUC, issuer, issuer.TTL(), cfg.Server.CookieSecure, log),
		Summary:       handler.NewSummaryHandler(summaryUC, sqlDB),
		Items:         handler.NewItemHandler(itemUC),
		Transactions:  handler.NewTransactionHandler(txUC),
		Catalog:       handler.NewCatalogHandler(catalogUC),
		Notifications: handler.NewNotificationHandler(ruleUC, notifyUC),
	}

	return &app{
		db:       gormDB,
		cache:    rc,
		notifier: notifier,
		txUC:     txUC,
		issuer:   issuer,
		handlers: handlers,
	}, nil
}

// ハッシュがあればそのまま、平文だけなら起動時にハッシュ化する
func adminPasswordHash(cfg config.AuthConfig) (string, error) {
	if cfg.AdminPasswordHash != "" {
		return cfg.AdminPasswordHash, nil
	}
	if cfg.AdminPassword == "" {
		return "", nil
	}
	hash, err := auth.NewBcryptPasswordHasher(adminHashCost).Hash(cfg.AdminPassword)
	if err != nil {
		return "", errors.Wrap(err, "hash ADMIN_PASSWORD")
	}
	return hash, nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "generate jwt secret")
	}
	return hex.EncodeToString(b), nil
}
