package main

import (
	"log/slog"
	"os"

	"packstore/handlers"
	"packstore/internal/auth"
	"packstore/internal/blog"
	"packstore/internal/config"
	"packstore/internal/contact"
	"packstore/internal/invoices"
	"packstore/internal/mail"
	"packstore/internal/orders"
	"packstore/internal/printservice"
	"packstore/internal/quotes"
	"packstore/internal/shopify"
	"packstore/internal/stores/postgres"
	"packstore/internal/uploads"
	"packstore/internal/users"

	_ "github.com/joho/godotenv/autoload"
)

func main() {
	if err := run(); err != nil {
		slog.Error("startup failed", slog.String("ERROR", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := postgres.OpenDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.Migrate(db); err != nil {
		return err
	}

	keys, err := auth.NewKeys(cfg.SessionSecret)
	if err != nil {
		return err
	}

	userConf, err := users.NewConf(db)
	if err != nil {
		return err
	}
	orderConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	invoiceConf, err := invoices.NewConf(db)
	if err != nil {
		return err
	}
	blogConf, err := blog.NewConf(db)
	if err != nil {
		return err
	}
	quoteConf, err := quotes.NewConf(db)
	if err != nil {
		return err
	}
	printConf, err := printservice.NewConf(db)
	if err != nil {
		return err
	}
	contactConf, err := contact.NewConf(db)
	if err != nil {
		return err
	}

	r := handlers.API(handlers.Deps{
		Users:    userConf,
		Orders:   orderConf,
		Invoices: invoiceConf,
		Blog:     blogConf,
		Quotes:   quoteConf,
		Prints:   printConf,
		Contact:  contactConf,
		Shop:     shopify.NewClient(cfg.ShopDomain, cfg.StorefrontToken, cfg.AdminToken, cfg.APIVersion),
		Mail:     mail.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom),
		Images:   uploads.NewHostClient(cfg.ImageHostKey),
		Keys:     keys,
		Cfg:      cfg,
	})

	slog.Info("starting api server", slog.String("Port", cfg.Port))
	return r.Run(":" + cfg.Port)
}
