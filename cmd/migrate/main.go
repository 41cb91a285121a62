// Command migrate creates the schema, installs the default access policies and
// optionally seeds the starter credit packages.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/saeedhokal/Saman-Marketplace-sub000/domain"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/config"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/auth"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/database"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/infrastructure/repositories"
	"github.com/saeedhokal/Saman-Marketplace-sub000/internal/logger"
)

// starterPackages are priced in fils
var starterPackages = []domain.CreditPackage{
	{Name: "Spare Parts 5", Category: domain.CategorySpareParts, Credits: 5, Price: 4900, Currency: "AED", Active: true},
	{Name: "Spare Parts 20", Category: domain.CategorySpareParts, Credits: 20, Price: 14900, Currency: "AED", Active: true},
	{Name: "Automotive 1", Category: domain.CategoryAutomotive, Credits: 1, Price: 2900, Currency: "AED", Active: true},
	{Name: "Automotive 5", Category: domain.CategoryAutomotive, Credits: 5, Price: 9900, Currency: "AED", Active: true},
}

func main() {
	seed := flag.Bool("seed-packages", false, "create the starter credit packages when none are active")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	db, err := database.Open(cfg.DSN, zl)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		zl.Fatal("migrate", zap.Error(err))
	}
	zl.Info("schema up to date")

	cas, err := auth.NewCasbinService(db, cfg.CasbinModelPath)
	if err != nil {
		zl.Fatal("casbin", zap.Error(err))
	}
	policies, err := cas.E.GetPolicy()
	if err != nil {
		zl.Fatal("read policies", zap.Error(err))
	}
	zl.Info("access policies installed", zap.Int("count", len(policies)))

	if !*seed {
		return
	}
	ctx := context.Background()
	packages := repositories.NewPackageRepository(db)
	active, err := packages.ListActive(ctx)
	if err != nil {
		zl.Fatal("list packages", zap.Error(err))
	}
	if len(active) > 0 {
		zl.Info("packages already present, skipping seed", zap.Int("active", len(active)))
		return
	}
	for i := range starterPackages {
		pkg := starterPackages[i]
		if err := packages.Create(ctx, &pkg); err != nil {
			zl.Fatal("create package", zap.String("name", pkg.Name), zap.Error(err))
		}
	}
	zl.Info("seeded credit packages", zap.Int("count", len(starterPackages)))
}
