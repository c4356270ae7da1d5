package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"facelyze-api/internal/bootstrap"
	"facelyze-api/internal/model"
	"facelyze-api/internal/platform/database"
	"facelyze-api/internal/repository"
)

var productsFile string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update tables and seed the product catalogue",
	Long: `Runs the schema migration, then inserts the products listed in the
products file when the products table is still empty.`,
	RunE: runMigrate,
}

type productSeed struct {
	Products []struct {
		Name        string `toml:"name"`
		Description string `toml:"description"`
		PriceCents  int    `toml:"price_cents"`
		ImageURL    string `toml:"image_url"`
		Link        string `toml:"link"`
	} `toml:"products"`
}

func init() {
	migrateCmd.Flags().StringVar(&productsFile, "products", "configs/products.toml", "TOML file with the products to seed")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := bootstrap.OpenDatabase(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer database.Close(db)
	logger.Info("migration complete", zap.String("driver", cfg.Database.Driver))

	products, err := loadProducts(productsFile)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		return nil
	}
	if err := repository.NewProductRepository(db).SeedIfEmpty(products); err != nil {
		return err
	}
	logger.Info("products seeded", zap.Int("count", len(products)), zap.String("file", productsFile))
	return nil
}

func loadProducts(path string) ([]model.Product, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warn("products file not found, skipping seed", zap.String("file", path))
		return nil, nil
	}
	var seed productSeed
	if _, err := toml.DecodeFile(path, &seed); err != nil {
		return nil, fmt.Errorf("decode products file failed: %w", err)
	}
	out := make([]model.Product, 0, len(seed.Products))
	for _, p := range seed.Products {
		out = append(out, model.Product{
			Name:        p.Name,
			Description: p.Description,
			PriceCents:  p.PriceCents,
			ImageURL:    p.ImageURL,
			Link:        p.Link,
		})
	}
	return out, nil
}
