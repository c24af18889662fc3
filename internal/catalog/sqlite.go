package catalog

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteSource reads products, images and variant axes from sqlite.
type SQLiteSource struct {
	db *sql.DB
}

func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteSource{db: db}, nil
}

func (r *SQLiteSource) RunMigrations() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(r.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func (r *SQLiteSource) Product(ctx context.Context, id string) (*domain.Product, error) {
	var (
		p             domain.Product
		price         string
		originalPrice sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, price, original_price
		FROM products
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Title, &p.Description, &price, &originalPrice)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	if p.Price, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("invalid price for product %s: %w", id, err)
	}
	if originalPrice.Valid && originalPrice.String != "" {
		op, err := decimal.NewFromString(originalPrice.String)
		if err != nil {
			return nil, fmt.Errorf("invalid original price for product %s: %w", id, err)
		}
		p.OriginalPrice = &op
	}

	if p.Images, err = r.images(ctx, id); err != nil {
		return nil, err
	}
	if p.Variants, err = r.variants(ctx, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLiteSource) images(ctx context.Context, productID string) ([]domain.Image, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, url, alt
		FROM product_images
		WHERE product_id = ?
		ORDER BY position
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []domain.Image
	for rows.Next() {
		var img domain.Image
		if err := rows.Scan(&img.ID, &img.URL, &img.Alt); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return images, nil
}

func (r *SQLiteSource) variants(ctx context.Context, productID string) ([]domain.Variant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT v.id, v.name, vv.id, vv.name, vv.available
		FROM product_variants v
		JOIN variant_values vv ON vv.product_id = v.product_id AND vv.variant_id = v.id
		WHERE v.product_id = ?
		ORDER BY v.position, vv.position
	`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query variants: %w", err)
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var (
			variantID, variantName string
			val                    domain.VariantValue
		)
		if err := rows.Scan(&variantID, &variantName, &val.ID, &val.Name, &val.Available); err != nil {
			return nil, fmt.Errorf("failed to scan variant: %w", err)
		}
		if n := len(variants); n == 0 || variants[n-1].ID != variantID {
			variants = append(variants, domain.Variant{ID: variantID, Name: variantName})
		}
		last := &variants[len(variants)-1]
		last.Values = append(last.Values, val)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return variants, nil
}

func (r *SQLiteSource) Close() error {
	return r.db.Close()
}
