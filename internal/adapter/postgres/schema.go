package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		product_id INT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		name       VARCHAR(255) NOT NULL,
		recipe     VARCHAR(255) NOT NULL,
		priority   INT NOT NULL DEFAULT 1
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id           INT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		status             VARCHAR(32) NOT NULL,
		priority           INT NOT NULL DEFAULT 0,
		estimated_shipping TIMESTAMPTZ NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_products (
		order_id   INT NOT NULL REFERENCES orders (order_id),
		product_id INT NOT NULL REFERENCES products (product_id)
	)`,
	`CREATE TABLE IF NOT EXISTS machines (
		machine_id     INT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		name           VARCHAR(255) NOT NULL,
		occupied_until TIMESTAMPTZ NOT NULL,
		status         VARCHAR(32) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS machine_procedures (
		machine_id INT NOT NULL REFERENCES machines (machine_id),
		procedure  VARCHAR(64) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS instructions (
		instruction_id INT PRIMARY KEY GENERATED ALWAYS AS IDENTITY,
		order_id       INT NOT NULL REFERENCES orders (order_id),
		product_id     INT NOT NULL REFERENCES products (product_id),
		machine_id     INT NOT NULL REFERENCES machines (machine_id),
		procedure      VARCHAR(64) NOT NULL,
		ingredients    VARCHAR(255) NOT NULL,
		duration_sec   INT NOT NULL
	)`,
}

// InitializeSchema creates the MES tables when they do not exist yet.
func InitializeSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
