// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/mmeshcher/sweetshop-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrCustomerExists возвращается при попытке создать клиента с уже занятым телефоном.
var (
	ErrCustomerExists = errors.New("customer already exists")
	// ErrCustomerNotFound возвращается, если клиент с таким телефоном не найден.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrAddressNotFound возвращается, если адрес не найден или принадлежит другому клиенту.
	ErrAddressNotFound = errors.New("address not found")
	// ErrMenuItemNotFound возвращается, если позиция каталога не найдена.
	ErrMenuItemNotFound = errors.New("menu item not found")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет операцию при временных ошибках БД: serialization
// failure, deadlock и обрывы соединения.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				return retry.RetryableError(err)
			}
			return err
		}

		if isConnectionError(err) {
			return retry.RetryableError(err)
		}

		return err
	})
}

func isConnectionError(err error) bool {
	// Упрощенная проверка на ошибки соединения
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetMenu возвращает разделы каталога с позициями в порядке отображения.
func (r *PostgresRepository) GetMenu(ctx context.Context) ([]model.MenuSection, error) {
	var sections []model.MenuSection

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, name FROM menu_sections ORDER BY position, id`,
		)
		if err != nil {
			return fmt.Errorf("select sections: %w", err)
		}
		defer rows.Close()

		sections = nil
		for rows.Next() {
			var s model.MenuSection
			if err := rows.Scan(&s.ID, &s.Name); err != nil {
				return fmt.Errorf("scan section: %w", err)
			}
			sections = append(sections, s)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		itemRows, err := r.pool.Query(ctx,
			`SELECT id, section_id, name, description, price, available, image_ref
			 FROM menu_items
			 ORDER BY section_id, id`,
		)
		if err != nil {
			return fmt.Errorf("select items: %w", err)
		}
		defer itemRows.Close()

		itemsBySection := make(map[int64][]model.MenuItem)
		for itemRows.Next() {
			var it model.MenuItem
			if err := itemRows.Scan(&it.ID, &it.SectionID, &it.Name, &it.Description, &it.PriceCents, &it.Available, &it.ImageRef); err != nil {
				return fmt.Errorf("scan item: %w", err)
			}
			itemsBySection[it.SectionID] = append(itemsBySection[it.SectionID], it)
		}
		if err := itemRows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}

		for i := range sections {
			sections[i].Items = itemsBySection[sections[i].ID]
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return sections, nil
}

// GetMenuItem возвращает позицию каталога по идентификатору.
func (r *PostgresRepository) GetMenuItem(ctx context.Context, itemID int64) (*model.MenuItem, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, section_id, name, description, price, available, image_ref
		 FROM menu_items WHERE id = $1`,
		itemID,
	)

	var it model.MenuItem
	err := row.Scan(&it.ID, &it.SectionID, &it.Name, &it.Description, &it.PriceCents, &it.Available, &it.ImageRef)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}

	return &it, nil
}

// CreateCustomer создаёт нового клиента.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, name, phone string) (*model.Customer, error) {
	var c model.Customer
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (name, phone) VALUES ($1, $2) RETURNING id, name, phone, active, created_at`,
		name, phone,
	).Scan(&c.ID, &c.Name, &c.Phone, &c.Active, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, fmt.Errorf("%w: %s", ErrCustomerExists, phone)
		}
		return nil, fmt.Errorf("create customer: %w", err)
	}

	return &c, nil
}

// GetCustomerByPhone возвращает клиента по нормализованному номеру телефона.
func (r *PostgresRepository) GetCustomerByPhone(ctx context.Context, phone string) (*model.Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, phone, active, created_at FROM customers WHERE phone = $1 AND active`,
		phone,
	)

	var c model.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return &c, nil
}

// ListAddresses возвращает действующие адреса клиента в порядке создания.
func (r *PostgresRepository) ListAddresses(ctx context.Context, customerID int64) ([]model.Address, error) {
	var res []model.Address

	err := r.withRetry(ctx, func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT id, customer_id, postal_code, street, number, neighborhood, city, state, complement, reference, active, created_at
			 FROM addresses
			 WHERE customer_id = $1 AND active
			 ORDER BY created_at, id`,
			customerID,
		)
		if err != nil {
			return fmt.Errorf("select addresses: %w", err)
		}
		defer rows.Close()

		res = nil
		for rows.Next() {
			var a model.Address
			if err := rows.Scan(&a.ID, &a.CustomerID, &a.PostalCode, &a.Street, &a.Number, &a.Neighborhood, &a.City, &a.State, &a.Complement, &a.Reference, &a.Active, &a.CreatedAt); err != nil {
				return fmt.Errorf("scan address: %w", err)
			}
			res = append(res, a)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows error: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return res, nil
}

// CreateAddress создаёт новый адрес клиента.
func (r *PostgresRepository) CreateAddress(ctx context.Context, addr model.Address) (*model.Address, error) {
	var created model.Address
	err := r.pool.QueryRow(ctx,
		`INSERT INTO addresses (customer_id, postal_code, street, number, neighborhood, city, state, complement, reference)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, customer_id, postal_code, street, number, neighborhood, city, state, complement, reference, active, created_at`,
		addr.CustomerID, addr.PostalCode, addr.Street, addr.Number, addr.Neighborhood, addr.City, addr.State, addr.Complement, addr.Reference,
	).Scan(&created.ID, &created.CustomerID, &created.PostalCode, &created.Street, &created.Number, &created.Neighborhood, &created.City, &created.State, &created.Complement, &created.Reference, &created.Active, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create address: %w", err)
	}

	return &created, nil
}

// DeleteAddress помечает адрес клиента как удалённый.
// Корректировки адресов создают новую запись, поэтому существующие заказы
// продолжают ссылаться на прежние данные.
func (r *PostgresRepository) DeleteAddress(ctx context.Context, customerID, addressID int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE addresses SET active = FALSE WHERE id = $1 AND customer_id = $2 AND active`,
		addressID, customerID,
	)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrAddressNotFound
	}

	return nil
}

// CreateOrder сохраняет заказ вместе с позициями в одной транзакции.
func (r *PostgresRepository) CreateOrder(ctx context.Context, order *model.Order) (*model.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var addr *model.Address
	if order.Fulfillment == model.FulfillmentDelivery {
		addr = order.DeliveryAddress
	}

	var (
		deliveryAddressID *int64
		postalCode        *string
		street            *string
		number            *string
		neighborhood      *string
		city              *string
		state             *string
		complement        *string
		reference         *string
	)
	if addr != nil {
		deliveryAddressID = &addr.ID
		postalCode = &addr.PostalCode
		street = &addr.Street
		number = &addr.Number
		neighborhood = &addr.Neighborhood
		city = &addr.City
		state = &addr.State
		complement = &addr.Complement
		reference = &addr.Reference
	}

	created := *order

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (number, customer_id, description, total, fulfillment, payment_status,
		                     delivery_address_id, delivery_postal_code, delivery_street, delivery_number,
		                     delivery_neighborhood, delivery_city, delivery_state, delivery_complement, delivery_reference)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 RETURNING id, created_at`,
		order.Number, order.CustomerID, order.Description, order.TotalCents,
		string(order.Fulfillment), string(order.PaymentStatus),
		deliveryAddressID, postalCode, street, number, neighborhood, city, state, complement, reference,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	for _, it := range order.Items {
		_, err = tx.Exec(ctx,
			`INSERT INTO order_items (order_id, item_id, name, unit_price, quantity, note)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			created.ID, it.ItemID, it.Name, it.UnitPriceCents, it.Quantity, it.Note,
		)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &created, nil
}
