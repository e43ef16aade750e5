package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rcastell/homestock/internal/core/domain"
)

const mysqlDuplicateEntry = 1062

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) Find(ctx context.Context, id, ownerID string) (*domain.Product, error) {
	var p domain.Product
	err := m.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, quantity, price, purchase_date, store, location
		FROM products WHERE id = ? AND user_id = ?`, id, ownerID,
	).Scan(&p.ID, &p.OwnerID, &p.Name, &p.Quantity, &p.Price, &p.PurchaseDate, &p.Store, &p.Location)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

// Create inserts a new record. A client-proposed id is kept when free; when it
// collides with another owner's record the store assigns a fresh uuid instead.
func (m *MySQLAdapter) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	proposed := p.ID != ""
	if !proposed {
		p.ID = uuid.New().String()
	}

	err := m.insertProduct(ctx, p)
	if proposed && isDuplicateEntry(err) {
		p.ID = uuid.New().String()
		err = m.insertProduct(ctx, p)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return p, nil
}

func (m *MySQLAdapter) insertProduct(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, user_id, name, quantity, price, purchase_date, store, location)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.OwnerID, p.Name, p.Quantity, p.Price, p.PurchaseDate, p.Store, p.Location,
	)
	return err
}

func (m *MySQLAdapter) Replace(ctx context.Context, p domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, quantity = ?, price = ?, purchase_date = ?, store = ?, location = ?
		WHERE id = ? AND user_id = ?`,
		p.Name, p.Quantity, p.Price, p.PurchaseDate, p.Store, p.Location,
		p.ID, p.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		DELETE FROM products WHERE id = ? AND user_id = ?`, id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("delete product: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (m *MySQLAdapter) ListByOwner(ctx context.Context, ownerID string) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, user_id, name, quantity, price, purchase_date, store, location
		FROM products WHERE user_id = ?`, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Quantity, &p.Price, &p.PurchaseDate, &p.Store, &p.Location); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

func (m *MySQLAdapter) FindCredential(ctx context.Context, email string) (*domain.Credential, error) {
	var c domain.Credential
	err := m.db.QueryRowContext(ctx, `
		SELECT email, password_hash FROM credentials WHERE email = ?`, email,
	).Scan(&c.Email, &c.PasswordHash)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query credential: %w", err)
	}
	return &c, nil
}

func (m *MySQLAdapter) CreateCredential(ctx context.Context, cred domain.Credential) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO credentials (email, password_hash) VALUES (?, ?)`,
		cred.Email, cred.PasswordHash,
	)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE credentials SET password_hash = ? WHERE email = ?`,
		passwordHash, email,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) FindProfile(ctx context.Context, email string) (*domain.Profile, error) {
	var p domain.Profile
	err := m.db.QueryRowContext(ctx, `
		SELECT email, full_name, date_of_birth FROM profiles WHERE email = ?`, email,
	).Scan(&p.Email, &p.FullName, &p.DateOfBirth)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &p, nil
}

func (m *MySQLAdapter) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO profiles (email, full_name, date_of_birth) VALUES (?, ?, ?)`,
		p.Email, p.FullName, p.DateOfBirth,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) ReplaceProfile(ctx context.Context, p domain.Profile) error {
	_, err := m.db.ExecContext(ctx, `
		UPDATE profiles SET full_name = ?, date_of_birth = ? WHERE email = ?`,
		p.FullName, p.DateOfBirth, p.Email,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
