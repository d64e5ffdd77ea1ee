package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/laptop-inventory/internal/model"
)

const laptopColumns = "id,brand,model,serial_number,processor,ram,storage,display,status,assigned_to,created_at,updated_at"

// LaptopRepo encapsulates all database queries related to laptops.
type LaptopRepo struct {
	db *sql.DB
}

// NewLaptopRepo constructs a LaptopRepo with the provided DB handle.
func NewLaptopRepo(db *sql.DB) *LaptopRepo { return &LaptopRepo{db: db} }

func nullHolder(s model.LaptopState) sql.NullString {
	return sql.NullString{String: s.Holder(), Valid: s.Holder() != ""}
}

func scanLaptop(row interface{ Scan(...any) error }) (model.Laptop, error) {
	var (
		l      model.Laptop
		status string
		holder sql.NullString
	)
	err := row.Scan(&l.ID, &l.Brand, &l.Model, &l.SerialNumber,
		&l.Specs.Processor, &l.Specs.RAM, &l.Specs.Storage, &l.Specs.Display,
		&status, &holder, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Laptop{}, ErrNotFound
		}
		return model.Laptop{}, err
	}
	state, err := model.StateFrom(model.Status(status), holder.String)
	if err != nil {
		return model.Laptop{}, fmt.Errorf("laptop %s: %w", l.ID, err)
	}
	l.State = state
	return l, nil
}

// CreateLaptop inserts l.
func (r *LaptopRepo) CreateLaptop(ctx context.Context, l *model.Laptop) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO laptops ("+laptopColumns+") VALUES (?,?,?,?,?,?,?,?,?,?,?,?)",
		l.ID, l.Brand, l.Model, l.SerialNumber,
		l.Specs.Processor, l.Specs.RAM, l.Specs.Storage, l.Specs.Display,
		string(l.State.Status()), nullHolder(l.State), l.CreatedAt, l.UpdatedAt)
	return mapMySQLErr(err)
}

// GetLaptop fetches a laptop by id.
func (r *LaptopRepo) GetLaptop(ctx context.Context, id string) (model.Laptop, error) {
	return scanLaptop(r.db.QueryRowContext(ctx,
		"SELECT "+laptopColumns+" FROM laptops WHERE id=? LIMIT 1", id))
}

// GetLaptopBySerial fetches a laptop by serial number.
func (r *LaptopRepo) GetLaptopBySerial(ctx context.Context, serial string) (model.Laptop, error) {
	return scanLaptop(r.db.QueryRowContext(ctx,
		"SELECT "+laptopColumns+" FROM laptops WHERE serial_number=? LIMIT 1", serial))
}

// ListLaptops returns laptops matching f ordered by creation time.
func (r *LaptopRepo) ListLaptops(ctx context.Context, f LaptopFilter) ([]model.Laptop, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status=?")
		args = append(args, string(f.Status))
	}
	if f.Holder != "" {
		where = append(where, "assigned_to=?")
		args = append(args, f.Holder)
	}
	q := "SELECT " + laptopColumns + " FROM laptops"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Laptop{}
	for rows.Next() {
		l, err := scanLaptop(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// UpdateLaptop overwrites all mutable columns of l.
func (r *LaptopRepo) UpdateLaptop(ctx context.Context, l model.Laptop) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE laptops SET brand=?, model=?, serial_number=?, processor=?, ram=?, storage=?, display=?,
		 status=?, assigned_to=?, updated_at=? WHERE id=?`,
		l.Brand, l.Model, l.SerialNumber,
		l.Specs.Processor, l.Specs.RAM, l.Specs.Storage, l.Specs.Display,
		string(l.State.Status()), nullHolder(l.State), l.UpdatedAt, l.ID)
	if err != nil {
		return mapMySQLErr(err)
	}
	return expectOneRow(res)
}

// SwapState performs a conditional update on (status, assigned_to). When no
// row matches, a follow-up lookup tells a missing laptop from a lost race.
func (r *LaptopRepo) SwapState(ctx context.Context, id string, from, to model.LaptopState, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE laptops SET status=?, assigned_to=?, updated_at=? WHERE id=? AND status=? AND assigned_to <=> ?",
		string(to.Status()), nullHolder(to), at, id, string(from.Status()), nullHolder(from))
	if err != nil {
		return mapMySQLErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	var one int
	err = r.db.QueryRowContext(ctx, "SELECT 1 FROM laptops WHERE id=?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrStateChanged
}

// DeleteLaptop removes a laptop regardless of its state.
func (r *LaptopRepo) DeleteLaptop(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM laptops WHERE id=?", id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// CountByHolder counts laptops whose assigned_to references userID.
func (r *LaptopRepo) CountByHolder(ctx context.Context, userID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM laptops WHERE assigned_to=?", userID).Scan(&n)
	return n, err
}

// CountByStatus groups laptops by status.
func (r *LaptopRepo) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM laptops GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[model.Status]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[model.Status(status)] = n
	}
	return out, rows.Err()
}

// MySQLStore joins the user and laptop repositories over one pool.
type MySQLStore struct {
	*UserRepo
	*LaptopRepo
	db *sql.DB
}

var _ Store = (*MySQLStore)(nil)

// NewMySQLStore wraps an open pool.
func NewMySQLStore(db *sql.DB) *MySQLStore {
	return &MySQLStore{UserRepo: NewUserRepo(db), LaptopRepo: NewLaptopRepo(db), db: db}
}

func (s *MySQLStore) Close(context.Context) error { return s.db.Close() }
