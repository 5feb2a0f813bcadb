package store

import (
	"database/sql"
	"fmt"

	"github.com/hashlabs/taskpoints/internal/model"
)

// PrincipalStore persists users and admins. The two roles live in separate
// tables; Resolve keys the lookup on the role claim so call sites never
// branch themselves. Password hashes stay inside this store — resolved
// principals never carry them.
type PrincipalStore struct {
	db *sql.DB
}

func NewPrincipalStore(db *sql.DB) *PrincipalStore {
	return &PrincipalStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.Principal, error) {
	var p model.Principal
	err := scanner.Scan(&p.ID, &p.Name, &p.Email, &p.Points, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Role = model.RoleUser
	return &p, nil
}

const userCols = `id, name, email, points, created_at`

func (s *PrincipalStore) CreateUser(name, email, hashedPassword string) (*model.Principal, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (name, email, password) VALUES (?, ?, ?)`,
		name, email, hashedPassword,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetUser(id)
}

func (s *PrincipalStore) GetUser(id int64) (*model.Principal, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	p, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return p, nil
}

func (s *PrincipalStore) GetAdmin(id int64) (*model.Principal, error) {
	var p model.Principal
	err := s.db.QueryRow(`SELECT id, email, created_at FROM admins WHERE id = ?`, id).
		Scan(&p.ID, &p.Email, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	p.Role = model.RoleAdmin
	return &p, nil
}

// Resolve looks up a principal in the role-appropriate table. Unknown roles
// resolve like users, matching how absent role claims default.
func (s *PrincipalStore) Resolve(role string, id int64) (*model.Principal, error) {
	if role == model.RoleAdmin {
		return s.GetAdmin(id)
	}
	return s.GetUser(id)
}

// Credentials returns the principal id and password hash for a login attempt,
// or (0, "", nil) when no such principal exists.
func (s *PrincipalStore) Credentials(role, email string) (int64, string, error) {
	table := "users"
	if role == model.RoleAdmin {
		table = "admins"
	}
	var id int64
	var hash string
	err := s.db.QueryRow(`SELECT id, password FROM `+table+` WHERE email = ?`, email).Scan(&id, &hash)
	if err == sql.ErrNoRows {
		return 0, "", nil
	}
	if err != nil {
		return 0, "", fmt.Errorf("get credentials: %w", err)
	}
	return id, hash, nil
}

func (s *PrincipalStore) CreateAdmin(email, hashedPassword string) (*model.Principal, error) {
	result, err := s.db.Exec(
		`INSERT INTO admins (email, password) VALUES (?, ?)`,
		email, hashedPassword,
	)
	if err != nil {
		return nil, fmt.Errorf("insert admin: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetAdmin(id)
}

func (s *PrincipalStore) CountAdmins() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM admins`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return n, nil
}

func (s *PrincipalStore) CountUsers() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// SetBalance overwrites a user's balance unconditionally. Returns the updated
// principal, or nil when no such user exists.
func (s *PrincipalStore) SetBalance(userID int64, balance int) (*model.Principal, error) {
	result, err := s.db.Exec(`UPDATE users SET points = ? WHERE id = ?`, balance, userID)
	if err != nil {
		return nil, fmt.Errorf("set balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return s.GetUser(userID)
}

// ListUsers returns a page of users ordered by signup date (newest first),
// along with the total user count for pagination.
func (s *PrincipalStore) ListUsers(limit, offset int) ([]model.Principal, int, error) {
	total, err := s.CountUsers()
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.Principal
	for rows.Next() {
		p, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *p)
	}
	return users, total, rows.Err()
}
