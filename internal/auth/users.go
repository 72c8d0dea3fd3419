package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidRole        = errors.New("role must be student or teacher")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// Users is the local identity store. The admin account comes from config and
// is never stored in the users table.
type Users struct {
	db        *sql.DB
	adminUser string
	adminHash string
	cost      int
}

func NewUsers(db *sql.DB, adminUser, adminPassHash string) *Users {
	return &Users{db: db, adminUser: adminUser, adminHash: adminPassHash, cost: 12}
}

// WithCost sets the bcrypt cost used for new hashes.
func (u *Users) WithCost(cost int) *Users {
	u.cost = cost
	return u
}

func (u *Users) Register(ctx context.Context, username, password, role string) (User, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" {
		return User{}, ErrInvalidCredentials
	}
	if role != RoleStudent && role != RoleTeacher {
		return User{}, ErrInvalidRole
	}
	if len(password) < 6 {
		return User{}, ErrWeakPassword
	}
	if username == strings.ToLower(u.adminUser) {
		return User{}, ErrUserExists
	}
	var exists int
	if err := u.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username=$1`, username).Scan(&exists); err != nil {
		return User{}, err
	}
	if exists > 0 {
		return User{}, ErrUserExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return User{}, err
	}
	usr := User{ID: uuid.NewString(), Username: username, Role: role, CreatedAt: time.Now().Unix()}
	if _, err := u.db.ExecContext(ctx,
		`INSERT INTO users (id, username, pass_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		usr.ID, usr.Username, string(hash), usr.Role, usr.CreatedAt); err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return usr, nil
}

func (u *Users) Authenticate(ctx context.Context, username, password string) (User, error) {
	if u.adminUser != "" && username == u.adminUser {
		if bcrypt.CompareHashAndPassword([]byte(u.adminHash), []byte(password)) != nil {
			return User{}, ErrInvalidCredentials
		}
		return User{ID: u.adminUser, Username: u.adminUser, Role: RoleAdmin}, nil
	}
	var (
		usr  User
		hash string
	)
	err := u.db.QueryRowContext(ctx,
		`SELECT id, username, pass_hash, role, created_at FROM users WHERE username=$1`,
		strings.TrimSpace(strings.ToLower(username)),
	).Scan(&usr.ID, &usr.Username, &hash, &usr.Role, &usr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if hash == "" || bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return usr, nil
}

func (u *Users) Get(ctx context.Context, id string) (User, error) {
	if u.adminUser != "" && id == u.adminUser {
		return User{ID: id, Username: id, Role: RoleAdmin}, nil
	}
	var usr User
	err := u.db.QueryRowContext(ctx,
		`SELECT id, username, role, created_at FROM users WHERE id=$1`, id,
	).Scan(&usr.ID, &usr.Username, &usr.Role, &usr.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, authmw.ErrUnknownUser
	}
	return usr, err
}

// RoleOf implements authmw.RoleLookup.
func (u *Users) RoleOf(ctx context.Context, subject string) (string, error) {
	usr, err := u.Get(ctx, subject)
	if err != nil {
		return "", err
	}
	return usr.Role, nil
}

func (u *Users) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if len(newPassword) < 6 {
		return ErrWeakPassword
	}
	var stored string
	err := u.db.QueryRowContext(ctx, `SELECT pass_hash FROM users WHERE id=$1`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return authmw.ErrUnknownUser
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), u.cost)
	if err != nil {
		return err
	}
	_, err = u.db.ExecContext(ctx, `UPDATE users SET pass_hash=$1 WHERE id=$2`, string(hash), id)
	return err
}

// CreateGuest stores a passwordless student account.
func (u *Users) CreateGuest(ctx context.Context) (User, error) {
	id := uuid.NewString()
	usr := User{
		ID:        "guest|" + id,
		Username:  "guest-" + id[:8],
		Role:      RoleStudent,
		CreatedAt: time.Now().Unix(),
	}
	_, err := u.db.ExecContext(ctx,
		`INSERT INTO users (id, username, pass_hash, role, created_at) VALUES ($1,$2,'',$3,$4)`,
		usr.ID, usr.Username, usr.Role, usr.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert guest: %w", err)
	}
	return usr, nil
}
