package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/lib/pq"
)

// DatabaseCredentials describe a Postgres connection to probe. When
// ConnectionString is set it is used verbatim and the other fields are
// ignored.
type DatabaseCredentials struct {
	Host             string `json:"host"`
	Port             int    `json:"port,omitempty"`
	Database         string `json:"database"`
	Username         string `json:"username"`
	Password         string `json:"password"`
	SSLMode          string `json:"ssl_mode,omitempty"`
	ConnectionString string `json:"connection_string,omitempty"`
}

// DSN builds the connection string for the credentials.
func (c DatabaseCredentials) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   c.address(),
		Path:   "/" + c.Database,
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

func (c DatabaseCredentials) address() string {
	port := c.Port
	if port == 0 {
		port = 5432
	}
	return fmt.Sprintf("%s:%d", c.Host, port)
}

// TestDatabaseConnection probes the database with the given credentials
// and classifies failures so the settings screen can explain them.
func (s *Service) TestDatabaseConnection(ctx context.Context, creds DatabaseCredentials) *ConnectionTestResult {
	ctx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	defer cancel()

	db, err := sql.Open("postgres", creds.DSN())
	if err != nil {
		return classifyDatabaseError(err, creds)
	}
	defer db.Close()

	var version string
	if err := db.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return classifyDatabaseError(err, creds)
	}

	details := map[string]any{
		"database_type": "PostgreSQL",
		"version":       shortVersion(version),
	}
	if creds.Host != "" {
		details["host"] = creds.Host
		details["database"] = creds.Database
	}

	var pgvectorInstalled bool
	if err := db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector')",
	).Scan(&pgvectorInstalled); err == nil {
		details["pgvector_installed"] = pgvectorInstalled
	}
	var size string
	if err := db.QueryRowContext(ctx,
		"SELECT pg_size_pretty(pg_database_size(current_database()))",
	).Scan(&size); err == nil {
		details["database_size"] = size
	}

	return &ConnectionTestResult{
		Success:   true,
		Message:   "database connection successful",
		Details:   details,
		Timestamp: time.Now().UTC(),
	}
}

// classifyDatabaseError turns probe failures into actionable results.
func classifyDatabaseError(err error, creds DatabaseCredentials) *ConnectionTestResult {
	now := time.Now().UTC()

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "28P01", "28000":
			return &ConnectionTestResult{
				Message:   "authentication failed: invalid username or password",
				Details:   map[string]any{"error": "check your credentials"},
				Timestamp: now,
			}
		case "3D000":
			message := pqErr.Message
			if creds.Database != "" {
				message = fmt.Sprintf("database %q does not exist", creds.Database)
			}
			return &ConnectionTestResult{
				Message:   message,
				Details:   map[string]any{"error": "check the database name or create it first"},
				Timestamp: now,
			}
		}
		return &ConnectionTestResult{
			Message:   fmt.Sprintf("database error: %s", pqErr.Message),
			Details:   map[string]any{"code": string(pqErr.Code)},
			Timestamp: now,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &ConnectionTestResult{
			Message: fmt.Sprintf("cannot resolve hostname %q", dnsErr.Name),
			Details: map[string]any{
				"error": "hostname does not exist or DNS lookup failed",
				"hint":  "check that the hostname is correct",
			},
			Timestamp: now,
		}
	}

	if errors.Is(err, syscall.ECONNREFUSED) || strings.Contains(err.Error(), "connection refused") {
		return &ConnectionTestResult{
			Message: fmt.Sprintf("connection refused: cannot reach %s", creds.address()),
			Details: map[string]any{
				"error": "check that the database server is running and the port is correct",
				"hint":  "hosted databases usually need their internal hostname, not localhost",
			},
			Timestamp: now,
		}
	}

	return &ConnectionTestResult{
		Message:   fmt.Sprintf("connection failed: %v", err),
		Details:   map[string]any{"error_type": fmt.Sprintf("%T", err)},
		Timestamp: now,
	}
}

func shortVersion(version string) string {
	fields := strings.Fields(version)
	if len(fields) >= 2 {
		return fields[0] + " " + fields[1]
	}
	return version
}

// TestVectorStore checks that the pgvector extension is installed in
// the connected database.
func (s *Service) TestVectorStore(ctx context.Context) *ConnectionTestResult {
	now := time.Now().UTC()
	if s.store == nil {
		return &ConnectionTestResult{
			Message:   "no database configured",
			Details:   map[string]any{"error": "connect a database before testing the vector store"},
			Timestamp: now,
		}
	}

	result, err := s.store.RunReadOnlyQuery(ctx,
		"SELECT EXISTS(SELECT 1 FROM pg_extension WHERE extname = 'vector') AS installed", 1)
	if err != nil {
		return &ConnectionTestResult{
			Message:   fmt.Sprintf("vector store check failed: %v", err),
			Details:   map[string]any{"error_type": fmt.Sprintf("%T", err)},
			Timestamp: now,
		}
	}

	installed := false
	if len(result.Rows) > 0 {
		installed, _ = result.Rows[0]["installed"].(bool)
	}
	if !installed {
		return &ConnectionTestResult{
			Message:   "database connected but the pgvector extension is not installed",
			Details:   map[string]any{"hint": "Run: CREATE EXTENSION vector;"},
			Timestamp: now,
		}
	}

	return &ConnectionTestResult{
		Success:   true,
		Message:   "vector store ready",
		Details:   map[string]any{"vector_store": "PostgreSQL + pgvector", "extension_installed": true},
		Timestamp: now,
	}
}
