package database

import "testing"

func TestPostgresRewriteQuery(t *testing.T) {
	d := NewPostgresDialect()

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"no placeholders", "SELECT 1", "SELECT 1"},
		{"single placeholder", "SELECT * FROM rounds WHERE id = ?", "SELECT * FROM rounds WHERE id = $1"},
		{"multiple placeholders", "UPDATE progression SET total_xp = total_xp + ? WHERE user_id = ?", "UPDATE progression SET total_xp = total_xp + $1 WHERE user_id = $2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.RewriteQuery(tt.query); got != tt.want {
				t.Errorf("RewriteQuery(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestSQLiteRewriteQueryIsIdentity(t *testing.T) {
	d := NewSQLiteDialect()
	query := "SELECT * FROM rounds WHERE id = ? AND user_id = ?"
	if got := d.RewriteQuery(query); got != query {
		t.Errorf("sqlite rewrite changed query: %q", got)
	}
}

func TestMySQLRewriteQueryIsIdentity(t *testing.T) {
	d := NewMySQLDialect()
	query := "SELECT * FROM rounds WHERE id = ?"
	if got := d.RewriteQuery(query); got != query {
		t.Errorf("mysql rewrite changed query: %q", got)
	}
}

func TestDriverNames(t *testing.T) {
	if got := NewSQLiteDialect().DriverName(); got != "sqlite3" {
		t.Errorf("sqlite driver = %q", got)
	}
	if got := NewPostgresDialect().DriverName(); got != "postgres" {
		t.Errorf("postgres driver = %q", got)
	}
	if got := NewMySQLDialect().DriverName(); got != "mysql" {
		t.Errorf("mysql driver = %q", got)
	}
}
