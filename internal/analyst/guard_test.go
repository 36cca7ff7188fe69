package analyst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsReadOnly(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT 1", true},
		{"  select * from crypto_prices;  ", true},
		{"-- latest\nSELECT * FROM crypto_prices", true},
		{"/* cte */ WITH a AS (SELECT 1) SELECT * FROM a", true},
		{"SHOW TABLES", true},
		{"explain select 1", true},
		{"(SELECT 1)", true},
		{"", false},
		{"(", false},
		{"selected", false},
		{"DROP TABLE crypto_prices", false},
		{"INSERT INTO crypto_prices VALUES(1)", false},
		{"SELECT 1; DROP TABLE crypto_prices", false},
		{"-- only a comment", false},
		{"/* unterminated", false},
		{"SELECT * FROM crypto_prices WHERE exchange = 'drop;table'", true},
		{`SELECT "update" FROM crypto_prices`, true},
		{"SELECT 1 /* delete */", true},
		{"WITH up AS (SELECT 1 x) UPDATE crypto_prices SET price = 0", false},
		{"WITH s AS (SELECT * FROM crypto_prices) INSERT INTO crypto_prices SELECT * FROM s", false},
		{"SELECT 1 -- comment\n; DELETE FROM crypto_prices", false},
		{"SELECT 'unterminated", false},
		{"show tables; create table t (x int)", false},
		{"EXPLAIN ALTER TABLE crypto_prices DROP COLUMN spread", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsReadOnly(tt.query), "query: %q", tt.query)
	}
}
