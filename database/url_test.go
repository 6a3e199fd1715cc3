package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructDatabaseURL(t *testing.T) {
	tests := []struct {
		name         string
		baseURL      string
		databaseName string
		expected     string
	}{
		{
			name:     "no database name keeps base url",
			baseURL:  "postgres://u:p@db:5432/draws",
			expected: "postgres://u:p@db:5432/draws",
		},
		{
			name:         "appends database and sslmode",
			baseURL:      "postgres://u:p@db:5432/",
			databaseName: "diadesorte",
			expected:     "postgres://u:p@db:5432/diadesorte?sslmode=disable",
		},
		{
			name:         "keeps existing query parameters",
			baseURL:      "postgres://u:p@db:5432?connect_timeout=5",
			databaseName: "diadesorte",
			expected:     "postgres://u:p@db:5432/diadesorte?connect_timeout=5&sslmode=disable",
		},
		{
			name:         "respects explicit sslmode",
			baseURL:      "postgres://u:p@db:5432?sslmode=require",
			databaseName: "diadesorte",
			expected:     "postgres://u:p@db:5432/diadesorte?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConstructDatabaseURL(tt.baseURL, tt.databaseName))
		})
	}
}
