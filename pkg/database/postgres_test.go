package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/lms-portal/pkg/config"
)

func TestDSN(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			name: "plain",
			cfg:  config.DatabaseConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "secret", Name: "lms_portal", SSLMode: "disable"},
			want: "host=localhost port=5432 user=postgres password=secret dbname=lms_portal sslmode=disable",
		},
		{
			name: "quoted password",
			cfg:  config.DatabaseConfig{Host: "db", User: "app", Password: `it's a pass\word`},
			want: `host=db user=app password='it\'s a pass\\word'`,
		},
		{
			name: "empty",
			cfg:  config.DatabaseConfig{},
			want: "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DSN(tc.cfg))
		})
	}
}
