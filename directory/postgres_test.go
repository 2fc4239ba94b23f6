package directory

import "testing"

func TestNewPostgresValidatesInput(t *testing.T) {
	if _, err := NewPostgres(nil); err == nil {
		t.Fatal("expected error for nil pool")
	}
	o := postgresOptions{}
	if err := WithSchema("bad-schema;")(&o); err == nil {
		t.Fatal("expected invalid schema to be rejected")
	}
	if err := WithTable(`user"`)(&o); err == nil {
		t.Fatal("expected invalid table to be rejected")
	}
	if err := WithTable("account")(&o); err != nil || o.table != "account" {
		t.Fatalf("valid table rejected: %v", err)
	}
}
