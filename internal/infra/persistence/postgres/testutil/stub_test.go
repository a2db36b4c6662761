package testutil

import (
	"context"
	"database/sql/driver"
	"io"
	"testing"
)

func TestStubUpsertReplacesRowByPrimaryColumn(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	stmt := "INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{`{"a":1}`, `{"a":2}`} {
		if _, err := conn.ExecContext(ctx, stmt, []driver.NamedValue{{Value: "records"}, {Value: []byte(payload)}}); err != nil {
			t.Fatalf("exec: %v", err)
		}
	}
	rows := conn.Tables["state"]
	if len(rows) != 1 || string(rows[0]["payload"].([]byte)) != `{"a":2}` {
		t.Fatalf("expected single replaced row, got %v", rows)
	}

	res, err := conn.QueryContext(ctx, "SELECT bucket, payload FROM state", nil)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := res.Next(dest); err != nil {
		t.Fatalf("next: %v", err)
	}
	if dest[0] != "records" {
		t.Fatalf("unexpected bucket %v", dest[0])
	}
	if err := res.Next(dest); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestStubFailureSwitches(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailBegin = true
	if _, err := conn.BeginTx(ctx, driver.TxOptions{}); err == nil {
		t.Fatalf("expected begin failure")
	}
	conn.FailTables = map[string]bool{"state": true}
	if _, err := conn.QueryContext(ctx, "SELECT bucket FROM state", nil); err == nil {
		t.Fatalf("expected query failure")
	}
	if _, err := conn.QueryContext(ctx, "UPDATE state SET x=1", nil); err == nil {
		t.Fatalf("expected parse failure")
	}
}
