package clickhouse

import (
	"context"
	"testing"
	"time"

	ch "github.com/ClickHouse/clickhouse-go/v2"
)

func TestOptionsSettings(t *testing.T) {
	cfg := &ClientConfig{Host: "db", Port: 8123, Database: "finsignal", UseHTTP: true, AsyncInsert: true, WaitForAsync: true, MaxExecTime: time.Minute}
	o := options(cfg)
	if o.Protocol != ch.HTTP || o.Addr[0] != "db:8123" || o.Auth.Database != "finsignal" {
		t.Fatalf("unexpected options %+v", o)
	}
	if o.Settings["max_execution_time"] != 60 || o.Settings["async_insert"] != 1 || o.Settings["wait_for_async_insert"] != 1 {
		t.Fatalf("unexpected settings %v", o.Settings)
	}
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(context.Background()); err == nil {
		t.Fatalf("expected an error without host")
	}
}
