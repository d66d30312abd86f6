package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"FinSignal/internal/domain/models"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/signals" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want %d", h.Clients(), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHubBroadcastFiltersBySymbol(t *testing.T) {
	h := NewHub(nil)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()
	defer h.Close()

	all := dial(t, srv, "")
	defer all.Close()
	msft := dial(t, srv, "?symbols=msft")
	defer msft.Close()
	waitClients(t, h, 2)

	h.Broadcast(&models.Signal{ID: "1", Symbol: "AAPL"})
	h.Broadcast(&models.Signal{ID: "2", Symbol: "MSFT"})

	var got models.Signal
	_ = all.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := all.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, &got); err != nil || got.ID != "1" {
		t.Fatalf("first message = %s, %v", data, err)
	}

	_ = msft.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err = msft.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, &got); err != nil || got.Symbol != "MSFT" {
		t.Fatalf("filtered client got %s", data)
	}
}

func TestParseSymbols(t *testing.T) {
	got := parseSymbols(" aapl,,MSFT ")
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if _, ok := got["AAPL"]; !ok {
		t.Fatalf("AAPL missing")
	}
	if len(parseSymbols("")) != 0 {
		t.Fatalf("empty query should mean all symbols")
	}
}
