package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Krimson/icu-transfer/dashboard/internal/config"
	"github.com/Krimson/icu-transfer/dashboard/internal/eventbus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsTestServer - тестовый сервер, считающий принятые соединения
type wsTestServer struct {
	srv         *httptest.Server
	connections int64
	onConnect   func(conn *websocket.Conn, n int64)
}

func newWSTestServer(t *testing.T, onConnect func(conn *websocket.Conn, n int64)) *wsTestServer {
	t.Helper()
	ts := &wsTestServer{onConnect: onConnect}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade: %v", err)
			return
		}
		n := atomic.AddInt64(&ts.connections, 1)
		if ts.onConnect != nil {
			ts.onConnect(conn, n)
		}
	}))
	return ts
}

func (ts *wsTestServer) url() string {
	return "ws" + strings.TrimPrefix(ts.srv.URL, "http")
}

func (ts *wsTestServer) count() int64 {
	return atomic.LoadInt64(&ts.connections)
}

func testConfig(wsURL string) *config.Config {
	return &config.Config{
		WebSocketURL:   wsURL,
		HTTPTimeout:    2 * time.Second,
		ReconnectDelay: 50 * time.Millisecond,
	}
}

func TestConnect_Idempotent(t *testing.T) {
	ts := newWSTestServer(t, nil)
	defer ts.srv.Close()

	client := New(testConfig(ts.url()), eventbus.New())
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("First connect failed: %v", err)
	}
	if err := client.Connect(); err != nil {
		t.Fatalf("Second connect failed: %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if n := ts.count(); n != 1 {
		t.Errorf("Expected exactly 1 server-side connection, got %d", n)
	}
	if !client.IsConnected() {
		t.Errorf("Expected client to report connected")
	}
}

func TestReadLoop_DispatchesTypedEvents(t *testing.T) {
	ts := newWSTestServer(t, func(conn *websocket.Conn, n int64) {
		msg := `{"type":"vitals_update","data":{"patient_id":"ICU-003","heartRate":95.5,"spO2":96.2,"respiratoryRate":18,"systolicBP":118,"lactate":1.4,"gcs":15}}`
		conn.WriteMessage(websocket.TextMessage, []byte(msg))
	})
	defer ts.srv.Close()

	bus := eventbus.New()
	received := make(chan *Event, 1)
	bus.Subscribe(string(EventVitalsUpdate), func(payload interface{}) {
		if ev, ok := payload.(*Event); ok {
			received <- ev
		}
	})

	client := New(testConfig(ts.url()), bus)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.Vitals == nil {
			t.Fatalf("Expected typed vitals payload")
		}
		if ev.Vitals.PatientID != "ICU-003" {
			t.Errorf("Expected patient_id ICU-003, got %s", ev.Vitals.PatientID)
		}
		if ev.Vitals.HeartRate != 95.5 {
			t.Errorf("Expected heartRate 95.5, got %.1f", ev.Vitals.HeartRate)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Timed out waiting for vitals_update")
	}
}

func TestReadLoop_MalformedMessageIsDropped(t *testing.T) {
	ts := newWSTestServer(t, func(conn *websocket.Conn, n int64) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"patient_updated","data":{"id":"ICU-007","name":"Emma Rodriguez","age":61,"vitals":{"heartRate":80,"spO2":97,"respiratoryRate":14,"systolicBP":122,"gcs":15,"lactate":1.0}}}`))
	})
	defer ts.srv.Close()

	bus := eventbus.New()
	received := make(chan *Event, 2)
	bus.Subscribe(string(EventPatientUpdated), func(payload interface{}) {
		received <- payload.(*Event)
	})

	client := New(testConfig(ts.url()), bus)
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	select {
	case ev := <-received:
		if ev.Patient == nil || ev.Patient.ID != "ICU-007" {
			t.Errorf("Expected patient ICU-007 after malformed message, got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Valid message after malformed one was not delivered")
	}

	if !client.IsConnected() {
		t.Errorf("Malformed message must not drop the connection")
	}
}

func TestReconnect_AfterServerClose(t *testing.T) {
	ts := newWSTestServer(t, func(conn *websocket.Conn, n int64) {
		if n == 1 {
			// Первое соединение сразу рвем - клиент должен переподключиться
			conn.Close()
		}
	})
	defer ts.srv.Close()

	client := New(testConfig(ts.url()), eventbus.New())
	defer client.Close()

	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for ts.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("Expected reconnect, got %d connections", ts.count())
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestClose_StopsReconnectLoop(t *testing.T) {
	ts := newWSTestServer(t, nil)
	defer ts.srv.Close()

	client := New(testConfig(ts.url()), eventbus.New())
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := client.Connect(); !errors.Is(err, ErrClientClosed) {
		t.Errorf("Expected ErrClientClosed after Close, got %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if n := ts.count(); n != 1 {
		t.Errorf("Expected no reconnects after Close, got %d connections", n)
	}
}

func TestDecodeEnvelope_DischargePayload(t *testing.T) {
	ev, err := DecodeEnvelope([]byte(`{"type":"patient_discharged","data":{"request_id":42,"patient_id":"ICU-009"}}`))
	if err != nil {
		t.Fatalf("DecodeEnvelope failed: %v", err)
	}
	if ev.Type != EventPatientDischarged || ev.Discharge == nil {
		t.Fatalf("Expected typed discharge event, got %+v", ev)
	}
	if ev.Discharge.RequestID.String() != "42" {
		t.Errorf("Expected request_id 42, got %s", ev.Discharge.RequestID)
	}
}

func TestDecodeEnvelope_UnknownTypeKeptRaw(t *testing.T) {
	ev, err := DecodeEnvelope([]byte(`{"type":"bed_reassigned","data":{"bed":"B-12"}}`))
	if err != nil {
		t.Fatalf("Unknown type must not be an error: %v", err)
	}
	if ev.Type != "bed_reassigned" {
		t.Errorf("Expected raw event type preserved, got %s", ev.Type)
	}
	if len(ev.Raw) == 0 {
		t.Errorf("Expected raw payload preserved")
	}
}
