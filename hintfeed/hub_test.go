package hintfeed

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/bossmod/components"
	"github.com/milk9111/bossmod/encounters"
	"github.com/milk9111/bossmod/world"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return s
}

func TestHubReplaysLatestThenStreams(t *testing.T) {
	hub := NewHub(Config{Logger: log.New(&bytes.Buffer{}, "", 0)})
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	if err := hub.Broadcast(Snapshot{Encounter: "first", Phase: "pull"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	conn := dial(t, srv)
	if s := read(t, conn); s.Encounter != "first" || s.Phase != "pull" {
		t.Fatalf("replayed snapshot = %+v", s)
	}

	if err := hub.Broadcast(Snapshot{Encounter: "first", Phase: "enrage"}); err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if s := read(t, conn); s.Phase != "enrage" {
		t.Fatalf("streamed snapshot = %+v", s)
	}
}

func TestHubCloseDisconnectsConsumers(t *testing.T) {
	hub := NewHub(Config{Logger: log.New(&bytes.Buffer{}, "", 0)})
	srv := httptest.NewServer(hub)
	defer srv.Close()

	hub.Broadcast(Snapshot{Encounter: "x"})
	conn := dial(t, srv)
	read(t, conn)
	if n := hub.Subscribers(); n != 1 {
		t.Fatalf("subscribers = %d", n)
	}

	hub.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("read after close: %v", err)
	}
	if n := hub.Subscribers(); n != 0 {
		t.Fatalf("subscribers after close = %d", n)
	}
}

func TestCaptureBoneCrawler(t *testing.T) {
	w := world.NewState(t0)
	m, err := encounters.Open(w, encounters.Library{}, "bone_crawler", encounters.Options{Logger: log.New(&bytes.Buffer{}, "", 0)})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer m.Close()

	tank := &world.Actor{InstanceID: 1, Name: "Tank", Type: world.ActorTypePlayer, Position: cp.Vector{Y: 5}}
	healer := &world.Actor{InstanceID: 2, Name: "Healer", Type: world.ActorTypePlayer, Position: cp.Vector{Y: -20}}
	boss := &world.Actor{InstanceID: 0x100, OID: 0x1AB5, Type: world.ActorTypeEnemy}
	for _, a := range []*world.Actor{tank, healer, boss} {
		if err := w.CreateActor(a); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	w.SetPlayerActorID(tank.InstanceID)
	w.SetInCombat(true)
	m.Update()
	if err := w.StartCast(boss.InstanceID, world.CastInfo{Action: world.MakeSpell(7924), FinishAt: t0.Add(3 * time.Second)}); err != nil {
		t.Fatalf("cast: %v", err)
	}

	s := Capture(m)
	if s.Encounter != "bone_crawler" || s.Phase != "fight" {
		t.Fatalf("snapshot header = %q %q", s.Encounter, s.Phase)
	}
	if len(s.Slots) != 2 {
		t.Fatalf("slots = %+v", s.Slots)
	}
	tankHints := s.Slots[0]
	if !tankHints.Player || len(tankHints.Hints) != 1 || tankHints.Hints[0].Text != components.DefaultRiskText {
		t.Fatalf("tank = %+v", tankHints)
	}
	if len(tankHints.Hazards) != 1 || !strings.HasPrefix(tankHints.Hazards[0].Shape, "Cone(") {
		t.Fatalf("tank hazards = %+v", tankHints.Hazards)
	}
	if len(s.Slots[1].Hints) != 0 {
		t.Fatalf("healer behind the boss got hints: %+v", s.Slots[1].Hints)
	}
	if s.RiskCount() != 1 {
		t.Fatalf("risk count = %d", s.RiskCount())
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Contains(data, []byte(`"hints":[]`)) {
		t.Fatalf("empty hint list should encode as []: %s", data)
	}
}
