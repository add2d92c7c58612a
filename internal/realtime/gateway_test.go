package realtime

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"mealmesh/internal/infra"
	"mealmesh/internal/types"
)

// scriptedConn is a transport double fed from a channel of inbound frames.
type scriptedConn struct {
	fakeConn
	inbound chan []byte
}

func newScriptedConn() *scriptedConn {
	c := &scriptedConn{inbound: make(chan []byte, 16)}
	c.open = true
	return c
}

func (c *scriptedConn) ReadMessage() ([]byte, error) {
	data, ok := <-c.inbound
	if !ok {
		return nil, errors.New("connection closed")
	}
	return data, nil
}

func (c *scriptedConn) send(t *testing.T, msg clientMessage) {
	t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	c.inbound <- data
}

func (c *scriptedConn) sentTypes() []string {
	var out []string
	for _, f := range c.sent() {
		switch m := f.(type) {
		case serverMessage:
			out = append(out, m.Type)
		case EventFrame:
			out = append(out, m.Type)
		}
	}
	return out
}

type stubVerifier struct {
	claims map[string]*infra.Claims
}

func (v *stubVerifier) Verify(token string) (*infra.Claims, error) {
	if c, ok := v.claims[token]; ok {
		return c, nil
	}
	return nil, infra.ErrInvalidToken
}

func newTestGateway(authTimeout time.Duration) (*Gateway, *Registry, *SubscriptionIndex) {
	subs := NewSubscriptionIndex()
	reg := NewRegistry(subs, time.Hour, time.Hour, zerolog.Nop())
	verifier := &stubVerifier{claims: map[string]*infra.Claims{
		"tok-cust": {UserID: "u1", Role: types.RoleCustomer},
		"tok-dp":   {UserID: "dp1", Role: types.RoleDeliveryPartner},
	}}
	return NewGateway(verifier, reg, subs, authTimeout, zerolog.Nop()), reg, subs
}

func TestSessionAuthAndSubscribe(t *testing.T) {
	gw, reg, subs := newTestGateway(time.Second)

	conn := newScriptedConn()
	done := make(chan struct{})
	go func() {
		gw.runSession(conn)
		close(done)
	}()

	conn.send(t, clientMessage{Type: TypeAuth, Token: "tok-cust"})
	conn.send(t, clientMessage{Type: TypeSubscribe, OrderID: "o1"})
	conn.send(t, clientMessage{Type: TypePing})
	close(conn.inbound)
	<-done

	want := []string{TypeAuthSuccess, TypeSubscribed, TypePong}
	got := conn.sentTypes()
	if len(got) != len(want) {
		t.Fatalf("frames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("frame %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !reg.Connected("u1") {
		t.Fatal("user should be registered after auth")
	}
	if len(subs.Subscribers("o1")) != 1 {
		t.Fatal("subscription not recorded")
	}
}

func TestSessionRejectsInvalidToken(t *testing.T) {
	gw, reg, _ := newTestGateway(time.Second)

	conn := newScriptedConn()
	done := make(chan struct{})
	go func() {
		gw.runSession(conn)
		close(done)
	}()

	conn.send(t, clientMessage{Type: TypeAuth, Token: "garbage"})
	<-done

	if got := conn.closedWith(); got != CloseAuthFailure {
		t.Fatalf("close code = %d, want %d", got, CloseAuthFailure)
	}
	if reg.Connected("u1") {
		t.Fatal("user must not be registered")
	}
}

func TestSessionAllowsAuthRetryAfterOtherMessage(t *testing.T) {
	gw, reg, _ := newTestGateway(time.Second)

	conn := newScriptedConn()
	done := make(chan struct{})
	go func() {
		gw.runSession(conn)
		close(done)
	}()

	// Pre-auth subscribe gets an auth_error but the connection stays open.
	conn.send(t, clientMessage{Type: TypeSubscribe, OrderID: "o1"})
	conn.send(t, clientMessage{Type: TypeAuth, Token: "tok-cust"})
	close(conn.inbound)
	<-done

	got := conn.sentTypes()
	if len(got) != 2 || got[0] != TypeAuthError || got[1] != TypeAuthSuccess {
		t.Fatalf("frames = %v, want [auth_error auth_success]", got)
	}
	if !reg.Connected("u1") {
		t.Fatal("user should be registered after retry")
	}
}

func TestSessionAuthTimeoutClosesConnection(t *testing.T) {
	gw, _, _ := newTestGateway(30 * time.Millisecond)

	conn := newScriptedConn()
	done := make(chan struct{})
	go func() {
		gw.runSession(conn)
		close(done)
	}()

	time.Sleep(90 * time.Millisecond)
	if conn.IsOpen() {
		t.Fatal("connection should be closed after auth timeout")
	}
	if got := conn.closedWith(); got != CloseAuthFailure {
		t.Fatalf("close code = %d, want %d", got, CloseAuthFailure)
	}
	close(conn.inbound)
	<-done
}

func TestSessionUnknownMessageType(t *testing.T) {
	gw, _, _ := newTestGateway(time.Second)

	conn := newScriptedConn()
	done := make(chan struct{})
	go func() {
		gw.runSession(conn)
		close(done)
	}()

	conn.send(t, clientMessage{Type: TypeAuth, Token: "tok-cust"})
	conn.send(t, clientMessage{Type: "bogus"})
	close(conn.inbound)
	<-done

	got := conn.sentTypes()
	if len(got) != 2 || got[1] != TypeError {
		t.Fatalf("frames = %v, want error frame after auth", got)
	}
}

func TestDisconnectEntersGrace(t *testing.T) {
	gw, reg, subs := newTestGateway(time.Second)

	conn := newScriptedConn()
	done := make(chan struct{})
	go func() {
		gw.runSession(conn)
		close(done)
	}()

	conn.send(t, clientMessage{Type: TypeAuth, Token: "tok-cust"})
	conn.send(t, clientMessage{Type: TypeSubscribe, OrderID: "o1"})
	close(conn.inbound)
	<-done

	// With a long grace the subscription must survive the disconnect.
	if len(subs.Subscribers("o1")) != 1 {
		t.Fatal("subscription should survive into grace")
	}
	if !reg.Connected("u1") {
		t.Fatal("entry should remain during grace")
	}
}
