package memory

import (
	"context"
	"testing"

	"github.com/pithecene-io/wearlink/transport"
)

func TestNetwork_SendAndPeers(t *testing.T) {
	net := NewNetwork()
	phone := net.Join("phone", "Pixel 8")
	watch := net.Join("watch", "Pixel Watch")

	var got []transport.Message
	watch.Listen(func(_ context.Context, msg transport.Message) {
		got = append(got, msg)
	})

	peers, err := phone.ConnectedPeers(t.Context())
	if err != nil {
		t.Fatalf("ConnectedPeers: %v", err)
	}
	if len(peers) != 1 || peers[0].ID != "watch" || peers[0].DisplayName != "Pixel Watch" {
		t.Fatalf("peers = %+v", peers)
	}

	if !phone.Send(t.Context(), "watch", "/p", []byte("hi")) {
		t.Fatal("Send returned false")
	}
	if len(got) != 1 || got[0].Source != "phone" || string(got[0].Data) != "hi" {
		t.Errorf("received %+v", got)
	}
	if phone.Sent() != 1 {
		t.Errorf("Sent() = %d, want 1", phone.Sent())
	}
}

func TestNetwork_Disconnected(t *testing.T) {
	net := NewNetwork()
	phone := net.Join("phone", "p")
	watch := net.Join("watch", "w")
	watch.SetConnected(false)

	if peers, _ := phone.ConnectedPeers(t.Context()); len(peers) != 0 {
		t.Errorf("disconnected watch should not be listed: %+v", peers)
	}
	if phone.Send(t.Context(), "watch", "/p", nil) {
		t.Error("Send to disconnected node should fail")
	}
	if phone.Send(t.Context(), "nobody", "/p", nil) {
		t.Error("Send to unknown node should fail")
	}

	watch.SetConnected(true)
	if !phone.Send(t.Context(), "watch", "/p", nil) {
		t.Error("Send after reconnect should succeed")
	}
}

func TestNetwork_DropStillAccepts(t *testing.T) {
	net := NewNetwork()
	phone := net.Join("phone", "p")
	watch := net.Join("watch", "w")

	delivered := 0
	watch.Listen(func(context.Context, transport.Message) { delivered++ })
	net.SetDropFunc(DropCount(2))

	for i := 0; i < 3; i++ {
		if !phone.Send(t.Context(), "watch", "/p", nil) {
			t.Fatalf("send %d rejected", i)
		}
	}
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}

	net.SetDropFunc(DropPath("/lost"))
	phone.Send(t.Context(), "watch", "/lost", nil)
	phone.Send(t.Context(), "watch", "/kept", nil)
	if delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}
}

func TestNode_SendCopiesData(t *testing.T) {
	net := NewNetwork()
	phone := net.Join("phone", "p")
	watch := net.Join("watch", "w")

	var got []byte
	watch.Listen(func(_ context.Context, msg transport.Message) { got = msg.Data })

	data := []byte("abc")
	phone.Send(t.Context(), "watch", "/p", data)
	data[0] = 'z'
	if string(got) != "abc" {
		t.Errorf("receiver saw sender mutation: %q", got)
	}
}

func TestNode_Close(t *testing.T) {
	net := NewNetwork()
	phone := net.Join("phone", "p")
	watch := net.Join("watch", "w")
	_ = watch.Close()

	if phone.Send(t.Context(), "watch", "/p", nil) {
		t.Error("Send to closed node should fail")
	}
	if net.Join("phone", "other") != phone {
		t.Error("Join with existing id should return the same node")
	}
}
