package session

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/muurk/navien/internal/protocol"
)

var testDeviceID = protocol.DeviceID{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x80}

// statusFrame returns a valid 42-byte frame for testDeviceID with a
// 5.0-30.0 °C room range
func statusFrame() []byte {
	f := make([]byte, protocol.StatusFrameSize)
	copy(f, testDeviceID[:])
	f[14] = 1  // room count
	f[21] = 3  // room temperature control
	f[22] = 41 // 20.5 °C
	f[38] = 10 // room min 5.0
	f[39] = 60 // room max 30.0
	return f
}

// fakeRelay accepts one connection, records the identification line,
// answers with reply and then collects everything written to it
type fakeRelay struct {
	ln    net.Listener
	reply []byte

	mu       sync.Mutex
	line     string
	received []byte
	done     chan struct{}
}

func newFakeRelay(t *testing.T, reply []byte) *fakeRelay {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	r := &fakeRelay{ln: ln, reply: reply, done: make(chan struct{})}
	t.Cleanup(func() { _ = ln.Close() })

	go r.serve()
	return r
}

func (r *fakeRelay) serve() {
	defer close(r.done)

	conn, err := r.ln.Accept()
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	br := bufio.NewReader(conn)
	line, err := br.ReadString('\n')
	if err != nil {
		return
	}
	r.mu.Lock()
	r.line = line
	r.mu.Unlock()

	if r.reply == nil {
		// Never answer; wait for the client to give up
		_, _ = io.Copy(io.Discard, br)
		return
	}
	if _, err := conn.Write(r.reply); err != nil {
		return
	}

	rest, _ := io.ReadAll(br)
	r.mu.Lock()
	r.received = rest
	r.mu.Unlock()
}

func (r *fakeRelay) addr() string { return r.ln.Addr().String() }

// wait blocks until the client has closed its side
func (r *fakeRelay) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("fake relay did not finish")
	}
}

func TestConnect(t *testing.T) {
	relay := newFakeRelay(t, statusFrame())
	sess := New("user@example.com", WithAddress(relay.addr()), WithTimeout(5*time.Second))

	state, err := sess.Connect(context.Background(), "0011AABBCCDD")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if state.DeviceID != testDeviceID {
		t.Errorf("DeviceID = %s, want %s", state.DeviceID, testDeviceID)
	}
	if sess.State() != StateConnected {
		t.Errorf("State() = %s, want connected", sess.State())
	}
	if sess.LastState() != state {
		t.Error("LastState() should return the decoded state")
	}

	if err := sess.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	relay.wait(t)

	if want := "user@example.com$iPhone1.0$0011AABBCCDD\n"; relay.line != want {
		t.Errorf("identification line = %q, want %q", relay.line, want)
	}
	if sess.State() != StateDisconnected {
		t.Errorf("State() after Close = %s, want disconnected", sess.State())
	}

	stats := sess.Stats()
	if stats.ConnectSuccesses != 1 || stats.FramesDecoded != 1 || stats.Disconnects != 1 {
		t.Errorf("Stats() = %+v", stats)
	}
	if stats.BytesReceived != protocol.StatusFrameSize {
		t.Errorf("BytesReceived = %d, want %d", stats.BytesReceived, protocol.StatusFrameSize)
	}
}

func TestExecute_SendsInOrder(t *testing.T) {
	relay := newFakeRelay(t, statusFrame())
	sess := New("user", WithAddress(relay.addr()))

	state, err := sess.Connect(context.Background(), "MAC")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	room, err := protocol.RoomHeat(state, 22.5)
	if err != nil {
		t.Fatal(err)
	}
	cmds := []protocol.Command{protocol.PowerOn(), room, protocol.HolidayOn()}
	for _, cmd := range cmds {
		if err := sess.Execute(cmd); err != nil {
			t.Fatalf("Execute(%s) error = %v", cmd, err)
		}
	}
	_ = sess.Close()
	relay.wait(t)

	var want []byte
	for _, cmd := range cmds {
		want = append(want, cmd.Encode(testDeviceID)...)
	}
	if !bytes.Equal(relay.received, want) {
		t.Errorf("relay received %x\nwant             %x", relay.received, want)
	}
	if got := relay.received[protocol.CommandFrameSize+18]; got != 45 {
		t.Errorf("room heat operand = %d, want 45", got)
	}
	if sess.Stats().CommandsSent != 3 {
		t.Errorf("CommandsSent = %d, want 3", sess.Stats().CommandsSent)
	}
}

func TestConnect_AlreadyConnected(t *testing.T) {
	relay := newFakeRelay(t, statusFrame())
	sess := New("user", WithAddress(relay.addr()))

	if _, err := sess.Connect(context.Background(), "MAC"); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = sess.Close() }()

	if _, err := sess.Connect(context.Background(), "MAC"); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("second Connect() error = %v, want ErrAlreadyConnected", err)
	}
}

func TestConnect_FrameErrors(t *testing.T) {
	tests := []struct {
		name    string
		reply   []byte
		wantErr error
		stat    func(Stats) int64
	}{
		{
			name:    "failure marker 44",
			reply:   []byte{0x44, 0x44, 0x44, 0x44, 0x44, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
			wantErr: protocol.ErrTransientRead,
			stat:    func(s Stats) int64 { return s.TransientReads },
		},
		{
			name:    "failure marker 04",
			reply:   bytes.Repeat([]byte{0x04}, 10),
			wantErr: protocol.ErrTransientRead,
			stat:    func(s Stats) int64 { return s.TransientReads },
		},
		{
			name:    "truncated",
			reply:   statusFrame()[:20],
			wantErr: protocol.ErrTruncatedFrame,
			stat:    func(s Stats) int64 { return s.TruncatedFrames },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := newFakeRelay(t, tt.reply)
			sess := New("user", WithAddress(relay.addr()), WithTimeout(5*time.Second))

			_, err := sess.Connect(context.Background(), "MAC")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Connect() error = %v, want %v", err, tt.wantErr)
			}
			var frameErr *protocol.FrameError
			if !errors.As(err, &frameErr) {
				t.Errorf("error should be *protocol.FrameError, got %T", err)
			}
			if sess.State() != StateDisconnected {
				t.Errorf("State() = %s, want disconnected", sess.State())
			}
			if got := tt.stat(sess.Stats()); got != 1 {
				t.Errorf("frame error counter = %d, want 1", got)
			}
			relay.wait(t)
		})
	}
}

func TestConnect_ExtraRoomData(t *testing.T) {
	frame := append(statusFrame(), 0x01, 0x02, 0x03)
	relay := newFakeRelay(t, frame)
	sess := New("user", WithAddress(relay.addr()))

	state, err := sess.Connect(context.Background(), "MAC")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer func() { _ = sess.Close() }()

	if !errors.Is(state.UnsupportedRoomData(), protocol.ErrUnsupportedRoomData) {
		t.Error("extra room data should be reported")
	}
	if sess.Stats().ExtraRoomFrames != 1 {
		t.Errorf("ExtraRoomFrames = %d, want 1", sess.Stats().ExtraRoomFrames)
	}
}

func TestConnect_ContextTimeout(t *testing.T) {
	relay := newFakeRelay(t, nil)
	sess := New("user", WithAddress(relay.addr()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := sess.Connect(ctx, "MAC")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Connect() error = %v, want context.DeadlineExceeded", err)
	}
	if sess.State() != StateDisconnected {
		t.Errorf("State() = %s, want disconnected", sess.State())
	}
	relay.wait(t)
}

func TestConnect_DialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	sess := New("user", WithAddress(addr))
	if _, err := sess.Connect(context.Background(), "MAC"); err == nil {
		t.Fatal("Connect() to a closed port should fail")
	}
	if sess.State() != StateDisconnected {
		t.Errorf("State() = %s, want disconnected", sess.State())
	}
	if sess.Stats().ConnectFailures != 1 {
		t.Errorf("ConnectFailures = %d, want 1", sess.Stats().ConnectFailures)
	}
}

func TestConnect_InvalidIdentification(t *testing.T) {
	tests := []struct {
		user, mac string
	}{
		{"user", "AA$BB"},
		{"us\ner", "AABB"},
		{"", "AABB"},
		{"user", ""},
	}

	for _, tt := range tests {
		sess := New(tt.user, WithDialer(failDialer{t}))
		if _, err := sess.Connect(context.Background(), tt.mac); !errors.Is(err, ErrInvalidIdentification) {
			t.Errorf("Connect(%q, %q) error = %v, want ErrInvalidIdentification", tt.user, tt.mac, err)
		}
	}
}

type failDialer struct{ t *testing.T }

func (d failDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	d.t.Error("dialer should not be called")
	return nil, errors.New("unexpected dial")
}

// pipeDialer hands out the client end of a net.Pipe
type pipeDialer struct {
	client net.Conn
	addr   string
}

func (d *pipeDialer) DialContext(_ context.Context, _, addr string) (net.Conn, error) {
	d.addr = addr
	return d.client, nil
}

func TestConnect_WithDialer(t *testing.T) {
	client, server := net.Pipe()
	dialer := &pipeDialer{client: client}

	go func() {
		br := bufio.NewReader(server)
		if _, err := br.ReadString('\n'); err != nil {
			return
		}
		_, _ = server.Write(statusFrame())
		_, _ = io.Copy(io.Discard, br)
	}()
	defer func() { _ = server.Close() }()

	sess := New("user", WithDialer(dialer), WithAddress("relay.test:6001"), WithClientLabel("Android1.0"))
	state, err := sess.Connect(context.Background(), "MAC")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if dialer.addr != "relay.test:6001" {
		t.Errorf("dialed %q, want relay.test:6001", dialer.addr)
	}
	if state.DeviceID != testDeviceID {
		t.Errorf("DeviceID = %s", state.DeviceID)
	}
	if err := sess.Send(protocol.PowerOff().Encode(state.DeviceID)); err != nil {
		t.Errorf("Send() error = %v", err)
	}
	_ = sess.Close()
}

// gateDialer blocks in DialContext until release is closed, ignoring ctx,
// then hands out the client end of a net.Pipe
type gateDialer struct {
	entered chan struct{}
	release chan struct{}
	client  net.Conn
}

func (d *gateDialer) DialContext(context.Context, string, string) (net.Conn, error) {
	close(d.entered)
	<-d.release
	return d.client, nil
}

func TestClose_DuringConnect(t *testing.T) {
	client, server := net.Pipe()
	defer func() { _ = server.Close() }()
	dialer := &gateDialer{entered: make(chan struct{}), release: make(chan struct{}), client: client}

	sess := New("user", WithDialer(dialer), WithTimeout(0))

	done := make(chan error, 1)
	go func() {
		_, err := sess.Connect(context.Background(), "MAC")
		done <- err
	}()
	<-dialer.entered

	if err := sess.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := sess.State(); got != StateConnecting {
		t.Errorf("State() after Close during dial = %s, want connecting", got)
	}
	if _, err := sess.Connect(context.Background(), "MAC"); !errors.Is(err, ErrAlreadyConnected) {
		t.Errorf("overlapping Connect() error = %v, want ErrAlreadyConnected", err)
	}

	close(dialer.release)
	select {
	case err := <-done:
		if !errors.Is(err, net.ErrClosed) {
			t.Errorf("aborted Connect() error = %v, want net.ErrClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Connect() did not return after Close")
	}

	if got := sess.State(); got != StateDisconnected {
		t.Errorf("State() = %s, want disconnected", got)
	}
	// The dialed connection must not be left open
	if _, err := client.Write([]byte{0}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("write on dialed conn error = %v, want io.ErrClosedPipe", err)
	}
}

func TestSend_NotConnected(t *testing.T) {
	sess := New("user")
	if err := sess.Send([]byte{0x00}); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Send() error = %v, want ErrNotConnected", err)
	}
	if err := sess.Execute(protocol.PowerOn()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Execute() error = %v, want ErrNotConnected", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	sess := New("user")
	if err := sess.Close(); err != nil {
		t.Errorf("Close() on new session = %v", err)
	}
	if err := sess.Close(); err != nil {
		t.Errorf("second Close() = %v", err)
	}
}

func TestIdentificationLine(t *testing.T) {
	got, err := IdentificationLine("u", DefaultClientLabel, "0011AABBCCDD")
	if err != nil {
		t.Fatal(err)
	}
	if got != "u$iPhone1.0$0011AABBCCDD\n" {
		t.Errorf("IdentificationLine = %q", got)
	}
}
