// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package robot

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/qter-project/qter/interp"
	"github.com/qter-project/qter/perms"
	"github.com/qter-project/qter/puzzles"
)

// scriptedPeer reads client traffic and plays back canned responses.
type scriptedPeer struct {
	t *testing.T
	r *bufio.Reader
	w io.Writer
}

func (p *scriptedPeer) expectFrame() []byte {
	p.t.Helper()
	var length [2]byte
	if _, err := io.ReadFull(p.r, length[:]); err != nil {
		p.t.Fatalf("reading frame length: %v", err)
	}
	payload := make([]byte, binary.BigEndian.Uint16(length[:]))
	if _, err := io.ReadFull(p.r, payload); err != nil {
		p.t.Fatalf("reading frame: %v", err)
	}
	return payload
}

func (p *scriptedPeer) expectLine(want string) {
	p.t.Helper()
	line, err := p.r.ReadString('\n')
	if err != nil {
		p.t.Fatalf("reading line: %v", err)
	}
	if line != want+"\n" {
		p.t.Fatalf("expected %q, got %q", want, line)
	}
}

func (p *scriptedPeer) send(raw string) {
	p.t.Helper()
	if _, err := io.WriteString(p.w, raw); err != nil {
		p.t.Fatalf("writing response: %v", err)
	}
}

func TestClientSession(t *testing.T) {
	clientEnd, peerEnd := net.Pipe()
	defer clientEnd.Close()
	defer peerEnd.Close()

	cube := puzzles.Cube3()
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		peer := &scriptedPeer{t: t, r: bufio.NewReader(peerEnd), w: peerEnd}

		peer.expectFrame()
		peer.send("!ACK\n")

		peer.expectLine("U D U2 D2 U' D'")
		peer.send("!ACK\n")

		peer.expectLine("!PICTURE")
		peer.send("!ACK\n(1, 0)\n")

		peer.expectLine("!SOLVE")
		peer.send("!ACK\n")

		peer.expectLine("U")
		peer.send("!ERR\n\x00\x03ABC")
	}()

	robot, err := Initialize(ctx, NewConn(clientEnd), cube)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}

	alg, err := perms.ParseAlgorithm(cube, "U D U2 D2 U' D'")
	if err != nil {
		t.Fatal(err)
	}
	if err := robot.ComposeInto(ctx, alg); err != nil {
		t.Fatalf("compose: %v", err)
	}

	picture, err := robot.TakePicture(ctx)
	if err != nil {
		t.Fatalf("picture: %v", err)
	}
	if !picture.Equal(perms.FromCycles([][]int{{0, 1}})) {
		t.Fatalf("expected the swap (0, 1), got %v", picture)
	}

	// The picture is cached: no traffic happens for the second call.
	again, err := robot.TakePicture(ctx)
	if err != nil || !again.Equal(picture) {
		t.Fatalf("cached picture: %v %v", again, err)
	}

	if err := robot.Solve(ctx); err != nil {
		t.Fatalf("solve: %v", err)
	}
	solved, err := robot.TakePicture(ctx)
	if err != nil || !solved.IsIdentity() {
		t.Fatalf("after solve, the cached picture should be the identity: %v %v", solved, err)
	}

	u, err := perms.ParseAlgorithm(cube, "U")
	if err != nil {
		t.Fatal(err)
	}
	err = robot.ComposeInto(ctx, u)
	var backendErr *BackendError
	if !errors.As(err, &backendErr) {
		t.Fatalf("expected a backend error, got %v", err)
	}
	if backendErr.Message != "ABC" || len(backendErr.Message) != 3 {
		t.Fatalf("expected message ABC, got %q", backendErr.Message)
	}

	<-done
}

func TestClientProtocolError(t *testing.T) {
	clientEnd, peerEnd := net.Pipe()
	defer clientEnd.Close()
	defer peerEnd.Close()

	go func() {
		peer := bufio.NewReader(peerEnd)
		var length [2]byte
		io.ReadFull(peer, length[:])
		payload := make([]byte, binary.BigEndian.Uint16(length[:]))
		io.ReadFull(peer, payload)
		io.WriteString(peerEnd, "WHAT?")
	}()

	_, err := Initialize(context.Background(), NewConn(clientEnd), puzzles.Cube3())
	if !errors.Is(err, ErrProtocol) {
		t.Fatalf("expected a protocol error, got %v", err)
	}
}

// testRobot is a scripted RobotLike backend for server tests.
type testRobot struct {
	t     *testing.T
	calls []string
	state *perms.Permutation
	fail  map[string]string
}

func (r *testRobot) ComposeInto(_ context.Context, alg *perms.Algorithm) error {
	r.calls = append(r.calls, "compose "+alg.String())
	if msg, ok := r.fail["compose"]; ok {
		return errors.New(msg)
	}
	r.state.ComposeInto(alg.Permutation())
	return nil
}

func (r *testRobot) TakePicture(context.Context) (*perms.Permutation, error) {
	r.calls = append(r.calls, "picture")
	if msg, ok := r.fail["picture"]; ok {
		return nil, errors.New(msg)
	}
	return r.state, nil
}

func (r *testRobot) Solve(context.Context) error {
	r.calls = append(r.calls, "solve")
	if msg, ok := r.fail["solve"]; ok {
		return errors.New(msg)
	}
	r.state = perms.Identity()
	return nil
}

func TestClientServerRoundTrip(t *testing.T) {
	clientEnd, serverEnd := net.Pipe()
	defer clientEnd.Close()
	defer serverEnd.Close()

	cube := puzzles.Cube3()
	ctx := context.Background()

	backend := &testRobot{t: t, state: perms.Identity()}
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- RunServer(ctx, NewConn(serverEnd),
			func(_ context.Context, group *perms.Group) (interp.RobotLike, error) {
				if group.FaceletCount() != cube.FaceletCount() {
					return nil, fmt.Errorf("unexpected group %s", group.Name())
				}
				return backend, nil
			})
	}()

	robot, err := Initialize(ctx, NewConn(clientEnd), cube)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}

	u, err := perms.ParseAlgorithm(cube, "U")
	if err != nil {
		t.Fatal(err)
	}
	if err := robot.ComposeInto(ctx, u); err != nil {
		t.Fatalf("compose: %v", err)
	}

	picture, err := robot.TakePicture(ctx)
	if err != nil {
		t.Fatalf("picture: %v", err)
	}
	if !picture.Equal(u.Permutation()) {
		t.Fatalf("the picture should reflect the U turn")
	}

	if err := robot.Solve(ctx); err != nil {
		t.Fatalf("solve: %v", err)
	}

	// A backend failure surfaces to the client but keeps the session open.
	backend.fail = map[string]string{"compose": "motor jam"}
	err = robot.ComposeInto(ctx, u)
	var backendErr *BackendError
	if !errors.As(err, &backendErr) || backendErr.Message != "motor jam" {
		t.Fatalf("expected the stringified backend failure, got %v", err)
	}

	backend.fail = nil
	if err := robot.Solve(ctx); err != nil {
		t.Fatalf("the session must survive a backend failure: %v", err)
	}

	clientEnd.Close()
	if err := <-serverDone; err != nil && err != io.EOF {
		if !errors.Is(err, io.ErrClosedPipe) {
			t.Fatalf("server ended with %v", err)
		}
	}

	want := []string{"compose U", "picture", "solve", "compose U", "solve"}
	if len(backend.calls) != len(want) {
		t.Fatalf("expected calls %v, got %v", want, backend.calls)
	}
	for i := range want {
		if backend.calls[i] != want[i] {
			t.Fatalf("expected calls %v, got %v", want, backend.calls)
		}
	}
}
