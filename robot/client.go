// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the client side of the protocol: a RemoteRobot
// drives a physical puzzle over a connection and exposes the RobotLike
// capability set.  Pictures are cached until the state changes.

package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/qter-project/qter/interp"
	"github.com/qter-project/qter/perms"
)

// A RemoteRobot is a puzzle on the far side of a connection.
type RemoteRobot struct {
	conn  Conn
	group *perms.Group
	// Cached picture; invalidated by ComposeInto, seeded by Solve.
	current *perms.Permutation
}

var _ interp.RobotLike = (*RemoteRobot)(nil)

// Initialize opens a session: it sends the permutation group description
// and waits for the server's acknowledgement.
func Initialize(ctx context.Context, conn Conn, group *perms.Group) (*RemoteRobot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(group)
	if err != nil {
		return nil, err
	}
	encoded = append(encoded, '\n')

	if len(encoded) > MaxLineLength {
		return nil, fmt.Errorf(
			"cannot send a group with such a large encoding to the server (%d > %d)",
			len(encoded), MaxLineLength)
	}
	if err := conn.writeFrame(encoded); err != nil {
		return nil, err
	}
	if err := ackOrErr(conn); err != nil {
		return nil, err
	}

	return &RemoteRobot{conn: conn, group: group}, nil
}

// ComposeInto implements interp.RobotLike: it sends the move names as one
// line and waits for the acknowledgement.
func (r *RemoteRobot) ComposeInto(ctx context.Context, alg *perms.Algorithm) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.current = nil
	if err := r.conn.writeLine(strings.Join(alg.Moves(), " ")); err != nil {
		return err
	}
	return ackOrErr(r.conn)
}

// TakePicture implements interp.RobotLike.  The result is cached until the
// next state change.
func (r *RemoteRobot) TakePicture(ctx context.Context) (*perms.Permutation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.current != nil {
		return r.current, nil
	}

	if err := r.conn.writeLine("!PICTURE"); err != nil {
		return nil, err
	}
	if err := ackOrErr(r.conn); err != nil {
		return nil, err
	}

	line, err := r.conn.readLine()
	if err != nil {
		return nil, err
	}
	state, err := perms.ParsePermutation(line)
	if err != nil {
		return nil, err
	}

	r.current = state
	return r.current, nil
}

// Solve implements interp.RobotLike.
func (r *RemoteRobot) Solve(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.conn.writeLine("!SOLVE"); err != nil {
		return err
	}
	if err := ackOrErr(r.conn); err != nil {
		return err
	}
	r.current = perms.Identity()
	return nil
}
