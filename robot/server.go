// Copyright 2024 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// This file implements the server side of the protocol.  A session begins
// with the client's group handshake; afterwards every line is a command or
// a move sequence, each answered with ack-or-err.  Backend failures are
// stringified into the err frame and do not end the session; I/O failures
// do.

package robot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/qter-project/qter/interp"
	"github.com/qter-project/qter/logger"
	"github.com/qter-project/qter/perms"
	"golang.org/x/sync/errgroup"
)

// NewRobotFunc creates the backend a session drives, given the group the
// client announced.
type NewRobotFunc func(ctx context.Context, group *perms.Group) (interp.RobotLike, error)

// RunServer serves one session on the connection until the client
// disconnects.
func RunServer(ctx context.Context, conn Conn, newRobot NewRobotFunc) error {
	log := logger.Logger().With().Str("component", "robot-server").Logger()

	payload, err := conn.readFrame()
	if err != nil {
		return err
	}

	group, robot, initErr := initSession(ctx, payload, newRobot)
	if err := sendAck(conn, initErr); err != nil {
		return err
	}
	if initErr != nil {
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		command, err := conn.readLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if command == "" {
			return nil
		}

		log.Trace().Str("command", command).Msg("received")

		switch command {
		case "!SOLVE":
			if err := sendAck(conn, robot.Solve(ctx)); err != nil {
				return err
			}

		case "!PICTURE":
			state, pictureErr := robot.TakePicture(ctx)
			if err := sendAck(conn, pictureErr); err != nil {
				return err
			}
			if pictureErr != nil {
				continue
			}
			if err := conn.writeLine(state.String()); err != nil {
				return err
			}

		default:
			alg, parseErr := perms.ParseAlgorithm(group, command)
			var result error
			if parseErr != nil {
				result = fmt.Errorf("could not parse %q as an algorithm", command)
			} else {
				result = robot.ComposeInto(ctx, alg)
			}
			if err := sendAck(conn, result); err != nil {
				return err
			}
		}
	}
}

func initSession(ctx context.Context, payload []byte, newRobot NewRobotFunc) (*perms.Group, interp.RobotLike, error) {
	var group perms.Group
	if err := json.Unmarshal(payload, &group); err != nil {
		return nil, nil, err
	}
	robot, err := newRobot(ctx, &group)
	if err != nil {
		return nil, nil, err
	}
	return &group, robot, nil
}

// Serve accepts connections until the context is cancelled, running one
// session per connection.  A session error closes that session only.
func Serve(ctx context.Context, listener net.Listener, newRobot NewRobotFunc) error {
	log := logger.Logger().With().Str("component", "robot-server").Logger()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		<-ctx.Done()
		return listener.Close()
	})

	group.Go(func() error {
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			group.Go(func() error {
				defer conn.Close()
				if err := RunServer(ctx, NewConn(conn), newRobot); err != nil {
					log.Warn().Err(err).Msg("session ended")
				}
				return nil
			})
		}
	})

	return group.Wait()
}
