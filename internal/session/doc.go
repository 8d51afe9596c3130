// Package session implements the relay's status/command socket for one
// controller.
//
// Connect opens a TCP connection to the relay (port 6001), sends one
// identification line
//
//	<user id>$iPhone1.0$<controller mac>\n
//
// and decodes the single status frame the relay answers with. Commands are
// then written verbatim with Send, or built against the decoded device ID
// with Execute. The protocol has no acknowledgement; reconnecting is the
// only way to observe the result.
//
// # Usage Example
//
//	sess := session.New(userID, session.WithTimeout(10*time.Second))
//	state, err := sess.Connect(ctx, gw.MAC)
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
//	cmd, err := protocol.RoomHeat(state, 21)
//	if err != nil {
//	    return err
//	}
//	return sess.Execute(cmd)
//
// Sessions for different controllers share nothing and may run
// concurrently.
package session
