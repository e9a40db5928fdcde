// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package wire implements the control-socket framing between the
// compositor and its clients: a two-line `<header>\n<payload>\n` record
// sent over a Unix domain socket, carrying ancillary file descriptors
// via SCM_RIGHTS. It is deliberately record-oriented (SOCK_SEQPACKET):
// one Send call produces exactly one frame; one Recv call consumes
// exactly one.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// noPayloadSentinel is the literal four-NUL-byte payload that encodes
// "no payload present".
var noPayloadSentinel = []byte{0, 0, 0, 0}

const maxFrameSize = 64 * 1024
const maxAncillarySize = 64 // room for a handful of SCM_RIGHTS fds

// ErrorKind classifies a framing failure.
type ErrorKind int

const (
	// WouldBlock surfaces EAGAIN/EWOULDBLOCK from a non-blocking socket.
	WouldBlock ErrorKind = iota
	// UnexpectedEof means the peer closed the connection mid-read.
	UnexpectedEof
	// Truncated means the kernel reported MSG_TRUNC (datagram larger
	// than our buffer) or MSG_CTRUNC (ancillary data larger than ours).
	Truncated
	// TrailingData means bytes remained after the second newline.
	TrailingData
	// Utf8 means the header contained a byte outside printable ASCII
	// (a NUL/control byte or any non-ASCII byte). The payload is not
	// checked for this; it only has to parse as JSON.
	Utf8
	// Json means the payload did not parse with encoding/json.
	Json
	// ExpectedFds means the header/payload combination requires
	// ancillary fds that were not present.
	ExpectedFds
	// ExpectedPayload means the header requires a non-sentinel payload.
	ExpectedPayload
)

func (k ErrorKind) String() string {
	switch k {
	case WouldBlock:
		return "WouldBlock"
	case UnexpectedEof:
		return "UnexpectedEof"
	case Truncated:
		return "Truncated"
	case TrailingData:
		return "TrailingData"
	case Utf8:
		return "Utf8"
	case Json:
		return "Json"
	case ExpectedFds:
		return "ExpectedFds"
	case ExpectedPayload:
		return "ExpectedPayload"
	default:
		return "Unknown"
	}
}

// ProtocolError wraps a framing failure with its Kind. Every kind is
// surfaced to the caller; none are swallowed.
type ProtocolError struct {
	Kind  ErrorKind
	Cause error
}

func (e *ProtocolError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("wire: %s: %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("wire: %s", e.Kind)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

func protoErr(kind ErrorKind, cause error) *ProtocolError {
	return &ProtocolError{Kind: kind, Cause: cause}
}

// Frame is a single control-socket record: a short ASCII header line and
// an optional payload, plus any fds passed alongside it.
type Frame struct {
	Header  string
	Payload []byte // nil means "no payload" (encodes to the sentinel)
	Fds     []int
}

// HelloPayload is the JSON body of the conventional first frame a server
// sends a client.
type HelloPayload struct {
	Server   string `json:"server"`
	Protocol int    `json:"protocol"`
}

// RequireFds validates that exactly n ancillary fds arrived with this
// frame, per the expected count for its header.
func (f *Frame) RequireFds(n int) error {
	if len(f.Fds) != n {
		return protoErr(ExpectedFds, fmt.Errorf("header %q: want %d fds, got %d", f.Header, n, len(f.Fds)))
	}
	return nil
}

// DecodePayload unmarshals the frame's JSON payload into v, rejecting a
// missing payload (the NUL sentinel) for headers that require one.
func (f *Frame) DecodePayload(v any) error {
	if f.Payload == nil {
		return protoErr(ExpectedPayload, fmt.Errorf("header %q", f.Header))
	}
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return protoErr(Json, err)
	}
	return nil
}

// Encode serialises f into the two-line wire format, without sending it.
func (f Frame) Encode() []byte {
	payload := f.Payload
	if payload == nil {
		payload = noPayloadSentinel
	}
	buf := make([]byte, 0, len(f.Header)+len(payload)+2)
	buf = append(buf, f.Header...)
	buf = append(buf, '\n')
	buf = append(buf, payload...)
	buf = append(buf, '\n')
	return buf
}

// EncodeAndSend serialises and sends f over conn as a single record,
// attaching any fds in f.Fds as SCM_RIGHTS ancillary data. Does not
// close or otherwise consume f.Fds; ownership transfer is the caller's
// responsibility per the command/event contract.
func EncodeAndSend(conn *net.UnixConn, f Frame) error {
	data := f.Encode()

	var oob []byte
	if len(f.Fds) > 0 {
		oob = unix.UnixRights(f.Fds...)
	}

	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var sendErr error
	ctrlErr := raw.Write(func(fd uintptr) bool {
		for {
			sendErr = unix.Sendmsg(int(fd), data, oob, nil, 0)
			if sendErr == unix.EINTR {
				continue
			}
			if sendErr == unix.EAGAIN {
				return false // let the runtime poller wait for writability
			}
			return true
		}
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return sendErr
}

// ReadFramed receives exactly one frame from conn. It loops internally
// on EINTR, surfaces EAGAIN/EWOULDBLOCK as WouldBlock, rejects
// MSG_TRUNC/MSG_CTRUNC as Truncated, and rejects any non-NUL byte
// following the frame's closing newline as TrailingData.
func ReadFramed(conn *net.UnixConn) (*Frame, error) {
	buf := make([]byte, maxFrameSize)
	oob := make([]byte, maxAncillarySize)

	var n, oobn, flags int
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var recvErr error
	ctrlErr := raw.Read(func(fd uintptr) bool {
		for {
			n, oobn, flags, _, recvErr = unix.Recvmsg(int(fd), buf, oob, 0)
			if recvErr == unix.EINTR {
				continue
			}
			// EAGAIN is handed back to the caller as WouldBlock rather
			// than waited out on the runtime poller.
			return true
		}
	})
	if ctrlErr != nil {
		return nil, ctrlErr
	}
	if recvErr == unix.EAGAIN {
		return nil, protoErr(WouldBlock, recvErr)
	}
	if recvErr != nil {
		return nil, protoErr(UnexpectedEof, recvErr)
	}
	if n == 0 {
		return nil, protoErr(UnexpectedEof, nil)
	}
	if flags&unix.MSG_TRUNC != 0 || flags&unix.MSG_CTRUNC != 0 {
		return nil, protoErr(Truncated, nil)
	}

	fds, err := parseFds(oob[:oobn])
	if err != nil {
		return nil, err
	}

	return parseFrame(buf[:n], fds)
}

func parseFds(oob []byte) ([]int, error) {
	if len(oob) == 0 {
		return nil, nil
	}
	scms, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, protoErr(Truncated, err)
	}
	var fds []int
	for _, scm := range scms {
		got, err := unix.ParseUnixRights(&scm)
		if err != nil {
			continue
		}
		fds = append(fds, got...)
	}
	return fds, nil
}

func parseFrame(data []byte, fds []int) (*Frame, error) {
	first := bytes.IndexByte(data, '\n')
	if first < 0 {
		return nil, protoErr(UnexpectedEof, nil)
	}
	header := data[:first]
	rest := data[first+1:]

	second := bytes.IndexByte(rest, '\n')
	if second < 0 {
		return nil, protoErr(UnexpectedEof, nil)
	}
	payload := rest[:second]

	// Trailing NUL padding after the closing newline is tolerated (some
	// senders pad records); any non-NUL byte there is an error.
	for _, b := range rest[second+1:] {
		if b != 0 {
			return nil, protoErr(TrailingData, nil)
		}
	}

	for _, b := range header {
		if b < 0x20 || b >= 0x7f {
			return nil, protoErr(Utf8, nil)
		}
	}

	f := &Frame{Header: string(header), Fds: fds}
	if !bytes.Equal(payload, noPayloadSentinel) {
		f.Payload = append([]byte(nil), payload...)
	}
	return f, nil
}
