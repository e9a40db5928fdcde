// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package wire

import (
	"encoding/json"
	"net"
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

func socketpair(t *testing.T) (a, b *net.UnixConn) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_SEQPACKET, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	connA, errA := net.FileConn(os.NewFile(uintptr(fds[0]), "a"))
	connB, errB := net.FileConn(os.NewFile(uintptr(fds[1]), "b"))
	if errA != nil || errB != nil {
		t.Fatalf("FileConn: %v / %v", errA, errB)
	}
	ua, ok1 := connA.(*net.UnixConn)
	ub, ok2 := connB.(*net.UnixConn)
	if !ok1 || !ok2 {
		t.Fatalf("expected *net.UnixConn, got %T / %T", connA, connB)
	}
	t.Cleanup(func() { ua.Close(); ub.Close() })
	return ua, ub
}

func TestFrameRoundTripWithPayload(t *testing.T) {
	a, b := socketpair(t)

	hello := HelloPayload{Server: "shift", Protocol: 1}
	payload, err := json.Marshal(hello)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	sent := Frame{Header: "hello", Payload: payload}
	if err := EncodeAndSend(a, sent); err != nil {
		t.Fatalf("send: %v", err)
	}

	got, err := ReadFramed(b)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Header != sent.Header {
		t.Fatalf("header mismatch: got %q want %q", got.Header, sent.Header)
	}
	var decoded HelloPayload
	if err := json.Unmarshal(got.Payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != hello {
		t.Fatalf("payload mismatch: got %+v want %+v", decoded, hello)
	}
}

func TestFrameRoundTripNoPayload(t *testing.T) {
	a, b := socketpair(t)

	if err := EncodeAndSend(a, Frame{Header: "shutdown"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := ReadFramed(b)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Payload != nil {
		t.Fatalf("expected nil payload for sentinel, got %q", got.Payload)
	}
}

func TestFrameRoundTripWithFds(t *testing.T) {
	a, b := socketpair(t)

	pipeFds := make([]int, 2)
	if err := unix.Pipe2(pipeFds, unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe2: %v", err)
	}
	defer unix.Close(pipeFds[0])
	defer unix.Close(pipeFds[1])

	sent := Frame{Header: "link", Payload: []byte(`{}`), Fds: []int{pipeFds[0], pipeFds[1]}}
	if err := EncodeAndSend(a, sent); err != nil {
		t.Fatalf("send: %v", err)
	}

	got, err := ReadFramed(b)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got.Fds) != 2 {
		t.Fatalf("expected 2 fds, got %d", len(got.Fds))
	}
	for _, fd := range got.Fds {
		unix.Close(fd)
	}
}

func TestParseFrameRejectsTrailingData(t *testing.T) {
	_, err := parseFrame([]byte("hdr\npayload\ngarbage"), nil)
	var perr *ProtocolError
	if err == nil {
		t.Fatal("expected error")
	}
	if !asProtocolError(err, &perr) || perr.Kind != TrailingData {
		t.Fatalf("expected TrailingData, got %v", err)
	}
}

func TestParseFrameToleratesTrailingNulPadding(t *testing.T) {
	f, err := parseFrame([]byte("hdr\npayload\n\x00\x00\x00"), nil)
	if err != nil {
		t.Fatalf("trailing NUL padding must be tolerated: %v", err)
	}
	if string(f.Payload) != "payload" {
		t.Fatalf("payload = %q", f.Payload)
	}
}

func TestRequireFdsValidatesCount(t *testing.T) {
	f := &Frame{Header: "link", Fds: []int{3}}
	if err := f.RequireFds(1); err != nil {
		t.Fatalf("RequireFds(1): %v", err)
	}
	err := f.RequireFds(2)
	var perr *ProtocolError
	if !asProtocolError(err, &perr) || perr.Kind != ExpectedFds {
		t.Fatalf("want ExpectedFds, got %v", err)
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	var v struct {
		N int `json:"n"`
	}

	var perr *ProtocolError
	noPayload := &Frame{Header: "h"}
	if err := noPayload.DecodePayload(&v); !asProtocolError(err, &perr) || perr.Kind != ExpectedPayload {
		t.Fatalf("want ExpectedPayload, got %v", err)
	}

	badJSON := &Frame{Header: "h", Payload: []byte("{")}
	if err := badJSON.DecodePayload(&v); !asProtocolError(err, &perr) || perr.Kind != Json {
		t.Fatalf("want Json, got %v", err)
	}

	good := &Frame{Header: "h", Payload: []byte(`{"n": 7}`)}
	if err := good.DecodePayload(&v); err != nil || v.N != 7 {
		t.Fatalf("DecodePayload: err=%v n=%d", err, v.N)
	}
}

func TestParseFrameSentinelIsNilPayload(t *testing.T) {
	f, err := parseFrame([]byte("hdr\n\x00\x00\x00\x00\n"), nil)
	if err != nil {
		t.Fatalf("parseFrame: %v", err)
	}
	if f.Payload != nil {
		t.Fatalf("expected nil payload, got %q", f.Payload)
	}
}

func asProtocolError(err error, target **ProtocolError) bool {
	pe, ok := err.(*ProtocolError)
	if ok {
		*target = pe
	}
	return ok
}
