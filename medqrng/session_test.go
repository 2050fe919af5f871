package medqrng_test

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Thiagojm/medqrng_go/medqrng"
	"github.com/Thiagojm/medqrng_go/medqrng/medqrngtest"
)

func TestOpenClose(t *testing.T) {
	d := medqrngtest.QNG()
	s, err := medqrng.Open(medqrng.WithBackend(d))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if d.Depth() != 1 || d.Creates != 1 {
		t.Fatalf("depth=%d creates=%d, want 1/1", d.Depth(), d.Creates)
	}
	if d.CLSID != medqrng.CLSID {
		t.Fatalf("clsid = %q, want %q", d.CLSID, medqrng.CLSID)
	}

	s.Close()
	if d.Depth() != 0 || d.Releases != 1 {
		t.Fatalf("after Close depth=%d releases=%d, want 0/1", d.Depth(), d.Releases)
	}

	s.Close()
	if d.Uninits != 1 || d.Releases != 1 {
		t.Fatalf("second Close tore down again: uninits=%d releases=%d", d.Uninits, d.Releases)
	}
}

func TestOpenWithCLSID(t *testing.T) {
	d := medqrngtest.QNG()
	const clsid = "{00000000-0000-0000-0000-000000000001}"
	s, err := medqrng.Open(medqrng.WithBackend(d), medqrng.WithCLSID(clsid))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if d.CLSID != clsid {
		t.Fatalf("clsid = %q, want %q", d.CLSID, clsid)
	}
}

func TestOpenEnvironmentInitFailed(t *testing.T) {
	d := medqrngtest.QNG()
	d.InitErr = medqrng.StatusChangedMode

	s, err := medqrng.Open(medqrng.WithBackend(d))
	if s != nil {
		t.Fatal("session returned on failure")
	}
	if !errors.Is(err, medqrng.ErrEnvironmentInit) {
		t.Fatalf("err = %v, want ErrEnvironmentInit", err)
	}
	var e *medqrng.Error
	if !errors.As(err, &e) || e.Status != medqrng.StatusChangedMode {
		t.Fatalf("err = %#v, want status %v", err, medqrng.StatusChangedMode)
	}
	if d.Creates != 0 || d.Depth() != 0 {
		t.Fatalf("creates=%d depth=%d, want 0/0", d.Creates, d.Depth())
	}
}

func TestOpenDeviceCreateFailedUnwindsApartment(t *testing.T) {
	d := medqrngtest.QNG()
	d.CreateErr = medqrng.StatusClassNotReg

	_, err := medqrng.Open(medqrng.WithBackend(d))
	if !errors.Is(err, medqrng.ErrDeviceCreate) {
		t.Fatalf("err = %v, want ErrDeviceCreate", err)
	}
	if !errors.Is(err, medqrng.StatusClassNotReg) {
		t.Fatalf("err = %v does not wrap the driver status", err)
	}
	if !strings.Contains(err.Error(), "0x80040154") {
		t.Fatalf("err = %q, want the raw status", err)
	}
	if d.Depth() != 0 {
		t.Fatalf("apartment depth = %d after failed Open, want 0", d.Depth())
	}

	// A later attempt starts from a clean apartment.
	d.CreateErr = nil
	s, err := medqrng.Open(medqrng.WithBackend(d))
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if d.Depth() != 1 {
		t.Fatalf("depth = %d, want 1", d.Depth())
	}
	s.Close()
	if d.Depth() != 0 {
		t.Fatalf("depth = %d after Close, want 0", d.Depth())
	}
}

func TestUseAfterClose(t *testing.T) {
	d := medqrngtest.QNG()
	s, err := medqrng.Open(medqrng.WithBackend(d))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	s.Close()

	if _, err := s.RandInt32(); !errors.Is(err, medqrng.ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
	if err := s.Reset(); !errors.Is(err, medqrng.ErrSessionClosed) {
		t.Fatalf("err = %v, want ErrSessionClosed", err)
	}
	if len(d.Calls) != 0 {
		t.Fatalf("driver saw %d calls after Close", len(d.Calls))
	}
}

func TestSessionLogsDispatch(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	d := medqrngtest.QNG()
	s, err := medqrng.Open(medqrng.WithBackend(d), medqrng.WithLogger(zap.New(core)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.RandUniform(); err != nil {
		t.Fatalf("RandUniform: %v", err)
	}
	s.Close()

	if logs.FilterMessage("apartment entered").Len() != 1 {
		t.Fatal("missing apartment log")
	}
	entries := logs.FilterMessage("invoke").All()
	if len(entries) != 1 {
		t.Fatalf("invoke entries = %d, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["member"]; got != medqrng.MemberRandUniform {
		t.Fatalf("member = %v, want %s", got, medqrng.MemberRandUniform)
	}
	if logs.FilterMessage("session closed").Len() != 1 {
		t.Fatal("missing close log")
	}
}
