package ioutil

import "testing"

func TestSelfPipeNotifyAndDrain(t *testing.T) {
	p, err := NewSelfPipe()
	if err != nil {
		t.Fatalf("NewSelfPipe: %v", err)
	}
	defer p.Close()

	if p.Drain() {
		t.Fatalf("expected nothing buffered on a fresh pipe")
	}

	p.Notify()
	p.Notify()
	p.Notify() // coalesces with the undrained bytes above

	if !p.Drain() {
		t.Fatalf("expected at least one buffered byte after Notify")
	}
	if p.Drain() {
		t.Fatalf("expected pipe to be empty after Drain")
	}
}

func TestTryNonblockingPassesThroughOtherErrors(t *testing.T) {
	sentinel := errUnrelated{}
	_, ok, err := TryNonblocking(func() (int, error) {
		return 0, sentinel
	})
	if ok {
		t.Fatalf("expected ok=false")
	}
	if err != sentinel {
		t.Fatalf("expected sentinel error to pass through untouched, got %v", err)
	}
}

type errUnrelated struct{}

func (errUnrelated) Error() string { return "unrelated" }
