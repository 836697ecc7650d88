package orchestrator

import (
	"reflect"
	"testing"

	"github.com/ShayCichocki/finagent/pkg/models"
)

func TestRegistry(t *testing.T) {
	a := &stubWorker{id: "a", status: models.WorkerStatusIdle}
	b := &stubWorker{id: "b", status: models.WorkerStatusCompleted}
	r := NewRegistry(a, b)

	if r.Count() != 2 {
		t.Errorf("Count = %d, want 2", r.Count())
	}
	if w, ok := r.Get("b"); !ok || w != b {
		t.Error("Get(b) did not return the registered worker")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get(missing) found a worker")
	}

	replacement := &stubWorker{id: "a", status: models.WorkerStatusError}
	r.Register(replacement)
	if !reflect.DeepEqual(r.IDs(), []string{"a", "b"}) {
		t.Errorf("IDs = %v, want registration order kept", r.IDs())
	}
	if got := r.Statuses()["a"]; got != models.WorkerStatusError {
		t.Errorf("status of replaced worker = %q", got)
	}

	caps := r.Capabilities()
	if len(caps) != 2 || caps[0].ID != "a" || caps[0].Role != "stub" {
		t.Errorf("Capabilities = %+v", caps)
	}

	r.Unregister("a")
	r.Unregister("a")
	if !reflect.DeepEqual(r.IDs(), []string{"b"}) {
		t.Errorf("IDs after Unregister = %v", r.IDs())
	}
}
