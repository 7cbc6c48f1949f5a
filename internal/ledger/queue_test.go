package ledger

import (
	"testing"
	"time"

	"github.com/mmeshcher/billing-simulator/internal/model"
)

func TestQueueRemoveByIdentity(t *testing.T) {
	q := NewChargeQueue()

	advance := testAdvance(1001, "100")
	first := &model.Charge{Advance: advance, DateFor: model.NewDate(2022, time.January, 8), Amount: amountPtr("10")}
	second := &model.Charge{Advance: advance, DateFor: model.NewDate(2022, time.January, 8), Amount: amountPtr("10")}

	q.Add(first)
	q.Add(second)

	if !q.Remove(first) {
		t.Fatalf("Remove must find the queued charge")
	}
	if q.Remove(first) {
		t.Fatalf("Remove must not find an already removed charge")
	}
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", q.Len())
	}
	if q.Snapshot()[0] != second {
		t.Fatalf("remaining charge is not the expected one")
	}
}

func TestQueueSnapshotStableUnderAdds(t *testing.T) {
	q := NewChargeQueue()

	advance := testAdvance(1001, "100")
	q.Add(&model.Charge{Advance: advance, DateFor: model.NewDate(2022, time.January, 8)})
	q.Add(&model.Charge{Advance: advance, DateFor: model.NewDate(2022, time.January, 9)})

	snapshot := q.Snapshot()

	// Пополнение очереди во время обхода снимка не должно менять сам снимок.
	for range snapshot {
		q.Add(&model.Charge{Advance: advance, DateFor: model.NewDate(2022, time.January, 10)})
	}

	if len(snapshot) != 2 {
		t.Fatalf("snapshot length = %d, want 2", len(snapshot))
	}
	if q.Len() != 4 {
		t.Fatalf("queue length = %d, want 4", q.Len())
	}
}
