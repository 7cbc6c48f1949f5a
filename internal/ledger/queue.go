package ledger

import "github.com/mmeshcher/billing-simulator/internal/model"

// ChargeQueue — коллекция списаний, не разрешённых в день их возникновения:
// ожидающих выручку, свободный дневной лимит или повторную попытку проведения.
type ChargeQueue struct {
	charges []*model.Charge
}

// NewChargeQueue создаёт пустую очередь списаний.
func NewChargeQueue() *ChargeQueue {
	return &ChargeQueue{}
}

// Add добавляет списание в очередь.
func (q *ChargeQueue) Add(charge *model.Charge) {
	q.charges = append(q.charges, charge)
}

// Remove удаляет списание по тождеству указателя.
// Возвращает false, если списания в очереди нет.
func (q *ChargeQueue) Remove(charge *model.Charge) bool {
	for i, c := range q.charges {
		if c == charge {
			q.charges = append(q.charges[:i], q.charges[i+1:]...)
			return true
		}
	}
	return false
}

// Snapshot возвращает копию текущего содержимого очереди.
// Добавления и удаления после вызова на снимок не влияют, поэтому цикл может
// итерировать снимок и одновременно пополнять очередь новыми списаниями.
func (q *ChargeQueue) Snapshot() []*model.Charge {
	snapshot := make([]*model.Charge, len(q.charges))
	copy(snapshot, q.charges)
	return snapshot
}

// Len возвращает количество списаний в очереди.
func (q *ChargeQueue) Len() int {
	return len(q.charges)
}
