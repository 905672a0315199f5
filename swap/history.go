package swap

import (
	"time"

	"github.com/ThrownLemon/conceal-bridge-ux-sub000/log"
)

// Record one completed swap handed to the history collaborator
type Record struct {
	SwapID      string    `json:"swapId"`
	PaymentID   string    `json:"paymentId" boltholdKey:"PaymentID"`
	Direction   Direction `json:"direction"`
	NetworkKey  string    `json:"network"`
	Amount      float64   `json:"amount"`
	FromAddress string    `json:"fromAddress"`
	ToAddress   string    `json:"toAddress"`
	EvmTxHash   string    `json:"evmTxHash"`
	SwapHash    string    `json:"swapHash"`
	DepositHash string    `json:"depositHash"`
	Swaped      float64   `json:"swaped"`
	CompletedAt time.Time `json:"completedAt"`
}

// Recorder persists completed swaps. Failures must never abort the
// swap flow, implementations log and move on.
type Recorder interface {
	AddRecord(record *Record) error
}

// NopRecorder discards records
type NopRecorder struct{}

// AddRecord implements Recorder
func (NopRecorder) AddRecord(*Record) error { return nil }

// Notifier reports terminal swap outcomes outward
type Notifier interface {
	Notify(title, message string)
}

// LogNotifier write notifications to the log
type LogNotifier struct{}

// Notify implements Notifier
func (LogNotifier) Notify(title, message string) {
	log.Info("swap notification", "title", title, "message", message)
}
