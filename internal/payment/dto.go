package payment

import "time"

// Payment methods accepted for the monthly fee.
const (
	MethodPix          = "pix"
	MethodCreditCard   = "cartao_credito"
	MethodDebitCard    = "cartao_debito"
	MethodCash         = "dinheiro"
	MethodBankTransfer = "transferencia"
)

// MonthlyPaymentRow is one student in the staff list, as read from the store.
type MonthlyPaymentRow struct {
	UserID                 string
	StudentName            string
	MonthlyFeeValueInCents int64
	DueDate                int
	Paid                   bool
	LastPaymentDate        *time.Time
	PaymentMethod          string
}

// MonthlyPayment is what staff see about a student's fee.
type MonthlyPayment struct {
	UserID              string     `json:"userId"`
	StudentName         string     `json:"studentName"`
	MonthlyFeeValue     float64    `json:"monthlyFeeValue"`
	MonthlyFeeFormatted string     `json:"monthlyFeeFormatted"`
	DueDate             int        `json:"dueDate"`
	Paid                bool       `json:"paid"`
	LastPaymentDate     *time.Time `json:"lastPaymentDate"`
	PaymentMethod       string     `json:"paymentMethod"`
	UpToDate            bool       `json:"upToDate"`
}

type UpdateStatusDTO struct {
	Paid *bool `json:"paid" validate:"required"`
}

type PayFeeDTO struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=pix cartao_credito cartao_debito dinheiro transferencia"`
	TransactionID string `json:"transactionId,omitempty"`
}

// Receipt is returned after a student pays their own fee.
type Receipt struct {
	PaidAt      string `json:"paidAt"`
	Method      string `json:"method"`
	NextDueDate string `json:"nextDueDate"`
}

// MyStatus is a student's view of their own fee.
type MyStatus struct {
	Paid                bool       `json:"paid"`
	MonthlyFeeValue     float64    `json:"monthlyFeeValue"`
	MonthlyFeeFormatted string     `json:"monthlyFeeFormatted"`
	DueDate             int        `json:"dueDate"`
	LastPaymentDate     *time.Time `json:"lastPaymentDate"`
	PaymentMethod       string     `json:"paymentMethod"`
	UpToDate            bool       `json:"upToDate"`
	DaysUntilDue        int        `json:"daysUntilDue"`
}
