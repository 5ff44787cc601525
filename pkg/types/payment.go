package types

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusRejected  PaymentStatus = "rejected"
)

func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusConfirmed || s == PaymentStatusRejected
}

type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodQRTransfer PaymentMethod = "qr-transfer"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodQRTransfer
}

// Reference-number prefixes. Full format: <PREFIX>-<YYYYMMDD>-<6 alphanumeric>.
const (
	ReferencePrefixPayment = "PAY"
	ReferencePrefixWalkIn  = "WLK"
)
