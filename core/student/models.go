package student

import (
	"time"

	"github.com/shuleapp/shule/core"
)

// StudentIDPrefix scopes the generated admission-ID sequence.
const StudentIDPrefix = "ST"

// PaymentRecord is one fee payment. Records are append-only; voiding sets
// IsDeleted instead of removing the entry.
type PaymentRecord struct {
	Amount            float64 `json:"amount"`
	Date              string  `json:"date"`
	FeesType          string  `json:"feesType"`
	Instrument        string  `json:"instrument"`
	InstrumentDetails string  `json:"instrumentDetails,omitempty"`
	IsDeleted         bool    `json:"isDeleted"`
}

// Student is an enrolled student. ID doubles as the photo blob key and, when
// a login was created at enrollment, as the paired Profile's UserID.
type Student struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Gender         string          `json:"gender"`
	DOB            string          `json:"dob"`
	Class          string          `json:"class"`
	GuardianName   string          `json:"guardianName"`
	GuardianPhone  string          `json:"guardianPhone"`
	Address        string          `json:"address"`
	AdmissionDate  string          `json:"admissionDate"`
	TotalFees      float64         `json:"totalFees"`
	FeesPaid       float64         `json:"feesPaid"`
	PaymentHistory []PaymentRecord `json:"paymentHistory"`
	HasPhoto       bool            `json:"hasPhoto"`
}

func (s Student) Key() string { return s.ID }

// Balance is the outstanding amount against the student's total fees.
func (s Student) Balance() float64 { return s.TotalFees - s.FeesPaid }

// NewStudent contains information needed to enroll a student. TotalFees is
// pre-filled from the class's fee-structure entry by NewDraft and may be
// edited before submission. CreateLogin also creates the paired user account.
type NewStudent struct {
	Name          string  `json:"name" validate:"required"`
	Gender        string  `json:"gender"`
	DOB           string  `json:"dob"`
	Class         string  `json:"class" validate:"required"`
	GuardianName  string  `json:"guardianName"`
	GuardianPhone string  `json:"guardianPhone"`
	Address       string  `json:"address"`
	AdmissionDate string  `json:"admissionDate"`
	TotalFees     float64 `json:"totalFees" validate:"gte=0"`

	CreateLogin     bool   `json:"createLogin"`
	Password        string `json:"password" validate:"required_with=CreateLogin,omitempty,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (ns *NewStudent) Validate() error {
	ns.Name = core.CleanString(ns.Name)
	ns.Class = core.CleanString(ns.Class)
	ns.GuardianName = core.CleanString(ns.GuardianName)
	if ns.AdmissionDate == "" {
		ns.AdmissionDate = time.Now().Format("2006-01-02")
	}
	return core.TranslateError(core.Validate.Struct(ns))
}

// UpdateStudent defines what information may be provided to modify an
// existing Student. Empty fields retain the current values.
type UpdateStudent struct {
	Name          string   `json:"name"`
	Gender        string   `json:"gender"`
	DOB           string   `json:"dob"`
	Class         string   `json:"class"`
	GuardianName  string   `json:"guardianName"`
	GuardianPhone string   `json:"guardianPhone"`
	Address       string   `json:"address"`
	TotalFees     *float64 `json:"totalFees" validate:"omitempty,gte=0"`
}

func (us *UpdateStudent) Validate(orig Student) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if class := core.CleanString(us.Class); class != "" {
		us.Class = class
	} else {
		us.Class = orig.Class
	}
	if us.Gender == "" {
		us.Gender = orig.Gender
	}
	if us.DOB == "" {
		us.DOB = orig.DOB
	}
	if us.GuardianName = core.CleanString(us.GuardianName); us.GuardianName == "" {
		us.GuardianName = orig.GuardianName
	}
	if us.GuardianPhone == "" {
		us.GuardianPhone = orig.GuardianPhone
	}
	if us.Address == "" {
		us.Address = orig.Address
	}
	return core.TranslateError(core.Validate.Struct(us))
}

// NewPayment is the record-payment form.
type NewPayment struct {
	Amount            float64 `json:"amount" validate:"required,gt=0"`
	Date              string  `json:"date"`
	FeesType          string  `json:"feesType" validate:"required"`
	Instrument        string  `json:"instrument" validate:"required"`
	InstrumentDetails string  `json:"instrumentDetails"`
}

func (np *NewPayment) Validate() error {
	np.FeesType = core.CleanString(np.FeesType)
	np.Instrument = core.CleanString(np.Instrument)
	if np.Date == "" {
		np.Date = time.Now().Format("2006-01-02")
	}
	return core.TranslateError(core.Validate.Struct(np))
}
