package student

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/asset"
	"github.com/shuleapp/shule/core/collection"
	"github.com/shuleapp/shule/core/user"
)

var (
	// ErrPartialEnroll flags an enrollment where the student record was
	// written but the paired login could not be created. The caller must
	// notify the operator; the student record stands.
	ErrPartialEnroll = errors.New("student enrolled but login creation failed")

	ErrNoSuchPayment = errors.New("no such payment record")
)

// FeeDefaulter provides the default total fees for a class; the fees service
// implements it.
type FeeDefaulter interface {
	DefaultFor(class string) float64
}

type Service struct {
	students *collection.Collection[Student]
	users    *user.Service
	fees     FeeDefaulter
	blobs    core.BlobStore
	logger   core.Logger
	notifier core.Notifier
}

func NewService(
	kv core.KeyValueStore,
	users *user.Service,
	fees FeeDefaulter,
	blobs core.BlobStore,
	logger core.Logger,
	notifier core.Notifier,
) *Service {
	return &Service{
		students: collection.New[Student](kv, core.KeyStudents),
		users:    users,
		fees:     fees,
		blobs:    blobs,
		logger:   logger,
		notifier: notifier,
	}
}

// Collection exposes the underlying students collection for subscriptions.
func (svc *Service) Collection() *collection.Collection[Student] { return svc.students }

// NewDraft returns an enrollment draft with TotalFees defaulted from the
// class's fee-structure entry (0 when the class has none).
func (svc *Service) NewDraft(class string) NewStudent {
	ns := NewStudent{Class: core.CleanString(class)}
	if svc.fees != nil && ns.Class != "" {
		ns.TotalFees = svc.fees.DefaultFor(ns.Class)
	}
	return ns
}

// Enroll creates the student with a generated ST ID and, when CreateLogin is
// set, the paired user account under the same ID with role Student. A failed
// login creation leaves the student in place and returns ErrPartialEnroll.
func (svc *Service) Enroll(ns NewStudent) (Student, error) {
	if err := ns.Validate(); err != nil {
		return Student{}, err
	}
	var created Student
	err := svc.students.Mutate(func(items []Student) ([]Student, error) {
		created = Student{
			ID:             collection.NextID(items, StudentIDPrefix),
			Name:           ns.Name,
			Gender:         ns.Gender,
			DOB:            ns.DOB,
			Class:          ns.Class,
			GuardianName:   ns.GuardianName,
			GuardianPhone:  ns.GuardianPhone,
			Address:        ns.Address,
			AdmissionDate:  ns.AdmissionDate,
			TotalFees:      ns.TotalFees,
			PaymentHistory: []PaymentRecord{},
		}
		return append(items, created), nil
	})
	if err != nil {
		return Student{}, err
	}
	svc.logger.Info("student enrolled", created.ID)

	if ns.CreateLogin {
		_, err := svc.users.Create(user.NewUser{
			UserID:          created.ID,
			Name:            created.Name,
			Role:            user.RoleStudent,
			Password:        ns.Password,
			PasswordConfirm: ns.PasswordConfirm,
			DOB:             created.DOB,
			Address:         created.Address,
		})
		if err != nil {
			svc.notifier.Error("Student " + created.ID + " enrolled, but the login could not be created")
			return created, errors.Wrap(ErrPartialEnroll, err.Error())
		}
	}
	svc.notifier.Success("Student " + created.ID + " enrolled")
	return created, nil
}

func (svc *Service) All() ([]Student, error) { return svc.students.All() }

func (svc *Service) Get(id string) (Student, error) { return svc.students.Get(id) }

// ByClass returns students enrolled in the given class.
func (svc *Service) ByClass(class string) ([]Student, error) {
	all, err := svc.students.All()
	if err != nil {
		return nil, err
	}
	out := make([]Student, 0, len(all))
	for _, s := range all {
		if strings.EqualFold(s.Class, class) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (svc *Service) Update(id string, us UpdateStudent) (Student, error) {
	orig, err := svc.students.Get(id)
	if err != nil {
		return Student{}, err
	}
	if err := us.Validate(orig); err != nil {
		return Student{}, err
	}
	var updated Student
	err = svc.students.Mutate(func(items []Student) ([]Student, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		s := items[idx]
		s.Name = us.Name
		s.Gender = us.Gender
		s.DOB = us.DOB
		s.Class = us.Class
		s.GuardianName = us.GuardianName
		s.GuardianPhone = us.GuardianPhone
		s.Address = us.Address
		if us.TotalFees != nil {
			s.TotalFees = *us.TotalFees
		}
		items[idx] = s
		updated = s
		return items, nil
	})
	if err != nil {
		return Student{}, err
	}
	svc.notifier.Success("Student " + updated.ID + " updated")
	return updated, nil
}

// Delete removes the student along with their photo blob and paired login.
func (svc *Service) Delete(id string) error {
	var removed Student
	err := svc.students.Mutate(func(items []Student) ([]Student, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		removed = items[idx]
		return append(items[:idx], items[idx+1:]...), nil
	})
	if err != nil {
		return err
	}
	if removed.HasPhoto {
		if err := svc.blobs.Delete(removed.ID); err != nil {
			svc.logger.Warn("student photo cleanup failed", removed.ID, err)
		}
	}
	if err := svc.users.Delete(removed.ID); err != nil && errors.Cause(err) != core.ErrNotFound {
		svc.logger.Warn("paired login cleanup failed", removed.ID, err)
	}
	svc.notifier.Success("Student " + removed.ID + " deleted")
	return nil
}

// RecordPayment appends a payment and refreshes the paid total.
func (svc *Service) RecordPayment(id string, np NewPayment) (Student, error) {
	if err := np.Validate(); err != nil {
		return Student{}, err
	}
	return svc.mutatePayments(id, func(s *Student) error {
		s.PaymentHistory = append(s.PaymentHistory, PaymentRecord{
			Amount:            np.Amount,
			Date:              np.Date,
			FeesType:          np.FeesType,
			Instrument:        np.Instrument,
			InstrumentDetails: np.InstrumentDetails,
		})
		return nil
	})
}

// VoidPayment soft-deletes the payment at index; the record stays in the
// history with IsDeleted set.
func (svc *Service) VoidPayment(id string, index int) (Student, error) {
	return svc.mutatePayments(id, func(s *Student) error {
		if index < 0 || index >= len(s.PaymentHistory) {
			return ErrNoSuchPayment
		}
		s.PaymentHistory[index].IsDeleted = true
		return nil
	})
}

func (svc *Service) mutatePayments(id string, fn func(*Student) error) (Student, error) {
	var updated Student
	err := svc.students.Mutate(func(items []Student) ([]Student, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		s := items[idx]
		if err := fn(&s); err != nil {
			return nil, err
		}
		s.FeesPaid = paidTotal(s.PaymentHistory)
		items[idx] = s
		updated = s
		return items, nil
	})
	return updated, err
}

// SetPhoto stores the photo blob under the student's ID and only then flags
// the record; a failed write leaves the record untouched.
func (svc *Service) SetPhoto(id string, photo []byte) (Student, error) {
	s, err := svc.students.Get(id)
	if err != nil {
		return Student{}, err
	}
	if err := asset.Write(svc.blobs, s.ID, photo); err != nil {
		svc.notifier.Error("Could not save photo for " + s.ID)
		return Student{}, err
	}
	return svc.setPhotoFlag(s.ID, true)
}

func (svc *Service) RemovePhoto(id string) (Student, error) {
	s, err := svc.students.Get(id)
	if err != nil {
		return Student{}, err
	}
	if err := svc.blobs.Delete(s.ID); err != nil {
		return Student{}, errors.Wrap(err, "removing photo")
	}
	return svc.setPhotoFlag(s.ID, false)
}

func (svc *Service) Photo(id string) ([]byte, error) {
	s, err := svc.students.Get(id)
	if err != nil {
		return nil, err
	}
	return svc.blobs.Get(s.ID)
}

func (svc *Service) setPhotoFlag(id string, hasPhoto bool) (Student, error) {
	var updated Student
	err := svc.students.Mutate(func(items []Student) ([]Student, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		items[idx].HasPhoto = hasPhoto
		updated = items[idx]
		return items, nil
	})
	return updated, err
}

func paidTotal(history []PaymentRecord) float64 {
	var total float64
	for _, p := range history {
		if !p.IsDeleted {
			total += p.Amount
		}
	}
	return total
}

func indexOf(items []Student, id string) int {
	for i, s := range items {
		if strings.EqualFold(s.ID, id) {
			return i
		}
	}
	return -1
}
