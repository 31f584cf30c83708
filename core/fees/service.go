// Package fees owns the class list, the per-class fee structure and the
// ordered fee-type list, including the referential rules tying fee types to
// student payment records.
package fees

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/collection"
	"github.com/shuleapp/shule/core/student"
)

// DefaultFeeType is always present and can never be deleted.
const DefaultFeeType = "Miscellaneous Fee"

var (
	ErrTypeExists    = errors.New("this fee type already exists")
	ErrTypeInUse     = errors.New("this fee type is still referenced by payment records")
	ErrTypeProtected = errors.New("the default fee type cannot be deleted")

	ErrClassExists = errors.New("this class already exists")
	ErrClassInUse  = errors.New("students are still enrolled in this class")
)

type Service struct {
	kv       core.KeyValueStore
	students *collection.Collection[student.Student]
	logger   core.Logger
	notifier core.Notifier
}

func NewService(kv core.KeyValueStore, logger core.Logger, notifier core.Notifier) *Service {
	return &Service{
		kv:       kv,
		students: collection.New[student.Student](kv, core.KeyStudents),
		logger:   logger,
		notifier: notifier,
	}
}

// Classes

func (svc *Service) Classes() ([]string, error) {
	var classes []string
	if err := svc.kv.Get(core.KeyClasses, &classes); err != nil {
		return nil, err
	}
	return classes, nil
}

func (svc *Service) AddClass(name string) error {
	name = core.CleanString(name)
	if name == "" {
		return core.NewValidationError(errors.New("class name is required"),
			core.FieldError{Field: "class", Error: "this field is required"})
	}
	err := updateList(svc.kv, core.KeyClasses, func(classes []string) ([]string, error) {
		if containsFold(classes, name) {
			return nil, ErrClassExists
		}
		return append(classes, name), nil
	})
	if err != nil {
		return err
	}
	svc.notifier.Success("Class " + name + " added")
	return nil
}

// RemoveClass drops a class and its fee-structure entry. Classes with
// enrolled students cannot be removed.
func (svc *Service) RemoveClass(name string) error {
	enrolled, err := svc.students.All()
	if err != nil {
		return err
	}
	for _, s := range enrolled {
		if strings.EqualFold(s.Class, name) {
			return ErrClassInUse
		}
	}
	err = updateList(svc.kv, core.KeyClasses, func(classes []string) ([]string, error) {
		idx := indexFold(classes, name)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		return append(classes[:idx], classes[idx+1:]...), nil
	})
	if err != nil {
		return err
	}
	if err := svc.DeleteClassFee(name); err != nil {
		svc.logger.Warn("fee structure cleanup failed", name, err)
	}
	svc.notifier.Success("Class " + name + " removed")
	return nil
}

// Fee structure

func (svc *Service) Structure() (map[string]float64, error) {
	structure := map[string]float64{}
	if err := svc.kv.Get(core.KeyFeeStructure, &structure); err != nil {
		return nil, err
	}
	return structure, nil
}

func (svc *Service) SetClassFee(class string, amount float64) error {
	class = core.CleanString(class)
	if amount < 0 {
		return core.NewValidationError(errors.New("invalid fee amount"),
			core.FieldError{Field: "amount", Error: "must be zero or greater"})
	}
	return svc.kv.Update(core.KeyFeeStructure, func(raw []byte) ([]byte, error) {
		structure, err := decodeStructure(raw)
		if err != nil {
			return nil, err
		}
		structure[class] = amount
		return json.Marshal(structure)
	})
}

func (svc *Service) DeleteClassFee(class string) error {
	return svc.kv.Update(core.KeyFeeStructure, func(raw []byte) ([]byte, error) {
		structure, err := decodeStructure(raw)
		if err != nil {
			return nil, err
		}
		for k := range structure {
			if strings.EqualFold(k, class) {
				delete(structure, k)
			}
		}
		return json.Marshal(structure)
	})
}

// DefaultFor returns the fee-structure amount for class, or 0 when the class
// has no entry. It implements student.FeeDefaulter.
func (svc *Service) DefaultFor(class string) float64 {
	structure, err := svc.Structure()
	if err != nil {
		svc.logger.Warn("fee structure load failed", err)
		return 0
	}
	for k, amount := range structure {
		if strings.EqualFold(k, class) {
			return amount
		}
	}
	return 0
}

// Fee types

// Types returns the ordered fee-type list, seeding the protected default on
// first use.
func (svc *Service) Types() ([]string, error) {
	var types []string
	if err := svc.kv.Get(core.KeyFeesTypes, &types); err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return []string{DefaultFeeType}, nil
	}
	return types, nil
}

func (svc *Service) AddType(name string) error {
	name = core.CleanString(name)
	if name == "" {
		return core.NewValidationError(errors.New("fee type is required"),
			core.FieldError{Field: "feesType", Error: "this field is required"})
	}
	err := updateList(svc.kv, core.KeyFeesTypes, func(types []string) ([]string, error) {
		types = seeded(types)
		if containsFold(types, name) {
			return nil, ErrTypeExists
		}
		return append(types, name), nil
	})
	if err != nil {
		return err
	}
	svc.notifier.Success("Fee type " + name + " added")
	return nil
}

// RenameType renames a fee type and rewrites every payment record that
// references the old name, soft-deleted records included (they may be
// restored later). The list keeps the renamed entry in place.
func (svc *Service) RenameType(oldName, newName string) error {
	oldName = core.CleanString(oldName)
	newName = core.CleanString(newName)
	if newName == "" {
		return core.NewValidationError(errors.New("fee type is required"),
			core.FieldError{Field: "feesType", Error: "this field is required"})
	}
	err := updateList(svc.kv, core.KeyFeesTypes, func(types []string) ([]string, error) {
		types = seeded(types)
		idx := indexFold(types, oldName)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		if other := indexFold(types, newName); other >= 0 && other != idx {
			return nil, ErrTypeExists
		}
		types[idx] = newName
		return types, nil
	})
	if err != nil {
		return err
	}
	err = svc.students.Mutate(func(items []student.Student) ([]student.Student, error) {
		for i := range items {
			for j := range items[i].PaymentHistory {
				if strings.EqualFold(items[i].PaymentHistory[j].FeesType, oldName) {
					items[i].PaymentHistory[j].FeesType = newName
				}
			}
		}
		return items, nil
	})
	if err != nil {
		return err
	}
	svc.notifier.Success("Fee type renamed to " + newName)
	return nil
}

// DeleteType removes a fee type. The protected default and types referenced
// by any non-deleted payment record cannot be deleted; a blocked deletion
// leaves the list unchanged.
func (svc *Service) DeleteType(name string) error {
	name = core.CleanString(name)
	if strings.EqualFold(name, DefaultFeeType) {
		return ErrTypeProtected
	}
	enrolled, err := svc.students.All()
	if err != nil {
		return err
	}
	for _, s := range enrolled {
		for _, p := range s.PaymentHistory {
			if !p.IsDeleted && strings.EqualFold(p.FeesType, name) {
				return ErrTypeInUse
			}
		}
	}
	err = updateList(svc.kv, core.KeyFeesTypes, func(types []string) ([]string, error) {
		types = seeded(types)
		idx := indexFold(types, name)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		return append(types[:idx], types[idx+1:]...), nil
	})
	if err != nil {
		return err
	}
	svc.notifier.Success("Fee type " + name + " deleted")
	return nil
}

// helpers

func decodeStructure(raw []byte) (map[string]float64, error) {
	structure := map[string]float64{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &structure); err != nil {
			return nil, errors.Wrap(err, "decoding fee structure")
		}
	}
	return structure, nil
}

func updateList(kv core.KeyValueStore, key string, fn func([]string) ([]string, error)) error {
	return kv.Update(key, func(raw []byte) ([]byte, error) {
		var list []string
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, errors.Wrapf(err, "decoding %q", key)
			}
		}
		out, err := fn(list)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	})
}

func seeded(types []string) []string {
	if len(types) == 0 {
		return []string{DefaultFeeType}
	}
	return types
}

func containsFold(list []string, s string) bool { return indexFold(list, s) >= 0 }

func indexFold(list []string, s string) int {
	for i, item := range list {
		if strings.EqualFold(item, s) {
			return i
		}
	}
	return -1
}
