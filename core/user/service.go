package user

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/asset"
	"github.com/shuleapp/shule/core/collection"
)

var (
	// errors
	ErrUserIDExists = errors.New("a user with this ID already exists")
	ErrLastUser     = errors.New("cannot delete the last remaining user")
)

type Service struct {
	users    *collection.Collection[Profile]
	blobs    core.BlobStore
	logger   core.Logger
	notifier core.Notifier
}

func NewService(kv core.KeyValueStore, blobs core.BlobStore, logger core.Logger, notifier core.Notifier) *Service {
	return &Service{
		users:    collection.New[Profile](kv, core.KeyUsers),
		blobs:    blobs,
		logger:   logger,
		notifier: notifier,
	}
}

// Collection exposes the underlying users collection for subscriptions.
func (svc *Service) Collection() *collection.Collection[Profile] { return svc.users }

func (svc *Service) Create(nu NewUser) (Profile, error) {
	if err := nu.Validate(); err != nil {
		return Profile{}, err
	}
	var created Profile
	err := svc.users.Mutate(func(items []Profile) ([]Profile, error) {
		id := nu.UserID
		if id == "" {
			id = collection.NextID(items, EmployeeIDPrefix)
		}
		if err := checkIDFree(items, id); err != nil {
			return nil, err
		}
		created = Profile{
			UserID:        id,
			Name:          nu.Name,
			Email:         nu.Email,
			Phone:         nu.Phone,
			Role:          nu.Role,
			Password:      nu.Password,
			DOB:           nu.DOB,
			Address:       nu.Address,
			Notifications: nu.Notifications,
		}
		return append(items, created), nil
	})
	if err != nil {
		return Profile{}, err
	}
	svc.logger.Info("user created", created.UserID)
	svc.notifier.Success("User " + created.UserID + " added")
	return created, nil
}

func (svc *Service) All() ([]Profile, error) {
	return svc.users.All()
}

func (svc *Service) Get(id string) (Profile, error) {
	return svc.users.Get(id)
}

func (svc *Service) Filter(qf QueryFilter) ([]Profile, error) {
	qf.Clean()
	all, err := svc.users.All()
	if err != nil {
		return nil, err
	}
	if qf.IsEmpty() {
		return all, nil
	}
	out := make([]Profile, 0, len(all))
	for _, p := range all {
		if qf.matches(p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (svc *Service) Update(id string, uu UpdateUser) (Profile, error) {
	orig, err := svc.users.Get(id)
	if err != nil {
		return Profile{}, err
	}
	if err := uu.Validate(orig); err != nil {
		return Profile{}, err
	}
	var updated Profile
	err = svc.users.Mutate(func(items []Profile) ([]Profile, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		p := items[idx]
		p.Name = uu.Name
		p.Email = uu.Email
		p.Phone = uu.Phone
		p.Role = uu.Role
		p.DOB = uu.DOB
		p.Address = uu.Address
		if uu.Notifications != nil {
			p.Notifications = *uu.Notifications
		}
		items[idx] = p
		updated = p
		return items, nil
	})
	if err != nil {
		return Profile{}, err
	}
	svc.notifier.Success("User " + updated.UserID + " updated")
	return updated, nil
}

// Delete removes a user. The collection must retain at least one member.
func (svc *Service) Delete(id string) error {
	var removed Profile
	err := svc.users.Mutate(func(items []Profile) ([]Profile, error) {
		idx := indexOf(items, id)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		if len(items) == 1 {
			return nil, ErrLastUser
		}
		removed = items[idx]
		return append(items[:idx], items[idx+1:]...), nil
	})
	if err != nil {
		return err
	}
	if removed.HasPhoto {
		if err := svc.blobs.Delete(removed.UserID); err != nil {
			svc.logger.Warn("user photo cleanup failed", removed.UserID, err)
		}
	}
	svc.notifier.Success("User " + removed.UserID + " deleted")
	return nil
}

// SetPhoto stores the photo blob under the user's ID and only then flags the
// record; a failed write leaves the record untouched.
func (svc *Service) SetPhoto(id string, photo []byte) (Profile, error) {
	p, err := svc.users.Get(id)
	if err != nil {
		return Profile{}, err
	}
	if err := asset.Write(svc.blobs, p.UserID, photo); err != nil {
		svc.notifier.Error("Could not save photo for " + p.UserID)
		return Profile{}, err
	}
	return svc.setPhotoFlag(p.UserID, true)
}

func (svc *Service) RemovePhoto(id string) (Profile, error) {
	p, err := svc.users.Get(id)
	if err != nil {
		return Profile{}, err
	}
	if err := svc.blobs.Delete(p.UserID); err != nil {
		return Profile{}, errors.Wrap(err, "removing photo")
	}
	return svc.setPhotoFlag(p.UserID, false)
}

func (svc *Service) Photo(id string) ([]byte, error) {
	p, err := svc.users.Get(id)
	if err != nil {
		return nil, err
	}
	return svc.blobs.Get(p.UserID)
}

func (svc *Service) setPhotoFlag(id string, hasPhoto bool) (Profile, error) {
	var updated Profile
	err := svc.users.Mutate(func(items []Profile) ([]Profile, error) {
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

func checkIDFree(items []Profile, id string, excluded ...string) error {
	for _, p := range items {
		if !strings.EqualFold(p.UserID, id) {
			continue
		}
		if isExcluded(p.UserID, excluded) {
			continue
		}
		return core.NewValidationError(ErrUserIDExists, core.FieldError{Field: "userId", Error: ErrUserIDExists.Error()})
	}
	return nil
}

func indexOf(items []Profile, id string) int {
	for i, p := range items {
		if strings.EqualFold(p.UserID, id) {
			return i
		}
	}
	return -1
}

func isExcluded(id string, excluded []string) bool {
	for _, ex := range excluded {
		if strings.EqualFold(id, ex) {
			return true
		}
	}
	return false
}
