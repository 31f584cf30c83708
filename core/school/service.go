// Package school holds the school profile shown across the app, including
// the logo stored under the fixed blob key.
package school

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/asset"
)

// Settings is the school profile. HasLogo mirrors the presence of the logo
// blob and is only set after a successful write.
type Settings struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	HasLogo bool   `json:"hasLogo"`
}

// UpdateSettings defines what profile fields may be changed; empty fields
// retain the current values. The logo goes through SetLogo/RemoveLogo.
type UpdateSettings struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func (us *UpdateSettings) Validate() error {
	us.Name = core.CleanString(us.Name)
	us.Address = core.CleanString(us.Address)
	us.Email = core.CleanString(us.Email, true /* lower */)
	return core.TranslateError(core.Validate.Struct(us))
}

type Service struct {
	kv       core.KeyValueStore
	blobs    core.BlobStore
	logger   core.Logger
	notifier core.Notifier
}

func NewService(kv core.KeyValueStore, blobs core.BlobStore, logger core.Logger, notifier core.Notifier) *Service {
	return &Service{kv: kv, blobs: blobs, logger: logger, notifier: notifier}
}

func (svc *Service) Settings() (Settings, error) {
	var s Settings
	if err := svc.kv.Get(core.KeySchoolSettings, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (svc *Service) Update(us UpdateSettings) (Settings, error) {
	if err := us.Validate(); err != nil {
		return Settings{}, err
	}
	updated, err := svc.mutate(func(s *Settings) {
		if us.Name != "" {
			s.Name = us.Name
		}
		if us.Address != "" {
			s.Address = us.Address
		}
		if us.Phone != "" {
			s.Phone = us.Phone
		}
		if us.Email != "" {
			s.Email = us.Email
		}
	})
	if err != nil {
		return Settings{}, err
	}
	svc.notifier.Success("School settings saved")
	return updated, nil
}

// SetLogo stores the logo blob and only then flags the settings; a failed
// write leaves the settings untouched.
func (svc *Service) SetLogo(logo []byte) (Settings, error) {
	if err := asset.Write(svc.blobs, core.LogoBlobKey, logo); err != nil {
		svc.notifier.Error("Could not save the school logo")
		return Settings{}, err
	}
	return svc.setLogoFlag(true)
}

func (svc *Service) RemoveLogo() (Settings, error) {
	if err := svc.blobs.Delete(core.LogoBlobKey); err != nil {
		return Settings{}, errors.Wrap(err, "removing logo")
	}
	return svc.setLogoFlag(false)
}

func (svc *Service) Logo() ([]byte, error) {
	return svc.blobs.Get(core.LogoBlobKey)
}

func (svc *Service) setLogoFlag(hasLogo bool) (Settings, error) {
	return svc.mutate(func(s *Settings) { s.HasLogo = hasLogo })
}

func (svc *Service) mutate(fn func(*Settings)) (Settings, error) {
	var updated Settings
	err := svc.kv.Update(core.KeySchoolSettings, func(raw []byte) ([]byte, error) {
		var s Settings
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &s); err != nil {
				return nil, errors.Wrap(err, "decoding school settings")
			}
		}
		fn(&s)
		updated = s
		return json.Marshal(s)
	})
	if err != nil {
		return Settings{}, err
	}
	return updated, nil
}
