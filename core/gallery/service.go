// Package gallery manages the school photo gallery: blobs under
// store-generated keys, plus an explicit display order and per-key captions
// reconciled against the store on every load.
package gallery

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
)

// Image is one gallery entry in display order.
type Image struct {
	Key     string `json:"key"`
	Caption string `json:"caption"`
}

// Service expects a BlobStore dedicated to gallery images; entity photos
// live in a different bucket.
type Service struct {
	kv       core.KeyValueStore
	blobs    core.BlobStore
	logger   core.Logger
	notifier core.Notifier
}

func NewService(kv core.KeyValueStore, blobs core.BlobStore, logger core.Logger, notifier core.Notifier) *Service {
	return &Service{kv: kv, blobs: blobs, logger: logger, notifier: notifier}
}

// Images returns the gallery in display order after reconciling the order
// list and captions against the actual store keys: stale keys are dropped
// (captions pruned), unseen keys appended in store order, surviving order
// preserved. The reconciled lists are persisted when they drifted.
func (svc *Service) Images() ([]Image, error) {
	order, err := svc.reconcile()
	if err != nil {
		return nil, err
	}
	captions, err := svc.captions()
	if err != nil {
		return nil, err
	}
	images := make([]Image, 0, len(order))
	for _, key := range order {
		images = append(images, Image{Key: key, Caption: captions[key]})
	}
	return images, nil
}

// Data returns the image bytes for a gallery key.
func (svc *Service) Data(key string) ([]byte, error) {
	return svc.blobs.Get(key)
}

// AddImage stores the blob first and only then records it in the order list
// and caption map.
func (svc *Service) AddImage(blob []byte, caption string) (string, error) {
	key, err := svc.blobs.Add(blob)
	if err != nil {
		svc.notifier.Error("Could not save gallery image")
		return "", errors.Wrap(err, "adding gallery image")
	}
	err = svc.updateOrder(func(order []string) ([]string, error) {
		return append(order, key), nil
	})
	if err != nil {
		return "", err
	}
	if caption = core.CleanString(caption); caption != "" {
		if err := svc.setCaption(key, caption); err != nil {
			return "", err
		}
	}
	svc.notifier.Success("Image added to gallery")
	return key, nil
}

func (svc *Service) SetCaption(key, caption string) error {
	if _, err := svc.blobs.Get(key); err != nil {
		return err
	}
	return svc.setCaption(key, core.CleanString(caption))
}

func (svc *Service) DeleteImage(key string) error {
	if err := svc.blobs.Delete(key); err != nil {
		return errors.Wrap(err, "deleting gallery image")
	}
	err := svc.updateOrder(func(order []string) ([]string, error) {
		return removeKey(order, key), nil
	})
	if err != nil {
		return err
	}
	if err := svc.setCaption(key, ""); err != nil {
		return err
	}
	svc.notifier.Success("Image removed from gallery")
	return nil
}

// MoveUp swaps the image with its predecessor; moving the first image is a
// no-op. Order mutations are always adjacent swaps, never re-indexing.
func (svc *Service) MoveUp(key string) error { return svc.move(key, -1) }

// MoveDown swaps the image with its successor; moving the last image is a
// no-op.
func (svc *Service) MoveDown(key string) error { return svc.move(key, +1) }

func (svc *Service) move(key string, dir int) error {
	if _, err := svc.reconcile(); err != nil {
		return err
	}
	return svc.updateOrder(func(order []string) ([]string, error) {
		idx := indexOf(order, key)
		if idx < 0 {
			return nil, core.ErrNotFound
		}
		other := idx + dir
		if other < 0 || other >= len(order) {
			return order, nil
		}
		order[idx], order[other] = order[other], order[idx]
		return order, nil
	})
}

// reconcile aligns the persisted order list with the store's key set and
// prunes captions of dropped keys. Returns the reconciled order.
func (svc *Service) reconcile() ([]string, error) {
	keys, err := svc.blobs.Keys()
	if err != nil {
		return nil, errors.Wrap(err, "listing gallery keys")
	}
	present := make(map[string]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}

	var order []string
	if err := svc.kv.Get(core.KeyGalleryOrder, &order); err != nil {
		return nil, err
	}

	reconciled := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range order {
		if present[k] && !seen[k] {
			reconciled = append(reconciled, k)
			seen[k] = true
		}
	}
	for _, k := range keys { // new keys go to the end, in store order
		if !seen[k] {
			reconciled = append(reconciled, k)
			seen[k] = true
		}
	}

	if !equal(order, reconciled) {
		if err := svc.kv.Set(core.KeyGalleryOrder, reconciled); err != nil {
			return nil, err
		}
		if err := svc.pruneCaptions(present); err != nil {
			return nil, err
		}
	}
	return reconciled, nil
}

func (svc *Service) captions() (map[string]string, error) {
	captions := map[string]string{}
	if err := svc.kv.Get(core.KeyGalleryCaptions, &captions); err != nil {
		return nil, err
	}
	return captions, nil
}

// setCaption writes (or with an empty caption, removes) the caption of key.
func (svc *Service) setCaption(key, caption string) error {
	return svc.kv.Update(core.KeyGalleryCaptions, func(raw []byte) ([]byte, error) {
		captions := map[string]string{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &captions); err != nil {
				return nil, errors.Wrap(err, "decoding captions")
			}
		}
		if caption == "" {
			delete(captions, key)
		} else {
			captions[key] = caption
		}
		return json.Marshal(captions)
	})
}

func (svc *Service) pruneCaptions(present map[string]bool) error {
	return svc.kv.Update(core.KeyGalleryCaptions, func(raw []byte) ([]byte, error) {
		captions := map[string]string{}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &captions); err != nil {
				return nil, errors.Wrap(err, "decoding captions")
			}
		}
		for k := range captions {
			if !present[k] {
				delete(captions, k)
			}
		}
		return json.Marshal(captions)
	})
}

func (svc *Service) updateOrder(fn func([]string) ([]string, error)) error {
	return svc.kv.Update(core.KeyGalleryOrder, func(raw []byte) ([]byte, error) {
		var order []string
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &order); err != nil {
				return nil, errors.Wrap(err, "decoding gallery order")
			}
		}
		out, err := fn(order)
		if err != nil {
			return nil, err
		}
		return json.Marshal(out)
	})
}

func indexOf(order []string, key string) int {
	for i, k := range order {
		if strings.EqualFold(k, key) {
			return i
		}
	}
	return -1
}

func removeKey(order []string, key string) []string {
	out := order[:0]
	for _, k := range order {
		if k != key {
			out = append(out, k)
		}
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
