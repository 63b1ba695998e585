// Package fixture seeds users, channels and DMs into a workspace snapshot
// from a YAML description. Membership is managed offline this way; the API
// only works with containers that already exist.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/wirechat-workspace/internal/msgid"
	"github.com/vovakirdan/wirechat-workspace/internal/store"
)

// ErrInvalid is returned for fixtures that would produce an inconsistent workspace.
var ErrInvalid = errors.New("invalid fixture")

// User describes a workspace user.
type User struct {
	ID      int64  `yaml:"id"`
	Handle  string `yaml:"handle"`
	Removed bool   `yaml:"removed"`
}

// Container describes a channel or DM.
type Container struct {
	ID      int64   `yaml:"id"`
	Name    string  `yaml:"name"`
	Members []int64 `yaml:"members"`
	Owners  []int64 `yaml:"owners"`
}

// Workspace is the seed file layout.
type Workspace struct {
	Users    []User      `yaml:"users"`
	Channels []Container `yaml:"channels"`
	DMs      []Container `yaml:"dms"`
}

// Load reads and validates a seed file.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document.
func Parse(data []byte) (*Workspace, error) {
	var w Workspace
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Validate checks ids, handles and memberships.
func (w *Workspace) Validate() error {
	ids := make(map[int64]bool, len(w.Users))
	handles := make(map[string]bool, len(w.Users))
	for _, u := range w.Users {
		if u.ID <= 0 {
			return fmt.Errorf("%w: user id %d must be positive", ErrInvalid, u.ID)
		}
		if u.Handle == "" {
			return fmt.Errorf("%w: user %d has no handle", ErrInvalid, u.ID)
		}
		if ids[u.ID] {
			return fmt.Errorf("%w: duplicate user id %d", ErrInvalid, u.ID)
		}
		if handles[u.Handle] {
			return fmt.Errorf("%w: duplicate handle %q", ErrInvalid, u.Handle)
		}
		ids[u.ID] = true
		handles[u.Handle] = true
	}

	for kind, list := range map[msgid.Kind][]Container{msgid.Channel: w.Channels, msgid.DM: w.DMs} {
		seen := make(map[int64]bool, len(list))
		for _, c := range list {
			if c.ID < 0 || c.ID > msgid.MaxContainerID {
				return fmt.Errorf("%w: %s id %d is outside 0..%d", ErrInvalid, kind, c.ID, msgid.MaxContainerID)
			}
			if seen[c.ID] {
				return fmt.Errorf("%w: duplicate %s id %d", ErrInvalid, kind, c.ID)
			}
			seen[c.ID] = true
			for _, m := range c.Members {
				if !ids[m] {
					return fmt.Errorf("%w: %s %d lists unknown member %d", ErrInvalid, kind, c.ID, m)
				}
			}
			for _, o := range c.Owners {
				if !slices.Contains(c.Members, o) {
					return fmt.Errorf("%w: owner %d of %s %d is not a member", ErrInvalid, o, kind, c.ID)
				}
			}
		}
	}
	return nil
}

// Apply merges the fixture into snap. Existing users and containers with the
// same id are updated in place and keep their messages and notifications.
func (w *Workspace) Apply(snap *store.Snapshot) {
	for _, u := range w.Users {
		i := slices.IndexFunc(snap.Users, func(existing *store.User) bool { return existing.ID == u.ID })
		if i >= 0 {
			snap.Users[i].Handle = u.Handle
			snap.Users[i].Removed = u.Removed
			continue
		}
		snap.Users = append(snap.Users, &store.User{
			ID:            u.ID,
			Handle:        u.Handle,
			Removed:       u.Removed,
			Notifications: []store.Notification{},
		})
	}
	snap.Channels = mergeContainers(snap.Channels, w.Channels)
	snap.DMs = mergeContainers(snap.DMs, w.DMs)
}

func mergeContainers(existing []*store.Container, seed []Container) []*store.Container {
	for _, c := range seed {
		members := slices.Clone(c.Members)
		owners := slices.Clone(c.Owners)
		if members == nil {
			members = []int64{}
		}
		if owners == nil {
			owners = []int64{}
		}

		i := slices.IndexFunc(existing, func(e *store.Container) bool { return e.ID == c.ID })
		if i >= 0 {
			existing[i].Name = c.Name
			existing[i].Members = members
			existing[i].Owners = owners
			continue
		}
		existing = append(existing, &store.Container{
			ID:       c.ID,
			Name:     c.Name,
			Members:  members,
			Owners:   owners,
			Messages: []*store.Message{},
		})
	}
	return existing
}

// Seed applies the fixture to the snapshot held by p.
func Seed(ctx context.Context, p store.Persister, w *Workspace) error {
	snap, err := p.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	w.Apply(snap)
	if err := p.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
