// Package netdevices models the routers and switches that access lists are
// deployed to, and tracks which ACL belongs on which device.
//
// A device carries two kinds of associations: explicit ACLs named in its own
// metadata, and implicit ACLs attached later by policy tooling. GetACLDict
// returns both views plus their union, so callers can tell "configured on the
// box" apart from "should be on the box".
package netdevices

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-set/v3"

	"github.com/psaab/netacl/pkg/acl"
)

// Device is one router or switch that ACLs apply to.
type Device struct {
	Name   string
	Vendor string
	ACLs   *set.Set[string] // explicit associations from device metadata
}

// NewDevice creates a device with the given explicit ACL associations.
func NewDevice(name, vendor string, acls ...string) *Device {
	d := &Device{
		Name:   name,
		Vendor: vendor,
		ACLs:   set.New[string](len(acls)),
	}
	d.ACLs.InsertSlice(acls)
	return d
}

// OutputFormat maps the device vendor to the ACL dialect its configuration
// uses. The second return is false for vendors with no ACL support.
func (d *Device) OutputFormat() (acl.Format, bool) {
	switch strings.ToLower(d.Vendor) {
	case "juniper":
		return acl.FormatJunos, true
	case "cisco":
		return acl.FormatIOSNamed, true
	case "cisco-xr", "iosxr":
		return acl.FormatIOSXR, true
	case "brocade", "foundry":
		return acl.FormatIOSBrocade, true
	}
	return "", false
}

// ACLDict describes every ACL known to apply to one device.
type ACLDict struct {
	Explicit *set.Set[string] // named directly in device metadata
	Implicit *set.Set[string] // attached afterwards via Associate
	All      *set.Set[string] // union of the two
}

// Names returns the members of All sorted for stable output.
func (d ACLDict) Names() []string {
	if d.All == nil || d.All.Empty() {
		return nil
	}
	names := d.All.Slice()
	sort.Strings(names)
	return names
}

// AssociationStore resolves which ACLs belong on a device.
type AssociationStore interface {
	// GetACLDict returns the explicit, implicit, and combined ACL sets for
	// the named device.
	GetACLDict(device string) (ACLDict, error)

	// Associate attaches implicit ACL associations to the named device.
	Associate(device string, acls ...string) error
}

// DeviceProvider enumerates known devices.
type DeviceProvider interface {
	Devices() []*Device
	Find(name string) (*Device, bool)
}

// MemoryStore is an in-memory AssociationStore and DeviceProvider, used by
// tests and by tooling that loads device metadata from flat files.
type MemoryStore struct {
	mu       sync.RWMutex
	logger   *slog.Logger
	devices  map[string]*Device
	implicit map[string]*set.Set[string]
}

// NewMemoryStore creates an empty store. A nil logger falls back to the
// process default.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryStore{
		logger:   logger,
		devices:  make(map[string]*Device),
		implicit: make(map[string]*set.Set[string]),
	}
}

// AddDevice registers a device. Re-adding the same name replaces the
// previous entry and keeps any implicit associations already recorded.
func (s *MemoryStore) AddDevice(d *Device) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("device name required")
	}
	if d.ACLs == nil {
		d.ACLs = set.New[string](0)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.devices[d.Name] = d
	s.logger.Debug("device added", "device", d.Name, "vendor", d.Vendor, "acls", d.ACLs.Size())
	return nil
}

// Devices returns every registered device sorted by name.
func (s *MemoryStore) Devices() []*Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Device, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Find looks up a device by name.
func (s *MemoryStore) Find(name string) (*Device, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[name]
	return d, ok
}

// Associate records implicit associations: the named ACLs apply to the
// device even though its metadata does not list them.
func (s *MemoryStore) Associate(device string, acls ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.devices[device]; !ok {
		return fmt.Errorf("unknown device %q", device)
	}
	implicit, ok := s.implicit[device]
	if !ok {
		implicit = set.New[string](len(acls))
		s.implicit[device] = implicit
	}
	implicit.InsertSlice(acls)
	s.logger.Debug("acls associated", "device", device, "count", len(acls))
	return nil
}

// GetACLDict returns the explicit, implicit, and combined ACL sets for the
// named device. The returned sets are copies; mutating them does not affect
// the store.
func (s *MemoryStore) GetACLDict(device string) (ACLDict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.devices[device]
	if !ok {
		return ACLDict{}, fmt.Errorf("unknown device %q", device)
	}

	explicit := d.ACLs.Copy()
	implicit := set.New[string](0)
	if imp, ok := s.implicit[device]; ok {
		implicit = imp.Copy()
	}
	all := explicit.Copy()
	all.InsertSlice(implicit.Slice())
	return ACLDict{Explicit: explicit, Implicit: implicit, All: all}, nil
}

// DevicesWith returns the devices whose combined ACL set contains name,
// sorted by device name.
func (s *MemoryStore) DevicesWith(aclName string) []*Device {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Device
	for _, d := range s.devices {
		if d.ACLs.Contains(aclName) {
			out = append(out, d)
			continue
		}
		if imp, ok := s.implicit[d.Name]; ok && imp.Contains(aclName) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
