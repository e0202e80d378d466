package netdevices

import (
	"testing"

	"github.com/psaab/netacl/pkg/acl"
)

func TestMemoryStoreAssociations(t *testing.T) {
	s := NewMemoryStore(nil)
	if err := s.AddDevice(NewDevice("edge1-abc", "juniper", "edge-in")); err != nil {
		t.Fatal(err)
	}
	if err := s.AddDevice(NewDevice("core2-xyz", "cisco", "101")); err != nil {
		t.Fatal(err)
	}

	if err := s.Associate("edge1-abc", "bulk-metering", "edge-in"); err != nil {
		t.Fatal(err)
	}
	if err := s.Associate("nope", "x"); err == nil {
		t.Error("Associate with unknown device should fail")
	}

	dict, err := s.GetACLDict("edge1-abc")
	if err != nil {
		t.Fatal(err)
	}
	if !dict.Explicit.Contains("edge-in") {
		t.Error("explicit set missing edge-in")
	}
	if dict.Explicit.Contains("bulk-metering") {
		t.Error("implicit ACL leaked into explicit set")
	}
	if !dict.Implicit.Contains("bulk-metering") {
		t.Error("implicit set missing bulk-metering")
	}

	got := dict.Names()
	want := []string{"bulk-metering", "edge-in"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if _, err := s.GetACLDict("nope"); err == nil {
		t.Error("GetACLDict with unknown device should fail")
	}
}

func TestMemoryStoreDictIsACopy(t *testing.T) {
	s := NewMemoryStore(nil)
	if err := s.AddDevice(NewDevice("r1", "juniper", "a")); err != nil {
		t.Fatal(err)
	}

	dict, err := s.GetACLDict("r1")
	if err != nil {
		t.Fatal(err)
	}
	dict.Explicit.Insert("sneaky")
	dict.All.Insert("sneaky")

	again, err := s.GetACLDict("r1")
	if err != nil {
		t.Fatal(err)
	}
	if again.Explicit.Contains("sneaky") || again.All.Contains("sneaky") {
		t.Error("mutating a returned dict changed the store")
	}
}

func TestMemoryStoreDevices(t *testing.T) {
	s := NewMemoryStore(nil)
	for _, name := range []string{"zebra", "alpha", "mango"} {
		if err := s.AddDevice(NewDevice(name, "cisco")); err != nil {
			t.Fatal(err)
		}
	}

	devs := s.Devices()
	if len(devs) != 3 {
		t.Fatalf("expected 3 devices, got %d", len(devs))
	}
	for i, want := range []string{"alpha", "mango", "zebra"} {
		if devs[i].Name != want {
			t.Errorf("devices[%d] = %q, want %q", i, devs[i].Name, want)
		}
	}

	if _, ok := s.Find("mango"); !ok {
		t.Error("Find(mango) failed")
	}
	if _, ok := s.Find("missing"); ok {
		t.Error("Find(missing) should fail")
	}

	if err := s.AddDevice(nil); err == nil {
		t.Error("AddDevice(nil) should fail")
	}
	if err := s.AddDevice(&Device{}); err == nil {
		t.Error("AddDevice with empty name should fail")
	}
}

func TestMemoryStoreDevicesWith(t *testing.T) {
	s := NewMemoryStore(nil)
	if err := s.AddDevice(NewDevice("r1", "juniper", "shared")); err != nil {
		t.Fatal(err)
	}
	if err := s.AddDevice(NewDevice("r2", "cisco")); err != nil {
		t.Fatal(err)
	}
	if err := s.Associate("r2", "shared"); err != nil {
		t.Fatal(err)
	}

	devs := s.DevicesWith("shared")
	if len(devs) != 2 {
		t.Fatalf("expected 2 devices with shared, got %d", len(devs))
	}
	if devs[0].Name != "r1" || devs[1].Name != "r2" {
		t.Errorf("got %q, %q; want r1, r2", devs[0].Name, devs[1].Name)
	}

	if devs := s.DevicesWith("absent"); len(devs) != 0 {
		t.Errorf("expected no devices with absent, got %d", len(devs))
	}
}

func TestDeviceOutputFormat(t *testing.T) {
	tests := []struct {
		vendor string
		want   acl.Format
		ok     bool
	}{
		{"juniper", acl.FormatJunos, true},
		{"Juniper", acl.FormatJunos, true},
		{"cisco", acl.FormatIOSNamed, true},
		{"cisco-xr", acl.FormatIOSXR, true},
		{"iosxr", acl.FormatIOSXR, true},
		{"brocade", acl.FormatIOSBrocade, true},
		{"foundry", acl.FormatIOSBrocade, true},
		{"arista", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		d := NewDevice("r", tt.vendor)
		got, ok := d.OutputFormat()
		if ok != tt.ok || got != tt.want {
			t.Errorf("OutputFormat(%q) = %q, %v; want %q, %v", tt.vendor, got, ok, tt.want, tt.ok)
		}
	}
}
