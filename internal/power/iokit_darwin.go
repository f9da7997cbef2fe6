//go:build darwin

package power

import (
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

const (
	iokitPath          = "/System/Library/Frameworks/IOKit.framework/IOKit"
	coreFoundationPath = "/System/Library/Frameworks/CoreFoundation.framework/CoreFoundation"

	kCFStringEncodingUTF8 uint32 = 0x08000100
)

type iokit struct {
	mu   sync.Mutex
	libs []uintptr

	// IOKit
	createWithName      func(assertionType uintptr, level uint32, name uintptr, id *uint32) uint32
	release             func(id uint32) uint32
	declareUserActivity func(name uintptr, userType uint32, id *uint32) uint32

	// CoreFoundation
	cfStringCreate func(alloc uintptr, cstr string, encoding uint32) uintptr
	cfRelease      func(ref uintptr)

	name    uintptr
	strings map[Kind]uintptr
}

func open(name string) (Capability, error) {
	k := &iokit{strings: make(map[Kind]uintptr)}

	cf, err := purego.Dlopen(coreFoundationPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, coreFoundationPath, err)
	}
	k.libs = append(k.libs, cf)

	io, err := purego.Dlopen(iokitPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		k.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCapabilityUnavailable, iokitPath, err)
	}
	k.libs = append(k.libs, io)

	bindings := []struct {
		lib  uintptr
		sym  string
		fptr any
	}{
		{cf, "CFStringCreateWithCString", &k.cfStringCreate},
		{cf, "CFRelease", &k.cfRelease},
		{io, "IOPMAssertionCreateWithName", &k.createWithName},
		{io, "IOPMAssertionRelease", &k.release},
		{io, "IOPMAssertionDeclareUserActivity", &k.declareUserActivity},
	}
	for _, b := range bindings {
		addr, err := purego.Dlsym(b.lib, b.sym)
		if err != nil || addr == 0 {
			k.Close()
			return nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, b.sym)
		}
		purego.RegisterFunc(b.fptr, addr)
	}

	k.name = k.cfStringCreate(0, name, kCFStringEncodingUTF8)
	if k.name == 0 {
		k.Close()
		return nil, fmt.Errorf("%w: cannot create assertion name", ErrCapabilityUnavailable)
	}
	return k, nil
}

// cfString returns a cached CFString for kind.
func (k *iokit) cfString(kind Kind) uintptr {
	k.mu.Lock()
	defer k.mu.Unlock()

	if ref, ok := k.strings[kind]; ok {
		return ref
	}
	ref := k.cfStringCreate(0, string(kind), kCFStringEncodingUTF8)
	if ref != 0 {
		k.strings[kind] = ref
	}
	return ref
}

func (k *iokit) Create(kind Kind, active bool) (Handle, error) {
	typ := k.cfString(kind)
	if typ == 0 {
		return 0, fmt.Errorf("%w %s: cannot create type string", ErrAssertionCreate, kind)
	}

	var id uint32
	if status := k.createWithName(typ, level(active), k.name, &id); status != 0 {
		return 0, &StatusError{Op: "create assertion", Kind: kind, Code: status, Err: ErrAssertionCreate}
	}
	return Handle(id), nil
}

func (k *iokit) DeclareUserActivity(active bool) (Handle, error) {
	var id uint32
	if status := k.declareUserActivity(k.name, level(active), &id); status != 0 {
		return 0, &StatusError{Op: "declare user activity", Code: status, Err: ErrAssertionCreate}
	}
	return Handle(id), nil
}

func (k *iokit) Release(h Handle) error {
	return ReleaseStatus(h, k.release(uint32(h)))
}

func (k *iokit) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.cfRelease != nil {
		for kind, ref := range k.strings {
			k.cfRelease(ref)
			delete(k.strings, kind)
		}
		if k.name != 0 {
			k.cfRelease(k.name)
			k.name = 0
		}
	}

	var first error
	for i := len(k.libs) - 1; i >= 0; i-- {
		if err := purego.Dlclose(k.libs[i]); err != nil && first == nil {
			first = err
		}
	}
	k.libs = nil
	return first
}
