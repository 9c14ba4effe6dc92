// Package acpi walks just enough of the firmware ACPI tables to extract
// the application-processor list the SMP trampoline needs (§4.3: "ACPI
// table parsing beyond extracting the processor list" is explicitly out
// of scope). The bounded, validated table walk is grounded on the teacher
// kernel's page.go getMemSize ATAG walk: fixed iteration cap, signature
// and length checks before trusting any offset derived from firmware data.
package acpi

import (
	"unsafe"

	"cinder/internal/kernelpanic"
	"cinder/internal/memory"
)

const maxTableEntries = 256

type rsdpV1 struct {
	signature [8]byte
	checksum  uint8
	oemID     [6]byte
	revision  uint8
	rsdtPhys  uint32
}

type rsdpV2 struct {
	v1              rsdpV1
	length          uint32
	xsdtPhys        uint64
	extendedCksum   uint8
	reserved        [3]uint8
}

type sdtHeader struct {
	signature       [4]byte
	length          uint32
	revision        uint8
	checksum        uint8
	oemID           [6]byte
	oemTableID      [8]byte
	oemRevision     uint32
	creatorID       uint32
	creatorRevision uint32
}

const (
	madtSignature = "APIC"
)

type madtHeader struct {
	sdtHeader
	lapicAddr uint32
	flags     uint32
}

const (
	entryTypeLocalAPIC = 0
)

type localAPICEntry struct {
	entryType uint8
	length    uint8
	processorID uint8
	apicID      uint8
	flags       uint32
}

const localAPICEnabled = 1 << 0

// ProcessorInfo is what the rest of the kernel needs out of the MADT:
// every enabled local APIC id besides the bootstrap processor's own
// (fixed at LAPIC id 0, per §4.3), i.e. processor_info.application_processors.
type ProcessorInfo struct {
	ApplicationProcessors []uint8
}

const bootstrapLAPICID = 0

// Read walks RSDP -> (X)SDT -> MADT using pool to map each physical table
// into kernel address space, and returns the processor list. The pool
// page used to reach the MADT itself is intentionally never unmapped
// (§4.3: "Unmap is a no-op").
func Read(rsdpPhys uint64, pool *memory.ACPIPool) ProcessorInfo {
	rsdpVirt := pool.MapPhysical(uintptr(rsdpPhys))
	v1 := (*rsdpV1)(unsafe.Pointer(rsdpVirt))
	if string(v1.signature[:]) != "RSD PTR " {
		kernelpanic.Fatal("acpi: bad RSDP signature")
	}

	var sdtPhys uint64
	if v1.revision >= 2 {
		v2 := (*rsdpV2)(unsafe.Pointer(rsdpVirt))
		sdtPhys = v2.xsdtPhys
	} else {
		sdtPhys = uint64(v1.rsdtPhys)
	}

	sdtVirt := pool.MapPhysical(uintptr(sdtPhys))
	hdr := (*sdtHeader)(unsafe.Pointer(sdtVirt))
	use64 := v1.revision >= 2
	entrySize := uintptr(4)
	if use64 {
		entrySize = 8
	}
	entryCount := (uintptr(hdr.length) - unsafe.Sizeof(sdtHeader{})) / entrySize
	if entryCount > maxTableEntries {
		kernelpanic.Fatal("acpi: implausible (X)SDT entry count")
	}

	entriesBase := sdtVirt + unsafe.Sizeof(sdtHeader{})
	var madtVirt uintptr
	for i := uintptr(0); i < entryCount; i++ {
		var tablePhys uint64
		if use64 {
			tablePhys = *(*uint64)(unsafe.Pointer(entriesBase + i*entrySize))
		} else {
			tablePhys = uint64(*(*uint32)(unsafe.Pointer(entriesBase + i*entrySize)))
		}
		virt := pool.MapPhysical(uintptr(tablePhys))
		th := (*sdtHeader)(unsafe.Pointer(virt))
		if string(th.signature[:]) == madtSignature {
			madtVirt = virt
			break
		}
	}
	if madtVirt == 0 {
		kernelpanic.Fatal("acpi: MADT not found")
	}

	return parseMADT(madtVirt)
}

func parseMADT(madtVirt uintptr) ProcessorInfo {
	m := (*madtHeader)(unsafe.Pointer(madtVirt))
	end := madtVirt + uintptr(m.length)
	cursor := madtVirt + unsafe.Sizeof(madtHeader{})

	info := ProcessorInfo{}
	count := 0
	for cursor < end && count < maxTableEntries {
		entryType := *(*uint8)(unsafe.Pointer(cursor))
		entryLen := *(*uint8)(unsafe.Pointer(cursor + 1))
		if entryLen < 2 {
			kernelpanic.Fatal("acpi: zero-length MADT entry")
		}
		if entryType == entryTypeLocalAPIC {
			e := (*localAPICEntry)(unsafe.Pointer(cursor))
			if e.flags&localAPICEnabled != 0 && e.apicID != bootstrapLAPICID {
				info.ApplicationProcessors = append(info.ApplicationProcessors, e.apicID)
			}
		}
		cursor += uintptr(entryLen)
		count++
	}
	return info
}
