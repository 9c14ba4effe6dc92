// Command kernel is cinder's entry point: the freestanding x86_64 image
// a bootloader (an external collaborator, §1) loads and jumps into
// exactly once with a bootinfo.Info. Boot order is a direct translation
// of the original kernel's init_kernel/start_task_executor_loop (lib.rs):
// logger, then memory (frame source + mapper + heap), then GDT/IDT/APIC,
// then ACPI + SMP, then the task executor with its spawned tasks.
//
// A normal `go build` can't produce a bootable freestanding binary
// without a linker script and a tiny assembly _start that sets up a
// stack and calls Kmain — that boot shim is the same kind of external
// collaborator the bootloader handoff itself is (§1), so it isn't part
// of this module. func main below exists only so this package satisfies
// `package main`; Kmain is what the real entry shim calls.
package main

import (
	"cinder/internal/acpi"
	"cinder/internal/apic"
	"cinder/internal/asmutil"
	"cinder/internal/bootinfo"
	"cinder/internal/gdt"
	"cinder/internal/graphics"
	"cinder/internal/heap"
	"cinder/internal/interrupt"
	"cinder/internal/kernelpanic"
	"cinder/internal/klog"
	"cinder/internal/memory"
	"cinder/internal/serial"
	"cinder/internal/smp"
	"cinder/internal/streams"
	"cinder/internal/task"
	"cinder/internal/terminal"
	"cinder/internal/timekeeping"
)

func main() {}

// Kmain never returns: it brings up every subsystem in the order the
// package comment lists, spawns the terminal's tasks and the timer task, and hands off
// to the executor, which runs until a poweroff command exits the
// hypervisor.
//
//go:nosplit
func Kmain(info bootinfo.Info) {
	sink := serial.Writer{}
	kernelpanic.Sink = sink
	klog.Sink = sink

	frames := memory.NewFrameSource(info.Regions)
	mapper := memory.NewPageMapper(info.PhysicalMemoryOffset, frames)
	mapper.MapHeapWindow()

	var allocator heap.Allocator
	allocator.Init(memory.HeapStart, memory.HeapSize)

	gdt.Init()
	interrupt.Init()

	logStream := streams.NewLogStream()
	klog.Stream = logStream
	klog.Infof("cinder booting")

	lapicVirt, ioapicVirt := mapper.MapAPICRegisters()
	lapic := apic.NewLAPIC(lapicVirt)
	ioapic := apic.NewIOAPIC(ioapicVirt)
	interrupt.LapicBase = lapicVirt

	scancodes := streams.NewScancodeStream()
	timerFired := streams.NewTimerFiredStream()
	interrupt.Scancodes = scancodes
	interrupt.TimerFired = timerFired

	lapic.Enable()
	lapic.StartPeriodicTimer(interrupt.VectorTimer)
	ioapic.UnmaskIRQ(1, interrupt.VectorKeyboard, lapic.ID())

	acpiPool := mapper.MapACPIPool()
	procInfo := acpi.Read(info.RSDPPhysAddr, acpiPool)
	apStackBase := mapper.MapAPStacks(len(procInfo.ApplicationProcessors))
	mapper.MapTrampoline()

	canvas := graphics.NewCanvas(info.Framebuffer)
	term := terminal.New(canvas)
	term.Init()

	spawner := task.NewSpawner()
	executor := task.NewExecutor(spawner)

	waitQueue := timekeeping.NewQueue()
	spawner.Spawn(task.NewTask(terminal.NewKeyboardTask(term, scancodes)))
	spawner.Spawn(task.NewTask(terminal.NewLogTask(term, logStream)))
	spawner.Spawn(task.NewTask(timekeeping.NewTask(timerFired, waitQueue)))

	// interrupt.Init left interrupts disabled while the PIC was masked and
	// every subsystem above was brought up; enable them once, right before
	// the executor takes over (§4.4's "enable interrupts and halt" loop).
	asmutil.Sti()

	if len(procInfo.ApplicationProcessors) > 0 {
		smp.Bringup(lapic, procInfo.ApplicationProcessors, smp.Config{
			PhysOffset:      info.PhysicalMemoryOffset,
			APStackBasePhys: apStackBase,
			PML4Phys:        asmutil.ReadCR3(),
			GDTBasePhys:     gdt.LinearAddr(),
			GDTSize:         gdt.Size(),
		})
	}

	klog.Infof("initialization finished successfully!")
	executor.Run()
}
