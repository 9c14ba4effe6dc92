// See bootinfo.go for the Info struct itself. This file documents the
// boot sequence every field feeds, as cmd/kernel/main.go runs it: logger,
// then memory (frame source + mapper + heap), then GDT/IDT and the APIC,
// then ACPI, then the framebuffer canvas and terminal, then the task
// executor loop.
package bootinfo
