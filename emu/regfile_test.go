package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/archsim/mips5sim/emu"
)

var _ = Describe("IntRegFile", func() {
	var f *emu.IntRegFile

	BeforeEach(func() {
		f = emu.NewIntRegFile()
	})

	It("starts every register other than R0 at Undefined and not busy", func() {
		Expect(f.Read(5)).To(Equal(emu.Undefined))
		Expect(f.IsBusy(5)).To(BeFalse())
	})

	It("tracks busy across MarkBusy and Writeback", func() {
		f.MarkBusy(3)
		Expect(f.IsBusy(3)).To(BeTrue())

		f.Writeback(3, 42)
		Expect(f.IsBusy(3)).To(BeFalse())
		Expect(f.Read(3)).To(Equal(uint32(42)))
	})

	It("supports multiple outstanding writers to the same register", func() {
		f.MarkBusy(1)
		f.MarkBusy(1)
		f.Writeback(1, 1)
		Expect(f.IsBusy(1)).To(BeTrue())
		f.Writeback(1, 2)
		Expect(f.IsBusy(1)).To(BeFalse())
	})

	It("Set bypasses the busy counter", func() {
		f.MarkBusy(7)
		f.Set(7, 99)
		Expect(f.Read(7)).To(Equal(uint32(99)))
		Expect(f.IsBusy(7)).To(BeTrue())
	})

	It("Reset clears every register other than R0 back to Undefined and not busy", func() {
		f.MarkBusy(2)
		f.Set(2, 77)
		f.Reset()
		Expect(f.Read(2)).To(Equal(emu.Undefined))
		Expect(f.IsBusy(2)).To(BeFalse())
	})
})

var _ = Describe("FPRegFile", func() {
	var f *emu.FPRegFile

	BeforeEach(func() {
		f = emu.NewFPRegFile()
	})

	It("tracks busy across MarkBusy and Writeback", func() {
		f.MarkBusy(9)
		Expect(f.IsBusy(9)).To(BeTrue())
		f.Writeback(9, 0x3F800000)
		Expect(f.IsBusy(9)).To(BeFalse())
		Expect(f.Read(9)).To(Equal(uint32(0x3F800000)))
	})
})
