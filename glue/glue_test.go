package glue_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rmanohar/actsim-go/glue"
	"github.com/rmanohar/actsim-go/rendezvous"
	"github.com/rmanohar/actsim-go/simkernel"
	"github.com/rmanohar/actsim-go/state"
	"github.com/rmanohar/actsim-go/wideint"
)

type fakeSink struct {
	digital   []glue.BoolValue
	panicNext bool
}

func (s *fakeSink) DigitalChange(node glue.NodeID, now simkernel.VTime, v glue.BoolValue) {
	if s.panicNext {
		panic("boom")
	}
	s.digital = append(s.digital, v)
}
func (s *fakeSink) WideDigitalChange(glue.NodeID, simkernel.VTime, []uint64)                 {}
func (s *fakeSink) ChanChange(glue.NodeID, simkernel.VTime, glue.ChanValue, []uint64)         {}
func (s *fakeSink) DigitalChangeAltTime(glue.NodeID, []uint64, glue.BoolValue)                {}
func (s *fakeSink) WideDigitalChangeAltTime(glue.NodeID, []uint64, []uint64)                  {}
func (s *fakeSink) ChanChangeAltTime(glue.NodeID, []uint64, glue.ChanValue, []uint64)          {}

type fakeDAC struct {
	calls []bool
}

func (d *fakeDAC) DAC(g state.GlobalOffset, now simkernel.VTime, v bool) {
	d.calls = append(d.calls, v)
}

var _ = Describe("Registry", func() {
	It("delivers digital changes only to open, unmuted streams for registered nodes", func() {
		vec := state.NewVector(2, 0, 0)
		reg := glue.NewRegistry(nil)
		vec.AddTraceListener(reg)

		g0 := state.GlobalOffset(0)
		g1 := state.GlobalOffset(1)
		reg.RegisterBool(g0)
		// g1 is intentionally never registered.

		sink := &fakeSink{}
		reg.OpenStream(glue.FormatA, sink)

		vec.SetBool(g0, state.One, 0)
		vec.SetBool(g1, state.One, 0)
		Expect(sink.digital).To(Equal([]glue.BoolValue{glue.TraceTrue}))

		reg.Mute(glue.FormatA, g0)
		vec.SetBool(g0, state.Zero, 1)
		Expect(sink.digital).To(HaveLen(1))

		reg.Unmute(glue.FormatA, g0)
		vec.SetBool(g0, state.One, 2)
		Expect(sink.digital).To(HaveLen(2))
	})

	It("mutes a stream that panics instead of propagating the panic", func() {
		vec := state.NewVector(1, 0, 0)
		reg := glue.NewRegistry(nil)
		vec.AddTraceListener(reg)

		g0 := state.GlobalOffset(0)
		reg.RegisterBool(g0)
		sink := &fakeSink{panicNext: true}
		reg.OpenStream(glue.FormatA, sink)

		Expect(func() { vec.SetBool(g0, state.One, 0) }).NotTo(Panic())

		sink.panicNext = false
		vec.SetBool(g0, state.Zero, 1)
		Expect(sink.digital).To(BeEmpty())
	})
})

var _ = Describe("ExternRegistry", func() {
	It("dispatches a registered symbol and errors on a missing one", func() {
		reg := glue.NewExternRegistry()
		reg.Register("double", func(args []wideint.Value) (wideint.Value, error) {
			return args[0].Add(args[0]), nil
		})

		v, err := reg.Dispatch("double", []wideint.Value{wideint.FromUint64(8, 3)})
		Expect(err).NotTo(HaveOccurred())
		Expect(v.Uint64()).To(Equal(uint64(6)))

		_, err = reg.Dispatch("missing", nil)
		Expect(err).To(HaveOccurred())
		var missing *glue.ErrMissingSymbol
		Expect(err).To(BeAssignableToTypeOf(missing))
	})
})

var _ = Describe("AnalogBridge", func() {
	It("forwards DAC only for bridged cells and injects ADC writes with fanout", func() {
		vec := state.NewVector(2, 0, 0)
		dac := &fakeDAC{}
		bridge := glue.NewAnalogBridge(vec, dac, nil)
		vec.AddTraceListener(bridge)

		bridged := state.GlobalOffset(0)
		plain := state.GlobalOffset(1)
		bridge.Bridge(bridged)

		vec.SetBool(bridged, state.One, 0)
		vec.SetBool(plain, state.One, 0)
		Expect(dac.calls).To(Equal([]bool{true}))

		bridge.ADC(bridged, false, 1)
		Expect(vec.GetBool(bridged)).To(Equal(state.Zero))
	})
})

var _ = Describe("CompileMethods", func() {
	It("resolves local bool names to global offsets in BOOL_T/BOOL_F instructions", func() {
		names := map[string]state.GlobalOffset{"req": 3, "ack": 4}
		resolve := func(name string) (state.GlobalOffset, error) {
			g, ok := names[name]
			if !ok {
				return 0, &glue.ErrMissingSymbol{Name: name}
			}
			return g, nil
		}

		var spec glue.TypeSpec
		spec[rendezvous.ActionSet] = glue.MethodSpec{
			{Code: rendezvous.OpBoolT, Var: "req"},
			{Code: rendezvous.OpBoolF, Var: "ack"},
		}

		methods, err := glue.CompileMethods(spec, resolve)
		Expect(err).NotTo(HaveOccurred())
		Expect(methods.Programs[rendezvous.ActionSet][0].Var).To(Equal(state.GlobalOffset(3)))
		Expect(methods.Programs[rendezvous.ActionSet][1].Var).To(Equal(state.GlobalOffset(4)))
	})

	It("propagates a resolution error for an unknown signal name", func() {
		resolve := func(name string) (state.GlobalOffset, error) {
			return 0, &glue.ErrMissingSymbol{Name: name}
		}
		var spec glue.TypeSpec
		spec[rendezvous.ActionGet] = glue.MethodSpec{{Code: rendezvous.OpBoolT, Var: "nope"}}

		_, err := glue.CompileMethods(spec, resolve)
		Expect(err).To(HaveOccurred())
	})
})
