package simconfig

// DeviceParams bundles the `sim.device.*` keys spec.md §6 lists for the
// analog back-end contract.
type DeviceParams struct {
	Timescale     float64
	AnalogWindow  int64
	SettlingTime  int64
	WaveformTime  int64
	WaveformSteps int64
	DumpAll       bool
	OutputFormat  string
	Outfile       string
	StopTime      int64
}

// LintParams bundles the `lint.*` keys.
type LintParams struct {
	Vdd                   float64
	SlewrateFastThreshold float64
	SlewrateSlowThreshold float64
}

// NetParams bundles the `net.*` keys.
type NetParams struct {
	BlackBoxMode bool
	GlobalVdd    string
	GlobalGnd    string
}

// Params is the typed bundle of configuration spec.md §6 says the core
// consumes, resolved once at startup rather than re-queried as dotted
// strings on every hot-path access.
type Params struct {
	DefaultDelay            int64
	DefaultEnergy           float64
	DefaultArea             float64
	DefaultLeakage          float64
	DetailedDelayAnnotation bool
	InfLoopOpt              bool

	// QuiescenceBudget bounds runInit's watchdog scan (spec.md §4.12,
	// "bounded quiescence loop"): a ceiling on events processed while
	// waiting for PRS/HSE activity to settle, not a spec.md key by name.
	QuiescenceBudget int

	Device DeviceParams
	Lint   LintParams
	Net    NetParams
}

// Builder is a value-receiver fluent builder for Params, in the shape of
// the teacher's config.DeviceBuilder: every With* method returns a copy,
// so a partially configured Builder can be shared and specialized along
// more than one branch.
type Builder struct {
	p Params
}

// NewBuilder returns a Builder seeded with spec.md-reasonable defaults
// (non-zero so an un-configured Simulator still runs).
func NewBuilder() Builder {
	return Builder{p: Params{
		DefaultDelay:     1,
		QuiescenceBudget: 100000,
	}}
}

// FromStore seeds the builder from every key it recognizes in s, leaving
// fields s has no entry for at their current value.
func (b Builder) FromStore(s *Store) Builder {
	b.p.DefaultDelay = s.Int64("sim.chp.default_delay", b.p.DefaultDelay)
	b.p.DefaultEnergy = s.Float64("sim.chp.default_energy", b.p.DefaultEnergy)
	b.p.DefaultArea = s.Float64("sim.chp.default_area", b.p.DefaultArea)
	b.p.DefaultLeakage = s.Float64("sim.chp.default_leakage", b.p.DefaultLeakage)
	b.p.DetailedDelayAnnotation = s.Bool("sim.chp.detailed_delay_annotation", b.p.DetailedDelayAnnotation)
	b.p.InfLoopOpt = s.Bool("sim.chp.inf_loop_opt", b.p.InfLoopOpt)

	b.p.Device.Timescale = s.Float64("sim.device.timescale", b.p.Device.Timescale)
	b.p.Device.AnalogWindow = s.Int64("sim.device.analog_window", b.p.Device.AnalogWindow)
	b.p.Device.SettlingTime = s.Int64("sim.device.settling_time", b.p.Device.SettlingTime)
	b.p.Device.WaveformTime = s.Int64("sim.device.waveform_time", b.p.Device.WaveformTime)
	b.p.Device.WaveformSteps = s.Int64("sim.device.waveform_steps", b.p.Device.WaveformSteps)
	b.p.Device.DumpAll = s.Bool("sim.device.dump_all", b.p.Device.DumpAll)
	b.p.Device.OutputFormat = s.String("sim.device.output_format", b.p.Device.OutputFormat)
	b.p.Device.Outfile = s.String("sim.device.outfile", b.p.Device.Outfile)
	b.p.Device.StopTime = s.Int64("sim.device.stop_time", b.p.Device.StopTime)

	b.p.Lint.Vdd = s.Float64("lint.Vdd", b.p.Lint.Vdd)
	b.p.Lint.SlewrateFastThreshold = s.Float64("lint.slewrate_fast_threshold", b.p.Lint.SlewrateFastThreshold)
	b.p.Lint.SlewrateSlowThreshold = s.Float64("lint.slewrate_slow_threshold", b.p.Lint.SlewrateSlowThreshold)

	b.p.Net.BlackBoxMode = s.Bool("net.black_box_mode", b.p.Net.BlackBoxMode)
	b.p.Net.GlobalVdd = s.String("net.global_vdd", b.p.Net.GlobalVdd)
	b.p.Net.GlobalGnd = s.String("net.global_gnd", b.p.Net.GlobalGnd)
	return b
}

func (b Builder) WithDefaultDelay(v int64) Builder              { b.p.DefaultDelay = v; return b }
func (b Builder) WithDefaultEnergy(v float64) Builder            { b.p.DefaultEnergy = v; return b }
func (b Builder) WithDefaultArea(v float64) Builder              { b.p.DefaultArea = v; return b }
func (b Builder) WithDefaultLeakage(v float64) Builder           { b.p.DefaultLeakage = v; return b }
func (b Builder) WithDetailedDelayAnnotation(on bool) Builder    { b.p.DetailedDelayAnnotation = on; return b }
func (b Builder) WithInfLoopOpt(on bool) Builder                 { b.p.InfLoopOpt = on; return b }
func (b Builder) WithQuiescenceBudget(n int) Builder             { b.p.QuiescenceBudget = n; return b }
func (b Builder) WithDevice(d DeviceParams) Builder              { b.p.Device = d; return b }
func (b Builder) WithLint(l LintParams) Builder                  { b.p.Lint = l; return b }
func (b Builder) WithNet(n NetParams) Builder                    { b.p.Net = n; return b }

// Build returns the configured Params.
func (b Builder) Build() Params { return b.p }
