package control

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/drivectl/internal/drive"
	"github.com/san-kum/drivectl/internal/integrators"
	"github.com/san-kum/drivectl/internal/sim"
)

type countingMetric struct{ n int }

func (m *countingMetric) Name() string           { return "count" }
func (m *countingMetric) Observe(rec TickRecord) { m.n++ }
func (m *countingMetric) Value() float64         { return float64(m.n) }
func (m *countingMetric) Reset()                 { m.n = 0 }

// lastMasterMetric reports the last master position it saw.
type lastMasterMetric struct{ pos float64 }

func (m *lastMasterMetric) Name() string               { return "last_master" }
func (m *lastMasterMetric) Observe(rec TickRecord)     { m.pos = rec.Master.Position }
func (m *lastMasterMetric) Finalize(final Observation) { m.pos = final.Master.Position }
func (m *lastMasterMetric) Value() float64             { return m.pos }
func (m *lastMasterMetric) Reset()                     { m.pos = 0 }

var _ = Describe("Controller", func() {
	var (
		clk   *clock
		left  *scripted
		right *scripted
		ctx   context.Context
	)

	BeforeEach(func() {
		clk = &clock{}
		ctx = context.Background()
	})

	run := func(cfg Config, strategy Strategy, distance, power float64) (*Result, error) {
		return New(cfg, clk).Run(ctx, Command{Strategy: strategy, Distance: distance, Power: power}, drive.NewPair(left, right))
	}

	Describe("open loop", func() {
		It("reaches one wheel turn in three ticks without overrides", func() {
			cfg := DefaultConfig()
			cfg.DeadBand = 0.05
			left = newScripted(clk, func(tick int) float64 { return math.Min(float64(tick)/3, 1) })
			right = newScripted(clk, func(tick int) float64 { return math.Min(float64(tick)/3, 1) })

			res, err := run(cfg, OpenLoop, 12.566, 50)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Goal).To(BeNumerically("~", 1.0, 1e-4))
			Expect(res.Ticks).To(Equal(3))
			Expect(clk.ticks).To(Equal(3))
			Expect(left.moves).To(HaveLen(1))
			Expect(right.moves).To(HaveLen(1))
			Expect(left.moves[0]).To(Equal(move{rotations: res.Goal, power: 50}))
			Expect(right.moves[0]).To(Equal(move{rotations: res.Goal, power: 50}))
			Expect(left.overrides).To(BeEmpty())
			Expect(right.overrides).To(BeEmpty())
		})

		It("returns at once when the master starts inside the dead band", func() {
			left = newScripted(clk, constant(98))
			right = newScripted(clk, constant(0))

			res, err := run(unitConfig(), ProportionalDerivative, 100, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(BeZero())
			Expect(res.Trace).To(BeEmpty())
			Expect(clk.ticks).To(BeZero())
			Expect(right.overrides).To(BeEmpty())
		})
	})

	Describe("termination", func() {
		It("exits on the first tick strictly inside the dead band", func() {
			left = newScripted(clk, ramp(10))
			right = newScripted(clk, ramp(10))

			res, err := run(unitConfig(), OpenLoop, 100, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(10))
			Expect(res.Trace).To(HaveLen(10))
			Expect(res.Trace[9].Master.Position).To(Equal(90.0))
			Expect(res.Final.Master.Position).To(Equal(100.0))
		})

		It("treats the dead band edge as outside", func() {
			left = newScripted(clk, ramp(5))
			right = newScripted(clk, ramp(5))

			res, err := run(unitConfig(), OpenLoop, 100, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Trace[18].Master.Position).To(Equal(90.0))
			Expect(res.Trace[19].Master.Position).To(Equal(95.0))
			Expect(res.Ticks).To(Equal(20))
		})

		It("checks only the master", func() {
			left = newScripted(clk, until(2, 0, 100))
			right = newScripted(clk, constant(-1000))

			res, err := run(unitConfig(), OpenLoop, 100, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(2))
		})
	})

	Describe("straight tracking", func() {
		It("never corrects a slave that matches the master", func() {
			left = newScripted(clk, ramp(10))
			right = newScripted(clk, ramp(10))

			_, err := run(unitConfig(), StraightTrack, 100, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(right.overrides).To(BeEmpty())
			Expect(left.overrides).To(BeEmpty())
		})

		It("adds kS times the lateral error to the slave velocity", func() {
			left = newScripted(clk, until(5, 1.0, 100))
			right = newScripted(clk, constant(0.5))
			right.vel = 2

			res, err := run(unitConfig(), StraightTrack, 100, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(5))
			Expect(right.overrides).To(Equal([]float64{2.125, 2.125, 2.125, 2.125, 2.125}))
			Expect(left.overrides).To(BeEmpty())
		})
	})

	Describe("proportional", func() {
		It("drives both actuators at kP times the position error", func() {
			left = newScripted(clk, until(1, 4, 10))
			right = newScripted(clk, until(1, 3, 10))
			right.vel = 1

			res, err := run(unitConfig(), Proportional, 10, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(1))
			Expect(left.overrides).To(Equal([]float64{1.5}))
			// the straight correction (1.25) is overwritten, not summed
			Expect(right.overrides).To(Equal([]float64{1.5}))
		})
	})

	Describe("proportional derivative", func() {
		BeforeEach(func() {
			left = newScripted(clk, ramp(2))
			right = newScripted(clk, ramp(2))
		})

		pdConfig := func(policy InitialErrorPolicy) Config {
			cfg := unitConfig()
			cfg.DeadBand = 0.5
			cfg.InitialError = policy
			return cfg
		}

		It("carries the previous error forward tick by tick", func() {
			res, err := run(pdConfig(InitialErrorZero), ProportionalDerivative, 10, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Ticks).To(Equal(5))

			for i, rec := range res.Trace {
				Expect(rec.PreviousError).To(Equal(rec.PositionError), "tick %d", i)
			}
			Expect(res.Trace[4].PreviousError).To(Equal(2.0))
		})

		It("uses zero as the first previous error by default", func() {
			_, err := run(pdConfig(InitialErrorZero), ProportionalDerivative, 10, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.overrides[0]).To(Equal(5.0))
		})

		It("can seed the previous error with the first error", func() {
			_, err := run(pdConfig(InitialErrorFirst), ProportionalDerivative, 10, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(left.overrides[0]).To(Equal(2.5))
		})

		It("converges to the same steady-state commands under either policy", func() {
			_, err := run(pdConfig(InitialErrorZero), ProportionalDerivative, 10, 50)
			Expect(err).NotTo(HaveOccurred())
			zero := append([]float64(nil), left.overrides...)

			clk = &clock{}
			left = newScripted(clk, ramp(2))
			right = newScripted(clk, ramp(2))
			_, err = run(pdConfig(InitialErrorFirst), ProportionalDerivative, 10, 50)
			Expect(err).NotTo(HaveOccurred())

			Expect(zero[1:]).To(Equal([]float64{1.5, 1.0, 0.5, 0}))
			Expect(left.overrides[1:]).To(Equal(zero[1:]))
			Expect(right.overrides).To(Equal(left.overrides))
		})
	})

	Describe("repeatability", func() {
		It("commands the same overrides on a fresh plant", func() {
			cfg := DefaultConfig()
			cfg.DeadBand = 0.25
			cfg.MaxTicks = 20000

			runOnce := func() []Commands {
				plant, err := sim.NewPlant(sim.DefaultConfig(), integrators.NewRK4(), cfg.TickInterval)
				Expect(err).NotTo(HaveOccurred())
				res, err := New(cfg, plant).Run(ctx, Command{Strategy: ProportionalDerivative, Distance: 48, Power: 3}, plant.Pair())
				Expect(err).NotTo(HaveOccurred())
				cmds := make([]Commands, len(res.Trace))
				for i, rec := range res.Trace {
					cmds[i] = rec.Commands
				}
				return cmds
			}

			first := runOnce()
			Expect(first).NotTo(BeEmpty())
			Expect(runOnce()).To(Equal(first))
		})
	})

	Describe("validation", func() {
		BeforeEach(func() {
			left = newScripted(clk, constant(0))
			right = newScripted(clk, constant(0))
		})

		DescribeTable("rejects bad input with ErrInvalidParameter",
			func(mutate func(*Config), strategy Strategy, distance, power float64) {
				cfg := unitConfig()
				mutate(&cfg)
				_, err := run(cfg, strategy, distance, power)
				Expect(errors.Is(err, drive.ErrInvalidParameter)).To(BeTrue(), "got %v", err)
				Expect(left.moves).To(BeEmpty())
			},
			Entry("zero circumference", func(c *Config) { c.WheelCircumference = 0 }, OpenLoop, 10.0, 50.0),
			Entry("negative circumference", func(c *Config) { c.WheelCircumference = -1 }, OpenLoop, 10.0, 50.0),
			Entry("NaN circumference", func(c *Config) { c.WheelCircumference = math.NaN() }, OpenLoop, 10.0, 50.0),
			Entry("zero power", func(c *Config) {}, OpenLoop, 10.0, 0.0),
			Entry("negative distance", func(c *Config) {}, OpenLoop, -10.0, 50.0),
			Entry("infinite distance", func(c *Config) {}, OpenLoop, math.Inf(1), 50.0),
			Entry("zero dead band", func(c *Config) { c.DeadBand = 0 }, OpenLoop, 10.0, 50.0),
			Entry("negative gain", func(c *Config) { c.Gains.KP = -1 }, Proportional, 10.0, 50.0),
			Entry("zero tick interval", func(c *Config) { c.TickInterval = 0 }, OpenLoop, 10.0, 50.0),
			Entry("unknown strategy", func(c *Config) {}, Strategy(42), 10.0, 50.0),
		)

		It("requires both actuators", func() {
			_, err := New(unitConfig(), clk).Run(ctx, Command{Strategy: OpenLoop, Distance: 10, Power: 50}, drive.Pair{Master: left})
			Expect(err).To(MatchError(drive.ErrInvalidParameter))
		})

		It("accepts reverse moves when allowed", func() {
			cfg := unitConfig()
			cfg.AllowReverse = true
			left = newScripted(clk, until(1, 0, -10))

			res, err := run(cfg, OpenLoop, -10, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Goal).To(Equal(-10.0))
			Expect(res.Ticks).To(Equal(1))
		})
	})

	Describe("bounds", func() {
		BeforeEach(func() {
			left = newScripted(clk, constant(0))
			right = newScripted(clk, constant(0))
		})

		It("reports a stall after MaxTicks", func() {
			cfg := unitConfig()
			cfg.MaxTicks = 3

			res, err := run(cfg, StraightTrack, 100, 50)
			Expect(err).To(MatchError(drive.ErrStalled))

			var merr *drive.MotionError
			Expect(errors.As(err, &merr)).To(BeTrue())
			Expect(merr.Tick).To(Equal(3))
			Expect(merr.Goal).To(Equal(100.0))
			Expect(res.Ticks).To(Equal(3))
			Expect(res.Trace).To(HaveLen(3))
		})

		It("reports a timeout on wall time", func() {
			cfg := unitConfig()
			cfg.Timeout = 20 * time.Millisecond

			res, err := New(cfg, nil).Run(ctx, Command{Strategy: OpenLoop, Distance: 100, Power: 50}, drive.NewPair(left, right))
			Expect(err).To(MatchError(drive.ErrTimeout))
			Expect(res).NotTo(BeNil())
			Expect(res.Ticks).To(BeNumerically(">", 0))
		})

		It("reports caller cancellation", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()

			_, err := New(unitConfig(), clk).Run(canceled, Command{Strategy: OpenLoop, Distance: 100, Power: 50}, drive.NewPair(left, right))
			Expect(err).To(MatchError(drive.ErrCanceled))
		})

		It("treats a caller deadline as cancellation, not timeout", func() {
			cfg := unitConfig()
			cfg.Timeout = time.Hour
			short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer cancel()

			res, err := New(cfg, nil).Run(short, Command{Strategy: OpenLoop, Distance: 100, Power: 50}, drive.NewPair(left, right))
			Expect(err).To(MatchError(drive.ErrCanceled))
			Expect(errors.Is(err, drive.ErrTimeout)).To(BeFalse())
			Expect(res).NotTo(BeNil())
		})

		It("wraps scheduler failures", func() {
			bus := errors.New("bus fault")
			clk.err = bus

			_, err := run(unitConfig(), OpenLoop, 100, 50)
			Expect(err).To(MatchError(bus))
			Expect(errors.Is(err, drive.ErrStalled)).To(BeFalse())
		})
	})

	Describe("hooks", func() {
		It("feeds metrics and observers every tick", func() {
			left = newScripted(clk, ramp(10))
			right = newScripted(clk, ramp(10))

			metric := &countingMetric{n: 99}
			var seen []int
			ctrl := New(unitConfig(), clk)
			ctrl.AddMetric(metric)
			ctrl.AddObserver(ObserverFunc(func(rec TickRecord) { seen = append(seen, rec.Tick) }))

			res, err := ctrl.Run(ctx, Command{Strategy: StraightTrack, Distance: 100, Power: 50}, drive.NewPair(left, right))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Metrics).To(HaveKeyWithValue("count", 10.0))
			Expect(seen).To(Equal([]int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}))
		})
	})

	It("hands the terminating observation to finalizing metrics", func() {
		left = newScripted(clk, ramp(10))
		right = newScripted(clk, ramp(10))

		counting, last := &countingMetric{}, &lastMasterMetric{}
		ctrl := New(unitConfig(), clk)
		ctrl.AddMetric(counting)
		ctrl.AddMetric(last)

		res, err := ctrl.Run(ctx, Command{Strategy: OpenLoop, Distance: 100, Power: 50}, drive.NewPair(left, right))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Trace[len(res.Trace)-1].Master.Position).To(Equal(90.0))
		Expect(res.Final.Master.Position).To(Equal(100.0))
		Expect(res.Metrics).To(HaveKeyWithValue("last_master", 100.0))
		Expect(res.Metrics).To(HaveKeyWithValue("count", 10.0))
	})

	It("exposes the invocation interface through RunMotion", func() {
		left = newScripted(clk, until(2, 0, 10))
		right = newScripted(clk, constant(0))

		res, err := RunMotion(ctx, OpenLoop, 10, 50, left, right, unitConfig(), clk)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Ticks).To(Equal(2))
		Expect(res.Strategy).To(Equal(OpenLoop))
	})
})
