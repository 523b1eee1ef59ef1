package control

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/drivectl/internal/drive"
)

func stageNames(stages []Stage) []string {
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}

var _ = Describe("Strategy", func() {
	DescribeTable("stacks stages as refinements",
		func(s Strategy, want []string) {
			stages, err := s.Stages(InitialErrorZero)
			Expect(err).NotTo(HaveOccurred())
			Expect(stageNames(stages)).To(Equal(want))
		},
		Entry("open loop", OpenLoop, []string{}),
		Entry("straight", StraightTrack, []string{"straight"}),
		Entry("p", Proportional, []string{"straight", "positional"}),
		Entry("pd", ProportionalDerivative, []string{"straight", "positional", "derivative"}),
	)

	It("round-trips names", func() {
		for _, s := range Strategies {
			parsed, err := ParseStrategy(s.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(parsed).To(Equal(s))
		}
	})

	It("accepts short aliases", func() {
		Expect(ParseStrategy("PD")).To(Equal(ProportionalDerivative))
		Expect(ParseStrategy("p")).To(Equal(Proportional))
		Expect(ParseStrategy("open")).To(Equal(OpenLoop))
	})

	It("rejects unknown names", func() {
		_, err := ParseStrategy("bang_bang")
		Expect(err).To(HaveOccurred())
	})

	It("parses initial error policies", func() {
		Expect(ParseInitialErrorPolicy("first")).To(Equal(InitialErrorFirst))
		Expect(ParseInitialErrorPolicy("")).To(Equal(InitialErrorZero))
		_, err := ParseInitialErrorPolicy("last")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Stages", func() {
	gains := Gains{KS: 0.25, KP: 0.25, KD: 0.25}

	obs := func(master, slave, slaveVel, goal float64) Observation {
		return Observation{
			Goal:   goal,
			Master: drive.Reading{Position: master},
			Slave:  drive.Reading{Position: slave, Velocity: slaveVel},
		}
	}

	It("skips straight tracking when the wheels agree", func() {
		var cmd Commands
		StraightStage{}.Apply(obs(3, 3, 1, 10), gains, &State{}, &cmd)
		Expect(cmd.Empty()).To(BeTrue())
	})

	It("corrects a leading slave downward", func() {
		var cmd Commands
		StraightStage{}.Apply(obs(1, 2, 1, 10), gains, &State{}, &cmd)
		v, ok := cmd.Get(drive.Slave)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(0.75))
		_, ok = cmd.Get(drive.Master)
		Expect(ok).To(BeFalse())
	})

	It("skips the positional term at the setpoint", func() {
		var cmd Commands
		PositionalStage{}.Apply(obs(10, 9, 0, 10), gains, &State{}, &cmd)
		Expect(cmd.Empty()).To(BeTrue())
	})

	It("lets a later stage overwrite an earlier one", func() {
		var cmd Commands
		st := &State{}
		o := obs(4, 3, 1, 10)
		StraightStage{}.Apply(o, gains, st, &cmd)
		PositionalStage{}.Apply(o, gains, st, &cmd)
		v, _ := cmd.Get(drive.Slave)
		Expect(v).To(Equal(1.5))
	})

	It("updates the previous error even when the guard skips", func() {
		st := &State{PreviousError: 7}
		var cmd Commands
		DerivativeStage{}.Apply(obs(10, 10, 0, 10), gains, st, &cmd)
		Expect(cmd.Empty()).To(BeTrue())
		Expect(st.PreviousError).To(BeZero())
	})
})
