package control

import (
	"fmt"
	"strings"
)

type Strategy int

const (
	OpenLoop Strategy = iota
	StraightTrack
	Proportional
	ProportionalDerivative
)

var strategyNames = map[Strategy]string{
	OpenLoop:               "open_loop",
	StraightTrack:          "straight",
	Proportional:           "straight_p",
	ProportionalDerivative: "straight_pd",
}

// Strategies lists every strategy from least to most feedback.
var Strategies = []Strategy{OpenLoop, StraightTrack, Proportional, ProportionalDerivative}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	switch name {
	case "open", "none":
		return OpenLoop, nil
	case "p":
		return Proportional, nil
	case "pd":
		return ProportionalDerivative, nil
	}
	return 0, fmt.Errorf("unknown strategy: %s", name)
}

// Stages returns the ordered correction stages for s.
func (s Strategy) Stages(initial InitialErrorPolicy) ([]Stage, error) {
	switch s {
	case OpenLoop:
		return nil, nil
	case StraightTrack:
		return []Stage{StraightStage{}}, nil
	case Proportional:
		return []Stage{StraightStage{}, PositionalStage{}}, nil
	case ProportionalDerivative:
		return []Stage{StraightStage{}, PositionalStage{}, DerivativeStage{Initial: initial}}, nil
	}
	return nil, fmt.Errorf("unknown strategy: %d", int(s))
}
