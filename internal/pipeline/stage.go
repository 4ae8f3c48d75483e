package pipeline

import "fmt"

// Stage is one state of a run. States execute in declaration order and
// never go back.
type Stage int

const (
	StageNormalize Stage = iota
	StageValidateProperties
	StageDedupProperties
	StageValidateEvents
	StageDedupEvents
	StageReport
)

var stageNames = [...]string{
	StageNormalize:          "NORMALIZE",
	StageValidateProperties: "VALIDATE_PROPERTIES",
	StageDedupProperties:    "DEDUP_PROPERTIES",
	StageValidateEvents:     "VALIDATE_EVENTS",
	StageDedupEvents:        "DEDUP_EVENTS",
	StageReport:             "REPORT",
}

func (s Stage) String() string {
	if s >= 0 && int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Stages returns every stage in execution order.
func Stages() []Stage {
	out := make([]Stage, len(stageNames))
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}
