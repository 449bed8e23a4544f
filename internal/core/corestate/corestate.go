package corestate

type Stage string

const (
	StageNotReady Stage = "init"
	StagePreInit  Stage = "pre-init"
	StagePostInit Stage = "post-init"
	StageReady    Stage = "event"
)

// Role is what the process was started as.
type Role string

const (
	RoleGateway Role = "gateway"
	RoleService Role = "service"
)

const (
	StringsNone string = "none"
)

func NewCorestate(o *CoreState) *CoreState {
	if o.Stage == "" {
		o.Stage = StageNotReady
	}
	return o
}
