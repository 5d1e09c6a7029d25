package analyzer

// Progress receives scan progress. Step returning false stops the scan; nothing has been
// written at that point. Mutations never report progress.
type Progress interface {
	Start(total int64)
	Step(percent int) bool
	Done()
}

type nopProgress struct{}

func (nopProgress) Start(int64)   {}
func (nopProgress) Step(int) bool { return true }
func (nopProgress) Done()         {}

// ProgressFuncs adapts plain functions to Progress; nil members are no-ops.
type ProgressFuncs struct {
	OnStart func(total int64)
	OnStep  func(percent int) bool
	OnDone  func()
}

func (p ProgressFuncs) Start(total int64) {
	if p.OnStart != nil {
		p.OnStart(total)
	}
}

func (p ProgressFuncs) Step(percent int) bool {
	if p.OnStep == nil {
		return true
	}
	return p.OnStep(percent)
}

func (p ProgressFuncs) Done() {
	if p.OnDone != nil {
		p.OnDone()
	}
}
