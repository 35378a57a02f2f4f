package agent

// State — состояние машины одного вызова.
type State int

const (
	StateIdle State = iota
	StateAwaitingFirstReply
	StateDispatchingTools
	StateAwaitingFollowupReply
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingFirstReply:
		return "awaiting_first_reply"
	case StateDispatchingTools:
		return "dispatching_tools"
	case StateAwaitingFollowupReply:
		return "awaiting_followup_reply"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage — этап, на котором вызов завершился ошибкой.
type Stage string

const (
	StageToolLoad           Stage = "tool load"
	StageFirstCompletion    Stage = "first completion"
	StageToolDispatch       Stage = "tool dispatch"
	StageFollowupCompletion Stage = "follow-up completion"
)
