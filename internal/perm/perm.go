package perm

type Permission string
type Action string

const (
	View Permission = "view"
	Edit Permission = "edit"
)

const (
	ActionRead    Action = "read"
	ActionStart   Action = "start"
	ActionPause   Action = "pause"
	ActionFinish  Action = "finish"
	ActionScore   Action = "score"
	ActionComment Action = "comment"
	ActionTeam    Action = "team"
	ActionRole    Action = "role"
	ActionDelete  Action = "delete"
)

// Allows reports whether a mirror permission covers an action. Delete is
// never granted through a mirror; it requires original ownership.
func Allows(p Permission, action Action) bool {
	switch p {
	case Edit:
		return action != ActionDelete
	case View:
		return action == ActionRead
	default:
		return false
	}
}

func Normalize(p string) Permission {
	switch Permission(p) {
	case View, Edit:
		return Permission(p)
	default:
		return View
	}
}
