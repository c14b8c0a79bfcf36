package cache

// View names of the feed's cached reads.
const (
	NameGoalUpdatesByUser   = "goal-updates-by-user"
	NameRecentUpdatesByGoal = "recent-updates-by-goal"
	NameAllUpdates          = "all-updates"
)

// Key identifies a cached view: a view name plus its parameter.
type Key struct {
	Name  string
	Param string
}

// NewKey returns the key for view name with an optional parameter.
func NewKey(name string, param string) Key {
	return Key{Name: name, Param: param}
}

// String returns "name" or "name|param".
func (k Key) String() string {
	if k.Param == "" {
		return k.Name
	}
	return k.Name + "|" + k.Param
}

// GoalUpdatesByUser is the key of the goals-with-updates view of a user.
func GoalUpdatesByUser(userID string) Key {
	return Key{Name: NameGoalUpdatesByUser, Param: userID}
}

// RecentUpdatesByGoal is the key of the recent updates of a goal.
func RecentUpdatesByGoal(goalID string) Key {
	return Key{Name: NameRecentUpdatesByGoal, Param: goalID}
}

// AllUpdates is the key of the aggregate feed.
func AllUpdates() Key {
	return Key{Name: NameAllUpdates}
}
