package models

// PlacementResult describes the outcome of a successful PlaceAgent call.
type PlacementResult struct {
	Position *TreePosition `json:"position"`
	// AlreadyPlaced is true when the agent already held a position for the
	// plan's fanout and nothing was written.
	AlreadyPlaced       bool            `json:"already_placed"`
	CommissionsReleased int             `json:"commissions_released"`
	UnlockedRewards     []*LockedReward `json:"unlocked_rewards,omitempty"`
	Attempts            int             `json:"attempts"`
}

// TriggerOutcome collects the effects of the two release triggers.
type TriggerOutcome struct {
	CommissionsReleased int
	UnlockedRewards     []*LockedReward
}

func (o *TriggerOutcome) Add(other TriggerOutcome) {
	o.CommissionsReleased += other.CommissionsReleased
	o.UnlockedRewards = append(o.UnlockedRewards, other.UnlockedRewards...)
}

// ReconcileResult summarizes a reconciliation pass over one fanout partition.
type ReconcileResult struct {
	Fanout              int `json:"fanout"`
	NodesChecked        int `json:"nodes_checked"`
	CommissionsReleased int `json:"commissions_released"`
	RewardsUnlocked     int `json:"rewards_unlocked"`
}
