package profile

// AppendResult returns a copy of p with r prepended to the networking
// history (newest first). The input profile is not modified.
func AppendResult(p UserProfile, r NetworkingResult) UserProfile {
	out := p.Clone()
	history := make([]NetworkingResult, 0, len(out.NetworkingHistory)+1)
	history = append(history, r)
	history = append(history, out.NetworkingHistory...)
	out.NetworkingHistory = history
	return out
}

// RemoveResult returns a copy of p with the history entry matching id
// removed. When id is absent (or the history is empty) the returned profile
// is equal to p.
func RemoveResult(p UserProfile, id string) UserProfile {
	out := p.Clone()
	if len(out.NetworkingHistory) == 0 {
		return out
	}
	history := make([]NetworkingResult, 0, len(out.NetworkingHistory))
	for _, r := range out.NetworkingHistory {
		if r.ID == id {
			continue
		}
		history = append(history, r)
	}
	out.NetworkingHistory = history
	return out
}
