package engine

// RepairGaps compacts every classroom's occupied slots so no idle slot is
// left between the first and last booking. An assignment only moves into a
// hole when its whole slate is free there, so the repair never introduces
// instructor double-bookings. Best effort: classrooms whose slates are
// pinned elsewhere may keep residual gaps. Returns the number of moves.
func RepairGaps(r *Roster, s *Solution) int {
	nSlots := len(r.Slots)
	moved := 0
	for pass := 0; pass < nSlots; pass++ {
		people := newBitset(len(r.Instructors) * nSlots)
		byRoom := make([][]int, len(r.Classrooms))
		for i := range s.Assignments {
			a := &s.Assignments[i]
			if !a.Placed() {
				continue
			}
			byRoom[a.Classroom] = append(byRoom[a.Classroom], i)
			for _, ins := range a.Instructors {
				people.set(ins*nSlots + a.Slot)
			}
		}
		progressed := false
		for room := range byRoom {
			projects := byRoom[room]
			if len(projects) < 2 {
				continue
			}
			sortBySlot(s, projects)
			for idx := 1; idx < len(projects); idx++ {
				prev := s.Assignments[projects[idx-1]].Slot
				cur := &s.Assignments[projects[idx]]
				if cur.Slot <= prev+1 {
					continue
				}
				// hole between prev and cur.Slot: pull cur as far left as
				// its slate allows
				target := -1
				for hole := prev + 1; hole < cur.Slot; hole++ {
					if slateFreeAt(people, cur.Instructors, nSlots, hole) {
						target = hole
						break
					}
				}
				if target < 0 {
					continue
				}
				for _, ins := range cur.Instructors {
					people.clear(ins*nSlots + cur.Slot)
					people.set(ins*nSlots + target)
				}
				cur.Slot = target
				moved++
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return moved
}

func sortBySlot(s *Solution, projects []int) {
	for i := 1; i < len(projects); i++ {
		for j := i; j > 0 && s.Assignments[projects[j]].Slot < s.Assignments[projects[j-1]].Slot; j-- {
			projects[j], projects[j-1] = projects[j-1], projects[j]
		}
	}
}

func slateFreeAt(people bitset, slate []int, nSlots, slot int) bool {
	for _, ins := range slate {
		if people.has(ins*nSlots + slot) {
			return false
		}
	}
	return true
}
