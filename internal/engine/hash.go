package engine

import (
	"encoding/binary"
	"hash/fnv"
)

// SolutionHash produces the structural identity used by tabu memories and
// duplicate tracking. Assignments are walked in project order, which is
// already canonical for project-indexed solutions, so two solutions hash
// equal exactly when they place every project identically. No strings are
// built along the way.
func SolutionHash(s *Solution) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	word := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v)))
		h.Write(buf[:])
	}
	for i := range s.Assignments {
		a := &s.Assignments[i]
		word(a.Project)
		word(a.Classroom)
		word(a.Slot)
		word(len(a.Instructors))
		for _, ins := range a.Instructors {
			word(ins)
		}
	}
	return h.Sum64()
}
